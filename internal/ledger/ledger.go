// Package ledger records delivery identifiers already processed, giving
// the receiver at-most-once side effects under at-least-once delivery.
package ledger

import "context"

// Ledger is the delivery deduplication record. The server owns one
// instance and injects it into request handling.
type Ledger interface {
	// CheckAndRecord atomically tests and records a delivery identifier.
	// It returns true when id has not been seen before (proceed) and
	// false when it is a duplicate (short-circuit). Two concurrent calls
	// with the same id never both observe true.
	CheckAndRecord(ctx context.Context, id string) (bool, error)

	// Size returns the current number of recorded identifiers.
	Size(ctx context.Context) (int, error)

	// Close releases any resources held by the ledger.
	Close()
}
