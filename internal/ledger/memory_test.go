package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFirstDeliveryProceedsDuplicateShortCircuits(t *testing.T) {
	led := NewMemory(10)
	ctx := context.Background()

	first, err := led.CheckAndRecord(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := led.CheckAndRecord(ctx, "d-1")
	require.NoError(t, err)
	assert.False(t, again)

	size, err := led.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

// Two concurrent deliveries with the same identifier must not both
// observe "not seen".
func TestMemoryCheckAndRecordIsAtomic(t *testing.T) {
	led := NewMemory(100)
	ctx := context.Background()

	const callers = 64
	var firsts atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			first, err := led.CheckAndRecord(ctx, "same-delivery")
			assert.NoError(t, err)
			if first {
				firsts.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), firsts.Load())
}

func TestMemoryEvictsOldestFirst(t *testing.T) {
	led := NewMemory(10) // eviction batch = 1
	ctx := context.Background()

	for i := 1; i <= 11; i++ {
		first, err := led.CheckAndRecord(ctx, fmt.Sprintf("d-%d", i))
		require.NoError(t, err)
		require.True(t, first)
	}

	size, err := led.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, size)

	// d-1 was the oldest and must be gone; d-2 must have survived.
	evicted, err := led.CheckAndRecord(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, evicted, "oldest entry should have been evicted")

	kept, err := led.CheckAndRecord(ctx, "d-2")
	require.NoError(t, err)
	assert.False(t, kept, "second-oldest entry should have survived")
}

func TestMemoryCapacityBoundUnderLoad(t *testing.T) {
	led := NewMemory(1000)
	ctx := context.Background()

	for i := 1; i <= 1500; i++ {
		first, err := led.CheckAndRecord(ctx, fmt.Sprintf("d-%d", i))
		require.NoError(t, err)
		require.True(t, first)

		size, err := led.Size(ctx)
		require.NoError(t, err)
		require.LessOrEqual(t, size, 1000)
	}

	// The most recent delivery is retrievable as seen; the first was evicted.
	last, err := led.CheckAndRecord(ctx, "d-1500")
	require.NoError(t, err)
	assert.False(t, last)

	first, err := led.CheckAndRecord(ctx, "d-1")
	require.NoError(t, err)
	assert.True(t, first)
}

func TestMemoryDefaultCapacity(t *testing.T) {
	led := NewMemory(0)
	assert.Equal(t, DefaultCapacity, led.capacity)
}
