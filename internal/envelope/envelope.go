// Package envelope defines the webhook payload shape and its validation.
package envelope

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON means the body is not well-formed JSON.
	ErrInvalidJSON = errors.New("invalid JSON payload")

	// ErrInvalidStructure means the body parsed but is missing a required
	// envelope field.
	ErrInvalidStructure = errors.New("invalid payload structure")
)

// requiredFields must all be present at the top level of the envelope.
var requiredFields = []string{"event", "timestamp", "data"}

// Envelope is the parsed webhook payload.
type Envelope struct {
	Event     string                 `json:"event"`
	Timestamp string                 `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Parse validates and decodes a webhook body.
//
// Callers must verify the signature of raw before calling Parse; the
// envelope is never trusted unauthenticated. Field presence is checked on
// the raw bytes before the full decode, so `"data": null` and a missing
// data key are distinguished (both are rejected).
func Parse(raw []byte) (Envelope, error) {
	if !gjson.ValidBytes(raw) {
		return Envelope{}, ErrInvalidJSON
	}

	body := gjson.ParseBytes(raw)
	if !body.IsObject() {
		return Envelope{}, ErrInvalidStructure
	}
	for _, field := range requiredFields {
		if v := body.Get(field); !v.Exists() || v.Type == gjson.Null {
			return Envelope{}, ErrInvalidStructure
		}
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, ErrInvalidJSON
	}
	return env, nil
}
