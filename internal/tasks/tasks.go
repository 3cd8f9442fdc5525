// Package tasks defines the asynq task types and payloads.
package tasks

import "encoding/json"

const (
	// TypeSessionReap is the periodic task that ends sessions whose last
	// activity is older than the configured idle TTL.
	TypeSessionReap = "session:reap"
)

// SessionReapPayload carries the parameters of one reap run. Empty for now;
// the cutoff is computed from configuration at execution time so a queued
// task never acts on a stale TTL.
type SessionReapPayload struct{}

// NewSessionReapTask builds the serialized payload for a session reap task.
func NewSessionReapTask() ([]byte, error) {
	return json.Marshal(SessionReapPayload{})
}
