// Package audit defines the audit trail contract.
// The postgres implementation compresses large payloads; domain services
// only see this small interface.
package audit

import (
	"context"

	"farmapos/internal/core/id"
)

// Action is the type of audited operation.
type Action string

const (
	ActionCheckout   Action = "checkout"
	ActionAdjustment Action = "stock_adjustment"
	ActionIssue      Action = "reward_issue"
	ActionRedeem     Action = "reward_redeem"
)

// Entry is one audit record. Payload is marshaled by the recorder.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	Actor      string
	Payload    any
}

// Recorder appends audit entries. Implementations join the caller's
// transaction when one is active.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Nop is a Recorder that discards entries; used in tests.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(ctx context.Context, entry Entry) error { return nil }
