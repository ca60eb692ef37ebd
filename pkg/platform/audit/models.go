package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time
	Action     Action
	RecordID   string
	RecordType string
	IdentityID string
	Role       string
	Detail     string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

// Action names an auditable occurrence.
type Action string

const (
	ActionRecordCreated   Action = "record_created"
	ActionRecordResolved  Action = "record_resolved"
	ActionRecordCollected Action = "record_collected"
	ActionSessionStarted  Action = "session_started"
	ActionSessionEnded    Action = "session_ended"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}
