package queue

import (
	"time"

	"github.com/google/uuid"
)

// CallEvent describes the outcome of one dispatch.
type CallEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Source     string    `json:"source"`
	Outcome    string    `json:"outcome"`
	To         string    `json:"to,omitempty"`
	CallID     *string   `json:"call_id,omitempty"`
	AgentID    string    `json:"agent_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	OccurredAt time.Time `json:"occurred_at"`
}
