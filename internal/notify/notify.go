// Package notify delivers one-way session events to the owning user.
// Delivery is fire-and-forget: failures are logged, never surfaced to the
// settlement core.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// SessionEvent is the payload pushed on every lifecycle transition.
type SessionEvent struct {
	SessionID         uuid.UUID `json:"session_id"`
	UserID            uuid.UUID `json:"user_id"`
	Status            string    `json:"status"`
	Stamina           int       `json:"stamina"`
	FocusGauge        int       `json:"focus_gauge"`
	TotalStudySeconds int64     `json:"total_study_seconds"`
	Timestamp         time.Time `json:"timestamp"`
}

// Notifier is a one-way event sink.
type Notifier interface {
	NotifySessionEvent(event SessionEvent)
}

// Nop discards all events. Used when no sink is configured.
type Nop struct{}

func (Nop) NotifySessionEvent(SessionEvent) {}
