package studyday

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/astralworks/starlog/internal/session"
)

// MvpPeriod is the day's longest uninterrupted focus interval.
type MvpPeriod struct {
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	SessionID uuid.UUID     `json:"session_id"`
}

// DisplayString renders the MVP period for user-facing summaries.
func (m MvpPeriod) DisplayString() string {
	return fmt.Sprintf("MVP stretch: %s~%s (%d min uninterrupted)",
		m.StartTime.Format("15:04"),
		m.EndTime.Format("15:04"),
		int(m.Duration.Minutes()),
	)
}

// CrisisEvent is one interruption worth calling out in the day's summary.
type CrisisEvent struct {
	StoppedAt time.Time      `json:"stopped_at"`
	ResumedAt time.Time      `json:"resumed_at"`
	Reason    session.Reason `json:"reason"`
	SessionID uuid.UUID      `json:"session_id"`
}

// DisplayString renders the crisis event for user-facing summaries.
func (c CrisisEvent) DisplayString() string {
	return fmt.Sprintf("crisis: %s stop -> %s resume (%s)",
		c.StoppedAt.Format("15:04"),
		c.ResumedAt.Format("15:04"),
		c.Reason.DisplayName(),
	)
}

// Highlight is the narrative payload attached at day finalization. Stored
// opaquely as JSON; produced partly by the narrative collaborator.
type Highlight struct {
	MvpPeriod    *MvpPeriod    `json:"mvp_period,omitempty"`
	CrisisEvents []CrisisEvent `json:"crisis_events,omitempty"`
	AISuggestion string        `json:"ai_suggestion,omitempty"`
}
