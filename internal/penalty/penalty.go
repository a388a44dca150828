// Package penalty records the narrative consequence of a lost bet: a
// context snapshot of the failed session plus AI-generated (or fallback)
// content.
package penalty

import (
	"time"

	"github.com/google/uuid"

	"github.com/astralworks/starlog/internal/session"
)

// Type labels the penalty flavor. Only one exists today.
type Type string

const TypeWeakHumanDiary Type = "WEAK_HUMAN_DIARY"

// InterruptionSummary condenses one interruption for the penalty context.
type InterruptionSummary struct {
	Reason          session.Reason `json:"reason"`
	Duration        time.Duration  `json:"duration"`
	StaminaConsumed int            `json:"stamina_consumed"`
}

// Context is the data contract handed to the narrative collaborator.
type Context struct {
	OriginalPledge      string                `json:"original_pledge"`
	TargetDuration      time.Duration         `json:"target_duration"`
	ActualDuration      time.Duration         `json:"actual_duration"`
	FinalStaminaPercent int                   `json:"final_stamina_percent"`
	FinalGaugePercent   int                   `json:"final_gauge_percent"`
	FailReason          string                `json:"fail_reason"`
	Interruptions       []InterruptionSummary `json:"interruptions"`
}

// Penalty is created whenever a bet is lost. Content arrives after creation,
// from the collaborator or from the fallback template.
type Penalty struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	SessionID uuid.UUID
	BetID     uuid.UUID
	Type      Type
	Content   string
	Context   Context
	Archived  bool
	Viewed    bool
	CreatedAt time.Time
}

// New creates an archived, unviewed penalty awaiting content.
func New(userID, sessionID, betID uuid.UUID, ctx Context, now time.Time) *Penalty {
	return &Penalty{
		ID:        uuid.New(),
		UserID:    userID,
		SessionID: sessionID,
		BetID:     betID,
		Type:      TypeWeakHumanDiary,
		Context:   ctx,
		Archived:  true,
		CreatedAt: now,
	}
}

// SetContent stores the generated narrative.
func (p *Penalty) SetContent(content string) { p.Content = content }

// MarkViewed flags the penalty as seen by its owner.
func (p *Penalty) MarkViewed() { p.Viewed = true }

// Unarchive surfaces the penalty in the user's visible history.
func (p *Penalty) Unarchive() { p.Archived = false }

// ContextFromSession builds the collaborator payload from a settled session.
func ContextFromSession(s *session.Session, result session.Result) Context {
	summaries := make([]InterruptionSummary, 0, len(s.Interruptions))
	for _, i := range s.Interruptions {
		summaries = append(summaries, InterruptionSummary{
			Reason:          i.Reason,
			Duration:        i.Duration(),
			StaminaConsumed: i.StaminaConsumed,
		})
	}
	return Context{
		OriginalPledge:      s.Pledge.Content,
		TargetDuration:      s.TargetDuration,
		ActualDuration:      result.ActualFocusTime,
		FinalStaminaPercent: result.FinalStaminaPercent,
		FinalGaugePercent:   result.FinalGaugePercent,
		FailReason:          s.Bet.FailReason,
		Interruptions:       summaries,
	}
}
