package session

import (
	"time"

	"github.com/google/uuid"
)

// Interruption is one pause-to-resume interval. It is created when the
// session pauses, finalized when it resumes, and immutable afterwards.
type Interruption struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Reason    Reason
	StoppedAt time.Time
	ResumedAt *time.Time

	durationSeconds *int64

	StaminaConsumed int
	StaminaAfter    int

	CreatedAt time.Time
}

// StartInterruption opens an ongoing interruption at the pause instant.
func StartInterruption(sessionID uuid.UUID, reason Reason, stoppedAt time.Time) *Interruption {
	return &Interruption{
		ID:        uuid.New(),
		SessionID: sessionID,
		Reason:    reason,
		StoppedAt: stoppedAt,
		CreatedAt: stoppedAt,
	}
}

// Complete finalizes the interruption at the resume instant and returns its
// duration. Durations are non-negative by caller contract (monotonic clock).
func (i *Interruption) Complete(resumedAt time.Time) time.Duration {
	i.ResumedAt = &resumedAt
	d := resumedAt.Sub(i.StoppedAt)
	seconds := int64(d.Seconds())
	i.durationSeconds = &seconds
	return d
}

// RecordStaminaConsumed stores the computed cost. Set once, at resume time.
func (i *Interruption) RecordStaminaConsumed(consumed, after int) {
	i.StaminaConsumed = consumed
	i.StaminaAfter = after
}

// Ongoing reports whether the interruption has not yet been resumed.
func (i *Interruption) Ongoing() bool { return i.ResumedAt == nil }

// Duration returns the finalized duration, or zero while ongoing.
func (i *Interruption) Duration() time.Duration {
	if i.durationSeconds == nil {
		return 0
	}
	return time.Duration(*i.durationSeconds) * time.Second
}

// RestoreInterruption rebuilds an interruption from persisted fields.
func RestoreInterruption(
	id, sessionID uuid.UUID,
	reason Reason,
	stoppedAt time.Time,
	resumedAt *time.Time,
	staminaConsumed, staminaAfter int,
	createdAt time.Time,
) *Interruption {
	i := &Interruption{
		ID:              id,
		SessionID:       sessionID,
		Reason:          reason,
		StoppedAt:       stoppedAt,
		ResumedAt:       resumedAt,
		StaminaConsumed: staminaConsumed,
		StaminaAfter:    staminaAfter,
		CreatedAt:       createdAt,
	}
	if resumedAt != nil {
		seconds := int64(resumedAt.Sub(stoppedAt).Seconds())
		i.durationSeconds = &seconds
	}
	return i
}
