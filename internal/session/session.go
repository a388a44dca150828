// Package session implements the study-session lifecycle: a timed wager
// against a self-declared pledge, with stamina and focus-gauge arithmetic,
// an interruption ledger, and win/lose judgment at completion.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/astralworks/starlog/internal/errors"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusAbandoned Status = "ABANDONED"
)

// Terminal reports whether no transition leaves this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Experience reward constants.
const (
	winBonusExp   = 100
	focusBonusExp = 50
)

// Session is one timed attempt at a pledge. Transitions must be serialized
// per session id by the caller; the struct itself is not safe for concurrent
// mutation.
type Session struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	StudyDayID     uuid.UUID
	Pledge         Pledge
	TargetDuration time.Duration
	TagIDs         []uuid.UUID

	Status    Status
	StartedAt time.Time
	EndedAt   *time.Time
	CreatedAt time.Time

	Stamina Stamina
	Gauge   FocusGauge
	Bet     *Bet

	// Interruptions holds completed pause/resume records, in order.
	Interruptions []*Interruption

	// ongoing is the single in-flight interruption while PAUSED.
	ongoing *Interruption

	// currentFocusStartedAt marks the start of the running focus interval.
	// Defined iff Status == ACTIVE.
	currentFocusStartedAt *time.Time
}

// Start creates a session in ACTIVE state with full stamina, a fresh focus
// gauge, and a pending bet.
func Start(userID, studyDayID uuid.UUID, pledge Pledge, targetDuration time.Duration, tagIDs []uuid.UUID, now time.Time) (*Session, error) {
	if targetDuration <= 0 {
		return nil, errors.NewValidation("targetDuration", "must be positive")
	}

	s := &Session{
		ID:             uuid.New(),
		UserID:         userID,
		StudyDayID:     studyDayID,
		Pledge:         pledge,
		TargetDuration: targetDuration,
		TagIDs:         append([]uuid.UUID(nil), tagIDs...),
		Status:         StatusActive,
		StartedAt:      now,
		CreatedAt:      now,
		Stamina:        FullStamina(),
		Gauge:          NewFocusGauge(targetDuration),
	}
	s.currentFocusStartedAt = &s.StartedAt
	s.Bet = NewBet(s.ID, targetDuration, pledge.Content, now)
	return s, nil
}

// Pause suspends an ACTIVE session: the elapsed continuous focus is fed to
// the gauge and a new interruption opens.
func (s *Session) Pause(reason Reason, now time.Time) (*Interruption, error) {
	if s.Status != StatusActive {
		return nil, errors.NewInvalidState("pause", string(s.Status), string(StatusActive))
	}

	s.Gauge.RecordFocusPeriod(now.Sub(*s.currentFocusStartedAt))
	s.Status = StatusPaused
	s.currentFocusStartedAt = nil

	s.ongoing = StartInterruption(s.ID, reason, now)
	return s.ongoing, nil
}

// Resume closes the ongoing interruption, charges stamina for it, appends it
// to the ledger, and returns to ACTIVE with a fresh focus cursor.
func (s *Session) Resume(now time.Time) (*Interruption, error) {
	if s.Status != StatusPaused {
		return nil, errors.NewInvalidState("resume", string(s.Status), string(StatusPaused))
	}

	interruption := s.ongoing
	duration := interruption.Complete(now)

	consumed := s.Stamina.Consume(interruption.Reason, duration, s.TargetDuration)
	interruption.RecordStaminaConsumed(consumed, s.Stamina.Percentage())
	s.Interruptions = append(s.Interruptions, interruption)
	s.ongoing = nil

	s.currentFocusStartedAt = &now
	s.Status = StatusActive
	return interruption, nil
}

// Complete ends the session normally and judges the bet: a win requires the
// actual focus time to reach the target and at least one point of stamina.
func (s *Session) Complete(now time.Time) (Result, error) {
	if s.Status.Terminal() {
		return Result{}, errors.NewInvalidState("complete", string(s.Status), "ACTIVE or PAUSED")
	}

	s.flushFocus(now)
	s.EndedAt = &now
	s.Status = StatusCompleted

	actualFocus := s.actualFocusTime()
	betResult := s.judgeBet(actualFocus, now)

	baseExp := int(actualFocus.Minutes())
	winBonus := 0
	if betResult == BetWin {
		winBonus = winBonusExp
	}
	focusBonus := 0
	if s.Gauge.QualifiesForBonus() {
		focusBonus = focusBonusExp
	}

	return Result{
		SessionID:              s.ID,
		BetResult:              betResult,
		ActualFocusTime:        actualFocus,
		FinalStaminaPercent:    s.Stamina.Percentage(),
		FinalGaugePercent:      s.Gauge.Percentage(),
		LongestContinuousFocus: s.Gauge.LongestContinuousFocus(),
		TotalExp:               baseExp + winBonus + focusBonus,
		ReceivedFocusBonus:     focusBonus > 0,
	}, nil
}

// Abandon ends the session as a forfeit: the bet is an automatic loss and
// experience accrues at half rate with no bonuses.
func (s *Session) Abandon(now time.Time) (Result, error) {
	if s.Status.Terminal() {
		return Result{}, errors.NewInvalidState("abandon", string(s.Status), "ACTIVE or PAUSED")
	}

	s.flushFocus(now)
	s.EndedAt = &now
	s.Status = StatusAbandoned
	s.Bet.lose(FailReasonAbandoned, now)

	actualFocus := s.actualFocusTime()
	baseExp := int(actualFocus.Minutes() * 0.5)

	return Result{
		SessionID:              s.ID,
		BetResult:              BetLose,
		ActualFocusTime:        actualFocus,
		FinalStaminaPercent:    s.Stamina.Percentage(),
		FinalGaugePercent:      s.Gauge.Percentage(),
		LongestContinuousFocus: s.Gauge.LongestContinuousFocus(),
		TotalExp:               baseExp,
		ReceivedFocusBonus:     false,
	}, nil
}

// OngoingInterruption returns the in-flight interruption while PAUSED, nil
// otherwise.
func (s *Session) OngoingInterruption() *Interruption { return s.ongoing }

// CurrentFocusStartedAt returns the focus cursor, nil unless ACTIVE.
func (s *Session) CurrentFocusStartedAt() *time.Time { return s.currentFocusStartedAt }

func (s *Session) flushFocus(now time.Time) {
	if s.Status == StatusActive {
		s.Gauge.RecordFocusPeriod(now.Sub(*s.currentFocusStartedAt))
	}
	s.currentFocusStartedAt = nil
}

func (s *Session) judgeBet(actualFocus time.Duration, now time.Time) BetResult {
	timeAchieved := actualFocus >= s.TargetDuration
	staminaSufficient := s.Stamina.CanWinBet()

	if timeAchieved && staminaSufficient {
		s.Bet.win(now)
		return BetWin
	}

	reason := FailReasonTimeNotMet
	if !staminaSufficient {
		reason = FailReasonStaminaDepleted
	}
	s.Bet.lose(reason, now)
	return BetLose
}

// actualFocusTime is total elapsed time minus the sum of completed
// interruption durations.
func (s *Session) actualFocusTime() time.Duration {
	var totalInterruption time.Duration
	for _, i := range s.Interruptions {
		totalInterruption += i.Duration()
	}
	return s.EndedAt.Sub(s.StartedAt) - totalInterruption
}

// Restore rebuilds a session from persisted state. The ongoing interruption,
// if any, must be supplied for PAUSED sessions; the focus cursor for ACTIVE.
func Restore(
	id, userID, studyDayID uuid.UUID,
	pledge Pledge,
	targetDuration time.Duration,
	tagIDs []uuid.UUID,
	status Status,
	startedAt time.Time,
	endedAt *time.Time,
	createdAt time.Time,
	stamina Stamina,
	gauge FocusGauge,
	bet *Bet,
	interruptions []*Interruption,
	ongoing *Interruption,
	currentFocusStartedAt *time.Time,
) *Session {
	return &Session{
		ID:                    id,
		UserID:                userID,
		StudyDayID:            studyDayID,
		Pledge:                pledge,
		TargetDuration:        targetDuration,
		TagIDs:                tagIDs,
		Status:                status,
		StartedAt:             startedAt,
		EndedAt:               endedAt,
		CreatedAt:             createdAt,
		Stamina:               stamina,
		Gauge:                 gauge,
		Bet:                   bet,
		Interruptions:         interruptions,
		ongoing:               ongoing,
		currentFocusStartedAt: currentFocusStartedAt,
	}
}
