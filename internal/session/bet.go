package session

import (
	"time"

	"github.com/google/uuid"
)

// BetResult is the judged outcome of a wager.
type BetResult string

const (
	BetPending BetResult = "PENDING"
	BetWin     BetResult = "WIN"
	BetLose    BetResult = "LOSE"
)

// Fail reasons recorded on a lost bet. The stamina check takes priority in
// the message when both conditions fail.
const (
	FailReasonStaminaDepleted = "stamina depleted"
	FailReasonTimeNotMet      = "target time not met"
	FailReasonAbandoned       = "session abandoned"
)

// Bet is the wager tied 1:1 to a session, created atomically with it and
// judged exactly once when the session ends.
type Bet struct {
	ID             uuid.UUID
	SessionID      uuid.UUID
	TargetDuration time.Duration
	PledgeContent  string
	Result         BetResult
	FailReason     string
	JudgedAt       *time.Time
	CreatedAt      time.Time
}

// NewBet creates a pending bet for a session.
func NewBet(sessionID uuid.UUID, targetDuration time.Duration, pledgeContent string, now time.Time) *Bet {
	return &Bet{
		ID:             uuid.New(),
		SessionID:      sessionID,
		TargetDuration: targetDuration,
		PledgeContent:  pledgeContent,
		Result:         BetPending,
		CreatedAt:      now,
	}
}

func (b *Bet) win(now time.Time) {
	b.Result = BetWin
	b.JudgedAt = &now
}

func (b *Bet) lose(reason string, now time.Time) {
	b.Result = BetLose
	b.FailReason = reason
	b.JudgedAt = &now
}
