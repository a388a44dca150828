package session

import (
	"time"

	"github.com/google/uuid"
)

// Result is the settled outcome of a completed or abandoned session,
// consumed by the daily aggregator and the penalty pipeline.
type Result struct {
	SessionID              uuid.UUID
	BetResult              BetResult
	ActualFocusTime        time.Duration
	FinalStaminaPercent    int
	FinalGaugePercent      int
	LongestContinuousFocus time.Duration
	TotalExp               int
	ReceivedFocusBonus     bool
}

// ShouldCreatePenalty reports whether the loss pipeline runs for this result.
func (r Result) ShouldCreatePenalty() bool { return r.BetResult == BetLose }
