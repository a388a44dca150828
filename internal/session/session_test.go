package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astralworks/starlog/internal/errors"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func startTestSession(t *testing.T, target time.Duration) *Session {
	t.Helper()
	pledge, err := NewPledge("finish chapter three", t0)
	require.NoError(t, err)
	s, err := Start(uuid.New(), uuid.New(), pledge, target, nil, t0)
	require.NoError(t, err)
	return s
}

func TestStart_InitialState(t *testing.T) {
	s := startTestSession(t, time.Hour)

	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, 100, s.Stamina.Percentage())
	assert.Equal(t, 0, s.Gauge.Percentage())
	assert.Equal(t, t0, s.StartedAt)
	require.NotNil(t, s.CurrentFocusStartedAt())
	assert.Equal(t, t0, *s.CurrentFocusStartedAt())
	assert.Nil(t, s.EndedAt)

	require.NotNil(t, s.Bet)
	assert.Equal(t, BetPending, s.Bet.Result)
	assert.Equal(t, time.Hour, s.Bet.TargetDuration)
	assert.Equal(t, "finish chapter three", s.Bet.PledgeContent)
}

func TestStart_RejectsNonPositiveTarget(t *testing.T) {
	pledge, err := NewPledge("anything", t0)
	require.NoError(t, err)

	_, err = Start(uuid.New(), uuid.New(), pledge, 0, nil, t0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = Start(uuid.New(), uuid.New(), pledge, -time.Minute, nil, t0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestNewPledge_Validation(t *testing.T) {
	_, err := NewPledge("", t0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = NewPledge("   ", t0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	long := make([]rune, 501)
	for i := range long {
		long[i] = 'a'
	}
	_, err = NewPledge(string(long), t0)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	p, err := NewPledge(string(long[:500]), t0)
	require.NoError(t, err)
	assert.Len(t, []rune(p.Content), 500)
}

func TestPauseResume_ChargesStaminaAndFeedsGauge(t *testing.T) {
	s := startTestSession(t, time.Hour)

	// 20 minutes of focus, then a rest.
	pauseAt := t0.Add(20 * time.Minute)
	interruption, err := s.Pause(ReasonRest, pauseAt)
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, s.Status)
	assert.Nil(t, s.CurrentFocusStartedAt())
	assert.True(t, interruption.Ongoing())
	assert.Equal(t, 20*time.Minute, s.Gauge.LongestContinuousFocus())

	// 6-minute rest against a 1-hour target: ceil(0.10 * 0.1 * 100) = 1.
	resumeAt := pauseAt.Add(6 * time.Minute)
	completed, err := s.Resume(resumeAt)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, 99, s.Stamina.Percentage())
	assert.False(t, completed.Ongoing())
	assert.Equal(t, 6*time.Minute, completed.Duration())
	assert.Equal(t, 1, completed.StaminaConsumed)
	assert.Equal(t, 99, completed.StaminaAfter)
	require.NotNil(t, s.CurrentFocusStartedAt())
	assert.Equal(t, resumeAt, *s.CurrentFocusStartedAt())
	assert.Len(t, s.Interruptions, 1)
	assert.Nil(t, s.OngoingInterruption())
}

func TestPauseResume_ZeroDurationConsumesNothing(t *testing.T) {
	s := startTestSession(t, 30*time.Minute)

	pauseAt := t0.Add(5 * time.Minute)
	_, err := s.Pause(ReasonToilet, pauseAt)
	require.NoError(t, err)

	completed, err := s.Resume(pauseAt)
	require.NoError(t, err)
	assert.Equal(t, 0, completed.StaminaConsumed)
	assert.Equal(t, 100, s.Stamina.Percentage())
	assert.Equal(t, time.Duration(0), completed.Duration())
}

func TestPause_InvalidFromPaused(t *testing.T) {
	s := startTestSession(t, time.Hour)
	_, err := s.Pause(ReasonRest, t0.Add(time.Minute))
	require.NoError(t, err)

	_, err = s.Pause(ReasonRest, t0.Add(2*time.Minute))
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestResume_InvalidFromActive(t *testing.T) {
	s := startTestSession(t, time.Hour)
	_, err := s.Resume(t0.Add(time.Minute))
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestComplete_WinAtExactTarget(t *testing.T) {
	// Target met to the second with stamina remaining wins the bet.
	s := startTestSession(t, 30*time.Minute)

	res, err := s.Complete(t0.Add(30 * time.Minute))
	require.NoError(t, err)

	assert.Equal(t, BetWin, res.BetResult)
	assert.Equal(t, BetWin, s.Bet.Result)
	assert.Equal(t, 30*time.Minute, res.ActualFocusTime)
	assert.Equal(t, StatusCompleted, s.Status)
	require.NotNil(t, s.EndedAt)

	// baseExp 30 + win 100 + focus bonus 50 (gauge at 100%).
	assert.Equal(t, 180, res.TotalExp)
	assert.True(t, res.ReceivedFocusBonus)
}

func TestComplete_LoseOneSecondShort(t *testing.T) {
	s := startTestSession(t, 30*time.Minute)

	res, err := s.Complete(t0.Add(30*time.Minute - time.Second))
	require.NoError(t, err)

	assert.Equal(t, BetLose, res.BetResult)
	assert.Equal(t, FailReasonTimeNotMet, s.Bet.FailReason)
	assert.Equal(t, 100, res.FinalStaminaPercent)
}

func TestComplete_StaminaDepletionTakesPriority(t *testing.T) {
	s := startTestSession(t, 10*time.Minute)

	// A distraction long enough to zero out stamina and eat the whole target.
	pauseAt := t0.Add(time.Minute)
	_, err := s.Pause(ReasonDistraction, pauseAt)
	require.NoError(t, err)
	_, err = s.Resume(pauseAt.Add(3 * time.Hour))
	require.NoError(t, err)
	require.False(t, s.Stamina.CanWinBet())

	// Both time and stamina fail; the stamina reason wins.
	res, err := s.Complete(pauseAt.Add(3*time.Hour + time.Minute))
	require.NoError(t, err)
	assert.Equal(t, BetLose, res.BetResult)
	assert.Equal(t, FailReasonStaminaDepleted, s.Bet.FailReason)
}

func TestComplete_ActualFocusSubtractsInterruptions(t *testing.T) {
	s := startTestSession(t, time.Hour)

	pauseAt := t0.Add(40 * time.Minute)
	_, err := s.Pause(ReasonRest, pauseAt)
	require.NoError(t, err)
	resumeAt := pauseAt.Add(10 * time.Minute)
	_, err = s.Resume(resumeAt)
	require.NoError(t, err)

	endAt := resumeAt.Add(30 * time.Minute)
	res, err := s.Complete(endAt)
	require.NoError(t, err)

	// 80 minutes elapsed minus a 10-minute interruption.
	assert.Equal(t, 70*time.Minute, res.ActualFocusTime)
	assert.LessOrEqual(t, res.ActualFocusTime, endAt.Sub(s.StartedAt))
	assert.Equal(t, BetWin, res.BetResult)
}

func TestComplete_FromPausedSkipsFocusFlush(t *testing.T) {
	s := startTestSession(t, time.Hour)

	pauseAt := t0.Add(15 * time.Minute)
	_, err := s.Pause(ReasonInterference, pauseAt)
	require.NoError(t, err)

	// Completing while paused: gauge keeps only the pre-pause interval.
	res, err := s.Complete(pauseAt.Add(5 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, res.LongestContinuousFocus)
	assert.Equal(t, BetLose, res.BetResult)
}

func TestComplete_TerminalRejected(t *testing.T) {
	s := startTestSession(t, time.Hour)
	_, err := s.Complete(t0.Add(time.Hour))
	require.NoError(t, err)

	_, err = s.Complete(t0.Add(2 * time.Hour))
	assert.ErrorIs(t, err, errors.ErrConflict)
	_, err = s.Abandon(t0.Add(2 * time.Hour))
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestAbandon_AlwaysLosesAtHalfExp(t *testing.T) {
	s := startTestSession(t, 30*time.Minute)

	// Plenty of focus accrued; abandoning still loses.
	res, err := s.Abandon(t0.Add(50 * time.Minute))
	require.NoError(t, err)

	assert.Equal(t, StatusAbandoned, s.Status)
	assert.Equal(t, BetLose, res.BetResult)
	assert.Equal(t, FailReasonAbandoned, s.Bet.FailReason)
	assert.Equal(t, 25, res.TotalExp) // floor(50 * 0.5), no bonuses
	assert.False(t, res.ReceivedFocusBonus)
	assert.True(t, res.ShouldCreatePenalty())
}

func TestParseReason(t *testing.T) {
	r, err := ParseReason("DISTRACTION")
	require.NoError(t, err)
	assert.Equal(t, ReasonDistraction, r)
	assert.InDelta(t, 0.25, r.BaseCostRatio(), 1e-9)

	_, err = ParseReason("NAP")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
