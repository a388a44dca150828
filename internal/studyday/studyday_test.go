package studyday

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astralworks/starlog/internal/errors"
	"github.com/astralworks/starlog/internal/session"
)

func newTestDay() *StudyDay {
	return New(uuid.New(), time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
}

func TestAddSessionResult_Accumulates(t *testing.T) {
	d := newTestDay()

	d.AddSessionResult(session.BetWin, 90*time.Minute, []string{"#FF0000"})
	d.AddSessionResult(session.BetLose, 30*time.Minute, []string{"#00FF00", "#FF0000"})

	assert.Equal(t, int64(7200), d.TotalFocusSeconds)
	assert.Equal(t, 2, d.TotalSessions)
	assert.Equal(t, 1, d.WinCount)
	assert.Equal(t, 1, d.LoseCount)
	assert.Len(t, d.TagColors, 2)
}

func TestAddSessionResult_NotIdempotent(t *testing.T) {
	d := newTestDay()

	// Identical calls count twice; the aggregator is additive by design.
	d.AddSessionResult(session.BetWin, time.Hour, []string{"#112233"})
	d.AddSessionResult(session.BetWin, time.Hour, []string{"#112233"})

	assert.Equal(t, 2, d.TotalSessions)
	assert.Equal(t, int64(7200), d.TotalFocusSeconds)
	assert.Equal(t, 2, d.WinCount)
	assert.Len(t, d.TagColors, 1)
}

func TestStarType_RuleOrder(t *testing.T) {
	tests := []struct {
		name    string
		results []session.BetResult
		each    time.Duration
		want    StarType
	}{
		{
			name:    "no sessions resolved stays meteorite",
			results: nil,
			want:    StarMeteorite,
		},
		{
			name:    "single win shines",
			results: []session.BetResult{session.BetWin},
			each:    30 * time.Minute,
			want:    StarShining,
		},
		{
			name:    "losses outnumbering wins collapse to black hole",
			results: []session.BetResult{session.BetWin, session.BetLose, session.BetLose},
			each:    2 * time.Hour,
			want:    StarBlackhole,
		},
		{
			name:    "black hole dominates even heavy focus",
			results: []session.BetResult{session.BetLose, session.BetLose, session.BetLose},
			each:    3 * time.Hour,
			want:    StarBlackhole,
		},
		{
			name:    "three wins with four focus hours go supernova",
			results: []session.BetResult{session.BetWin, session.BetWin, session.BetWin},
			each:    90 * time.Minute,
			want:    StarSupernova,
		},
		{
			name:    "three wins short of four hours only shine",
			results: []session.BetResult{session.BetWin, session.BetWin, session.BetWin},
			each:    time.Hour,
			want:    StarShining,
		},
		{
			name: "supernova survives a minority loss",
			// 4 sessions, 3 wins 1 lose, 4.5 hours total: lose(1) is not
			// greater than win(3), volume and wins both clear the bar.
			results: []session.BetResult{session.BetWin, session.BetWin, session.BetWin, session.BetLose},
			each:    674 * 6 * time.Second, // 67.4 min each, 4.49h total
			want:    StarSupernova,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDay()
			for _, r := range tt.results {
				d.AddSessionResult(r, tt.each, nil)
			}
			assert.Equal(t, tt.want, d.StarType)
		})
	}
}

func TestContinuesStreak(t *testing.T) {
	d := newTestDay()
	assert.False(t, d.ContinuesStreak()) // meteorite

	d.AddSessionResult(session.BetWin, time.Hour, nil)
	assert.True(t, d.ContinuesStreak()) // shining

	d.AddSessionResult(session.BetLose, time.Hour, nil)
	d.AddSessionResult(session.BetLose, time.Hour, nil)
	assert.False(t, d.ContinuesStreak()) // black hole
}

func TestFinalize_OneShot(t *testing.T) {
	d := newTestDay()
	d.AddSessionResult(session.BetWin, time.Hour, nil)

	h := &Highlight{AISuggestion: "try mornings"}
	require.NoError(t, d.Finalize(h, true, 4))

	assert.True(t, d.Finalized())
	assert.True(t, d.StreakContinued)
	assert.Equal(t, 4, d.CurrentStreak)
	assert.Equal(t, h, d.Highlight)

	err := d.Finalize(nil, false, 0)
	assert.ErrorIs(t, err, errors.ErrConflict)
	// First finalization is untouched by the rejected second call.
	assert.Equal(t, 4, d.CurrentStreak)
	assert.Equal(t, h, d.Highlight)
}
