// Package studyday aggregates session outcomes into per-day records,
// classifies each day into a star type, and carries streak state frozen at
// day finalization.
package studyday

import (
	"time"

	"github.com/google/uuid"

	"github.com/astralworks/starlog/internal/errors"
	"github.com/astralworks/starlog/internal/session"
)

// StarType classifies a day's outcome.
type StarType string

const (
	StarShining   StarType = "SHINING_STAR"
	StarSupernova StarType = "SUPERNOVA"
	StarBlackhole StarType = "BLACKHOLE"
	StarMeteorite StarType = "METEORITE"
)

// Supernova thresholds: volume and win count must both be met.
const (
	supernovaMinFocusHours = 4
	supernovaMinWins       = 3
)

// StudyDay is the per-user, per-calendar-date aggregate. Unique per
// (user, date).
type StudyDay struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Date   time.Time // calendar date, midnight UTC

	TotalFocusSeconds int64
	TotalSessions     int
	WinCount          int
	LoseCount         int
	TagColors         map[string]struct{}

	StarType StarType

	StreakContinued bool
	CurrentStreak   int

	Highlight *Highlight
	finalized bool
}

// New creates an empty StudyDay for a user and date.
func New(userID uuid.UUID, date time.Time) *StudyDay {
	return &StudyDay{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      date,
		TagColors: make(map[string]struct{}),
		StarType:  StarMeteorite,
	}
}

// AddSessionResult folds one settled session into the day's totals and
// recomputes the star type from scratch. Deliberately not idempotent:
// calling it twice counts the session twice.
func (d *StudyDay) AddSessionResult(result session.BetResult, actualFocusTime time.Duration, tagColors []string) {
	d.TotalFocusSeconds += int64(actualFocusTime.Seconds())
	d.TotalSessions++
	for _, c := range tagColors {
		d.TagColors[c] = struct{}{}
	}

	switch result {
	case session.BetWin:
		d.WinCount++
	case session.BetLose:
		d.LoseCount++
	}

	d.recalculateStarType()
}

// Check order matters: a net-losing day is a black hole no matter how much
// focus it racked up; a supernova needs both volume and wins.
func (d *StudyDay) recalculateStarType() {
	switch {
	case d.LoseCount > d.WinCount:
		d.StarType = StarBlackhole
	case d.TotalFocusTime() >= supernovaMinFocusHours*time.Hour && d.WinCount >= supernovaMinWins:
		d.StarType = StarSupernova
	case d.WinCount > 0:
		d.StarType = StarShining
	default:
		d.StarType = StarMeteorite
	}
}

// Finalize freezes streak fields and attaches the highlight payload.
// It is a one-time terminal write; a second call is rejected.
func (d *StudyDay) Finalize(highlight *Highlight, streakContinued bool, currentStreak int) error {
	if d.finalized {
		return errors.NewInvalidState("finalize day", "finalized", "open")
	}
	d.Highlight = highlight
	d.StreakContinued = streakContinued
	d.CurrentStreak = currentStreak
	d.finalized = true
	return nil
}

// Finalized reports whether the day has been settled.
func (d *StudyDay) Finalized() bool { return d.finalized }

// ContinuesStreak reports whether this day's resolved type keeps a streak
// alive, i.e. it produced at least one win.
func (d *StudyDay) ContinuesStreak() bool {
	return d.StarType != StarBlackhole && d.StarType != StarMeteorite
}

// TotalFocusTime returns the accumulated focus time.
func (d *StudyDay) TotalFocusTime() time.Duration {
	return time.Duration(d.TotalFocusSeconds) * time.Second
}

// TagColorSlice returns the accumulated colors in no particular order.
func (d *StudyDay) TagColorSlice() []string {
	colors := make([]string, 0, len(d.TagColors))
	for c := range d.TagColors {
		colors = append(colors, c)
	}
	return colors
}

// Restore rebuilds a StudyDay from persisted state.
func Restore(
	id, userID uuid.UUID,
	date time.Time,
	totalFocusSeconds int64,
	totalSessions, winCount, loseCount int,
	tagColors []string,
	starType StarType,
	streakContinued bool,
	currentStreak int,
	highlight *Highlight,
	finalized bool,
) *StudyDay {
	colors := make(map[string]struct{}, len(tagColors))
	for _, c := range tagColors {
		colors[c] = struct{}{}
	}
	return &StudyDay{
		ID:                id,
		UserID:            userID,
		Date:              date,
		TotalFocusSeconds: totalFocusSeconds,
		TotalSessions:     totalSessions,
		WinCount:          winCount,
		LoseCount:         loseCount,
		TagColors:         colors,
		StarType:          starType,
		StreakContinued:   streakContinued,
		CurrentStreak:     currentStreak,
		Highlight:         highlight,
		finalized:         finalized,
	}
}
