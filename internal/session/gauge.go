package session

import (
	"math"
	"time"
)

const focusBonusThreshold = 70

// FocusGauge tracks the longest single continuous focus interval observed
// during a session, as a fraction of the target duration.
type FocusGauge struct {
	targetSeconds  int64
	longestSeconds int64
}

// NewFocusGauge creates a fresh gauge for the given target duration.
func NewFocusGauge(target time.Duration) FocusGauge {
	return FocusGauge{targetSeconds: int64(target.Seconds())}
}

// FocusGaugeAt restores a gauge from persisted values.
func FocusGaugeAt(target, longest time.Duration) FocusGauge {
	return FocusGauge{
		targetSeconds:  int64(target.Seconds()),
		longestSeconds: int64(longest.Seconds()),
	}
}

// RecordFocusPeriod registers one continuous focus interval. The gauge keeps
// the maximum, not the sum.
func (g *FocusGauge) RecordFocusPeriod(focus time.Duration) {
	seconds := int64(focus.Seconds())
	if seconds > g.longestSeconds {
		g.longestSeconds = seconds
	}
}

// Percentage returns the longest focus interval as a percentage of the
// target duration, capped at 100.
func (g FocusGauge) Percentage() int {
	if g.targetSeconds == 0 {
		return 0
	}
	ratio := float64(g.longestSeconds) / float64(g.targetSeconds)
	pct := math.Round(ratio * 100)
	if pct > 100 {
		pct = 100
	}
	return int(pct)
}

// QualifiesForBonus reports whether the gauge earns the focus bonus.
func (g FocusGauge) QualifiesForBonus() bool { return g.Percentage() >= focusBonusThreshold }

// LongestContinuousFocus returns the longest recorded interval.
func (g FocusGauge) LongestContinuousFocus() time.Duration {
	return time.Duration(g.longestSeconds) * time.Second
}

// TargetDuration returns the gauge's target duration.
func (g FocusGauge) TargetDuration() time.Duration {
	return time.Duration(g.targetSeconds) * time.Second
}
