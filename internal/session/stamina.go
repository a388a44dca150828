package session

import (
	"math"
	"time"
)

const (
	staminaMax       = 100
	staminaMinForWin = 1
)

// Stamina is a depleting 0-100 resource. It never regenerates within a
// session; every interruption consumes some of it based on the reason and
// on how large a fraction of the wagered time the pause burned.
type Stamina struct {
	current int
}

// FullStamina returns stamina at its maximum.
func FullStamina() Stamina {
	return Stamina{current: staminaMax}
}

// StaminaAt restores a Stamina from a persisted value.
func StaminaAt(value int) Stamina {
	if value < 0 {
		value = 0
	}
	if value > staminaMax {
		value = staminaMax
	}
	return Stamina{current: value}
}

// Consume deducts stamina for an interruption and returns the amount
// actually deducted (clamped so stamina never goes negative).
// targetSessionDuration must be positive; it is fixed at session creation.
func (s *Stamina) Consume(reason Reason, interruptionDuration, targetSessionDuration time.Duration) int {
	timeFactor := interruptionDuration.Seconds() / targetSessionDuration.Seconds()
	rawCost := int(math.Ceil(reason.BaseCostRatio() * timeFactor * 100))

	actualCost := rawCost
	if actualCost > s.current {
		actualCost = s.current
	}

	s.current -= rawCost
	if s.current < 0 {
		s.current = 0
	}

	return actualCost
}

// CanWinBet reports whether any stamina remains.
func (s Stamina) CanWinBet() bool { return s.current >= staminaMinForWin }

// Depleted reports whether stamina has hit the floor.
func (s Stamina) Depleted() bool { return s.current <= 0 }

// Percentage returns the current stamina value (0-100).
func (s Stamina) Percentage() int { return s.current }
