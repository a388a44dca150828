package session

import (
	"fmt"

	"github.com/astralworks/starlog/internal/errors"
)

// Reason categorizes why a session was paused. Each reason carries a fixed
// base cost ratio used for stamina consumption.
type Reason string

const (
	ReasonToilet       Reason = "TOILET"
	ReasonRest         Reason = "REST"
	ReasonInterference Reason = "INTERFERENCE"
	ReasonDistraction  Reason = "DISTRACTION"
)

var reasonCostRatios = map[Reason]float64{
	ReasonToilet:       0.05,
	ReasonRest:         0.10,
	ReasonInterference: 0.15,
	ReasonDistraction:  0.25,
}

var reasonDisplayNames = map[Reason]string{
	ReasonToilet:       "bathroom break",
	ReasonRest:         "rest",
	ReasonInterference: "outside interference",
	ReasonDistraction:  "distraction",
}

// BaseCostRatio returns the stamina cost ratio for this reason.
func (r Reason) BaseCostRatio() float64 { return reasonCostRatios[r] }

// DisplayName returns a human-readable label for this reason.
func (r Reason) DisplayName() string { return reasonDisplayNames[r] }

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	_, ok := reasonCostRatios[r]
	return ok
}

// ParseReason validates a raw string into a Reason.
func ParseReason(s string) (Reason, error) {
	r := Reason(s)
	if !r.Valid() {
		return "", errors.NewValidation("reason", fmt.Sprintf("unknown interruption reason: %q", s))
	}
	return r, nil
}
