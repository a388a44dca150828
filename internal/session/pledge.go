package session

import (
	"strings"
	"time"

	"github.com/astralworks/starlog/internal/errors"
)

const maxPledgeLength = 500

// Pledge is the user's declared goal for a session. Immutable once set.
type Pledge struct {
	Content   string
	CreatedAt time.Time
}

// NewPledge validates and constructs a Pledge.
func NewPledge(content string, now time.Time) (Pledge, error) {
	if strings.TrimSpace(content) == "" {
		return Pledge{}, errors.NewValidation("pledge", "content must not be blank")
	}
	if len([]rune(content)) > maxPledgeLength {
		return Pledge{}, errors.NewValidation("pledge", "content must not exceed 500 characters")
	}
	return Pledge{Content: content, CreatedAt: now}, nil
}
