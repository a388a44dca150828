// Package user holds the account aggregate: experience, level, and streak
// counters updated by the settlement pipeline.
package user

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/astralworks/starlog/internal/errors"
)

const expPerLevel = 100

// User owns sessions, tags, and the aggregate counters.
type User struct {
	ID       uuid.UUID
	Nickname string
	Email    string

	Level      int
	Experience int64

	CurrentStreak     int
	LongestStreak     int
	TotalStudyMinutes int64

	CreatedAt time.Time
}

// New creates a user at level 1 with zero experience.
func New(nickname, email string, now time.Time) (*User, error) {
	if strings.TrimSpace(nickname) == "" {
		return nil, errors.NewValidation("nickname", "must not be blank")
	}
	if strings.TrimSpace(email) == "" {
		return nil, errors.NewValidation("email", "must not be blank")
	}
	return &User{
		ID:        uuid.New(),
		Nickname:  nickname,
		Email:     email,
		Level:     1,
		CreatedAt: now,
	}, nil
}

// RequiredExp returns the threshold for the next level-up.
func (u *User) RequiredExp() int64 { return int64(u.Level) * expPerLevel }

// GainExp grants experience and applies level-ups; a single large grant can
// cross several thresholds. Returns the number of levels gained.
func (u *User) GainExp(amount int) int {
	if amount <= 0 {
		return 0
	}
	u.Experience += int64(amount)

	levelsGained := 0
	for u.Experience >= u.RequiredExp() {
		u.Level++
		levelsGained++
	}
	return levelsGained
}

// RecordDayOutcome applies a day's streak decision: continuation bumps the
// streak, anything else resets it to zero.
func (u *User) RecordDayOutcome(continued bool) {
	if continued {
		u.CurrentStreak++
		if u.CurrentStreak > u.LongestStreak {
			u.LongestStreak = u.CurrentStreak
		}
		return
	}
	u.CurrentStreak = 0
}

// AddStudyMinutes accumulates total study time.
func (u *User) AddStudyMinutes(minutes int64) {
	if minutes > 0 {
		u.TotalStudyMinutes += minutes
	}
}

// UpdateNickname changes the display name.
func (u *User) UpdateNickname(nickname string) error {
	if strings.TrimSpace(nickname) == "" {
		return errors.NewValidation("nickname", "must not be blank")
	}
	u.Nickname = nickname
	return nil
}
