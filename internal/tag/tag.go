// Package tag implements per-user labeled resources attached to sessions.
// Tags are informational for the core; only their color codes flow into the
// daily aggregate.
package tag

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/astralworks/starlog/internal/errors"
)

var colorHexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

const maxNameLength = 50

// Tag is a user-owned label with a display color and a usage counter
// incremented each time a session starts with it.
type Tag struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	ColorHex   string
	UsageCount int64
	CreatedAt  time.Time
}

// New validates and creates a tag.
func New(userID uuid.UUID, name, colorHex string, now time.Time) (*Tag, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ValidateColorHex(colorHex); err != nil {
		return nil, err
	}
	return &Tag{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		ColorHex:  colorHex,
		CreatedAt: now,
	}, nil
}

// Rename changes the tag's name.
func (t *Tag) Rename(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	t.Name = name
	return nil
}

// Recolor changes the tag's display color.
func (t *Tag) Recolor(colorHex string) error {
	if err := ValidateColorHex(colorHex); err != nil {
		return err
	}
	t.ColorHex = colorHex
	return nil
}

// IncrementUsage bumps the usage counter.
func (t *Tag) IncrementUsage() { t.UsageCount++ }

// ValidateColorHex checks for a #RRGGBB color code.
func ValidateColorHex(colorHex string) error {
	if !colorHexPattern.MatchString(colorHex) {
		return errors.NewValidation("colorHex", "must be a #RRGGBB color code")
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewValidation("name", "must not be blank")
	}
	if len([]rune(name)) > maxNameLength {
		return errors.NewValidation("name", "must not exceed 50 characters")
	}
	return nil
}
