package tournament

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	NameMinLen        = 2
	NameMaxLen        = 100
	DescriptionMinLen = 10
)

var ErrNameTaken = errors.New("tournament name already taken")

type Tournament struct {
	ID          int64
	Name        string
	Description string
	// EventDate is free-text, admins enter it as announced to players.
	EventDate        string
	RegistrationOpen bool
	CreatedAt        time.Time
	// TeamCount is filled on listings, not persisted.
	TeamCount int
}

// Update carries partial field updates; nil fields are left untouched.
type Update struct {
	Name             *string
	Description      *string
	EventDate        *string
	RegistrationOpen *bool
}

func (u Update) Empty() bool {
	return u.Name == nil && u.Description == nil && u.EventDate == nil && u.RegistrationOpen == nil
}

func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < NameMinLen || n > NameMaxLen {
		return fmt.Errorf("tournament name must be %d-%d characters", NameMinLen, NameMaxLen)
	}
	return nil
}

func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) < DescriptionMinLen {
		return fmt.Errorf("tournament description must be at least %d characters", DescriptionMinLen)
	}
	return nil
}
