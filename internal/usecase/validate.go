package usecase

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ruprime/tournament-bot/internal/domain/team"
	"github.com/ruprime/tournament-bot/internal/domain/tournament"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("teamname", func(fl validator.FieldLevel) bool {
		return team.ValidateName(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("tghandle", func(fl validator.FieldLevel) bool {
		return team.ValidateTelegramHandle(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("gamenick", func(fl validator.FieldLevel) bool {
		return team.ValidateNickname(fl.Field().String()) == nil
	})

	return v
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// classify maps domain sentinel errors onto the shared taxonomy while
// keeping the original chain intact.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, team.ErrNameTaken),
		errors.Is(err, team.ErrNicknameTaken),
		errors.Is(err, team.ErrTelegramTaken),
		errors.Is(err, team.ErrDiscordTaken),
		errors.Is(err, team.ErrPlayerElsewhere),
		errors.Is(err, tournament.ErrNameTaken):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case errors.Is(err, team.ErrCaptainRemoval),
		errors.Is(err, team.ErrRosterFull):
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	return err
}
