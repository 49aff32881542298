package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruprime/tournament-bot/internal/domain/team"
	"github.com/ruprime/tournament-bot/internal/domain/tournament"
	"github.com/ruprime/tournament-bot/internal/platform/logging"
)

type CreateTournamentInput struct {
	Name        string
	Description string
	EventDate   string
}

// TournamentService is the admin-facing tournament lifecycle: creation,
// edits, the registration toggle and deletion with its team cascade.
type TournamentService struct {
	tournaments tournament.Repository
	teams       team.Repository
	roles       *RoleSyncService
	logger      *logging.Logger
}

func NewTournamentService(
	tournaments tournament.Repository,
	teams team.Repository,
	roles *RoleSyncService,
	logger *logging.Logger,
) *TournamentService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TournamentService{
		tournaments: tournaments,
		teams:       teams,
		roles:       roles,
		logger:      logger,
	}
}

func (s *TournamentService) Create(ctx context.Context, input CreateTournamentInput) (tournament.Tournament, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.EventDate = strings.TrimSpace(input.EventDate)

	if err := tournament.ValidateName(input.Name); err != nil {
		return tournament.Tournament{}, invalidInput(err)
	}
	if err := tournament.ValidateDescription(input.Description); err != nil {
		return tournament.Tournament{}, invalidInput(err)
	}
	if input.EventDate == "" {
		return tournament.Tournament{}, invalidInput(fmt.Errorf("event date is required"))
	}

	created, err := s.tournaments.Create(ctx, tournament.Tournament{
		Name:             input.Name,
		Description:      input.Description,
		EventDate:        input.EventDate,
		RegistrationOpen: true,
	})
	if err != nil {
		return tournament.Tournament{}, classify(err)
	}

	s.logger.InfoContext(ctx, "tournament created", "tournament_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *TournamentService) Update(ctx context.Context, tournamentID int64, u tournament.Update) error {
	if u.Empty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if u.Name != nil {
		trimmed := strings.TrimSpace(*u.Name)
		if err := tournament.ValidateName(trimmed); err != nil {
			return invalidInput(err)
		}
		u.Name = &trimmed
	}
	if u.Description != nil {
		trimmed := strings.TrimSpace(*u.Description)
		if err := tournament.ValidateDescription(trimmed); err != nil {
			return invalidInput(err)
		}
		u.Description = &trimmed
	}

	updated, err := s.tournaments.Update(ctx, tournamentID, u)
	if err != nil {
		return classify(err)
	}
	if !updated {
		return fmt.Errorf("%w: tournament %d", ErrNotFound, tournamentID)
	}
	return nil
}

func (s *TournamentService) OpenRegistration(ctx context.Context, tournamentID int64) error {
	open := true
	return s.Update(ctx, tournamentID, tournament.Update{RegistrationOpen: &open})
}

func (s *TournamentService) CloseRegistration(ctx context.Context, tournamentID int64) error {
	open := false
	return s.Update(ctx, tournamentID, tournament.Update{RegistrationOpen: &open})
}

func (s *TournamentService) Get(ctx context.Context, tournamentID int64) (tournament.Tournament, error) {
	t, ok, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	if !ok {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament %d", ErrNotFound, tournamentID)
	}
	return t, nil
}

func (s *TournamentService) List(ctx context.Context) ([]tournament.Tournament, error) {
	return s.tournaments.List(ctx)
}

func (s *TournamentService) ListOpen(ctx context.Context) ([]tournament.Tournament, error) {
	return s.tournaments.ListOpen(ctx)
}

// Delete removes the tournament and every team registered to it. Approved
// teams are demoted first so nobody keeps roles for a dead tournament; a
// failed revocation aborts the whole deletion.
func (s *TournamentService) Delete(ctx context.Context, tournamentID int64) error {
	registered, err := s.teams.List(ctx, team.Filter{TournamentID: tournamentID})
	if err != nil {
		return fmt.Errorf("list tournament teams: %w", err)
	}
	for _, t := range registered {
		if t.Status != team.StatusApproved {
			continue
		}
		if err := s.roles.Reconcile(ctx, t, team.StatusApproved, team.StatusDraft); err != nil {
			return err
		}
	}

	deleted, err := s.tournaments.Delete(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("delete tournament: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: tournament %d", ErrNotFound, tournamentID)
	}

	s.logger.InfoContext(ctx, "tournament deleted",
		"tournament_id", tournamentID, "teams_removed", len(registered))
	return nil
}
