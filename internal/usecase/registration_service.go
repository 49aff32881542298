package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ruprime/tournament-bot/internal/domain/team"
	"github.com/ruprime/tournament-bot/internal/domain/tournament"
	"github.com/ruprime/tournament-bot/internal/platform/logging"
)

type PlayerInput struct {
	Nickname       string `validate:"required,gamenick"`
	TelegramHandle string `validate:"required,tghandle"`
	TelegramID     int64
	DiscordHandle  string
	DiscordID      string
}

type CreateTeamInput struct {
	Name    string      `validate:"required,teamname"`
	Captain PlayerInput `validate:"required"`
}

type AddPlayerInput struct {
	TeamID int64       `validate:"required"`
	Player PlayerInput `validate:"required"`
}

// RegistrationService drives the team lifecycle on behalf of captains:
// the create/edit wizard steps, tournament submission and team deletion.
type RegistrationService struct {
	teams       team.Repository
	tournaments tournament.Repository
	roles       *RoleSyncService
	validate    *validator.Validate
	logger      *logging.Logger
}

func NewRegistrationService(
	teams team.Repository,
	tournaments tournament.Repository,
	roles *RoleSyncService,
	logger *logging.Logger,
) *RegistrationService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RegistrationService{
		teams:       teams,
		tournaments: tournaments,
		roles:       roles,
		validate:    newValidator(),
		logger:      logger,
	}
}

// CreateTeam inserts a draft team owned by its captain. The captain contact
// shown to admins is derived from the captain's telegram handle.
func (s *RegistrationService) CreateTeam(ctx context.Context, input CreateTeamInput) (team.Team, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Captain = normalizePlayer(input.Captain)

	if err := s.validate.Struct(input); err != nil {
		return team.Team{}, invalidInput(err)
	}

	captain := playerFromInput(input.Captain)
	captain.IsCaptain = true

	created, err := s.teams.Create(ctx, input.Name, "@"+captain.TelegramHandle, captain)
	if err != nil {
		return team.Team{}, classify(err)
	}

	s.logger.InfoContext(ctx, "team created",
		"team_id", created.ID, "name", created.Name, "captain", captain.TelegramHandle)
	return created, nil
}

func (s *RegistrationService) AddPlayer(ctx context.Context, input AddPlayerInput) (team.Player, error) {
	input.Player = normalizePlayer(input.Player)
	if err := s.validate.Struct(input); err != nil {
		return team.Player{}, invalidInput(err)
	}

	t, ok, err := s.teams.GetByID(ctx, input.TeamID)
	if err != nil {
		return team.Player{}, fmt.Errorf("get team: %w", err)
	}
	if !ok {
		return team.Player{}, fmt.Errorf("%w: team %d", ErrNotFound, input.TeamID)
	}
	if len(t.Players) >= team.MaxPlayers+1 {
		return team.Player{}, classify(fmt.Errorf("%w: at most %d players, captain included",
			team.ErrRosterFull, team.MaxPlayers+1))
	}

	if err := s.demoteBeforeEdit(ctx, t); err != nil {
		return team.Player{}, err
	}

	added, err := s.teams.AddPlayer(ctx, t.ID, playerFromInput(input.Player), t.Status.ResetsOnEdit())
	if err != nil {
		return team.Player{}, classify(err)
	}

	s.logger.InfoContext(ctx, "player added",
		"team_id", t.ID, "player_id", added.ID, "nickname", added.Nickname)
	return added, nil
}

func (s *RegistrationService) RenameTeam(ctx context.Context, teamID int64, name string) error {
	name = strings.TrimSpace(name)
	if err := team.ValidateName(name); err != nil {
		return invalidInput(err)
	}

	t, err := s.mustTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if err := s.demoteBeforeEdit(ctx, t); err != nil {
		return err
	}

	if err := s.teams.Rename(ctx, teamID, name, t.Status.ResetsOnEdit()); err != nil {
		return classify(err)
	}
	return nil
}

func (s *RegistrationService) EditPlayerNickname(ctx context.Context, playerID int64, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if err := team.ValidateNickname(nickname); err != nil {
		return invalidInput(err)
	}

	t, _, err := s.teamOfPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if err := s.demoteBeforeEdit(ctx, t); err != nil {
		return err
	}

	if err := s.teams.UpdatePlayerNickname(ctx, playerID, nickname, t.Status.ResetsOnEdit()); err != nil {
		return classify(err)
	}
	return nil
}

func (s *RegistrationService) EditPlayerTelegram(ctx context.Context, playerID int64, handle string, telegramID int64) error {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if err := team.ValidateTelegramHandle(handle); err != nil {
		return invalidInput(err)
	}

	t, _, err := s.teamOfPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if err := s.demoteBeforeEdit(ctx, t); err != nil {
		return err
	}

	if err := s.teams.UpdatePlayerTelegram(ctx, playerID, handle, telegramID, t.Status.ResetsOnEdit()); err != nil {
		return classify(err)
	}
	return nil
}

func (s *RegistrationService) EditPlayerDiscord(ctx context.Context, playerID int64, handle, discordID string) error {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return invalidInput(fmt.Errorf("discord handle is required"))
	}

	t, _, err := s.teamOfPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if err := s.demoteBeforeEdit(ctx, t); err != nil {
		return err
	}

	if err := s.teams.UpdatePlayerDiscord(ctx, playerID, handle, discordID, t.Status.ResetsOnEdit()); err != nil {
		return classify(err)
	}
	return nil
}

func (s *RegistrationService) MarkSubscription(ctx context.Context, playerID int64, subscribed bool) error {
	sub := team.SubscriptionNo
	if subscribed {
		sub = team.SubscriptionYes
	}
	return s.teams.SetPlayerSubscription(ctx, playerID, sub)
}

// RemovePlayer drops a non-captain player from their team. Captains can only
// leave by deleting the whole team.
func (s *RegistrationService) RemovePlayer(ctx context.Context, playerID int64) error {
	t, p, err := s.teamOfPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if p.IsCaptain {
		return classify(fmt.Errorf("%w: player %d", team.ErrCaptainRemoval, playerID))
	}

	if err := s.demoteBeforeEdit(ctx, t); err != nil {
		return err
	}

	if err := s.teams.RemovePlayer(ctx, playerID, t.Status.ResetsOnEdit()); err != nil {
		return classify(err)
	}
	return nil
}

// RegisterForTournament submits a draft team to an open tournament. The full
// roster and discord handles were collected earlier in the wizard, so the
// guards here are the authoritative ones.
func (s *RegistrationService) RegisterForTournament(ctx context.Context, teamID, tournamentID int64) (team.Team, error) {
	t, err := s.mustTeam(ctx, teamID)
	if err != nil {
		return team.Team{}, err
	}
	if t.Status != team.StatusDraft {
		return team.Team{}, fmt.Errorf("%w: team %q is already submitted", ErrInvariant, t.Name)
	}

	trn, ok, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get tournament: %w", err)
	}
	if !ok {
		return team.Team{}, fmt.Errorf("%w: tournament %d", ErrNotFound, tournamentID)
	}
	if !trn.RegistrationOpen {
		return team.Team{}, fmt.Errorf("%w: registration for %q is closed", ErrInvariant, trn.Name)
	}
	if err := t.ReadyForTournament(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvariant, err)
	}

	if err := s.teams.Register(ctx, teamID, tournamentID); err != nil {
		return team.Team{}, classify(err)
	}

	s.logger.InfoContext(ctx, "team submitted to tournament",
		"team_id", teamID, "tournament_id", tournamentID)
	return s.mustTeam(ctx, teamID)
}

// DeleteTeam removes the team with all players. An approved team is demoted
// first; if revocation fails the team stays approved and untouched.
func (s *RegistrationService) DeleteTeam(ctx context.Context, teamID int64) error {
	t, err := s.mustTeam(ctx, teamID)
	if err != nil {
		return err
	}

	if t.Status == team.StatusApproved {
		if err := s.roles.Reconcile(ctx, t, team.StatusApproved, team.StatusDraft); err != nil {
			return err
		}
	}

	if err := s.teams.Delete(ctx, teamID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	s.logger.InfoContext(ctx, "team deleted", "team_id", teamID, "name", t.Name)
	return nil
}

func (s *RegistrationService) TeamByID(ctx context.Context, teamID int64) (team.Team, error) {
	return s.mustTeam(ctx, teamID)
}

// TeamForUser finds the team a telegram user belongs to, if any.
func (s *RegistrationService) TeamForUser(ctx context.Context, telegramID int64) (team.Team, bool, error) {
	return s.teams.GetByTelegramID(ctx, telegramID)
}

func (s *RegistrationService) TeamByName(ctx context.Context, name string) (team.Team, bool, error) {
	return s.teams.GetByName(ctx, strings.TrimSpace(name))
}

// demoteBeforeEdit revokes roles before a roster edit may demote an approved
// team. Revocation failure aborts the edit: the caller must not mutate.
func (s *RegistrationService) demoteBeforeEdit(ctx context.Context, t team.Team) error {
	if t.Status != team.StatusApproved {
		return nil
	}
	return s.roles.Reconcile(ctx, t, team.StatusApproved, team.StatusDraft)
}

func (s *RegistrationService) mustTeam(ctx context.Context, teamID int64) (team.Team, error) {
	t, ok, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	if !ok {
		return team.Team{}, fmt.Errorf("%w: team %d", ErrNotFound, teamID)
	}
	return t, nil
}

func (s *RegistrationService) teamOfPlayer(ctx context.Context, playerID int64) (team.Team, team.Player, error) {
	p, ok, err := s.teams.GetPlayer(ctx, playerID)
	if err != nil {
		return team.Team{}, team.Player{}, fmt.Errorf("get player: %w", err)
	}
	if !ok {
		return team.Team{}, team.Player{}, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}

	t, err := s.mustTeam(ctx, p.TeamID)
	if err != nil {
		return team.Team{}, team.Player{}, err
	}
	return t, p, nil
}

func normalizePlayer(p PlayerInput) PlayerInput {
	p.Nickname = strings.TrimSpace(p.Nickname)
	p.TelegramHandle = strings.TrimPrefix(strings.TrimSpace(p.TelegramHandle), "@")
	p.DiscordHandle = strings.TrimSpace(p.DiscordHandle)
	return p
}

func playerFromInput(p PlayerInput) team.Player {
	return team.Player{
		Nickname:       p.Nickname,
		TelegramHandle: p.TelegramHandle,
		TelegramID:     p.TelegramID,
		DiscordHandle:  p.DiscordHandle,
		DiscordID:      p.DiscordID,
	}
}
