package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ruprime/tournament-bot/internal/domain/admin"
	"github.com/ruprime/tournament-bot/internal/domain/stats"
	"github.com/ruprime/tournament-bot/internal/domain/team"
	"github.com/ruprime/tournament-bot/internal/platform/logging"
)

// KeepComment is the sentinel for "leave admin_comment as is". Passing a
// pointer to an empty string clears the comment instead.
var KeepComment *string

type SetStatusInput struct {
	TeamID int64
	Status team.Status
	// Comment overwrites admin_comment when non-nil.
	Comment *string
	// ActorID is the reviewing admin, for the audit log line.
	ActorID int64
}

// ReviewService covers the admin side: status review, admin roster and the
// daily activity counters.
type ReviewService struct {
	teams  team.Repository
	admins admin.Repository
	stats  stats.Repository
	roles  *RoleSyncService
	logger *logging.Logger
	now    func() time.Time
}

func NewReviewService(
	teams team.Repository,
	admins admin.Repository,
	statsRepo stats.Repository,
	roles *RoleSyncService,
	logger *logging.Logger,
) *ReviewService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ReviewService{
		teams:  teams,
		admins: admins,
		stats:  statsRepo,
		roles:  roles,
		logger: logger,
		now:    time.Now,
	}
}

// SetTeamStatus applies an admin review decision. Demotions away from
// approved revoke roles first and refuse to commit if revocation fails.
// Promotions grant roles best-effort after the commit. Re-applying the
// current status only touches the comment and never double-counts stats.
func (s *ReviewService) SetTeamStatus(ctx context.Context, input SetStatusInput) (team.Team, error) {
	if !input.Status.Reviewable() {
		return team.Team{}, fmt.Errorf("%w: status %q is not reviewable", ErrInvalidInput, input.Status)
	}

	t, ok, err := s.teams.GetByID(ctx, input.TeamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	if !ok {
		return team.Team{}, fmt.Errorf("%w: team %d", ErrNotFound, input.TeamID)
	}
	old := t.Status
	if !team.ReviewAllowed(old, input.Status) {
		return team.Team{}, fmt.Errorf("%w: team %q is not submitted for review", ErrInvariant, t.Name)
	}

	if team.RequiresRevoke(old, input.Status) {
		if err := s.roles.Reconcile(ctx, t, old, input.Status); err != nil {
			return team.Team{}, err
		}
	}

	changed, err := s.teams.SetStatus(ctx, input.TeamID, input.Status, input.Comment)
	if err != nil {
		return team.Team{}, fmt.Errorf("set team status: %w", err)
	}

	if team.GrantsRoles(old, input.Status) {
		// Best-effort: queued in the background, failures are logged only.
		_ = s.roles.Reconcile(ctx, t, old, input.Status)
	}

	s.logger.InfoContext(ctx, "team status reviewed",
		"team_id", t.ID, "old_status", string(old), "new_status", string(input.Status),
		"changed", changed, "admin_id", input.ActorID)

	updated, _, err := s.teams.GetByID(ctx, input.TeamID)
	if err != nil {
		return team.Team{}, fmt.Errorf("reload team: %w", err)
	}
	return updated, nil
}

func (s *ReviewService) ListTeams(ctx context.Context, f team.Filter) ([]team.Team, error) {
	return s.teams.List(ctx, f)
}

func (s *ReviewService) FindTeam(ctx context.Context, name string) (team.Team, error) {
	t, ok, err := s.teams.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return team.Team{}, fmt.Errorf("find team: %w", err)
	}
	if !ok {
		return team.Team{}, fmt.Errorf("%w: team %q", ErrNotFound, name)
	}
	return t, nil
}

func (s *ReviewService) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	return s.admins.IsAdmin(ctx, telegramID)
}

func (s *ReviewService) AddAdmin(ctx context.Context, telegramID int64, displayName string) error {
	if telegramID <= 0 {
		return fmt.Errorf("%w: telegram id must be positive", ErrInvalidInput)
	}
	err := s.admins.Add(ctx, admin.Admin{
		TelegramID:  telegramID,
		DisplayName: strings.TrimSpace(displayName),
		AddedAt:     s.now(),
	})
	if err != nil {
		if errors.Is(err, admin.ErrAlreadyAdmin) {
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
		return fmt.Errorf("add admin: %w", err)
	}
	return nil
}

func (s *ReviewService) RemoveAdmin(ctx context.Context, telegramID int64) error {
	removed, err := s.admins.Remove(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("remove admin: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: admin %d", ErrNotFound, telegramID)
	}
	return nil
}

func (s *ReviewService) Admins(ctx context.Context) ([]admin.Admin, error) {
	return s.admins.List(ctx)
}

// EnsureBootstrapAdmin seeds the first admin when the table is empty, so a
// fresh install is administrable.
func (s *ReviewService) EnsureBootstrapAdmin(ctx context.Context, telegramID int64, displayName string) error {
	if telegramID <= 0 {
		return nil
	}
	existing, err := s.admins.List(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	s.logger.Info("seeding bootstrap admin", "telegram_id", telegramID)
	return s.AddAdmin(ctx, telegramID, displayName)
}

// ActivityStats returns the per-day counters for the trailing window.
func (s *ReviewService) ActivityStats(ctx context.Context, days int) ([]stats.DayStats, error) {
	if days < 1 {
		days = 7
	}
	return s.stats.Range(ctx, days)
}
