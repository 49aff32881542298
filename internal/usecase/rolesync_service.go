package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/ruprime/tournament-bot/internal/domain/team"
	"github.com/ruprime/tournament-bot/internal/platform/logging"
)

const grantTimeout = 15 * time.Second

// RoleClient grants and revokes roles on the external chat platform.
type RoleClient interface {
	GrantRole(ctx context.Context, memberID, roleID string) error
	RevokeRole(ctx context.Context, memberID, roleID string) error
}

type RoleSyncConfig struct {
	ParticipantRoleID string
	CaptainRoleID     string
	// GrantWorkers sizes the fire-and-forget grant pool.
	GrantWorkers int
}

// RoleSyncService reconciles chat-platform roles with team status.
//
// The two directions are deliberately asymmetric: grants are best-effort
// (a missed grant is a support ticket), revocations are all-or-nothing
// (a missed revocation is an unapproved team keeping privileged access).
type RoleSyncService struct {
	client RoleClient
	cfg    RoleSyncConfig
	logger *logging.Logger

	grants  *ants.Pool
	pending sync.WaitGroup
}

func NewRoleSyncService(client RoleClient, cfg RoleSyncConfig, logger *logging.Logger) (*RoleSyncService, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.GrantWorkers
	if workers < 1 {
		workers = 4
	}
	grants, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create grant worker pool: %w", err)
	}

	return &RoleSyncService{
		client: client,
		cfg:    cfg,
		logger: logger,
		grants: grants,
	}, nil
}

// Close drains outstanding grants and releases the pool.
func (s *RoleSyncService) Close() {
	s.pending.Wait()
	s.grants.Release()
}

// Flush blocks until all queued grants have been attempted. Used on
// shutdown and by tests; regular callers never need it.
func (s *RoleSyncService) Flush() {
	s.pending.Wait()
}

// Reconcile aligns roles with a status transition. For promotions it queues
// best-effort grants and returns immediately. For demotions it revokes
// synchronously and returns ErrDependencyUnavailable if any revocation
// failed; the caller must then refuse to commit the status change.
func (s *RoleSyncService) Reconcile(ctx context.Context, t team.Team, old, new team.Status) error {
	if s.client == nil || s.cfg.ParticipantRoleID == "" {
		s.logger.WarnContext(ctx, "role sync disabled, skipping",
			"team_id", t.ID, "old_status", string(old), "new_status", string(new))
		return nil
	}

	switch {
	case team.GrantsRoles(old, new):
		s.grantAll(t)
		return nil
	case team.RequiresRevoke(old, new):
		return s.revokeAll(ctx, t)
	}
	return nil
}

func (s *RoleSyncService) grantAll(t team.Team) {
	for _, p := range t.Players {
		if p.DiscordID == "" {
			continue
		}
		p := p
		s.pending.Add(1)
		if err := s.grants.Submit(func() {
			defer s.pending.Done()
			s.grantPlayer(t, p)
		}); err != nil {
			s.pending.Done()
			s.logger.Error("submit role grant", "team_id", t.ID, "player_id", p.ID, "error", err)
		}
	}
}

func (s *RoleSyncService) grantPlayer(t team.Team, p team.Player) {
	ctx, cancel := context.WithTimeout(context.Background(), grantTimeout)
	defer cancel()

	if err := s.client.GrantRole(ctx, p.DiscordID, s.cfg.ParticipantRoleID); err != nil {
		s.logger.Warn("grant participant role failed",
			"team_id", t.ID, "player_id", p.ID, "member_id", p.DiscordID, "error", err)
	}
	if p.IsCaptain && s.cfg.CaptainRoleID != "" {
		if err := s.client.GrantRole(ctx, p.DiscordID, s.cfg.CaptainRoleID); err != nil {
			s.logger.Warn("grant captain role failed",
				"team_id", t.ID, "player_id", p.ID, "member_id", p.DiscordID, "error", err)
		}
	}
}

func (s *RoleSyncService) revokeAll(ctx context.Context, t team.Team) error {
	revokes := pool.New().WithErrors().WithContext(ctx)
	for _, p := range t.Players {
		if p.DiscordID == "" {
			continue
		}
		p := p
		revokes.Go(func(ctx context.Context) error {
			if err := s.client.RevokeRole(ctx, p.DiscordID, s.cfg.ParticipantRoleID); err != nil {
				return fmt.Errorf("revoke participant role from player %d: %w", p.ID, err)
			}
			if p.IsCaptain && s.cfg.CaptainRoleID != "" {
				if err := s.client.RevokeRole(ctx, p.DiscordID, s.cfg.CaptainRoleID); err != nil {
					return fmt.Errorf("revoke captain role from player %d: %w", p.ID, err)
				}
			}
			return nil
		})
	}

	if err := revokes.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "role revocation incomplete, keeping team approved",
			"team_id", t.ID, "error", err)
		return fmt.Errorf("%w: role revocation failed: %v", ErrDependencyUnavailable, err)
	}
	return nil
}
