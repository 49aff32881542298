package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ruprime/tournament-bot/internal/domain/team"
	"github.com/ruprime/tournament-bot/internal/domain/tournament"
	"github.com/ruprime/tournament-bot/internal/infrastructure/repository/memory"
)

type fixture struct {
	teams       *memory.TeamRepository
	tournaments *memory.TournamentRepository
	admins      *memory.AdminRepository
	stats       *memory.StatsRepository
	client      *fakeRoleClient
	roles       *RoleSyncService

	reg    *RegistrationService
	review *ReviewService
	trn    *TournamentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stats := memory.NewStatsRepository()
	teams := memory.NewTeamRepository(stats)
	tournaments := memory.NewTournamentRepository(teams)
	admins := memory.NewAdminRepository()
	client := &fakeRoleClient{}
	roles := newRoleSync(t, client)

	return &fixture{
		teams:       teams,
		tournaments: tournaments,
		admins:      admins,
		stats:       stats,
		client:      client,
		roles:       roles,
		reg:         NewRegistrationService(teams, tournaments, roles, nil),
		review:      NewReviewService(teams, admins, stats, roles, nil),
		trn:         NewTournamentService(tournaments, teams, roles, nil),
	}
}

func (fx *fixture) openTournament(t *testing.T) tournament.Tournament {
	t.Helper()
	trn, err := fx.trn.Create(context.Background(), CreateTournamentInput{
		Name:        "Spring Cup",
		Description: "Weekly community cup",
		EventDate:   "2026-09-12 19:00 МСК",
	})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	return trn
}

func (fx *fixture) newTeam(t *testing.T, name string, captainTgID int64) team.Team {
	t.Helper()
	created, err := fx.reg.CreateTeam(context.Background(), CreateTeamInput{
		Name: name,
		Captain: PlayerInput{
			Nickname:       name + "Cap",
			TelegramHandle: "captain_" + name,
			TelegramID:     captainTgID,
			DiscordHandle:  name + "cap",
			DiscordID:      "d-" + name + "-cap",
		},
	})
	if err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	return created
}

func (fx *fixture) fillRoster(t *testing.T, teamID int64, prefix string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := fx.reg.AddPlayer(context.Background(), AddPlayerInput{
			TeamID: teamID,
			Player: PlayerInput{
				Nickname:       fmt.Sprintf("%s_%d", prefix, i),
				TelegramHandle: fmt.Sprintf("tg_%s_%d", prefix, i),
				DiscordHandle:  fmt.Sprintf("dc_%s_%d", prefix, i),
				DiscordID:      fmt.Sprintf("d-%s-%d", prefix, i),
			},
		})
		if err != nil {
			t.Fatalf("add player %d: %v", i, err)
		}
	}
}

func (fx *fixture) approve(t *testing.T, teamID int64) team.Team {
	t.Helper()
	updated, err := fx.review.SetTeamStatus(context.Background(), SetStatusInput{
		TeamID: teamID,
		Status: team.StatusApproved,
	})
	if err != nil {
		t.Fatalf("approve team: %v", err)
	}
	fx.roles.Flush()
	return updated
}

func TestCreateTeam_Validation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.reg.CreateTeam(ctx, CreateTeamInput{
		Name: "x",
		Captain: PlayerInput{
			Nickname:       "Cap",
			TelegramHandle: "valid_handle",
		},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short name, got %v", err)
	}

	_, err = fx.reg.CreateTeam(ctx, CreateTeamInput{
		Name: "Good Team",
		Captain: PlayerInput{
			Nickname:       "Cap",
			TelegramHandle: "bad handle!",
		},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad handle, got %v", err)
	}

	fx.newTeam(t, "Dup", 10)
	_, err = fx.reg.CreateTeam(ctx, CreateTeamInput{
		Name: "dup",
		Captain: PlayerInput{
			Nickname:       "Other",
			TelegramHandle: "other_captain",
		},
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for name, got %v", err)
	}
}

func TestRegisterForTournament_Guards(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	trn := fx.openTournament(t)

	created := fx.newTeam(t, "Guards", 20)

	// Not enough players yet.
	_, err := fx.reg.RegisterForTournament(ctx, created.ID, trn.ID)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant for small roster, got %v", err)
	}

	fx.fillRoster(t, created.ID, "guards", team.MinPlayers)

	// A player without a discord handle blocks the submit.
	noDiscord, err := fx.reg.AddPlayer(ctx, AddPlayerInput{
		TeamID: created.ID,
		Player: PlayerInput{Nickname: "NoDiscord", TelegramHandle: "guards_nodc"},
	})
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	_, err = fx.reg.RegisterForTournament(ctx, created.ID, trn.ID)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant for missing discord, got %v", err)
	}
	if err := fx.reg.RemovePlayer(ctx, noDiscord.ID); err != nil {
		t.Fatalf("remove player: %v", err)
	}

	// Closed registration blocks the submit.
	if err := fx.trn.CloseRegistration(ctx, trn.ID); err != nil {
		t.Fatalf("close registration: %v", err)
	}
	_, err = fx.reg.RegisterForTournament(ctx, created.ID, trn.ID)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant for closed tournament, got %v", err)
	}

	if err := fx.trn.OpenRegistration(ctx, trn.ID); err != nil {
		t.Fatalf("open registration: %v", err)
	}
	submitted, err := fx.reg.RegisterForTournament(ctx, created.ID, trn.ID)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if submitted.Status != team.StatusPending || submitted.TournamentID != trn.ID {
		t.Fatalf("expected pending on tournament, got %q/%d", submitted.Status, submitted.TournamentID)
	}

	// Already submitted: no double registration.
	_, err = fx.reg.RegisterForTournament(ctx, created.ID, trn.ID)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant for re-submit, got %v", err)
	}
}

func TestAddPlayer_RosterCap(t *testing.T) {
	fx := newFixture(t)
	created := fx.newTeam(t, "Full", 30)
	fx.fillRoster(t, created.ID, "full", team.MaxPlayers)

	_, err := fx.reg.AddPlayer(context.Background(), AddPlayerInput{
		TeamID: created.ID,
		Player: PlayerInput{Nickname: "OneTooMany", TelegramHandle: "full_extra"},
	})
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant for full roster, got %v", err)
	}
}

func TestCreateTeam_CaptainAlreadyRostered(t *testing.T) {
	fx := newFixture(t)
	fx.newTeam(t, "Orig", 90)

	_, err := fx.reg.CreateTeam(context.Background(), CreateTeamInput{
		Name: "Spinoff",
		Captain: PlayerInput{
			Nickname:       "CapTwo",
			TelegramHandle: "captain_two",
			TelegramID:     90,
		},
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for rostered captain, got %v", err)
	}
}

func TestAddPlayer_CrossTeamTelegramID(t *testing.T) {
	fx := newFixture(t)
	fx.newTeam(t, "First", 40)
	second := fx.newTeam(t, "Second", 41)

	_, err := fx.reg.AddPlayer(context.Background(), AddPlayerInput{
		TeamID: second.ID,
		Player: PlayerInput{
			Nickname:       "Poached",
			TelegramHandle: "poached_player",
			TelegramID:     40,
		},
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for cross-team telegram id, got %v", err)
	}
}

func TestEdit_ResetsApprovedToDraftAndRevokes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	trn := fx.openTournament(t)

	created := fx.newTeam(t, "Edited", 50)
	fx.fillRoster(t, created.ID, "edited", team.MinPlayers)
	if _, err := fx.reg.RegisterForTournament(ctx, created.ID, trn.ID); err != nil {
		t.Fatalf("register: %v", err)
	}
	fx.approve(t, created.ID)

	reloaded, err := fx.reg.TeamByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if err := fx.reg.EditPlayerNickname(ctx, reloaded.Players[0].ID, "NewNick"); err != nil {
		t.Fatalf("edit nickname: %v", err)
	}

	after, err := fx.reg.TeamByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if after.Status != team.StatusDraft {
		t.Fatalf("expected draft after edit, got %q", after.Status)
	}
	if after.TournamentID != trn.ID {
		t.Fatal("tournament link must survive the reset")
	}
	if len(fx.client.revoked()) == 0 {
		t.Fatal("expected role revocations before the demotion")
	}
}

func TestEdit_RevokeFailureKeepsTeamApproved(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	trn := fx.openTournament(t)

	created := fx.newTeam(t, "Stuck", 60)
	fx.fillRoster(t, created.ID, "stuck", team.MinPlayers)
	if _, err := fx.reg.RegisterForTournament(ctx, created.ID, trn.ID); err != nil {
		t.Fatalf("register: %v", err)
	}
	fx.approve(t, created.ID)

	fx.client.revokeErr = fmt.Errorf("discord down")
	err := fx.reg.RenameTeam(ctx, created.ID, "Stuck Renamed")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	after, err := fx.reg.TeamByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if after.Status != team.StatusApproved || after.Name != "Stuck" {
		t.Fatalf("team must stay untouched, got %q/%q", after.Status, after.Name)
	}
}

func TestRemovePlayer_CaptainRefused(t *testing.T) {
	fx := newFixture(t)
	created := fx.newTeam(t, "Cptn", 70)

	err := fx.reg.RemovePlayer(context.Background(), created.Players[0].ID)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant for captain removal, got %v", err)
	}
}

func TestDeleteTeam_ApprovedRevokesFirst(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	trn := fx.openTournament(t)

	created := fx.newTeam(t, "Gone", 80)
	fx.fillRoster(t, created.ID, "gone", team.MinPlayers)
	if _, err := fx.reg.RegisterForTournament(ctx, created.ID, trn.ID); err != nil {
		t.Fatalf("register: %v", err)
	}
	fx.approve(t, created.ID)

	// Revocation failure blocks the delete entirely.
	fx.client.revokeErr = fmt.Errorf("discord down")
	if err := fx.reg.DeleteTeam(ctx, created.ID); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if _, err := fx.reg.TeamByID(ctx, created.ID); err != nil {
		t.Fatalf("team must survive a failed delete: %v", err)
	}

	fx.client.revokeErr = nil
	if err := fx.reg.DeleteTeam(ctx, created.ID); err != nil {
		t.Fatalf("delete team: %v", err)
	}
	if _, err := fx.reg.TeamByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if len(fx.client.revoked()) == 0 {
		t.Fatal("expected revocations for the approved team")
	}
}
