package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ruprime/tournament-bot/internal/domain/stats"
	"github.com/ruprime/tournament-bot/internal/domain/team"
)

func (fx *fixture) readyTeam(t *testing.T, name string, captainTgID int64) team.Team {
	t.Helper()
	created := fx.newTeam(t, name, captainTgID)
	fx.fillRoster(t, created.ID, name, team.MinPlayers)
	trn := fx.openTournament(t)
	submitted, err := fx.reg.RegisterForTournament(context.Background(), created.ID, trn.ID)
	if err != nil {
		t.Fatalf("register team: %v", err)
	}
	return submitted
}

func TestSetTeamStatus_ApproveGrantsRoles(t *testing.T) {
	fx := newFixture(t)
	submitted := fx.readyTeam(t, "Approve", 100)

	updated := fx.approve(t, submitted.ID)
	if updated.Status != team.StatusApproved {
		t.Fatalf("expected approved, got %q", updated.Status)
	}
	if len(fx.client.granted()) == 0 {
		t.Fatal("expected role grants after approval")
	}
	if len(fx.client.revoked()) != 0 {
		t.Fatal("approval must not revoke anything")
	}
}

func TestSetTeamStatus_RejectWithComment(t *testing.T) {
	fx := newFixture(t)
	submitted := fx.readyTeam(t, "Reject", 110)

	comment := "Скрины не читаются"
	updated, err := fx.review.SetTeamStatus(context.Background(), SetStatusInput{
		TeamID:  submitted.ID,
		Status:  team.StatusRejected,
		Comment: &comment,
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if updated.Status != team.StatusRejected || updated.AdminComment != comment {
		t.Fatalf("expected rejected with comment, got %q/%q", updated.Status, updated.AdminComment)
	}
	// pending -> rejected never held roles, so nothing to revoke.
	if len(fx.client.revoked()) != 0 {
		t.Fatal("unexpected revocations")
	}
}

func TestSetTeamStatus_KeepCommentSemantics(t *testing.T) {
	fx := newFixture(t)
	submitted := fx.readyTeam(t, "Comments", 120)
	ctx := context.Background()

	comment := "Проверить четвёртого игрока"
	if _, err := fx.review.SetTeamStatus(ctx, SetStatusInput{
		TeamID: submitted.ID, Status: team.StatusRejected, Comment: &comment,
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// KeepComment leaves the previous note intact.
	updated, err := fx.review.SetTeamStatus(ctx, SetStatusInput{
		TeamID: submitted.ID, Status: team.StatusApproved, Comment: KeepComment,
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.AdminComment != comment {
		t.Fatalf("comment must survive KeepComment, got %q", updated.AdminComment)
	}

	// A pointer to an empty string clears it.
	empty := ""
	updated, err = fx.review.SetTeamStatus(ctx, SetStatusInput{
		TeamID: submitted.ID, Status: team.StatusApproved, Comment: &empty,
	})
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if updated.AdminComment != "" {
		t.Fatalf("comment must be cleared, got %q", updated.AdminComment)
	}
}

func TestSetTeamStatus_StatsCountOnceOnRepeat(t *testing.T) {
	fx := newFixture(t)
	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	fx.teams.Now = func() time.Time { return day }
	submitted := fx.readyTeam(t, "Stats", 130)
	ctx := context.Background()

	fx.approve(t, submitted.ID)
	// Re-approving only annotates, it must not bump the counter again.
	note := "повторная проверка"
	if _, err := fx.review.SetTeamStatus(ctx, SetStatusInput{
		TeamID: submitted.ID, Status: team.StatusApproved, Comment: &note,
	}); err != nil {
		t.Fatalf("re-approve: %v", err)
	}

	got := fx.stats.Day(day.Format(stats.DayKey))
	if got.Registrations != 1 || got.Approved != 1 || got.Rejected != 0 {
		t.Fatalf("unexpected counters: %+v", got)
	}
}

func TestSetTeamStatus_RevokeFailureKeepsStatus(t *testing.T) {
	fx := newFixture(t)
	submitted := fx.readyTeam(t, "Demote", 140)
	fx.approve(t, submitted.ID)
	ctx := context.Background()

	fx.client.revokeErr = fmt.Errorf("discord down")
	_, err := fx.review.SetTeamStatus(ctx, SetStatusInput{
		TeamID: submitted.ID, Status: team.StatusRejected,
	})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}

	after, err := fx.reg.TeamByID(ctx, submitted.ID)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if after.Status != team.StatusApproved {
		t.Fatalf("status must stay approved, got %q", after.Status)
	}
}

func TestSetTeamStatus_RejectsNonReviewable(t *testing.T) {
	fx := newFixture(t)
	submitted := fx.readyTeam(t, "BadStatus", 150)
	ctx := context.Background()

	for _, target := range []team.Status{team.StatusDraft, team.StatusPending} {
		_, err := fx.review.SetTeamStatus(ctx, SetStatusInput{
			TeamID: submitted.ID, Status: target,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("target %q: expected ErrInvalidInput, got %v", target, err)
		}
	}
}

func TestSetTeamStatus_DraftTeamNotJudgeable(t *testing.T) {
	fx := newFixture(t)
	created := fx.newTeam(t, "Unsent", 160)
	ctx := context.Background()

	for _, target := range []team.Status{team.StatusApproved, team.StatusRejected} {
		_, err := fx.review.SetTeamStatus(ctx, SetStatusInput{
			TeamID: created.ID, Status: target,
		})
		if !errors.Is(err, ErrInvariant) {
			t.Fatalf("target %q: expected ErrInvariant, got %v", target, err)
		}
	}

	after, err := fx.reg.TeamByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if after.Status != team.StatusDraft {
		t.Fatalf("status must stay draft, got %q", after.Status)
	}
	fx.roles.Flush()
	if len(fx.client.granted()) != 0 {
		t.Fatal("a never-submitted roster must not receive roles")
	}
}

func TestAdmins_BootstrapAndRoster(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if err := fx.review.EnsureBootstrapAdmin(ctx, 500, "root"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	// A second bootstrap is a no-op once an admin exists.
	if err := fx.review.EnsureBootstrapAdmin(ctx, 501, "other"); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	admins, err := fx.review.Admins(ctx)
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(admins) != 1 || admins[0].TelegramID != 500 {
		t.Fatalf("expected only the first bootstrap admin, got %+v", admins)
	}

	ok, err := fx.review.IsAdmin(ctx, 500)
	if err != nil || !ok {
		t.Fatalf("expected 500 to be admin, ok=%v err=%v", ok, err)
	}

	if err := fx.review.AddAdmin(ctx, 500, "root again"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := fx.review.AddAdmin(ctx, -1, "bogus"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if err := fx.review.RemoveAdmin(ctx, 500); err != nil {
		t.Fatalf("remove admin: %v", err)
	}
	if err := fx.review.RemoveAdmin(ctx, 500); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindTeam_NotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.review.FindTeam(context.Background(), "Nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
