package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ruprime/tournament-bot/internal/domain/stats"
	"github.com/ruprime/tournament-bot/internal/domain/team"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func TestTeamRepository_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewTeamRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Night Owls", "@cap", team.Player{
		Nickname:       "Owl",
		TelegramHandle: "captain_owl",
		TelegramID:     101,
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if created.Status != team.StatusDraft {
		t.Fatalf("expected draft status, got %q", created.Status)
	}
	if len(created.Players) != 1 || !created.Players[0].IsCaptain {
		t.Fatalf("expected a single captain, got %+v", created.Players)
	}

	got, ok, err := repo.GetByName(ctx, "night owls")
	if err != nil || !ok {
		t.Fatalf("get by name: ok=%v err=%v", ok, err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected team %d, got %d", created.ID, got.ID)
	}

	byUser, ok, err := repo.GetByTelegramID(ctx, 101)
	if err != nil || !ok {
		t.Fatalf("get by telegram id: ok=%v err=%v", ok, err)
	}
	if byUser.ID != created.ID {
		t.Fatalf("expected team %d, got %d", created.ID, byUser.ID)
	}

	if _, err := repo.Create(ctx, "NIGHT OWLS", "@other", team.Player{
		Nickname:       "Other",
		TelegramHandle: "other_cap",
	}); !errors.Is(err, team.ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestTeamRepository_RosterUniqueness(t *testing.T) {
	db := openTestDB(t)
	repo := NewTeamRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Uniq", "@cap", team.Player{
		Nickname:       "Cap",
		TelegramHandle: "cap_handle",
		TelegramID:     1,
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	if _, err := repo.AddPlayer(ctx, created.ID, team.Player{
		Nickname:       "CAP",
		TelegramHandle: "second",
	}, false); !errors.Is(err, team.ErrNicknameTaken) {
		t.Fatalf("expected ErrNicknameTaken, got %v", err)
	}
	if _, err := repo.AddPlayer(ctx, created.ID, team.Player{
		Nickname:       "Second",
		TelegramHandle: "CAP_HANDLE",
	}, false); !errors.Is(err, team.ErrTelegramTaken) {
		t.Fatalf("expected ErrTelegramTaken, got %v", err)
	}

	other, err := repo.Create(ctx, "Other", "@other", team.Player{
		Nickname:       "OtherCap",
		TelegramHandle: "other_cap",
	})
	if err != nil {
		t.Fatalf("create second team: %v", err)
	}
	if _, err := repo.AddPlayer(ctx, other.ID, team.Player{
		Nickname:       "Poached",
		TelegramHandle: "poached",
		TelegramID:     1,
	}, false); !errors.Is(err, team.ErrPlayerElsewhere) {
		t.Fatalf("expected ErrPlayerElsewhere, got %v", err)
	}

	// A rostered player cannot found a second team as captain either.
	if _, err := repo.Create(ctx, "Third", "@third", team.Player{
		Nickname:       "ThirdCap",
		TelegramHandle: "third_cap",
		TelegramID:     1,
	}); !errors.Is(err, team.ErrPlayerElsewhere) {
		t.Fatalf("expected ErrPlayerElsewhere on create, got %v", err)
	}
}

func TestTeamRepository_EditResetsStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewTeamRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Resetters", "@cap", team.Player{
		Nickname:       "Cap",
		TelegramHandle: "reset_cap",
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	if _, err := repo.SetStatus(ctx, created.ID, team.StatusApproved, nil); err != nil {
		t.Fatalf("approve team: %v", err)
	}

	if err := repo.Rename(ctx, created.ID, "Renamed", true); err != nil {
		t.Fatalf("rename team: %v", err)
	}
	got, _, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if got.Status != team.StatusDraft {
		t.Fatalf("expected draft after reset rename, got %q", got.Status)
	}
	if got.Name != "Renamed" {
		t.Fatalf("expected renamed team, got %q", got.Name)
	}
}

func TestTeamRepository_RemovePlayer(t *testing.T) {
	db := openTestDB(t)
	repo := NewTeamRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Removal", "@cap", team.Player{
		Nickname:       "Cap",
		TelegramHandle: "removal_cap",
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}
	added, err := repo.AddPlayer(ctx, created.ID, team.Player{
		Nickname:       "Mate",
		TelegramHandle: "removal_mate",
	}, false)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}

	captain := created.Players[0]
	if err := repo.RemovePlayer(ctx, captain.ID, false); !errors.Is(err, team.ErrCaptainRemoval) {
		t.Fatalf("expected ErrCaptainRemoval, got %v", err)
	}
	if err := repo.RemovePlayer(ctx, added.ID, false); err != nil {
		t.Fatalf("remove player: %v", err)
	}

	got, _, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if len(got.Players) != 1 {
		t.Fatalf("expected only the captain left, got %d players", len(got.Players))
	}
}

func TestTeamRepository_StatusAndStats(t *testing.T) {
	db := openTestDB(t)
	repo := NewTeamRepository(db)
	statsRepo := NewStatsRepository(db)
	ctx := context.Background()

	fixed := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return fixed }
	statsRepo.Now = func() time.Time { return fixed }

	created, err := repo.Create(ctx, "Counted", "@cap", team.Player{
		Nickname:       "Cap",
		TelegramHandle: "counted_cap",
	})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	if err := repo.Register(ctx, created.ID, 7); err != nil {
		t.Fatalf("register team: %v", err)
	}
	got, _, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if got.Status != team.StatusPending || got.TournamentID != 7 {
		t.Fatalf("expected pending team on tournament 7, got %q/%d", got.Status, got.TournamentID)
	}

	changed, err := repo.SetStatus(ctx, created.ID, team.StatusApproved, nil)
	if err != nil || !changed {
		t.Fatalf("approve: changed=%v err=%v", changed, err)
	}
	// Re-approving only touches the comment and must not double count.
	comment := "still fine"
	changed, err = repo.SetStatus(ctx, created.ID, team.StatusApproved, &comment)
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if changed {
		t.Fatal("expected re-approval to report unchanged")
	}

	days, err := statsRepo.Range(ctx, 7)
	if err != nil {
		t.Fatalf("range stats: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("expected one counted day, got %d", len(days))
	}
	day := days[0]
	if day.Day != fixed.Format(stats.DayKey) {
		t.Fatalf("unexpected day %q", day.Day)
	}
	if day.Registrations != 1 || day.Approved != 1 || day.Rejected != 0 {
		t.Fatalf("unexpected counters %+v", day)
	}

	got, _, err = repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get team: %v", err)
	}
	if got.AdminComment != comment {
		t.Fatalf("expected admin comment %q, got %q", comment, got.AdminComment)
	}
}
