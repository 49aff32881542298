package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ruprime/tournament-bot/internal/domain/tournament"
)

func TestCreateTournament_Validation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.trn.Create(ctx, CreateTournamentInput{
		Name: "x", Description: "Weekly community cup", EventDate: "2026-09-12",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short name, got %v", err)
	}

	_, err = fx.trn.Create(ctx, CreateTournamentInput{
		Name: "Autumn Cup", Description: "short", EventDate: "2026-09-12",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short description, got %v", err)
	}

	_, err = fx.trn.Create(ctx, CreateTournamentInput{
		Name: "Autumn Cup", Description: "Weekly community cup",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing date, got %v", err)
	}

	created, err := fx.trn.Create(ctx, CreateTournamentInput{
		Name: "Autumn Cup", Description: "Weekly community cup", EventDate: "2026-09-12",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.RegistrationOpen {
		t.Fatal("new tournaments must open for registration")
	}

	_, err = fx.trn.Create(ctx, CreateTournamentInput{
		Name: "autumn cup", Description: "Weekly community cup", EventDate: "2026-09-12",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for name, got %v", err)
	}
}

func TestTournament_RegistrationToggleAndListing(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	trn := fx.openTournament(t)

	if err := fx.trn.CloseRegistration(ctx, trn.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	open, err := fx.trn.ListOpen(ctx)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("expected no open tournaments, got %d", len(open))
	}

	all, err := fx.trn.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].RegistrationOpen {
		t.Fatalf("expected one closed tournament, got %+v", all)
	}

	if err := fx.trn.OpenRegistration(ctx, trn.ID); err != nil {
		t.Fatalf("open: %v", err)
	}
	got, err := fx.trn.Get(ctx, trn.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.RegistrationOpen {
		t.Fatal("registration must be open again")
	}
}

func TestTournament_UpdateGuards(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	trn := fx.openTournament(t)

	if err := fx.trn.Update(ctx, trn.ID, tournament.Update{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty update, got %v", err)
	}

	name := "Renamed Cup"
	if err := fx.trn.Update(ctx, 9999, tournament.Update{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := fx.trn.Update(ctx, trn.ID, tournament.Update{Name: &name}); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := fx.trn.Get(ctx, trn.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != name {
		t.Fatalf("expected %q, got %q", name, got.Name)
	}
}

func TestDeleteTournament_CascadesAndDemotes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	submitted := fx.readyTeam(t, "Cascade", 200)
	fx.approve(t, submitted.ID)

	// A failed revocation aborts the whole deletion.
	fx.client.revokeErr = fmt.Errorf("discord down")
	if err := fx.trn.Delete(ctx, submitted.TournamentID); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if _, err := fx.trn.Get(ctx, submitted.TournamentID); err != nil {
		t.Fatalf("tournament must survive a failed delete: %v", err)
	}

	fx.client.revokeErr = nil
	if err := fx.trn.Delete(ctx, submitted.TournamentID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fx.client.revoked()) == 0 {
		t.Fatal("expected revocations for the approved team")
	}

	if _, err := fx.trn.Get(ctx, submitted.TournamentID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for tournament, got %v", err)
	}
	if _, err := fx.reg.TeamByID(ctx, submitted.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for team, got %v", err)
	}
}

func TestDeleteTournament_NotFound(t *testing.T) {
	fx := newFixture(t)

	if err := fx.trn.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
