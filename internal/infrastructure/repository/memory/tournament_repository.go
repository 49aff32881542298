package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ruprime/tournament-bot/internal/domain/tournament"
)

// TournamentRepository holds tournaments in memory. Deletion cascades into
// the team repository the same way the sqlite transaction does.
type TournamentRepository struct {
	mu          sync.RWMutex
	tournaments map[int64]tournament.Tournament
	nextID      int64
	teams       *TeamRepository

	Now func() time.Time
}

func NewTournamentRepository(teams *TeamRepository) *TournamentRepository {
	return &TournamentRepository{
		tournaments: make(map[int64]tournament.Tournament),
		teams:       teams,
		Now:         time.Now,
	}
}

func (r *TournamentRepository) Create(_ context.Context, t tournament.Tournament) (tournament.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tournaments {
		if strings.EqualFold(existing.Name, t.Name) {
			return tournament.Tournament{}, fmt.Errorf("%w: %q", tournament.ErrNameTaken, t.Name)
		}
	}

	r.nextID++
	t.ID = r.nextID
	t.CreatedAt = r.Now()
	r.tournaments[t.ID] = t
	return t, nil
}

func (r *TournamentRepository) GetByID(_ context.Context, tournamentID int64) (tournament.Tournament, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tournaments[tournamentID]
	if !ok {
		return tournament.Tournament{}, false, nil
	}
	return t, true, nil
}

func (r *TournamentRepository) List(ctx context.Context) ([]tournament.Tournament, error) {
	return r.list(ctx, false)
}

func (r *TournamentRepository) ListOpen(ctx context.Context) ([]tournament.Tournament, error) {
	return r.list(ctx, true)
}

func (r *TournamentRepository) list(ctx context.Context, openOnly bool) ([]tournament.Tournament, error) {
	r.mu.RLock()
	out := make([]tournament.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		if openOnly && !t.RegistrationOpen {
			continue
		}
		out = append(out, t)
	}
	r.mu.RUnlock()

	for i := range out {
		if r.teams == nil {
			break
		}
		count, err := r.teams.CountByTournament(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].TeamCount = count
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TournamentRepository) Update(_ context.Context, tournamentID int64, u tournament.Update) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tournaments[tournamentID]
	if !ok {
		return false, nil
	}

	if u.Name != nil {
		for id, other := range r.tournaments {
			if id != tournamentID && strings.EqualFold(other.Name, *u.Name) {
				return false, fmt.Errorf("%w: %q", tournament.ErrNameTaken, *u.Name)
			}
		}
		t.Name = *u.Name
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.EventDate != nil {
		t.EventDate = *u.EventDate
	}
	if u.RegistrationOpen != nil {
		t.RegistrationOpen = *u.RegistrationOpen
	}

	r.tournaments[tournamentID] = t
	return true, nil
}

func (r *TournamentRepository) Delete(_ context.Context, tournamentID int64) (bool, error) {
	r.mu.Lock()
	_, ok := r.tournaments[tournamentID]
	delete(r.tournaments, tournamentID)
	r.mu.Unlock()

	if !ok {
		return false, nil
	}
	if r.teams != nil {
		r.teams.deleteByTournament(tournamentID)
	}
	return true, nil
}
