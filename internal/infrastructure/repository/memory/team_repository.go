package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ruprime/tournament-bot/internal/domain/stats"
	"github.com/ruprime/tournament-bot/internal/domain/team"
)

// TeamRepository mirrors the sqlite repository semantics on maps, including
// the status-reset coupling and the stats counters. It backs the use-case
// tests.
type TeamRepository struct {
	mu           sync.RWMutex
	teams        map[int64]team.Team
	nextTeamID   int64
	nextPlayerID int64
	stats        *StatsRepository

	Now func() time.Time
}

func NewTeamRepository(statsRepo *StatsRepository) *TeamRepository {
	return &TeamRepository{
		teams: make(map[int64]team.Team),
		stats: statsRepo,
		Now:   time.Now,
	}
}

func (r *TeamRepository) Create(_ context.Context, name, captainContact string, captain team.Player) (team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.teams {
		if strings.EqualFold(t.Name, name) {
			return team.Team{}, fmt.Errorf("%w: %q", team.ErrNameTaken, name)
		}
	}
	if captain.TelegramID != 0 {
		for _, t := range r.teams {
			for _, existing := range t.Players {
				if existing.TelegramID == captain.TelegramID {
					return team.Team{}, fmt.Errorf("%w: team %q", team.ErrPlayerElsewhere, t.Name)
				}
			}
		}
	}

	r.nextTeamID++
	r.nextPlayerID++

	captain.ID = r.nextPlayerID
	captain.TeamID = r.nextTeamID
	captain.IsCaptain = true

	t := team.Team{
		ID:             r.nextTeamID,
		Name:           name,
		CaptainContact: captainContact,
		Status:         team.StatusDraft,
		CreatedAt:      r.Now(),
		Players:        []team.Player{captain},
	}
	r.teams[t.ID] = t
	return cloneTeam(t), nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID int64) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teams[teamID]
	if !ok {
		return team.Team{}, false, nil
	}
	return cloneTeam(t), true, nil
}

func (r *TeamRepository) GetByTelegramID(_ context.Context, telegramID int64) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if telegramID == 0 {
		return team.Team{}, false, nil
	}
	for _, t := range r.teams {
		for _, p := range t.Players {
			if p.TelegramID == telegramID {
				return cloneTeam(t), true, nil
			}
		}
	}
	return team.Team{}, false, nil
}

func (r *TeamRepository) GetByName(_ context.Context, name string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.teams {
		if strings.EqualFold(t.Name, name) {
			return cloneTeam(t), true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *TeamRepository) GetPlayer(_ context.Context, playerID int64) (team.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, _, ok := r.findPlayer(playerID); ok {
		return p, true, nil
	}
	return team.Player{}, false, nil
}

func (r *TeamRepository) List(_ context.Context, f team.Filter) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.teams))
	for _, t := range r.teams {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.TournamentID != 0 && t.TournamentID != f.TournamentID {
			continue
		}
		out = append(out, cloneTeam(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TeamRepository) CountByTournament(_ context.Context, tournamentID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, t := range r.teams {
		if t.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (r *TeamRepository) Rename(_ context.Context, teamID int64, name string, reset bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.teams[teamID]
	if !ok {
		return fmt.Errorf("team %d not found", teamID)
	}
	for id, other := range r.teams {
		if id != teamID && strings.EqualFold(other.Name, name) {
			return fmt.Errorf("%w: %q", team.ErrNameTaken, name)
		}
	}

	t.Name = name
	if reset {
		t.Status = team.StatusDraft
	}
	r.teams[teamID] = t
	return nil
}

func (r *TeamRepository) AddPlayer(_ context.Context, teamID int64, p team.Player, reset bool) (team.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.teams[teamID]
	if !ok {
		return team.Player{}, fmt.Errorf("team %d not found", teamID)
	}

	for _, existing := range t.Players {
		if strings.EqualFold(existing.Nickname, p.Nickname) {
			return team.Player{}, fmt.Errorf("%w: %q", team.ErrNicknameTaken, p.Nickname)
		}
		if strings.EqualFold(existing.TelegramHandle, p.TelegramHandle) {
			return team.Player{}, fmt.Errorf("%w: @%s", team.ErrTelegramTaken, p.TelegramHandle)
		}
		if p.DiscordHandle != "" && strings.EqualFold(existing.DiscordHandle, p.DiscordHandle) {
			return team.Player{}, fmt.Errorf("%w: %s", team.ErrDiscordTaken, p.DiscordHandle)
		}
	}
	if p.TelegramID != 0 {
		for id, other := range r.teams {
			if id == teamID {
				continue
			}
			for _, existing := range other.Players {
				if existing.TelegramID == p.TelegramID {
					return team.Player{}, fmt.Errorf("%w: team %q", team.ErrPlayerElsewhere, other.Name)
				}
			}
		}
	}

	r.nextPlayerID++
	p.ID = r.nextPlayerID
	p.TeamID = teamID
	p.IsCaptain = false

	t.Players = append(t.Players, p)
	if reset {
		t.Status = team.StatusDraft
	}
	r.teams[teamID] = t
	return p, nil
}

func (r *TeamRepository) UpdatePlayerNickname(_ context.Context, playerID int64, nickname string, reset bool) error {
	return r.updatePlayer(playerID, reset, func(t team.Team, idx int) error {
		for i, other := range t.Players {
			if i != idx && strings.EqualFold(other.Nickname, nickname) {
				return fmt.Errorf("%w: %q", team.ErrNicknameTaken, nickname)
			}
		}
		t.Players[idx].Nickname = nickname
		return nil
	})
}

func (r *TeamRepository) UpdatePlayerTelegram(_ context.Context, playerID int64, handle string, telegramID int64, reset bool) error {
	return r.updatePlayer(playerID, reset, func(t team.Team, idx int) error {
		for i, other := range t.Players {
			if i != idx && strings.EqualFold(other.TelegramHandle, handle) {
				return fmt.Errorf("%w: @%s", team.ErrTelegramTaken, handle)
			}
		}
		t.Players[idx].TelegramHandle = handle
		if telegramID != 0 {
			t.Players[idx].TelegramID = telegramID
		}
		return nil
	})
}

func (r *TeamRepository) UpdatePlayerDiscord(_ context.Context, playerID int64, handle, discordID string, reset bool) error {
	return r.updatePlayer(playerID, reset, func(t team.Team, idx int) error {
		for i, other := range t.Players {
			if i != idx && handle != "" && strings.EqualFold(other.DiscordHandle, handle) {
				return fmt.Errorf("%w: %s", team.ErrDiscordTaken, handle)
			}
		}
		t.Players[idx].DiscordHandle = handle
		t.Players[idx].DiscordID = discordID
		return nil
	})
}

func (r *TeamRepository) SetPlayerSubscription(_ context.Context, playerID int64, sub team.Subscription) error {
	return r.updatePlayer(playerID, false, func(t team.Team, idx int) error {
		t.Players[idx].Subscription = sub
		return nil
	})
}

func (r *TeamRepository) RemovePlayer(_ context.Context, playerID int64, reset bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, t, ok := r.findPlayer(playerID)
	if !ok {
		return fmt.Errorf("player %d not found", playerID)
	}
	if p.IsCaptain {
		return fmt.Errorf("%w: player %d", team.ErrCaptainRemoval, playerID)
	}

	kept := t.Players[:0]
	for _, existing := range t.Players {
		if existing.ID != playerID {
			kept = append(kept, existing)
		}
	}
	t.Players = kept
	if reset {
		t.Status = team.StatusDraft
	}
	r.teams[t.ID] = t
	return nil
}

func (r *TeamRepository) SetStatus(_ context.Context, teamID int64, status team.Status, comment *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.teams[teamID]
	if !ok {
		return false, fmt.Errorf("team %d not found", teamID)
	}

	changed := t.Status != status
	t.Status = status
	if comment != nil {
		t.AdminComment = *comment
	}
	r.teams[teamID] = t

	if changed && r.stats != nil {
		day := r.Now().Format(stats.DayKey)
		switch status {
		case team.StatusApproved:
			r.stats.bumpApproved(day)
		case team.StatusRejected:
			r.stats.bumpRejected(day)
		}
	}
	return changed, nil
}

func (r *TeamRepository) Register(_ context.Context, teamID, tournamentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.teams[teamID]
	if !ok {
		return fmt.Errorf("team %d not found", teamID)
	}

	t.Status = team.StatusPending
	t.TournamentID = tournamentID
	r.teams[teamID] = t

	if r.stats != nil {
		r.stats.bumpRegistrations(r.Now().Format(stats.DayKey))
	}
	return nil
}

func (r *TeamRepository) Delete(_ context.Context, teamID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.teams, teamID)
	return nil
}

func (r *TeamRepository) deleteByTournament(tournamentID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, t := range r.teams {
		if t.TournamentID == tournamentID {
			delete(r.teams, id)
			removed++
		}
	}
	return removed
}

// findPlayer requires the caller to hold the mutex.
func (r *TeamRepository) findPlayer(playerID int64) (team.Player, team.Team, bool) {
	for _, t := range r.teams {
		for _, p := range t.Players {
			if p.ID == playerID {
				return p, t, true
			}
		}
	}
	return team.Player{}, team.Team{}, false
}

func (r *TeamRepository) updatePlayer(playerID int64, reset bool, apply func(t team.Team, idx int) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, t := range r.teams {
		for idx, p := range t.Players {
			if p.ID != playerID {
				continue
			}
			if err := apply(t, idx); err != nil {
				return err
			}
			if reset {
				t.Status = team.StatusDraft
			}
			r.teams[id] = t
			return nil
		}
	}
	return fmt.Errorf("player %d not found", playerID)
}

func cloneTeam(t team.Team) team.Team {
	copied := t
	copied.Players = append([]team.Player(nil), t.Players...)
	return copied
}
