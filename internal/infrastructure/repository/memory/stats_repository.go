package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ruprime/tournament-bot/internal/domain/stats"
)

// StatsRepository keeps the daily counters in memory. The team repository
// bumps it from inside its own critical sections, mirroring the sqlite
// implementation where both live in one transaction.
type StatsRepository struct {
	mu   sync.RWMutex
	days map[string]stats.DayStats

	Now func() time.Time
}

func NewStatsRepository() *StatsRepository {
	return &StatsRepository{
		days: make(map[string]stats.DayStats),
		Now:  time.Now,
	}
}

func (r *StatsRepository) Range(_ context.Context, days int) ([]stats.DayStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.Now().AddDate(0, 0, -days).Format(stats.DayKey)
	out := make([]stats.DayStats, 0, len(r.days))
	for day, d := range r.days {
		if day >= cutoff {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	return out, nil
}

func (r *StatsRepository) bumpRegistrations(day string) {
	r.bump(day, func(d *stats.DayStats) { d.Registrations++ })
}

func (r *StatsRepository) bumpApproved(day string) {
	r.bump(day, func(d *stats.DayStats) { d.Approved++ })
}

func (r *StatsRepository) bumpRejected(day string) {
	r.bump(day, func(d *stats.DayStats) { d.Rejected++ })
}

func (r *StatsRepository) bump(day string, apply func(*stats.DayStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.days[day]
	d.Day = day
	apply(&d)
	r.days[day] = d
}

// Day returns a single day's counters, zero-valued when absent. Test helper.
func (r *StatsRepository) Day(day string) stats.DayStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := r.days[day]
	d.Day = day
	return d
}
