package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ruprime/tournament-bot/internal/domain/stats"
)

// StatsRepository reads the daily counters. Writes happen inside the team
// repository transactions, next to the status changes they count.
type StatsRepository struct {
	db *sqlx.DB

	Now func() time.Time
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db, Now: time.Now}
}

func (r *StatsRepository) Range(ctx context.Context, days int) ([]stats.DayStats, error) {
	cutoff := r.Now().AddDate(0, 0, -days).Format(stats.DayKey)

	var rows []struct {
		Day           string `db:"day"`
		Registrations int    `db:"registrations"`
		Approved      int    `db:"approved"`
		Rejected      int    `db:"rejected"`
	}
	err := r.db.SelectContext(ctx, &rows, `
SELECT day, registrations, approved, rejected
FROM daily_stats
WHERE day >= ?
ORDER BY day DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("range daily stats: %w", err)
	}

	out := make([]stats.DayStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, stats.DayStats{
			Day:           row.Day,
			Registrations: row.Registrations,
			Approved:      row.Approved,
			Rejected:      row.Rejected,
		})
	}
	return out, nil
}
