package stats

import "context"

// Repository reads the daily counters. Writes happen inside the team
// repository transactions that cause them.
type Repository interface {
	// Range returns per-day stats for the trailing window, newest first.
	Range(ctx context.Context, days int) ([]DayStats, error)
}
