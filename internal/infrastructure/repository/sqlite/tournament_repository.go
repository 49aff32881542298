package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ruprime/tournament-bot/internal/domain/tournament"
)

type tournamentTableModel struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	Description      string    `db:"description"`
	EventDate        string    `db:"event_date"`
	RegistrationOpen bool      `db:"registration_open"`
	CreatedAt        time.Time `db:"created_at"`
	TeamCount        int       `db:"team_count"`
}

func (m tournamentTableModel) toDomain() tournament.Tournament {
	return tournament.Tournament{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		EventDate:        m.EventDate,
		RegistrationOpen: m.RegistrationOpen,
		CreatedAt:        m.CreatedAt,
		TeamCount:        m.TeamCount,
	}
}

type TournamentRepository struct {
	db *sqlx.DB

	Now func() time.Time
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db, Now: time.Now}
}

func (r *TournamentRepository) Create(ctx context.Context, t tournament.Tournament) (tournament.Tournament, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists,
		`SELECT 1 FROM tournaments WHERE LOWER(name) = LOWER(?) LIMIT 1`, t.Name)
	if err == nil {
		return tournament.Tournament{}, fmt.Errorf("%w: %q", tournament.ErrNameTaken, t.Name)
	}
	if !isNotFound(err) {
		return tournament.Tournament{}, fmt.Errorf("check tournament name: %w", err)
	}

	t.CreatedAt = r.Now()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO tournaments (name, description, event_date, registration_open, created_at)
VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.EventDate, t.RegistrationOpen, t.CreatedAt)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("insert tournament: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("tournament insert id: %w", err)
	}
	return t, nil
}

func (r *TournamentRepository) GetByID(ctx context.Context, tournamentID int64) (tournament.Tournament, bool, error) {
	var row tournamentTableModel
	err := r.db.GetContext(ctx, &row, `
SELECT id, name, description, event_date, registration_open, created_at, 0 AS team_count
FROM tournaments
WHERE id = ?`, tournamentID)
	if err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, false, nil
		}
		return tournament.Tournament{}, false, fmt.Errorf("get tournament: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TournamentRepository) List(ctx context.Context) ([]tournament.Tournament, error) {
	return r.list(ctx, false)
}

func (r *TournamentRepository) ListOpen(ctx context.Context) ([]tournament.Tournament, error) {
	return r.list(ctx, true)
}

func (r *TournamentRepository) list(ctx context.Context, openOnly bool) ([]tournament.Tournament, error) {
	query := `
SELECT tr.id, tr.name, tr.description, tr.event_date, tr.registration_open, tr.created_at,
       (SELECT COUNT(*) FROM teams t WHERE t.tournament_id = tr.id) AS team_count
FROM tournaments tr`
	if openOnly {
		query += "\nWHERE tr.registration_open = 1"
	}
	query += "\nORDER BY tr.created_at DESC, tr.id DESC"

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}

	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *TournamentRepository) Update(ctx context.Context, tournamentID int64, u tournament.Update) (bool, error) {
	if u.Name != nil {
		var exists int
		err := r.db.GetContext(ctx, &exists, `
SELECT 1 FROM tournaments
WHERE LOWER(name) = LOWER(?) AND id != ?
LIMIT 1`, *u.Name, tournamentID)
		if err == nil {
			return false, fmt.Errorf("%w: %q", tournament.ErrNameTaken, *u.Name)
		}
		if !isNotFound(err) {
			return false, fmt.Errorf("check tournament name: %w", err)
		}
	}

	set := ""
	args := []any{}
	appendSet := func(column string, value any) {
		if set != "" {
			set += ", "
		}
		set += column + " = ?"
		args = append(args, value)
	}
	if u.Name != nil {
		appendSet("name", *u.Name)
	}
	if u.Description != nil {
		appendSet("description", *u.Description)
	}
	if u.EventDate != nil {
		appendSet("event_date", *u.EventDate)
	}
	if u.RegistrationOpen != nil {
		appendSet("registration_open", *u.RegistrationOpen)
	}
	if set == "" {
		return false, nil
	}
	args = append(args, tournamentID)

	res, err := r.db.ExecContext(ctx, "UPDATE tournaments SET "+set+" WHERE id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("update tournament: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("tournament update rows: %w", err)
	}
	return n > 0, nil
}

func (r *TournamentRepository) Delete(ctx context.Context, tournamentID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx for tournament delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM players
WHERE team_id IN (SELECT id FROM teams WHERE tournament_id = ?)`, tournamentID); err != nil {
		return false, fmt.Errorf("delete tournament team players: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM teams WHERE tournament_id = ?`, tournamentID); err != nil {
		return false, fmt.Errorf("delete tournament teams: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tournaments WHERE id = ?`, tournamentID)
	if err != nil {
		return false, fmt.Errorf("delete tournament: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("tournament delete rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit tournament delete tx: %w", err)
	}
	return n > 0, nil
}
