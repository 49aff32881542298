package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ruprime/tournament-bot/internal/domain/admin"
)

type adminTableModel struct {
	TelegramID  int64     `db:"telegram_id"`
	DisplayName string    `db:"display_name"`
	AddedAt     time.Time `db:"added_at"`
}

type AdminRepository struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Add(ctx context.Context, a admin.Admin) error {
	existing, err := r.IsAdmin(ctx, a.TelegramID)
	if err != nil {
		return err
	}
	if existing {
		return fmt.Errorf("%w: %d", admin.ErrAlreadyAdmin, a.TelegramID)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO admins (telegram_id, display_name, added_at)
VALUES (?, ?, ?)`, a.TelegramID, a.DisplayName, a.AddedAt)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

func (r *AdminRepository) Remove(ctx context.Context, telegramID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM admins WHERE telegram_id = ?`, telegramID)
	if err != nil {
		return false, fmt.Errorf("delete admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("admin delete rows: %w", err)
	}
	return n > 0, nil
}

func (r *AdminRepository) List(ctx context.Context) ([]admin.Admin, error) {
	var rows []adminTableModel
	err := r.db.SelectContext(ctx, &rows, `
SELECT telegram_id, display_name, added_at
FROM admins
ORDER BY added_at, telegram_id`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	out := make([]admin.Admin, 0, len(rows))
	for _, row := range rows {
		out = append(out, admin.Admin{
			TelegramID:  row.TelegramID,
			DisplayName: row.DisplayName,
			AddedAt:     row.AddedAt,
		})
	}
	return out, nil
}

func (r *AdminRepository) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists,
		`SELECT 1 FROM admins WHERE telegram_id = ? LIMIT 1`, telegramID)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("check admin: %w", err)
}
