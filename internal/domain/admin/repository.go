package admin

import "context"

type Repository interface {
	Add(ctx context.Context, a Admin) error
	Remove(ctx context.Context, telegramID int64) (bool, error)
	List(ctx context.Context) ([]Admin, error)
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)
}
