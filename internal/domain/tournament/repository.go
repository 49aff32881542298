package tournament

import "context"

// Repository describes tournament persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, t Tournament) (Tournament, error)
	GetByID(ctx context.Context, tournamentID int64) (Tournament, bool, error)
	// List returns all tournaments, newest first, with team counts.
	List(ctx context.Context) ([]Tournament, error)
	// ListOpen returns tournaments whose registration is open, newest first.
	ListOpen(ctx context.Context) ([]Tournament, error)
	Update(ctx context.Context, tournamentID int64, u Update) (bool, error)
	// Delete removes the tournament together with every team registered to
	// it and their players, in one transaction. The caller is responsible
	// for demoting approved teams first.
	Delete(ctx context.Context, tournamentID int64) (bool, error)
}
