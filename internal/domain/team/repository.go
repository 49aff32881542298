package team

import "context"

// Filter narrows List results. Zero values mean "no filter".
type Filter struct {
	Status       Status
	TournamentID int64
}

// Repository describes team persistence needs from use cases.
//
// Every mutating method that touches more than one row runs in a single
// transaction. Methods taking a reset flag atomically move the team back to
// draft together with the edit when the flag is set. Register and SetStatus
// maintain the daily stats counters inside the same transaction.
type Repository interface {
	// Create inserts the team in draft status together with its captain.
	Create(ctx context.Context, name, captainContact string, captain Player) (Team, error)

	GetByID(ctx context.Context, teamID int64) (Team, bool, error)
	// GetByTelegramID finds the team a player with this telegram id belongs to.
	GetByTelegramID(ctx context.Context, telegramID int64) (Team, bool, error)
	// GetByName matches the team name case-insensitively.
	GetByName(ctx context.Context, name string) (Team, bool, error)
	GetPlayer(ctx context.Context, playerID int64) (Player, bool, error)
	List(ctx context.Context, f Filter) ([]Team, error)
	CountByTournament(ctx context.Context, tournamentID int64) (int, error)

	Rename(ctx context.Context, teamID int64, name string, reset bool) error
	AddPlayer(ctx context.Context, teamID int64, p Player, reset bool) (Player, error)
	UpdatePlayerNickname(ctx context.Context, playerID int64, nickname string, reset bool) error
	UpdatePlayerTelegram(ctx context.Context, playerID int64, handle string, telegramID int64, reset bool) error
	UpdatePlayerDiscord(ctx context.Context, playerID int64, handle, discordID string, reset bool) error
	SetPlayerSubscription(ctx context.Context, playerID int64, sub Subscription) error
	RemovePlayer(ctx context.Context, playerID int64, reset bool) error

	// SetStatus updates the status and, when comment is non-nil, overwrites
	// the admin comment. It bumps the daily approved/rejected counter only
	// when the status actually changed and reports that via changed.
	SetStatus(ctx context.Context, teamID int64, status Status, comment *string) (changed bool, err error)

	// Register moves a draft team to pending, attaches the tournament and
	// bumps the daily registrations counter, all in one transaction.
	Register(ctx context.Context, teamID, tournamentID int64) error

	// Delete removes the team and all of its players.
	Delete(ctx context.Context, teamID int64) error
}
