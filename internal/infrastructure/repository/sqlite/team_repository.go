package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ruprime/tournament-bot/internal/domain/stats"
	"github.com/ruprime/tournament-bot/internal/domain/team"
)

// TeamRepository persists teams and players. Uniqueness violations come back
// as the team package sentinels: the pre-checks inside each transaction make
// the error kind deterministic, the unique indexes in the schema are only the
// backstop against races.
type TeamRepository struct {
	db *sqlx.DB

	Now func() time.Time
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db, Now: time.Now}
}

func (r *TeamRepository) Create(ctx context.Context, name, captainContact string, captain team.Player) (team.Team, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return team.Team{}, fmt.Errorf("begin tx for team create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	taken, err := r.nameTaken(ctx, tx, name, 0)
	if err != nil {
		return team.Team{}, err
	}
	if taken {
		return team.Team{}, fmt.Errorf("%w: %q", team.ErrNameTaken, name)
	}
	if err := r.checkPlayerElsewhere(ctx, tx, 0, captain.TelegramID); err != nil {
		return team.Team{}, err
	}

	createdAt := r.Now()
	res, err := tx.ExecContext(ctx, `
INSERT INTO teams (name, captain_contact, status, created_at)
VALUES (?, ?, ?, ?)`,
		name, captainContact, string(team.StatusDraft), createdAt)
	if err != nil {
		return team.Team{}, fmt.Errorf("insert team: %w", err)
	}
	teamID, err := res.LastInsertId()
	if err != nil {
		return team.Team{}, fmt.Errorf("team insert id: %w", err)
	}

	captain.TeamID = teamID
	captain.IsCaptain = true
	captain.ID, err = insertPlayer(ctx, tx, captain)
	if err != nil {
		return team.Team{}, err
	}

	if err := tx.Commit(); err != nil {
		return team.Team{}, fmt.Errorf("commit team create tx: %w", err)
	}

	return team.Team{
		ID:             teamID,
		Name:           name,
		CaptainContact: captainContact,
		Status:         team.StatusDraft,
		CreatedAt:      createdAt,
		Players:        []team.Player{captain},
	}, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	return r.getTeam(ctx, `
SELECT id, name, captain_contact, status, admin_comment, tournament_id, created_at
FROM teams
WHERE id = ?`, teamID)
}

func (r *TeamRepository) GetByTelegramID(ctx context.Context, telegramID int64) (team.Team, bool, error) {
	if telegramID == 0 {
		return team.Team{}, false, nil
	}
	return r.getTeam(ctx, `
SELECT t.id, t.name, t.captain_contact, t.status, t.admin_comment, t.tournament_id, t.created_at
FROM teams t
JOIN players p ON p.team_id = t.id
WHERE p.telegram_id = ?
LIMIT 1`, telegramID)
}

func (r *TeamRepository) GetByName(ctx context.Context, name string) (team.Team, bool, error) {
	return r.getTeam(ctx, `
SELECT id, name, captain_contact, status, admin_comment, tournament_id, created_at
FROM teams
WHERE LOWER(name) = LOWER(?)`, name)
}

func (r *TeamRepository) GetPlayer(ctx context.Context, playerID int64) (team.Player, bool, error) {
	var row playerTableModel
	err := r.db.GetContext(ctx, &row, `
SELECT id, team_id, nickname, telegram_handle, telegram_id, discord_handle, discord_id, is_captain, subscription
FROM players
WHERE id = ?`, playerID)
	if err != nil {
		if isNotFound(err) {
			return team.Player{}, false, nil
		}
		return team.Player{}, false, fmt.Errorf("get player: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TeamRepository) List(ctx context.Context, f team.Filter) ([]team.Team, error) {
	query := `
SELECT id, name, captain_contact, status, admin_comment, tournament_id, created_at
FROM teams
WHERE 1 = 1`
	args := []any{}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	if f.TournamentID != 0 {
		query += " AND tournament_id = ?"
		args = append(args, f.TournamentID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		players, err := r.teamPlayers(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, row.toDomain(players))
	}
	return out, nil
}

func (r *TeamRepository) CountByTournament(ctx context.Context, tournamentID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM teams WHERE tournament_id = ?`, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("count tournament teams: %w", err)
	}
	return count, nil
}

func (r *TeamRepository) Rename(ctx context.Context, teamID int64, name string, reset bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for team rename: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	taken, err := r.nameTaken(ctx, tx, name, teamID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %q", team.ErrNameTaken, name)
	}

	res, err := tx.ExecContext(ctx, `UPDATE teams SET name = ? WHERE id = ?`, name, teamID)
	if err != nil {
		return fmt.Errorf("rename team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("team %d not found", teamID)
	}
	if err := resetTeam(ctx, tx, teamID, reset); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team rename tx: %w", err)
	}
	return nil
}

func (r *TeamRepository) AddPlayer(ctx context.Context, teamID int64, p team.Player, reset bool) (team.Player, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return team.Player{}, fmt.Errorf("begin tx for player add: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.checkRosterUnique(ctx, tx, teamID, 0, p); err != nil {
		return team.Player{}, err
	}
	if err := r.checkPlayerElsewhere(ctx, tx, teamID, p.TelegramID); err != nil {
		return team.Player{}, err
	}

	p.TeamID = teamID
	p.IsCaptain = false
	p.ID, err = insertPlayer(ctx, tx, p)
	if err != nil {
		return team.Player{}, err
	}
	if err := resetTeam(ctx, tx, teamID, reset); err != nil {
		return team.Player{}, err
	}

	if err := tx.Commit(); err != nil {
		return team.Player{}, fmt.Errorf("commit player add tx: %w", err)
	}
	return p, nil
}

func (r *TeamRepository) UpdatePlayerNickname(ctx context.Context, playerID int64, nickname string, reset bool) error {
	return r.updatePlayer(ctx, playerID, reset, team.Player{Nickname: nickname},
		`UPDATE players SET nickname = ? WHERE id = ?`, nickname, playerID)
}

func (r *TeamRepository) UpdatePlayerTelegram(ctx context.Context, playerID int64, handle string, telegramID int64, reset bool) error {
	query := `UPDATE players SET telegram_handle = ? WHERE id = ?`
	args := []any{handle, playerID}
	if telegramID != 0 {
		query = `UPDATE players SET telegram_handle = ?, telegram_id = ? WHERE id = ?`
		args = []any{handle, telegramID, playerID}
	}
	return r.updatePlayer(ctx, playerID, reset, team.Player{TelegramHandle: handle}, query, args...)
}

func (r *TeamRepository) UpdatePlayerDiscord(ctx context.Context, playerID int64, handle, discordID string, reset bool) error {
	return r.updatePlayer(ctx, playerID, reset, team.Player{DiscordHandle: handle},
		`UPDATE players SET discord_handle = ?, discord_id = ? WHERE id = ?`, handle, discordID, playerID)
}

func (r *TeamRepository) SetPlayerSubscription(ctx context.Context, playerID int64, sub team.Subscription) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE players SET subscription = ? WHERE id = ?`, string(sub), playerID)
	if err != nil {
		return fmt.Errorf("set player subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("player %d not found", playerID)
	}
	return nil
}

func (r *TeamRepository) RemovePlayer(ctx context.Context, playerID int64, reset bool) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for player remove: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var row playerTableModel
	err = tx.GetContext(ctx, &row,
		`SELECT id, team_id, is_captain FROM players WHERE id = ?`, playerID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("player %d not found", playerID)
		}
		return fmt.Errorf("get player for remove: %w", err)
	}
	if row.IsCaptain {
		return fmt.Errorf("%w: player %d", team.ErrCaptainRemoval, playerID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, playerID); err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	if err := resetTeam(ctx, tx, row.TeamID, reset); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit player remove tx: %w", err)
	}
	return nil
}

func (r *TeamRepository) SetStatus(ctx context.Context, teamID int64, status team.Status, comment *string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx for status update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current string
	err = tx.GetContext(ctx, &current, `SELECT status FROM teams WHERE id = ?`, teamID)
	if err != nil {
		if isNotFound(err) {
			return false, fmt.Errorf("team %d not found", teamID)
		}
		return false, fmt.Errorf("get team status: %w", err)
	}
	changed := team.Status(current) != status

	if comment != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE teams SET status = ?, admin_comment = ? WHERE id = ?`,
			string(status), *comment, teamID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE teams SET status = ? WHERE id = ?`, string(status), teamID)
	}
	if err != nil {
		return false, fmt.Errorf("update team status: %w", err)
	}

	if changed {
		day := r.Now().Format(stats.DayKey)
		switch status {
		case team.StatusApproved:
			err = bumpStat(ctx, tx, day, "approved")
		case team.StatusRejected:
			err = bumpStat(ctx, tx, day, "rejected")
		}
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit status update tx: %w", err)
	}
	return changed, nil
}

func (r *TeamRepository) Register(ctx context.Context, teamID, tournamentID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for team register: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE teams SET status = ?, tournament_id = ? WHERE id = ?`,
		string(team.StatusPending), tournamentID, teamID)
	if err != nil {
		return fmt.Errorf("register team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("team %d not found", teamID)
	}

	if err := bumpStat(ctx, tx, r.Now().Format(stats.DayKey), "registrations"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team register tx: %w", err)
	}
	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, teamID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for team delete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE team_id = ?`, teamID); err != nil {
		return fmt.Errorf("delete team players: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, teamID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit team delete tx: %w", err)
	}
	return nil
}

func (r *TeamRepository) getTeam(ctx context.Context, query string, arg any) (team.Team, bool, error) {
	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}
	players, err := r.teamPlayers(ctx, row.ID)
	if err != nil {
		return team.Team{}, false, err
	}
	return row.toDomain(players), true, nil
}

func (r *TeamRepository) teamPlayers(ctx context.Context, teamID int64) ([]team.Player, error) {
	var rows []playerTableModel
	err := r.db.SelectContext(ctx, &rows, `
SELECT id, team_id, nickname, telegram_handle, telegram_id, discord_handle, discord_id, is_captain, subscription
FROM players
WHERE team_id = ?
ORDER BY is_captain DESC, id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team players: %w", err)
	}

	players := make([]team.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.toDomain())
	}
	return players, nil
}

// updatePlayer wraps a single-field player update with the uniqueness
// pre-checks and the team status reset in one transaction. Zero fields of
// check are skipped.
func (r *TeamRepository) updatePlayer(ctx context.Context, playerID int64, reset bool, check team.Player, query string, args ...any) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for player update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var teamID int64
	err = tx.GetContext(ctx, &teamID, `SELECT team_id FROM players WHERE id = ?`, playerID)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("player %d not found", playerID)
		}
		return fmt.Errorf("get player team: %w", err)
	}

	if err := r.checkRosterUnique(ctx, tx, teamID, playerID, check); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	if err := resetTeam(ctx, tx, teamID, reset); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit player update tx: %w", err)
	}
	return nil
}

// checkRosterUnique verifies the non-empty identity fields of p against the
// rest of the roster, excluding excludePlayerID.
func (r *TeamRepository) checkRosterUnique(ctx context.Context, tx *sqlx.Tx, teamID, excludePlayerID int64, p team.Player) error {
	type uniqueCheck struct {
		column string
		value  string
		errKind error
	}
	checks := []uniqueCheck{
		{"nickname", p.Nickname, team.ErrNicknameTaken},
		{"telegram_handle", p.TelegramHandle, team.ErrTelegramTaken},
		{"discord_handle", p.DiscordHandle, team.ErrDiscordTaken},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		var exists int
		err := tx.GetContext(ctx, &exists, fmt.Sprintf(`
SELECT 1 FROM players
WHERE team_id = ? AND id != ? AND LOWER(%s) = LOWER(?)
LIMIT 1`, c.column), teamID, excludePlayerID, c.value)
		if err == nil {
			return fmt.Errorf("%w: %q", c.errKind, c.value)
		}
		if !isNotFound(err) {
			return fmt.Errorf("check %s uniqueness: %w", c.column, err)
		}
	}
	return nil
}

// checkPlayerElsewhere enforces one team per telegram account.
func (r *TeamRepository) checkPlayerElsewhere(ctx context.Context, tx *sqlx.Tx, teamID, telegramID int64) error {
	if telegramID == 0 {
		return nil
	}
	var otherTeam string
	err := tx.GetContext(ctx, &otherTeam, `
SELECT t.name FROM players p
JOIN teams t ON t.id = p.team_id
WHERE p.telegram_id = ? AND p.team_id != ?
LIMIT 1`, telegramID, teamID)
	if err == nil {
		return fmt.Errorf("%w: team %q", team.ErrPlayerElsewhere, otherTeam)
	}
	if !isNotFound(err) {
		return fmt.Errorf("check player membership: %w", err)
	}
	return nil
}

func (r *TeamRepository) nameTaken(ctx context.Context, tx *sqlx.Tx, name string, excludeTeamID int64) (bool, error) {
	var exists int
	err := tx.GetContext(ctx, &exists, `
SELECT 1 FROM teams
WHERE LOWER(name) = LOWER(?) AND id != ?
LIMIT 1`, name, excludeTeamID)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("check team name uniqueness: %w", err)
}

func insertPlayer(ctx context.Context, tx *sqlx.Tx, p team.Player) (int64, error) {
	res, err := tx.ExecContext(ctx, `
INSERT INTO players (team_id, nickname, telegram_handle, telegram_id, discord_handle, discord_id, is_captain, subscription)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TeamID, p.Nickname, p.TelegramHandle, p.TelegramID,
		p.DiscordHandle, p.DiscordID, p.IsCaptain, string(p.Subscription))
	if err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("player insert id: %w", err)
	}
	return id, nil
}

func resetTeam(ctx context.Context, tx *sqlx.Tx, teamID int64, reset bool) error {
	if !reset {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE teams SET status = ? WHERE id = ?`, string(team.StatusDraft), teamID)
	if err != nil {
		return fmt.Errorf("reset team status: %w", err)
	}
	return nil
}

// bumpStat increments one daily counter, creating the row on first use. The
// column name comes from a fixed set, never from input.
func bumpStat(ctx context.Context, tx *sqlx.Tx, day, column string) error {
	query := fmt.Sprintf(`
INSERT INTO daily_stats (day, %s) VALUES (?, 1)
ON CONFLICT (day) DO UPDATE SET %s = %s + 1`, column, column, column)
	if _, err := tx.ExecContext(ctx, query, day); err != nil {
		return fmt.Errorf("bump %s counter: %w", column, err)
	}
	return nil
}
