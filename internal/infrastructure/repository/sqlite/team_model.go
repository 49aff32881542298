package sqlite

import (
	"time"

	"github.com/ruprime/tournament-bot/internal/domain/team"
)

type teamTableModel struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	CaptainContact string    `db:"captain_contact"`
	Status         string    `db:"status"`
	AdminComment   string    `db:"admin_comment"`
	TournamentID   int64     `db:"tournament_id"`
	CreatedAt      time.Time `db:"created_at"`
}

type playerTableModel struct {
	ID             int64  `db:"id"`
	TeamID         int64  `db:"team_id"`
	Nickname       string `db:"nickname"`
	TelegramHandle string `db:"telegram_handle"`
	TelegramID     int64  `db:"telegram_id"`
	DiscordHandle  string `db:"discord_handle"`
	DiscordID      string `db:"discord_id"`
	IsCaptain      bool   `db:"is_captain"`
	Subscription   string `db:"subscription"`
}

func (m teamTableModel) toDomain(players []team.Player) team.Team {
	return team.Team{
		ID:             m.ID,
		Name:           m.Name,
		CaptainContact: m.CaptainContact,
		Status:         team.Status(m.Status),
		AdminComment:   m.AdminComment,
		TournamentID:   m.TournamentID,
		CreatedAt:      m.CreatedAt,
		Players:        players,
	}
}

func (m playerTableModel) toDomain() team.Player {
	return team.Player{
		ID:             m.ID,
		TeamID:         m.TeamID,
		Nickname:       m.Nickname,
		TelegramHandle: m.TelegramHandle,
		TelegramID:     m.TelegramID,
		DiscordHandle:  m.DiscordHandle,
		DiscordID:      m.DiscordID,
		IsCaptain:      m.IsCaptain,
		Subscription:   team.Subscription(m.Subscription),
	}
}
