package team

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

// Roster limits, captain excluded.
const (
	MinPlayers = 3
	MaxPlayers = 5
)

const (
	NameMinLen = 2
	NameMaxLen = 30
)

var (
	ErrNameTaken       = errors.New("team name already taken")
	ErrNicknameTaken   = errors.New("nickname already used in this team")
	ErrTelegramTaken   = errors.New("telegram handle already used in this team")
	ErrDiscordTaken    = errors.New("discord handle already used in this team")
	ErrPlayerElsewhere = errors.New("player already belongs to another team")
	ErrCaptainRemoval  = errors.New("captain can only be removed with the whole team")
	ErrRosterFull      = errors.New("team roster is full")
)

var (
	nameRegex     = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} _.\-]*$`)
	tgHandleRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{5,32}$`)
)

// Subscription is the tri-state channel subscription flag persisted per player.
type Subscription string

const (
	SubscriptionUnknown Subscription = ""
	SubscriptionYes     Subscription = "+"
	SubscriptionNo      Subscription = "-"
)

type Player struct {
	ID             int64
	TeamID         int64
	Nickname       string
	TelegramHandle string
	// TelegramID is zero until the player interacts with the bot or a
	// resolver fills it in.
	TelegramID    int64
	DiscordHandle string
	DiscordID     string
	IsCaptain     bool
	Subscription  Subscription
}

type Team struct {
	ID             int64
	Name           string
	CaptainContact string
	Status         Status
	AdminComment   string
	// TournamentID is zero while the team has never been submitted. It is
	// retained across status resets so the next submit reuses the link.
	TournamentID int64
	CreatedAt    time.Time
	Players      []Player
}

func (t Team) Captain() (Player, bool) {
	for _, p := range t.Players {
		if p.IsCaptain {
			return p, true
		}
	}
	return Player{}, false
}

func (t Team) Player(playerID int64) (Player, bool) {
	for _, p := range t.Players {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// ReadyForTournament reports whether the roster satisfies the registration
// guards: minimum size (captain included) and a discord handle for everyone.
func (t Team) ReadyForTournament() error {
	if len(t.Players) < MinPlayers+1 {
		return fmt.Errorf("at least %d players required, captain included", MinPlayers+1)
	}
	for _, p := range t.Players {
		if p.DiscordHandle == "" {
			return fmt.Errorf("player %q has no discord handle", p.Nickname)
		}
	}
	return nil
}

func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < NameMinLen || n > NameMaxLen {
		return fmt.Errorf("team name must be %d-%d characters", NameMinLen, NameMaxLen)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("team name contains forbidden characters")
	}
	return nil
}

func ValidateTelegramHandle(handle string) error {
	if !tgHandleRegex.MatchString(handle) {
		return fmt.Errorf("telegram handle must be 5-32 latin letters, digits or underscores")
	}
	return nil
}

func ValidateNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n < 1 || n > 32 {
		return fmt.Errorf("nickname must be 1-32 characters")
	}
	return nil
}
