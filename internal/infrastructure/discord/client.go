package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/ruprime/tournament-bot/internal/platform/logging"
)

// Client wraps one guild's member and role operations behind the role-sync
// and member-directory interfaces of the use cases.
type Client struct {
	session *discordgo.Session
	guildID string
	logger  *logging.Logger
}

func New(token, guildID string, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	return &Client{
		session: session,
		guildID: guildID,
		logger:  logger,
	}, nil
}

// Open connects the gateway session. Role and member REST calls work without
// it, but the connection validates the token and guild access early.
func (c *Client) Open() error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}
	c.logger.Info("connected to discord", "guild_id", c.guildID)
	return nil
}

func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) GrantRole(ctx context.Context, memberID, roleID string) error {
	err := c.session.GuildMemberRoleAdd(c.guildID, memberID, roleID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("grant role %s to member %s: %w", roleID, memberID, err)
	}
	return nil
}

func (c *Client) RevokeRole(ctx context.Context, memberID, roleID string) error {
	err := c.session.GuildMemberRoleRemove(c.guildID, memberID, roleID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("revoke role %s from member %s: %w", roleID, memberID, err)
	}
	return nil
}

// ResolveMemberID finds the guild member id for a username. The search
// endpoint matches prefixes, so the result is filtered to an exact,
// case-insensitive username match.
func (c *Client) ResolveMemberID(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return "", fmt.Errorf("discord handle is empty")
	}

	members, err := c.session.GuildMembersSearch(c.guildID, handle, 10, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("search guild members %q: %w", handle, err)
	}
	for _, m := range members {
		if m.User == nil {
			continue
		}
		if strings.EqualFold(m.User.Username, handle) {
			return m.User.ID, nil
		}
	}
	return "", nil
}

// IsMember reports whether the user belongs to the guild.
func (c *Client) IsMember(ctx context.Context, memberID string) (bool, error) {
	_, err := c.session.GuildMember(c.guildID, memberID, discordgo.WithContext(ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Message != nil &&
			restErr.Message.Code == discordgo.ErrCodeUnknownMember {
			return false, nil
		}
		return false, fmt.Errorf("get guild member %s: %w", memberID, err)
	}
	return true, nil
}
