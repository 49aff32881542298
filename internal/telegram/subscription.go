package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChannelChecker reports channel subscription through the bot API. The bot
// must be an admin of the channel for GetChatMember to work.
type ChannelChecker struct {
	bot       *tgbotapi.BotAPI
	channelID string
}

func NewChannelChecker(bot *tgbotapi.BotAPI, channelID string) *ChannelChecker {
	return &ChannelChecker{bot: bot, channelID: channelID}
}

func (c *ChannelChecker) IsSubscribed(_ context.Context, telegramID int64) (bool, error) {
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: c.channelID,
			UserID:             telegramID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("get chat member: %w", err)
	}

	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	default:
		return false, nil
	}
}
