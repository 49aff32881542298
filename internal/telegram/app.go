package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ruprime/tournament-bot/internal/platform/logging"
	"github.com/ruprime/tournament-bot/internal/usecase"
)

// Deps are the services and optional verifiers the bot talks to. Nil
// verifiers disable the corresponding wizard check.
type Deps struct {
	Registration *usecase.RegistrationService
	Review       *usecase.ReviewService
	Tournaments  *usecase.TournamentService
	Nicknames    usecase.NicknameVerifier
	Members      usecase.MemberDirectory
	Resolver     usecase.TelegramResolver
	Subscription usecase.SubscriptionChecker
	Logger       *logging.Logger
}

type App struct {
	bot          *tgbotapi.BotAPI
	registration *usecase.RegistrationService
	review       *usecase.ReviewService
	tournaments  *usecase.TournamentService
	nicknames    usecase.NicknameVerifier
	members      usecase.MemberDirectory
	resolver     usecase.TelegramResolver
	subscription usecase.SubscriptionChecker
	logger       *logging.Logger

	// in-memory wizard state per user; the update loop is sequential so no
	// locking is needed
	state map[int64]userState
}

type userState struct {
	Flow string
	Step int
	Data map[string]string
}

func New(token string, deps Deps) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &App{
		bot:          bot,
		registration: deps.Registration,
		review:       deps.Review,
		tournaments:  deps.Tournaments,
		nicknames:    deps.Nicknames,
		members:      deps.Members,
		resolver:     deps.Resolver,
		subscription: deps.Subscription,
		logger:       logger,
		state:        map[int64]userState{},
	}, nil
}

// Bot exposes the underlying API client for adapters that need it, like the
// channel subscription checker.
func (a *App) Bot() *tgbotapi.BotAPI {
	return a.bot
}

// SetSubscriptionChecker wires the channel checker after construction. The
// checker needs the bot API instance, which only exists once New returned.
func (a *App) SetSubscriptionChecker(c usecase.SubscriptionChecker) {
	a.subscription = c
}

func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)
	a.logger.Info("telegram update loop started", "bot", a.bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				if err := a.handleMessage(ctx, upd.Message); err != nil {
					a.logger.ErrorContext(ctx, "handle message", "user_id", upd.Message.From.ID, "error", err)
				}
			} else if upd.CallbackQuery != nil {
				if err := a.handleCallback(ctx, upd.CallbackQuery); err != nil {
					a.logger.ErrorContext(ctx, "handle callback", "user_id", upd.CallbackQuery.From.ID, "error", err)
				}
			}
		}
	}
}

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	tgID := m.From.ID
	txt := strings.TrimSpace(m.Text)

	switch {
	case strings.HasPrefix(txt, "/start"):
		a.state[tgID] = userState{}
		return a.showStart(ctx, tgID)
	case strings.HasPrefix(txt, "/admin"):
		ok, err := a.review.IsAdmin(ctx, tgID)
		if err != nil {
			return err
		}
		if !ok {
			return a.sendText(tgID, "Доступ запрещён.")
		}
		a.state[tgID] = userState{}
		return a.showAdminMenu(tgID)
	case strings.HasPrefix(txt, "/cancel"):
		a.state[tgID] = userState{}
		return a.sendText(tgID, "Действие отменено. Нажми /start")
	}

	st := a.state[tgID]
	if st.Flow != "" {
		return a.handleFlowInput(ctx, m, txt, st)
	}

	return a.showStart(ctx, tgID)
}

func (a *App) handleFlowInput(ctx context.Context, m *tgbotapi.Message, txt string, st userState) error {
	tgID := m.From.ID
	switch st.Flow {
	case flowTeamCreate:
		return a.handleTeamCreateFlow(ctx, m, txt, st)
	case flowPlayerAdd:
		return a.handlePlayerAddFlow(ctx, tgID, txt, st)
	case flowTeamRename:
		return a.handleTeamRenameFlow(ctx, tgID, txt, st)
	case flowPlayerEdit:
		return a.handlePlayerEditFlow(ctx, tgID, txt, st)
	case flowRejectComment:
		return a.handleRejectCommentFlow(ctx, tgID, txt, st)
	case flowTournamentCreate:
		return a.handleTournamentCreateFlow(ctx, tgID, txt, st)
	case flowTournamentEdit:
		return a.handleTournamentEditFlow(ctx, tgID, txt, st)
	case flowAdminAdd:
		return a.handleAdminAddFlow(ctx, tgID, txt, st)
	case flowTeamSearch:
		return a.handleTeamSearchFlow(ctx, tgID, txt, st)
	default:
		a.state[tgID] = userState{}
		return a.sendText(tgID, "Сброс состояния. Нажми /start")
	}
}

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	tgID := q.From.ID
	data := q.Data

	cb := tgbotapi.NewCallback(q.ID, "")
	_, _ = a.bot.Request(cb)

	if strings.HasPrefix(data, "u:") {
		return a.handleUserCallback(ctx, tgID, data)
	}
	if strings.HasPrefix(data, "a:") {
		ok, err := a.review.IsAdmin(ctx, tgID)
		if err != nil {
			return err
		}
		if !ok {
			return a.sendText(tgID, "Доступ запрещён.")
		}
		return a.handleAdminCallback(ctx, tgID, data)
	}
	return nil
}

func (a *App) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) sendMarkdown(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	_, err := a.bot.Send(msg)
	return err
}

// replyError turns a use-case error into a user-facing message. Unknown
// errors are logged and answered generically.
func (a *App) replyError(tgID int64, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return a.sendText(tgID, "⚠️ "+userMessage(err))
	case errors.Is(err, usecase.ErrDuplicate):
		return a.sendText(tgID, "⚠️ Уже занято: "+userMessage(err))
	case errors.Is(err, usecase.ErrNotFound):
		return a.sendText(tgID, "Не найдено. Нажми /start")
	case errors.Is(err, usecase.ErrInvariant):
		return a.sendText(tgID, "⚠️ "+userMessage(err))
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return a.sendText(tgID, "😔 Внешний сервис временно недоступен, попробуй позже.")
	default:
		a.logger.Error("unexpected error in bot flow", "user_id", tgID, "error", err)
		return a.sendText(tgID, "Что-то пошло не так, попробуй ещё раз позже.")
	}
}

// userMessage strips the sentinel prefix, leaving the descriptive part.
func userMessage(err error) string {
	s := err.Error()
	if idx := strings.Index(s, ": "); idx >= 0 {
		return s[idx+2:]
	}
	return s
}
