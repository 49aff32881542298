package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ruprime/tournament-bot/internal/domain/team"
	"github.com/ruprime/tournament-bot/internal/usecase"
)

const (
	flowTeamCreate       = "team_create"
	flowPlayerAdd        = "player_add"
	flowTeamRename       = "team_rename"
	flowPlayerEdit       = "player_edit"
	flowRejectComment    = "reject_comment"
	flowTournamentCreate = "tournament_create"
	flowTournamentEdit   = "tournament_edit"
	flowAdminAdd         = "admin_add"
	flowTeamSearch       = "team_search"
)

func (a *App) showStart(ctx context.Context, tgID int64) error {
	t, ok, err := a.registration.TeamForUser(ctx, tgID)
	if err != nil {
		return err
	}
	if !ok {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("➕ Создать команду", "u:team_create"),
			),
		)
		return a.sendMarkdown(tgID,
			"Привет! Это бот регистрации команд на турниры.\nУ тебя пока нет команды.", &kb)
	}
	return a.showTeam(ctx, tgID, t)
}

func (a *App) showTeam(_ context.Context, tgID int64, t team.Team) error {
	var b strings.Builder
	fmt.Fprintf(&b, "🏷 Команда: *%s*\nСтатус: %s\n", t.Name, statusTitle(t.Status))
	if t.AdminComment != "" {
		fmt.Fprintf(&b, "💬 Комментарий администратора: %s\n", t.AdminComment)
	}
	b.WriteString("\nСостав:\n")
	for i, p := range t.Players {
		role := ""
		if p.IsCaptain {
			role = " (капитан)"
		}
		discord := p.DiscordHandle
		if discord == "" {
			discord = "—"
		}
		fmt.Fprintf(&b, "%d. %s%s — @%s, discord: %s\n", i+1, p.Nickname, role, p.TelegramHandle, discord)
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить игрока", "u:player_add"),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Переименовать", "u:team_rename"),
		),
	}
	for _, p := range t.Players {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 "+p.Nickname, "u:player:"+strconv.FormatInt(p.ID, 10)),
		))
	}
	if t.Status == team.StatusDraft {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 Подать заявку на турнир", "u:register"),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить команду", "u:team_delete"),
	))

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return a.sendMarkdown(tgID, b.String(), &kb)
}

func statusTitle(s team.Status) string {
	switch s {
	case team.StatusDraft:
		return "📝 черновик"
	case team.StatusPending:
		return "⏳ на рассмотрении"
	case team.StatusApproved:
		return "✅ одобрена"
	case team.StatusRejected:
		return "❌ отклонена"
	default:
		return string(s)
	}
}

func (a *App) handleUserCallback(ctx context.Context, tgID int64, data string) error {
	switch data {
	case "u:team_create":
		a.state[tgID] = userState{Flow: flowTeamCreate, Step: 1, Data: map[string]string{}}
		return a.sendText(tgID, "Введи название команды (2-30 символов):")
	case "u:team":
		return a.showMyTeam(ctx, tgID)
	case "u:player_add":
		a.state[tgID] = userState{Flow: flowPlayerAdd, Step: 1, Data: map[string]string{}}
		return a.sendText(tgID, "Введи игровой никнейм нового игрока:")
	case "u:team_rename":
		a.state[tgID] = userState{Flow: flowTeamRename, Step: 1, Data: map[string]string{}}
		return a.sendText(tgID, "Введи новое название команды:")
	case "u:register":
		return a.showOpenTournaments(ctx, tgID)
	case "u:team_delete":
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Да, удалить", "u:team_delete_yes"),
				tgbotapi.NewInlineKeyboardButtonData("Отмена", "u:team"),
			),
		)
		return a.sendMarkdown(tgID, "Удалить команду вместе со всеми игроками?", &kb)
	case "u:team_delete_yes":
		return a.deleteMyTeam(ctx, tgID)
	}

	if id, ok := callbackID(data, "u:player:"); ok {
		return a.showPlayerMenu(ctx, tgID, id)
	}
	if id, ok := callbackID(data, "u:player_remove:"); ok {
		if err := a.registration.RemovePlayer(ctx, id); err != nil {
			return a.replyError(tgID, err)
		}
		return a.showMyTeam(ctx, tgID)
	}
	if id, ok := callbackID(data, "u:register_to:"); ok {
		return a.registerForTournament(ctx, tgID, id)
	}
	if rest, ok := strings.CutPrefix(data, "u:player_edit:"); ok {
		// u:player_edit:<field>:<player_id>
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 {
			return nil
		}
		playerID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil
		}
		return a.startPlayerEdit(tgID, parts[0], playerID)
	}

	return nil
}

func (a *App) showMyTeam(ctx context.Context, tgID int64) error {
	t, ok, err := a.registration.TeamForUser(ctx, tgID)
	if err != nil {
		return err
	}
	if !ok {
		return a.sendText(tgID, "У тебя нет команды. Нажми /start")
	}
	return a.showTeam(ctx, tgID, t)
}

func (a *App) showPlayerMenu(ctx context.Context, tgID int64, playerID int64) error {
	t, ok, err := a.registration.TeamForUser(ctx, tgID)
	if err != nil {
		return err
	}
	if !ok {
		return a.sendText(tgID, "У тебя нет команды. Нажми /start")
	}
	p, ok := t.Player(playerID)
	if !ok {
		return a.showTeam(ctx, tgID, t)
	}

	id := strconv.FormatInt(p.ID, 10)
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎮 Никнейм", "u:player_edit:nickname:"+id),
			tgbotapi.NewInlineKeyboardButtonData("✈️ Telegram", "u:player_edit:telegram:"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎧 Discord", "u:player_edit:discord:"+id),
		),
	}
	if !p.IsCaptain {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить игрока", "u:player_remove:"+id),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ К команде", "u:team"),
	))

	discord := p.DiscordHandle
	if discord == "" {
		discord = "—"
	}
	text := fmt.Sprintf("👤 *%s*\nTelegram: @%s\nDiscord: %s", p.Nickname, p.TelegramHandle, discord)
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return a.sendMarkdown(tgID, text, &kb)
}

func (a *App) startPlayerEdit(tgID int64, field string, playerID int64) error {
	prompts := map[string]string{
		"nickname": "Введи новый игровой никнейм:",
		"telegram": "Введи новый telegram-хэндл (без @):",
		"discord":  "Введи новый discord-хэндл:",
	}
	prompt, ok := prompts[field]
	if !ok {
		return nil
	}
	a.state[tgID] = userState{Flow: flowPlayerEdit, Step: 1, Data: map[string]string{
		"field":     field,
		"player_id": strconv.FormatInt(playerID, 10),
	}}
	return a.sendText(tgID, prompt+"\n⚠️ Изменение состава вернёт команду в черновик.")
}

// ---------- Flows ----------

func (a *App) handleTeamCreateFlow(ctx context.Context, m *tgbotapi.Message, txt string, st userState) error {
	tgID := m.From.ID
	if st.Data == nil {
		st.Data = map[string]string{}
	}

	switch st.Step {
	case 1:
		st.Data["name"] = txt
		st.Step = 2
		a.state[tgID] = st
		return a.sendText(tgID, "Введи свой игровой никнейм PUBG:")
	case 2:
		nickname, err := a.verifiedNickname(ctx, tgID, txt)
		if err != nil {
			return err
		}
		if nickname == "" {
			return nil
		}
		st.Data["nickname"] = nickname
		st.Step = 3
		a.state[tgID] = st
		return a.sendText(tgID, "Введи свой discord-хэндл на нашем сервере:")
	case 3:
		discordID, err := a.resolvedDiscord(ctx, tgID, txt)
		if err != nil {
			return err
		}
		if discordID == notOnServer {
			return nil
		}

		handle := m.From.UserName
		if handle == "" {
			a.state[tgID] = userState{}
			return a.sendText(tgID, "У тебя не задан telegram-юзернейм. Задай его в настройках Telegram и начни заново: /start")
		}

		created, err := a.registration.CreateTeam(ctx, usecase.CreateTeamInput{
			Name: st.Data["name"],
			Captain: usecase.PlayerInput{
				Nickname:       st.Data["nickname"],
				TelegramHandle: handle,
				TelegramID:     tgID,
				DiscordHandle:  strings.TrimSpace(txt),
				DiscordID:      discordID,
			},
		})
		if err != nil {
			a.state[tgID] = userState{}
			return a.replyError(tgID, err)
		}
		a.state[tgID] = userState{}
		if err := a.sendText(tgID, "✅ Команда создана!"); err != nil {
			return err
		}
		return a.showTeam(ctx, tgID, created)
	default:
		a.state[tgID] = userState{}
		return a.sendText(tgID, "Сброс. Нажми /start")
	}
}

func (a *App) handlePlayerAddFlow(ctx context.Context, tgID int64, txt string, st userState) error {
	if st.Data == nil {
		st.Data = map[string]string{}
	}

	switch st.Step {
	case 1:
		nickname, err := a.verifiedNickname(ctx, tgID, txt)
		if err != nil {
			return err
		}
		if nickname == "" {
			return nil
		}
		st.Data["nickname"] = nickname
		st.Step = 2
		a.state[tgID] = st
		return a.sendText(tgID, "Введи telegram-хэндл игрока (без @):")
	case 2:
		st.Data["telegram"] = strings.TrimPrefix(txt, "@")
		st.Step = 3
		a.state[tgID] = st
		return a.sendText(tgID, "Введи discord-хэндл игрока:")
	case 3:
		discordID, err := a.resolvedDiscord(ctx, tgID, txt)
		if err != nil {
			return err
		}
		if discordID == notOnServer {
			return nil
		}

		t, ok, err := a.registration.TeamForUser(ctx, tgID)
		if err != nil {
			return err
		}
		if !ok {
			a.state[tgID] = userState{}
			return a.sendText(tgID, "У тебя нет команды. Нажми /start")
		}

		_, err = a.registration.AddPlayer(ctx, usecase.AddPlayerInput{
			TeamID: t.ID,
			Player: usecase.PlayerInput{
				Nickname:       st.Data["nickname"],
				TelegramHandle: st.Data["telegram"],
				TelegramID:     a.resolvedTelegramID(ctx, st.Data["telegram"]),
				DiscordHandle:  strings.TrimSpace(txt),
				DiscordID:      discordID,
			},
		})
		a.state[tgID] = userState{}
		if err != nil {
			return a.replyError(tgID, err)
		}
		if err := a.sendText(tgID, "✅ Игрок добавлен."); err != nil {
			return err
		}
		return a.showMyTeam(ctx, tgID)
	default:
		a.state[tgID] = userState{}
		return a.sendText(tgID, "Сброс. Нажми /start")
	}
}

func (a *App) handleTeamRenameFlow(ctx context.Context, tgID int64, txt string, _ userState) error {
	t, ok, err := a.registration.TeamForUser(ctx, tgID)
	if err != nil {
		return err
	}
	if !ok {
		a.state[tgID] = userState{}
		return a.sendText(tgID, "У тебя нет команды. Нажми /start")
	}

	a.state[tgID] = userState{}
	if err := a.registration.RenameTeam(ctx, t.ID, txt); err != nil {
		return a.replyError(tgID, err)
	}
	if err := a.sendText(tgID, "✅ Название обновлено."); err != nil {
		return err
	}
	return a.showMyTeam(ctx, tgID)
}

func (a *App) handlePlayerEditFlow(ctx context.Context, tgID int64, txt string, st userState) error {
	playerID, err := strconv.ParseInt(st.Data["player_id"], 10, 64)
	if err != nil {
		a.state[tgID] = userState{}
		return a.sendText(tgID, "Сброс. Нажми /start")
	}

	switch st.Data["field"] {
	case "nickname":
		nickname, err := a.verifiedNickname(ctx, tgID, txt)
		if err != nil {
			return err
		}
		if nickname == "" {
			return nil
		}
		a.state[tgID] = userState{}
		if err := a.registration.EditPlayerNickname(ctx, playerID, nickname); err != nil {
			return a.replyError(tgID, err)
		}
	case "telegram":
		a.state[tgID] = userState{}
		handle := strings.TrimPrefix(strings.TrimSpace(txt), "@")
		if err := a.registration.EditPlayerTelegram(ctx, playerID, handle, a.resolvedTelegramID(ctx, handle)); err != nil {
			return a.replyError(tgID, err)
		}
	case "discord":
		discordID, err := a.resolvedDiscord(ctx, tgID, txt)
		if err != nil {
			return err
		}
		if discordID == notOnServer {
			return nil
		}
		a.state[tgID] = userState{}
		if err := a.registration.EditPlayerDiscord(ctx, playerID, txt, discordID); err != nil {
			return a.replyError(tgID, err)
		}
	default:
		a.state[tgID] = userState{}
		return a.sendText(tgID, "Сброс. Нажми /start")
	}

	if err := a.sendText(tgID, "✅ Данные обновлены."); err != nil {
		return err
	}
	return a.showMyTeam(ctx, tgID)
}

// ---------- Tournament registration ----------

func (a *App) showOpenTournaments(ctx context.Context, tgID int64) error {
	open, err := a.tournaments.ListOpen(ctx)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return a.sendText(tgID, "Сейчас нет турниров с открытой регистрацией.")
	}

	var b strings.Builder
	b.WriteString("🏆 Открытые турниры:\n\n")
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, trn := range open {
		fmt.Fprintf(&b, "*%s*\n📅 %s\n%s\nКоманд: %d\n\n", trn.Name, trn.EventDate, trn.Description, trn.TeamCount)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Подать заявку: "+trn.Name,
				"u:register_to:"+strconv.FormatInt(trn.ID, 10)),
		))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return a.sendMarkdown(tgID, b.String(), &kb)
}

func (a *App) registerForTournament(ctx context.Context, tgID, tournamentID int64) error {
	t, ok, err := a.registration.TeamForUser(ctx, tgID)
	if err != nil {
		return err
	}
	if !ok {
		return a.sendText(tgID, "У тебя нет команды. Нажми /start")
	}

	a.markSubscription(ctx, tgID, t)

	submitted, err := a.registration.RegisterForTournament(ctx, t.ID, tournamentID)
	if err != nil {
		return a.replyError(tgID, err)
	}
	if err := a.sendText(tgID, "✅ Заявка подана! Ожидай решения администраторов."); err != nil {
		return err
	}
	return a.showTeam(ctx, tgID, submitted)
}

// markSubscription records the captain's channel subscription. Best-effort:
// lookup failures only get logged.
func (a *App) markSubscription(ctx context.Context, tgID int64, t team.Team) {
	if a.subscription == nil {
		return
	}
	p, ok := t.Captain()
	if !ok || p.TelegramID != tgID {
		return
	}
	subscribed, err := a.subscription.IsSubscribed(ctx, tgID)
	if err != nil {
		a.logger.WarnContext(ctx, "subscription check failed", "user_id", tgID, "error", err)
		return
	}
	if err := a.registration.MarkSubscription(ctx, p.ID, subscribed); err != nil {
		a.logger.WarnContext(ctx, "store subscription flag", "player_id", p.ID, "error", err)
	}
}

func (a *App) deleteMyTeam(ctx context.Context, tgID int64) error {
	t, ok, err := a.registration.TeamForUser(ctx, tgID)
	if err != nil {
		return err
	}
	if !ok {
		return a.sendText(tgID, "У тебя нет команды. Нажми /start")
	}
	if err := a.registration.DeleteTeam(ctx, t.ID); err != nil {
		return a.replyError(tgID, err)
	}
	return a.sendText(tgID, "Команда удалена. Нажми /start, чтобы создать новую.")
}

// ---------- Wizard verification helpers ----------

// notOnServer marks a discord handle that was checked and rejected; the
// wizard keeps waiting for a new input.
const notOnServer = "\x00rejected"

// verifiedNickname checks the nickname against the game API and returns its
// canonical casing. Returns "" when the user has to retry; lookup outages
// fail open with the raw input.
func (a *App) verifiedNickname(ctx context.Context, tgID int64, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if err := team.ValidateNickname(raw); err != nil {
		return "", a.sendText(tgID, "⚠️ "+err.Error()+"\nВведи никнейм ещё раз:")
	}
	if a.nicknames == nil {
		return raw, nil
	}

	exists, canonical, err := a.nicknames.LookupNickname(ctx, raw)
	if err != nil {
		a.logger.WarnContext(ctx, "nickname lookup failed, accepting as is", "nickname", raw, "error", err)
		return raw, nil
	}
	if !exists {
		return "", a.sendText(tgID, "⚠️ Игрок с таким никнеймом не найден. Проверь написание и введи ещё раз:")
	}
	return canonical, nil
}

// resolvedDiscord maps a discord handle to the member id on the tournament
// server. Returns notOnServer when the user has to retry with another handle.
func (a *App) resolvedDiscord(ctx context.Context, tgID int64, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return notOnServer, a.sendText(tgID, "⚠️ Discord-хэндл не может быть пустым. Введи ещё раз:")
	}
	if a.members == nil {
		return "", nil
	}

	memberID, err := a.members.ResolveMemberID(ctx, raw)
	if err != nil {
		a.logger.WarnContext(ctx, "discord member lookup failed, accepting as is", "handle", raw, "error", err)
		return "", nil
	}
	if memberID == "" {
		return notOnServer, a.sendText(tgID,
			"⚠️ Такой пользователь не найден на нашем Discord-сервере. Сначала зайди на сервер, затем введи хэндл ещё раз:")
	}
	return memberID, nil
}

// resolvedTelegramID maps a handle to a user id when a resolver is wired in.
// The bot API itself cannot do this, so without one the id stays zero until
// the player talks to the bot.
func (a *App) resolvedTelegramID(ctx context.Context, handle string) int64 {
	if a.resolver == nil {
		return 0
	}
	id, err := a.resolver.ResolveUserID(ctx, handle)
	if err != nil {
		a.logger.WarnContext(ctx, "telegram id lookup failed", "handle", handle, "error", err)
		return 0
	}
	return id
}

func callbackID(data, prefix string) (int64, bool) {
	rest, ok := strings.CutPrefix(data, prefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
