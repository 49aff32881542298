package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ruprime/tournament-bot/internal/domain/team"
	"github.com/ruprime/tournament-bot/internal/domain/tournament"
	"github.com/ruprime/tournament-bot/internal/usecase"
)

func (a *App) showAdminMenu(tgID int64) error {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Заявки на рассмотрении", "a:queue"),
			tgbotapi.NewInlineKeyboardButtonData("🔎 Найти команду", "a:search"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 Турниры", "a:tournaments"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", "a:stats"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👮 Администраторы", "a:admins"),
		),
	)
	return a.sendMarkdown(tgID, "🛠 *Админ-панель*", &kb)
}

func (a *App) handleAdminCallback(ctx context.Context, tgID int64, data string) error {
	switch data {
	case "a:menu":
		return a.showAdminMenu(tgID)
	case "a:queue":
		return a.showReviewQueue(ctx, tgID)
	case "a:search":
		a.state[tgID] = userState{Flow: flowTeamSearch, Step: 1, Data: map[string]string{}}
		return a.sendText(tgID, "Введи название команды:")
	case "a:tournaments":
		return a.showTournamentsAdmin(ctx, tgID)
	case "a:trn_new":
		a.state[tgID] = userState{Flow: flowTournamentCreate, Step: 1, Data: map[string]string{}}
		return a.sendText(tgID, "Создание турнира. Введи название:")
	case "a:admins":
		return a.showAdmins(ctx, tgID)
	case "a:admin_add":
		a.state[tgID] = userState{Flow: flowAdminAdd, Step: 1, Data: map[string]string{}}
		return a.sendText(tgID, "Введи telegram id нового администратора:")
	case "a:stats":
		return a.showStats(ctx, tgID)
	}

	if id, ok := callbackID(data, "a:team:"); ok {
		return a.showTeamCard(ctx, tgID, id)
	}
	if id, ok := callbackID(data, "a:approve:"); ok {
		return a.reviewTeam(ctx, tgID, id, team.StatusApproved, usecase.KeepComment)
	}
	if id, ok := callbackID(data, "a:reject:"); ok {
		a.state[tgID] = userState{Flow: flowRejectComment, Step: 1, Data: map[string]string{
			"team_id": strconv.FormatInt(id, 10),
		}}
		return a.sendText(tgID, "Введи причину отклонения (будет показана капитану):")
	}
	if id, ok := callbackID(data, "a:trn_toggle:"); ok {
		return a.toggleTournament(ctx, tgID, id)
	}
	if id, ok := callbackID(data, "a:trn_delete:"); ok {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Да, удалить",
					"a:trn_delete_yes:"+strconv.FormatInt(id, 10)),
				tgbotapi.NewInlineKeyboardButtonData("Отмена", "a:tournaments"),
			),
		)
		return a.sendMarkdown(tgID,
			"Удалить турнир вместе со всеми поданными на него командами?", &kb)
	}
	if id, ok := callbackID(data, "a:trn_delete_yes:"); ok {
		if err := a.tournaments.Delete(ctx, id); err != nil {
			return a.replyError(tgID, err)
		}
		if err := a.sendText(tgID, "✅ Турнир удалён."); err != nil {
			return err
		}
		return a.showTournamentsAdmin(ctx, tgID)
	}
	if rest, ok := strings.CutPrefix(data, "a:trn_edit:"); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil
		}
		return a.showTournamentEditMenu(tgID, id)
	}
	if rest, ok := strings.CutPrefix(data, "a:trn_edit_field:"); ok {
		// a:trn_edit_field:<field>:<tournament_id>
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 {
			return nil
		}
		prompts := map[string]string{
			"name":        "Введи новое название турнира:",
			"description": "Введи новое описание:",
			"date":        "Введи новую дату проведения:",
		}
		prompt, ok := prompts[parts[0]]
		if !ok {
			return nil
		}
		a.state[tgID] = userState{Flow: flowTournamentEdit, Step: 1, Data: map[string]string{
			"field":         parts[0],
			"tournament_id": parts[1],
		}}
		return a.sendText(tgID, prompt)
	}
	if id, ok := callbackID(data, "a:admin_del:"); ok {
		if id == tgID {
			return a.sendText(tgID, "⚠️ Нельзя удалить самого себя.")
		}
		if err := a.review.RemoveAdmin(ctx, id); err != nil {
			return a.replyError(tgID, err)
		}
		return a.showAdmins(ctx, tgID)
	}

	return nil
}

// ---------- Review ----------

func (a *App) showReviewQueue(ctx context.Context, tgID int64) error {
	pending, err := a.review.ListTeams(ctx, team.Filter{Status: team.StatusPending})
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return a.sendText(tgID, "Заявок на рассмотрении нет.")
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, t := range pending {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s (%d игроков)", t.Name, len(t.Players)),
				"a:team:"+strconv.FormatInt(t.ID, 10)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", "a:menu"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return a.sendMarkdown(tgID, fmt.Sprintf("⏳ Заявок на рассмотрении: %d", len(pending)), &kb)
}

func (a *App) showTeamCard(ctx context.Context, tgID, teamID int64) error {
	t, err := a.registration.TeamByID(ctx, teamID)
	if err != nil {
		return a.replyError(tgID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏷 *%s*\nСтатус: %s\nКапитан: %s\n", t.Name, statusTitle(t.Status), t.CaptainContact)
	if t.AdminComment != "" {
		fmt.Fprintf(&b, "💬 Комментарий: %s\n", t.AdminComment)
	}
	b.WriteString("\nСостав:\n")
	for i, p := range t.Players {
		role := ""
		if p.IsCaptain {
			role = " (капитан)"
		}
		sub := ""
		switch p.Subscription {
		case team.SubscriptionYes:
			sub = " ✅подписан"
		case team.SubscriptionNo:
			sub = " ❌не подписан"
		}
		fmt.Fprintf(&b, "%d. %s%s — @%s, discord: %s%s\n",
			i+1, p.Nickname, role, p.TelegramHandle, orDash(p.DiscordHandle), sub)
	}

	id := strconv.FormatInt(t.ID, 10)
	var rows [][]tgbotapi.InlineKeyboardButton
	// Draft teams were never submitted, so there is nothing to judge.
	if team.ReviewAllowed(t.Status, team.StatusApproved) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", "a:approve:"+id),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", "a:reject:"+id),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ К заявкам", "a:queue"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return a.sendMarkdown(tgID, b.String(), &kb)
}

func (a *App) reviewTeam(ctx context.Context, tgID, teamID int64, status team.Status, comment *string) error {
	updated, err := a.review.SetTeamStatus(ctx, usecase.SetStatusInput{
		TeamID:  teamID,
		Status:  status,
		Comment: comment,
		ActorID: tgID,
	})
	if err != nil {
		return a.replyError(tgID, err)
	}

	a.notifyCaptain(ctx, updated)

	verdict := "✅ Команда одобрена."
	if status == team.StatusRejected {
		verdict = "❌ Команда отклонена."
	}
	if err := a.sendText(tgID, verdict); err != nil {
		return err
	}
	return a.showReviewQueue(ctx, tgID)
}

// notifyCaptain tells the captain about the review decision when their
// telegram id is known. Delivery failures only get logged.
func (a *App) notifyCaptain(ctx context.Context, t team.Team) {
	captain, ok := t.Captain()
	if !ok || captain.TelegramID == 0 {
		return
	}
	text := fmt.Sprintf("Статус твоей команды «%s» изменился: %s", t.Name, statusTitle(t.Status))
	if t.Status == team.StatusRejected && t.AdminComment != "" {
		text += "\n💬 Причина: " + t.AdminComment
	}
	if err := a.sendText(captain.TelegramID, text); err != nil {
		a.logger.WarnContext(ctx, "notify captain failed", "team_id", t.ID, "error", err)
	}
}

func (a *App) handleRejectCommentFlow(ctx context.Context, tgID int64, txt string, st userState) error {
	teamID, err := strconv.ParseInt(st.Data["team_id"], 10, 64)
	a.state[tgID] = userState{}
	if err != nil {
		return a.sendText(tgID, "Сброс. Нажми /admin")
	}
	comment := strings.TrimSpace(txt)
	return a.reviewTeam(ctx, tgID, teamID, team.StatusRejected, &comment)
}

func (a *App) handleTeamSearchFlow(ctx context.Context, tgID int64, txt string, _ userState) error {
	a.state[tgID] = userState{}
	t, err := a.review.FindTeam(ctx, txt)
	if err != nil {
		return a.replyError(tgID, err)
	}
	return a.showTeamCard(ctx, tgID, t.ID)
}

// ---------- Tournaments ----------

func (a *App) showTournamentsAdmin(ctx context.Context, tgID int64) error {
	list, err := a.tournaments.List(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("🏆 *Турниры*\n\n")
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, trn := range list {
		reg := "🔒 закрыта"
		if trn.RegistrationOpen {
			reg = "🔓 открыта"
		}
		fmt.Fprintf(&b, "*%s*\n📅 %s\nРегистрация: %s, команд: %d\n\n",
			trn.Name, trn.EventDate, reg, trn.TeamCount)

		id := strconv.FormatInt(trn.ID, 10)
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔓/🔒 "+trn.Name, "a:trn_toggle:"+id),
				tgbotapi.NewInlineKeyboardButtonData("✏️", "a:trn_edit:"+id),
				tgbotapi.NewInlineKeyboardButtonData("🗑", "a:trn_delete:"+id),
			))
	}
	if len(list) == 0 {
		b.WriteString("Турниров пока нет.\n")
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Создать турнир", "a:trn_new"),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", "a:menu"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return a.sendMarkdown(tgID, b.String(), &kb)
}

func (a *App) toggleTournament(ctx context.Context, tgID, tournamentID int64) error {
	trn, err := a.tournaments.Get(ctx, tournamentID)
	if err != nil {
		return a.replyError(tgID, err)
	}
	if trn.RegistrationOpen {
		err = a.tournaments.CloseRegistration(ctx, tournamentID)
	} else {
		err = a.tournaments.OpenRegistration(ctx, tournamentID)
	}
	if err != nil {
		return a.replyError(tgID, err)
	}
	return a.showTournamentsAdmin(ctx, tgID)
}

func (a *App) showTournamentEditMenu(tgID, tournamentID int64) error {
	id := strconv.FormatInt(tournamentID, 10)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Название", "a:trn_edit_field:name:"+id),
			tgbotapi.NewInlineKeyboardButtonData("Описание", "a:trn_edit_field:description:"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Дата", "a:trn_edit_field:date:"+id),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "a:tournaments"),
		),
	)
	return a.sendMarkdown(tgID, "Что изменить?", &kb)
}

func (a *App) handleTournamentCreateFlow(ctx context.Context, tgID int64, txt string, st userState) error {
	if st.Data == nil {
		st.Data = map[string]string{}
	}

	switch st.Step {
	case 1:
		st.Data["name"] = txt
		st.Step = 2
		a.state[tgID] = st
		return a.sendText(tgID, "Введи описание турнира (не короче 10 символов):")
	case 2:
		st.Data["description"] = txt
		st.Step = 3
		a.state[tgID] = st
		return a.sendText(tgID, "Введи дату проведения (как её увидят игроки):")
	case 3:
		a.state[tgID] = userState{}
		created, err := a.tournaments.Create(ctx, usecase.CreateTournamentInput{
			Name:        st.Data["name"],
			Description: st.Data["description"],
			EventDate:   txt,
		})
		if err != nil {
			return a.replyError(tgID, err)
		}
		if err := a.sendText(tgID, fmt.Sprintf("✅ Турнир «%s» создан, регистрация открыта.", created.Name)); err != nil {
			return err
		}
		return a.showTournamentsAdmin(ctx, tgID)
	default:
		a.state[tgID] = userState{}
		return a.sendText(tgID, "Сброс. Нажми /admin")
	}
}

func (a *App) handleTournamentEditFlow(ctx context.Context, tgID int64, txt string, st userState) error {
	tournamentID, err := strconv.ParseInt(st.Data["tournament_id"], 10, 64)
	a.state[tgID] = userState{}
	if err != nil {
		return a.sendText(tgID, "Сброс. Нажми /admin")
	}

	value := strings.TrimSpace(txt)
	var u tournament.Update
	switch st.Data["field"] {
	case "name":
		u.Name = &value
	case "description":
		u.Description = &value
	case "date":
		u.EventDate = &value
	default:
		return a.sendText(tgID, "Сброс. Нажми /admin")
	}

	if err := a.tournaments.Update(ctx, tournamentID, u); err != nil {
		return a.replyError(tgID, err)
	}
	if err := a.sendText(tgID, "✅ Турнир обновлён."); err != nil {
		return err
	}
	return a.showTournamentsAdmin(ctx, tgID)
}

// ---------- Admins and stats ----------

func (a *App) showAdmins(ctx context.Context, tgID int64) error {
	admins, err := a.review.Admins(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("👮 *Администраторы*\n\n")
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, adm := range admins {
		name := adm.DisplayName
		if name == "" {
			name = strconv.FormatInt(adm.TelegramID, 10)
		}
		fmt.Fprintf(&b, "%s (id %d)\n", name, adm.TelegramID)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+name,
				"a:admin_del:"+strconv.FormatInt(adm.TelegramID, 10)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Добавить", "a:admin_add"),
		tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", "a:menu"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return a.sendMarkdown(tgID, b.String(), &kb)
}

func (a *App) handleAdminAddFlow(ctx context.Context, tgID int64, txt string, _ userState) error {
	a.state[tgID] = userState{}
	newID, err := strconv.ParseInt(strings.TrimSpace(txt), 10, 64)
	if err != nil {
		return a.sendText(tgID, "⚠️ Нужен числовой telegram id. Нажми /admin и попробуй снова.")
	}
	if err := a.review.AddAdmin(ctx, newID, ""); err != nil {
		return a.replyError(tgID, err)
	}
	return a.showAdmins(ctx, tgID)
}

func (a *App) showStats(ctx context.Context, tgID int64) error {
	days, err := a.review.ActivityStats(ctx, 7)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("📊 *Активность за 7 дней*\n\n")
	if len(days) == 0 {
		b.WriteString("Пока пусто.\n")
	}
	for _, d := range days {
		fmt.Fprintf(&b, "`%s` — заявок: %d, одобрено: %d, отклонено: %d\n",
			d.Day, d.Registrations, d.Approved, d.Rejected)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", "a:menu"),
		),
	)
	return a.sendMarkdown(tgID, b.String(), &kb)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
