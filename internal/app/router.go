package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crashbot/internal/infra/telegram"
	"crashbot/internal/services/intake"
	"crashbot/internal/services/payout"
	"crashbot/internal/services/review"
	"crashbot/internal/ui"
)

// botSender adapts the telegram client to the notify fan-out.
type botSender struct {
	app *App
}

func (s botSender) SendText(chatID int64, text string) error {
	return s.app.tg.Send(tgbotapi.NewMessage(chatID, text))
}

func (s botSender) SendPhoto(chatID int64, fileID, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	return s.app.tg.Send(photo)
}

func (s botSender) SendDecisionRequest(chatID int64, text, reportID string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = telegram.BuildInlineKeyboard([][]telegram.InlineButton{{
		{Text: "✅ Onayla", Data: "approve_" + reportID},
		{Text: "❌ Reddet", Data: "reject_" + reportID},
	}})
	return s.app.tg.Send(msg)
}

func (a *App) routeUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		a.routeMessage(ctx, update.Message)
	}

	if update.CallbackQuery != nil {
		a.handleCallback(ctx, update.CallbackQuery)
	}
}

func (a *App) routeMessage(ctx context.Context, message *tgbotapi.Message) {
	if message == nil || message.From == nil {
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start":
			a.handleStart(ctx, message)
		case "cancel":
			a.handleCancel(message)
		case "bakiye":
			a.handleBalance(ctx, message)
		case "kurallar":
			a.sendText(message.Chat.ID, ui.RulesText(a.cfg.RewardAmount, a.cfg.PayoutThreshold, a.cfg.ServiceZonesText))
		case "destek":
			a.sendText(message.Chat.ID, ui.T("support_text"))
		case "odeme":
			a.handlePayout(ctx, message)
		default:
			a.sendText(message.Chat.ID, ui.T("generic_error"))
		}
		return
	}

	if message.Location != nil {
		a.sendIntakeReply(message.Chat.ID, a.intakeService.HandleLocation(
			message.From.ID,
			message.Location.Latitude,
			message.Location.Longitude,
		))
		return
	}

	if len(message.Photo) > 0 {
		// Telegram sends multiple sizes; the last is the largest.
		fileID := message.Photo[len(message.Photo)-1].FileID
		a.sendIntakeReply(message.Chat.ID, a.intakeService.HandlePhoto(message.From.ID, fileID))
		return
	}

	if a.intakeService.HasSession(message.From.ID) {
		reply, err := a.intakeService.HandleText(ctx, message.From.ID, message.Text)
		if err != nil {
			a.logger.Error("intake input", "error", err, "tg_id", message.From.ID)
			a.sendText(message.Chat.ID, ui.T("generic_error"))
			return
		}
		if reply.Kind == intake.ReplySubmitted {
			a.handleSubmitted(message, reply)
			return
		}
		a.sendIntakeReply(message.Chat.ID, reply)
		return
	}

	a.handleMenuMessage(ctx, message)
}

func (a *App) handleMenuMessage(ctx context.Context, message *tgbotapi.Message) {
	switch strings.TrimSpace(message.Text) {
	case ui.NewReportButton:
		a.handleStart(ctx, message)
	case ui.BalanceButton:
		a.handleBalance(ctx, message)
	case ui.RulesButton:
		a.sendText(message.Chat.ID, ui.RulesText(a.cfg.RewardAmount, a.cfg.PayoutThreshold, a.cfg.ServiceZonesText))
	case ui.SupportButton:
		a.sendText(message.Chat.ID, ui.T("support_text"))
	case ui.CancelButton:
		a.handleCancel(message)
	default:
		// A stray submit press after a restart still deserves an answer.
		reply, err := a.intakeService.HandleText(ctx, message.From.ID, message.Text)
		if err == nil && reply.Kind == intake.ReplySessionLost {
			a.sendText(message.Chat.ID, ui.T("generic_error"))
		}
	}
}

func (a *App) handleStart(ctx context.Context, message *tgbotapi.Message) {
	_, err := a.intakeService.Start(ctx, message.From.ID, message.From.UserName)
	if err != nil {
		if errors.Is(err, intake.ErrDailyCapReached) {
			a.sendWithKeyboard(message.Chat.ID, ui.T("daily_cap_reached"), telegram.BuildReplyKeyboard(ui.MainMenu()))
			return
		}
		a.logger.Error("start intake", "error", err, "tg_id", message.From.ID)
		a.sendText(message.Chat.ID, ui.T("generic_error"))
		return
	}

	caption := ui.WelcomeCaption(a.cfg.InitialBalance, a.cfg.RewardAmount, a.cfg.PayoutThreshold)
	keyboard := telegram.BuildLocationKeyboard(ui.ShareLocationButton)

	if a.cfg.WelcomePhotoFileID != "" {
		photo := tgbotapi.NewPhoto(message.Chat.ID, tgbotapi.FileID(a.cfg.WelcomePhotoFileID))
		photo.Caption = caption
		photo.ReplyMarkup = keyboard
		if err := a.tg.Send(photo); err != nil {
			a.logger.Warn("send welcome photo, falling back to text", "error", err, "chat_id", message.Chat.ID)
			a.sendWithKeyboard(message.Chat.ID, caption, keyboard)
		}
		return
	}

	a.sendWithKeyboard(message.Chat.ID, caption, keyboard)
}

func (a *App) handleCancel(message *tgbotapi.Message) {
	reply := a.intakeService.Cancel(message.From.ID)
	if reply.Kind == intake.ReplyNone {
		a.sendWithKeyboard(message.Chat.ID, ui.T("final_message"), telegram.BuildReplyKeyboard(ui.MainMenu()))
		return
	}
	a.sendWithKeyboard(message.Chat.ID, ui.T("report_canceled"), telegram.BuildReplyKeyboard(ui.MainMenu()))
}

func (a *App) handleBalance(ctx context.Context, message *tgbotapi.Message) {
	profile, _, err := a.ledgerService.GetOrCreate(ctx, message.From.ID, message.From.UserName)
	if err != nil {
		a.logger.Error("load balance", "error", err, "tg_id", message.From.ID)
		a.sendText(message.Chat.ID, ui.T("generic_error"))
		return
	}
	a.sendWithKeyboard(message.Chat.ID, ui.BalanceInfo(profile.Balance, a.cfg.PayoutThreshold), telegram.BuildReplyKeyboard(ui.MainMenu()))
}

func (a *App) handlePayout(ctx context.Context, message *tgbotapi.Message) {
	if !a.cfg.IsAdmin(message.From.ID) {
		a.sendText(message.Chat.ID, ui.T("payout_unauthorized"))
		return
	}

	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		a.sendText(message.Chat.ID, ui.T("payout_usage"))
		return
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		a.sendText(message.Chat.ID, ui.T("payout_usage"))
		return
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		a.sendText(message.Chat.ID, ui.T("payout_usage"))
		return
	}

	result, err := a.payoutService.Pay(ctx, message.From.ID, targetID, amount)
	if err != nil {
		var insufficient *payout.InsufficientBalanceError
		switch {
		case errors.Is(err, payout.ErrInvalidAmount):
			a.sendText(message.Chat.ID, ui.T("payout_must_be_positive"))
		case errors.Is(err, payout.ErrUserNotFound):
			a.sendText(message.Chat.ID, ui.PayoutUserNotFound(targetID))
		case errors.As(err, &insufficient):
			a.sendText(message.Chat.ID, ui.PayoutInsufficientBalance(targetID, insufficient.Current, insufficient.Requested))
		default:
			a.logger.Error("payout", "error", err, "target_id", targetID)
			a.sendText(message.Chat.ID, ui.T("generic_error"))
		}
		return
	}

	a.sendText(message.Chat.ID, ui.PayoutSuccessAdmin(targetID, result.Amount, result.NewBalance))

	notice := tgbotapi.NewMessage(targetID, ui.PayoutSuccessUser(result.Amount, result.NewBalance))
	if err := a.tg.Send(notice); err != nil {
		a.logger.Warn("payout user notification failed", "error", err, "target_id", targetID)
		a.sendText(message.Chat.ID, ui.PayoutNotificationFailed(targetID))
	}
}

func (a *App) handleSubmitted(message *tgbotapi.Message, reply intake.Reply) {
	a.sendWithKeyboard(
		message.Chat.ID,
		ui.T("report_submitted")+ui.T("final_message"),
		telegram.BuildReplyKeyboard(ui.MainMenu()),
	)

	text := ui.RenderAdminNotification(reply.Draft, message.From.UserName)
	a.notifyService.BroadcastReport(reply.Draft.PhotoFileID, text, reply.ReportID)
}

func (a *App) sendIntakeReply(chatID int64, reply intake.Reply) {
	switch reply.Kind {
	case intake.ReplyNone:
		return
	case intake.ReplyPromptLocation:
		a.sendWithKeyboard(chatID, ui.WelcomeCaption(a.cfg.InitialBalance, a.cfg.RewardAmount, a.cfg.PayoutThreshold), telegram.BuildLocationKeyboard(ui.ShareLocationButton))
	case intake.ReplyPromptPhoto:
		a.sendWithKeyboard(chatID, ui.T("location_received"), telegram.RemoveKeyboard())
	case intake.ReplyPromptDescription:
		a.sendWithKeyboard(chatID, ui.T("photo_received"), telegram.BuildOneTimeKeyboard(ui.SkipMenu()))
	case intake.ReplyDescriptionTooLong:
		a.sendText(chatID, ui.DescriptionTooLong(a.cfg.MaxDescriptionLength))
	case intake.ReplyPromptCrashTime:
		a.sendWithKeyboard(chatID, ui.T("ask_crash_time"), telegram.RemoveKeyboard())
	case intake.ReplyInvalidCrashTime:
		a.sendText(chatID, ui.T("invalid_crash_time"))
	case intake.ReplySummary:
		a.sendWithKeyboard(chatID, ui.RenderSummary(reply.Draft), telegram.BuildOneTimeKeyboard(ui.ConfirmMenu()))
	case intake.ReplyCancelled:
		a.sendWithKeyboard(chatID, ui.T("report_canceled"), telegram.BuildReplyKeyboard(ui.MainMenu()))
	case intake.ReplySessionLost:
		a.sendWithKeyboard(chatID, ui.T("generic_error"), telegram.BuildReplyKeyboard(ui.MainMenu()))
	case intake.ReplyDailyCapReached:
		a.sendWithKeyboard(chatID, ui.T("daily_cap_reached"), telegram.BuildReplyKeyboard(ui.MainMenu()))
	}
}

func (a *App) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query == nil || query.From == nil {
		return
	}

	ackText := ""
	ackAlert := false
	defer func() {
		a.answerCallback(query.ID, ackText, ackAlert)
	}()

	action, reportID, err := review.ParseAction(query.Data)
	if err != nil {
		a.logger.Warn("unparseable callback", "data", query.Data, "tg_id", query.From.ID)
		return
	}

	result, err := a.reviewService.Decide(ctx, query.From.ID, action, reportID)
	if err != nil {
		switch {
		case errors.Is(err, review.ErrUnauthorized):
			ackText, ackAlert = "Bu işlem sadece yöneticiler içindir.", true
		case errors.Is(err, review.ErrAlreadyReviewed):
			ackText, ackAlert = "Bu rapor zaten incelendi.", true
		case errors.Is(err, review.ErrReportNotFound):
			ackText, ackAlert = "Rapor bulunamadı.", true
		default:
			a.logger.Error("review decision", "error", err, "report_id", reportID, "tg_id", query.From.ID)
			ackText, ackAlert = "İşlem başarısız oldu.", true
		}
		return
	}

	ackText = "Karar kaydedildi: " + ui.StatusLabel(result.Status)

	// Stamp the verdict onto the admin's own notification message.
	if query.Message != nil {
		edited := tgbotapi.NewEditMessageText(
			query.Message.Chat.ID,
			query.Message.MessageID,
			query.Message.Text+"\n\n"+ui.RenderDecisionSuffix(result.Status, query.From.UserName),
		)
		if err := a.tg.Send(edited); err != nil {
			a.logger.Warn("edit decision message", "error", err, "report_id", reportID)
		}
	}

	a.notifyService.NotifyUser(result.SubmitterID, ui.RenderUserDecision(
		result.ReportID,
		result.Status,
		result.RewardCredited,
		result.RewardAmount,
		result.NewBalance,
	))
}

func (a *App) answerCallback(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if err := a.tg.Request(cfg); err != nil {
		a.logger.Warn("answer callback", "error", err)
	}
}

func (a *App) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if err := a.tg.Send(msg); err != nil {
		a.logger.Error("send message", "error", fmt.Errorf("chat=%d: %w", chatID, err))
	}
}

func (a *App) sendWithKeyboard(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if err := a.tg.Send(msg); err != nil {
		a.logger.Error("send message", "error", fmt.Errorf("chat=%d: %w", chatID, err))
	}
}
