package main

import (
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crashbot/internal/config"
	loginfra "crashbot/internal/infra/logger"
)

// One-shot maintenance tool: drops any registered webhook so long polling
// can take over, then prints what Telegram still has on file.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := loginfra.New(cfg.LogLevel)

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("create telegram api", "error", err)
		os.Exit(1)
	}

	deleteConfig := tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}
	if _, err := api.Request(deleteConfig); err != nil {
		logger.Error("delete webhook", "error", err)
		os.Exit(1)
	}
	logger.Info("webhook cleared")

	info, err := api.GetWebhookInfo()
	if err != nil {
		logger.Error("get webhook info", "error", err)
		os.Exit(1)
	}
	logger.Info("webhook state", "url", info.URL, "pending_updates", info.PendingUpdateCount)
}
