// Package notify relays rename outcomes to Telegram. Entirely optional; the
// pipeline runs fully with it disabled.
package notify

import (
	"fmt"
	"log/slog"
	"slices"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/contre95/snapshotd/src/features/config"
	"github.com/contre95/snapshotd/src/features/renaming"
)

// Telegram sends a message per noteworthy outcome and answers a small set of
// commands.
type Telegram struct {
	bot      *tgbotapi.BotAPI
	config   *config.Manager
	journal  renaming.Recorder
	updates  tgbotapi.UpdatesChannel
	stopChan chan struct{}
}

// NewTelegram creates a new Telegram notifier.
func NewTelegram(cfg *config.Manager, journal renaming.Recorder) (*Telegram, error) {
	telegramConfig := cfg.Get().Telegram

	if !telegramConfig.Enabled {
		return nil, fmt.Errorf("telegram notifications are disabled in configuration")
	}
	if telegramConfig.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured")
	}

	bot, err := tgbotapi.NewBotAPI(telegramConfig.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	slog.Info("Telegram bot initialized", "username", bot.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	return &Telegram{
		bot:      bot,
		config:   cfg,
		journal:  journal,
		updates:  bot.GetUpdatesChan(updateConfig),
		stopChan: make(chan struct{}),
	}, nil
}

// Notify implements renaming.Notifier. Renames and refused conflicts are
// relayed; filtered events stay quiet.
func (t *Telegram) Notify(result renaming.Result) {
	chatID := t.config.Get().Telegram.ChatID
	if chatID == 0 {
		return
	}

	var text string
	switch result.Outcome {
	case renaming.OutcomeRenamed:
		text = fmt.Sprintf("📸 Renamed\n`%s`\n→ `%s`", result.Path, result.NewPath)
	case renaming.OutcomeSkipped:
		text = fmt.Sprintf("⚠️ Skipped `%s`: %s", result.Path, result.Error)
	default:
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		slog.Warn("Failed to send Telegram notification", "error", err)
	}
}

// Start begins listening for Telegram commands.
func (t *Telegram) Start() {
	slog.Info("Starting Telegram bot listener")

	for {
		select {
		case update := <-t.updates:
			if update.Message != nil {
				t.handleMessage(update)
			}
		case <-t.stopChan:
			slog.Info("Stopping Telegram bot listener")
			return
		}
	}
}

// Stop gracefully stops the bot.
func (t *Telegram) Stop() {
	close(t.stopChan)
}

// handleMessage processes incoming commands from authorized users.
func (t *Telegram) handleMessage(update tgbotapi.Update) {
	message := update.Message
	chatID := message.Chat.ID

	if !t.allowed(message.From) {
		slog.Warn("Unauthorized Telegram user", "chat_id", chatID, "user", message.From.UserName)
		t.send(chatID, "❌ Access denied.")
		return
	}

	switch message.Command() {
	case "recent":
		t.handleRecent(chatID)
	case "start", "help":
		t.send(chatID, "Commands:\n/recent: last rename outcomes")
	default:
		t.send(chatID, "❓ Unknown command. Use /recent")
	}
}

// allowed checks the sender against the configured user list.
func (t *Telegram) allowed(from *tgbotapi.User) bool {
	allowedUsers := t.config.Get().Telegram.AllowedUsers
	if len(allowedUsers) == 0 {
		return false
	}
	return from != nil && slices.Contains(allowedUsers, from.UserName)
}

// handleRecent replies with the journal tail.
func (t *Telegram) handleRecent(chatID int64) {
	results := t.journal.Recent(10)
	if len(results) == 0 {
		t.send(chatID, "📋 No events recorded yet.")
		return
	}

	text := "📋 *Recent events*\n\n"
	for _, r := range results {
		text += fmt.Sprintf("`%s`: %s\n", r.Path, r.Outcome)
	}
	t.send(chatID, text)
}

func (t *Telegram) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		slog.Warn("Failed to send Telegram message", "error", err)
	}
}
