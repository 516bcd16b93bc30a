// Package telegram adapts the conversation machine to the Telegram Bot
// API: operator text and button presses in, messages, menus, and document
// files out.
package telegram

import (
	"context"
	"fmt"
	"os"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/etpflow/etpflow/internal/conversation"
	"github.com/etpflow/etpflow/internal/observability"
)

// Bot runs the Telegram front end. It implements conversation.Sink.
type Bot struct {
	logger      *observability.Logger
	api         *tgbotapi.BotAPI
	pollTimeout int

	mu    sync.Mutex
	chats map[int64]int64
}

// NewBot connects to the Telegram Bot API with the given token.
func NewBot(logger *observability.Logger, token string, pollTimeout int) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}

	return &Bot{
		logger:      logger,
		api:         api,
		pollTimeout: pollTimeout,
		chats:       make(map[int64]int64),
	}, nil
}

// Run polls for updates and dispatches them to the machine until the
// context is cancelled. Updates are handled one at a time; the machine's
// per-session locking makes same-user bursts safe regardless.
func (b *Bot) Run(ctx context.Context, machine *conversation.Machine) error {
	b.logger.Info().Str("bot", b.api.Self.UserName).Msg("Bot is running")

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, machine, update)
		}
	}
}

// dispatch routes one update to the right machine entry point.
func (b *Bot) dispatch(ctx context.Context, machine *conversation.Machine, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		// Acknowledge the button press so the client stops its spinner.
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to answer callback query")
		}

		userID := cq.From.ID
		if cq.Message != nil {
			b.rememberChat(userID, cq.Message.Chat.ID)
		}
		machine.HandleAction(ctx, userID, cq.Data)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	userID := msg.From.ID
	b.rememberChat(userID, msg.Chat.ID)

	switch msg.Command() {
	case "start":
		machine.Start(userID)
	case "cancel":
		machine.Cancel(userID)
	case "":
		machine.HandleText(ctx, userID, msg.Text)
	default:
		b.Message(userID, "Unknown command. Send /start to begin.")
	}
}

// Message implements conversation.Sink.
func (b *Bot) Message(userID int64, text string) {
	msg := tgbotapi.NewMessage(b.chatFor(userID), text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn().Int64("user_id", userID).Err(err).Msg("Failed to send message")
	}
}

// Menu implements conversation.Sink. Each button becomes its own inline
// keyboard row so long labels stay readable.
func (b *Bot) Menu(userID int64, text string, buttons []conversation.Button) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, button := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(button.Label, button.Action),
		))
	}

	msg := tgbotapi.NewMessage(b.chatFor(userID), text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn().Int64("user_id", userID).Err(err).Msg("Failed to send menu")
	}
}

// Document implements conversation.Sink, uploading the generated file.
func (b *Bot) Document(userID int64, identifier, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("document %s: %w", identifier, err)
	}

	doc := tgbotapi.NewDocument(b.chatFor(userID), tgbotapi.FilePath(path))
	doc.Caption = "PDF for TP " + identifier
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send document %s: %w", identifier, err)
	}
	return nil
}

func (b *Bot) rememberChat(userID, chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chats[userID] = chatID
}

// chatFor maps an operator to their chat. Private chats share the user's
// ID, which covers the case where no update has been seen yet.
func (b *Bot) chatFor(userID int64) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if chatID, ok := b.chats[userID]; ok {
		return chatID
	}
	return userID
}
