// Package telegram is the chat driving adapter: it turns Telegram updates into
// PortfolioService calls and renders the results as HTML replies.
package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/pandabot/internal/application"
)

// Sender is the subset of *tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot dispatches chat commands. Each update is an independent unit of work.
type Bot struct {
	api         Sender
	portfolio   *application.PortfolioService
	botUsername string
	logger      *slog.Logger
	text        *bluemonday.Policy
}

// NewBot creates a Bot. botUsername is used in the inline share message.
func NewBot(api Sender, portfolio *application.PortfolioService, botUsername string, logger *slog.Logger) *Bot {
	return &Bot{
		api:         api,
		portfolio:   portfolio,
		botUsername: botUsername,
		logger:      logger,
		text:        bluemonday.StrictPolicy(),
	}
}

// Run handles updates until ctx is cancelled or the channel closes, then
// waits for in-flight handlers.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate processes a single update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if v := recover(); v != nil {
			b.logger.Error("panic recovered", "panic", v, "update_id", update.UpdateID)
		}
	}()

	if update.InlineQuery != nil {
		b.handleInlineQuery(update.InlineQuery)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	userID := strconv.FormatInt(msg.From.ID, 10)

	if !msg.IsCommand() {
		b.reply(msg.Chat.ID, unknownMessage)
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg, userID)
	case "help":
		b.reply(msg.Chat.ID, helpMessage)
	case "login":
		b.handleLogin(ctx, msg, userID)
	case "logout":
		b.handleLogout(ctx, msg, userID)
	case "balance":
		b.handleBalance(ctx, msg, userID)
	default:
		b.reply(msg.Chat.ID, unknownMessage)
	}
}

// reply sends an HTML message to chatID. Send failures are logged only.
func (b *Bot) reply(chatID int64, text string) {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true

	if _, err := b.api.Send(out); err != nil {
		b.logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// clean strips markup from text that did not originate here and escapes the rest.
func (b *Bot) clean(s string) string {
	return b.text.Sanitize(s)
}
