package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/ericfisherdev/pandabot/internal/application"
	"github.com/ericfisherdev/pandabot/internal/domain/port/driven"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, userID string) {
	user, firstVisit, err := b.portfolio.Greet(ctx, userID)
	if err != nil {
		// Greeting still works without first-seen tracking.
		b.logger.Warn("failed to record chat user", "user_id", userID, "error", err)
	}

	if firstVisit || err != nil || user == nil {
		b.reply(msg.Chat.ID, startMessage)
		return
	}
	b.logger.Debug("returning chat user", "user_id", userID, "first_seen", user.FirstSeen)
	b.reply(msg.Chat.ID, fmt.Sprintf(welcomeBackFormat, user.FirstSeen.UTC().Format(firstSeenLayout))+startMessage)
}

func (b *Bot) handleLogin(ctx context.Context, msg *tgbotapi.Message, userID string) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.reply(msg.Chat.ID, loginUsageMessage)
		return
	}

	// The message carries the key in clear text; remove it from the chat first.
	deleted := true
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		deleted = false
		b.logger.Warn("failed to delete login message", "user_id", userID, "error", err)
	}

	err := b.portfolio.Login(ctx, userID, args[0])
	switch {
	case err == nil:
		b.logger.Info("user logged in", "user_id", userID)
		text := loginSuccessMessage
		if !deleted {
			text += "\n\n" + deleteKeyReminder
		}
		b.reply(msg.Chat.ID, text)
	case errors.Is(err, application.ErrInvalidAPIKey):
		b.logger.Info("login rejected by upstream", "user_id", userID)
		b.reply(msg.Chat.ID, loginRejectedMessage)
	default:
		b.logger.Error("login failed", "user_id", userID, "error", err)
		b.reply(msg.Chat.ID, loginFailedMessage)
	}
}

func (b *Bot) handleLogout(ctx context.Context, msg *tgbotapi.Message, userID string) {
	if err := b.portfolio.Logout(ctx, userID); err != nil {
		b.logger.Error("logout failed", "user_id", userID, "error", err)
		b.reply(msg.Chat.ID, logoutFailedMessage)
		return
	}
	b.logger.Info("user logged out", "user_id", userID)
	b.reply(msg.Chat.ID, logoutMessage)
}

func (b *Bot) handleBalance(ctx context.Context, msg *tgbotapi.Message, userID string) {
	portfolio, err := b.portfolio.Balances(ctx, userID)
	if err != nil {
		b.reply(msg.Chat.ID, b.balanceErrorMessage(userID, err))
		return
	}
	visible := portfolio.NonZero()

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.reply(msg.Chat.ID, b.formatPortfolio(visible))
		return
	}

	symbol := strings.ToUpper(args[0])
	b.reply(msg.Chat.ID, b.formatSymbol(symbol, visible.BySymbol(symbol)))
}

// balanceErrorMessage maps a Balances failure to the text shown to the user.
func (b *Bot) balanceErrorMessage(userID string, err error) string {
	var upstreamErr *driven.UpstreamError

	switch {
	case errors.Is(err, driven.ErrCredentialNotFound):
		return notLoggedInMessage
	case errors.Is(err, driven.ErrDecryptionFailed):
		b.logger.Error("stored credential unreadable", "user_id", userID, "error", err)
		return unreadableKeyMessage
	case errors.As(err, &upstreamErr) && upstreamErr.Unauthorized():
		b.logger.Info("upstream rejected stored key", "user_id", userID, "status", upstreamErr.StatusCode)
		return keyRejectedMessage
	default:
		b.logger.Error("balance query failed", "user_id", userID, "error", err)
		return balanceFailedMessage
	}
}

func (b *Bot) handleInlineQuery(q *tgbotapi.InlineQuery) {
	if q.Query == "" {
		return
	}

	article := tgbotapi.NewInlineQueryResultArticleHTML(uuid.NewString(), "📢 Share Bitpanda Bot", b.shareMessage())
	article.Description = "Share this message to promote the bot!"

	answer := tgbotapi.InlineConfig{
		InlineQueryID: q.ID,
		Results:       []interface{}{article},
		CacheTime:     1,
	}
	if _, err := b.api.Request(answer); err != nil {
		b.logger.Error("failed to answer inline query", "error", err)
	}
}

func (b *Bot) shareMessage() string {
	return fmt.Sprintf(shareMessageFormat, b.botUsername, b.botUsername)
}
