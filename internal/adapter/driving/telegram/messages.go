package telegram

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/pandabot/internal/application"
	"github.com/ericfisherdev/pandabot/internal/domain/model"
)

const startMessage = `👋 <b>Welcome to Bitpanda Portfolio Bot!</b> 📊

I help you keep an eye on your <b>Bitpanda portfolio</b> right here in Telegram.

📌 <b>Getting started:</b>
1️⃣ Log in by sending: <code>/login YOUR_BITPANDA_API_KEY</code>
2️⃣ Then try <code>/balance</code> or <code>/balance BTC</code>

Type /help at any time for the list of commands.`

const helpMessage = `🤖 <b>Bitpanda Portfolio Bot</b>

🛠 <b>Available commands:</b>
🔹 /start - Welcome message and setup instructions
🔹 <code>/login API_KEY</code> - Link your Bitpanda account (read-only key)
🔹 /balance - Show all non-empty asset and fiat wallets
🔹 <code>/balance BTC</code> - Show the balance for a single symbol
🔹 /logout - Remove your stored API key

Your key is stored encrypted and only used to read balances.`

const (
	unknownMessage       = "Sorry, I didn't understand that command. Type /help for more info."
	loginUsageMessage    = "⚠️ <b>You need to supply your API key to log in.</b>\nUsage: <code>/login YOUR_BITPANDA_API_KEY</code>"
	loginSuccessMessage  = "✅ <b>Login successful!</b>\n\nYour API key has been verified and stored encrypted."
	deleteKeyReminder    = "🚨 <b>I could not remove your login message. Please delete it now!</b>"
	loginRejectedMessage = "❌ Bitpanda rejected this API key. Please check it and try again."
	loginFailedMessage   = "❌ I couldn't verify or store your API key right now. Please try again later."
	logoutMessage        = "✅ You have been logged out. Your API key has been removed."
	logoutFailedMessage  = "❌ I couldn't remove your API key right now. Please try again."
	notLoggedInMessage   = "⚠️ You need to log in first using <code>/login YOUR_API_KEY</code>"
	unreadableKeyMessage = "⚠️ Your stored API key can no longer be read. Please log in again with <code>/login YOUR_API_KEY</code>"
	keyRejectedMessage   = "⚠️ Bitpanda rejected your stored API key. Please log in again with <code>/login YOUR_API_KEY</code>"
	balanceFailedMessage = "❌ Error fetching balances. Please try again."
)

// welcomeBackFormat prefixes the start message for returning users.
const (
	welcomeBackFormat = "Welcome back! We first met on %s.\n"
	firstSeenLayout   = "2 Jan 2006"
)

const shareMessageFormat = `🚀 <b>Check out the Bitpanda Portfolio Bot!</b> 📊

Track your <b>Bitpanda portfolio</b> directly in Telegram:
✅ View your asset and fiat balances
✅ Look up a single coin with <code>/balance BTC</code>

Try it now 👉 <a href="https://t.me/%s">chat with the bot</a>

💡 Type <code>@%s share</code> in any chat to share this!`

// formatPortfolio renders the full summary. p is expected to be zero-filtered.
func (b *Bot) formatPortfolio(p *application.Portfolio) string {
	var sb strings.Builder

	if p.NoAssets {
		sb.WriteString("No assets found in your Bitpanda account.\n")
	} else {
		sb.WriteString("📊 <b>Your Bitpanda Portfolio:</b>\n\n")
		b.writeWallets(&sb, p.Assets, formatAssetAmount)
	}

	sb.WriteString("\n")

	if p.NoFiat {
		sb.WriteString("No fiat balances found.\n")
	} else {
		sb.WriteString("💰 <b>Your Fiat Wallet Balances:</b>\n\n")
		b.writeWallets(&sb, p.Fiat, formatFiatAmount)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// formatSymbol renders the wallets matching a single symbol.
func (b *Bot) formatSymbol(symbol string, wallets []model.WalletBalance) string {
	symbol = b.clean(symbol)
	if len(wallets) == 0 {
		return fmt.Sprintf("❌ No balance found for %s.", symbol)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 <b>%s Balance:</b>\n", symbol)
	for _, w := range wallets {
		format := formatAssetAmount
		if w.Category == model.CategoryFiat {
			format = formatFiatAmount
		}
		b.writeWallet(&sb, w, format)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) writeWallets(sb *strings.Builder, wallets []model.WalletBalance, format func(model.WalletBalance) string) {
	if len(wallets) == 0 {
		sb.WriteString("All wallets are empty.\n")
		return
	}
	for _, w := range wallets {
		b.writeWallet(sb, w, format)
	}
}

func (b *Bot) writeWallet(sb *strings.Builder, w model.WalletBalance, format func(model.WalletBalance) string) {
	fmt.Fprintf(sb, "🔹 <b>%s</b> (%s): %s\n", b.clean(w.Name), b.clean(w.Symbol), b.clean(format(w)))
}

func formatAssetAmount(w model.WalletBalance) string {
	return w.Balance.String()
}

func formatFiatAmount(w model.WalletBalance) string {
	return w.Balance.StringFixed(2) + " " + w.Symbol
}
