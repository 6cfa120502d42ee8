package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hercules_trading/internal/models"
	"hercules_trading/internal/store"
)

const helpText = `🎰 *Hercules "Be the Casino" Tutorial* 🎰

/start - Re-introduces the bot and displays the main command menu.
/setmodel [model] - Toggle between Grok (best for X-search), OpenAI, and Gemini.
/scan [ticker] - Analyzes for CSP, CC, BPS, and CCS based on IV and technicals.
/sentiment [sector or TICKERS] - Sector sentiment or ticker sentiment with auto sector context.
/manage [ticker] - Checks your trades for 50-60% profit targets or Roll advice.
/manageid [id] - Manage a specific open trade by its ID.
/positions [ticker] - List open positions (optionally filtered by ticker).
/open [ticker] [type] [strike] [premium] [expiry] [long_strike] - Logs your trade (expiry: mm/dd/yyyy; long strike for spreads).
/draft - Show the screenshot draft waiting for your yes/no.
/edit [id] [field] [value] - Fix one field (short, long, premium, opened, expiry, ticker, strategy).
/close [id] [mm/dd/yyyy] - Mark a position closed (date defaults to today).

*Remember: The gold is in managing the position.*`

// HandleCommand processes one inbound command and returns the reply text.
func (b *Bot) HandleCommand(ctx context.Context, owner int64, cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}

	switch strings.ToLower(parts[0]) {
	case "/start":
		return "Welcome to *HerculesTradingBot*! 🚀\n\n" + helpText
	case "/help":
		return helpText
	case "/setmodel":
		return b.handleSetModel(owner, parts)
	case "/scan":
		return b.handleScan(ctx, owner, parts)
	case "/sentiment":
		return b.handleSentiment(ctx, owner, parts)
	case "/manage":
		return b.handleManage(ctx, owner, parts)
	case "/manageid":
		return b.handleManageID(ctx, owner, parts)
	case "/positions":
		return b.handlePositions(owner, parts)
	case "/draft":
		return b.handleDraft(owner)
	case "/open":
		return b.handleOpen(owner, parts)
	case "/edit":
		return b.handleEdit(owner, parts)
	case "/close":
		return b.handleClose(owner, parts)
	default:
		return "Unknown command. Try /open, /positions, /manage, /scan, /sentiment, /edit, /close or /help."
	}
}

func (b *Bot) handleSetModel(owner int64, parts []string) string {
	if len(parts) < 2 {
		return "Usage: /setmodel [grok|openai|gemini]"
	}
	if err := b.router.SetPreference(owner, parts[1]); err != nil {
		return errText(err)
	}
	return fmt.Sprintf("✅ Model set to %s. %s", strings.ToLower(parts[1]), providerNote)
}

func (b *Bot) handleScan(ctx context.Context, owner int64, parts []string) string {
	ticker := "SOFI"
	if len(parts) > 1 {
		ticker = strings.ToUpper(parts[1])
	}

	stop := b.tg.TypingScope(ctx, owner)
	defer stop()
	return b.reviews.Scan(ctx, owner, ticker)
}

func (b *Bot) handleSentiment(ctx context.Context, owner int64, parts []string) string {
	args := parts[1:]
	var tickers []string

	if len(args) > 0 && strings.EqualFold(args[0], "--tickers") {
		tickers = normalizeTickers(args[1:])
		if len(tickers) == 0 {
			return "Usage: /sentiment --tickers AAPL,MSFT"
		}
	} else {
		candidates := normalizeTickers(args)
		if len(candidates) > 0 && allTickerLike(candidates) {
			tickers = candidates
		}
	}

	sector := strings.Join(args, " ")
	if sector == "" {
		sector = "tech stocks"
	}

	stop := b.tg.TypingScope(ctx, owner)
	defer stop()
	return b.reviews.Sentiment(ctx, owner, tickers, sector)
}

func (b *Bot) handleManage(ctx context.Context, owner int64, parts []string) string {
	if len(parts) < 2 {
		return "Usage: /manage [ticker]"
	}
	ticker := strings.ToUpper(parts[1])

	stop := b.tg.TypingScope(ctx, owner)
	defer stop()

	msg, err := b.reviews.ManageTicker(ctx, owner, ticker)
	if err != nil {
		return errText(err)
	}
	return msg
}

func (b *Bot) handleManageID(ctx context.Context, owner int64, parts []string) string {
	if len(parts) < 2 {
		return "Usage: /manageid [id]"
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "⚠️ Trade id must be a number."
	}

	stop := b.tg.TypingScope(ctx, owner)
	defer stop()

	msg, err := b.reviews.ManageByID(ctx, owner, id)
	if err != nil {
		return errText(err)
	}
	return msg
}

func (b *Bot) handlePositions(owner int64, parts []string) string {
	ticker := ""
	if len(parts) > 1 {
		ticker = strings.ToUpper(parts[1])
	}

	positions, err := b.store.OpenPositions(owner, ticker)
	if err != nil {
		return errText(err)
	}

	suffix := ""
	if ticker != "" {
		suffix = " for " + ticker
	}
	if len(positions) == 0 {
		return fmt.Sprintf("No open positions%s.", suffix)
	}

	lines := make([]string, 0, len(positions))
	for i := range positions {
		lines = append(lines, positions[i].Line())
	}
	return fmt.Sprintf("Open positions%s:\n%s", suffix, strings.Join(lines, "\n"))
}

func (b *Bot) handleDraft(owner int64) string {
	draft, ok := b.staging.Pending(owner)
	if !ok {
		return "No draft pending. Send a trade screenshot to stage one."
	}
	return fmt.Sprintf("📋 Draft waiting:\n%s\n\nReply *yes* to save or *no* to discard.", draft.Summary())
}

func (b *Bot) handleOpen(owner int64, parts []string) string {
	args := parts[1:]
	if len(args) < 5 || len(args) > 6 {
		return fmt.Sprintf("❌ *Argument Mismatch*\nExpected: 5 arguments (6 for spreads)\nReceived: %d\n\n"+
			"Usage: `/open [TICKER] [TYPE] [STRIKE] [PREMIUM] [MM/DD/YYYY] [LONG_STRIKE]`", len(args))
	}

	strategy, err := models.ParseStrategy(args[1])
	if err != nil {
		return errText(err)
	}

	short, err := decimal.NewFromString(args[2])
	if err != nil {
		return "⚠️ Strike must be a number."
	}
	premium, err := decimal.NewFromString(args[3])
	if err != nil {
		return "⚠️ Premium must be a number."
	}
	expiry, err := time.Parse(models.InputDateLayout, args[4])
	if err != nil {
		return "❌ Date must be in MM/DD/YYYY format."
	}

	var long *decimal.Decimal
	if len(args) == 6 {
		d, err := decimal.NewFromString(args[5])
		if err != nil {
			return "⚠️ Long strike must be a number."
		}
		long = &d
	}

	id, err := b.store.Create(store.CreateParams{
		Owner:       owner,
		Ticker:      args[0],
		Strategy:    strategy,
		ShortStrike: short,
		LongStrike:  long,
		EntryCredit: premium,
		ExpiryDate:  expiry,
	})
	if err != nil {
		return errText(err)
	}

	return fmt.Sprintf("✅ Business is open! Logged %s %s expiring %s as ID %d.",
		strings.ToUpper(args[0]), strategy, args[4], id)
}

func (b *Bot) handleEdit(owner int64, parts []string) string {
	if len(parts) < 4 {
		return "Usage: /edit [id] [field] [value]"
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "⚠️ Trade id must be a number."
	}

	res, err := b.editor.Apply(id, owner, parts[2], strings.Join(parts[3:], " "))
	if err != nil {
		return errText(err)
	}
	if res.Previous == res.Value {
		return fmt.Sprintf("ℹ️ %s on ID %d is already %s — nothing changed.", res.Field, id, res.Value)
	}
	return fmt.Sprintf("✏️ Updated %s on ID %d: %s → %s", res.Field, id, res.Previous, res.Value)
}

func (b *Bot) handleClose(owner int64, parts []string) string {
	if len(parts) < 2 {
		return "Usage: /close [id] [mm/dd/yyyy]"
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "⚠️ Trade id must be a number."
	}

	closed := time.Now()
	if len(parts) > 2 {
		closed, err = time.Parse(models.InputDateLayout, parts[2])
		if err != nil {
			return "❌ Date must be in MM/DD/YYYY format."
		}
	}

	if err := b.store.ClosePosition(id, owner, closed); err != nil {
		return errText(err)
	}
	return fmt.Sprintf("🏁 Position %d closed on %s. Premium banked.", id, closed.Format(models.DateLayout))
}
