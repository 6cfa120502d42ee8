package review

import (
	"fmt"
	"strings"
	"time"

	"hercules_trading/internal/models"
)

// FrameworkContext is the system instruction sent with every AI call.
const FrameworkContext = `You are the 'Grandmaster' Trading Assistant. Your core philosophy is 'Be the Casino, Not the Gambler.'
- Mindset: Sellers collect premiums upfront for an obligation with a statistical edge.
- Analogy: A credit spread is a 'fence' for a 'dog' (the stock). We only care that the boundary isn't crossed.

The Four Core Trades:
1. Cash-Secured Puts (CSP): Getting paid to agree to buy the dip.
2. Covered Calls (CC): Collecting 'rent' on 100+ owned shares.
3. Bull Put Spreads: Selling a higher-strike put, buying a lower-strike put.
4. Call Credit Spreads: Selling a lower-strike call, buying a higher-strike call.

Criteria:
- IV Rank: Favor IV > 50th percentile.
- Timeframe: Target 30-45 DTE for optimal Theta decay.
- Management: Close at 50-60% profit. Roll only for a Net Credit.`

// BuildManagePrompt renders one position plus its market snapshot into the
// deterministic review request. Spreads get width and max-risk context.
func BuildManagePrompt(p *models.Position, snap models.Snapshot, now time.Time) string {
	var entry string
	if p.LongStrike != nil {
		entry = fmt.Sprintf(
			"Position: %s Credit Spread @ Short Strike: $%s / Long Strike: $%s (Width: $%s). "+
				"Net Premium Collected: $%s. Max Risk: $%s per spread. Expiry: %s (Opened: %s)",
			p.Strategy, p.ShortStrike.String(), p.LongStrike.String(), p.SpreadWidth().String(),
			p.EntryCredit.String(), p.MaxRisk().String(),
			p.ExpiryDate.Format(models.DateLayout), p.OpenDate.Format(models.DateLayout))
	} else {
		entry = fmt.Sprintf(
			"Position: %s @ Strike: $%s. Premium Collected: $%s. Expiry: %s (Opened: %s)",
			p.Strategy, p.ShortStrike.String(), p.EntryCredit.String(),
			p.ExpiryDate.Format(models.DateLayout), p.OpenDate.Format(models.DateLayout))
	}

	return fmt.Sprintf(
		"Manage %s. %s. Current Market Price: $%s. Next Earnings: %s. Sector: %s. Market: %s. Today: %s. "+
			"Treat 'N/A' or 'Unknown' fields as unavailable data. "+
			"Calculate current profit/loss based on decay. "+
			"Evaluate 50%% profit target and provide Net Credit Roll advice.",
		p.Ticker, entry, snap.Price, snap.NextEarnings, snap.Sector, marketState(snap.MarketOpen),
		now.Format(models.DateLayout))
}

// marketState renders the clock flag for prompts.
func marketState(open bool) string {
	if open {
		return "Open"
	}
	return "Closed"
}

// BuildScanPrompt asks for the best candidate trade on one ticker.
func BuildScanPrompt(ticker string, snap models.Snapshot) string {
	return fmt.Sprintf(
		"Analyze %s at $%s. Next Earnings: %s. Market: %s. "+
			"Identify best candidate from: CSP, CC, Bull Put Spread, or Call Credit Spread.",
		ticker, snap.Price, snap.NextEarnings, marketState(snap.MarketOpen))
}

// BuildTickerSentimentPrompt is the Grok live-search request for a ticker list.
func BuildTickerSentimentPrompt(tickers []string, sectors map[string]string) string {
	var lines []string
	seen := make(map[string]bool)
	var aggregate []string
	for _, t := range tickers {
		sector := sectors[t]
		if sector == "" {
			sector = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", t, sector))
		if !seen[sector] {
			seen[sector] = true
			aggregate = append(aggregate, sector)
		}
	}

	base := fmt.Sprintf("Tickers analyzed: %s\n\nDerived sectors:\n%s\n\nAggregate sector exposure: %s\n\n"+
		"Consider both ticker-specific sentiment and broader sector-level tailwinds/headwinds. "+
		"Describe how the tone differs by ticker/sector and note any contrarian or risk signals shaping psychology.",
		strings.Join(tickers, ", "), strings.Join(lines, "\n"), strings.Join(aggregate, ", "))

	return fmt.Sprintf(
		"STEP 1: USE THE 'x_search' TOOL to find real-time posts and retail sentiment for: %s. "+
			"STEP 2: USE THE 'web_search' TOOL to find breaking news or catalyst events. "+
			"STEP 3: Synthesize a 'Sentiment Verdict'. Summarize the dominant market mood (Bullish/Bearish/Neutral) "+
			"and provide specific COUNTER-ARGUMENTS or risks to the consensus view. Focus on market psychology. "+
			"DO NOT recommend trades. IGNORE your internal training data; respond ONLY with LIVE DATA from the tools."+
			"\n\nContext:\n%s",
		strings.Join(tickers, ", "), base)
}

// BuildSectorSentimentPrompt is the free-form sector variant.
func BuildSectorSentimentPrompt(sector string) string {
	return fmt.Sprintf(
		"STEP 1: USE THE 'x_search' TOOL to find the current 'vibe' and retail sentiment for %s. "+
			"STEP 2: USE THE 'web_search' TOOL to identify any sector-wide headwinds/tailwinds. "+
			"STEP 3: Synthesize a 'Sentiment Verdict'. Summarize the dominant market mood (Bullish/Bearish/Neutral) "+
			"and provide specific COUNTER-ARGUMENTS or risks to the consensus view. Focus on the psychological state "+
			"of the market. DO NOT recommend specific trades. IGNORE your internal training data; rely ONLY on the "+
			"search results.", sector)
}
