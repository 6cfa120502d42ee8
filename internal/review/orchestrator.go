package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hercules_trading/internal/ai"
	"hercules_trading/internal/market"
	"hercules_trading/internal/models"
	"hercules_trading/internal/router"
)

// EmptyResponseDiagnostic replaces empty AI output so the user always sees
// something actionable.
const EmptyResponseDiagnostic = "⚠️ AI returned no text (check logs for tool output)."

// PositionSource is the slice of the store the orchestrator reads from.
type PositionSource interface {
	OpenPositions(owner int64, ticker string) ([]models.Position, error)
	ByID(id, owner int64) (*models.Position, error)
}

// ProviderResolver picks a provider for an (owner, intent) pair.
type ProviderResolver interface {
	Resolve(owner int64, intent router.Intent) string
}

// Orchestrator composes a position, a market snapshot and the current date
// into a review request and formats the reply.
type Orchestrator struct {
	positions PositionSource
	market    market.Provider
	resolver  ProviderResolver
	engine    ai.Generator
	log       zerolog.Logger
	now       func() time.Time
}

func NewOrchestrator(positions PositionSource, mkt market.Provider, resolver ProviderResolver, engine ai.Generator, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		positions: positions,
		market:    mkt,
		resolver:  resolver,
		engine:    engine,
		log:       log.With().Str("component", "review").Logger(),
		now:       time.Now,
	}
}

// ReviewPosition produces the management recommendation for one position.
// It never fails: AI and market errors degrade to diagnostic text.
func (o *Orchestrator) ReviewPosition(ctx context.Context, p *models.Position) string {
	snap := o.market.Snapshot(ctx, p.Ticker)
	prompt := BuildManagePrompt(p, snap, o.now())
	provider := o.resolver.Resolve(p.Owner, router.IntentManage)

	// Management decisions are higher-stakes than scans; always reason.
	res, err := o.engine.Generate(ctx, provider, prompt, FrameworkContext, ai.ModeReasoning)
	if err != nil {
		o.log.Error().Err(err).Int64("id", p.ID).Str("ticker", p.Ticker).Msg("Review failed")
		return fmt.Sprintf("⚠️ AI Error: %v", err)
	}

	return FormatResult(res)
}

// ManageTicker reviews the owner's single open position on a ticker. With
// more than one match it never guesses: it returns the candidate listing and
// makes no AI call.
func (o *Orchestrator) ManageTicker(ctx context.Context, owner int64, ticker string) (string, error) {
	positions, err := o.positions.OpenPositions(owner, ticker)
	if err != nil {
		return "", err
	}
	if len(positions) == 0 {
		return "", fmt.Errorf("%w: no open positions for %s", models.ErrNotFound, ticker)
	}
	if len(positions) > 1 {
		lines := make([]string, 0, len(positions))
		for i := range positions {
			lines = append(lines, positions[i].Line())
		}
		return fmt.Sprintf("⚠️ Multiple open positions found for %s.\nPlease select one using /manageid <id>:\n\n%s",
			ticker, strings.Join(lines, "\n")), nil
	}

	return o.ReviewPosition(ctx, &positions[0]), nil
}

// ManageByID reviews one specific position.
func (o *Orchestrator) ManageByID(ctx context.Context, owner, id int64) (string, error) {
	p, err := o.positions.ByID(id, owner)
	if err != nil {
		return "", err
	}
	if p.Status != models.StatusOpen {
		return "", fmt.Errorf("%w: position %d is closed", models.ErrValidation, id)
	}
	return o.ReviewPosition(ctx, p), nil
}

// Scan runs the speed-mode candidate analysis for one ticker.
func (o *Orchestrator) Scan(ctx context.Context, owner int64, ticker string) string {
	snap := o.market.Snapshot(ctx, ticker)
	prompt := BuildScanPrompt(ticker, snap)
	provider := o.resolver.Resolve(owner, router.IntentScan)

	res, err := o.engine.Generate(ctx, provider, prompt, FrameworkContext, ai.ModeSpeed)
	if err != nil {
		o.log.Error().Err(err).Str("ticker", ticker).Msg("Scan failed")
		return fmt.Sprintf("⚠️ AI Error: %v", err)
	}
	return FormatResult(res)
}

// Sentiment runs the Grok live-search sentiment read, either for explicit
// tickers (with sector context from the market collaborator) or a free-form
// sector phrase.
func (o *Orchestrator) Sentiment(ctx context.Context, owner int64, tickers []string, sector string) string {
	var prompt string
	if len(tickers) > 0 {
		sectors := make(map[string]string, len(tickers))
		for _, t := range tickers {
			sectors[t] = o.market.Snapshot(ctx, t).Sector
		}
		prompt = BuildTickerSentimentPrompt(tickers, sectors)
	} else {
		prompt = BuildSectorSentimentPrompt(sector)
	}

	provider := o.resolver.Resolve(owner, router.IntentSentiment)
	res, err := o.engine.Generate(ctx, provider, prompt, FrameworkContext, ai.ModeSpeed)
	if err != nil {
		o.log.Error().Err(err).Msg("Sentiment failed")
		return fmt.Sprintf("⚠️ AI Error: %v", err)
	}
	return FormatResult(res)
}

// FormatResult substitutes the diagnostic for empty text and appends the
// deduplicated source list.
func FormatResult(res ai.Result) string {
	text := strings.TrimSpace(res.Text)
	if text == "" {
		text = EmptyResponseDiagnostic
	}

	var deduped []string
	seen := make(map[string]bool)
	for _, url := range res.Citations {
		if url != "" && !seen[url] {
			seen[url] = true
			deduped = append(deduped, url)
		}
	}
	if len(deduped) == 0 {
		return text
	}

	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\nSources:\n")
	for _, url := range deduped {
		sb.WriteString("- " + url + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
