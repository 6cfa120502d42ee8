package review

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"hercules_trading/internal/models"
)

func TestBuildManagePromptSingleLeg(t *testing.T) {
	p := models.Position{
		Ticker:      "SOFI",
		Strategy:    models.StrategyCSP,
		ShortStrike: decimal.RequireFromString("8"),
		EntryCredit: decimal.RequireFromString("0.67"),
		OpenDate:    time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC),
		ExpiryDate:  time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
	}
	snap := models.Snapshot{Price: "8.42", NextEarnings: "2025-10-28", Sector: "Financial Services", MarketOpen: true}
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	prompt := BuildManagePrompt(&p, snap, now)

	assert.Contains(t, prompt, "Manage SOFI")
	assert.Contains(t, prompt, "CSP @ Strike: $8")
	assert.Contains(t, prompt, "Premium Collected: $0.67")
	assert.Contains(t, prompt, "Expiry: 2025-08-15 (Opened: 2025-07-18)")
	assert.Contains(t, prompt, "Current Market Price: $8.42")
	assert.Contains(t, prompt, "Market: Open")
	assert.Contains(t, prompt, "Today: 2025-08-01")
	assert.NotContains(t, prompt, "Max Risk")
}

func TestBuildManagePromptSpreadCarriesWidthAndRisk(t *testing.T) {
	long := decimal.RequireFromString("85")
	p := models.Position{
		Ticker:      "HOOD",
		Strategy:    models.StrategyBPS,
		ShortStrike: decimal.RequireFromString("90"),
		LongStrike:  &long,
		EntryCredit: decimal.RequireFromString("1.25"),
		OpenDate:    time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate:  time.Date(2025, 9, 19, 0, 0, 0, 0, time.UTC),
	}
	prompt := BuildManagePrompt(&p, models.EmptySnapshot(), time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC))

	assert.Contains(t, prompt, "Short Strike: $90 / Long Strike: $85 (Width: $5)")
	assert.Contains(t, prompt, "Max Risk: $3.75 per spread")
}

func TestBuildManagePromptDegradedSnapshot(t *testing.T) {
	p := models.Position{
		Ticker:      "SOFI",
		Strategy:    models.StrategyCSP,
		ShortStrike: decimal.RequireFromString("8"),
		EntryCredit: decimal.RequireFromString("0.67"),
		OpenDate:    time.Date(2025, 7, 18, 0, 0, 0, 0, time.UTC),
		ExpiryDate:  time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC),
	}
	prompt := BuildManagePrompt(&p, models.EmptySnapshot(), time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

	// A market-data outage still yields a usable prompt with sentinel fields.
	assert.Contains(t, prompt, "Current Market Price: $N/A")
	assert.Contains(t, prompt, "Next Earnings: Unknown")
	assert.Contains(t, prompt, "Sector: Unknown")
	assert.Contains(t, prompt, "Market: Closed")
	assert.Contains(t, prompt, "Treat 'N/A' or 'Unknown' fields as unavailable data")
}

func TestBuildScanPromptCarriesMarketState(t *testing.T) {
	snap := models.Snapshot{Price: "8.42", NextEarnings: "2025-10-28", Sector: "Financial Services", MarketOpen: true}
	prompt := BuildScanPrompt("SOFI", snap)

	assert.Contains(t, prompt, "Analyze SOFI at $8.42")
	assert.Contains(t, prompt, "Market: Open")

	snap.MarketOpen = false
	assert.Contains(t, BuildScanPrompt("SOFI", snap), "Market: Closed")
}

func TestBuildTickerSentimentPromptDerivesSectors(t *testing.T) {
	prompt := BuildTickerSentimentPrompt(
		[]string{"SOFI", "HOOD", "AMD"},
		map[string]string{"SOFI": "Financial Services", "HOOD": "Financial Services", "AMD": "Technology"},
	)

	assert.Contains(t, prompt, "x_search")
	assert.Contains(t, prompt, "SOFI, HOOD, AMD")
	assert.Contains(t, prompt, "- SOFI: Financial Services")
	assert.Contains(t, prompt, "- AMD: Technology")
	// Aggregate exposure lists each sector once.
	assert.Contains(t, prompt, "Aggregate sector exposure: Financial Services, Technology")
}
