package vision

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hercules_trading/internal/models"
)

func TestParseDraftSingleLeg(t *testing.T) {
	draft, err := ParseDraft(`{
		"ticker": "sofi",
		"type": "CSP",
		"short_strike": 8,
		"long_strike": null,
		"price": 0.67,
		"expiry": "08/15/2025",
		"open_date": "07/18/2025"
	}`)
	require.NoError(t, err)
	require.NotNil(t, draft)

	assert.Equal(t, "SOFI", draft.Ticker)
	assert.Equal(t, models.StrategyCSP, draft.Strategy)
	assert.True(t, draft.ShortStrike.Equal(decimal.RequireFromString("8")))
	assert.Nil(t, draft.LongStrike)
	assert.True(t, draft.EntryCredit.Equal(decimal.RequireFromString("0.67")))
	assert.Equal(t, "2025-08-15", draft.ExpiryDate.Format(models.DateLayout))
	assert.Equal(t, "2025-07-18", draft.OpenDate.Format(models.DateLayout))
	assert.Equal(t, "screenshot", draft.Source)
}

func TestParseDraftSpreadInCodeFence(t *testing.T) {
	// Models wrap JSON in fences despite the mime type hint.
	draft, err := ParseDraft("```json\n" + `{
		"ticker": "HOOD",
		"type": "bps",
		"short_strike": "90",
		"long_strike": "85",
		"price": "1.25",
		"expiry": "09/19/2025",
		"open_date": "08/01/2025"
	}` + "\n```")
	require.NoError(t, err)
	require.NotNil(t, draft)

	assert.Equal(t, models.StrategyBPS, draft.Strategy)
	require.NotNil(t, draft.LongStrike)
	assert.True(t, draft.LongStrike.Equal(decimal.RequireFromString("85")))
}

func TestParseDraftUnusableInputIsNotAnError(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", "I could not read a trade from this image."},
		{"missing ticker", `{"type":"CSP","short_strike":8,"price":0.67,"expiry":"08/15/2025"}`},
		{"missing expiry", `{"ticker":"SOFI","type":"CSP","short_strike":8,"price":0.67}`},
		{"unknown strategy", `{"ticker":"SOFI","type":"STRADDLE","short_strike":8,"price":0.67,"expiry":"08/15/2025"}`},
		{"bad expiry format", `{"ticker":"SOFI","type":"CSP","short_strike":8,"price":0.67,"expiry":"2025-08-15"}`},
		{"non-numeric strike", `{"ticker":"SOFI","type":"CSP","short_strike":"n/a","price":0.67,"expiry":"08/15/2025"}`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := ParseDraft(tt.text)
			assert.NoError(t, err)
			assert.Nil(t, draft)
		})
	}
}

func TestParseDraftMissingOpenDateDefaultsToToday(t *testing.T) {
	draft, err := ParseDraft(`{"ticker":"SOFI","type":"CSP","short_strike":8,"price":0.67,"expiry":"12/19/2025"}`)
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.False(t, draft.OpenDate.IsZero())
}
