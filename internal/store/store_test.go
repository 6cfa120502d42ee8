package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hercules_trading/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "trades.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func date(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCreateAndByID(t *testing.T) {
	s := newTestStore(t)

	open := date("2025-07-18")
	id, err := s.Create(CreateParams{
		Owner:       42,
		Ticker:      "sofi", // should be uppercased on the way in
		Strategy:    models.StrategyCSP,
		ShortStrike: d("8"),
		EntryCredit: d("0.67"),
		OpenDate:    &open,
		ExpiryDate:  date("2025-08-15"),
	})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	p, err := s.ByID(id, 42)
	require.NoError(t, err)
	assert.Equal(t, "SOFI", p.Ticker)
	assert.Equal(t, models.StrategyCSP, p.Strategy)
	assert.True(t, p.ShortStrike.Equal(d("8")))
	assert.Nil(t, p.LongStrike)
	assert.True(t, p.EntryCredit.Equal(d("0.67")))
	assert.Equal(t, "2025-07-18", p.OpenDate.Format(models.DateLayout))
	assert.Equal(t, "2025-08-15", p.ExpiryDate.Format(models.DateLayout))
	assert.Equal(t, models.StatusOpen, p.Status)
	assert.Nil(t, p.ClosedDate)
}

func TestCreateSpreadRoundTrip(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Create(CreateParams{
		Owner:       1,
		Ticker:      "HOOD",
		Strategy:    models.StrategyBPS,
		ShortStrike: d("90"),
		LongStrike:  dp("85"),
		EntryCredit: d("1.25"),
		ExpiryDate:  date("2025-09-19"),
	})
	require.NoError(t, err)

	p, err := s.ByID(id, 1)
	require.NoError(t, err)
	require.NotNil(t, p.LongStrike)
	assert.True(t, p.LongStrike.Equal(d("85")))
	assert.True(t, p.SpreadWidth().Equal(d("5")))
	assert.True(t, p.MaxRisk().Equal(d("3.75")))
}

func TestCreateValidation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"missing ticker", CreateParams{Owner: 1, Strategy: models.StrategyCSP,
			ShortStrike: d("8"), EntryCredit: d("1"), ExpiryDate: date("2025-09-19")}},
		{"unknown strategy", CreateParams{Owner: 1, Ticker: "SOFI", Strategy: "IRONCONDOR",
			ShortStrike: d("8"), EntryCredit: d("1"), ExpiryDate: date("2025-09-19")}},
		{"zero strike", CreateParams{Owner: 1, Ticker: "SOFI", Strategy: models.StrategyCSP,
			ShortStrike: d("0"), EntryCredit: d("1"), ExpiryDate: date("2025-09-19")}},
		{"spread without long leg", CreateParams{Owner: 1, Ticker: "SOFI", Strategy: models.StrategyBPS,
			ShortStrike: d("8"), EntryCredit: d("1"), ExpiryDate: date("2025-09-19")}},
		{"single leg with long strike", CreateParams{Owner: 1, Ticker: "SOFI", Strategy: models.StrategyCC,
			ShortStrike: d("8"), LongStrike: dp("7"), EntryCredit: d("1"), ExpiryDate: date("2025-09-19")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(tt.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrValidation), "want validation error, got %v", err)
		})
	}
}

func TestCreateRejectsExpiryBeforeOpen(t *testing.T) {
	s := newTestStore(t)

	open := date("2025-08-15")
	_, err := s.Create(CreateParams{
		Owner:       1,
		Ticker:      "SOFI",
		Strategy:    models.StrategyCSP,
		ShortStrike: d("8"),
		EntryCredit: d("0.67"),
		OpenDate:    &open,
		ExpiryDate:  date("2025-07-18"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
}

func TestOpenPositionsOrderingAndFilter(t *testing.T) {
	s := newTestStore(t)

	mustCreate := func(ticker string) int64 {
		id, err := s.Create(CreateParams{
			Owner: 7, Ticker: ticker, Strategy: models.StrategyCSP,
			ShortStrike: d("10"), EntryCredit: d("0.50"), ExpiryDate: date("2025-12-19"),
		})
		require.NoError(t, err)
		return id
	}

	first := mustCreate("SOFI")
	second := mustCreate("HOOD")
	third := mustCreate("SOFI")

	// Newest first, all tickers.
	all, err := s.OpenPositions(7, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third, all[0].ID)
	assert.Equal(t, second, all[1].ID)
	assert.Equal(t, first, all[2].ID)

	// Filter is case-insensitive and excludes other tickers.
	sofi, err := s.OpenPositions(7, "sofi")
	require.NoError(t, err)
	require.Len(t, sofi, 2)
	assert.Equal(t, third, sofi[0].ID)
	assert.Equal(t, first, sofi[1].ID)

	// Closed positions drop out of the listing.
	require.NoError(t, s.ClosePosition(third, 7, date("2025-08-01")))
	sofi, err = s.OpenPositions(7, "SOFI")
	require.NoError(t, err)
	require.Len(t, sofi, 1)
	assert.Equal(t, first, sofi[0].ID)
}

func TestOwnerIsolation(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Create(CreateParams{
		Owner: 100, Ticker: "SOFI", Strategy: models.StrategyCSP,
		ShortStrike: d("8"), EntryCredit: d("0.67"), ExpiryDate: date("2025-12-19"),
	})
	require.NoError(t, err)

	// Another chat asking for the same id gets NotFound, never the record.
	_, err = s.ByID(id, 200)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	others, err := s.OpenPositions(200, "")
	require.NoError(t, err)
	assert.Empty(t, others)

	err = s.ClosePosition(id, 200, date("2025-08-01"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUpdateFieldReturnsPrevious(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Create(CreateParams{
		Owner: 5, Ticker: "SOFI", Strategy: models.StrategyCSP,
		ShortStrike: d("8"), EntryCredit: d("0.67"), ExpiryDate: date("2025-12-19"),
	})
	require.NoError(t, err)

	prev, err := s.UpdateField(id, 5, "entry_credit", "0.72")
	require.NoError(t, err)
	assert.Equal(t, "0.67", prev)

	p, err := s.ByID(id, 5)
	require.NoError(t, err)
	assert.True(t, p.EntryCredit.Equal(d("0.72")))

	// Applying the same edit again reports old == new and changes nothing.
	prev, err = s.UpdateField(id, 5, "entry_credit", "0.72")
	require.NoError(t, err)
	assert.Equal(t, "0.72", prev)
}

func TestUpdateFieldRejectsUneditableColumns(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Create(CreateParams{
		Owner: 5, Ticker: "SOFI", Strategy: models.StrategyCSP,
		ShortStrike: d("8"), EntryCredit: d("0.67"), ExpiryDate: date("2025-12-19"),
	})
	require.NoError(t, err)

	for _, column := range []string{"id", "owner", "status", "closed_date", "positions; DROP TABLE positions"} {
		_, err := s.UpdateField(id, 5, column, "x")
		require.Error(t, err, "column %q must be rejected", column)
		assert.True(t, errors.Is(err, models.ErrValidation))
	}
}

func TestUpdateFieldEnforcesRowInvariants(t *testing.T) {
	s := newTestStore(t)

	open := date("2025-07-18")
	csp, err := s.Create(CreateParams{
		Owner: 5, Ticker: "SOFI", Strategy: models.StrategyCSP,
		ShortStrike: d("8"), EntryCredit: d("0.67"),
		OpenDate: &open, ExpiryDate: date("2025-08-15"),
	})
	require.NoError(t, err)

	// A long strike never fits a single-leg trade.
	_, err = s.UpdateField(csp, 5, "long_strike", "7")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	// Expiry can never move before the open date, and vice versa.
	_, err = s.UpdateField(csp, 5, "expiry_date", "2000-01-01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))
	_, err = s.UpdateField(csp, 5, "open_date", "2025-09-01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	// A single-leg trade has no long leg to carry into a spread.
	_, err = s.UpdateField(csp, 5, "strategy", "BPS")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	// Nothing above mutated the row.
	p, err := s.ByID(csp, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StrategyCSP, p.Strategy)
	assert.Nil(t, p.LongStrike)
	assert.Equal(t, "2025-08-15", p.ExpiryDate.Format(models.DateLayout))
	assert.Equal(t, "2025-07-18", p.OpenDate.Format(models.DateLayout))
}

func TestUpdateFieldStrategyTransitions(t *testing.T) {
	s := newTestStore(t)

	bps, err := s.Create(CreateParams{
		Owner: 5, Ticker: "HOOD", Strategy: models.StrategyBPS,
		ShortStrike: d("90"), LongStrike: dp("85"), EntryCredit: d("1.25"),
		ExpiryDate: date("2025-09-19"),
	})
	require.NoError(t, err)

	// Spread to spread keeps the long leg.
	prev, err := s.UpdateField(bps, 5, "strategy", "CCS")
	require.NoError(t, err)
	assert.Equal(t, "BPS", prev)
	p, err := s.ByID(bps, 5)
	require.NoError(t, err)
	require.NotNil(t, p.LongStrike)

	// The long leg can be re-struck while the trade is a spread.
	prev, err = s.UpdateField(bps, 5, "long_strike", "84")
	require.NoError(t, err)
	assert.Equal(t, "85", prev)

	// Leaving a spread drops the orphaned long leg in the same write.
	_, err = s.UpdateField(bps, 5, "strategy", "CC")
	require.NoError(t, err)
	p, err = s.ByID(bps, 5)
	require.NoError(t, err)
	assert.Equal(t, models.StrategyCC, p.Strategy)
	assert.Nil(t, p.LongStrike)
}

func TestClosePositionMonotonic(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Create(CreateParams{
		Owner: 9, Ticker: "SOFI", Strategy: models.StrategyCSP,
		ShortStrike: d("8"), EntryCredit: d("0.67"), ExpiryDate: date("2025-12-19"),
	})
	require.NoError(t, err)

	require.NoError(t, s.ClosePosition(id, 9, date("2025-08-01")))

	p, err := s.ByID(id, 9)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, p.Status)
	require.NotNil(t, p.ClosedDate)
	assert.Equal(t, "2025-08-01", p.ClosedDate.Format(models.DateLayout))

	// Second close is a validation error, not a silent overwrite.
	err = s.ClosePosition(id, 9, date("2025-08-02"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrValidation))

	// Unknown id stays NotFound.
	err = s.ClosePosition(9999, 9, date("2025-08-02"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestAllOpenSpansOwners(t *testing.T) {
	s := newTestStore(t)

	for _, owner := range []int64{1, 2, 3} {
		_, err := s.Create(CreateParams{
			Owner: owner, Ticker: "SOFI", Strategy: models.StrategyCSP,
			ShortStrike: d("8"), EntryCredit: d("0.67"), ExpiryDate: date("2025-12-19"),
		})
		require.NoError(t, err)
	}

	all, err := s.AllOpen()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trades.db")

	s1, err := New(path, zerolog.Nop())
	require.NoError(t, err)

	id, err := s1.Create(CreateParams{
		Owner: 1, Ticker: "SOFI", Strategy: models.StrategyCSP,
		ShortStrike: d("8"), EntryCredit: d("0.67"), ExpiryDate: date("2025-12-19"),
	})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Reopening replays the migration list against the recorded versions.
	s2, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	defer s2.Close()

	p, err := s2.ByID(id, 1)
	require.NoError(t, err)
	assert.Equal(t, "SOFI", p.Ticker)
}
