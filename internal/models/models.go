package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical storage format for calendar dates.
const DateLayout = "2006-01-02"

// InputDateLayout is what users type into commands (and what screenshots show).
const InputDateLayout = "01/02/2006"

// Strategy identifies one of the four supported option-selling trades.
type Strategy string

const (
	StrategyCSP Strategy = "CSP" // Cash-Secured Put
	StrategyCC  Strategy = "CC"  // Covered Call
	StrategyBPS Strategy = "BPS" // Bull Put Spread
	StrategyCCS Strategy = "CCS" // Call Credit Spread
)

// ParseStrategy normalizes free text into the closed strategy set.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyCSP:
		return StrategyCSP, nil
	case StrategyCC:
		return StrategyCC, nil
	case StrategyBPS:
		return StrategyBPS, nil
	case StrategyCCS:
		return StrategyCCS, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q (expected CSP, CC, BPS or CCS)", ErrValidation, s)
}

// IsSpread reports whether the strategy carries a protective long leg.
func (s Strategy) IsSpread() bool {
	return s == StrategyBPS || s == StrategyCCS
}

// Label returns the human-readable strategy name used in prompts and replies.
func (s Strategy) Label() string {
	switch s {
	case StrategyCSP:
		return "Cash-Secured Put"
	case StrategyCC:
		return "Covered Call"
	case StrategyBPS:
		return "Bull Put Spread"
	case StrategyCCS:
		return "Call Credit Spread"
	}
	return string(s)
}

// Status is the position lifecycle state. Transitions are OPEN -> CLOSED only.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Position is a single option-selling position owned by one chat.
type Position struct {
	ID          int64
	Owner       int64 // Telegram chat id; every lookup is scoped by it
	Ticker      string
	Strategy    Strategy
	ShortStrike decimal.Decimal
	LongStrike  *decimal.Decimal // present iff Strategy.IsSpread()
	EntryCredit decimal.Decimal
	OpenDate    time.Time
	ExpiryDate  time.Time
	Status      Status
	ClosedDate  *time.Time // set exactly when Status becomes CLOSED
}

// SpreadWidth returns |short - long| for spreads, zero otherwise.
func (p *Position) SpreadWidth() decimal.Decimal {
	if p.LongStrike == nil {
		return decimal.Zero
	}
	return p.ShortStrike.Sub(*p.LongStrike).Abs()
}

// MaxRisk is width minus the credit collected, per spread.
func (p *Position) MaxRisk() decimal.Decimal {
	return p.SpreadWidth().Sub(p.EntryCredit)
}

// Line formats the position the way lists and disambiguation menus show it.
func (p *Position) Line() string {
	return fmt.Sprintf("• ID %d — %s %s %s exp %s entry %s",
		p.ID, p.Ticker, p.Strategy, p.ShortStrike.String(),
		p.ExpiryDate.Format(DateLayout), p.EntryCredit.String())
}

// StagedDraft is an unconfirmed, extraction-derived candidate position.
// Same shape as Position minus id/status, plus provenance.
type StagedDraft struct {
	Ticker      string
	Strategy    Strategy
	ShortStrike decimal.Decimal
	LongStrike  *decimal.Decimal
	EntryCredit decimal.Decimal
	OpenDate    time.Time
	ExpiryDate  time.Time
	Source      string // where the draft came from, e.g. "screenshot"
}

// Summary renders the draft for the confirm/discard prompt.
func (d *StagedDraft) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s @ %s", d.Ticker, d.Strategy.Label(), d.ShortStrike.String())
	if d.LongStrike != nil {
		fmt.Fprintf(&sb, " / %s", d.LongStrike.String())
	}
	fmt.Fprintf(&sb, " | credit %s | exp %s", d.EntryCredit.String(), d.ExpiryDate.Format(DateLayout))
	return sb.String()
}

// Snapshot is the degraded-safe market view fed into review prompts.
// Fields hold sentinel text ("N/A", "Unknown") when a fetch fails.
type Snapshot struct {
	Price        string
	NextEarnings string
	Sector       string
	MarketOpen   bool
}

// EmptySnapshot is what the market collaborator falls back to on total failure.
func EmptySnapshot() Snapshot {
	return Snapshot{Price: "N/A", NextEarnings: "Unknown", Sector: "Unknown"}
}
