package edit

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hercules_trading/internal/models"
)

// fieldKind drives value validation for a canonical column.
type fieldKind int

const (
	kindDecimal fieldKind = iota
	kindDate
	kindTicker
	kindStrategy
)

type field struct {
	column string
	kind   fieldKind
}

// aliases is the closed alias table. Unknown aliases are a named error, never
// a guess.
var aliases = map[string]field{
	"short":    {"short_strike", kindDecimal},
	"strike":   {"short_strike", kindDecimal},
	"long":     {"long_strike", kindDecimal},
	"premium":  {"entry_credit", kindDecimal},
	"price":    {"entry_credit", kindDecimal},
	"credit":   {"entry_credit", kindDecimal},
	"opened":   {"open_date", kindDate},
	"open":     {"open_date", kindDate},
	"expiry":   {"expiry_date", kindDate},
	"exp":      {"expiry_date", kindDate},
	"ticker":   {"ticker", kindTicker},
	"strategy": {"strategy", kindStrategy},
	"type":     {"strategy", kindStrategy},
}

// FieldUpdater is the slice of the store the editor writes through.
type FieldUpdater interface {
	UpdateField(id, owner int64, column, value string) (previous string, err error)
}

// Editor resolves aliases, validates raw values by field type, and applies the
// write. Parse failures never touch storage.
type Editor struct {
	store FieldUpdater
}

func New(store FieldUpdater) *Editor {
	return &Editor{store: store}
}

// Result carries the before/after report.
type Result struct {
	Field    string
	Previous string
	Value    string
}

// Apply edits one field on one owner-scoped position.
func (e *Editor) Apply(id, owner int64, fieldAlias, rawValue string) (Result, error) {
	f, ok := aliases[strings.ToLower(strings.TrimSpace(fieldAlias))]
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown field %q (try short, long, premium, opened, expiry, ticker, strategy)",
			models.ErrValidation, fieldAlias)
	}

	value, err := normalize(f, rawValue)
	if err != nil {
		return Result{}, err
	}

	prev, err := e.store.UpdateField(id, owner, f.column, value)
	if err != nil {
		return Result{}, err
	}

	return Result{Field: f.column, Previous: prev, Value: value}, nil
}

// normalize validates rawValue against the field's type and renders the
// canonical stored form.
func normalize(f field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch f.kind {
	case kindDecimal:
		d, err := decimal.NewFromString(strings.TrimPrefix(raw, "$"))
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a valid number for %s", models.ErrValidation, raw, f.column)
		}
		if !d.IsPositive() && f.column != "entry_credit" {
			return "", fmt.Errorf("%w: %s must be positive", models.ErrValidation, f.column)
		}
		return d.String(), nil

	case kindDate:
		// Accept both the command format and the stored format.
		for _, layout := range []string{models.InputDateLayout, models.DateLayout} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(models.DateLayout), nil
			}
		}
		return "", fmt.Errorf("%w: %q is not a valid date (use MM/DD/YYYY)", models.ErrValidation, raw)

	case kindTicker:
		upper := strings.ToUpper(raw)
		if upper == "" || len(upper) > 10 {
			return "", fmt.Errorf("%w: %q is not a valid ticker", models.ErrValidation, raw)
		}
		return upper, nil

	case kindStrategy:
		s, err := models.ParseStrategy(raw)
		if err != nil {
			return "", err
		}
		return string(s), nil
	}

	return "", fmt.Errorf("%w: unsupported field kind", models.ErrValidation)
}
