package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hercules_trading/internal/models"
)

const positionColumns = `id, owner, ticker, strategy, short_strike, long_strike,
	entry_credit, open_date, expiry_date, status, closed_date`

// CreateParams carries everything needed to open a position. OpenDate
// defaults to today when nil.
type CreateParams struct {
	Owner       int64
	Ticker      string
	Strategy    models.Strategy
	ShortStrike decimal.Decimal
	LongStrike  *decimal.Decimal
	EntryCredit decimal.Decimal
	OpenDate    *time.Time
	ExpiryDate  time.Time
}

func (p *CreateParams) validate() error {
	p.Ticker = strings.ToUpper(strings.TrimSpace(p.Ticker))
	if p.Ticker == "" {
		return fmt.Errorf("%w: ticker is required", models.ErrValidation)
	}
	if _, err := models.ParseStrategy(string(p.Strategy)); err != nil {
		return err
	}
	if !p.ShortStrike.IsPositive() {
		return fmt.Errorf("%w: short strike must be positive", models.ErrValidation)
	}
	if p.Strategy.IsSpread() {
		if p.LongStrike == nil {
			return fmt.Errorf("%w: %s requires a long strike", models.ErrValidation, p.Strategy)
		}
		if !p.LongStrike.IsPositive() {
			return fmt.Errorf("%w: long strike must be positive", models.ErrValidation)
		}
	} else if p.LongStrike != nil {
		return fmt.Errorf("%w: %s is a single-leg trade, long strike not allowed", models.ErrValidation, p.Strategy)
	}
	return nil
}

// Create inserts a new OPEN position and returns its id.
func (s *Store) Create(p CreateParams) (int64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}

	open := time.Now()
	if p.OpenDate != nil {
		open = *p.OpenDate
	}
	open = truncateDay(open)
	expiry := truncateDay(p.ExpiryDate)

	if expiry.Before(open) {
		return 0, fmt.Errorf("%w: expiry %s is before open date %s", models.ErrValidation,
			expiry.Format(models.DateLayout), open.Format(models.DateLayout))
	}

	var long any
	if p.LongStrike != nil {
		long = p.LongStrike.String()
	}

	res, err := s.db.Exec(`INSERT INTO positions
		(owner, ticker, strategy, short_strike, long_strike, entry_credit, open_date, expiry_date, status, closed_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'OPEN', NULL)`,
		p.Owner, p.Ticker, string(p.Strategy), p.ShortStrike.String(), long,
		p.EntryCredit.String(), open.Format(models.DateLayout), expiry.Format(models.DateLayout))
	if err != nil {
		return 0, fmt.Errorf("%w: insert position: %v", models.ErrPersistence, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: read new position id: %v", models.ErrPersistence, err)
	}

	s.log.Info().Int64("id", id).Int64("owner", p.Owner).Str("ticker", p.Ticker).
		Str("strategy", string(p.Strategy)).Msg("Position opened")
	return id, nil
}

// OpenPositions lists an owner's OPEN positions, newest first, optionally
// filtered by ticker.
func (s *Store) OpenPositions(owner int64, ticker string) ([]models.Position, error) {
	var rows *sql.Rows
	var err error
	if ticker != "" {
		rows, err = s.db.Query(`SELECT `+positionColumns+` FROM positions
			WHERE owner=? AND ticker=? AND status='OPEN' ORDER BY id DESC`,
			owner, strings.ToUpper(ticker))
	} else {
		rows, err = s.db.Query(`SELECT `+positionColumns+` FROM positions
			WHERE owner=? AND status='OPEN' ORDER BY id DESC`, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query open positions: %v", models.ErrPersistence, err)
	}
	defer rows.Close()
	return scanPositions(rows)
}

// AllOpen returns every OPEN position across all owners, newest first.
// Used only by the scheduled review run.
func (s *Store) AllOpen() ([]models.Position, error) {
	rows, err := s.db.Query(`SELECT ` + positionColumns + ` FROM positions
		WHERE status='OPEN' ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query all open positions: %v", models.ErrPersistence, err)
	}
	defer rows.Close()
	return scanPositions(rows)
}

// ByID fetches one position scoped by owner. An id belonging to a different
// owner is a NotFound, never someone else's record.
func (s *Store) ByID(id, owner int64) (*models.Position, error) {
	row := s.db.QueryRow(`SELECT `+positionColumns+` FROM positions
		WHERE id=? AND owner=? LIMIT 1`, id, owner)
	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no position %d for this chat", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load position %d: %v", models.ErrPersistence, id, err)
	}
	return pos, nil
}

// editableColumns whitelists what UpdateField may touch. id/owner/status are
// never editable through this path.
var editableColumns = map[string]bool{
	"ticker":       true,
	"strategy":     true,
	"short_strike": true,
	"long_strike":  true,
	"entry_credit": true,
	"open_date":    true,
	"expiry_date":  true,
}

// UpdateField writes one column and returns the previous stored value for the
// before/after report. The candidate value is checked against the rest of the
// stored row inside the same transaction, so an edit can never leave a long
// strike on a single-leg trade or an expiry before the open date.
func (s *Store) UpdateField(id, owner int64, column, value string) (previous string, err error) {
	if !editableColumns[column] {
		return "", fmt.Errorf("%w: field %q is not editable", models.ErrValidation, column)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("%w: begin edit: %v", models.ErrPersistence, err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+positionColumns+` FROM positions WHERE id=? AND owner=? LIMIT 1`, id, owner)
	pos, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no position %d for this chat", models.ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("%w: load position %d: %v", models.ErrPersistence, id, err)
	}

	previous = storedValue(pos, column)

	clearLong, err := checkEdit(pos, column, value)
	if err != nil {
		return "", err
	}

	stmt := `UPDATE positions SET ` + column + `=? WHERE id=? AND owner=?`
	if clearLong {
		// Leaving a spread drops the long leg in the same write.
		stmt = `UPDATE positions SET ` + column + `=?, long_strike=NULL WHERE id=? AND owner=?`
	}
	if _, err := tx.Exec(stmt, value, id, owner); err != nil {
		return "", fmt.Errorf("%w: update %s: %v", models.ErrPersistence, column, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: commit edit: %v", models.ErrPersistence, err)
	}

	s.log.Info().Int64("id", id).Int64("owner", owner).Str("field", column).
		Str("old", previous).Str("new", value).Bool("long_cleared", clearLong).Msg("Position edited")
	return previous, nil
}

// storedValue renders one column of a position the way it is stored.
func storedValue(p *models.Position, column string) string {
	switch column {
	case "ticker":
		return p.Ticker
	case "strategy":
		return string(p.Strategy)
	case "short_strike":
		return p.ShortStrike.String()
	case "long_strike":
		if p.LongStrike == nil {
			return ""
		}
		return p.LongStrike.String()
	case "entry_credit":
		return p.EntryCredit.String()
	case "open_date":
		return p.OpenDate.Format(models.DateLayout)
	case "expiry_date":
		return p.ExpiryDate.Format(models.DateLayout)
	}
	return ""
}

// checkEdit validates a candidate column value against the rest of the stored
// row. The same invariants as Create hold after every edit: strategy in the
// closed set, strikes positive, long strike present iff spread, open <= expiry.
// It reports whether the write must also drop the long leg (spread to single).
func checkEdit(p *models.Position, column, value string) (clearLong bool, err error) {
	switch column {
	case "ticker":
		if strings.TrimSpace(value) == "" {
			return false, fmt.Errorf("%w: ticker is required", models.ErrValidation)
		}

	case "strategy":
		next, err := models.ParseStrategy(value)
		if err != nil {
			return false, err
		}
		if next.IsSpread() && p.LongStrike == nil {
			return false, fmt.Errorf("%w: %s requires a long strike; close this trade and log the spread with /open",
				models.ErrValidation, next)
		}
		if !next.IsSpread() && p.LongStrike != nil {
			return true, nil
		}

	case "short_strike":
		d, err := decimal.NewFromString(value)
		if err != nil || !d.IsPositive() {
			return false, fmt.Errorf("%w: short strike must be a positive number", models.ErrValidation)
		}

	case "long_strike":
		if !p.Strategy.IsSpread() {
			return false, fmt.Errorf("%w: %s is a single-leg trade, long strike not allowed", models.ErrValidation, p.Strategy)
		}
		d, err := decimal.NewFromString(value)
		if err != nil || !d.IsPositive() {
			return false, fmt.Errorf("%w: long strike must be a positive number", models.ErrValidation)
		}

	case "entry_credit":
		if _, err := decimal.NewFromString(value); err != nil {
			return false, fmt.Errorf("%w: %q is not a valid number for entry_credit", models.ErrValidation, value)
		}

	case "open_date":
		t, err := time.Parse(models.DateLayout, value)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a valid date", models.ErrValidation, value)
		}
		if p.ExpiryDate.Before(t) {
			return false, fmt.Errorf("%w: open date %s is after expiry %s", models.ErrValidation,
				value, p.ExpiryDate.Format(models.DateLayout))
		}

	case "expiry_date":
		t, err := time.Parse(models.DateLayout, value)
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a valid date", models.ErrValidation, value)
		}
		if t.Before(p.OpenDate) {
			return false, fmt.Errorf("%w: expiry %s is before open date %s", models.ErrValidation,
				value, p.OpenDate.Format(models.DateLayout))
		}
	}
	return false, nil
}

// Close transitions a position OPEN -> CLOSED, stamping closedDate. The
// transition is monotonic: closing a CLOSED position fails.
func (s *Store) ClosePosition(id, owner int64, closedDate time.Time) error {
	res, err := s.db.Exec(`UPDATE positions SET status='CLOSED', closed_date=?
		WHERE id=? AND owner=? AND status='OPEN'`,
		truncateDay(closedDate).Format(models.DateLayout), id, owner)
	if err != nil {
		return fmt.Errorf("%w: close position %d: %v", models.ErrPersistence, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: close position %d: %v", models.ErrPersistence, id, err)
	}
	if affected == 0 {
		// Distinguish "not yours / doesn't exist" from "already closed".
		if _, err := s.ByID(id, owner); err != nil {
			return err
		}
		return fmt.Errorf("%w: position %d is already closed", models.ErrValidation, id)
	}

	s.log.Info().Int64("id", id).Int64("owner", owner).Msg("Position closed")
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var p models.Position
	var strategy, shortStrike, entryCredit, openDate, expiryDate, status string
	var longStrike, closedDate sql.NullString

	if err := row.Scan(&p.ID, &p.Owner, &p.Ticker, &strategy, &shortStrike, &longStrike,
		&entryCredit, &openDate, &expiryDate, &status, &closedDate); err != nil {
		return nil, err
	}

	p.Strategy = models.Strategy(strategy)
	p.Status = models.Status(status)

	var err error
	if p.ShortStrike, err = decimal.NewFromString(shortStrike); err != nil {
		return nil, fmt.Errorf("corrupt short_strike %q: %w", shortStrike, err)
	}
	if p.EntryCredit, err = decimal.NewFromString(entryCredit); err != nil {
		return nil, fmt.Errorf("corrupt entry_credit %q: %w", entryCredit, err)
	}
	if longStrike.Valid && longStrike.String != "" {
		d, err := decimal.NewFromString(longStrike.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt long_strike %q: %w", longStrike.String, err)
		}
		p.LongStrike = &d
	}
	if p.OpenDate, err = time.Parse(models.DateLayout, openDate); err != nil {
		return nil, fmt.Errorf("corrupt open_date %q: %w", openDate, err)
	}
	if p.ExpiryDate, err = time.Parse(models.DateLayout, expiryDate); err != nil {
		return nil, fmt.Errorf("corrupt expiry_date %q: %w", expiryDate, err)
	}
	if closedDate.Valid && closedDate.String != "" {
		t, err := time.Parse(models.DateLayout, closedDate.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt closed_date %q: %w", closedDate.String, err)
		}
		p.ClosedDate = &t
	}

	return &p, nil
}

func scanPositions(rows *sql.Rows) ([]models.Position, error) {
	var out []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan position: %v", models.ErrPersistence, err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate positions: %v", models.ErrPersistence, err)
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
