package market

import (
	"context"

	"hercules_trading/internal/models"
)

// Provider supplies the market snapshot that goes into review prompts.
// Implementations never return an error: every field degrades independently
// to its sentinel value ("N/A"/"Unknown") so a data outage can't take down a
// review run.
type Provider interface {
	Snapshot(ctx context.Context, ticker string) models.Snapshot
}
