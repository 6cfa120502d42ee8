package market

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rs/zerolog"

	"hercules_trading/internal/models"
)

// AlpacaProvider is the concrete Provider backed by the Alpaca APIs.
// The clients read APCA_API_KEY_ID / APCA_API_SECRET_KEY from the environment.
type AlpacaProvider struct {
	mdClient    *marketdata.Client // market data (prices)
	tradeClient *alpaca.Client     // trading API (market clock)
	log         zerolog.Logger
}

func NewAlpacaProvider(log zerolog.Logger) *AlpacaProvider {
	return &AlpacaProvider{
		mdClient:    marketdata.NewClient(marketdata.ClientOpts{}),
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{}),
		log:         log.With().Str("component", "market").Logger(),
	}
}

// Snapshot assembles the degraded-safe market view for one ticker.
// Alpaca carries no earnings calendar or sector classification, so those
// fields stay at their sentinels; the prompt tells the model to treat
// "Unknown" as unavailable.
func (a *AlpacaProvider) Snapshot(ctx context.Context, ticker string) models.Snapshot {
	snap := models.EmptySnapshot()

	trade, err := a.mdClient.GetLatestTrade(ticker, marketdata.GetLatestTradeRequest{})
	if err != nil {
		a.log.Warn().Err(err).Str("ticker", ticker).Msg("Price fetch failed")
	} else if trade != nil {
		snap.Price = fmt.Sprintf("%.2f", trade.Price)
	}

	clock, err := a.tradeClient.GetClock()
	if err != nil {
		a.log.Warn().Err(err).Msg("Clock fetch failed")
	} else {
		snap.MarketOpen = clock.IsOpen
	}

	return snap
}
