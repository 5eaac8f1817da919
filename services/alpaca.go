package services

import (
	"context"
	"fmt"
	"time"

	"market-screener/models"
	"market-screener/observability"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// AlpacaQuoteSource supplies quotes and daily historical series from the
// Alpaca market data API. It implements HistoricalQuoteSource; credentials
// are injected at construction and scoped to the instance.
type AlpacaQuoteSource struct {
	dataClient *marketdata.Client
}

// NewAlpacaQuoteSource creates a new AlpacaQuoteSource with the given
// credentials. baseURL overrides the market data endpoint; empty uses the
// client default.
func NewAlpacaQuoteSource(apiKey, apiSecret, baseURL string) *AlpacaQuoteSource {
	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})

	return &AlpacaQuoteSource{dataClient: dataClient}
}

// FetchQuote returns the latest quote for a symbol built from the Alpaca
// snapshot: latest trade price, daily bar OHLC and volume, and the previous
// daily bar close. Returns ErrNoData when the snapshot is empty.
func (s *AlpacaQuoteSource) FetchQuote(ctx context.Context, symbol string) (*models.RawQuote, error) {
	metrics := observability.GetMetrics()
	metrics.RecordProviderRequest("get_snapshot")
	timer := metrics.NewTimer()
	defer timer.ObserveProvider("get_snapshot")

	snap, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() (*marketdata.Snapshot, error) {
		var snap *marketdata.Snapshot
		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			var err error
			snap, err = s.dataClient.GetSnapshot(symbol, marketdata.GetSnapshotRequest{})
			return err
		})
		return snap, err
	})
	if err != nil {
		metrics.RecordProviderError("get_snapshot", "request_failed")
		return nil, fmt.Errorf("failed to get snapshot for %s: %w", symbol, err)
	}
	if snap == nil || snap.DailyBar == nil {
		metrics.RecordProviderError("get_snapshot", "no_data")
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	quote := &models.RawQuote{
		Symbol:    symbol,
		Open:      decimal.NewFromFloat(snap.DailyBar.Open),
		High:      decimal.NewFromFloat(snap.DailyBar.High),
		Low:       decimal.NewFromFloat(snap.DailyBar.Low),
		Currency:  "USD",
		IsEquity:  true,
		Timestamp: snap.DailyBar.Timestamp,
	}

	// Prefer the latest trade over the daily bar close for the current price
	if snap.LatestTrade != nil && snap.LatestTrade.Price > 0 {
		quote.Price = decimal.NewFromFloat(snap.LatestTrade.Price)
		quote.Timestamp = snap.LatestTrade.Timestamp
	} else {
		quote.Price = decimal.NewFromFloat(snap.DailyBar.Close)
	}

	if snap.PrevDailyBar != nil {
		quote.PrevClose = decimal.NewFromFloat(snap.PrevDailyBar.Close)
	}

	if snap.DailyBar.Volume > 0 {
		vol := int64(snap.DailyBar.Volume)
		quote.Volume = &vol
	}

	return quote, nil
}

// FetchHistory returns the daily close/volume series for the last lookbackDays
// calendar days, oldest first. Returns ErrHistoryUnavailable when Alpaca has
// no bars for the symbol.
func (s *AlpacaQuoteSource) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (*models.HistoricalSeries, error) {
	metrics := observability.GetMetrics()
	metrics.RecordProviderRequest("get_bars")
	timer := metrics.NewTimer()
	defer timer.ObserveProvider("get_bars")

	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)

	bars, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() ([]marketdata.Bar, error) {
		var bars []marketdata.Bar
		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			var err error
			bars, err = s.dataClient.GetBars(symbol, marketdata.GetBarsRequest{
				TimeFrame: marketdata.OneDay,
				Start:     start,
				End:       end,
			})
			return err
		})
		return bars, err
	})
	if err != nil {
		metrics.RecordProviderError("get_bars", "request_failed")
		return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		metrics.RecordProviderError("get_bars", "no_data")
		return nil, fmt.Errorf("%w: %s", ErrHistoryUnavailable, symbol)
	}

	series := &models.HistoricalSeries{
		Symbol:  symbol,
		Closes:  make([]float64, 0, len(bars)),
		Volumes: make([]float64, 0, len(bars)),
	}
	for _, bar := range bars {
		series.Closes = append(series.Closes, bar.Close)
		series.Volumes = append(series.Volumes, float64(bar.Volume))
	}

	return series, nil
}
