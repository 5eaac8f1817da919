package services

import (
	"context"
	"errors"

	"market-screener/models"
)

// ErrNoData is returned by a quote source when the provider has no data for
// a symbol. The orchestrator treats it like any other per-symbol failure.
var ErrNoData = errors.New("no data for symbol")

// ErrHistoryUnavailable is returned by FetchHistory when the provider has no
// historical access for a symbol. Enrichment degrades to quote-only fields.
var ErrHistoryUnavailable = errors.New("historical series unavailable")

// QuoteSource supplies the latest quote for a symbol. This is the minimum
// capability a market data provider must offer.
type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (*models.RawQuote, error)
}

// HistoricalQuoteSource extends QuoteSource with daily historical series
// access. Providers without historical access implement only QuoteSource and
// enrichment nulls out every history-derived field.
type HistoricalQuoteSource interface {
	QuoteSource
	FetchHistory(ctx context.Context, symbol string, lookbackDays int) (*models.HistoricalSeries, error)
}

// HistorySource returns the historical capability of src, if it has one
func HistorySource(src QuoteSource) (HistoricalQuoteSource, bool) {
	hs, ok := src.(HistoricalQuoteSource)
	return hs, ok
}
