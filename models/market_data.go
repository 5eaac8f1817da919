package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawQuote represents the latest quote data for a symbol as supplied by the
// quote source. Prices are decimals at the provider boundary; a zero Price
// means the provider had no usable quote. Immutable once fetched.
type RawQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	PrevClose decimal.Decimal `json:"prev_close"`
	Volume    *int64          `json:"volume,omitempty"`
	Currency  string          `json:"currency"`
	IsEquity  bool            `json:"is_equity"`
	IsETF     bool            `json:"is_etf"`
	Timestamp time.Time       `json:"timestamp"`
}

// HasPrice reports whether the quote carries a usable (positive) price
func (q *RawQuote) HasPrice() bool {
	return q != nil && q.Price.IsPositive()
}

// HistoricalSeries holds an ordered daily close/volume series for one symbol,
// chronological, oldest first. Closes and Volumes are index-aligned; Volumes
// may be shorter when the provider omits volume data.
type HistoricalSeries struct {
	Symbol  string    `json:"symbol"`
	Closes  []float64 `json:"closes"`
	Volumes []float64 `json:"volumes"`
}

// Len returns the number of close points in the series
func (s *HistoricalSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Closes)
}
