package models

// Trend classifies the direction of a price series
type Trend string

const (
	TrendUp       Trend = "up"
	TrendDown     Trend = "down"
	TrendSideways Trend = "sideways"
	TrendUnknown  Trend = "unknown"
)

// Alignment classifies agreement between the daily and weekly trend
type Alignment string

const (
	AlignmentBullish Alignment = "bullish"
	AlignmentBearish Alignment = "bearish"
	AlignmentMixed   Alignment = "mixed"
)

// InstrumentRecord is the enriched, immutable per-symbol unit that conditions
// are evaluated against. Pointer fields are nullable: they stay nil when the
// underlying data (previous close, volume, or a long enough historical
// series) was not available. A record produced by the enrichment step always
// has a non-nil Close.
type InstrumentRecord struct {
	Symbol string `json:"symbol"`

	// Price fields
	Close     *float64 `json:"close"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	PrevClose *float64 `json:"prev_close"`

	// Change
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"change_percent"`

	// Volume
	Volume            *float64 `json:"volume"`
	AvgVolume         *float64 `json:"avg_volume"`
	VolumeRatio       *float64 `json:"volume_ratio"`
	VolumeContraction *bool    `json:"volume_contraction"`

	// 52-week range. Week52Span is the number of historical points the
	// extremes were computed over; when it covers less than a full year the
	// "52-week" figures only reflect the available history.
	Week52High     *float64 `json:"52_week_high"`
	Week52Low      *float64 `json:"52_week_low"`
	Week52Span     int      `json:"52_week_span"`
	NearWeek52High *bool    `json:"near_52_week_high"`
	NearWeek52Low  *bool    `json:"near_52_week_low"`

	// Moving averages
	SMA20  *float64 `json:"sma_20"`
	SMA50  *float64 `json:"sma_50"`
	SMA200 *float64 `json:"sma_200"`

	// Trend classification
	TrendDaily     Trend     `json:"trend"`
	TrendWeekly    Trend     `json:"weekly_trend"`
	TrendAlignment Alignment `json:"trend_alignment"`

	// Classification
	Currency string `json:"currency"`
	IsEquity bool   `json:"is_equity"`
	IsETF    bool   `json:"is_etf"`
}

// HasClose reports whether the record carries a usable close price
func (r *InstrumentRecord) HasClose() bool {
	return r != nil && r.Close != nil
}

// Float64Ptr returns a pointer to the given float64, for building records
func Float64Ptr(v float64) *float64 { return &v }

// BoolPtr returns a pointer to the given bool, for building records
func BoolPtr(v bool) *bool { return &v }
