package screener

import (
	"fmt"

	"market-screener/models"
)

// Trend thresholds: the recent indicator must move more than 2% off the
// baseline before a series is classified as up or down.
const (
	trendUpFactor   = 1.02
	trendDownFactor = 0.98

	trendIndicatorSpan = 5
	dailyTrendPeriod   = 20
	weeklyTrendPeriod  = 4
	weeklyStride       = 5
	weeklyMinPoints    = 25

	nearHighFactor = 0.95
	nearLowFactor  = 1.05

	volumeContractionFactor = 0.7
)

// SMA returns the simple moving average of the last period values, or nil
// when the series is shorter than the period.
func SMA(series []float64, period int) *float64 {
	if period <= 0 || len(series) < period {
		return nil
	}
	sum := 0.0
	for i := len(series) - period; i < len(series); i++ {
		sum += series[i]
	}
	return models.Float64Ptr(sum / float64(period))
}

// ClassifyTrend classifies the direction of a series by comparing a recent
// 5-point SMA against a 5-point baseline SMA ending period points earlier.
// Requires period+5 points; shorter series classify as unknown. The 2%
// thresholds are strict: a recent/baseline ratio of exactly 1.02 is sideways.
func ClassifyTrend(series []float64, period int) models.Trend {
	if len(series) < period+trendIndicatorSpan {
		return models.TrendUnknown
	}

	n := len(series)
	recent := SMA(series[:n], trendIndicatorSpan)
	baseline := SMA(series[:n-period], trendIndicatorSpan)
	if recent == nil || baseline == nil {
		return models.TrendUnknown
	}

	switch {
	case *recent > *baseline*trendUpFactor:
		return models.TrendUp
	case *recent < *baseline*trendDownFactor:
		return models.TrendDown
	default:
		return models.TrendSideways
	}
}

// ClassifyWeeklyTrend downsamples the daily series with a simple stride of 5
// (not true weekly aggregation) and classifies it with a period of 4.
// Requires at least 25 raw points; shorter series classify as unknown.
func ClassifyWeeklyTrend(series []float64) models.Trend {
	if len(series) < weeklyMinPoints {
		return models.TrendUnknown
	}
	weekly := make([]float64, 0, len(series)/weeklyStride+1)
	for i := 0; i < len(series); i += weeklyStride {
		weekly = append(weekly, series[i])
	}
	return ClassifyTrend(weekly, weeklyTrendPeriod)
}

// ClassifyAlignment combines daily and weekly trend into one label
func ClassifyAlignment(daily, weekly models.Trend) models.Alignment {
	switch {
	case daily == models.TrendUp && weekly == models.TrendUp:
		return models.AlignmentBullish
	case daily == models.TrendDown && weekly == models.TrendDown:
		return models.AlignmentBearish
	default:
		return models.AlignmentMixed
	}
}

// EnrichConfig holds tunables for the enrichment step
type EnrichConfig struct {
	VolumeAvgPeriod int
}

// DefaultEnrichConfig returns the default enrichment configuration
func DefaultEnrichConfig() EnrichConfig {
	return EnrichConfig{VolumeAvgPeriod: 20}
}

// Enrich turns a raw quote plus an optional historical series into an
// InstrumentRecord. The series may be nil (quote-only provider); every
// history-derived field is then left nil and trends classify as unknown.
// Returns ErrNoUsableQuote when the quote's price is missing or non-positive.
func Enrich(quote *models.RawQuote, history *models.HistoricalSeries, cfg EnrichConfig) (*models.InstrumentRecord, error) {
	if quote == nil {
		return nil, ErrNoUsableQuote
	}
	if !quote.HasPrice() {
		return nil, fmt.Errorf("%w: %s", ErrNoUsableQuote, quote.Symbol)
	}
	if cfg.VolumeAvgPeriod <= 0 {
		cfg.VolumeAvgPeriod = DefaultEnrichConfig().VolumeAvgPeriod
	}

	close := quote.Price.InexactFloat64()
	rec := &models.InstrumentRecord{
		Symbol:         quote.Symbol,
		Close:          models.Float64Ptr(close),
		Open:           positivePrice(quote.Open.InexactFloat64()),
		High:           positivePrice(quote.High.InexactFloat64()),
		Low:            positivePrice(quote.Low.InexactFloat64()),
		PrevClose:      positivePrice(quote.PrevClose.InexactFloat64()),
		TrendDaily:     models.TrendUnknown,
		TrendWeekly:    models.TrendUnknown,
		TrendAlignment: models.AlignmentMixed,
		Currency:       quote.Currency,
		IsEquity:       quote.IsEquity,
		IsETF:          quote.IsETF,
	}

	if rec.PrevClose != nil && *rec.PrevClose != 0 {
		change := close - *rec.PrevClose
		rec.Change = models.Float64Ptr(change)
		rec.ChangePercent = models.Float64Ptr(change / *rec.PrevClose * 100)
	}

	if quote.Volume != nil {
		rec.Volume = models.Float64Ptr(float64(*quote.Volume))
	}

	if history.Len() > 0 {
		enrichFromHistory(rec, history, cfg)
	}

	rec.TrendAlignment = ClassifyAlignment(rec.TrendDaily, rec.TrendWeekly)

	return rec, nil
}

// enrichFromHistory fills every field that needs a historical series
func enrichFromHistory(rec *models.InstrumentRecord, history *models.HistoricalSeries, cfg EnrichConfig) {
	closes := history.Closes

	rec.SMA20 = SMA(closes, 20)
	rec.SMA50 = SMA(closes, 50)
	rec.SMA200 = SMA(closes, 200)

	rec.TrendDaily = ClassifyTrend(closes, dailyTrendPeriod)
	rec.TrendWeekly = ClassifyWeeklyTrend(closes)

	high, low := closes[0], closes[0]
	for _, c := range closes[1:] {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	rec.Week52High = models.Float64Ptr(high)
	rec.Week52Low = models.Float64Ptr(low)
	rec.Week52Span = len(closes)

	close := *rec.Close
	rec.NearWeek52High = models.BoolPtr(close >= high*nearHighFactor)
	rec.NearWeek52Low = models.BoolPtr(close <= low*nearLowFactor)

	if avg := SMA(history.Volumes, cfg.VolumeAvgPeriod); avg != nil && *avg > 0 {
		rec.AvgVolume = avg
		if rec.Volume != nil {
			rec.VolumeRatio = models.Float64Ptr(*rec.Volume / *avg)
			rec.VolumeContraction = models.BoolPtr(*rec.Volume < *avg*volumeContractionFactor)
		}
	}
}

// positivePrice converts a provider price to a nullable field, treating zero
// and negative values as absent
func positivePrice(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return models.Float64Ptr(v)
}
