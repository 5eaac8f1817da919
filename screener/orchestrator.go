package screener

import (
	"context"
	"errors"
	"fmt"

	"market-screener/config"
	"market-screener/models"
	"market-screener/observability"
	"market-screener/services"

	"golang.org/x/time/rate"
)

// Pacer gates provider calls so the external rate budget is respected.
// Implemented by rate.Limiter; swappable for adaptive policies or tests.
type Pacer interface {
	Wait(ctx context.Context) error
}

// NewPacer builds a fixed-interval pacer sized so that callsPerSymbol calls
// per symbol stay within ratePerMin provider calls per minute. Burst is 1:
// tokens release at a fixed interval, they do not accumulate across symbols.
func NewPacer(ratePerMin, callsPerSymbol int) Pacer {
	symbolsPerMin := float64(ratePerMin) / float64(callsPerSymbol)
	return rate.NewLimiter(rate.Limit(symbolsPerMin/60.0), 1)
}

// BatchResult is the orchestrator's output for one universe
type BatchResult struct {
	Records   []models.InstrumentRecord // enriched records in fetch order
	Requested int                       // universe size as requested
	Screened  int                       // symbols actually fetched (after truncation)
	Truncated bool
}

// Orchestrator sequences per-symbol fetch and enrichment under a rate budget.
// Symbols are processed strictly one at a time; a per-symbol failure is
// logged and dropped, never surfaced to the caller.
type Orchestrator struct {
	source services.QuoteSource
	pacer  Pacer
	cfg    *config.ScreenerConfig
}

// NewOrchestrator creates an Orchestrator. When pacer is nil a fixed-interval
// pacer is built from the config's rate budget.
func NewOrchestrator(source services.QuoteSource, pacer Pacer, cfg *config.ScreenerConfig) *Orchestrator {
	if pacer == nil {
		pacer = NewPacer(cfg.RateLimitPerMin, cfg.CallsPerSymbol)
	}
	return &Orchestrator{
		source: source,
		pacer:  pacer,
		cfg:    cfg,
	}
}

// FetchUniverse fetches and enriches every symbol in the universe, in order,
// up to the configured cap. The error return is reserved for request-level
// failures (context cancellation); per-symbol failures never propagate.
func (o *Orchestrator) FetchUniverse(ctx context.Context, universe []string) (*BatchResult, error) {
	result := &BatchResult{Requested: len(universe)}

	symbols := universe
	if len(symbols) > o.cfg.MaxUniverse {
		symbols = symbols[:o.cfg.MaxUniverse]
		result.Truncated = true
		observability.GetMetrics().RecordTruncation()
		observability.Warn("universe truncated to screening cap",
			"requested", len(universe),
			"cap", o.cfg.MaxUniverse)
	}
	result.Screened = len(symbols)
	result.Records = make([]models.InstrumentRecord, 0, len(symbols))

	enrichCfg := EnrichConfig{VolumeAvgPeriod: o.cfg.VolumeAvgPeriod}
	historySource, hasHistory := services.HistorySource(o.source)

	for _, symbol := range symbols {
		if err := o.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("screening interrupted: %w", err)
		}

		rec, err := o.fetchOne(ctx, symbol, historySource, hasHistory, enrichCfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("screening interrupted: %w", ctx.Err())
			}
			outcome := "failed"
			if errors.Is(err, ErrNoUsableQuote) || errors.Is(err, services.ErrNoData) {
				outcome = "no_data"
			}
			observability.GetMetrics().RecordSymbol(outcome)
			observability.WithSymbol(symbol).Warn("symbol excluded from screening", "error", err)
			continue
		}

		observability.GetMetrics().RecordSymbol("ok")
		result.Records = append(result.Records, *rec)
	}

	return result, nil
}

// fetchOne fetches quote and optional history for one symbol and enriches it
func (o *Orchestrator) fetchOne(
	ctx context.Context,
	symbol string,
	historySource services.HistoricalQuoteSource,
	hasHistory bool,
	enrichCfg EnrichConfig,
) (*models.InstrumentRecord, error) {
	quote, err := o.source.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var history *models.HistoricalSeries
	if hasHistory {
		history, err = historySource.FetchHistory(ctx, symbol, o.cfg.LookbackDays)
		if err != nil {
			// History is optional: fall back to quote-only enrichment
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			observability.WithSymbol(symbol).Debug("history unavailable, enriching quote-only", "error", err)
			history = nil
		}
	}

	return Enrich(quote, history, enrichCfg)
}
