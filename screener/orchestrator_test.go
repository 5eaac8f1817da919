package screener

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"market-screener/config"
	"market-screener/models"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

func testScreenerConfig() *config.ScreenerConfig {
	cfg := config.NewTestConfig().Screener
	return &cfg
}

func symbols(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("SYM%02d", i)
	}
	return out
}

func TestFetchUniverse_Truncation(t *testing.T) {
	source := &MockQuoteSource{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (*models.RawQuote, error) {
			return quoteWithPrice(symbol, 100), nil
		},
	}
	pacer := &countingPacer{}
	orch := NewOrchestrator(source, pacer, testScreenerConfig())

	batch, err := orch.FetchUniverse(context.Background(), symbols(30))
	if err != nil {
		t.Fatalf("FetchUniverse() returned error: %v", err)
	}

	if batch.Requested != 30 {
		t.Errorf("expected requested 30, got %d", batch.Requested)
	}
	if batch.Screened != 25 {
		t.Errorf("expected screened 25, got %d", batch.Screened)
	}
	if !batch.Truncated {
		t.Error("expected truncation flag")
	}
	if len(batch.Records) != 25 {
		t.Errorf("expected 25 records, got %d", len(batch.Records))
	}
	if pacer.waits != 25 {
		t.Errorf("expected 25 pacer waits, got %d", pacer.waits)
	}
}

func TestFetchUniverse_NoTruncationAtCap(t *testing.T) {
	source := &MockQuoteSource{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (*models.RawQuote, error) {
			return quoteWithPrice(symbol, 100), nil
		},
	}
	orch := NewOrchestrator(source, &countingPacer{}, testScreenerConfig())

	batch, err := orch.FetchUniverse(context.Background(), symbols(25))
	if err != nil {
		t.Fatalf("FetchUniverse() returned error: %v", err)
	}

	if batch.Truncated {
		t.Error("universe of exactly the cap should not be truncated")
	}
	if batch.Screened != 25 {
		t.Errorf("expected screened 25, got %d", batch.Screened)
	}
}

func TestFetchUniverse_PerSymbolFailureIsolation(t *testing.T) {
	source := &MockQuoteSource{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (*models.RawQuote, error) {
			if symbol == "BBB" {
				return nil, errors.New("provider timeout")
			}
			return quoteWithPrice(symbol, 100), nil
		},
	}
	orch := NewOrchestrator(source, &countingPacer{}, testScreenerConfig())

	batch, err := orch.FetchUniverse(context.Background(), []string{"AAA", "BBB", "CCC"})
	if err != nil {
		t.Fatalf("FetchUniverse() returned error: %v", err)
	}

	if len(batch.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(batch.Records))
	}
	// Fetch order is preserved
	if batch.Records[0].Symbol != "AAA" || batch.Records[1].Symbol != "CCC" {
		t.Errorf("unexpected record order: %s, %s", batch.Records[0].Symbol, batch.Records[1].Symbol)
	}
	if batch.Screened != 3 {
		t.Errorf("failed symbols still count as screened, got %d", batch.Screened)
	}
}

func TestFetchUniverse_NoUsableQuoteDropped(t *testing.T) {
	source := &MockQuoteSource{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (*models.RawQuote, error) {
			if symbol == "ZERO" {
				return &models.RawQuote{Symbol: symbol}, nil // zero price
			}
			return quoteWithPrice(symbol, 100), nil
		},
	}
	orch := NewOrchestrator(source, &countingPacer{}, testScreenerConfig())

	batch, err := orch.FetchUniverse(context.Background(), []string{"AAA", "ZERO"})
	if err != nil {
		t.Fatalf("FetchUniverse() returned error: %v", err)
	}
	if len(batch.Records) != 1 || batch.Records[0].Symbol != "AAA" {
		t.Errorf("expected only AAA, got %d records", len(batch.Records))
	}
}

func TestFetchUniverse_NilQuoteDropped(t *testing.T) {
	source := &MockQuoteSource{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (*models.RawQuote, error) {
			if symbol == "NIL" {
				return nil, nil
			}
			return quoteWithPrice(symbol, 100), nil
		},
	}
	orch := NewOrchestrator(source, &countingPacer{}, testScreenerConfig())

	batch, err := orch.FetchUniverse(context.Background(), []string{"NIL", "AAA"})
	if err != nil {
		t.Fatalf("FetchUniverse() returned error: %v", err)
	}
	if len(batch.Records) != 1 || batch.Records[0].Symbol != "AAA" {
		t.Errorf("expected NIL to be dropped, got %d records", len(batch.Records))
	}
	if batch.Screened != 2 {
		t.Errorf("expected screened 2, got %d", batch.Screened)
	}
}

func TestFetchUniverse_HistoryEnrichment(t *testing.T) {
	historyCalls := 0
	source := &MockHistoricalQuoteSource{
		MockQuoteSource: MockQuoteSource{
			FetchQuoteFunc: func(ctx context.Context, symbol string) (*models.RawQuote, error) {
				return quoteWithPrice(symbol, 95), nil
			},
		},
		FetchHistoryFunc: func(ctx context.Context, symbol string, lookbackDays int) (*models.HistoricalSeries, error) {
			historyCalls++
			if lookbackDays != 365 {
				t.Errorf("expected lookback 365, got %d", lookbackDays)
			}
			return &models.HistoricalSeries{
				Symbol: symbol,
				Closes: floatSeries(50, 100, 90),
			}, nil
		},
	}
	orch := NewOrchestrator(source, &countingPacer{}, testScreenerConfig())

	batch, err := orch.FetchUniverse(context.Background(), []string{"AAA"})
	if err != nil {
		t.Fatalf("FetchUniverse() returned error: %v", err)
	}
	if historyCalls != 1 {
		t.Errorf("expected 1 history call, got %d", historyCalls)
	}

	rec := batch.Records[0]
	if rec.Week52High == nil || *rec.Week52High != 100 {
		t.Errorf("expected 52-week high 100, got %v", rec.Week52High)
	}
	if rec.NearWeek52High == nil || !*rec.NearWeek52High {
		t.Error("expected near 52-week high at close 95")
	}
}

func TestFetchUniverse_HistoryFailureFallsBackToQuoteOnly(t *testing.T) {
	source := &MockHistoricalQuoteSource{
		MockQuoteSource: MockQuoteSource{
			FetchQuoteFunc: func(ctx context.Context, symbol string) (*models.RawQuote, error) {
				return quoteWithPrice(symbol, 100), nil
			},
		},
		FetchHistoryFunc: func(ctx context.Context, symbol string, lookbackDays int) (*models.HistoricalSeries, error) {
			return nil, errors.New("bars endpoint unavailable")
		},
	}
	orch := NewOrchestrator(source, &countingPacer{}, testScreenerConfig())

	batch, err := orch.FetchUniverse(context.Background(), []string{"AAA"})
	if err != nil {
		t.Fatalf("FetchUniverse() returned error: %v", err)
	}
	if len(batch.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(batch.Records))
	}
	if batch.Records[0].Week52High != nil {
		t.Error("expected nil 52-week high after history failure")
	}
}

func TestFetchUniverse_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &MockQuoteSource{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (*models.RawQuote, error) {
			return quoteWithPrice(symbol, 100), nil
		},
	}
	orch := NewOrchestrator(source, &countingPacer{}, testScreenerConfig())

	_, err := orch.FetchUniverse(ctx, []string{"AAA"})
	if err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestNewPacer_Interval(t *testing.T) {
	// 60 calls per minute at 2 calls per symbol paces 30 symbols per minute,
	// i.e. one symbol every 2 seconds
	pacer := NewPacer(60, 2)
	limiter, ok := pacer.(*rate.Limiter)
	if !ok {
		t.Fatalf("expected *rate.Limiter, got %T", pacer)
	}
	if limiter.Limit() != rate.Limit(0.5) {
		t.Errorf("expected limit 0.5/s, got %v", limiter.Limit())
	}
	if limiter.Burst() != 1 {
		t.Errorf("expected burst 1, got %d", limiter.Burst())
	}
}

func TestFetchUniverse_QuoteDecimalConversion(t *testing.T) {
	source := &MockQuoteSource{
		FetchQuoteFunc: func(ctx context.Context, symbol string) (*models.RawQuote, error) {
			return &models.RawQuote{
				Symbol:    symbol,
				Price:     decimal.NewFromFloat(123.45),
				PrevClose: decimal.NewFromFloat(120),
				Currency:  "USD",
			}, nil
		},
	}
	orch := NewOrchestrator(source, &countingPacer{}, testScreenerConfig())

	batch, err := orch.FetchUniverse(context.Background(), []string{"AAA"})
	if err != nil {
		t.Fatalf("FetchUniverse() returned error: %v", err)
	}
	rec := batch.Records[0]
	if rec.Close == nil || *rec.Close != 123.45 {
		t.Errorf("expected close 123.45, got %v", rec.Close)
	}
	if rec.Change == nil {
		t.Fatal("expected non-nil change")
	}
	if *rec.Change < 3.44 || *rec.Change > 3.46 {
		t.Errorf("expected change near 3.45, got %v", *rec.Change)
	}
}
