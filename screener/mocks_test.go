package screener

import (
	"context"

	"market-screener/models"

	"github.com/google/uuid"
)

// MockQuoteSource implements services.QuoteSource for testing
type MockQuoteSource struct {
	FetchQuoteFunc func(ctx context.Context, symbol string) (*models.RawQuote, error)
}

func (m *MockQuoteSource) FetchQuote(ctx context.Context, symbol string) (*models.RawQuote, error) {
	if m.FetchQuoteFunc != nil {
		return m.FetchQuoteFunc(ctx, symbol)
	}
	return nil, nil
}

// MockHistoricalQuoteSource implements services.HistoricalQuoteSource for testing
type MockHistoricalQuoteSource struct {
	MockQuoteSource
	FetchHistoryFunc func(ctx context.Context, symbol string, lookbackDays int) (*models.HistoricalSeries, error)
}

func (m *MockHistoricalQuoteSource) FetchHistory(ctx context.Context, symbol string, lookbackDays int) (*models.HistoricalSeries, error) {
	if m.FetchHistoryFunc != nil {
		return m.FetchHistoryFunc(ctx, symbol, lookbackDays)
	}
	return nil, nil
}

// MockRunRepository implements RunRepository for testing
type MockRunRepository struct {
	CreateScreeningRunFunc     func(ctx context.Context, run *models.ScreeningRun) error
	UpdateScreeningRunFunc     func(ctx context.Context, run *models.ScreeningRun) error
	GetScreeningRunFunc        func(ctx context.Context, id uuid.UUID) (*models.ScreeningRun, error)
	GetLatestScreeningRunFunc  func(ctx context.Context) (*models.ScreeningRun, error)
	GetScreeningRunHistoryFunc func(ctx context.Context, limit int) ([]models.ScreeningRun, error)
}

func (m *MockRunRepository) CreateScreeningRun(ctx context.Context, run *models.ScreeningRun) error {
	if m.CreateScreeningRunFunc != nil {
		return m.CreateScreeningRunFunc(ctx, run)
	}
	return nil
}

func (m *MockRunRepository) UpdateScreeningRun(ctx context.Context, run *models.ScreeningRun) error {
	if m.UpdateScreeningRunFunc != nil {
		return m.UpdateScreeningRunFunc(ctx, run)
	}
	return nil
}

func (m *MockRunRepository) GetScreeningRun(ctx context.Context, id uuid.UUID) (*models.ScreeningRun, error) {
	if m.GetScreeningRunFunc != nil {
		return m.GetScreeningRunFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockRunRepository) GetLatestScreeningRun(ctx context.Context) (*models.ScreeningRun, error) {
	if m.GetLatestScreeningRunFunc != nil {
		return m.GetLatestScreeningRunFunc(ctx)
	}
	return nil, nil
}

func (m *MockRunRepository) GetScreeningRunHistory(ctx context.Context, limit int) ([]models.ScreeningRun, error) {
	if m.GetScreeningRunHistoryFunc != nil {
		return m.GetScreeningRunHistoryFunc(ctx, limit)
	}
	return nil, nil
}

// countingPacer counts Wait calls without delaying
type countingPacer struct {
	waits int
	err   error
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	if p.err != nil {
		return p.err
	}
	return ctx.Err()
}
