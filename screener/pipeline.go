package screener

import (
	"context"
	"fmt"

	"market-screener/models"
	"market-screener/observability"

	"github.com/google/uuid"
)

// RunRepository defines the run-history persistence needed by the pipeline
type RunRepository interface {
	CreateScreeningRun(ctx context.Context, run *models.ScreeningRun) error
	UpdateScreeningRun(ctx context.Context, run *models.ScreeningRun) error
	GetScreeningRun(ctx context.Context, id uuid.UUID) (*models.ScreeningRun, error)
	GetLatestScreeningRun(ctx context.Context) (*models.ScreeningRun, error)
	GetScreeningRunHistory(ctx context.Context, limit int) ([]models.ScreeningRun, error)
}

// Pipeline composes the batch orchestrator and the condition evaluator into
// the full screening workflow. The repository is optional; a nil repository
// disables run history without affecting screening.
type Pipeline struct {
	orch *Orchestrator
	eval *Evaluator
	repo RunRepository
}

// NewPipeline creates a Pipeline
func NewPipeline(orch *Orchestrator, eval *Evaluator, repo RunRepository) *Pipeline {
	return &Pipeline{
		orch: orch,
		eval: eval,
		repo: repo,
	}
}

// Screen runs the full screening workflow:
//  1. Validate the universe
//  2. Fetch and enrich records under the rate budget (subject to truncation)
//  3. Drop records without a usable close price
//  4. Evaluate conditions, collecting matches in fetch order
//
// Validation failures return an error with no run; failures mid-run return
// the failed run and the error, with no partial results.
func (p *Pipeline) Screen(ctx context.Context, universe []string, conditions models.ConditionSet) (*models.ScreeningRun, error) {
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}
	if err := conditions.Validate(); err != nil {
		return nil, err
	}

	metrics := observability.GetMetrics()
	metrics.RecordScreenRequest()
	timer := metrics.NewTimer()

	run := models.NewScreeningRun(universe, conditions)
	log := observability.WithRun(run.ID.String())
	log.Info("screening started",
		"universe_size", len(universe),
		"conditions", len(conditions))

	if p.repo != nil {
		if err := p.repo.CreateScreeningRun(ctx, run); err != nil {
			observability.Warn("failed to record screening run", "error", err)
		}
	}

	batch, err := p.orch.FetchUniverse(ctx, universe)
	if err != nil {
		run.Fail(err.Error(), timer.Duration().Milliseconds())
		timer.ObserveScreen("failed")
		p.persist(ctx, run)
		return run, fmt.Errorf("screening failed: %w", err)
	}

	// The orchestrator only emits enriched records, but re-check the close
	// price before any condition runs against a record
	usable := batch.Records[:0]
	for _, rec := range batch.Records {
		if rec.HasClose() {
			usable = append(usable, rec)
		}
	}

	matches := make([]models.InstrumentRecord, 0, len(usable))
	for i := range usable {
		if p.eval.Evaluate(&usable[i], conditions) {
			matches = append(matches, usable[i])
		}
	}

	result := models.ScreeningResult{
		Count:        len(matches),
		UniverseSize: batch.Requested,
		ScreenedSize: batch.Screened,
		ValidData:    len(usable),
		Results:      matches,
	}
	if batch.Truncated {
		result.Note = fmt.Sprintf("universe truncated from %d to %d symbols to respect the provider rate budget",
			batch.Requested, batch.Screened)
	}

	run.Complete(result, timer.Duration().Milliseconds())
	timer.ObserveScreen("completed")
	metrics.RecordScreenMatches(len(matches))
	p.persist(ctx, run)

	log.Info("screening completed",
		"matches", result.Count,
		"valid_data", result.ValidData,
		"duration_ms", run.DurationMs)

	return run, nil
}

// persist updates the stored run; storage failures are logged, never fatal
func (p *Pipeline) persist(ctx context.Context, run *models.ScreeningRun) {
	if p.repo == nil {
		return
	}
	if err := p.repo.UpdateScreeningRun(ctx, run); err != nil {
		observability.Warn("failed to update screening run", "error", err)
	}
}

// GetRun returns a stored screening run by ID
func (p *Pipeline) GetRun(ctx context.Context, id uuid.UUID) (*models.ScreeningRun, error) {
	if p.repo == nil {
		return nil, ErrRunHistoryUnavailable
	}
	return p.repo.GetScreeningRun(ctx, id)
}

// GetLatestRun returns the most recent stored screening run
func (p *Pipeline) GetLatestRun(ctx context.Context) (*models.ScreeningRun, error) {
	if p.repo == nil {
		return nil, ErrRunHistoryUnavailable
	}
	return p.repo.GetLatestScreeningRun(ctx)
}

// GetRunHistory returns the history of stored screening runs
func (p *Pipeline) GetRunHistory(ctx context.Context, limit int) ([]models.ScreeningRun, error) {
	if p.repo == nil {
		return nil, ErrRunHistoryUnavailable
	}
	return p.repo.GetScreeningRunHistory(ctx, limit)
}
