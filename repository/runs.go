package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"market-screener/models"
	"market-screener/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateScreeningRun inserts a new screening run
func (r *Repository) CreateScreeningRun(ctx context.Context, run *models.ScreeningRun) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("insert", "screening_runs")

	conditionsJSON, err := json.Marshal(run.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}

	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO screening_runs (id, run_at, universe, conditions, result, duration_ms, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.ID, run.RunAt, run.Universe, conditionsJSON, resultJSON, run.DurationMs, run.Status, run.Error, run.CreatedAt)

	if err != nil {
		metrics.RecordDBError("insert", "screening_runs")
		return fmt.Errorf("failed to create screening run: %w", err)
	}

	return nil
}

// UpdateScreeningRun updates an existing screening run
func (r *Repository) UpdateScreeningRun(ctx context.Context, run *models.ScreeningRun) error {
	if err := r.checkDB(); err != nil {
		return err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("update", "screening_runs")

	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		UPDATE screening_runs
		SET result = $2, duration_ms = $3, status = $4, error = $5
		WHERE id = $1
	`, run.ID, resultJSON, run.DurationMs, run.Status, run.Error)

	if err != nil {
		metrics.RecordDBError("update", "screening_runs")
		return fmt.Errorf("failed to update screening run: %w", err)
	}

	return nil
}

// GetScreeningRun returns a screening run by ID
func (r *Repository) GetScreeningRun(ctx context.Context, id uuid.UUID) (*models.ScreeningRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "screening_runs")

	row := r.db.QueryRow(ctx, `
		SELECT id, run_at, universe, conditions, result, duration_ms, status, error, created_at
		FROM screening_runs
		WHERE id = $1
	`, id)

	run, err := scanScreeningRun(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "screening_runs")
		return nil, fmt.Errorf("failed to get screening run: %w", err)
	}

	return run, nil
}

// GetLatestScreeningRun returns the most recent screening run
func (r *Repository) GetLatestScreeningRun(ctx context.Context) (*models.ScreeningRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "screening_runs")

	row := r.db.QueryRow(ctx, `
		SELECT id, run_at, universe, conditions, result, duration_ms, status, error, created_at
		FROM screening_runs
		ORDER BY run_at DESC
		LIMIT 1
	`)

	run, err := scanScreeningRun(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "screening_runs")
		return nil, fmt.Errorf("failed to get latest screening run: %w", err)
	}

	return run, nil
}

// GetScreeningRunHistory returns a list of recent screening runs
func (r *Repository) GetScreeningRunHistory(ctx context.Context, limit int) ([]models.ScreeningRun, error) {
	if err := r.checkDB(); err != nil {
		return nil, err
	}
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveDB("select", "screening_runs")

	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, run_at, universe, conditions, result, duration_ms, status, error, created_at
		FROM screening_runs
		ORDER BY run_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		metrics.RecordDBError("select", "screening_runs")
		return nil, fmt.Errorf("failed to get screening run history: %w", err)
	}
	defer rows.Close()

	var runs []models.ScreeningRun
	for rows.Next() {
		run, err := scanScreeningRun(rows)
		if err != nil {
			metrics.RecordDBError("select", "screening_runs")
			return nil, fmt.Errorf("failed to scan screening run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, nil
}

// scanScreeningRun reads one screening_runs row, decoding the jsonb columns
func scanScreeningRun(row pgx.Row) (*models.ScreeningRun, error) {
	var run models.ScreeningRun
	var conditionsJSON, resultJSON []byte

	err := row.Scan(&run.ID, &run.RunAt, &run.Universe, &conditionsJSON, &resultJSON,
		&run.DurationMs, &run.Status, &run.Error, &run.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(conditionsJSON, &run.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}

	if err := json.Unmarshal(resultJSON, &run.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &run, nil
}
