package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the status of a screening run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// ScreeningResult is the summary the caller receives for one screening run.
// Results preserve fetch order.
type ScreeningResult struct {
	Count        int                `json:"count"`
	UniverseSize int                `json:"universe_size"`
	ScreenedSize int                `json:"screened_size"`
	ValidData    int                `json:"valid_data"`
	Note         string             `json:"note,omitempty"`
	Results      []InstrumentRecord `json:"results"`
}

// ScreeningRun represents a single execution of the screening pipeline
type ScreeningRun struct {
	ID         uuid.UUID       `json:"id"`
	RunAt      time.Time       `json:"run_at"`
	Universe   []string        `json:"universe"`
	Conditions ConditionSet    `json:"conditions"`
	Result     ScreeningResult `json:"result"`
	DurationMs int64           `json:"duration_ms"`
	Status     RunStatus       `json:"status"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewScreeningRun creates a new ScreeningRun with default values
func NewScreeningRun(universe []string, conditions ConditionSet) *ScreeningRun {
	now := time.Now()
	return &ScreeningRun{
		ID:         uuid.New(),
		RunAt:      now,
		Universe:   universe,
		Conditions: conditions,
		Status:     RunStatusRunning,
		CreatedAt:  now,
	}
}

// Complete marks the screening run as completed with its result
func (r *ScreeningRun) Complete(result ScreeningResult, durationMs int64) {
	r.Status = RunStatusCompleted
	r.Result = result
	r.DurationMs = durationMs
}

// Fail marks the screening run as failed with an error message
func (r *ScreeningRun) Fail(err string, durationMs int64) {
	r.Status = RunStatusFailed
	r.Error = err
	r.DurationMs = durationMs
}

// IsRunning returns true if the screening run is still in progress
func (r *ScreeningRun) IsRunning() bool {
	return r.Status == RunStatusRunning
}

// IsCompleted returns true if the screening run completed successfully
func (r *ScreeningRun) IsCompleted() bool {
	return r.Status == RunStatusCompleted
}

// IsFailed returns true if the screening run failed
func (r *ScreeningRun) IsFailed() bool {
	return r.Status == RunStatusFailed
}
