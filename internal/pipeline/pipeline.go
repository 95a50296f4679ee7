// Package pipeline orchestrates the ETL run as an ordered sequence of
// steps sharing one state. The run is a single-threaded batch: a step either
// completes, degrades with a warning, or aborts the whole run. No state
// survives across runs except the output files.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"anscli/pkg/contracts/domain"
)

// State carries the data flowing between steps within one run.
type State struct {
	Registry     domain.OperatorLookup
	RawFiles     []string
	Consolidated []domain.ConsolidatedRecord
	Aggregated   []domain.ExpenseStat
}

// Step is one unit of the pipeline. Returning an error aborts the run;
// recoverable conditions are handled inside the step and logged.
type Step interface {
	ID() string
	Name() string
	Execute(ctx context.Context, state *State) error
}

// Manager runs steps sequentially, logging timing per step under a run id.
type Manager struct {
	steps  []Step
	logger *slog.Logger
}

// NewManager creates a manager executing the given steps in order.
func NewManager(logger *slog.Logger, steps ...Step) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{steps: steps, logger: logger}
}

// Run executes all steps in order against a fresh state. The first step
// error aborts the run; by construction no output file has been written yet
// when a fatal condition surfaces, so existing output stays fully consistent.
func (m *Manager) Run(ctx context.Context) (*State, error) {
	runID := uuid.NewString()
	logger := m.logger.With(slog.String("run_id", runID))

	logger.Info("pipeline run starting", slog.Int("steps", len(m.steps)))
	started := time.Now()

	state := &State{}
	for _, step := range m.steps {
		stepStarted := time.Now()
		logger.Info("step starting",
			slog.String("step", step.ID()),
			slog.String("name", step.Name()))

		if err := step.Execute(ctx, state); err != nil {
			logger.Error("step failed",
				slog.String("step", step.ID()),
				slog.Duration("elapsed", time.Since(stepStarted)),
				slog.String("error", err.Error()))
			return nil, err
		}

		logger.Info("step completed",
			slog.String("step", step.ID()),
			slog.Duration("elapsed", time.Since(stepStarted)))
	}

	logger.Info("pipeline run completed",
		slog.Duration("elapsed", time.Since(started)),
		slog.Int("consolidated_records", len(state.Consolidated)),
		slog.Int("aggregated_groups", len(state.Aggregated)))

	return state, nil
}
