package pipeline

import (
	"context"
	"time"

	"github.com/agentstation/utc"

	"github.com/openshelf/curator/pkg/catalog"
	"github.com/openshelf/curator/pkg/logging"
)

// State tracks the orchestrator through its lifecycle.
type State int

// Orchestrator states.
const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Orchestrator executes an ordered list of configured steps strictly
// sequentially against a single catalog instance, which it owns for the
// duration of the run.
//
// A step returning an error is a terminal failure: remaining steps are
// skipped and reported as not-run. Recorded failures (some unreachable
// URLs, lint violations) keep the run going unless the step escalated
// them via Result.Fatal.
type Orchestrator struct {
	steps []ConfiguredStep
	state State
}

// NewOrchestrator creates an orchestrator over the configured steps.
func NewOrchestrator(steps []ConfiguredStep) *Orchestrator {
	return &Orchestrator{steps: steps, state: StateIdle}
}

// State returns the orchestrator's current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes the steps in order and returns the run report.
func (o *Orchestrator) Run(ctx context.Context, cat *catalog.Catalog) *Report {
	o.state = StateRunning
	started := time.Now()
	report := &Report{
		StartedAt: utc.Now(),
		Steps:     make([]StepReport, len(o.steps)),
	}
	for i, cs := range o.steps {
		report.Steps[i] = StepReport{Title: cs.Title, Status: StepStatusNotRun}
	}

	log := logging.FromContext(ctx)

	for i, cs := range o.steps {
		stepStart := time.Now()
		log.Info().Str("step", cs.Title).Int("index", i+1).Int("total", len(o.steps)).Msg("running step")

		result, err := cs.Step.Run(logging.WithStep(ctx, cs.Step.Name()), cat)
		report.Steps[i].Duration = time.Since(stepStart)

		if err != nil {
			report.Steps[i].Status = StepStatusFailed
			report.Steps[i].Error = err.Error()
			report.Halted = true
			report.HaltedStep = cs.Title
			report.Error = err.Error()
			o.state = StateFailed
			log.Error().Err(err).Str("step", cs.Title).Msg("step failed, halting run")
			break
		}

		report.Steps[i].Touched = result.Touched
		report.Steps[i].Failures = result.Failures
		report.Steps[i].Skipped = result.Skipped
		report.Steps[i].Violations = result.Violations

		switch {
		case result.Fatal:
			report.Steps[i].Status = StepStatusFailed
			report.Steps[i].Error = "step escalated recorded failures"
			report.Halted = true
			report.HaltedStep = cs.Title
			report.Error = "step escalated recorded failures"
			o.state = StateFailed
			log.Error().Str("step", cs.Title).Int("failures", result.Failures).
				Msg("step escalated failures, halting run")
		case result.Failures > 0 || len(result.Violations) > 0:
			report.Steps[i].Status = StepStatusWithFailures
			log.Warn().Str("step", cs.Title).Int("failures", result.Failures).
				Int("violations", len(result.Violations)).Msg("step completed with failures")
		default:
			report.Steps[i].Status = StepStatusSucceeded
			log.Info().Str("step", cs.Title).Int("touched", result.Touched).Msg("step succeeded")
		}

		if report.Halted {
			break
		}
	}

	report.Duration = time.Since(started)
	if o.state != StateFailed {
		o.state = StateCompleted
	}
	return report
}
