package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/agentstation/utc"

	"github.com/openshelf/curator/pkg/catalog"
)

// StepStatus classifies a step's outcome in the run report.
type StepStatus string

// Step statuses.
const (
	StepStatusSucceeded    StepStatus = "succeeded"
	StepStatusWithFailures StepStatus = "completed-with-failures"
	StepStatusFailed       StepStatus = "failed"
	StepStatusNotRun       StepStatus = "not-run"
)

// StepReport summarizes one step's outcome.
type StepReport struct {
	Title      string              `json:"title" yaml:"title"`
	Status     StepStatus          `json:"status" yaml:"status"`
	Touched    int                 `json:"touched" yaml:"touched"`
	Failures   int                 `json:"failures" yaml:"failures"`
	Skipped    int                 `json:"skipped" yaml:"skipped"`
	Violations []catalog.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
	Duration   time.Duration       `json:"duration" yaml:"duration"`
	Error      string              `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the structured summary of a completed or halted run,
// suitable for human display and automated pass/fail gating.
type Report struct {
	StartedAt  utc.Time      `json:"started_at" yaml:"started_at"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
	Steps      []StepReport  `json:"steps" yaml:"steps"`
	Halted     bool          `json:"halted" yaml:"halted"`
	HaltedStep string        `json:"halted_step,omitempty" yaml:"halted_step,omitempty"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the run should gate a CI pipeline: it is true
// when the run halted or any step escalated its failures.
func (r *Report) Failed() bool {
	if r.Halted {
		return true
	}
	for _, step := range r.Steps {
		if step.Status == StepStatusFailed {
			return true
		}
	}
	return false
}

// WriteText renders the report for human display.
func (r *Report) WriteText(w io.Writer) {
	for _, step := range r.Steps {
		switch step.Status {
		case StepStatusNotRun:
			fmt.Fprintf(w, "  - %s: %s\n", step.Title, step.Status)
		case StepStatusFailed:
			fmt.Fprintf(w, "  - %s: %s (%s)\n", step.Title, step.Status, step.Error)
		default:
			fmt.Fprintf(w, "  - %s: %s (touched %d, failures %d, skipped %d) in %s\n",
				step.Title, step.Status, step.Touched, step.Failures, step.Skipped,
				step.Duration.Round(time.Millisecond))
		}
		for _, v := range step.Violations {
			fmt.Fprintf(w, "      violation: %s\n", v)
		}
	}
	if r.Halted {
		fmt.Fprintf(w, "run halted at step %q: %s\n", r.HaltedStep, r.Error)
	} else {
		fmt.Fprintf(w, "run completed in %s\n", r.Duration.Round(time.Millisecond))
	}
}
