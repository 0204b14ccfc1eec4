// Package pipeline provides the step-orchestration engine: the uniform
// step contract, a registry resolving configured step names to
// implementations, and a sequential orchestrator that aggregates each
// step's outcome into a run report.
//
// Steps receive exclusive access to the catalog, one after another. A
// step may run internal workers concurrently, but the orchestrator never
// runs two steps at the same time: later steps assume earlier steps'
// effects are fully committed to the store.
package pipeline

import (
	"context"

	"github.com/goccy/go-yaml"

	"github.com/openshelf/curator/pkg/catalog"
	"github.com/openshelf/curator/pkg/errors"
)

// Step is one unit of the processing pipeline. Run mutates the catalog
// in place (or, for pure steps like the linter, only inspects it) and
// reports what happened.
//
// A returned error is a terminal failure: it halts the orchestrator.
// Expected per-entry outcomes (an unreachable URL, a lint violation)
// are recorded in the Result instead, never returned as errors.
type Step interface {
	Name() string
	Run(ctx context.Context, cat *catalog.Catalog) (*Result, error)
}

// Result reports what a completed step did.
type Result struct {
	Touched    int                 `json:"touched" yaml:"touched"`   // Entries modified
	Failures   int                 `json:"failures" yaml:"failures"` // Units that failed and were recorded as data
	Skipped    int                 `json:"skipped" yaml:"skipped"`   // Units not processed (filtered or already done)
	Violations []catalog.Violation `json:"violations,omitempty" yaml:"violations,omitempty"`

	// Fatal marks a recorded failure the step's configuration escalates
	// to a run failure (e.g. lint violations with fatal: true).
	Fatal bool `json:"fatal,omitempty" yaml:"fatal,omitempty"`
}

// Options holds a step's raw configuration from the pipeline file.
type Options map[string]any

// Decode unmarshals the raw options into a step's typed configuration
// struct. Unknown keys are rejected so misspelled options fail at
// configuration-parse time instead of being silently ignored.
func (o Options) Decode(target any) error {
	if len(o) == 0 {
		return nil
	}
	data, err := yaml.Marshal(map[string]any(o))
	if err != nil {
		return errors.NewConfigError("step options", "cannot encode options", err)
	}
	if err := yaml.UnmarshalWithOptions(data, target, yaml.Strict()); err != nil {
		return errors.NewConfigError("step options", "unrecognized or invalid option", err)
	}
	return nil
}

// Factory constructs a step from its configured options. Factories run
// at configuration-parse time, so option errors surface before any step
// executes.
type Factory func(options Options) (Step, error)
