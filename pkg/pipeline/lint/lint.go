// Package lint implements the compliance linter step. It layers
// editorial policy rules on top of the catalog's structural invariants:
// description length bounds, duplicate display names, and declared tags
// or platforms that no entry references.
//
// The linter is read-only. It reports every violation it finds and
// never mutates the catalog; whether violations halt the run is decided
// by configuration, not by the rules themselves.
package lint

import (
	"context"

	"github.com/openshelf/curator/pkg/catalog"
	"github.com/openshelf/curator/pkg/logging"
	"github.com/openshelf/curator/pkg/pipeline"
)

// StepName is the registry key for this step.
const StepName = "lint"

// Default description length bounds, in characters.
const (
	defaultMinDescription = 10
	defaultMaxDescription = 250
)

// Config holds the step's recognized options.
type Config struct {
	// ErrorsAreFatal halts the run after this step when any violation
	// is found.
	ErrorsAreFatal bool `yaml:"errors_are_fatal,omitempty"`

	// Description length bounds. Zero means the default.
	MinDescriptionLength int `yaml:"min_description_length,omitempty"`
	MaxDescriptionLength int `yaml:"max_description_length,omitempty"`
}

// Step is the compliance linter.
type Step struct {
	cfg Config
}

// Factory builds the step from pipeline options.
func Factory(options pipeline.Options) (pipeline.Step, error) {
	var cfg Config
	if err := options.Decode(&cfg); err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// New creates a linter step.
func New(cfg Config) *Step {
	if cfg.MinDescriptionLength <= 0 {
		cfg.MinDescriptionLength = defaultMinDescription
	}
	if cfg.MaxDescriptionLength <= 0 {
		cfg.MaxDescriptionLength = defaultMaxDescription
	}
	return &Step{cfg: cfg}
}

// Name implements pipeline.Step.
func (s *Step) Name() string { return StepName }

// Run implements pipeline.Step.
func (s *Step) Run(ctx context.Context, cat *catalog.Catalog) (*pipeline.Result, error) {
	log := logging.FromContext(ctx)

	violations := cat.Validate()
	violations = append(violations, s.lintSoftwares(cat)...)
	violations = append(violations, duplicateNames(cat)...)
	violations = append(violations, orphanedRefs(cat)...)

	for _, v := range violations {
		log.Warn().Str("resource", v.Resource).Str("id", v.ID).
			Str("field", v.Field).Msg(v.Message)
	}

	result := &pipeline.Result{
		Failures:   len(violations),
		Violations: violations,
	}
	if len(violations) > 0 && s.cfg.ErrorsAreFatal {
		result.Fatal = true
		log.Error().Int("violations", len(violations)).Msg("lint failed")
	} else {
		log.Info().Int("violations", len(violations)).Msg("lint complete")
	}
	return result, nil
}
