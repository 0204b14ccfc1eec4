package pipeline

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/openshelf/curator/pkg/errors"
)

// File is the on-disk pipeline configuration.
//
// Example:
//
//	data: ./data
//	steps:
//	  - name: check URLs
//	    step: url_check
//	    options:
//	      workers: 8
//	      timeout: 10
//	  - name: fetch repository metadata
//	    step: repo_metadata
//	  - name: lint
//	    step: lint
type File struct {
	Data  string       `yaml:"data"` // Catalog directory
	Steps []StepConfig `yaml:"steps"`
}

// StepConfig is one configured step descriptor.
type StepConfig struct {
	Name    string  `yaml:"name,omitempty"` // Optional display name
	Step    string  `yaml:"step"`           // Registry key
	Options Options `yaml:"options,omitempty"`
}

// ConfiguredStep pairs a resolved step with its descriptor.
type ConfiguredStep struct {
	Title string // Display name, falls back to the step name
	Step  Step
}

// ParseFile reads a pipeline configuration file and resolves every step
// against the registry. All configuration errors - unparseable YAML,
// unknown step names, unrecognized options - surface here, before any
// step runs.
func ParseFile(path string, registry *Registry) (string, []ConfiguredStep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, registry)
}

// Parse resolves raw pipeline configuration against the registry.
func Parse(data []byte, registry *Registry) (string, []ConfiguredStep, error) {
	var file File
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.Strict()); err != nil {
		return "", nil, errors.NewConfigError("pipeline", "cannot parse configuration", err)
	}

	if len(file.Steps) == 0 {
		return "", nil, errors.NewConfigError("pipeline", "no steps configured", nil)
	}

	steps := make([]ConfiguredStep, 0, len(file.Steps))
	for _, sc := range file.Steps {
		if sc.Step == "" {
			return "", nil, errors.NewConfigError("pipeline", "step descriptor missing step name", nil)
		}
		step, err := registry.New(sc.Step, sc.Options)
		if err != nil {
			return "", nil, err
		}
		title := sc.Name
		if title == "" {
			title = sc.Step
		}
		steps = append(steps, ConfiguredStep{Title: title, Step: step})
	}

	return file.Data, steps, nil
}
