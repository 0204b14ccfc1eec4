package pipeline

import (
	"fmt"
	"sort"

	"github.com/openshelf/curator/pkg/errors"
)

// Registry maps step names to factories. It is populated explicitly by
// the caller rather than through package init side effects, so the set
// of available steps is always visible at the wiring site.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under a step name. Registering the same name
// twice is a programming error and panics.
func (r *Registry) Register(name string, factory Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("pipeline: step %q registered twice", name))
	}
	r.factories[name] = factory
}

// Names returns all registered step names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New resolves a step name and constructs the step with its options.
func (r *Registry) New(name string, options Options) (Step, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.NewConfigError("pipeline",
			fmt.Sprintf("unknown step %q (available: %v)", name, r.Names()), nil)
	}
	step, err := factory(options)
	if err != nil {
		return nil, errors.NewConfigError("pipeline",
			fmt.Sprintf("invalid options for step %q", name), err)
	}
	return step, nil
}
