// Package builtin wires the standard steps into a pipeline registry.
// It exists so the pipeline package itself stays free of step
// dependencies: importing builtin gives a caller the full standard step
// set, while custom tooling can assemble its own registry from the step
// packages directly.
package builtin

import (
	"github.com/openshelf/curator/pkg/pipeline"
	"github.com/openshelf/curator/pkg/pipeline/lint"
	"github.com/openshelf/curator/pkg/pipeline/repometa"
	"github.com/openshelf/curator/pkg/pipeline/urlcheck"
)

// Registry returns a registry with every standard step registered.
func Registry() *pipeline.Registry {
	r := pipeline.NewRegistry()
	r.Register(urlcheck.StepName, urlcheck.Factory)
	r.Register(repometa.StepName, repometa.Factory)
	r.Register(lint.StepName, lint.Factory)
	return r
}
