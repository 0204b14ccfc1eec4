package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/curator/pkg/catalog"
)

// stubStep is a scriptable step for orchestrator tests.
type stubStep struct {
	name   string
	result *Result
	err    error
	ran    *[]string
}

func (s *stubStep) Name() string { return s.name }

func (s *stubStep) Run(_ context.Context, _ *catalog.Catalog) (*Result, error) {
	if s.ran != nil {
		*s.ran = append(*s.ran, s.name)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func stubFactory(name string, result *Result, err error, ran *[]string) Factory {
	return func(_ Options) (Step, error) {
		return &stubStep{name: name, result: result, err: err, ran: ran}, nil
	}
}

func TestRegistry(t *testing.T) {
	t.Run("resolves registered steps", func(t *testing.T) {
		r := NewRegistry()
		r.Register("noop", stubFactory("noop", &Result{}, nil, nil))

		step, err := r.New("noop", nil)
		require.NoError(t, err)
		assert.Equal(t, "noop", step.Name())
	})

	t.Run("unknown step name lists available steps", func(t *testing.T) {
		r := NewRegistry()
		r.Register("lint", stubFactory("lint", &Result{}, nil, nil))

		_, err := r.New("lnit", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lnit")
		assert.Contains(t, err.Error(), "lint")
	})

	t.Run("duplicate registration panics", func(t *testing.T) {
		r := NewRegistry()
		r.Register("dup", stubFactory("dup", &Result{}, nil, nil))
		assert.Panics(t, func() {
			r.Register("dup", stubFactory("dup", &Result{}, nil, nil))
		})
	})

	t.Run("names are sorted", func(t *testing.T) {
		r := NewRegistry()
		r.Register("zeta", stubFactory("zeta", &Result{}, nil, nil))
		r.Register("alpha", stubFactory("alpha", &Result{}, nil, nil))
		assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
	})
}

func TestOptionsDecode(t *testing.T) {
	type config struct {
		Workers int     `yaml:"workers,omitempty"`
		Timeout float64 `yaml:"timeout,omitempty"`
	}

	t.Run("known options decode", func(t *testing.T) {
		var cfg config
		opts := Options{"workers": 4, "timeout": 2.5}
		require.NoError(t, opts.Decode(&cfg))
		assert.Equal(t, 4, cfg.Workers)
		assert.Equal(t, 2.5, cfg.Timeout)
	})

	t.Run("unknown option is rejected", func(t *testing.T) {
		var cfg config
		opts := Options{"wrokers": 4}
		err := opts.Decode(&cfg)
		require.Error(t, err)
	})

	t.Run("empty options are fine", func(t *testing.T) {
		var cfg config
		require.NoError(t, Options(nil).Decode(&cfg))
		assert.Zero(t, cfg.Workers)
	})
}

func TestParse(t *testing.T) {
	registry := NewRegistry()
	registry.Register("noop", stubFactory("noop", &Result{}, nil, nil))

	t.Run("resolves every step at parse time", func(t *testing.T) {
		data := []byte("data: ./data\nsteps:\n- name: first\n  step: noop\n- step: noop\n")
		dir, steps, err := Parse(data, registry)
		require.NoError(t, err)
		assert.Equal(t, "./data", dir)
		require.Len(t, steps, 2)
		assert.Equal(t, "first", steps[0].Title)
		assert.Equal(t, "noop", steps[1].Title) // Falls back to the step name
	})

	t.Run("unknown step fails before anything runs", func(t *testing.T) {
		data := []byte("steps:\n- step: missing\n")
		_, _, err := Parse(data, registry)
		require.Error(t, err)
	})

	t.Run("no steps is an error", func(t *testing.T) {
		_, _, err := Parse([]byte("data: ./data\n"), registry)
		require.Error(t, err)
	})

	t.Run("unparseable yaml", func(t *testing.T) {
		_, _, err := Parse([]byte("steps: [\n"), registry)
		require.Error(t, err)
	})
}

func TestOrchestratorRun(t *testing.T) {
	t.Run("all steps succeed in order", func(t *testing.T) {
		var ran []string
		steps := []ConfiguredStep{
			{Title: "one", Step: &stubStep{name: "one", result: &Result{Touched: 3}, ran: &ran}},
			{Title: "two", Step: &stubStep{name: "two", result: &Result{}, ran: &ran}},
		}

		o := NewOrchestrator(steps)
		assert.Equal(t, StateIdle, o.State())

		report := o.Run(context.Background(), catalog.New())
		assert.Equal(t, StateCompleted, o.State())
		assert.Equal(t, []string{"one", "two"}, ran)
		assert.False(t, report.Failed())
		require.Len(t, report.Steps, 2)
		assert.Equal(t, StepStatusSucceeded, report.Steps[0].Status)
		assert.Equal(t, 3, report.Steps[0].Touched)
	})

	t.Run("step error halts the run", func(t *testing.T) {
		var ran []string
		steps := []ConfiguredStep{
			{Title: "one", Step: &stubStep{name: "one", result: &Result{}, ran: &ran}},
			{Title: "two", Step: &stubStep{name: "two", err: fmt.Errorf("boom"), ran: &ran}},
			{Title: "three", Step: &stubStep{name: "three", result: &Result{}, ran: &ran}},
		}

		o := NewOrchestrator(steps)
		report := o.Run(context.Background(), catalog.New())

		assert.Equal(t, StateFailed, o.State())
		assert.Equal(t, []string{"one", "two"}, ran, "step three must not run")
		assert.True(t, report.Halted)
		assert.Equal(t, "two", report.HaltedStep)
		assert.True(t, report.Failed())

		require.Len(t, report.Steps, 3)
		assert.Equal(t, StepStatusSucceeded, report.Steps[0].Status)
		assert.Equal(t, StepStatusFailed, report.Steps[1].Status)
		assert.Equal(t, StepStatusNotRun, report.Steps[2].Status)
	})

	t.Run("recorded failures keep the run going", func(t *testing.T) {
		var ran []string
		steps := []ConfiguredStep{
			{Title: "checker", Step: &stubStep{name: "checker", result: &Result{Touched: 5, Failures: 2}, ran: &ran}},
			{Title: "after", Step: &stubStep{name: "after", result: &Result{}, ran: &ran}},
		}

		report := NewOrchestrator(steps).Run(context.Background(), catalog.New())
		assert.Equal(t, []string{"checker", "after"}, ran)
		assert.False(t, report.Failed())
		assert.Equal(t, StepStatusWithFailures, report.Steps[0].Status)
	})

	t.Run("fatal result halts the run", func(t *testing.T) {
		var ran []string
		steps := []ConfiguredStep{
			{Title: "linter", Step: &stubStep{name: "linter", result: &Result{Failures: 1, Fatal: true}, ran: &ran}},
			{Title: "after", Step: &stubStep{name: "after", result: &Result{}, ran: &ran}},
		}

		report := NewOrchestrator(steps).Run(context.Background(), catalog.New())
		assert.Equal(t, []string{"linter"}, ran)
		assert.True(t, report.Halted)
		assert.True(t, report.Failed())
		assert.Equal(t, StepStatusFailed, report.Steps[0].Status)
		assert.Equal(t, StepStatusNotRun, report.Steps[1].Status)
	})
}

func TestReportWriteText(t *testing.T) {
	report := &Report{
		Steps: []StepReport{
			{Title: "check URLs", Status: StepStatusSucceeded, Touched: 4},
			{Title: "lint", Status: StepStatusNotRun},
		},
	}

	var sb strings.Builder
	report.WriteText(&sb)
	out := sb.String()
	assert.Contains(t, out, "check URLs: succeeded")
	assert.Contains(t, out, "lint: not-run")
	assert.Contains(t, out, "run completed")
}
