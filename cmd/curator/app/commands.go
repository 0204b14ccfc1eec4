package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openshelf/curator/pkg/catalog"
	"github.com/openshelf/curator/pkg/errors"
	"github.com/openshelf/curator/pkg/logging"
	"github.com/openshelf/curator/pkg/pipeline"
	"github.com/openshelf/curator/pkg/pipeline/lint"
)

// NewRunCommand creates the run command: execute a configured pipeline
// against a catalog directory.
func (a *App) NewRunCommand() *cobra.Command {
	var (
		dataDir string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "run <pipeline.yaml>",
		Short: "Run a processing pipeline against the catalog",
		Long: `Run parses a pipeline configuration file, resolves its steps, and
executes them strictly in sequence against the catalog.

The catalog directory comes from the pipeline file's data field unless
overridden with --data. After the run the catalog is persisted back to
disk, so partial progress from a halted run survives and a re-run
resumes where it left off.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), a.logger)

			dir, steps, err := pipeline.ParseFile(args[0], a.registry)
			if err != nil {
				return err
			}
			if dataDir != "" {
				dir = dataDir
			} else if a.config.DataDir != "" {
				dir = a.config.DataDir
			}
			if dir == "" {
				return errors.NewConfigError("pipeline", "no catalog directory: set data in the pipeline file or pass --data", nil)
			}

			cat, err := catalog.Load(dir, catalog.WithoutStrictValidation())
			if err != nil {
				return err
			}

			report := pipeline.NewOrchestrator(steps).Run(ctx, cat)
			report.WriteText(cmd.OutOrStdout())

			if !dryRun {
				if err := cat.Save(dir); err != nil {
					return err
				}
			}

			if report.Failed() {
				return fmt.Errorf("pipeline run failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "", "catalog directory (overrides the pipeline file)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the pipeline without persisting the catalog")

	return cmd
}

// NewValidateCommand creates the validate command: structural invariant
// checks only, no editorial policy.
func (a *App) NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>",
		Short: "Validate catalog structure and referential integrity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0], catalog.WithoutStrictValidation())
			if err != nil {
				return err
			}

			violations := cat.Validate()
			for _, v := range violations {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d violation(s)", len(violations))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "catalog valid: %d entries, %d tags, %d platforms\n",
				cat.Softwares().Len(), cat.Tags().Len(), cat.Platforms().Len())
			return nil
		},
	}
}

// NewLintCommand creates the lint command: the full compliance linter,
// structural invariants plus editorial policy.
func (a *App) NewLintCommand() *cobra.Command {
	var cfg lint.Config

	cmd := &cobra.Command{
		Use:   "lint <dir>",
		Short: "Lint the catalog against structural and editorial rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithLogger(cmd.Context(), a.logger)

			cat, err := catalog.Load(args[0], catalog.WithoutStrictValidation())
			if err != nil {
				return err
			}

			result, err := lint.New(cfg).Run(ctx, cat)
			if err != nil {
				return err
			}

			for _, v := range result.Violations {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			if len(result.Violations) > 0 {
				return fmt.Errorf("%d violation(s)", len(result.Violations))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.MinDescriptionLength, "min-description", 0, "minimum description length")
	cmd.Flags().IntVar(&cfg.MaxDescriptionLength, "max-description", 0, "maximum description length")

	return cmd
}

// NewStepsCommand creates the steps command, listing registered step
// names.
func (a *App) NewStepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List available pipeline steps",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range a.registry.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("curator %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit: %s\n", a.commit)
				cmd.Printf("  built:  %s\n", a.date)
			}
		},
	}
}
