// cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/loginprobe/internal/browser/session"
	"github.com/xkilldash9x/loginprobe/internal/config"
	"github.com/xkilldash9x/loginprobe/internal/diagnostics"
	"github.com/xkilldash9x/loginprobe/internal/observability"
	"github.com/xkilldash9x/loginprobe/internal/reporting"
	"github.com/xkilldash9x/loginprobe/internal/runner"
	"github.com/xkilldash9x/loginprobe/internal/scenario"
)

// Function variables for dependency injection in tests.
var (
	newProvisioner = func(cfg *config.Config, logger *zap.Logger) scenario.Provisioner {
		return session.NewLauncher(cfg.Browser(), cfg.Target().EntryURL, logger)
	}
	newArtifactSink = func(ctx context.Context, cfg config.S3Config) (diagnostics.ArtifactSink, error) {
		return diagnostics.NewS3Sink(ctx, cfg)
	}
)

type runOptions struct {
	categories []string
	scenarios  []string
	parallel   int
	headless   bool
	reportDir  string
	formats    []string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run login scenarios against the target site",
		Long: `Run provisions a fresh browser for every selected scenario, executes it,
captures a screenshot on failure and writes reports to the report directory.
The command exits non-zero when any scenario fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg, opts)
			return runScenarios(cmd, cfg, opts.formats)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&opts.categories, "category", nil, "only run scenarios in these categories (Smoke, Security, Functional, Negative, Validation)")
	flags.StringSliceVar(&opts.scenarios, "scenario", nil, "only run the named scenarios")
	flags.IntVarP(&opts.parallel, "parallel", "p", 1, "number of scenarios to run at once")
	flags.BoolVar(&opts.headless, "headless", true, "run the browser without a window")
	flags.StringVar(&opts.reportDir, "report-dir", "", "directory for report files")
	flags.StringSliceVar(&opts.formats, "format", []string{"junit", "json"}, "report formats to write (junit, json, text)")
	return cmd
}

// applyRunFlags overrides configuration only with flags the user actually set.
func applyRunFlags(cmd *cobra.Command, cfg config.Interface, opts *runOptions) {
	flags := cmd.Flags()
	if flags.Changed("category") {
		cfg.SetRunnerCategories(opts.categories)
	}
	if flags.Changed("scenario") {
		cfg.SetRunnerScenarios(opts.scenarios)
	}
	if flags.Changed("parallel") {
		cfg.SetRunnerParallel(opts.parallel)
	}
	if flags.Changed("headless") {
		cfg.SetBrowserHeadless(opts.headless)
	}
	if flags.Changed("report-dir") {
		cfg.SetRunnerReportDir(opts.reportDir)
	}
}

func runScenarios(cmd *cobra.Command, cfg *config.Config, formats []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	selected, err := runner.Select(scenario.Catalog(), cfg.Runner().Categories, cfg.Runner().Scenarios)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return errors.New("no scenarios selected")
	}
	for _, format := range formats {
		if !isFormat(format) {
			return fmt.Errorf("unsupported output format: %s", format)
		}
	}

	var sink diagnostics.ArtifactSink
	if cfg.Diagnostics().S3.Bucket != "" {
		s, err := newArtifactSink(ctx, cfg.Diagnostics().S3)
		if err != nil {
			return fmt.Errorf("failed to configure screenshot mirror: %w", err)
		}
		sink = s
	}

	capturer := diagnostics.NewCapturer(cfg.Diagnostics(), sink, logger)
	provisioner := runner.Pace(newProvisioner(cfg, logger), cfg.Runner().LaunchRate)
	suite := scenario.NewSuite(cfg, provisioner, capturer, logger)
	summary := runner.New(suite, cfg.Runner(), logger).Run(ctx, selected)

	reporting.Render(cmd.OutOrStdout(), summary.Outcomes)
	if err := writeReports(cfg.Runner().ReportDir, formats, summary, logger); err != nil {
		return err
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !summary.OK() {
		return ErrScenariosFailed
	}
	return nil
}

func writeReports(dir string, formats []string, summary *runner.Summary, logger *zap.Logger) error {
	if len(formats) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	for _, format := range formats {
		path := filepath.Join(dir, "loginprobe"+reporting.Extension(format))
		r, err := reporting.New(format, path, "loginprobe", logger)
		if err != nil {
			return err
		}
		for _, o := range summary.Outcomes {
			if err := r.Write(o); err != nil {
				r.Close()
				return fmt.Errorf("failed to write %s report: %w", format, err)
			}
		}
		if err := r.Close(); err != nil {
			return err
		}
		logger.Info("Report written.", zap.String("format", format), zap.String("path", path), zap.String("run_id", summary.RunID))
	}
	return nil
}

func isFormat(format string) bool {
	for _, f := range reporting.Formats {
		if f == format {
			return true
		}
	}
	return false
}
