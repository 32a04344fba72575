// internal/runner/runner.go
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/loginprobe/internal/browser"
	"github.com/xkilldash9x/loginprobe/internal/config"
	"github.com/xkilldash9x/loginprobe/internal/outcome"
	"github.com/xkilldash9x/loginprobe/internal/scenario"
)

// Executor runs a single scenario. *scenario.Suite satisfies it.
type Executor interface {
	Execute(ctx context.Context, sc scenario.Scenario) *outcome.Outcome
}

// Summary is the result of one run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Outcomes  []*outcome.Outcome
}

// Counts tallies outcomes by status.
func (s *Summary) Counts() (passed, failed, skipped int) {
	for _, o := range s.Outcomes {
		switch o.Status {
		case outcome.Passed:
			passed++
		case outcome.Failed:
			failed++
		case outcome.Skipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// OK reports whether nothing failed.
func (s *Summary) OK() bool {
	_, failed, _ := s.Counts()
	return failed == 0
}

// Runner executes scenarios concurrently, each in its own session.
type Runner struct {
	exec     Executor
	parallel int
	logger   *zap.Logger
}

// New creates a runner. Parallelism below one is treated as one.
func New(exec Executor, cfg config.RunnerConfig, logger *zap.Logger) *Runner {
	parallel := cfg.Parallel
	if parallel < 1 {
		parallel = 1
	}
	return &Runner{exec: exec, parallel: parallel, logger: logger.Named("runner")}
}

// Select filters catalog by category and name. Empty filters select everything.
// Unknown categories or names are an error so typos do not silently run nothing.
func Select(catalog []scenario.Scenario, categories, names []string) ([]scenario.Scenario, error) {
	wantCat := map[scenario.Category]bool{}
	for _, name := range categories {
		c, ok := scenario.ParseCategory(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		wantCat[c] = true
	}

	known := map[string]bool{}
	for _, sc := range catalog {
		known[sc.Name] = true
	}
	wantName := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if !known[name] {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		wantName[name] = true
	}

	var selected []scenario.Scenario
	for _, sc := range catalog {
		if len(wantCat) > 0 && !wantCat[sc.Category] {
			continue
		}
		if len(wantName) > 0 && !wantName[sc.Name] {
			continue
		}
		selected = append(selected, sc)
	}
	return selected, nil
}

// Run executes scenarios and returns their outcomes in input order. Scenarios
// that had not started when ctx was canceled are reported as skipped.
func (r *Runner) Run(ctx context.Context, scenarios []scenario.Scenario) *Summary {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Outcomes:  make([]*outcome.Outcome, len(scenarios)),
	}
	log := r.logger.With(zap.String("run_id", summary.RunID))
	log.Info("Starting run.", zap.Int("scenarios", len(scenarios)), zap.Int("parallel", r.parallel))

	var g errgroup.Group
	g.SetLimit(r.parallel)
	for i, sc := range scenarios {
		if ctx.Err() != nil {
			summary.Outcomes[i] = skipped(sc, ctx.Err())
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				summary.Outcomes[i] = skipped(sc, ctx.Err())
				return nil
			}
			o := r.exec.Execute(ctx, sc)
			summary.Outcomes[i] = o
			log.Info("Scenario finished.",
				zap.String("scenario", sc.Name),
				zap.String("status", string(o.Status)),
				zap.Duration("duration", o.Duration),
			)
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = time.Since(summary.StartedAt)
	passed, failed, skippedN := summary.Counts()
	log.Info("Run complete.",
		zap.Int("passed", passed),
		zap.Int("failed", failed),
		zap.Int("skipped", skippedN),
		zap.Duration("duration", summary.Duration),
	)
	return summary
}

func skipped(sc scenario.Scenario, cause error) *outcome.Outcome {
	return &outcome.Outcome{
		TestName:    sc.Name,
		Category:    string(sc.Category),
		Description: sc.Description,
		Status:      outcome.Skipped,
		StartedAt:   time.Now(),
		Messages:    []string{fmt.Sprintf("not started: %v", cause)},
	}
}

// Provisioner is the launch source shared with the scenario suite.
type Provisioner = scenario.Provisioner

// pacedProvisioner limits how fast browsers are launched.
type pacedProvisioner struct {
	inner   Provisioner
	limiter *rate.Limiter
}

// Pace wraps p so that at most perSecond launches start each second. A
// non-positive rate disables pacing.
func Pace(p Provisioner, perSecond float64) Provisioner {
	if perSecond <= 0 {
		return p
	}
	return &pacedProvisioner{inner: p, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (p *pacedProvisioner) Provision(ctx context.Context) (browser.Driver, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for a launch slot: %w", err)
	}
	return p.inner.Provision(ctx)
}
