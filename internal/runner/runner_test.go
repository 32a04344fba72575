// internal/runner/runner_test.go
package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/loginprobe/internal/browser/fakesite"
	"github.com/xkilldash9x/loginprobe/internal/config"
	"github.com/xkilldash9x/loginprobe/internal/outcome"
	"github.com/xkilldash9x/loginprobe/internal/scenario"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countingExecutor records peak concurrency and fails scenarios named in fail.
type countingExecutor struct {
	delay    time.Duration
	fail     map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32

	mu  sync.Mutex
	ran []string
}

func (c *countingExecutor) Execute(ctx context.Context, sc scenario.Scenario) *outcome.Outcome {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(c.delay)

	c.mu.Lock()
	c.ran = append(c.ran, sc.Name)
	c.mu.Unlock()

	status := outcome.Passed
	if c.fail[sc.Name] {
		status = outcome.Failed
	}
	return &outcome.Outcome{TestName: sc.Name, Status: status}
}

func scenarios(names ...string) []scenario.Scenario {
	out := make([]scenario.Scenario, len(names))
	for i, n := range names {
		out[i] = scenario.Scenario{Name: n, Category: scenario.Smoke}
	}
	return out
}

func TestRunner_RespectsParallelLimitAndOrder(t *testing.T) {
	exec := &countingExecutor{delay: 20 * time.Millisecond, fail: map[string]bool{"c": true}}
	r := New(exec, config.RunnerConfig{Parallel: 2}, zap.NewNop())

	summary := r.Run(context.Background(), scenarios("a", "b", "c", "d", "e"))

	require.Len(t, summary.Outcomes, 5)
	for i, name := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, name, summary.Outcomes[i].TestName)
	}
	assert.LessOrEqual(t, exec.peak.Load(), int32(2))
	assert.NotEmpty(t, summary.RunID)

	passed, failed, skipped := summary.Counts()
	assert.Equal(t, 4, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 0, skipped)
	assert.False(t, summary.OK())
}

func TestRunner_ParallelBelowOneRunsSequentially(t *testing.T) {
	exec := &countingExecutor{delay: 5 * time.Millisecond}
	r := New(exec, config.RunnerConfig{Parallel: 0}, zap.NewNop())

	summary := r.Run(context.Background(), scenarios("a", "b", "c"))

	assert.Equal(t, int32(1), exec.peak.Load())
	assert.True(t, summary.OK())
}

func TestRunner_CanceledRunSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &countingExecutor{}
	r := New(exec, config.RunnerConfig{Parallel: 1}, zap.NewNop())

	summary := r.Run(ctx, scenarios("a", "b"))

	assert.Empty(t, exec.ran)
	_, _, skipped := summary.Counts()
	assert.Equal(t, 2, skipped)
	assert.Contains(t, summary.Outcomes[0].Messages[0], "context canceled")
	assert.True(t, summary.OK(), "skips are not failures")
}

func TestSelect(t *testing.T) {
	catalog := scenario.Catalog()

	all, err := Select(catalog, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(catalog))

	smoke, err := Select(catalog, []string{"smoke"}, nil)
	require.NoError(t, err)
	assert.Len(t, smoke, 3)

	both, err := Select(catalog, []string{"Negative", "Validation"}, []string{"InvalidUsername_ShouldShowError", "ValidLogin_ShouldRedirectToHome"})
	require.NoError(t, err)
	require.Len(t, both, 1, "filters intersect")
	assert.Equal(t, "InvalidUsername_ShouldShowError", both[0].Name)

	_, err = Select(catalog, []string{"perf"}, nil)
	assert.EqualError(t, err, `unknown category "perf"`)

	_, err = Select(catalog, nil, []string{"NoSuchScenario"})
	assert.EqualError(t, err, `unknown scenario "NoSuchScenario"`)
}

func TestPace(t *testing.T) {
	launcher := &fakesite.Launcher{}
	assert.Same(t, launcher, Pace(launcher, 0), "non-positive rate disables pacing")

	paced := Pace(launcher, 20)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := paced.Provision(context.Background())
		require.NoError(t, err)
	}
	// The first launch is immediate, the next two wait 50ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Len(t, launcher.Launched(), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := paced.Provision(ctx)
	assert.Error(t, err)
	assert.Len(t, launcher.Launched(), 3)
}

func TestRunner_EndToEndAgainstSimulatedSite(t *testing.T) {
	dir := t.TempDir()
	credPath := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(credPath, []byte(`{
		"validUsername": "qa.user@example.com",
		"validPassword": "Corr3ct-Horse",
		"testUsername": "nobody@example.com",
		"invalidPassword": "wrong-horse",
		"invalidEmail": "not-an-email"
	}`), 0o600))

	cfg := config.NewDefaultConfig()
	cfg.CredentialsCfg.Path = credPath
	cfg.WaitCfg = config.WaitConfig{Timeout: 300 * time.Millisecond, PollInterval: 5 * time.Millisecond, OptionalTimeout: 30 * time.Millisecond}
	cfg.DiagnosticsCfg.Enabled = false

	launcher := &fakesite.Launcher{Options: fakesite.Options{
		Users: map[string]fakesite.User{"qa.user@example.com": {Password: "Corr3ct-Horse", DisplayName: "QA User"}},
	}}
	logger := zaptest.NewLogger(t)
	suite := scenario.NewSuite(cfg, Pace(launcher, 1000), nil, logger)

	selected, err := Select(scenario.Catalog(), []string{"Smoke", "Validation"}, nil)
	require.NoError(t, err)
	summary := New(suite, config.RunnerConfig{Parallel: 3}, logger).Run(context.Background(), selected)

	require.Len(t, summary.Outcomes, 5)
	for _, o := range summary.Outcomes {
		assert.Equal(t, outcome.Passed, o.Status, "%s: %s", o.TestName, o.Summary())
		assert.NotEmpty(t, o.Category)
	}
	for _, site := range launcher.Launched() {
		assert.True(t, site.Closed())
	}
}
