// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/loginprobe/internal/browser/fakesite"
	"github.com/xkilldash9x/loginprobe/internal/config"
	"github.com/xkilldash9x/loginprobe/internal/diagnostics"
	"github.com/xkilldash9x/loginprobe/internal/observability"
	"github.com/xkilldash9x/loginprobe/internal/scenario"
)

const credentialsJSON = `{
	"validUsername": "qa.user@example.com",
	"validPassword": "Corr3ct-Horse",
	"testUsername": "nobody@example.com",
	"invalidPassword": "wrong-horse",
	"invalidEmail": "not-an-email"
}`

// resetForTest silences the global logger and restores injected constructors.
func resetForTest(t *testing.T) {
	t.Helper()
	observability.ResetForTest()
	observability.Initialize(config.LoggerConfig{Level: "fatal", Format: "console", ServiceName: "test"}, zapcore.AddSync(io.Discard))

	origProvisioner, origSink := newProvisioner, newArtifactSink
	t.Cleanup(func() {
		newProvisioner, newArtifactSink = origProvisioner, origSink
		observability.ResetForTest()
	})
}

// testEnv writes a credential file and a config file into a temp dir.
type testEnv struct {
	dir        string
	configPath string
	reportDir  string
	shotDir    string
}

func newTestEnv(t *testing.T, extra string) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "loginprobe.yaml"),
		reportDir:  filepath.Join(dir, "reports"),
		shotDir:    filepath.Join(dir, "screenshots"),
	}
	credPath := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(credPath, []byte(credentialsJSON), 0o600))

	content := fmt.Sprintf(`
credentials:
  path: %s
wait:
  timeout: 300ms
  poll_interval: 5ms
  optional_timeout: 30ms
diagnostics:
  dir: %s
runner:
  report_dir: %s
  launch_rate: 0
%s`, credPath, env.shotDir, env.reportDir, extra)
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0o600))
	return env
}

func useSimulatedSite(opts fakesite.Options) *fakesite.Launcher {
	opts.Users = map[string]fakesite.User{"qa.user@example.com": {Password: "Corr3ct-Horse", DisplayName: "QA User"}}
	launcher := &fakesite.Launcher{Options: opts}
	newProvisioner = func(*config.Config, *zap.Logger) scenario.Provisioner { return launcher }
	return launcher
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "loginprobe "+Version+"\n", out)
}

func TestRootCmd_NoArgs(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "loginprobe drives a browser")
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "list")
}

func TestListCmd(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	for _, sc := range scenario.Catalog() {
		assert.Contains(t, out, sc.Name)
	}

	out, err = execute(t, "list", "--category", "validation")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3, "header plus two validation scenarios")
	assert.NotContains(t, out, "ValidLogin_ShouldRedirectToHome")

	_, err = execute(t, "list", "--category", "perf")
	assert.EqualError(t, err, `unknown category "perf"`)
}

func TestRunCmd_AllScenariosPass(t *testing.T) {
	resetForTest(t)
	env := newTestEnv(t, "")
	launcher := useSimulatedSite(fakesite.Options{CookieBanner: true})

	out, err := execute(t, "run", "--config", env.configPath, "--parallel", "4", "--format", "junit,json,text")
	require.NoError(t, err, out)

	assert.Contains(t, out, "13 passed, 0 failed, 0 skipped")
	assert.Len(t, launcher.Launched(), 13)
	for _, site := range launcher.Launched() {
		assert.True(t, site.Closed())
	}
	for _, name := range []string{"loginprobe.xml", "loginprobe.json", "loginprobe.txt"} {
		assert.FileExists(t, filepath.Join(env.reportDir, name))
	}
	assert.NoDirExists(t, env.shotDir, "no screenshots when everything passes")
}

func TestRunCmd_FailureExitsNonZeroWithScreenshot(t *testing.T) {
	resetForTest(t)
	env := newTestEnv(t, "")
	useSimulatedSite(fakesite.Options{BackRestoresSession: true})

	out, err := execute(t, "run", "--config", env.configPath,
		"--category", "Security", "--report-dir", filepath.Join(env.dir, "override"))
	assert.ErrorIs(t, err, ErrScenariosFailed)

	assert.Contains(t, out, "--- FAIL: SessionExpiry_ShouldNotAllowBackNavigationAfterLogout")
	assert.Contains(t, out, "3 passed, 1 failed, 0 skipped")
	shots, globErr := filepath.Glob(filepath.Join(env.shotDir, "SessionExpiry_ShouldNotAllowBackNavigationAfterLogout_*.png"))
	require.NoError(t, globErr)
	assert.Len(t, shots, 1)
	assert.FileExists(t, filepath.Join(env.dir, "override", "loginprobe.xml"))
	assert.NoDirExists(t, env.reportDir)
}

type recordingSink struct {
	mu    sync.Mutex
	names []string
}

func (s *recordingSink) Put(_ context.Context, name string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, name)
	return "s3://shots/" + name, nil
}

func TestRunCmd_MirrorsScreenshotsWhenBucketConfigured(t *testing.T) {
	resetForTest(t)
	env := newTestEnv(t, `  scenarios: [SessionExpiry_ShouldNotAllowBackNavigationAfterLogout]
`)
	t.Setenv("LOGINPROBE_DIAGNOSTICS_S3_BUCKET", "shots")
	useSimulatedSite(fakesite.Options{BackRestoresSession: true})

	sink := &recordingSink{}
	var gotCfg config.S3Config
	newArtifactSink = func(_ context.Context, cfg config.S3Config) (diagnostics.ArtifactSink, error) {
		gotCfg = cfg
		return sink, nil
	}

	out, err := execute(t, "run", "--config", env.configPath, "--format", "text")
	assert.ErrorIs(t, err, ErrScenariosFailed)
	assert.Equal(t, "shots", gotCfg.Bucket)
	require.Len(t, sink.names, 1)
	assert.True(t, strings.HasPrefix(sink.names[0], "SessionExpiry_ShouldNotAllowBackNavigationAfterLogout_"))
	assert.Contains(t, out, "artifact: s3://shots/"+sink.names[0])
}

func TestRunCmd_RejectsBadSelections(t *testing.T) {
	resetForTest(t)
	env := newTestEnv(t, "")
	launcher := useSimulatedSite(fakesite.Options{})

	_, err := execute(t, "run", "--config", env.configPath, "--scenario", "NoSuchScenario")
	assert.EqualError(t, err, `unknown scenario "NoSuchScenario"`)

	_, err = execute(t, "run", "--config", env.configPath, "--category", "Smoke", "--scenario", "InvalidUsername_ShouldShowError")
	assert.EqualError(t, err, "no scenarios selected")

	_, err = execute(t, "run", "--config", env.configPath, "--format", "sarif")
	assert.EqualError(t, err, "unsupported output format: sarif")

	assert.Empty(t, launcher.Launched())
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	resetForTest(t)
	env := newTestEnv(t, "")
	require.NoError(t, appendToFile(env.configPath, "browser:\n  window_width: -1\n"))

	_, err := execute(t, "run", "--config", env.configPath)
	assert.ErrorContains(t, err, "failed to load or validate config")

	_, err = execute(t, "run", "--config", filepath.Join(env.dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to initialize configuration")
}

func TestApplyRunFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.RunnerCfg.Parallel = 3
	cfg.RunnerCfg.ReportDir = "from-config"

	cmd := newRunCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--headless=false", "--category", "Smoke,Negative"}))
	applyRunFlags(cmd, cfg, optsOf(t, cmd))

	assert.False(t, cfg.Browser().Headless)
	assert.Equal(t, []string{"Smoke", "Negative"}, cfg.Runner().Categories)
	assert.Equal(t, 3, cfg.Runner().Parallel)
	assert.Equal(t, "from-config", cfg.Runner().ReportDir)
}

func TestGetConfigFromContext_Missing(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.EqualError(t, err, "configuration not found in command context")
}

// optsOf rebuilds runOptions from the parsed flag values of a run command.
func optsOf(t *testing.T, cmd *cobra.Command) *runOptions {
	t.Helper()
	flags := cmd.Flags()
	opts := &runOptions{}
	var err error
	opts.categories, err = flags.GetStringSlice("category")
	require.NoError(t, err)
	opts.scenarios, err = flags.GetStringSlice("scenario")
	require.NoError(t, err)
	opts.parallel, err = flags.GetInt("parallel")
	require.NoError(t, err)
	opts.headless, err = flags.GetBool("headless")
	require.NoError(t, err)
	opts.reportDir, err = flags.GetString("report-dir")
	require.NoError(t, err)
	return opts
}

func appendToFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(text)
	return err
}
