// File: internal/config/config_test.go
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "loginprobe", cfg.Logger().ServiceName)
	assert.Equal(t, "https://www.hudl.com/en_gb/", cfg.Target().EntryURL)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 1920, cfg.Browser().WindowWidth)
	assert.Equal(t, time.Duration(0), cfg.Browser().ImplicitWait)
	assert.Equal(t, 10*time.Second, cfg.Browser().ActionTimeout)
	assert.Equal(t, []string{"en-GB", "en"}, cfg.Browser().Persona.Languages)
	assert.Equal(t, 5*time.Second, cfg.Wait().Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Wait().PollInterval)
	assert.Equal(t, "testdata/credentials.json", cfg.Credentials().Path)
	assert.Equal(t, "screenshots", cfg.Diagnostics().Dir)
	assert.Empty(t, cfg.Diagnostics().S3.Bucket)
	assert.Equal(t, 1, cfg.Runner().Parallel)

	require.NoError(t, cfg.Validate(), "defaults must always validate")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing entry url", func(c *Config) { c.TargetCfg.EntryURL = "" }, "target.entry_url"},
		{"zero window", func(c *Config) { c.BrowserCfg.WindowWidth = 0 }, "browser.window_width"},
		{"negative implicit wait", func(c *Config) { c.BrowserCfg.ImplicitWait = -time.Second }, "browser.implicit_wait"},
		{"zero action timeout", func(c *Config) { c.BrowserCfg.ActionTimeout = 0 }, "browser.action_timeout"},
		{"zero wait timeout", func(c *Config) { c.WaitCfg.Timeout = 0 }, "wait.timeout must be positive"},
		{"zero poll interval", func(c *Config) { c.WaitCfg.PollInterval = 0 }, "wait.poll_interval must be positive"},
		{"poll above timeout", func(c *Config) { c.WaitCfg.PollInterval = time.Minute }, "must not exceed"},
		{"missing credentials path", func(c *Config) { c.CredentialsCfg.Path = "" }, "credentials.path"},
		{"diagnostics without dir", func(c *Config) { c.DiagnosticsCfg.Dir = "" }, "diagnostics.dir"},
		{"zero parallel", func(c *Config) { c.RunnerCfg.Parallel = 0 }, "runner.parallel"},
		{"zero launch rate", func(c *Config) { c.RunnerCfg.LaunchRate = 0 }, "runner.launch_rate"},
		{"blank category", func(c *Config) { c.RunnerCfg.Categories = []string{"Smoke", " "} }, "runner.categories"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	t.Run("diagnostics disabled does not need a dir", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.DiagnosticsCfg.Enabled = false
		cfg.DiagnosticsCfg.Dir = ""
		assert.NoError(t, cfg.Validate())
	})
}

// -- Viper Integration Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("file values override defaults", func(t *testing.T) {
		yaml := []byte(`
target:
  entry_url: "http://localhost:8080/"
browser:
  headless: false
  implicit_wait: 2s
wait:
  timeout: 8s
  poll_interval: 100ms
runner:
  parallel: 3
  categories: ["Smoke", "Negative"]
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yaml)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:8080/", cfg.Target().EntryURL)
		assert.False(t, cfg.Browser().Headless)
		assert.Equal(t, 2*time.Second, cfg.Browser().ImplicitWait)
		assert.Equal(t, 8*time.Second, cfg.Wait().Timeout)
		assert.Equal(t, 100*time.Millisecond, cfg.Wait().PollInterval)
		assert.Equal(t, 3, cfg.Runner().Parallel)
		assert.Equal(t, []string{"Smoke", "Negative"}, cfg.Runner().Categories)
		// Untouched sections keep their defaults.
		assert.Equal(t, "screenshots", cfg.Diagnostics().Dir)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("runner.parallel", 0)

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("home-relative paths are expanded", func(t *testing.T) {
		home, err := homedir.Dir()
		if err != nil {
			t.Skip("no home directory available")
		}
		v := viper.New()
		SetDefaults(v)
		v.Set("credentials.path", "~/qa/credentials.json")

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "qa", "credentials.json"), cfg.Credentials().Path)
	})

	t.Run("s3 secrets are read from the environment", func(t *testing.T) {
		t.Setenv("LOGINPROBE_S3_ACCESS_KEY_ID", "AKIDEXAMPLE")
		t.Setenv("LOGINPROBE_S3_SECRET_ACCESS_KEY", "secret")
		v := viper.New()
		SetDefaults(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "AKIDEXAMPLE", cfg.Diagnostics().S3.AccessKeyID)
		assert.Equal(t, "secret", cfg.Diagnostics().S3.SecretAccessKey)
	})
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	var iface Interface = cfg

	iface.SetBrowserHeadless(false)
	iface.SetRunnerParallel(4)
	iface.SetRunnerCategories([]string{"Security"})
	iface.SetRunnerScenarios([]string{"ValidLogin_ShouldRedirectToHome"})
	iface.SetRunnerReportDir(os.TempDir())

	assert.False(t, iface.Browser().Headless)
	assert.Equal(t, 4, iface.Runner().Parallel)
	assert.Equal(t, []string{"Security"}, iface.Runner().Categories)
	assert.Equal(t, []string{"ValidLogin_ShouldRedirectToHome"}, iface.Runner().Scenarios)
	assert.Equal(t, os.TempDir(), iface.Runner().ReportDir)
}
