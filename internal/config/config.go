// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Target() TargetConfig
	Browser() BrowserConfig
	Wait() WaitConfig
	Credentials() CredentialsConfig
	Diagnostics() DiagnosticsConfig
	Runner() RunnerConfig

	// Browser Setters
	SetBrowserHeadless(bool)

	// Runner Setters
	SetRunnerParallel(int)
	SetRunnerCategories([]string)
	SetRunnerScenarios([]string)
	SetRunnerReportDir(string)
}

// Config holds the entire application configuration.
// Fields are exported for unmarshaling; callers should prefer the getters.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	TargetCfg      TargetConfig      `mapstructure:"target" yaml:"target"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	WaitCfg        WaitConfig        `mapstructure:"wait" yaml:"wait"`
	CredentialsCfg CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	DiagnosticsCfg DiagnosticsConfig `mapstructure:"diagnostics" yaml:"diagnostics"`
	RunnerCfg      RunnerConfig      `mapstructure:"runner" yaml:"runner"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Target() TargetConfig           { return c.TargetCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Wait() WaitConfig               { return c.WaitCfg }
func (c *Config) Credentials() CredentialsConfig { return c.CredentialsCfg }
func (c *Config) Diagnostics() DiagnosticsConfig { return c.DiagnosticsCfg }
func (c *Config) Runner() RunnerConfig           { return c.RunnerCfg }

func (c *Config) SetBrowserHeadless(b bool)         { c.BrowserCfg.Headless = b }
func (c *Config) SetRunnerParallel(n int)           { c.RunnerCfg.Parallel = n }
func (c *Config) SetRunnerCategories(cats []string) { c.RunnerCfg.Categories = cats }
func (c *Config) SetRunnerScenarios(names []string) { c.RunnerCfg.Scenarios = names }
func (c *Config) SetRunnerReportDir(dir string)     { c.RunnerCfg.ReportDir = dir }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// TargetConfig names the web property under test.
type TargetConfig struct {
	// EntryURL is navigated to as soon as a session is provisioned.
	EntryURL string `mapstructure:"entry_url" yaml:"entry_url"`
}

// BrowserConfig controls how browser sessions are launched.
type BrowserConfig struct {
	Headless     bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath     string        `mapstructure:"exec_path" yaml:"exec_path"`
	WindowWidth  int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int           `mapstructure:"window_height" yaml:"window_height"`
	NoSandbox    bool          `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	Stealth      bool          `mapstructure:"stealth" yaml:"stealth"`
	Args         []string      `mapstructure:"args" yaml:"args"`
	ImplicitWait time.Duration `mapstructure:"implicit_wait" yaml:"implicit_wait"`
	// ActionTimeout bounds a single protocol call (click, type, evaluate).
	ActionTimeout    time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	ProvisionTimeout time.Duration `mapstructure:"provision_timeout" yaml:"provision_timeout"`
	Persona          PersonaConfig `mapstructure:"persona" yaml:"persona"`
}

// PersonaConfig describes the browser identity presented to the target.
type PersonaConfig struct {
	UserAgent string   `mapstructure:"user_agent" yaml:"user_agent"`
	Platform  string   `mapstructure:"platform" yaml:"platform"`
	Languages []string `mapstructure:"languages" yaml:"languages"`
	Timezone  string   `mapstructure:"timezone" yaml:"timezone"`
	Locale    string   `mapstructure:"locale" yaml:"locale"`
}

// WaitConfig holds the explicit wait budgets used by page objects.
type WaitConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// OptionalTimeout bounds lookups for elements that may legitimately never appear.
	OptionalTimeout time.Duration `mapstructure:"optional_timeout" yaml:"optional_timeout"`
}

// CredentialsConfig points at the test identity file.
type CredentialsConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DiagnosticsConfig controls failure screenshots.
type DiagnosticsConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Dir     string   `mapstructure:"dir" yaml:"dir"`
	S3      S3Config `mapstructure:"s3" yaml:"s3"`
}

// S3Config configures the optional screenshot mirror. An empty bucket disables it.
type S3Config struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix"`
	Region          string `mapstructure:"region" yaml:"region"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
}

// RunnerConfig drives the suite runner used by the CLI.
type RunnerConfig struct {
	Parallel int `mapstructure:"parallel" yaml:"parallel"`
	// LaunchRate is the number of browser launches allowed per second.
	LaunchRate float64  `mapstructure:"launch_rate" yaml:"launch_rate"`
	Categories []string `mapstructure:"categories" yaml:"categories"`
	// Scenarios restricts the run to the named scenarios.
	Scenarios []string `mapstructure:"scenarios" yaml:"scenarios"`
	ReportDir string   `mapstructure:"report_dir" yaml:"report_dir"`
}

// NewDefaultConfig returns a configuration populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "loginprobe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Target --
	v.SetDefault("target.entry_url", "https://www.hudl.com/en_gb/")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.implicit_wait", "0s")
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.provision_timeout", "60s")
	v.SetDefault("browser.persona.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	v.SetDefault("browser.persona.platform", "Win32")
	v.SetDefault("browser.persona.languages", []string{"en-GB", "en"})
	v.SetDefault("browser.persona.timezone", "Europe/London")
	v.SetDefault("browser.persona.locale", "en-GB")

	// -- Wait --
	v.SetDefault("wait.timeout", "5s")
	v.SetDefault("wait.poll_interval", "250ms")
	v.SetDefault("wait.optional_timeout", "2s")

	// -- Credentials --
	v.SetDefault("credentials.path", "testdata/credentials.json")

	// -- Diagnostics --
	v.SetDefault("diagnostics.enabled", true)
	v.SetDefault("diagnostics.dir", "screenshots")
	v.SetDefault("diagnostics.s3.bucket", "")
	v.SetDefault("diagnostics.s3.prefix", "screenshots/")
	v.SetDefault("diagnostics.s3.region", "us-east-1")
	v.SetDefault("diagnostics.s3.use_path_style", false)

	// -- Runner --
	v.SetDefault("runner.parallel", 1)
	v.SetDefault("runner.launch_rate", 2.0)
	v.SetDefault("runner.categories", []string{})
	v.SetDefault("runner.scenarios", []string{})
	v.SetDefault("runner.report_dir", "reports")
}

// NewConfigFromViper unmarshals, expands and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Secrets come from the environment rather than the config file.
	_ = v.BindEnv("diagnostics.s3.access_key_id", "LOGINPROBE_S3_ACCESS_KEY_ID")
	_ = v.BindEnv("diagnostics.s3.secret_access_key", "LOGINPROBE_S3_SECRET_ACCESS_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every filesystem path.
func (c *Config) expandPaths() error {
	paths := map[string]*string{
		"credentials.path":  &c.CredentialsCfg.Path,
		"diagnostics.dir":   &c.DiagnosticsCfg.Dir,
		"runner.report_dir": &c.RunnerCfg.ReportDir,
		"logger.log_file":   &c.LoggerCfg.LogFile,
		"browser.exec_path": &c.BrowserCfg.ExecPath,
	}
	for key, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %s: %w", key, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.TargetCfg.EntryURL == "" {
		return fmt.Errorf("target.entry_url is a required configuration field")
	}
	if c.BrowserCfg.WindowWidth <= 0 || c.BrowserCfg.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive integers")
	}
	if c.BrowserCfg.ImplicitWait < 0 {
		return fmt.Errorf("browser.implicit_wait must not be negative")
	}
	if c.BrowserCfg.ActionTimeout <= 0 {
		return fmt.Errorf("browser.action_timeout must be positive")
	}
	if c.WaitCfg.Timeout <= 0 {
		return fmt.Errorf("wait.timeout must be positive")
	}
	if c.WaitCfg.PollInterval <= 0 {
		return fmt.Errorf("wait.poll_interval must be positive")
	}
	if c.WaitCfg.PollInterval > c.WaitCfg.Timeout {
		return fmt.Errorf("wait.poll_interval must not exceed wait.timeout")
	}
	if c.WaitCfg.OptionalTimeout < 0 {
		return fmt.Errorf("wait.optional_timeout must not be negative")
	}
	if c.CredentialsCfg.Path == "" {
		return fmt.Errorf("credentials.path is a required configuration field")
	}
	if c.DiagnosticsCfg.Enabled && c.DiagnosticsCfg.Dir == "" {
		return fmt.Errorf("diagnostics.dir is required when diagnostics are enabled")
	}
	if c.RunnerCfg.Parallel <= 0 {
		return fmt.Errorf("runner.parallel must be a positive integer")
	}
	if c.RunnerCfg.LaunchRate <= 0 {
		return fmt.Errorf("runner.launch_rate must be positive")
	}
	for _, cat := range c.RunnerCfg.Categories {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("runner.categories must not contain empty entries")
		}
	}
	return nil
}
