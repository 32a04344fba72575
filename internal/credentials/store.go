// Package credentials loads the test identities used by the login scenarios.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
)

var (
	// ErrConfigurationNotFound means the credential file does not exist.
	ErrConfigurationNotFound = errors.New("credentials: configuration not found")
	// ErrConfigurationParse means the file exists but does not hold a complete credential set.
	ErrConfigurationParse = errors.New("credentials: configuration could not be parsed")
)

// json matches keys case-insensitively, so both validUsername and ValidUsername load.
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	CaseSensitive:          false,
}.Froze()

// Config is one set of test identities. It is never modified after Load returns
// and may be shared between goroutines.
type Config struct {
	ValidUsername   string `json:"validUsername"`
	ValidPassword   string `json:"validPassword"`
	TestUsername    string `json:"testUsername"`
	InvalidPassword string `json:"invalidPassword"`
	InvalidEmail    string `json:"invalidEmail"`
}

// Load reads and validates the credential file at path. A leading ~ is expanded.
func Load(path string) (Config, error) {
	resolved, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigurationNotFound, path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigurationNotFound, resolved)
		}
		return Config{}, fmt.Errorf("credentials: reading %s: %w", resolved, err)
	}

	return Parse(data)
}

// Parse decodes a credential document. Every field must be present and non-empty.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigurationParse, err)
	}
	if missing := cfg.missingFields(); len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: missing %s", ErrConfigurationParse, strings.Join(missing, ", "))
	}
	return cfg, nil
}

func (c Config) missingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"validUsername", c.ValidUsername},
		{"validPassword", c.ValidPassword},
		{"testUsername", c.TestUsername},
		{"invalidPassword", c.InvalidPassword},
		{"invalidEmail", c.InvalidEmail},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// String hides passwords so a Config can be logged.
func (c Config) String() string {
	return fmt.Sprintf("Config{ValidUsername:%q TestUsername:%q InvalidEmail:%q ValidPassword:<redacted> InvalidPassword:<redacted>}",
		c.ValidUsername, c.TestUsername, c.InvalidEmail)
}
