package credentials

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
  "validUsername": "qa.user@example.com",
  "validPassword": "Corr3ct-Horse",
  "testUsername": "nobody@example.com",
  "invalidPassword": "wrong-password",
  "invalidEmail": "not-an-email"
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads every field", func(t *testing.T) {
		cfg, err := Load(writeFile(t, validDoc))
		require.NoError(t, err)

		want := Config{
			ValidUsername:   "qa.user@example.com",
			ValidPassword:   "Corr3ct-Horse",
			TestUsername:    "nobody@example.com",
			InvalidPassword: "wrong-password",
			InvalidEmail:    "not-an-email",
		}
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("accepts capitalized field names", func(t *testing.T) {
		doc := `{"ValidUsername":"a@b.c","ValidPassword":"p","TestUsername":"t@b.c","InvalidPassword":"x","InvalidEmail":"bad"}`
		cfg, err := Load(writeFile(t, doc))
		require.NoError(t, err)
		assert.Equal(t, "a@b.c", cfg.ValidUsername)
		assert.Equal(t, "bad", cfg.InvalidEmail)
	})

	t.Run("missing file is a not-found error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfigurationNotFound)
		assert.NotErrorIs(t, err, ErrConfigurationParse)
	})

	t.Run("malformed json is a parse error", func(t *testing.T) {
		_, err := Load(writeFile(t, `{"validUsername": `))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfigurationParse)
	})

	t.Run("wrong shape is a parse error", func(t *testing.T) {
		_, err := Load(writeFile(t, `["validUsername"]`))
		assert.ErrorIs(t, err, ErrConfigurationParse)
	})

	t.Run("missing fields are listed", func(t *testing.T) {
		_, err := Load(writeFile(t, `{"validUsername":"a@b.c","validPassword":"p"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfigurationParse)
		assert.Contains(t, err.Error(), "testUsername, invalidPassword, invalidEmail")
	})

	t.Run("a directory is neither missing nor parseable", func(t *testing.T) {
		_, err := Load(t.TempDir())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrConfigurationNotFound)
	})
}

func TestConfig_SafeForConcurrentReaders(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "qa.user@example.com", cfg.ValidUsername)
			assert.NotEmpty(t, cfg.String())
		}()
	}
	wg.Wait()
}

func TestConfig_StringRedactsPasswords(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	s := cfg.String()
	assert.Contains(t, s, "qa.user@example.com")
	assert.NotContains(t, s, "Corr3ct-Horse")
	assert.NotContains(t, s, "wrong-password")
}
