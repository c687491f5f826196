package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPostingConfig() *Config {
	config := NewDefaultConfig()
	config.Account.Email = "seller@example.com"
	config.Listing = ListingConfig{
		Category:    "electronics",
		Title:       "Meta Quest Pro",
		Condition:   "like new",
		Price:       650,
		Address:     "123 Main St, San Francisco, CA 94103",
		Description: "Barely used.",
	}
	config.Gemini.APIKey = "test-key"
	return config
}

func TestLoadFromFiles_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kraig.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[account]
email = "file@example.com"

[listing]
title = "From File"
price = 100

[timeouts]
long = "20m"
`), 0600))

	t.Setenv("KRAIG_EMAIL", "env@example.com")
	t.Setenv("KRAIG_PRICE", "250")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	// Env wins over file, file wins over defaults
	assert.Equal(t, "env@example.com", config.Account.Email)
	assert.Equal(t, 250, config.Listing.Price)
	assert.Equal(t, "From File", config.Listing.Title)
	assert.Equal(t, "20m", config.Timeouts.Long)
	assert.Equal(t, "2m", config.Timeouts.Short)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestEnvOverrides_ImagesList(t *testing.T) {
	t.Setenv("KRAIG_IMAGES", "a.jpg, b.jpg ,, c.jpg")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, config.Listing.Images)
}

func TestEnvOverrides_Booleans(t *testing.T) {
	t.Setenv("KRAIG_HEADLESS", "TRUE")
	t.Setenv("KRAIG_HIGHLIGHT", "0")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.True(t, config.Browser.Headless)
	assert.False(t, config.Browser.Highlight)
}

func TestEnvOverrides_ProviderKeyPriority(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "plain-key")
	t.Setenv("KRAIG_GEMINI_API_KEY", "prefixed-key")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, "prefixed-key", config.Gemini.APIKey)
}

func TestValidateForPosting(t *testing.T) {
	assert.NoError(t, validPostingConfig().ValidateForPosting())

	missing := validPostingConfig()
	missing.Account.Email = "not-an-email"
	assert.ErrorContains(t, missing.ValidateForPosting(), "Account.Email")

	missing = validPostingConfig()
	missing.Listing.Title = ""
	assert.ErrorContains(t, missing.ValidateForPosting(), "Listing.Title")

	missing = validPostingConfig()
	missing.Gemini.APIKey = ""
	assert.ErrorContains(t, missing.ValidateForPosting(), "Gemini API key")

	bad := validPostingConfig()
	bad.Timeouts.Med = "five minutes"
	assert.ErrorContains(t, bad.ValidateForPosting(), "timeouts.med")
}

func TestAPIKey(t *testing.T) {
	config := validPostingConfig()

	key, err := config.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "test-key", key)

	config.LLM.DefaultProvider = "claude"
	_, err = config.APIKey()
	assert.ErrorContains(t, err, "Anthropic API key")

	config.Claude.APIKey = "claude-key"
	key, err = config.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "claude-key", key)

	config.LLM.DefaultProvider = "openai"
	_, err = config.APIKey()
	assert.ErrorContains(t, err, "unsupported")
}

func TestPhaseTimeouts(t *testing.T) {
	config := NewDefaultConfig()
	short, med, long, err := config.PhaseTimeouts()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, short)
	assert.Equal(t, 5*time.Minute, med)
	assert.Equal(t, 10*time.Minute, long)

	config.Timeouts.Long = "later"
	_, _, _, err = config.PhaseTimeouts()
	assert.ErrorContains(t, err, "timeouts.long")
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 8080, "0.0.0.0")
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}
