package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration shared by the posting
// agent and the web frontend. Load order: defaults -> file(s) -> env ->
// CLI flags (highest priority).
type Config struct {
	Account  AccountConfig  `toml:"account"`
	Listing  ListingConfig  `toml:"listing"`
	Browser  BrowserConfig  `toml:"browser"`
	Timeouts TimeoutConfig  `toml:"timeouts"`
	LLM      LLMConfig      `toml:"llm"`
	Session  SessionConfig  `toml:"session"`
	Auth     AuthConfig     `toml:"auth"`
	Server   ServerConfig   `toml:"server"`
	Web      WebConfig      `toml:"web"`
	Logging  LoggingConfig  `toml:"logging"`
	Claude   ClaudeConfig   `toml:"claude"`
	Gemini   GeminiConfig   `toml:"gemini"`
}

type AccountConfig struct {
	Email string `toml:"email" validate:"required,email"`
}

type ListingConfig struct {
	Category    string   `toml:"category" validate:"required"`
	Title       string   `toml:"title" validate:"required"`
	Condition   string   `toml:"condition" validate:"required"`
	Price       int      `toml:"price" validate:"gte=0"`
	Address     string   `toml:"address" validate:"required"`
	Description string   `toml:"description" validate:"required"`
	Images      []string `toml:"images"`
}

type BrowserConfig struct {
	Headless  bool `toml:"headless"`
	Highlight bool `toml:"highlight"` // install click/focus highlight overlay
	NoSandbox bool `toml:"no_sandbox"`
}

// TimeoutConfig holds the three wall-clock tiers used by workflow phases.
// Values are duration strings ("2m", "600s").
type TimeoutConfig struct {
	Short string `toml:"short"`
	Med   string `toml:"med"`
	Long  string `toml:"long"`
}

type LLMConfig struct {
	DefaultProvider string `toml:"default_provider"` // "claude" or "gemini"
}

type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

type SessionConfig struct {
	Dir string `toml:"dir"` // cookie store directory, one file per identity
}

type AuthConfig struct {
	// MagicLinkFile selects file mode for the magic-link broker.
	// Empty means interactive stdin prompt.
	MagicLinkFile string `toml:"magic_link_file"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type WebConfig struct {
	ListingsDir string `toml:"listings_dir"` // saved listing records
	JobsDir     string `toml:"jobs_dir"`     // per-job working directories
	AgentBinary string `toml:"agent_binary"` // path to the kraig binary launched per job
	JobTTL      string `toml:"job_ttl"`      // registry entry expiry after completion
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig returns configuration defaults
func NewDefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:  false,
			Highlight: true,
		},
		Timeouts: TimeoutConfig{
			Short: "2m",
			Med:   "5m",
			Long:  "10m",
		},
		LLM: LLMConfig{
			DefaultProvider: "gemini",
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Temperature: 0,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0,
		},
		Session: SessionConfig{
			Dir: "./cookies",
		},
		Server: ServerConfig{
			Port: 5000,
			Host: "localhost",
		},
		Web: WebConfig{
			ListingsDir: "./listings",
			JobsDir:     "./jobs",
			AgentBinary: "kraig",
			JobTTL:      "1h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration from zero or more TOML files.
// Later files override earlier ones; environment overrides are applied
// last. A missing file list is valid (env-only configuration, the mode
// used by subprocess jobs).
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("KRAIG_EMAIL"); v != "" {
		config.Account.Email = strings.TrimSpace(v)
	}
	if v := os.Getenv("KRAIG_CATEGORY"); v != "" {
		config.Listing.Category = v
	}
	if v := os.Getenv("KRAIG_TITLE"); v != "" {
		config.Listing.Title = v
	}
	if v := os.Getenv("KRAIG_CONDITION"); v != "" {
		config.Listing.Condition = v
	}
	if v := os.Getenv("KRAIG_PRICE"); v != "" {
		if price, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			config.Listing.Price = price
		}
	}
	if v := os.Getenv("KRAIG_ADDRESS"); v != "" {
		config.Listing.Address = v
	}
	if v := os.Getenv("KRAIG_DESCRIPTION"); v != "" {
		config.Listing.Description = v
	}
	if v := os.Getenv("KRAIG_IMAGES"); v != "" {
		var images []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				images = append(images, s)
			}
		}
		config.Listing.Images = images
	}

	if v := os.Getenv("KRAIG_HEADLESS"); v != "" {
		config.Browser.Headless = envBool(v)
	}
	if v := os.Getenv("KRAIG_HIGHLIGHT"); v != "" {
		config.Browser.Highlight = envBool(v)
	}
	if v := os.Getenv("KRAIG_NO_SANDBOX"); v != "" {
		config.Browser.NoSandbox = envBool(v)
	}

	if v := os.Getenv("KRAIG_TIMEOUT_SHORT"); v != "" {
		config.Timeouts.Short = v
	}
	if v := os.Getenv("KRAIG_TIMEOUT_MED"); v != "" {
		config.Timeouts.Med = v
	}
	if v := os.Getenv("KRAIG_TIMEOUT_LONG"); v != "" {
		config.Timeouts.Long = v
	}

	if v := os.Getenv("KRAIG_LLM_PROVIDER"); v != "" {
		config.LLM.DefaultProvider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("KRAIG_CLAUDE_API_KEY"); v != "" {
		config.Claude.APIKey = v // KRAIG_ prefix takes priority
	}
	if v := os.Getenv("KRAIG_CLAUDE_MODEL"); v != "" {
		config.Claude.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	} else if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("KRAIG_GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("KRAIG_GEMINI_MODEL"); v != "" {
		config.Gemini.Model = v
	}

	if v := os.Getenv("KRAIG_SESSION_DIR"); v != "" {
		config.Session.Dir = v
	}
	if v := os.Getenv("KRAIG_MAGIC_LINK_FILE"); v != "" {
		config.Auth.MagicLinkFile = v
	}

	if v := os.Getenv("KRAIG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("KRAIG_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("KRAIG_AGENT_BINARY"); v != "" {
		config.Web.AgentBinary = v
	}

	if v := os.Getenv("KRAIG_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("KRAIG_LOG_OUTPUT"); v != "" {
		var outputs []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				outputs = append(outputs, s)
			}
		}
		config.Logging.Output = outputs
	}
}

func envBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// ValidateForPosting checks every field a posting run requires and
// returns a field-specific error for the first missing one. Called
// before any browser session starts so configuration errors never leave
// side effects behind.
func (c *Config) ValidateForPosting() error {
	validate := validator.New()

	checks := []struct {
		field string
		env   string
		err   error
	}{
		{"Account.Email", "KRAIG_EMAIL", validate.Var(c.Account.Email, "required,email")},
		{"Listing.Category", "KRAIG_CATEGORY", validate.Var(c.Listing.Category, "required")},
		{"Listing.Title", "KRAIG_TITLE", validate.Var(c.Listing.Title, "required")},
		{"Listing.Condition", "KRAIG_CONDITION", validate.Var(c.Listing.Condition, "required")},
		{"Listing.Address", "KRAIG_ADDRESS", validate.Var(c.Listing.Address, "required")},
		{"Listing.Description", "KRAIG_DESCRIPTION", validate.Var(c.Listing.Description, "required")},
	}
	for _, check := range checks {
		if check.err != nil {
			return fmt.Errorf("missing or invalid required config field %s (set %s or the matching TOML key)", check.field, check.env)
		}
	}

	if c.Listing.Price < 0 {
		return fmt.Errorf("listing price must be a non-negative integer, got %d", c.Listing.Price)
	}

	if _, err := c.APIKey(); err != nil {
		return err
	}

	if _, _, _, err := c.PhaseTimeouts(); err != nil {
		return err
	}

	return nil
}

// APIKey resolves the API key for the configured LLM provider.
func (c *Config) APIKey() (string, error) {
	switch c.LLM.DefaultProvider {
	case "claude", "anthropic":
		if c.Claude.APIKey != "" {
			return c.Claude.APIKey, nil
		}
		return "", fmt.Errorf("missing Anthropic API key (set ANTHROPIC_API_KEY, KRAIG_CLAUDE_API_KEY, or claude.api_key)")
	case "gemini", "google":
		if c.Gemini.APIKey != "" {
			return c.Gemini.APIKey, nil
		}
		return "", fmt.Errorf("missing Gemini API key (set GEMINI_API_KEY, KRAIG_GEMINI_API_KEY, or gemini.api_key)")
	default:
		return "", fmt.Errorf("unsupported llm.default_provider %q (use \"claude\" or \"gemini\")", c.LLM.DefaultProvider)
	}
}

// PhaseTimeouts parses the three timeout tiers.
func (c *Config) PhaseTimeouts() (short, med, long time.Duration, err error) {
	if short, err = time.ParseDuration(c.Timeouts.Short); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid timeouts.short %q: %w", c.Timeouts.Short, err)
	}
	if med, err = time.ParseDuration(c.Timeouts.Med); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid timeouts.med %q: %w", c.Timeouts.Med, err)
	}
	if long, err = time.ParseDuration(c.Timeouts.Long); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid timeouts.long %q: %w", c.Timeouts.Long, err)
	}
	return short, med, long, nil
}
