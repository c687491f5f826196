package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kraig/internal/agent"
	"github.com/ternarybob/kraig/internal/auth"
	"github.com/ternarybob/kraig/internal/browser"
	"github.com/ternarybob/kraig/internal/common"
	"github.com/ternarybob/kraig/internal/images"
	"github.com/ternarybob/kraig/internal/llm"
	"github.com/ternarybob/kraig/internal/session"
	"github.com/ternarybob/kraig/internal/workflow"
)

const homepageURL = "https://sfbay.craigslist.org/"

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Kraig version %s\n", common.GetVersion())
		os.Exit(0)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("kraig.toml"); err == nil {
			configFiles = append(configFiles, "kraig.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner("Kraig")

	// Config problems must surface before any browser side effects
	if err := config.ValidateForPosting(); err != nil {
		logger.Fatal().Err(err).Msg("Configuration invalid")
		os.Exit(1)
	}

	logEffectiveConfig()

	if err := run(); err != nil {
		logger.Error().Err(err).Msg("Posting run failed")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("Launching browser and LLM client")
	browserSession, err := browser.NewSession(config, logger)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer browserSession.Close()

	browserSession.WarmUp(ctx, homepageURL)

	factory := llm.NewProviderFactory(config, logger)
	chatService := llm.NewChatService(factory)
	defer chatService.Close()

	runner := agent.NewRunner(browserSession, chatService, logger)
	phases, err := workflow.NewPhases(runner, config, logger)
	if err != nil {
		return err
	}

	store := session.NewStore(config.Session.Dir, config.Account.Email, logger)
	logger.Info().Str("path", store.Path()).Msg("Using cookie file")

	orchestrator := workflow.NewOrchestrator(
		browserSession,
		phases,
		store,
		auth.NewDetector(logger),
		auth.NewBroker(config.Auth.MagicLinkFile, logger),
		images.NewResolver(config.Listing.Images, logger),
		config,
		logger,
	)

	return orchestrator.Run(ctx)
}

// logEffectiveConfig records the resolved run parameters. Secrets and
// free-text fields are summarized, not echoed.
func logEffectiveConfig() {
	logger.Info().
		Str("email", config.Account.Email).
		Str("category", config.Listing.Category).
		Str("title", config.Listing.Title).
		Str("condition", config.Listing.Condition).
		Int("price", config.Listing.Price).
		Int("images", len(config.Listing.Images)).
		Int("description_chars", len(config.Listing.Description)).
		Bool("headless", config.Browser.Headless).
		Bool("highlight", config.Browser.Highlight).
		Str("llm_provider", config.LLM.DefaultProvider).
		Str("timeout_short", config.Timeouts.Short).
		Str("timeout_med", config.Timeouts.Med).
		Str("timeout_long", config.Timeouts.Long).
		Str("magic_link_mode", magicLinkMode()).
		Msg("Effective configuration")
}

func magicLinkMode() string {
	if config.Auth.MagicLinkFile != "" {
		return "file"
	}
	return "interactive"
}
