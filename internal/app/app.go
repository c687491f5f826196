// Package app wires the web frontend's dependencies into a single
// struct the server consumes.
package app

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kraig/internal/common"
	"github.com/ternarybob/kraig/internal/handlers"
	"github.com/ternarybob/kraig/internal/jobs"
	"github.com/ternarybob/kraig/internal/llm"
	"github.com/ternarybob/kraig/internal/vision"
)

// App holds the initialized services and handlers for the web server.
type App struct {
	Config   *common.Config
	Logger   arbor.ILogger
	Registry *jobs.Registry

	FormHandler *handlers.FormHandler
	JobHandler  *handlers.JobHandler
	LogHandler  *handlers.LogStreamHandler
}

// New builds the application graph from configuration.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	for _, dir := range []string{config.Web.ListingsDir, config.Web.JobsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	factory := llm.NewProviderFactory(config, logger)
	analyzer := vision.NewAnalyzer(factory, logger)
	listings := jobs.NewListingStore(config.Web.ListingsDir, logger)
	registry := jobs.NewRegistry(config, logger)

	return &App{
		Config:      config,
		Logger:      logger,
		Registry:    registry,
		FormHandler: handlers.NewFormHandler(analyzer, listings, logger),
		JobHandler:  handlers.NewJobHandler(registry, logger),
		LogHandler:  handlers.NewLogStreamHandler(registry, logger),
	}, nil
}
