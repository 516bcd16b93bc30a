package commands

import (
	"fmt"

	"github.com/etpflow/etpflow/internal/browse"
	"github.com/etpflow/etpflow/internal/config"
	"github.com/etpflow/etpflow/internal/conversation"
	"github.com/etpflow/etpflow/internal/domain"
	"github.com/etpflow/etpflow/internal/extract"
	"github.com/etpflow/etpflow/internal/observability"
	"github.com/etpflow/etpflow/internal/pipeline"
	"github.com/etpflow/etpflow/internal/remote"
	"github.com/etpflow/etpflow/internal/render"
	"github.com/etpflow/etpflow/internal/session"
	"github.com/etpflow/etpflow/internal/workdir"
)

// loadConfig loads configuration, letting --verbose force debug logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Observability.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "etpflow",
	})
}

func newLauncher(cfg *config.Config) browse.Launcher {
	return browse.NewLauncher(browse.LaunchOptions{
		Headless:   cfg.Browser.Headless,
		NavTimeout: cfg.Browser.NavTimeout,
	})
}

// prepareOutput applies the configured output directory policy.
func prepareOutput(cfg *config.Config) error {
	policy := workdir.Policy{
		Dir:   cfg.Output.Dir,
		Clear: cfg.Output.ClearOnStart,
	}
	return policy.Prepare()
}

func buildPipeline(cfg *config.Config, logger *observability.Logger) *pipeline.Pipeline {
	return pipeline.NewPipeline(
		logger.WithComponent("pipeline"),
		newLauncher(cfg),
		extract.NewExtractor(),
		render.NewRenderer(cfg.Output.Dir),
		cfg.LookupURL,
	)
}

// buildMachine wires the conversation machine with its collaborators.
func buildMachine(cfg *config.Config, logger *observability.Logger, sink conversation.Sink) (*conversation.Machine, *session.Store) {
	launch := newLauncher(cfg)
	sessions := session.NewStore()

	fetchers := map[domain.Source]domain.Fetcher{
		domain.SourceUP: remote.NewPageFetcher(logger.WithComponent("fetch"), launch, cfg.Lookup.BaseURL),
		domain.SourceMP: remote.NewPageFetcher(logger.WithComponent("fetch"), launch, cfg.Lookup.MPBaseURL),
	}

	advancer := remote.NewPortalAdvancer(
		logger.WithComponent("advance"),
		launch,
		cfg.Portal.LoginURL,
		cfg.Portal.Username,
		cfg.Portal.Password,
		cfg.Lookup.BaseURL,
	)

	machine := conversation.NewMachine(
		logger.WithComponent("conversation"),
		sessions,
		fetchers,
		advancer,
		buildPipeline(cfg, logger),
		sink,
	)

	return machine, sessions
}
