package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/ports"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/data/history"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/architecture"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/review"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/scoring"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/knowledge"
)

// App owns the review engine and the stores around it. Everything that
// touches the file system or the database lives here, never in the engine.
type App struct {
	Config    *config.Config
	engine    *review.Engine
	knowledge *knowledge.Base
	history   ports.HistoryStore
	closer    func() error
	logger    *slog.Logger
}

// Dependencies lets tests and embedders replace collaborators. Nil fields
// are built from the config.
type Dependencies struct {
	Knowledge *knowledge.Base
	History   ports.HistoryStore
	Logger    *slog.Logger
}

func New(cfg *config.Config) (*App, error) {
	return NewWithDependencies(cfg, Dependencies{})
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := deps.Knowledge
	if base == nil {
		loaded, err := knowledge.LoadFile(cfg.ResolvePath(cfg.Knowledge.Path))
		if err != nil {
			return nil, fmt.Errorf("load knowledge base: %w", err)
		}
		base = loaded
	}
	base = base.WithVersion(cfg.Knowledge.Version)
	if base.Version() != cfg.Knowledge.Version {
		logger.Warn("unknown documentation version; using default",
			"requested", cfg.Knowledge.Version, "version", base.Version())
	}

	validator, err := architecture.NewValidator(architecture.Options{
		Weights:                 cfg.Scoring.Weights,
		Disabled:                cfg.Scoring.DisabledRules,
		FallbackUnknownCategory: cfg.Review.FallbackUnknownCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("configure architecture rules: %w", err)
	}

	policy := scoring.Policy{ConcernPenalty: cfg.Scoring.ConcernPenalty}
	engine, err := review.New(review.Options{
		Validator:   validator,
		Policy:      &policy,
		Provider:    base,
		DocsVersion: base.Version(),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		engine:    engine,
		knowledge: base,
		history:   deps.History,
		logger:    logger,
	}
	if a.history == nil && cfg.History.Enabled {
		store, err := history.Open(cfg.ResolvePath(cfg.History.Path), cfg.History.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("open review history: %w", err)
		}
		a.history = store
		a.closer = store.Close
	}
	return a, nil
}

// Service returns the driving port over this App.
func (a *App) Service() ports.ReviewService {
	return &reviewService{app: a}
}

func (a *App) Engine() *review.Engine {
	return a.engine
}

func (a *App) Close(ctx context.Context) error {
	if a == nil || a.closer == nil {
		return nil
	}
	return a.closer()
}
