package cli

import (
	"fmt"
	"log/slog"

	coreapp "github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/app"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
)

type appFactory interface {
	New(cfg *config.Config, logger *slog.Logger) (*coreapp.App, error)
}

type coreAppFactory struct{}

func (coreAppFactory) New(cfg *config.Config, logger *slog.Logger) (*coreapp.App, error) {
	return coreapp.NewWithDependencies(cfg, coreapp.Dependencies{Logger: logger})
}

func initializeApp(cfg *config.Config, logger *slog.Logger, factory appFactory) (*coreapp.App, error) {
	if factory == nil {
		return nil, fmt.Errorf("app factory is required")
	}
	return factory.New(cfg, logger)
}
