package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	coreapp "github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/app"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/ports"
	mcpruntime "github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/runtime"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/observability"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/version"
)

const shutdownTimeout = 5 * time.Second

func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr, coreAppFactory{})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory appFactory) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "arkaft v%s\n", version.Version)
		return 0
	}

	if err := validateModeCompatibility(opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	// Logs always go to stderr: stdout carries reports or the stdio protocol.
	logger := configureLogging(stderr, cfg.Logging, opts.verbose)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:  cfg.MCP.ServerName,
		OTLPEndpoint: cfg.Observability.OTLPEndpoint,
		Insecure:     cfg.Observability.OTLPInsecure,
		SampleRatio:  cfg.Observability.SampleRatio,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	a, err := initializeApp(cfg, logger, factory)
	if err != nil {
		logger.Error("failed to initialize app", "error", err)
		return 1
	}
	defer a.Close(context.Background())

	if cfg.Observability.Enabled {
		obs := NewObservabilityServer(cfg.Observability.Address, coreapp.NewHealthService(a), logger)
		if err := obs.Start(ctx); err != nil {
			logger.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = obs.Stop(sctx)
		}()
	}

	if opts.mcp {
		if err := runMCPMode(ctx, cfg, a, logger); err != nil {
			logger.Error("MCP server failed", "error", err)
			return 1
		}
		return 0
	}

	paths, err := coreapp.DiscoverAll(opts.args, cfg.Review.Exclude)
	if err != nil {
		logger.Error("failed to discover Rust sources", "error", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintln(stderr, "no .rs files found")
		return 1
	}

	out := newRenderer(opts.format, stdout)
	reviewOpts := ports.ReviewOptions{Focus: opts.focus, ArchitectureOnly: opts.archOnly}

	results, err := a.Service().ReviewFiles(ctx, paths, reviewOpts)
	if err != nil {
		logger.Error("review interrupted", "error", err)
		return 1
	}
	if err := out.Render(results); err != nil {
		logger.Error("failed to write report", "error", err)
		return 1
	}

	if opts.watch {
		err := a.Watch(ctx, opts.args, reviewOpts, func(batch []ports.FileResult) {
			if err := out.Render(batch); err != nil {
				logger.Warn("failed to write report", "error", err)
			}
		})
		if err != nil {
			logger.Error("watch failed", "error", err)
			return 1
		}
		return 0
	}

	return exitCode(results, cfg.Review.FailUnder)
}

// exitCode is 1 when any file failed to review or scored below failUnder.
func exitCode(results []ports.FileResult, failUnder int) int {
	for _, r := range results {
		if r.Err != nil {
			return 1
		}
		if failUnder > 0 && r.Response.Score < failUnder {
			return 1
		}
	}
	return 0
}

func runMCPMode(ctx context.Context, cfg *config.Config, a *coreapp.App, logger *slog.Logger) error {
	server, err := mcpruntime.Build(cfg, mcpruntime.Dependencies{
		Service: a.Service(),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("build MCP runtime: %w", err)
	}
	logger.Info("MCP server starting", "transport", cfg.MCP.Transport, "tool", cfg.MCP.ToolName)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// loadConfig falls back to built-in defaults only when the default path is
// missing.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Load("")
		}
	}
	return config.Load(path)
}

func configureLogging(w io.Writer, cfg config.Logging, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
