package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/util"
)

// Validate checks every section and returns the first problem found.
func Validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateReview,
		validateScoring,
		validateHistory,
		validateMCP,
		validateObservability,
		validateLogging,
		validateWatch,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateReview(cfg *Config) error {
	if cfg.Review.MaxSourceBytes < 1 {
		return fmt.Errorf("review.max_source_bytes must be >= 1")
	}
	if cfg.Review.Workers < 1 || cfg.Review.Workers > 256 {
		return fmt.Errorf("review.workers must be between 1 and 256")
	}
	if cfg.Review.FailUnder < 0 || cfg.Review.FailUnder > 100 {
		return fmt.Errorf("review.fail_under must be between 0 and 100")
	}
	for i, pattern := range cfg.Review.Exclude {
		if _, err := glob.Compile(util.NormalizePatternPath(pattern), '/'); err != nil {
			return fmt.Errorf("review.exclude[%d] %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateScoring(cfg *Config) error {
	if cfg.Scoring.ConcernPenalty < 0 || cfg.Scoring.ConcernPenalty > 100 {
		return fmt.Errorf("scoring.concern_penalty must be between 0 and 100")
	}
	for _, id := range util.SortedStringKeys(cfg.Scoring.Weights) {
		w := cfg.Scoring.Weights[id]
		if w <= 0 || w > 1 {
			return fmt.Errorf("scoring.weights.%s must be in (0, 1], got %g", id, w)
		}
	}
	for i, pattern := range cfg.Scoring.DisabledRules {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("scoring.disabled_rules[%d] %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	if cfg.History.BusyTimeout < 0 {
		return fmt.Errorf("history.busy_timeout must not be negative")
	}
	return nil
}

func validateMCP(cfg *Config) error {
	switch cfg.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("mcp.transport must be one of: stdio, sse")
	}
	if cfg.MCP.Transport == "sse" && cfg.MCP.Address == "" {
		return fmt.Errorf("mcp.address must not be empty when mcp.transport=sse")
	}
	if strings.ContainsAny(cfg.MCP.ToolName, " \t\n") {
		return fmt.Errorf("mcp.tool_name must not contain whitespace")
	}
	if cfg.MCP.RequestTimeout < time.Second || cfg.MCP.RequestTimeout > 2*time.Minute {
		return fmt.Errorf("mcp.request_timeout must be between 1s and 2m")
	}
	if cfg.MCP.RateLimit < 0 {
		return fmt.Errorf("mcp.rate_limit must not be negative")
	}
	if cfg.MCP.RateLimit > 0 && cfg.MCP.RateBurst < 1 {
		return fmt.Errorf("mcp.rate_burst must be >= 1 when mcp.rate_limit is set")
	}
	if cfg.MCP.MaxResponseItems < 1 || cfg.MCP.MaxResponseItems > 5000 {
		return fmt.Errorf("mcp.max_response_items must be between 1 and 5000")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Enabled && strings.TrimSpace(cfg.Observability.Address) == "" {
		return fmt.Errorf("observability.address must not be empty when observability.enabled=true")
	}
	if cfg.Observability.SampleRatio < 0 || cfg.Observability.SampleRatio > 1 {
		return fmt.Errorf("observability.sample_ratio must be between 0 and 1")
	}
	return nil
}

func validateLogging(cfg *Config) error {
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be one of: text, json")
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}
