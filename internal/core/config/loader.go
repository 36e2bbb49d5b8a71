package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads path over Default, applies environment overrides and validates
// the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		cfg.Dir = filepath.Dir(path)
	}

	ApplyEnvOverrides(&cfg)
	normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(cfg *Config) {
	cfg.Knowledge.Version = strings.TrimSpace(cfg.Knowledge.Version)
	cfg.Knowledge.Path = strings.TrimSpace(cfg.Knowledge.Path)
	cfg.History.Path = strings.TrimSpace(cfg.History.Path)
	cfg.History.ProjectKey = strings.TrimSpace(cfg.History.ProjectKey)
	cfg.MCP.Transport = strings.ToLower(strings.TrimSpace(cfg.MCP.Transport))
	cfg.MCP.Address = strings.TrimSpace(cfg.MCP.Address)
	cfg.MCP.ServerName = strings.TrimSpace(cfg.MCP.ServerName)
	cfg.MCP.ToolName = strings.TrimSpace(cfg.MCP.ToolName)
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))

	if cfg.Knowledge.Version == "" {
		cfg.Knowledge.Version = "latest"
	}
	if cfg.History.ProjectKey == "" {
		cfg.History.ProjectKey = "default"
	}
	if cfg.MCP.ServerName == "" {
		cfg.MCP.ServerName = DefaultServerName
	}
	if cfg.MCP.ToolName == "" {
		cfg.MCP.ToolName = DefaultToolName
	}
	cfg.Review.Exclude = trimAll(cfg.Review.Exclude)
	cfg.Scoring.DisabledRules = trimAll(cfg.Scoring.DisabledRules)
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ResolvePath makes p absolute relative to the config file directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	base := c.Dir
	if base == "" {
		base = "."
	}
	return filepath.Clean(filepath.Join(base, p))
}
