// # internal/core/config/config.go
package config

import (
	"time"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/version"
)

type Config struct {
	Review        Review        `toml:"review"`
	Scoring       Scoring       `toml:"scoring"`
	Knowledge     Knowledge     `toml:"knowledge"`
	History       History       `toml:"history"`
	MCP           MCP           `toml:"mcp"`
	Observability Observability `toml:"observability"`
	Logging       Logging       `toml:"logging"`
	Watch         Watch         `toml:"watch"`

	// Dir is the directory relative paths resolve against; set by Load.
	Dir string `toml:"-"`
}

type Review struct {
	MaxSourceBytes          int64    `toml:"max_source_bytes"`
	Workers                 int      `toml:"workers"`
	FallbackUnknownCategory bool     `toml:"fallback_unknown_category"`
	Exclude                 []string `toml:"exclude"`
	FailUnder               int      `toml:"fail_under"`
}

type Scoring struct {
	ConcernPenalty int                `toml:"concern_penalty"`
	Weights        map[string]float64 `toml:"weights"`
	DisabledRules  []string           `toml:"disabled_rules"`
}

type Knowledge struct {
	Version string `toml:"version"`
	Path    string `toml:"path"`
}

type History struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	ProjectKey  string        `toml:"project_key"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type MCP struct {
	Transport        string        `toml:"transport"`
	Address          string        `toml:"address"`
	ServerName       string        `toml:"server_name"`
	ServerVersion    string        `toml:"server_version"`
	ToolName         string        `toml:"tool_name"`
	RequestTimeout   time.Duration `toml:"request_timeout"`
	RateLimit        float64       `toml:"rate_limit"`
	RateBurst        int           `toml:"rate_burst"`
	MaxResponseItems int           `toml:"max_response_items"`
}

type Observability struct {
	Enabled      bool    `toml:"enabled"`
	Address      string  `toml:"address"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	OTLPInsecure bool    `toml:"otlp_insecure"`
	SampleRatio  float64 `toml:"sample_ratio"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

const (
	DefaultMaxSourceBytes = 1 << 20
	DefaultConcernPenalty = 5
	DefaultServerName     = "arkaft-google-adk"
	DefaultToolName       = "arkaft"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Review: Review{
			MaxSourceBytes: DefaultMaxSourceBytes,
			Workers:        4,
			Exclude:        []string{"target/**"},
		},
		Scoring: Scoring{ConcernPenalty: DefaultConcernPenalty},
		Knowledge: Knowledge{
			Version: "latest",
		},
		History: History{
			Path:        "data/history.db",
			ProjectKey:  "default",
			BusyTimeout: 5 * time.Second,
		},
		MCP: MCP{
			Transport:        "stdio",
			Address:          "127.0.0.1:8765",
			ServerName:       DefaultServerName,
			ServerVersion:    version.Version,
			ToolName:         DefaultToolName,
			RequestTimeout:   30 * time.Second,
			RateLimit:        20,
			RateBurst:        40,
			MaxResponseItems: 500,
		},
		Observability: Observability{
			Address:     "127.0.0.1:9464",
			SampleRatio: 1,
		},
		Logging: Logging{Format: "text", Level: "info"},
		Watch:   Watch{Debounce: 500 * time.Millisecond},
	}
}
