package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ARKAFT_[SECTION]_[KEY] (e.g., ARKAFT_KNOWLEDGE_VERSION). The
// unprefixed ADK_DOCS_VERSION and MCP_SERVER_NAME are honored first so the
// prefixed names win.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Knowledge.Version, "ADK_DOCS_VERSION")
	setEnvString(&cfg.MCP.ServerName, "MCP_SERVER_NAME")

	// Review
	setEnvInt64(&cfg.Review.MaxSourceBytes, "ARKAFT_REVIEW_MAX_SOURCE_BYTES")
	setEnvInt(&cfg.Review.Workers, "ARKAFT_REVIEW_WORKERS")
	setEnvBool(&cfg.Review.FallbackUnknownCategory, "ARKAFT_REVIEW_FALLBACK_UNKNOWN_CATEGORY")
	setEnvInt(&cfg.Review.FailUnder, "ARKAFT_REVIEW_FAIL_UNDER")

	// Scoring
	setEnvInt(&cfg.Scoring.ConcernPenalty, "ARKAFT_SCORING_CONCERN_PENALTY")

	// Knowledge
	setEnvString(&cfg.Knowledge.Version, "ARKAFT_KNOWLEDGE_VERSION")
	setEnvString(&cfg.Knowledge.Path, "ARKAFT_KNOWLEDGE_PATH")

	// History
	setEnvBool(&cfg.History.Enabled, "ARKAFT_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "ARKAFT_HISTORY_PATH")
	setEnvString(&cfg.History.ProjectKey, "ARKAFT_HISTORY_PROJECT_KEY")
	setEnvDuration(&cfg.History.BusyTimeout, "ARKAFT_HISTORY_BUSY_TIMEOUT")

	// MCP
	setEnvString(&cfg.MCP.Transport, "ARKAFT_MCP_TRANSPORT")
	setEnvString(&cfg.MCP.Address, "ARKAFT_MCP_ADDRESS")
	setEnvString(&cfg.MCP.ServerName, "ARKAFT_MCP_SERVER_NAME")
	setEnvDuration(&cfg.MCP.RequestTimeout, "ARKAFT_MCP_REQUEST_TIMEOUT")
	setEnvFloat64(&cfg.MCP.RateLimit, "ARKAFT_MCP_RATE_LIMIT")
	setEnvInt(&cfg.MCP.RateBurst, "ARKAFT_MCP_RATE_BURST")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "ARKAFT_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "ARKAFT_OBSERVABILITY_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "ARKAFT_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "ARKAFT_OBSERVABILITY_OTLP_INSECURE")

	// Logging
	setEnvString(&cfg.Logging.Format, "ARKAFT_LOGGING_FORMAT")
	setEnvString(&cfg.Logging.Level, "ARKAFT_LOGGING_LEVEL")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "ARKAFT_WATCH_DEBOUNCE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		log.Printf("Applying env override: %s=%s", key, val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = i
		}
	}
}

func setEnvInt64(target *int64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = d
		}
	}
}
