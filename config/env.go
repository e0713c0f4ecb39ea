package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "DMCATALOG_"

// Load reads .env files (missing files are ignored), then applies environment
// overrides on top of DefaultConfig.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from DMCATALOG_* variables.
func ApplyEnv(cfg *Config) error {
	strs := map[string]*string{
		"WIKI_URL":       &cfg.WikiBaseURL,
		"MARKET_URL":     &cfg.MarketSearchURL,
		"SET_LIST":       &cfg.SetListFile,
		"ERA_LIST":       &cfg.EraListFile,
		"OUTPUT_DIR":     &cfg.OutputDir,
		"FORMAT":         &cfg.OutputFormat,
		"DB_PATH":        &cfg.DBPath,
		"USER_AGENT":     &cfg.UserAgent,
		"METRICS_ADDR":   &cfg.MetricsAddr,
		"ON_PRICE_ERROR": &cfg.OnPriceError,
	}
	for key, dst := range strs {
		if value, ok := EnvString(EnvPrefix + key); ok {
			*dst = value
		}
	}

	ints := map[string]*int{
		"MAX_RETRIES":  &cfg.MaxRetries,
		"DETAIL_CACHE": &cfg.DetailCacheSize,
	}
	for key, dst := range ints {
		value, ok, err := EnvInt(EnvPrefix + key)
		if err != nil {
			return err
		}
		if ok {
			*dst = value
		}
	}

	floats := map[string]*float64{
		"RATE": &cfg.Rate,
		"RPS":  &cfg.RequestsPerSecond,
	}
	for key, dst := range floats {
		value, ok, err := EnvFloat(EnvPrefix + key)
		if err != nil {
			return err
		}
		if ok {
			*dst = value
		}
	}

	durations := map[string]*time.Duration{
		"SET_DELAY":         &cfg.SetDelay,
		"RANDOM_DELAY":      &cfg.RandomDelay,
		"TIMEOUT":           &cfg.Timeout,
		"RETRY_BACKOFF":     &cfg.RetryBackoff,
		"RETRY_BACKOFF_MAX": &cfg.RetryBackoffMax,
	}
	for key, dst := range durations {
		value, ok, err := EnvDuration(EnvPrefix + key)
		if err != nil {
			return err
		}
		if ok {
			*dst = value
		}
	}

	return nil
}

// EnvString returns a trimmed, non-empty environment value.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment value.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvFloat parses a float environment value.
func EnvFloat(key string) (float64, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvDuration parses a Go duration such as "5s" or "250ms".
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, true, nil
}
