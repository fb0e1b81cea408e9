package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	APIBaseURL  string
	FileName    string
	Students    int
	Seed        int64
	HTTPTimeout time.Duration
	// OutputPath additionally writes the generated CSV to disk when set.
	OutputPath string
}

func DefaultConfig() Config {
	return Config{
		APIBaseURL:  "http://localhost:8001",
		FileName:    "students.csv",
		Students:    40,
		Seed:        42,
		HTTPTimeout: 30 * time.Second,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyString(lookup, "VOICE2SQL_DEMO_API_URL", &cfg.APIBaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "VOICE2SQL_DEMO_FILE_NAME", &cfg.FileName); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "VOICE2SQL_DEMO_STUDENTS", &cfg.Students); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "VOICE2SQL_DEMO_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "VOICE2SQL_DEMO_HTTP_TIMEOUT", &cfg.HTTPTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "VOICE2SQL_DEMO_OUTPUT", &cfg.OutputPath); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return Config{}, fmt.Errorf("VOICE2SQL_DEMO_API_URL is required")
	}
	if strings.TrimSpace(cfg.FileName) == "" {
		return Config{}, fmt.Errorf("VOICE2SQL_DEMO_FILE_NAME is required")
	}
	if cfg.Students <= 0 {
		return Config{}, fmt.Errorf("VOICE2SQL_DEMO_STUDENTS must be > 0")
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("VOICE2SQL_DEMO_HTTP_TIMEOUT must be > 0")
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	return cfg, nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
