package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/voice2sql/voice2sql/internal/cli/voice2sqlctl"
)

func main() {
	timeout := parseDurationWithDefault(strings.TrimSpace(os.Getenv("VOICE2SQL_CLI_TIMEOUT")), 30*time.Second)
	options := voice2sqlctl.Options{
		BaseURL: envOr("VOICE2SQL_API_URL", "http://localhost:8001"),
		Timeout: timeout,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}

	code := voice2sqlctl.Run(context.Background(), os.Args[1:], options)
	os.Exit(code)
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func parseDurationWithDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid VOICE2SQL_CLI_TIMEOUT %q; using %s\n", raw, fallback)
		return fallback
	}
	return parsed
}
