package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("voice2sql-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8001" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.MaxUploadBytes != 32<<20 {
		t.Fatalf("HTTP.MaxUploadBytes = %d", cfg.HTTP.MaxUploadBytes)
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 || cfg.HTTP.AllowedOrigins[0] != "*" {
		t.Fatalf("HTTP.AllowedOrigins = %#v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.Store.Driver != "duckdb" {
		t.Fatalf("Store.Driver = %q", cfg.Store.Driver)
	}
	if cfg.Store.InsertBatchSize != 500 {
		t.Fatalf("Store.InsertBatchSize = %d", cfg.Store.InsertBatchSize)
	}
	if cfg.ObjectStore.ArchiveEnabled {
		t.Fatal("ObjectStore.ArchiveEnabled should default to false")
	}
	if cfg.Model.Provider != ModelProviderNone {
		t.Fatalf("Model.Provider = %q", cfg.Model.Provider)
	}
	if cfg.Speech.CloudEnabled {
		t.Fatal("Speech.CloudEnabled should default to false")
	}
	if cfg.Speech.LanguageCode != "en-US" {
		t.Fatalf("Speech.LanguageCode = %q", cfg.Speech.LanguageCode)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("voice2sql-api", mapLookup(map[string]string{"VOICE2SQL_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
	if cfg.ObjectStore.AutoCreateBucket {
		t.Fatal("ObjectStore.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"VOICE2SQL_PROFILE":                 "test",
		"VOICE2SQL_SERVICE_NAME":            "voice2sql-custom",
		"VOICE2SQL_HTTP_ADDR":               ":9999",
		"VOICE2SQL_HTTP_READ_TIMEOUT":       "2s",
		"VOICE2SQL_HTTP_MAX_UPLOAD_BYTES":   "1024",
		"VOICE2SQL_HTTP_ALLOWED_ORIGINS":    "http://localhost:3000, https://app.example.com",
		"VOICE2SQL_LOG_LEVEL":               "error",
		"VOICE2SQL_STORE_DRIVER":            "SQLite",
		"VOICE2SQL_STORE_DSN":               "file:voice2sql.sqlite",
		"VOICE2SQL_STORE_MAX_OPEN_CONNS":    "3",
		"VOICE2SQL_STORE_INSERT_BATCH_SIZE": "50",
		"VOICE2SQL_ARCHIVE_ENABLED":         "true",
		"VOICE2SQL_OBJECTSTORE_BUCKET":      "uploads",
		"VOICE2SQL_MODEL_PROVIDER":          "seq2seq",
		"VOICE2SQL_MODEL_BASE_URL":          "http://localhost:8080/generate",
		"VOICE2SQL_MODEL_MAX_NEW_TOKENS":    "64",
		"VOICE2SQL_MODEL_TEMPERATURE":       "0.3",
		"VOICE2SQL_MODEL_TIMEOUT":           "21s",
		"VOICE2SQL_MODEL_SCHEMA_CONTEXT":    "false",
		"VOICE2SQL_SPEECH_CLOUD_ENABLED":    "true",
		"VOICE2SQL_SPEECH_CLOUD_API_KEY":    "speech-key",
		"VOICE2SQL_SPEECH_LOCAL_URL":        "http://localhost:9000/inference",
	})
	cfg, err := Load("voice2sql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "voice2sql-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.MaxUploadBytes != 1024 {
		t.Fatalf("HTTP.MaxUploadBytes = %d", cfg.HTTP.MaxUploadBytes)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://app.example.com" {
		t.Fatalf("HTTP.AllowedOrigins = %#v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("Store.Driver = %q", cfg.Store.Driver)
	}
	if cfg.Store.DSN != "file:voice2sql.sqlite" {
		t.Fatalf("Store.DSN = %q", cfg.Store.DSN)
	}
	if cfg.Store.MaxOpenConns != 3 {
		t.Fatalf("Store.MaxOpenConns = %d", cfg.Store.MaxOpenConns)
	}
	if cfg.Store.InsertBatchSize != 50 {
		t.Fatalf("Store.InsertBatchSize = %d", cfg.Store.InsertBatchSize)
	}
	if !cfg.ObjectStore.ArchiveEnabled {
		t.Fatal("ObjectStore.ArchiveEnabled = false, want true")
	}
	if cfg.ObjectStore.Bucket != "uploads" {
		t.Fatalf("ObjectStore.Bucket = %q", cfg.ObjectStore.Bucket)
	}
	if cfg.Model.Provider != ModelProviderSeq2Seq {
		t.Fatalf("Model.Provider = %q", cfg.Model.Provider)
	}
	if cfg.Model.BaseURL != "http://localhost:8080/generate" {
		t.Fatalf("Model.BaseURL = %q", cfg.Model.BaseURL)
	}
	if cfg.Model.MaxNewTokens != 64 {
		t.Fatalf("Model.MaxNewTokens = %d", cfg.Model.MaxNewTokens)
	}
	if cfg.Model.Temperature != 0.3 {
		t.Fatalf("Model.Temperature = %f", cfg.Model.Temperature)
	}
	if cfg.Model.Timeout != 21*time.Second {
		t.Fatalf("Model.Timeout = %s", cfg.Model.Timeout)
	}
	if cfg.Model.SchemaContext {
		t.Fatal("Model.SchemaContext = true, want false")
	}
	if !cfg.Speech.CloudEnabled {
		t.Fatal("Speech.CloudEnabled = false, want true")
	}
	if cfg.Speech.CloudAPIKey != "speech-key" {
		t.Fatalf("Speech.CloudAPIKey = %q", cfg.Speech.CloudAPIKey)
	}
	if cfg.Speech.LocalURL != "http://localhost:9000/inference" {
		t.Fatalf("Speech.LocalURL = %q", cfg.Speech.LocalURL)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"VOICE2SQL_PROFILE": "oops"},
		{"VOICE2SQL_HTTP_READ_TIMEOUT": "NaN"},
		{"VOICE2SQL_HTTP_MAX_UPLOAD_BYTES": "0"},
		{"VOICE2SQL_STORE_DRIVER": "mysql"},
		{"VOICE2SQL_STORE_MAX_OPEN_CONNS": "oops"},
		{"VOICE2SQL_MODEL_PROVIDER": "llama"},
		{"VOICE2SQL_MODEL_TEMPERATURE": "bad"},
		{"VOICE2SQL_SPEECH_CLOUD_ENABLED": "not-bool"},
		{"VOICE2SQL_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("voice2sql-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestLookupWithDotEnvLayersFileUnderPrimary(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "VOICE2SQL_HTTP_ADDR=:7000\nVOICE2SQL_MODEL_PROVIDER=openai\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	lookup, err := LookupWithDotEnv(mapLookup(map[string]string{"VOICE2SQL_HTTP_ADDR": ":9000"}), path)
	if err != nil {
		t.Fatalf("LookupWithDotEnv() error = %v", err)
	}
	cfg, err := Load("voice2sql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Address != ":9000" {
		t.Fatalf("HTTP.Address = %q, want process env to win", cfg.HTTP.Address)
	}
	if cfg.Model.Provider != ModelProviderOpenAI {
		t.Fatalf("Model.Provider = %q, want value from env file", cfg.Model.Provider)
	}
}

func TestLookupWithDotEnvIgnoresMissingFile(t *testing.T) {
	primary := mapLookup(map[string]string{"VOICE2SQL_HTTP_ADDR": ":9000"})
	lookup, err := LookupWithDotEnv(primary, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LookupWithDotEnv() error = %v", err)
	}
	if value, ok := lookup("VOICE2SQL_HTTP_ADDR"); !ok || value != ":9000" {
		t.Fatalf("lookup() = %q, %v", value, ok)
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
