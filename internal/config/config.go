package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	ModelProviderNone    = "none"
	ModelProviderOpenAI  = "openai"
	ModelProviderSeq2Seq = "seq2seq"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Store         StoreConfig
	ObjectStore   ObjectStoreConfig
	Model         ModelConfig
	Speech        SpeechConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxUploadBytes int64
	AllowedOrigins []string
}

type StoreConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	InsertBatchSize int
}

type ObjectStoreConfig struct {
	ArchiveEnabled   bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ModelConfig struct {
	Provider      string
	BaseURL       string
	APIKey        string
	Name          string
	Temperature   float64
	MaxNewTokens  int
	Timeout       time.Duration
	SchemaContext bool
}

type SpeechConfig struct {
	CloudEnabled bool
	CloudURL     string
	CloudAPIKey  string
	LanguageCode string
	LocalURL     string
	Timeout      time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

// LoadFromEnv reads the process environment, falling back to values from a
// .env file in the working directory (or VOICE2SQL_ENV_FILE) when present.
func LoadFromEnv(serviceName string) (Config, error) {
	path := ".env"
	if custom, ok := os.LookupEnv("VOICE2SQL_ENV_FILE"); ok && strings.TrimSpace(custom) != "" {
		path = strings.TrimSpace(custom)
	}
	lookup, err := LookupWithDotEnv(os.LookupEnv, path)
	if err != nil {
		return Config{}, err
	}
	return Load(serviceName, lookup)
}

// LookupWithDotEnv layers the key/value pairs of a dotenv file underneath
// primary. A missing file is not an error.
func LookupWithDotEnv(primary LookupFunc, path string) (LookupFunc, error) {
	if primary == nil {
		return nil, fmt.Errorf("lookup function is required")
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return primary, nil
		}
		return nil, fmt.Errorf("read env file %q: %w", path, err)
	}
	return func(key string) (string, bool) {
		if value, ok := primary(key); ok {
			return value, true
		}
		value, ok := values[key]
		return value, ok
	}, nil
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("VOICE2SQL_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid VOICE2SQL_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "VOICE2SQL_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "VOICE2SQL_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "VOICE2SQL_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "VOICE2SQL_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "VOICE2SQL_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },
		func() error { return applyInt64(lookup, "VOICE2SQL_HTTP_MAX_UPLOAD_BYTES", &cfg.HTTP.MaxUploadBytes) },
		func() error { return applyList(lookup, "VOICE2SQL_HTTP_ALLOWED_ORIGINS", &cfg.HTTP.AllowedOrigins) },
		func() error { return applyString(lookup, "VOICE2SQL_STORE_DRIVER", &cfg.Store.Driver) },
		func() error { return applyString(lookup, "VOICE2SQL_STORE_DSN", &cfg.Store.DSN) },
		func() error { return applyInt(lookup, "VOICE2SQL_STORE_MAX_OPEN_CONNS", &cfg.Store.MaxOpenConns) },
		func() error { return applyInt(lookup, "VOICE2SQL_STORE_MAX_IDLE_CONNS", &cfg.Store.MaxIdleConns) },
		func() error { return applyDuration(lookup, "VOICE2SQL_STORE_CONN_MAX_IDLE_TIME", &cfg.Store.ConnMaxIdleTime) },
		func() error { return applyDuration(lookup, "VOICE2SQL_STORE_CONN_MAX_LIFETIME", &cfg.Store.ConnMaxLifetime) },
		func() error { return applyInt(lookup, "VOICE2SQL_STORE_INSERT_BATCH_SIZE", &cfg.Store.InsertBatchSize) },
		func() error { return applyBool(lookup, "VOICE2SQL_ARCHIVE_ENABLED", &cfg.ObjectStore.ArchiveEnabled) },
		func() error { return applyString(lookup, "VOICE2SQL_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint) },
		func() error { return applyString(lookup, "VOICE2SQL_OBJECTSTORE_REGION", &cfg.ObjectStore.Region) },
		func() error { return applyString(lookup, "VOICE2SQL_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket) },
		func() error { return applyString(lookup, "VOICE2SQL_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID) },
		func() error { return applyString(lookup, "VOICE2SQL_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey) },
		func() error { return applyBool(lookup, "VOICE2SQL_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL) },
		func() error { return applyString(lookup, "VOICE2SQL_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix) },
		func() error { return applyBool(lookup, "VOICE2SQL_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket) },
		func() error { return applyString(lookup, "VOICE2SQL_MODEL_PROVIDER", &cfg.Model.Provider) },
		func() error { return applyString(lookup, "VOICE2SQL_MODEL_BASE_URL", &cfg.Model.BaseURL) },
		func() error { return applyString(lookup, "VOICE2SQL_MODEL_API_KEY", &cfg.Model.APIKey) },
		func() error { return applyString(lookup, "VOICE2SQL_MODEL_NAME", &cfg.Model.Name) },
		func() error { return applyFloat(lookup, "VOICE2SQL_MODEL_TEMPERATURE", &cfg.Model.Temperature) },
		func() error { return applyInt(lookup, "VOICE2SQL_MODEL_MAX_NEW_TOKENS", &cfg.Model.MaxNewTokens) },
		func() error { return applyDuration(lookup, "VOICE2SQL_MODEL_TIMEOUT", &cfg.Model.Timeout) },
		func() error { return applyBool(lookup, "VOICE2SQL_MODEL_SCHEMA_CONTEXT", &cfg.Model.SchemaContext) },
		func() error { return applyBool(lookup, "VOICE2SQL_SPEECH_CLOUD_ENABLED", &cfg.Speech.CloudEnabled) },
		func() error { return applyString(lookup, "VOICE2SQL_SPEECH_CLOUD_URL", &cfg.Speech.CloudURL) },
		func() error { return applyString(lookup, "VOICE2SQL_SPEECH_CLOUD_API_KEY", &cfg.Speech.CloudAPIKey) },
		func() error { return applyString(lookup, "VOICE2SQL_SPEECH_LANGUAGE", &cfg.Speech.LanguageCode) },
		func() error { return applyString(lookup, "VOICE2SQL_SPEECH_LOCAL_URL", &cfg.Speech.LocalURL) },
		func() error { return applyDuration(lookup, "VOICE2SQL_SPEECH_TIMEOUT", &cfg.Speech.Timeout) },
		func() error { return applyBool(lookup, "VOICE2SQL_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "VOICE2SQL_LOG_LEVEL", &cfg.Observability.LogLevel) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	cfg.Model.Provider = strings.ToLower(cfg.Model.Provider)

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.HTTP.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("invalid VOICE2SQL_HTTP_MAX_UPLOAD_BYTES: must be > 0")
	}
	switch cfg.Store.Driver {
	case "duckdb", "pgx", "sqlite":
	default:
		return Config{}, fmt.Errorf("invalid VOICE2SQL_STORE_DRIVER: %q", cfg.Store.Driver)
	}
	switch cfg.Model.Provider {
	case ModelProviderNone, ModelProviderOpenAI, ModelProviderSeq2Seq:
	default:
		return Config{}, fmt.Errorf("invalid VOICE2SQL_MODEL_PROVIDER: %q", cfg.Model.Provider)
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "voice2sql-api"},
		HTTP: HTTPConfig{
			Address:        ":8001",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxUploadBytes: 32 << 20,
			AllowedOrigins: []string{"*"},
		},
		Store: StoreConfig{
			Driver:          "duckdb",
			DSN:             "voice2sql.duckdb",
			MaxOpenConns:    8,
			MaxIdleConns:    8,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
			InsertBatchSize: 500,
		},
		ObjectStore: ObjectStoreConfig{
			ArchiveEnabled:   false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "voice2sql",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Model: ModelConfig{
			Provider:      ModelProviderNone,
			BaseURL:       "https://api.openai.com",
			Name:          "gpt-5",
			Temperature:   0.1,
			MaxNewTokens:  256,
			Timeout:       15 * time.Second,
			SchemaContext: true,
		},
		Speech: SpeechConfig{
			CloudEnabled: false,
			CloudURL:     "https://speech.googleapis.com",
			LanguageCode: "en-US",
			LocalURL:     "",
			Timeout:      30 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18001"
		cfg.Store.DSN = ""
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyList(lookup LookupFunc, key string, dst *[]string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	values := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	*dst = values
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
