package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voice2sql/voice2sql/internal/api"
	"github.com/voice2sql/voice2sql/internal/archive"
	"github.com/voice2sql/voice2sql/internal/config"
	"github.com/voice2sql/voice2sql/internal/ingest"
	"github.com/voice2sql/voice2sql/internal/nl2sql"
	"github.com/voice2sql/voice2sql/internal/normalize"
	"github.com/voice2sql/voice2sql/internal/observability"
	"github.com/voice2sql/voice2sql/internal/query"
	"github.com/voice2sql/voice2sql/internal/results"
	"github.com/voice2sql/voice2sql/internal/speech"
	"github.com/voice2sql/voice2sql/internal/store"
	s3store "github.com/voice2sql/voice2sql/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("voice2sql-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	db, err := store.Open(context.Background(), store.Config{
		Driver:          cfg.Store.Driver,
		DSN:             cfg.Store.DSN,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxIdleTime: cfg.Store.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
		InsertBatchSize: cfg.Store.InsertBatchSize,
	})
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	readiness := []api.ReadinessCheck{db.HealthCheck}
	ingestService := &ingest.Service{
		Normalizer: normalize.NewNormalizer(nil),
		Writer:     db,
		Logger:     logger,
	}
	if cfg.ObjectStore.ArchiveEnabled {
		objectStore, err := s3store.New(context.Background(), s3store.Config{
			Endpoint:         cfg.ObjectStore.Endpoint,
			Region:           cfg.ObjectStore.Region,
			Bucket:           cfg.ObjectStore.Bucket,
			AccessKeyID:      cfg.ObjectStore.AccessKeyID,
			SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
			UseSSL:           cfg.ObjectStore.UseSSL,
			Prefix:           cfg.ObjectStore.Prefix,
			AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		archiver := archive.New(objectStore, logger)
		ingestService.Archiver = archiver
		readiness = append(readiness, api.CheckObjectStoreConfig(cfg), archiver.HealthCheck)
	}

	// A model that cannot be built leaves the translator in demo-only mode.
	model, err := nl2sql.NewModel(nl2sql.ModelConfig{
		Provider:     cfg.Model.Provider,
		BaseURL:      cfg.Model.BaseURL,
		APIKey:       cfg.Model.APIKey,
		Name:         cfg.Model.Name,
		Temperature:  cfg.Model.Temperature,
		MaxNewTokens: cfg.Model.MaxNewTokens,
		Timeout:      cfg.Model.Timeout,
	})
	if err != nil {
		logger.Error("failed to load model; serving demo patterns only",
			slog.String("provider", cfg.Model.Provider),
			slog.Any("error", err),
		)
		model = nil
	}
	translatorConfig := nl2sql.Config{Model: model, Logger: logger}
	if cfg.Model.SchemaContext {
		translatorConfig.Schema = storeSchema(db)
	}
	translator := nl2sql.NewTranslator(translatorConfig)

	transcriber := speech.New(speech.Config{
		CloudEnabled: cfg.Speech.CloudEnabled,
		CloudURL:     cfg.Speech.CloudURL,
		CloudAPIKey:  cfg.Speech.CloudAPIKey,
		LanguageCode: cfg.Speech.LanguageCode,
		LocalURL:     cfg.Speech.LocalURL,
		Timeout:      cfg.Speech.Timeout,
	})

	deps := api.Dependencies{
		Logger:            logger,
		Readiness:         api.CombineReadinessChecks(readiness...),
		DependencyTimeout: time.Second,
		Ingest:            ingestService,
		Translator:        translator,
		Executor:          query.NewExecutor(db, logger),
		Transcriber:       transcriber,
		Tables:            db,
		Results:           results.NewRecorder(),
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("store_driver", cfg.Store.Driver),
			slog.Bool("model_loaded", translator.ModelLoaded()),
			slog.String("speech_backend", transcriber.Backend()),
			slog.Bool("archive_enabled", cfg.ObjectStore.ArchiveEnabled),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func storeSchema(tables api.TableLister) nl2sql.SchemaFunc {
	return func(ctx context.Context) ([]nl2sql.TableContext, error) {
		infos, err := tables.ListTables(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]nl2sql.TableContext, 0, len(infos))
		for _, info := range infos {
			out = append(out, nl2sql.TableContext{TableName: info.Name, Columns: info.Columns})
		}
		return out, nil
	}
}
