// Package seed generates the students fixture used by the demo phrase and
// uploads it through the ingest endpoint.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
)

type Service struct {
	cfg       Config
	log       *slog.Logger
	http      *http.Client
	generator *Generator
}

type IngestedTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Error   string   `json:"error,omitempty"`
}

type ingestResponse struct {
	Tables []IngestedTable `json:"tables"`
}

func NewService(cfg Config, logger *slog.Logger, client *http.Client) (*Service, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if cfg.Students <= 0 {
		return nil, fmt.Errorf("student count must be > 0")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	return &Service{
		cfg:       cfg,
		log:       logger,
		http:      client,
		generator: NewGenerator(cfg.Seed),
	}, nil
}

// Run generates the fixture and uploads it once. It returns the ingested
// table description reported by the API.
func (s *Service) Run(ctx context.Context) (IngestedTable, error) {
	data, err := EncodeCSV(s.generator.Students(s.cfg.Students))
	if err != nil {
		return IngestedTable{}, err
	}
	if s.cfg.OutputPath != "" {
		if err := os.WriteFile(s.cfg.OutputPath, data, 0o644); err != nil {
			return IngestedTable{}, fmt.Errorf("write fixture: %w", err)
		}
		s.log.Info("wrote demo fixture", slog.String("path", s.cfg.OutputPath))
	}

	table, err := s.upload(ctx, data)
	if err != nil {
		return IngestedTable{}, err
	}
	s.log.Info("seeded demo table",
		slog.String("table", table.Name),
		slog.Int("students", s.cfg.Students),
		slog.Any("columns", table.Columns),
	)
	return table, nil
}

func (s *Service) upload(ctx context.Context, data []byte) (IngestedTable, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", s.cfg.FileName)
	if err != nil {
		return IngestedTable{}, fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return IngestedTable{}, fmt.Errorf("write multipart file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return IngestedTable{}, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIBaseURL+"/v1/ingest", body)
	if err != nil {
		return IngestedTable{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return IngestedTable{}, fmt.Errorf("ingest request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return IngestedTable{}, fmt.Errorf("read ingest response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return IngestedTable{}, fmt.Errorf("ingest failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded ingestResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return IngestedTable{}, fmt.Errorf("decode ingest response: %w", err)
	}
	if len(decoded.Tables) != 1 {
		return IngestedTable{}, fmt.Errorf("ingest returned %d tables, want 1", len(decoded.Tables))
	}
	if decoded.Tables[0].Error != "" {
		return IngestedTable{}, fmt.Errorf("ingest %s: %s", s.cfg.FileName, decoded.Tables[0].Error)
	}
	return decoded.Tables[0], nil
}
