// Package ingest turns uploaded files into store tables, one table per file.
package ingest

import (
	"context"
	"log/slog"

	"github.com/voice2sql/voice2sql/internal/normalize"
	"github.com/voice2sql/voice2sql/internal/observability"
)

type Normalizer interface {
	Normalize(ctx context.Context, file normalize.File) (normalize.Table, error)
}

type TableWriter interface {
	Write(ctx context.Context, table normalize.Table) error
}

type Archiver interface {
	Archive(ctx context.Context, file normalize.File, table normalize.Table) error
}

// Result reports the outcome for one uploaded file. On failure Name is the
// uploaded file name and Error is set.
type Result struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func (r Result) Failed() bool {
	return r.Error != ""
}

type Service struct {
	Normalizer Normalizer
	Writer     TableWriter
	// Archiver is optional. Archive failures never change a file's result.
	Archiver Archiver
	Logger   *slog.Logger
}

// Ingest processes files sequentially in input order. A failing file does
// not stop the remaining ones.
func (s *Service) Ingest(ctx context.Context, files []normalize.File) []Result {
	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, s.ingestFile(ctx, file))
	}
	return results
}

func (s *Service) ingestFile(ctx context.Context, file normalize.File) Result {
	format := file.Format()

	table, err := s.Normalizer.Normalize(ctx, file)
	if err == nil {
		err = s.Writer.Write(ctx, table)
	}
	observability.ObserveIngestFile(format, len(table.Rows), err)
	if err != nil {
		s.logger().WarnContext(ctx, "ingest_file_failed",
			observability.TraceAttr(ctx),
			slog.String("file", file.Name),
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
		return Result{Name: file.Name, Error: err.Error()}
	}

	s.logger().InfoContext(ctx, "ingest_file_stored",
		observability.TraceAttr(ctx),
		slog.String("file", file.Name),
		slog.String("table", table.Name),
		slog.Int("rows", len(table.Rows)),
	)
	if s.Archiver != nil {
		if err := s.Archiver.Archive(ctx, file, table); err != nil {
			s.logger().ErrorContext(ctx, "ingest_archive_failed",
				observability.TraceAttr(ctx),
				slog.String("table", table.Name),
				slog.String("error", err.Error()),
			)
		}
	}
	return Result{Name: table.Name, Columns: table.Columns}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return observability.DiscardLogger()
	}
	return s.Logger
}
