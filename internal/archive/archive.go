// Package archive copies uploads and the tables derived from them to object
// storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"time"

	"github.com/voice2sql/voice2sql/internal/normalize"
	"github.com/voice2sql/voice2sql/internal/observability"
	"github.com/voice2sql/voice2sql/internal/storage"
)

const parquetContentType = "application/vnd.apache.parquet"

type Archiver struct {
	store  storage.ObjectStore
	logger *slog.Logger
	now    func() time.Time
}

func New(store storage.ObjectStore, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Archiver{store: store, logger: logger, now: time.Now}
}

// Archive stores the raw upload and a Parquet snapshot of table under the
// same timestamp. When the snapshot cannot be stored the raw upload is
// removed again.
func (a *Archiver) Archive(ctx context.Context, file normalize.File, table normalize.Table) error {
	at := a.now()
	uploadKey, err := storage.BuildUploadPath(table.Name, file.Name, at)
	if err != nil {
		return err
	}
	snapshotKey, err := storage.BuildTableSnapshotPath(table.Name, at)
	if err != nil {
		return err
	}
	encoded, err := EncodeTable(table)
	if err != nil {
		return fmt.Errorf("encode table %q: %w", table.Name, err)
	}

	if _, err := a.store.Put(ctx, uploadKey, bytes.NewReader(file.Data), int64(len(file.Data)), storage.PutOptions{
		ContentType: contentTypeFor(file.Name),
	}); err != nil {
		return fmt.Errorf("archive upload: %w", err)
	}
	if _, err := a.store.Put(ctx, snapshotKey, bytes.NewReader(encoded), int64(len(encoded)), storage.PutOptions{
		ContentType: parquetContentType,
	}); err != nil {
		if deleteErr := a.store.Delete(ctx, uploadKey); deleteErr != nil {
			a.logger.WarnContext(ctx, "archive_cleanup_failed",
				observability.TraceAttr(ctx),
				slog.String("key", uploadKey),
				slog.String("error", deleteErr.Error()),
			)
		}
		return fmt.Errorf("archive table snapshot: %w", err)
	}

	a.logger.DebugContext(ctx, "archive_stored",
		observability.TraceAttr(ctx),
		slog.String("table", table.Name),
		slog.String("upload_key", uploadKey),
		slog.String("snapshot_key", snapshotKey),
	)
	return nil
}

func (a *Archiver) HealthCheck(ctx context.Context) error {
	return a.store.HealthCheck(ctx)
}

func contentTypeFor(name string) string {
	if contentType := mime.TypeByExtension(path.Ext(name)); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
