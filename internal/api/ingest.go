package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/voice2sql/voice2sql/internal/ingest"
	"github.com/voice2sql/voice2sql/internal/normalize"
)

const multipartMemory = 8 << 20

type ingestResponse struct {
	Tables []ingest.Result `json:"tables"`
}

func handleIngest(deps Dependencies, maxBytes int64, w http.ResponseWriter, r *http.Request) {
	if deps.Ingest == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "INGEST_NOT_CONFIGURED", "ingest dependencies are not configured", false, nil)
		return
	}

	form, ok := parseUpload(w, r, maxBytes)
	if !ok {
		return
	}
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["files"]
	if len(headers) == 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "FILES_REQUIRED", "at least one file part named \"files\" is required", false, nil)
		return
	}

	files := make([]normalize.File, 0, len(headers))
	for i, header := range headers {
		data, err := readPart(header)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MULTIPART", "failed to read uploaded file", false, map[string]any{"file_index": i, "details": err.Error()})
			return
		}
		files = append(files, normalize.File{Name: header.Filename, Data: data})
	}

	writeJSON(w, http.StatusOK, ingestResponse{Tables: deps.Ingest.Ingest(r.Context(), files)})
}

// parseUpload parses a multipart body capped at maxBytes and writes the
// error response itself when parsing fails.
func parseUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*multipart.Form, bool) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(r.Context(), w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), false, nil)
			return nil, false
		}
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MULTIPART", "invalid multipart request body", false, map[string]any{"details": err.Error()})
		return nil, false
	}
	return r.MultipartForm, true
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", header.Filename, err)
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", header.Filename, err)
	}
	return data, nil
}
