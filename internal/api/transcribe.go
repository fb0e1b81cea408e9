package api

import (
	"log/slog"
	"net/http"

	"github.com/voice2sql/voice2sql/internal/observability"
	"github.com/voice2sql/voice2sql/internal/speech"
)

type transcribeResponse struct {
	Text  *string `json:"text,omitempty"`
	Error string  `json:"error,omitempty"`
}

// handleTranscribe answers 200 with an error field when recognition fails;
// only a missing or unreadable upload is a client error.
func handleTranscribe(deps Dependencies, maxBytes int64, w http.ResponseWriter, r *http.Request) {
	form, ok := parseUpload(w, r, maxBytes)
	if !ok {
		return
	}
	defer func() { _ = form.RemoveAll() }()

	headers := form.File["audio"]
	if len(headers) == 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "AUDIO_REQUIRED", "audio file missing", false, nil)
		return
	}
	audio, err := readPart(headers[0])
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MULTIPART", "failed to read audio file", false, map[string]any{"details": err.Error()})
		return
	}

	transcriber := deps.Transcriber
	if transcriber == nil {
		transcriber = speech.Unavailable{}
	}
	text, err := transcriber.Transcribe(r.Context(), audio)
	if err != nil {
		if deps.Logger != nil {
			deps.Logger.WarnContext(r.Context(), "transcription_failed",
				observability.TraceAttr(r.Context()),
				slog.String("backend", transcriber.Backend()),
				slog.String("error", err.Error()),
			)
		}
		writeJSON(w, http.StatusOK, transcribeResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, transcribeResponse{Text: &text})
}
