package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

type queryRequest struct {
	Query string `json:"query"`
	Voice string `json:"voice"`
}

// text prefers the typed query over the transcribed one.
func (q queryRequest) text() string {
	if text := strings.TrimSpace(q.Query); text != "" {
		return text
	}
	return strings.TrimSpace(q.Voice)
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Translator == nil || deps.Executor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "QUERY_NOT_CONFIGURED", "query dependencies are not configured", false, nil)
		return
	}

	var request queryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
		return
	}

	outcome := deps.Translator.Translate(r.Context(), request.text())
	result := deps.Executor.Execute(r.Context(), outcome)
	if deps.Results != nil {
		deps.Results.Record(result.SQL, result.Rows)
	}
	writeJSON(w, http.StatusOK, result)
}
