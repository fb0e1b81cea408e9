package api

import (
	"net/http"

	"github.com/voice2sql/voice2sql/internal/store"
)

type listTablesResponse struct {
	Tables []store.TableInfo `json:"tables"`
}

func handleListTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Tables == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TABLES_NOT_CONFIGURED", "table listing is not configured", false, nil)
		return
	}
	tables, err := deps.Tables.ListTables(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "STORE_ERROR", "failed to list tables", true, map[string]any{"details": err.Error()})
		return
	}
	if tables == nil {
		tables = []store.TableInfo{}
	}
	writeJSON(w, http.StatusOK, listTablesResponse{Tables: tables})
}

type resultsResponse struct {
	SQL  string           `json:"sql,omitempty"`
	Rows []map[string]any `json:"rows"`
}

func handleResults(deps Dependencies, w http.ResponseWriter, _ *http.Request) {
	if deps.Results == nil {
		writeJSON(w, http.StatusOK, resultsResponse{Rows: []map[string]any{}})
		return
	}
	entry, _ := deps.Results.Last()
	rows := entry.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, resultsResponse{SQL: entry.SQL, Rows: rows})
}
