// Package query executes translated SQL and shapes the result for clients.
package query

import (
	"context"

	"github.com/voice2sql/voice2sql/internal/store"
)

// Reader is the read path of the relational store.
type Reader interface {
	Query(ctx context.Context, sql string) (store.Rows, error)
}

type Result struct {
	SQL     string           `json:"sql"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Error   string           `json:"error,omitempty"`
}

// Failed reports whether translation or execution produced an error.
func (r Result) Failed() bool {
	return r.Error != ""
}
