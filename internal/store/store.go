// Package store persists normalized tables in a relational database and runs
// read-only SQL against them.
package store

import (
	"context"
	"fmt"

	"github.com/voice2sql/voice2sql/internal/normalize"
)

type Store interface {
	// Write replaces any existing table of the same name with table.
	Write(ctx context.Context, table normalize.Table) error
	Query(ctx context.Context, sql string) (Rows, error)
	ListTables(ctx context.Context) ([]TableInfo, error)
	HealthCheck(ctx context.Context) error
}

// Rows is a fully materialized result set. Values are aligned with Columns.
type Rows struct {
	Columns []string
	Values  [][]any
}

type TableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

type WriteError struct {
	Table string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write table %q: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
