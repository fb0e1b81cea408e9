package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/voice2sql/voice2sql/internal/nl2sql"
	"github.com/voice2sql/voice2sql/internal/observability"
	"github.com/voice2sql/voice2sql/internal/store"
)

var ErrStatementNotAllowed = errors.New("only a single read-only SELECT or WITH statement is allowed")

type Executor struct {
	reader Reader
	logger *slog.Logger
}

func NewExecutor(reader Reader, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Executor{reader: reader, logger: logger}
}

// Execute runs the SQL of a translation outcome. Empty and declined outcomes
// are returned without touching the store.
func (e *Executor) Execute(ctx context.Context, outcome nl2sql.Outcome) Result {
	result := Result{SQL: outcome.SQL, Columns: []string{}, Rows: []map[string]any{}}
	switch {
	case outcome.SQL == "":
		return result
	case outcome.Declined():
		result.Error = outcome.Error
		return result
	}

	sqlText := nl2sql.StripTrailingSemicolons(outcome.SQL)
	if !isAllowedSQL(sqlText) {
		err := &store.ExecutionError{SQL: outcome.SQL, Err: ErrStatementNotAllowed}
		e.logFailure(ctx, outcome.SQL, err)
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	rows, err := e.reader.Query(ctx, sqlText)
	observability.ObserveQueryExecution(time.Since(start), err)
	if err != nil {
		e.logFailure(ctx, outcome.SQL, err)
		result.Error = err.Error()
		if outcome.Path == nl2sql.PathDemo {
			result.Error = "demo query failed: " + result.Error
		}
		return result
	}

	result.Columns = rows.Columns
	result.Rows = zipRows(rows)
	return result
}

func (e *Executor) logFailure(ctx context.Context, sqlText string, err error) {
	e.logger.WarnContext(ctx, "query_execution_failed",
		observability.TraceAttr(ctx),
		slog.String("sql", sqlText),
		slog.String("error", err.Error()),
	)
}

// zipRows pairs every row with the column names. With duplicate column names
// the last value wins.
func zipRows(rows store.Rows) []map[string]any {
	mapped := make([]map[string]any, 0, len(rows.Values))
	for _, values := range rows.Values {
		row := make(map[string]any, len(rows.Columns))
		for i, column := range rows.Columns {
			if i < len(values) {
				row[column] = values[i]
			}
		}
		mapped = append(mapped, row)
	}
	return mapped
}

func isAllowedSQL(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" || hasStatementSeparator(normalized) {
		return false
	}
	return strings.HasPrefix(normalized, "select") || strings.HasPrefix(normalized, "with")
}

// hasStatementSeparator reports whether sqlText contains a semicolon outside
// quoted strings, quoted identifiers and comments.
func hasStatementSeparator(sqlText string) bool {
	for i := 0; i < len(sqlText); i++ {
		switch c := sqlText[i]; {
		case c == ';':
			return true
		case c == '\'' || c == '"':
			// A doubled quote is an escaped quote and keeps the literal open.
			for i++; i < len(sqlText); i++ {
				if sqlText[i] != c {
					continue
				}
				if i+1 < len(sqlText) && sqlText[i+1] == c {
					i++
					continue
				}
				break
			}
		case c == '-' && strings.HasPrefix(sqlText[i:], "--"):
			end := strings.IndexByte(sqlText[i:], '\n')
			if end < 0 {
				return false
			}
			i += end
		case c == '/' && strings.HasPrefix(sqlText[i:], "/*"):
			end := strings.Index(sqlText[i+2:], "*/")
			if end < 0 {
				return false
			}
			i += end + 3
		}
	}
	return false
}
