package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/marcboeker/go-duckdb/v2"

	"github.com/voice2sql/voice2sql/internal/normalize"
)

const defaultInsertBatchSize = 500

var (
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrNoColumns       = errors.New("table has no columns")
)

// SQLStore implements Store on top of database/sql.
type SQLStore struct {
	db        *sql.DB
	dialect   Dialect
	batchSize int
	locks     *tableLocks
}

func New(db *sql.DB, dialect Dialect, insertBatchSize int) *SQLStore {
	if insertBatchSize <= 0 {
		insertBatchSize = defaultInsertBatchSize
	}
	return &SQLStore{
		db:        db,
		dialect:   dialect,
		batchSize: insertBatchSize,
		locks:     newTableLocks(),
	}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) Write(ctx context.Context, table normalize.Table) error {
	if err := validateTable(table); err != nil {
		return &WriteError{Table: table.Name, Err: err}
	}

	unlock := s.locks.lock(table.Name)
	defer unlock()

	kinds := inferKinds(len(table.Columns), table.Rows)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Table: table.Name, Err: fmt.Errorf("begin transaction: %w", err)}
	}
	if err := s.replaceTable(ctx, tx, table, kinds); err != nil {
		_ = tx.Rollback()
		return &WriteError{Table: table.Name, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &WriteError{Table: table.Name, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

func (s *SQLStore) replaceTable(ctx context.Context, tx *sql.Tx, table normalize.Table, kinds []columnKind) error {
	name := quoteIdent(table.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return fmt.Errorf("drop existing table: %w", err)
	}

	definitions := make([]string, len(table.Columns))
	quotedColumns := make([]string, len(table.Columns))
	for i, column := range table.Columns {
		quotedColumns[i] = quoteIdent(column)
		definitions[i] = quotedColumns[i] + " " + s.dialect.columnType(kinds[i])
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", name, strings.Join(definitions, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	batch := s.rowsPerInsert(len(table.Columns))
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", name, strings.Join(quotedColumns, ", "))
	for start := 0; start < len(table.Rows); start += batch {
		end := min(start+batch, len(table.Rows))
		statement, args, err := s.insertStatement(prefix, table.Rows[start:end], kinds)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, statement, args...); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", start+1, end, err)
		}
	}
	return nil
}

func (s *SQLStore) insertStatement(prefix string, rows [][]any, kinds []columnKind) (string, []any, error) {
	var b strings.Builder
	b.WriteString(prefix)
	args := make([]any, 0, len(rows)*len(kinds))
	for r, row := range rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c, kind := range kinds {
			if c > 0 {
				b.WriteString(", ")
			}
			value, err := convertCell(row[c], kind)
			if err != nil {
				return "", nil, fmt.Errorf("convert cell: %w", err)
			}
			args = append(args, value)
			b.WriteString(s.dialect.placeholder(len(args)))
		}
		b.WriteByte(')')
	}
	return b.String(), args, nil
}

func (s *SQLStore) rowsPerInsert(columns int) int {
	batch := s.batchSize
	if s.dialect.MaxParams > 0 {
		batch = min(batch, max(1, s.dialect.MaxParams/columns))
	}
	return batch
}

// Query runs sqlText in a transaction that is always rolled back.
func (s *SQLStore) Query(ctx context.Context, sqlText string) (Rows, error) {
	var options *sql.TxOptions
	if s.dialect.ReadOnlyTx {
		options = &sql.TxOptions{ReadOnly: true}
	}
	tx, err := s.db.BeginTx(ctx, options)
	if err != nil {
		return Rows{}, &ExecutionError{SQL: sqlText, Err: fmt.Errorf("begin read transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, sqlText)
	if err != nil {
		return Rows{}, &ExecutionError{SQL: sqlText, Err: fmt.Errorf("execute query: %w", err)}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Rows{}, &ExecutionError{SQL: sqlText, Err: fmt.Errorf("query columns: %w", err)}
	}

	values := make([][]any, 0)
	for rows.Next() {
		row := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range row {
			scanTargets[i] = &row[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Rows{}, &ExecutionError{SQL: sqlText, Err: fmt.Errorf("scan row: %w", err)}
		}
		values = append(values, normalizeValues(row))
	}
	if err := rows.Err(); err != nil {
		return Rows{}, &ExecutionError{SQL: sqlText, Err: fmt.Errorf("iterate rows: %w", err)}
	}
	return Rows{Columns: columns, Values: values}, nil
}

func (s *SQLStore) ListTables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.listTablesSQL)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tables := make([]TableInfo, 0)
	for rows.Next() {
		var tableName, columnName string
		if err := rows.Scan(&tableName, &columnName); err != nil {
			return nil, fmt.Errorf("scan table column: %w", err)
		}
		if len(tables) == 0 || tables[len(tables)-1].Name != tableName {
			tables = append(tables, TableInfo{Name: tableName, Columns: make([]string, 0)})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table columns: %w", err)
	}
	return tables, nil
}

func (s *SQLStore) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

func validateTable(table normalize.Table) error {
	if strings.TrimSpace(table.Name) == "" {
		return normalize.ErrEmptyTableName
	}
	if len(table.Columns) == 0 {
		return ErrNoColumns
	}
	seen := make(map[string]struct{}, len(table.Columns))
	for _, column := range table.Columns {
		key := strings.ToLower(column)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, column)
		}
		seen[key] = struct{}{}
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), len(table.Columns))
		}
	}
	return nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case *big.Int:
			if typed.IsInt64() {
				normalized[i] = typed.Int64()
			} else {
				normalized[i] = typed.String()
			}
		case duckdb.Decimal:
			normalized[i] = decimalValue(typed)
		case duckdb.Interval:
			normalized[i] = intervalText(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

// decimalValue returns a float64 when the decimal survives the conversion
// unchanged and its exact text otherwise.
func decimalValue(value duckdb.Decimal) any {
	if value.Value == nil {
		return nil
	}
	exact := value.String()
	f := value.Float64()
	if strconv.FormatFloat(f, 'f', -1, 64) == exact {
		return f
	}
	return exact
}

// intervalText renders an interval as an ISO 8601 duration such as P1M2DT3H.
func intervalText(value duckdb.Interval) string {
	var b strings.Builder
	b.WriteByte('P')
	if value.Months != 0 {
		b.WriteString(strconv.FormatInt(int64(value.Months), 10) + "M")
	}
	if value.Days != 0 {
		b.WriteString(strconv.FormatInt(int64(value.Days), 10) + "D")
	}
	micros := value.Micros
	if micros == 0 {
		if b.Len() == 1 {
			return "PT0S"
		}
		return b.String()
	}
	b.WriteByte('T')
	if micros < 0 {
		b.WriteByte('-')
		micros = -micros
	}
	hours := micros / 3_600_000_000
	micros %= 3_600_000_000
	minutes := micros / 60_000_000
	micros %= 60_000_000
	if hours != 0 {
		b.WriteString(strconv.FormatInt(hours, 10) + "H")
	}
	if minutes != 0 {
		b.WriteString(strconv.FormatInt(minutes, 10) + "M")
	}
	if micros != 0 {
		seconds := strconv.FormatInt(micros/1_000_000, 10)
		if fraction := micros % 1_000_000; fraction != 0 {
			seconds += strings.TrimRight(fmt.Sprintf(".%06d", fraction), "0")
		}
		b.WriteString(seconds + "S")
	}
	return b.String()
}
