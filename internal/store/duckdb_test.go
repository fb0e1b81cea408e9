package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"sync"
	"testing"

	"github.com/marcboeker/go-duckdb/v2"

	"github.com/voice2sql/voice2sql/internal/normalize"
)

func openDuckDB(t *testing.T) *SQLStore {
	t.Helper()
	store, err := Open(context.Background(), Config{Driver: "duckdb"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDuckDBRoundTripPreservesColumnOrder(t *testing.T) {
	store := openDuckDB(t)
	ctx := context.Background()

	err := store.Write(ctx, normalize.Table{
		Name:    "students",
		Columns: []string{"id", "major"},
		Rows:    [][]any{{"1", "CS"}, {"2", "Math"}},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	rows, err := store.Query(ctx, "SELECT * FROM students ORDER BY id")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !reflect.DeepEqual(rows.Columns, []string{"id", "major"}) {
		t.Fatalf("Columns = %#v", rows.Columns)
	}
	want := [][]any{{int64(1), "CS"}, {int64(2), "Math"}}
	if !reflect.DeepEqual(rows.Values, want) {
		t.Fatalf("Values = %#v", rows.Values)
	}
}

func TestDuckDBWriteReplacesExistingTable(t *testing.T) {
	store := openDuckDB(t)
	ctx := context.Background()

	first := normalize.Table{Name: "grades", Columns: []string{"a", "b"}, Rows: [][]any{{"1", "2"}, {"3", "4"}}}
	second := normalize.Table{Name: "grades", Columns: []string{"score"}, Rows: [][]any{{"9.5"}}}
	if err := store.Write(ctx, first); err != nil {
		t.Fatalf("Write(first) error = %v", err)
	}
	if err := store.Write(ctx, second); err != nil {
		t.Fatalf("Write(second) error = %v", err)
	}

	rows, err := store.Query(ctx, "SELECT * FROM grades")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !reflect.DeepEqual(rows.Columns, []string{"score"}) {
		t.Fatalf("Columns = %#v", rows.Columns)
	}
	if !reflect.DeepEqual(rows.Values, [][]any{{9.5}}) {
		t.Fatalf("Values = %#v", rows.Values)
	}

	tables, err := store.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if !reflect.DeepEqual(tables, []TableInfo{{Name: "grades", Columns: []string{"score"}}}) {
		t.Fatalf("ListTables() = %#v", tables)
	}
}

func TestDuckDBConcurrentWritesToSameNameLeaveOneCompleteTable(t *testing.T) {
	store := openDuckDB(t)
	ctx := context.Background()

	const writers = 8
	const rowsPerWriter = 50
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(writer int) {
			defer wg.Done()
			rows := make([][]any, rowsPerWriter)
			for i := range rows {
				rows[i] = []any{fmt.Sprintf("writer-%d", writer), fmt.Sprint(i)}
			}
			errs <- store.Write(ctx, normalize.Table{Name: "people", Columns: []string{"origin", "n"}, Rows: rows})
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	rows, err := store.Query(ctx, "SELECT COUNT(*) AS total, COUNT(DISTINCT origin) AS origins FROM people")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !reflect.DeepEqual(rows.Values, [][]any{{int64(rowsPerWriter), int64(1)}}) {
		t.Fatalf("Values = %#v", rows.Values)
	}
}

func TestDuckDBMalformedSQLIsExecutionError(t *testing.T) {
	store := openDuckDB(t)

	_, err := store.Query(context.Background(), "SELEC broken")
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Query() error = %v, want ExecutionError", err)
	}
}

func TestDuckDBDecimalAndIntervalResultsArePlainValues(t *testing.T) {
	store := openDuckDB(t)
	ctx := context.Background()

	err := store.Write(ctx, normalize.Table{
		Name:    "notes",
		Columns: []string{"id", "note"},
		Rows:    [][]any{{"1", "a;b"}, {"2", "c"}},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	rows, err := store.Query(ctx, "SELECT 1.5 AS x, AVG(id) AS a, CAST(2.25 AS DECIMAL(10,2)) AS d, INTERVAL 1 DAY AS i FROM notes")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	want := [][]any{{1.5, 1.5, 2.25, "P1D"}}
	if !reflect.DeepEqual(rows.Values, want) {
		t.Fatalf("Values = %#v, want %#v", rows.Values, want)
	}
}

func TestDecimalValueKeepsExactTextWhenFloatWouldRound(t *testing.T) {
	wide, _ := new(big.Int).SetString("12345678901234567890123", 10)
	tests := []struct {
		value duckdb.Decimal
		want  any
	}{
		{duckdb.Decimal{Width: 2, Scale: 1, Value: big.NewInt(15)}, 1.5},
		{duckdb.Decimal{Width: 4, Scale: 2, Value: big.NewInt(-1000)}, float64(-10)},
		{duckdb.Decimal{Width: 38, Scale: 3, Value: wide}, "12345678901234567890.123"},
		{duckdb.Decimal{Width: 18, Scale: 3}, nil},
	}
	for _, tc := range tests {
		if got := decimalValue(tc.value); got != tc.want {
			t.Fatalf("decimalValue(%#v) = %#v, want %#v", tc.value, got, tc.want)
		}
	}
}

func TestIntervalText(t *testing.T) {
	tests := []struct {
		value duckdb.Interval
		want  string
	}{
		{duckdb.Interval{}, "PT0S"},
		{duckdb.Interval{Days: 1}, "P1D"},
		{duckdb.Interval{Months: 14, Days: 3}, "P14M3D"},
		{duckdb.Interval{Micros: 5_400_000_000}, "PT1H30M"},
		{duckdb.Interval{Days: 2, Micros: 1_500_000}, "P2DT1.5S"},
	}
	for _, tc := range tests {
		if got := intervalText(tc.value); got != tc.want {
			t.Fatalf("intervalText(%+v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	store, err := Open(context.Background(), Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	err = store.Write(ctx, normalize.Table{
		Name:    "courses",
		Columns: []string{"code", "title"},
		Rows:    [][]any{{"101", "Intro"}, {"202", nil}},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	rows, err := store.Query(ctx, "SELECT code, title FROM courses ORDER BY code")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	want := [][]any{{int64(101), "Intro"}, {int64(202), nil}}
	if !reflect.DeepEqual(rows.Values, want) {
		t.Fatalf("Values = %#v", rows.Values)
	}

	tables, err := store.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if !reflect.DeepEqual(tables, []TableInfo{{Name: "courses", Columns: []string{"code", "title"}}}) {
		t.Fatalf("ListTables() = %#v", tables)
	}
}
