package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the differences between the supported SQL backends.
type Dialect struct {
	Driver      string
	IntegerType string
	RealType    string
	TextType    string
	// ReadOnlyTx is set when the driver accepts sql.TxOptions{ReadOnly: true}.
	ReadOnlyTx bool
	// SingleConnection limits the pool to one connection for backends that
	// do not allow concurrent writers.
	SingleConnection bool
	// MaxParams bounds the number of bind parameters per statement.
	MaxParams     int
	placeholder   func(index int) string
	listTablesSQL string
}

var (
	DuckDB = Dialect{
		Driver:      "duckdb",
		IntegerType: "BIGINT",
		RealType:    "DOUBLE",
		TextType:    "VARCHAR",
		MaxParams:   30000,
		placeholder: dollarPlaceholder,
		listTablesSQL: `SELECT table_name, column_name
FROM information_schema.columns
WHERE table_schema = 'main'
ORDER BY table_name, ordinal_position`,
	}
	Postgres = Dialect{
		Driver:      "pgx",
		IntegerType: "BIGINT",
		RealType:    "DOUBLE PRECISION",
		TextType:    "TEXT",
		ReadOnlyTx:  true,
		MaxParams:   65535,
		placeholder: dollarPlaceholder,
		listTablesSQL: `SELECT table_name, column_name
FROM information_schema.columns
WHERE table_schema = current_schema()
ORDER BY table_name, ordinal_position`,
	}
	SQLite = Dialect{
		Driver:           "sqlite",
		IntegerType:      "INTEGER",
		RealType:         "REAL",
		TextType:         "TEXT",
		SingleConnection: true,
		MaxParams:        30000,
		placeholder:      questionPlaceholder,
		listTablesSQL: `SELECT m.name, p.name
FROM sqlite_master AS m
JOIN pragma_table_info(m.name) AS p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%'
ORDER BY m.name, p.cid`,
	}
)

func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DuckDB.Driver:
		return DuckDB, nil
	case Postgres.Driver, "postgres", "postgresql":
		return Postgres, nil
	case SQLite.Driver, "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported store driver %q", driver)
	}
}

func (d Dialect) columnType(kind columnKind) string {
	switch kind {
	case kindInteger:
		return d.IntegerType
	case kindReal:
		return d.RealType
	default:
		return d.TextType
	}
}

func dollarPlaceholder(index int) string {
	return "$" + strconv.Itoa(index)
}

func questionPlaceholder(int) string {
	return "?"
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
