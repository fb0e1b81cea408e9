package archive

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/voice2sql/voice2sql/internal/normalize"
)

// EncodeTable writes table as Parquet with one optional UTF-8 column per
// table column. Nil cells are stored as nulls.
func EncodeTable(table normalize.Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("table %q has no columns", table.Name)
	}

	group := parquet.Group{}
	for _, column := range table.Columns {
		if _, exists := group[column]; exists {
			return nil, fmt.Errorf("duplicate column %q", column)
		}
		group[column] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema(table.Name, group)

	// Leaf columns are ordered by the schema, not by the table.
	leafIndex := make(map[string]int, len(table.Columns))
	for i, path := range schema.Columns() {
		leafIndex[path[0]] = i
	}

	rows := make([]parquet.Row, 0, len(table.Rows))
	for r, cells := range table.Rows {
		if len(cells) != len(table.Columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r+1, len(cells), len(table.Columns))
		}
		row := make(parquet.Row, len(table.Columns))
		for c, column := range table.Columns {
			index := leafIndex[column]
			if cells[c] == nil {
				row[index] = parquet.Value{}.Level(0, 0, index)
				continue
			}
			row[index] = parquet.ByteArrayValue([]byte(fmt.Sprint(cells[c]))).Level(0, 1, index)
		}
		rows = append(rows, row)
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewWriter(buf, schema)
	if _, err := writer.WriteRows(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
