package normalize

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

func parseCSV(data []byte) ([]string, [][]any, error) {
	reader := csv.NewReader(strings.NewReader(decodeText(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrNoColumns
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, cell := range header {
		columns[i] = headerCell(cell, i)
	}

	rows := make([][]any, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv record: %w", err)
		}
		if len(record) > len(columns) {
			line, _ := reader.FieldPos(0)
			return nil, nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(columns), len(record))
		}
		row := make([]any, len(columns))
		for i, cell := range record {
			if cell != "" {
				row[i] = cell
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}
