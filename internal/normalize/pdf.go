package normalize

import (
	"context"
	"fmt"
	"strings"
)

// Grid is a table extracted from a PDF page: rows of cells, header first.
// An empty string marks an empty cell.
type Grid [][]string

type PDFReader interface {
	Open(data []byte) (PDFDocument, error)
}

type PDFDocument interface {
	NumPages() int
	// PageTables returns the tables found on the 1-based page, in reading order.
	PageTables(page int) ([]Grid, error)
}

func (n *Normalizer) parsePDF(ctx context.Context, data []byte) ([]string, [][]any, error) {
	document, err := n.pdf.Open(data)
	if err != nil {
		return nil, nil, err
	}
	for page := 1; page <= document.NumPages(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		tables, err := document.PageTables(page)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d: %w", page, err)
		}
		if len(tables) > 0 {
			return gridTable(tables[0])
		}
	}
	return nil, nil, ErrNoPDFTables
}

func gridTable(grid Grid) ([]string, [][]any, error) {
	if len(grid) < 2 {
		return nil, nil, ErrNoPDFTables
	}
	columns := make([]string, len(grid[0]))
	for i, cell := range grid[0] {
		columns[i] = headerCell(cell, i)
	}
	if len(columns) == 0 {
		return nil, nil, ErrNoColumns
	}

	rows := make([][]any, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := make([]any, len(columns))
		empty := true
		for i := 0; i < len(columns) && i < len(cells); i++ {
			if cell := strings.TrimSpace(cells[i]); cell != "" {
				row[i] = cell
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return columns, rows, nil
}
