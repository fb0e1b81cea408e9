package normalize

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// cellGapEm is the horizontal gap, in multiples of the font size, that
	// separates two cells on the same visual row.
	cellGapEm = 1.0
	// wordGapEm is the gap above which two fragments of one cell get a space.
	wordGapEm     = 0.15
	minTableRows  = 2
	minTableCells = 2
)

// TextLayoutReader finds tables by grouping the positioned text of each page
// into visual rows and cells. Runs of consecutive rows with at least two cells
// are treated as one table.
type TextLayoutReader struct{}

func (TextLayoutReader) Open(data []byte) (document PDFDocument, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("parse pdf: %v", recovered)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	return &layoutDocument{reader: reader}, nil
}

type layoutDocument struct {
	reader *pdf.Reader
}

func (d *layoutDocument) NumPages() int {
	return d.reader.NumPage()
}

func (d *layoutDocument) PageTables(number int) (tables []Grid, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("read page text: %v", recovered)
		}
	}()
	page := d.reader.Page(number)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("read page text: %w", err)
	}
	lines := make([]layoutLine, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		lines = append(lines, layoutLine{y: float64(row.Position), cells: groupCells(row.Content)})
	}
	return detectTables(lines), nil
}

type layoutCell struct {
	x    float64
	text string
}

type layoutLine struct {
	y     float64
	cells []layoutCell
}

// groupCells merges the fragments of one visual row into cells, splitting
// wherever the horizontal gap is wider than cellGapEm.
func groupCells(texts []pdf.Text) []layoutCell {
	fragments := make([]pdf.Text, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text.S) != "" {
			fragments = append(fragments, text)
		}
	}
	sort.SliceStable(fragments, func(i, j int) bool { return fragments[i].X < fragments[j].X })

	cells := make([]layoutCell, 0)
	var (
		current    strings.Builder
		start, end float64
		open       bool
	)
	flush := func() {
		if value := strings.TrimSpace(current.String()); value != "" {
			cells = append(cells, layoutCell{x: start, text: value})
		}
		current.Reset()
		open = false
	}
	for _, fragment := range fragments {
		em := math.Max(fragment.FontSize, 1)
		if open {
			gap := fragment.X - end
			if gap > cellGapEm*em {
				flush()
			} else if gap > wordGapEm*em {
				current.WriteByte(' ')
			}
		}
		if !open {
			start, end = fragment.X, fragment.X
			open = true
		}
		current.WriteString(fragment.S)
		end = math.Max(end, fragment.X+fragment.W)
	}
	if open {
		flush()
	}
	return cells
}

// detectTables walks lines top to bottom and collects every run of at least
// minTableRows lines having minTableCells or more cells. Cells of body rows
// are aligned to the header columns by their left edge.
func detectTables(lines []layoutLine) []Grid {
	sorted := append([]layoutLine(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].y > sorted[j].y })

	tables := make([]Grid, 0)
	run := make([]layoutLine, 0)
	closeRun := func() {
		if len(run) >= minTableRows {
			tables = append(tables, alignRun(run))
		}
		run = run[:0]
	}
	for _, line := range sorted {
		if len(line.cells) < minTableCells {
			closeRun()
			continue
		}
		run = append(run, line)
	}
	closeRun()
	return tables
}

func alignRun(run []layoutLine) Grid {
	header := run[0].cells
	grid := make(Grid, 0, len(run))
	headerRow := make([]string, len(header))
	for i, cell := range header {
		headerRow[i] = cell.text
	}
	grid = append(grid, headerRow)

	for _, line := range run[1:] {
		row := make([]string, len(header))
		for _, cell := range line.cells {
			column := columnFor(header, cell.x)
			if row[column] != "" {
				row[column] += " " + cell.text
				continue
			}
			row[column] = cell.text
		}
		grid = append(grid, row)
	}
	return grid
}

// columnFor returns the header column whose left edge is closest to x.
func columnFor(header []layoutCell, x float64) int {
	best := 0
	bestDistance := math.Inf(1)
	for i, cell := range header {
		if distance := math.Abs(cell.x - x); distance < bestDistance {
			best = i
			bestDistance = distance
		}
	}
	return best
}
