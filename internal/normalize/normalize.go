// Package normalize converts uploaded files into tabular data with a derived
// table name.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatText = "text"
)

var (
	ErrEmptyTableName = errors.New("file name does not yield a table name")
	ErrNoColumns      = errors.New("no columns found")
	ErrNoPDFTables    = errors.New("no data tables could be extracted from the PDF")
)

// File is an uploaded file as received from a client.
type File struct {
	Name string
	Data []byte
}

// Extension returns the lowercased suffix after the last dot of the base
// name, or "" when there is none.
func (f File) Extension() string {
	stem := stripExtension(f.Name)
	if stem == f.Name {
		return ""
	}
	return strings.ToLower(f.Name[len(stem)+1:])
}

// Format reports the parser selected for the file.
func (f File) Format() string {
	switch f.Extension() {
	case "csv":
		return FormatCSV
	case "json":
		return FormatJSON
	case "pdf":
		return FormatPDF
	default:
		return FormatText
	}
}

// Table is the normalized form of an uploaded file. Cells are strings or nil.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

type FormatError struct {
	File string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.File, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type Normalizer struct {
	pdf PDFReader
}

// NewNormalizer returns a normalizer that extracts PDF tables with reader.
// A nil reader uses the built-in text-layout extractor.
func NewNormalizer(reader PDFReader) *Normalizer {
	if reader == nil {
		reader = TextLayoutReader{}
	}
	return &Normalizer{pdf: reader}
}

func (n *Normalizer) Normalize(ctx context.Context, file File) (Table, error) {
	name := TableName(file.Name)
	if name == "" {
		return Table{}, &FormatError{File: file.Name, Err: ErrEmptyTableName}
	}

	var (
		columns []string
		rows    [][]any
		err     error
	)
	switch file.Format() {
	case FormatCSV:
		columns, rows, err = parseCSV(file.Data)
	case FormatJSON:
		columns, rows, err = parseJSON(file.Data)
	case FormatPDF:
		columns, rows, err = n.parsePDF(ctx, file.Data)
	default:
		columns, rows = parseLines(file.Data)
	}
	if err != nil {
		return Table{}, &FormatError{File: file.Name, Err: err}
	}
	return Table{Name: name, Columns: columns, Rows: rows}, nil
}

func headerCell(value string, index int) string {
	if strings.TrimSpace(value) == "" {
		return fmt.Sprintf("unnamed_%d", index)
	}
	return value
}
