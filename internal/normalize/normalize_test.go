package normalize

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestTableNameDerivation(t *testing.T) {
	cases := map[string]string{
		"Students.csv":          "students",
		"sales report 2024.csv": "sales_report_2024",
		"data.v2.json":          "data_v2",
		"notes":                 "notes",
		".env":                  "_env",
		"..hidden":              "__hidden",
		"Résumé.pdf":            "r_sum_",
		"dir.v1/file":           "dir_v1_file",
		"UPPER-case.TXT":        "upper_case",
	}
	for input, want := range cases {
		if got := TableName(input); got != want {
			t.Fatalf("TableName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTableNameIsIdempotent(t *testing.T) {
	for _, input := range []string{"Sales Report.csv", "a.b.c.json", "x-y z", ".env", "Résumé.pdf"} {
		once := TableName(input)
		if twice := TableName(once + ".csv"); twice != once {
			t.Fatalf("TableName(TableName(%q)+\".csv\") = %q, want %q", input, twice, once)
		}
		if again := TableName(once); again != once {
			t.Fatalf("TableName(%q) = %q, want %q", once, again, once)
		}
	}
}

func TestFileExtensionAndFormat(t *testing.T) {
	cases := []struct {
		name      string
		extension string
		format    string
	}{
		{name: "a.CSV", extension: "csv", format: FormatCSV},
		{name: "a.b.json", extension: "json", format: FormatJSON},
		{name: "report.Pdf", extension: "pdf", format: FormatPDF},
		{name: "README", extension: "", format: FormatText},
		{name: ".csv", extension: "", format: FormatText},
		{name: "log.txt", extension: "txt", format: FormatText},
	}
	for _, tc := range cases {
		file := File{Name: tc.name}
		if got := file.Extension(); got != tc.extension {
			t.Fatalf("Extension(%q) = %q, want %q", tc.name, got, tc.extension)
		}
		if got := file.Format(); got != tc.format {
			t.Fatalf("Format(%q) = %q, want %q", tc.name, got, tc.format)
		}
	}
}

func TestNormalizeCSVPreservesHeader(t *testing.T) {
	table, err := NewNormalizer(nil).Normalize(context.Background(), File{
		Name: "Students.csv",
		Data: []byte("id,Full Name,major\n1,Ada Lovelace,Computer Science\n2,,Math\n"),
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if table.Name != "students" {
		t.Fatalf("Name = %q", table.Name)
	}
	if !reflect.DeepEqual(table.Columns, []string{"id", "Full Name", "major"}) {
		t.Fatalf("Columns = %#v", table.Columns)
	}
	want := [][]any{
		{"1", "Ada Lovelace", "Computer Science"},
		{"2", nil, "Math"},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Fatalf("Rows = %#v", table.Rows)
	}
}

func TestNormalizeCSVHandlesBOMBlankHeaderAndShortRows(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,,score\r\n1,x\r\n")...)
	table, err := NewNormalizer(nil).Normalize(context.Background(), File{Name: "scores.csv", Data: data})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"id", "unnamed_1", "score"}) {
		t.Fatalf("Columns = %#v", table.Columns)
	}
	if !reflect.DeepEqual(table.Rows, [][]any{{"1", "x", nil}}) {
		t.Fatalf("Rows = %#v", table.Rows)
	}
}

func TestNormalizeCSVRejectsLongRowsAndEmptyPayload(t *testing.T) {
	normalizer := NewNormalizer(nil)

	_, err := normalizer.Normalize(context.Background(), File{Name: "bad.csv", Data: []byte("a,b\n1,2,3\n")})
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("Normalize() error = %v, want FormatError", err)
	}
	if formatErr.File != "bad.csv" {
		t.Fatalf("FormatError.File = %q", formatErr.File)
	}

	_, err = normalizer.Normalize(context.Background(), File{Name: "empty.csv"})
	if !errors.Is(err, ErrNoColumns) {
		t.Fatalf("Normalize(empty) error = %v, want ErrNoColumns", err)
	}
}

func TestNormalizeJSONRecordsKeepKeyOrder(t *testing.T) {
	data := []byte(`[
		{"zeta": 1, "alpha": "a", "nested": {"b": 2, "a": [1, true]}},
		{"alpha": "b", "extra": null, "zeta": 2.50}
	]`)
	table, err := NewNormalizer(nil).Normalize(context.Background(), File{Name: "records.json", Data: data})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"zeta", "alpha", "nested", "extra"}) {
		t.Fatalf("Columns = %#v", table.Columns)
	}
	want := [][]any{
		{"1", "a", `{"b":2,"a":[1,true]}`, nil},
		{"2.50", "b", nil, nil},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Fatalf("Rows = %#v", table.Rows)
	}
}

func TestNormalizeJSONColumnOrientedShapes(t *testing.T) {
	normalizer := NewNormalizer(nil)

	table, err := normalizer.Normalize(context.Background(), File{
		Name: "columns.json",
		Data: []byte(`{"id": [1, 2, 3], "ok": [true, false]}`),
	})
	if err != nil {
		t.Fatalf("Normalize(arrays) error = %v", err)
	}
	if !reflect.DeepEqual(table.Columns, []string{"id", "ok"}) {
		t.Fatalf("Columns = %#v", table.Columns)
	}
	if !reflect.DeepEqual(table.Rows, [][]any{{"1", "true"}, {"2", "false"}, {"3", nil}}) {
		t.Fatalf("Rows = %#v", table.Rows)
	}

	table, err = normalizer.Normalize(context.Background(), File{
		Name: "indexed.json",
		Data: []byte(`{"name": {"0": "a", "1": "b"}, "score": {"1": 9}}`),
	})
	if err != nil {
		t.Fatalf("Normalize(indexed) error = %v", err)
	}
	if !reflect.DeepEqual(table.Rows, [][]any{{"a", nil}, {"b", "9"}}) {
		t.Fatalf("Rows = %#v", table.Rows)
	}
}

func TestNormalizeJSONRejectsUnsupportedShapes(t *testing.T) {
	normalizer := NewNormalizer(nil)
	for _, payload := range []string{`42`, `[1, 2]`, `{"a": 1}`, `[]`, `{"a": [1]} {}`, `{"a": [1}`} {
		_, err := normalizer.Normalize(context.Background(), File{Name: "x.json", Data: []byte(payload)})
		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("Normalize(%s) error = %v, want FormatError", payload, err)
		}
	}
}

func TestNormalizeTextKeepsTrimmedNonBlankLines(t *testing.T) {
	table, err := NewNormalizer(nil).Normalize(context.Background(), File{
		Name: "Notes",
		Data: []byte("  first line \r\n\n\t\nsecond\xff line\n"),
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if table.Name != "notes" {
		t.Fatalf("Name = %q", table.Name)
	}
	if !reflect.DeepEqual(table.Columns, []string{"line"}) {
		t.Fatalf("Columns = %#v", table.Columns)
	}
	if !reflect.DeepEqual(table.Rows, [][]any{{"first line"}, {"second line"}}) {
		t.Fatalf("Rows = %#v", table.Rows)
	}
}

func TestNormalizeTextNeverFails(t *testing.T) {
	table, err := NewNormalizer(nil).Normalize(context.Background(), File{Name: "empty.log"})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(table.Rows) != 0 {
		t.Fatalf("Rows = %#v", table.Rows)
	}
}

func TestNormalizeNameEdgeCases(t *testing.T) {
	_, err := NewNormalizer(nil).Normalize(context.Background(), File{Name: ".csv"})
	if err != nil {
		t.Fatalf("Normalize(.csv) error = %v, want text fallback", err)
	}
	_, err = NewNormalizer(nil).Normalize(context.Background(), File{Name: ".json"})
	if err != nil {
		t.Fatalf("Normalize(.json) error = %v", err)
	}
	_, err = NewNormalizer(nil).Normalize(context.Background(), File{Name: "dir/.txt"})
	if err != nil {
		t.Fatalf("Normalize(dir/.txt) error = %v", err)
	}
	_, err = NewNormalizer(nil).Normalize(context.Background(), File{Name: ""})
	if !errors.Is(err, ErrEmptyTableName) {
		t.Fatalf("Normalize(\"\") error = %v, want ErrEmptyTableName", err)
	}
}
