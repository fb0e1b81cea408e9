package nl2sql

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type countingModel struct {
	calls  int
	inputs []string
	output string
	err    error
}

func (m *countingModel) Generate(_ context.Context, input string) (string, error) {
	m.calls++
	m.inputs = append(m.inputs, input)
	return m.output, m.err
}

func TestTranslateEmptyTextNeverCallsModel(t *testing.T) {
	model := &countingModel{output: "SELECT 1"}
	translator := NewTranslator(Config{Model: model})

	for _, text := range []string{"", "   ", "\n\t"} {
		outcome := translator.Translate(context.Background(), text)
		if outcome.SQL != "" || outcome.Error != "" {
			t.Fatalf("Translate(%q) = %#v", text, outcome)
		}
		if outcome.Path != PathEmpty {
			t.Fatalf("Path = %q", outcome.Path)
		}
	}
	if model.calls != 0 {
		t.Fatalf("model calls = %d, want 0", model.calls)
	}
}

func TestTranslateDemoPhraseWithoutModel(t *testing.T) {
	translator := NewTranslator(Config{})

	outcome := translator.Translate(context.Background(), "Show me all Computer Science students")
	if outcome.SQL != DemoComputerScienceSQL {
		t.Fatalf("SQL = %q", outcome.SQL)
	}
	if outcome.Error != "" || outcome.Path != PathDemo {
		t.Fatalf("outcome = %#v", outcome)
	}
}

func TestTranslateDemoPhraseTakesPrecedenceOverModel(t *testing.T) {
	model := &countingModel{output: "SELECT * FROM other"}
	translator := NewTranslator(Config{Model: model})

	outcome := translator.Translate(context.Background(), "list COMPUTER SCIENCE majors")
	if outcome.SQL != DemoComputerScienceSQL {
		t.Fatalf("SQL = %q", outcome.SQL)
	}
	if model.calls != 0 {
		t.Fatalf("model calls = %d, want 0", model.calls)
	}
}

func TestTranslateWithoutModelDeclines(t *testing.T) {
	translator := NewTranslator(Config{})

	outcome := translator.Translate(context.Background(), "how many students are there")
	if outcome.SQL != NotAvailable || !outcome.Declined() {
		t.Fatalf("SQL = %q", outcome.SQL)
	}
	if outcome.Error == "" {
		t.Fatal("expected error text")
	}
	if !strings.Contains(outcome.Error, ErrModelUnavailable.Error()) {
		t.Fatalf("Error = %q", outcome.Error)
	}
	if translator.ModelLoaded() {
		t.Fatal("ModelLoaded() = true")
	}
}

func TestTranslateUsesModelWithSchemaContext(t *testing.T) {
	model := &countingModel{output: "```sql\nSELECT COUNT(*) FROM students;\n```"}
	translator := NewTranslator(Config{
		Model: model,
		Schema: func(context.Context) ([]TableContext, error) {
			return []TableContext{{TableName: "students", Columns: []string{"full_name", "major"}}}, nil
		},
	})

	outcome := translator.Translate(context.Background(), "  how many students are there ")
	if outcome.SQL != "SELECT COUNT(*) FROM students" {
		t.Fatalf("SQL = %q", outcome.SQL)
	}
	if outcome.Path != PathModel {
		t.Fatalf("Path = %q", outcome.Path)
	}
	want := "translate English to SQL: how many students are there\ntables: students(full_name, major)"
	if len(model.inputs) != 1 || model.inputs[0] != want {
		t.Fatalf("model inputs = %#v", model.inputs)
	}
}

func TestTranslateModelFailuresDecline(t *testing.T) {
	failing := NewTranslator(Config{Model: &countingModel{err: errors.New("timeout")}})
	outcome := failing.Translate(context.Background(), "top students")
	if outcome.SQL != NotAvailable || !strings.Contains(outcome.Error, "timeout") {
		t.Fatalf("outcome = %#v", outcome)
	}

	empty := NewTranslator(Config{Model: &countingModel{output: "  ;  "}})
	outcome = empty.Translate(context.Background(), "top students")
	if outcome.SQL != NotAvailable || !strings.Contains(outcome.Error, ErrEmptySQL.Error()) {
		t.Fatalf("outcome = %#v", outcome)
	}
}

func TestTranslateSchemaFailureStillCallsModel(t *testing.T) {
	model := &countingModel{output: "SELECT 1"}
	translator := NewTranslator(Config{
		Model:  model,
		Schema: func(context.Context) ([]TableContext, error) { return nil, errors.New("store down") },
	})

	outcome := translator.Translate(context.Background(), "anything")
	if outcome.SQL != "SELECT 1" {
		t.Fatalf("SQL = %q", outcome.SQL)
	}
	if model.inputs[0] != "translate English to SQL: anything" {
		t.Fatalf("input = %q", model.inputs[0])
	}
}

func TestCustomDemoPatternsAreMatchedInOrder(t *testing.T) {
	translator := NewTranslator(Config{DemoPatterns: []DemoPattern{
		{Phrase: "", SQL: "SELECT 'never'"},
		{Phrase: "honor roll", SQL: "SELECT 1"},
		{Phrase: "honor", SQL: "SELECT 2"},
	}})

	if outcome := translator.Translate(context.Background(), "who is on the Honor Roll"); outcome.SQL != "SELECT 1" {
		t.Fatalf("SQL = %q", outcome.SQL)
	}
	if outcome := translator.Translate(context.Background(), "computer science"); outcome.SQL != NotAvailable {
		t.Fatalf("SQL = %q, want custom table to replace defaults", outcome.SQL)
	}
}

func TestStripMarkdownSQL(t *testing.T) {
	got := stripMarkdownSQL("```sql\nSELECT 1;\n```")
	if got != "SELECT 1;" {
		t.Fatalf("stripMarkdownSQL() = %q", got)
	}
}

func TestNewModelSelectsProvider(t *testing.T) {
	model, err := NewModel(ModelConfig{Provider: ProviderNone})
	if err != nil || model != nil {
		t.Fatalf("NewModel(none) = %v, %v", model, err)
	}
	model, err = NewModel(ModelConfig{Provider: ProviderSeq2Seq, BaseURL: "http://localhost:8080/generate"})
	if err != nil {
		t.Fatalf("NewModel(seq2seq) error = %v", err)
	}
	if _, ok := model.(*Seq2SeqModel); !ok {
		t.Fatalf("NewModel(seq2seq) = %T", model)
	}
	if _, err := NewModel(ModelConfig{Provider: ProviderOpenAI, BaseURL: "https://api.example.com"}); err == nil {
		t.Fatal("NewModel(openai) without api key expected error")
	}
	if _, err := NewModel(ModelConfig{Provider: "llama"}); err == nil {
		t.Fatal("NewModel(llama) expected error")
	}
}
