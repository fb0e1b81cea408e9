package nl2sql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSeq2SeqModelGenerate(t *testing.T) {
	var received struct {
		Inputs     string         `json:"inputs"`
		Parameters map[string]int `json:"parameters"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`[{"generated_text":"SELECT full_name FROM students"}]`))
	}))
	defer server.Close()

	model, err := NewSeq2SeqModel(Seq2SeqConfig{URL: server.URL, MaxNewTokens: 64})
	if err != nil {
		t.Fatalf("NewSeq2SeqModel() error = %v", err)
	}
	got, err := model.Generate(context.Background(), "translate English to SQL: list students")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "SELECT full_name FROM students" {
		t.Fatalf("Generate() = %q", got)
	}
	if received.Inputs != "translate English to SQL: list students" {
		t.Fatalf("inputs = %q", received.Inputs)
	}
	if received.Parameters["max_new_tokens"] != 64 {
		t.Fatalf("parameters = %#v", received.Parameters)
	}
}

func TestDecodeGenerationShapes(t *testing.T) {
	got, err := decodeGeneration([]byte(` {"generated_text":"SELECT 1"} `))
	if err != nil || got != "SELECT 1" {
		t.Fatalf("decodeGeneration(object) = %q, %v", got, err)
	}
	if _, err := decodeGeneration([]byte(`[]`)); err == nil {
		t.Fatal("decodeGeneration(empty array) expected error")
	}
	if _, err := decodeGeneration([]byte(`oops`)); err == nil {
		t.Fatal("decodeGeneration(invalid) expected error")
	}
}
