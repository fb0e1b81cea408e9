package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Seq2SeqConfig struct {
	// URL is the full generation endpoint of a text2text inference server.
	URL          string
	APIKey       string
	MaxNewTokens int
	Timeout      time.Duration
}

// Seq2SeqModel calls a hosted sequence-to-sequence model (for example a
// fine-tuned T5) that speaks the text2text-generation inference protocol.
type Seq2SeqModel struct {
	url          string
	apiKey       string
	maxNewTokens int
	client       *http.Client
}

func NewSeq2SeqModel(cfg Seq2SeqConfig) (*Seq2SeqModel, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("model URL is required")
	}
	maxNewTokens := cfg.MaxNewTokens
	if maxNewTokens <= 0 {
		maxNewTokens = 256
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Seq2SeqModel{
		url:          url,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		maxNewTokens: maxNewTokens,
		client:       &http.Client{Timeout: timeout},
	}, nil
}

type generation struct {
	GeneratedText string `json:"generated_text"`
}

func (m *Seq2SeqModel) Generate(ctx context.Context, input string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"inputs":     input,
		"parameters": map[string]any{"max_new_tokens": m.maxNewTokens},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request generation: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generation response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("generation failed status=%d body=%s", resp.StatusCode, string(raw))
	}
	return decodeGeneration(raw)
}

// decodeGeneration accepts both [{"generated_text": ...}] and
// {"generated_text": ...} responses.
func decodeGeneration(raw []byte) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var batch []generation
		if err := json.Unmarshal(trimmed, &batch); err != nil {
			return "", fmt.Errorf("decode generation response: %w", err)
		}
		if len(batch) == 0 {
			return "", fmt.Errorf("empty generation response")
		}
		return batch[0].GeneratedText, nil
	}
	var single generation
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	return single.GeneratedText, nil
}
