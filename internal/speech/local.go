package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/voice2sql/voice2sql/internal/observability"
)

// LocalTranscriber posts WAV audio to an offline recognizer server that
// answers with {"text": ...}.
type LocalTranscriber struct {
	url    string
	client *http.Client
}

func NewLocalTranscriber(url string, timeout time.Duration) *LocalTranscriber {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LocalTranscriber{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

func (l *LocalTranscriber) Backend() string {
	return BackendLocal
}

func (l *LocalTranscriber) Transcribe(ctx context.Context, audio []byte) (text string, err error) {
	defer func() { observability.ObserveTranscription(BackendLocal, err) }()

	text, err = l.recognize(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

func (l *LocalTranscriber) recognize(ctx context.Context, audio []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write multipart file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, body)
	if err != nil {
		return "", fmt.Errorf("build recognizer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request recognizer: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read recognizer response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("recognizer failed status=%d body=%s", resp.StatusCode, string(raw))
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode recognizer response: %w", err)
	}
	return decoded.Text, nil
}
