package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/voice2sql/voice2sql/internal/observability"
)

type CloudConfig struct {
	BaseURL      string
	APIKey       string
	LanguageCode string
	Timeout      time.Duration
}

// CloudTranscriber calls the Google Speech-to-Text REST API with 16-bit
// linear PCM audio.
type CloudTranscriber struct {
	baseURL      string
	apiKey       string
	languageCode string
	client       *http.Client
}

func NewCloudTranscriber(cfg CloudConfig) *CloudTranscriber {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://speech.googleapis.com"
	}
	languageCode := strings.TrimSpace(cfg.LanguageCode)
	if languageCode == "" {
		languageCode = "en-US"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CloudTranscriber{
		baseURL:      baseURL,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		languageCode: languageCode,
		client:       &http.Client{Timeout: timeout},
	}
}

func (c *CloudTranscriber) Backend() string {
	return BackendCloud
}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding                   string `json:"encoding"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
}

type recognitionAudio struct {
	Content string `json:"content"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

func (c *CloudTranscriber) Transcribe(ctx context.Context, audio []byte) (text string, err error) {
	defer func() { observability.ObserveTranscription(BackendCloud, err) }()

	text, err = c.recognize(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("cloud speech-to-text failed: %w", err)
	}
	return text, nil
}

func (c *CloudTranscriber) recognize(ctx context.Context, audio []byte) (string, error) {
	body, err := json.Marshal(recognizeRequest{
		Config: recognitionConfig{
			Encoding:                   "LINEAR16",
			LanguageCode:               c.languageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: recognitionAudio{Content: base64.StdEncoding.EncodeToString(audio)},
	})
	if err != nil {
		return "", fmt.Errorf("marshal recognize payload: %w", err)
	}

	endpoint := c.baseURL + "/v1/speech:recognize"
	if c.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(c.apiKey)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build recognize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request recognize: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read recognize response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("recognize failed status=%d body=%s", resp.StatusCode, string(raw))
	}

	var decoded recognizeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode recognize response: %w", err)
	}
	transcripts := make([]string, 0, len(decoded.Results))
	for _, result := range decoded.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		transcripts = append(transcripts, result.Alternatives[0].Transcript)
	}
	return strings.Join(transcripts, " "), nil
}
