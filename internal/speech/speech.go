// Package speech turns recorded audio into text. The backend is chosen once
// when the transcriber is built.
package speech

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/voice2sql/voice2sql/internal/observability"
)

const (
	BackendCloud = "cloud"
	BackendLocal = "local"
	BackendNone  = "none"
)

var ErrUnavailable = errors.New("no speech-to-text available: enable cloud speech or configure a local recognizer")

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Backend() string
}

type Config struct {
	CloudEnabled bool
	CloudURL     string
	CloudAPIKey  string
	LanguageCode string
	LocalURL     string
	Timeout      time.Duration
}

// New returns the cloud transcriber when cloud speech is enabled, the local
// one when a recognizer URL is set, and a transcriber that always fails with
// ErrUnavailable otherwise.
func New(cfg Config) Transcriber {
	if cfg.CloudEnabled {
		return NewCloudTranscriber(CloudConfig{
			BaseURL:      cfg.CloudURL,
			APIKey:       cfg.CloudAPIKey,
			LanguageCode: cfg.LanguageCode,
			Timeout:      cfg.Timeout,
		})
	}
	if strings.TrimSpace(cfg.LocalURL) != "" {
		return NewLocalTranscriber(cfg.LocalURL, cfg.Timeout)
	}
	return Unavailable{}
}

type Unavailable struct{}

func (Unavailable) Transcribe(context.Context, []byte) (string, error) {
	observability.ObserveTranscription(BackendNone, ErrUnavailable)
	return "", ErrUnavailable
}

func (Unavailable) Backend() string {
	return BackendNone
}
