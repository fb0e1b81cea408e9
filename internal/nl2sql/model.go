package nl2sql

import (
	"fmt"
	"time"
)

const (
	ProviderNone    = "none"
	ProviderOpenAI  = "openai"
	ProviderSeq2Seq = "seq2seq"
)

type ModelConfig struct {
	Provider     string
	BaseURL      string
	APIKey       string
	Name         string
	Temperature  float64
	MaxNewTokens int
	Timeout      time.Duration
}

// NewModel builds the configured model. It returns a nil Model for the
// "none" provider.
func NewModel(cfg ModelConfig) (Model, error) {
	switch cfg.Provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderOpenAI:
		model, err := NewOpenAIModel(OpenAIConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Name,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("openai model: %w", err)
		}
		return model, nil
	case ProviderSeq2Seq:
		model, err := NewSeq2SeqModel(Seq2SeqConfig{
			URL:          cfg.BaseURL,
			APIKey:       cfg.APIKey,
			MaxNewTokens: cfg.MaxNewTokens,
			Timeout:      cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("seq2seq model: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model provider %q", cfg.Provider)
	}
}
