package nl2sql

import (
	"errors"
	"fmt"
)

var (
	ErrModelUnavailable = errors.New("the generative model is disabled")
	ErrEmptySQL         = errors.New("model returned empty SQL")
)

type TranslationError struct {
	Reason string
	Err    error
}

func (e *TranslationError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
