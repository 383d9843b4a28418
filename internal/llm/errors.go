package llm

import (
	"errors"
	"fmt"
)

// Common errors returned by chat clients.
var (
	// ErrProviderUnavailable indicates the LLM provider is not reachable
	ErrProviderUnavailable = errors.New("llm provider is not reachable")

	// ErrInvalidResponse indicates the provider returned an invalid response
	ErrInvalidResponse = errors.New("provider returned invalid response")

	// ErrContextCanceled indicates the operation was canceled via context
	ErrContextCanceled = errors.New("operation was canceled")
)

// Configuration errors. Match them with errors.Is against a *ConfigurationError.
var (
	ErrUnknownModelType   = errors.New("unknown model type")
	ErrInvalidModelConfig = errors.New("invalid model config")
)

// ErrorKind classifies a ConfigurationError.
type ErrorKind int

const (
	// KindUnknownType means the requested type is not basic, reasoning or vision.
	KindUnknownType ErrorKind = iota + 1

	// KindInvalidConfig means the type's block is absent, empty, not a
	// mapping, or holds values that fail validation.
	KindInvalidConfig
)

// ConfigurationError reports a problem selecting or decoding a model block.
type ConfigurationError struct {
	Kind ErrorKind
	Type string // requested type as given
	Key  string // conf.yaml key, empty for KindUnknownType
	Err  error  // underlying cause, may be nil
}

func (e *ConfigurationError) Error() string {
	switch e.Kind {
	case KindUnknownType:
		return fmt.Sprintf("unknown llm type: %s (supported: basic, reasoning, vision)", e.Type)
	default:
		if e.Err != nil {
			return fmt.Sprintf("invalid llm config %s for %s type: %v", e.Key, e.Type, e.Err)
		}
		return fmt.Sprintf("invalid llm config %s for %s type", e.Key, e.Type)
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *ConfigurationError) Is(target error) bool {
	switch e.Kind {
	case KindUnknownType:
		return target == ErrUnknownModelType
	case KindInvalidConfig:
		return target == ErrInvalidModelConfig
	}
	return false
}
