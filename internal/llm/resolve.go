package llm

import (
	"errors"
	"strings"

	"github.com/bimmerbailey/flowllm/internal/config"
)

const (
	// gatewayMarker anywhere in a model name marks a local Ollama model.
	gatewayMarker = "ollama"

	// gatewayPrefix is stripped because Ollama's OpenAI-compatible
	// endpoint expects the bare model name.
	gatewayPrefix = "ollama/"
)

var errMissingBlock = errors.New("block is missing or empty")

// Resolve returns the model block for t from a loaded configuration.
func Resolve(file config.File, t ModelType) (config.ModelConfig, error) {
	key, ok := t.ConfigKey()
	if !ok {
		return config.ModelConfig{}, &ConfigurationError{Kind: KindUnknownType, Type: t.String()}
	}

	raw, ok := file.Lookup(key)
	if !ok || isEmpty(raw) {
		return config.ModelConfig{}, &ConfigurationError{
			Kind: KindInvalidConfig,
			Type: t.String(),
			Key:  key,
			Err:  errMissingBlock,
		}
	}

	mc, err := config.Decode(raw)
	if err != nil {
		return config.ModelConfig{}, &ConfigurationError{
			Kind: KindInvalidConfig,
			Type: t.String(),
			Key:  key,
			Err:  err,
		}
	}

	return mc, nil
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	}
	return false
}

// UsesGateway reports whether cfg targets a local Ollama gateway: the model
// name mentions ollama and a base URL is configured.
func UsesGateway(cfg config.ModelConfig) bool {
	return strings.Contains(cfg.Model, gatewayMarker) && cfg.BaseURL != ""
}

// RewriteForGateway returns the config the OpenAI-compatible client should be
// built from. For gateway models it is a copy with the first "ollama/"
// removed from the model name; otherwise cfg is returned unchanged.
// The bool reports whether the gateway rule applied.
func RewriteForGateway(cfg config.ModelConfig) (config.ModelConfig, bool) {
	if !UsesGateway(cfg) {
		return cfg, false
	}

	out := cfg.Clone()
	if strings.Contains(out.Model, gatewayPrefix) {
		out.Model = strings.Replace(out.Model, gatewayPrefix, "", 1)
	}
	return out, true
}
