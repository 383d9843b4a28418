// Package config provides configuration types and helpers for flowllm.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// ModelConfig holds the settings for one chat model block in conf.yaml.
type ModelConfig struct {
	Model        string   `mapstructure:"model" yaml:"model" json:"model"`
	BaseURL      string   `mapstructure:"base_url" yaml:"base_url,omitempty" json:"base_url,omitempty"`
	APIKey       string   `mapstructure:"api_key" yaml:"-" json:"-"` // Optional: read from OPENAI_API_KEY if empty
	Organization string   `mapstructure:"organization" yaml:"organization,omitempty" json:"organization,omitempty"`
	APIVersion   string   `mapstructure:"api_version" yaml:"api_version,omitempty" json:"api_version,omitempty"` // Azure OpenAI only
	Temperature  *float64 `mapstructure:"temperature" yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens    int      `mapstructure:"max_tokens" yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	TopP         *float64 `mapstructure:"top_p" yaml:"top_p,omitempty" json:"top_p,omitempty"`

	// Extra collects keys the client does not recognize.
	Extra map[string]any `mapstructure:",remain" yaml:"-" json:"-"`
}

// Clone returns a shallow copy of the config. Pointer fields are shared.
func (c ModelConfig) Clone() ModelConfig {
	out := c
	if c.Extra != nil {
		out.Extra = make(map[string]any, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ErrMissingModel is returned by Validate when a block names no model.
var ErrMissingModel = errors.New("model is required")

// Validate checks required fields and value ranges.
func (c ModelConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return ErrMissingModel
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature %v out of range [0, 2]", *c.Temperature)
	}
	if c.TopP != nil && (*c.TopP < 0 || *c.TopP > 1) {
		return fmt.Errorf("top_p %v out of range [0, 1]", *c.TopP)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative, got %d", c.MaxTokens)
	}
	return nil
}

// ErrNotMapping is returned by Decode when a block is not a key-value mapping.
var ErrNotMapping = errors.New("not a key-value mapping")

// Decode converts a raw configuration block into a ModelConfig.
// Scalars are weakly typed so "0.7" and 0.7 both decode as a temperature.
func Decode(raw any) (ModelConfig, error) {
	var mc ModelConfig

	block, ok := raw.(map[string]any)
	if !ok {
		return mc, ErrNotMapping
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncType(dateToString),
		Result:           &mc,
	})
	if err != nil {
		return mc, err
	}
	if err := dec.Decode(block); err != nil {
		return mc, err
	}

	return mc, mc.Validate()
}

// dateToString keeps YAML dates such as "api_version: 2024-02-01" usable
// as strings. The YAML parser turns unquoted dates into timestamps.
func dateToString(from, to reflect.Type, data any) (any, error) {
	ts, ok := data.(time.Time)
	if !ok || to.Kind() != reflect.String {
		return data, nil
	}
	if ts.Equal(ts.Truncate(24 * time.Hour)) {
		return ts.Format(time.DateOnly), nil
	}
	return ts.Format(time.RFC3339), nil
}

// File is a loaded configuration document. Keys are case-insensitive.
type File map[string]any

// Lookup returns the value stored under key, ignoring case. Viper lowercases
// keys; other loaders may not.
func (f File) Lookup(key string) (any, bool) {
	if v, ok := f[strings.ToLower(key)]; ok {
		return v, true
	}
	for k, v := range f {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Loader loads the configuration document.
type Loader interface {
	Load() (File, error)
}

// FileLoader reads a YAML configuration file through viper.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (l FileLoader) Load() (File, error) {
	if l.Path == "" {
		return nil, errors.New("config path not specified")
	}

	v := viper.New()
	v.SetConfigFile(l.Path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", l.Path, err)
	}

	settings := v.AllSettings()
	expandEnv(settings)
	return File(settings), nil
}

// expandEnv replaces string values of the form "$NAME" with the value of
// the environment variable NAME. Nested maps and lists are walked in place.
func expandEnv(m map[string]any) {
	for k, v := range m {
		m[k] = expandValue(v)
	}
}

func expandValue(v any) any {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "$") && len(val) > 1 {
			return os.Getenv(val[1:])
		}
		return val
	case map[string]any:
		expandEnv(val)
		return val
	case []any:
		for i := range val {
			val[i] = expandValue(val[i])
		}
		return val
	default:
		return v
	}
}
