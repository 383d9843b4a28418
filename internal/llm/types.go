package llm

import (
	"fmt"
	"strings"
)

// ModelType selects which configured model block a client is built from.
type ModelType int

const (
	Basic ModelType = iota + 1
	Reasoning
	Vision
)

// ModelTypes lists every valid ModelType in display order.
var ModelTypes = []ModelType{Basic, Reasoning, Vision}

// String returns the lowercase name of the type.
func (t ModelType) String() string {
	switch t {
	case Basic:
		return "basic"
	case Reasoning:
		return "reasoning"
	case Vision:
		return "vision"
	default:
		return fmt.Sprintf("ModelType(%d)", int(t))
	}
}

// ConfigKey returns the top-level conf.yaml key holding the type's block.
func (t ModelType) ConfigKey() (string, bool) {
	switch t {
	case Basic:
		return "BASIC_MODEL", true
	case Reasoning:
		return "REASONING_MODEL", true
	case Vision:
		return "VISION_MODEL", true
	default:
		return "", false
	}
}

// Valid reports whether t is one of the known types.
func (t ModelType) Valid() bool {
	_, ok := t.ConfigKey()
	return ok
}

// ParseModelType converts "basic", "reasoning" or "vision" to a ModelType.
func ParseModelType(s string) (ModelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return Basic, nil
	case "reasoning":
		return Reasoning, nil
	case "vision":
		return Vision, nil
	default:
		return 0, &ConfigurationError{Kind: KindUnknownType, Type: s}
	}
}

// Set implements pflag.Value so ModelType can be used as a CLI flag.
func (t *ModelType) Set(s string) error {
	parsed, err := ParseModelType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Type implements pflag.Value.
func (t *ModelType) Type() string {
	return "basic|reasoning|vision"
}
