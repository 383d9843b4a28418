package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// FileName is the configuration file name looked up by DefaultPath.
const FileName = "conf.yaml"

// EnvPath names the environment variable that overrides DefaultPath.
const EnvPath = "FLOWLLM_CONFIG"

// DefaultPath returns the configuration file location.
//
// Resolution order: $FLOWLLM_CONFIG, then conf.yaml three directory levels
// above this source file (the repository root) if it exists, then conf.yaml
// in the working directory.
func DefaultPath() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}

	if _, file, _, ok := runtime.Caller(0); ok {
		root := filepath.Dir(filepath.Dir(filepath.Dir(file)))
		candidate := filepath.Join(root, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return FileName
}
