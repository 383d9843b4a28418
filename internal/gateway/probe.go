// Package gateway talks to a local Ollama model-serving gateway.
//
// The chat clients in package llm reach Ollama through its OpenAI-compatible
// endpoint; this package covers the gateway's native API: an availability
// probe and model listing.
package gateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ProbeTimeout bounds the availability probe request.
const ProbeTimeout = 2 * time.Second

// IsAvailable reports whether an Ollama gateway answers GET <baseURL>/api/tags
// with 200 OK within ProbeTimeout. Failures are logged at warn level and
// reported as false; the probe never retries.
func IsAvailable(ctx context.Context, baseURL string, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}

	client := &http.Client{Timeout: ProbeTimeout}
	endpoint := strings.TrimRight(baseURL, "/") + "/api/tags"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logger.Warn("ollama api not available", "base_url", baseURL, "error", err)
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("ollama api not available", "base_url", baseURL, "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		logger.Warn("ollama api not available", "base_url", baseURL, "status", resp.StatusCode)
		return false
	}

	return true
}

// NativeURL converts an OpenAI-compatible base URL such as
// "http://localhost:11434/v1" into the gateway root used by the native API.
func NativeURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/")
	return strings.TrimSuffix(u, "/v1")
}
