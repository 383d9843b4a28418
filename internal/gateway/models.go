package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// ErrGatewayUnavailable indicates the gateway could not be reached.
var ErrGatewayUnavailable = errors.New("ollama gateway is not reachable")

// Client wraps the Ollama native API client.
type Client struct {
	api    *api.Client
	host   string
	logger *slog.Logger
}

// Model describes one model pulled on the gateway.
type Model struct {
	Name          string    `json:"name" yaml:"name"`
	Family        string    `json:"family,omitempty" yaml:"family,omitempty"`
	ParameterSize string    `json:"parameter_size,omitempty" yaml:"parameter_size,omitempty"`
	Quantization  string    `json:"quantization,omitempty" yaml:"quantization,omitempty"`
	Size          int64     `json:"size" yaml:"size"`
	ModifiedAt    time.Time `json:"modified_at" yaml:"modified_at"`
}

// NewClient creates a client for the gateway at host. Any "/v1" suffix is
// removed. If host is empty, OLLAMA_HOST or http://localhost:11434 is used.
func NewClient(host string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			logger.Error("failed to create ollama client from environment", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		logger.Debug("created ollama client from environment")
		return &Client{api: client, logger: logger}, nil
	}

	host = NativeURL(host)
	parsedURL, err := url.Parse(host)
	if err != nil {
		logger.Error("invalid ollama host URL", "host", host, "error", err)
		return nil, fmt.Errorf("invalid ollama host: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid ollama host: %q must be an absolute URL", host)
	}

	logger.Debug("created ollama client with explicit host", "host", host)
	return &Client{
		api:    api.NewClient(parsedURL, &http.Client{Timeout: 10 * time.Second}),
		host:   host,
		logger: logger,
	}, nil
}

// Host returns the gateway root URL, empty when taken from the environment.
func (c *Client) Host() string { return c.host }

// Models lists the models pulled on the gateway.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	listResp, err := c.api.List(ctx)
	if err != nil {
		c.logger.Error("failed to list models", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	models := make([]Model, 0, len(listResp.Models))
	for _, m := range listResp.Models {
		models = append(models, Model{
			Name:          m.Name,
			Family:        m.Details.Family,
			ParameterSize: m.Details.ParameterSize,
			Quantization:  m.Details.QuantizationLevel,
			Size:          m.Size,
			ModifiedAt:    m.ModifiedAt,
		})
	}

	c.logger.Debug("listed gateway models", "count", len(models))
	return models, nil
}

// ModelAvailable checks if a model has been pulled. The name may carry the
// "ollama/" prefix used in conf.yaml; an untagged name matches ":latest".
func (c *Client) ModelAvailable(ctx context.Context, name string) (bool, error) {
	name = strings.TrimPrefix(name, "ollama/")
	c.logger.Debug("checking model availability", "model", name)

	listResp, err := c.api.List(ctx)
	if err != nil {
		c.logger.Error("failed to list models", "error", err)
		return false, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	for _, m := range listResp.Models {
		if matchesModel(m.Name, name) || matchesModel(m.Model, name) {
			c.logger.Debug("model is available", "model", name)
			return true, nil
		}
	}

	c.logger.Debug("model not found", "model", name, "available_count", len(listResp.Models))
	return false, nil
}

// Version returns the gateway's version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	v, err := c.api.Version(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return v, nil
}

func matchesModel(served, want string) bool {
	if served == want {
		return true
	}
	return !strings.Contains(want, ":") && served == want+":latest"
}
