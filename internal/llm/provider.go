package llm

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bimmerbailey/flowllm/internal/config"
	"golang.org/x/sync/singleflight"
)

// Provider hands out one chat client per ModelType, building each on first
// request and returning the cached instance afterwards.
type Provider struct {
	loader config.Loader
	logger *slog.Logger
	cache  *Cache
	group  singleflight.Group
}

// Option configures a Provider.
type Option func(*Provider)

// WithCache makes the provider use c instead of a private cache.
// Providers sharing a cache share their clients.
func WithCache(c *Cache) Option {
	return func(p *Provider) {
		if c != nil {
			p.cache = c
		}
	}
}

// NewProvider creates a provider that reads configuration through loader.
// Nothing is loaded until the first Client or Warm call.
func NewProvider(loader config.Loader, logger *slog.Logger, opts ...Option) (*Provider, error) {
	if loader == nil {
		return nil, errors.New("config loader cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	p := &Provider{
		loader: loader,
		logger: logger,
		cache:  NewCache(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Client returns the client for t.
//
// On a cache hit no configuration is read. On a miss the configuration is
// loaded and the client constructed; errors are returned unchanged and
// nothing is cached, so a later call retries. Concurrent misses for the
// same type share one construction.
func (p *Provider) Client(t ModelType) (*Client, error) {
	if client, ok := p.cache.Get(t); ok {
		return client, nil
	}

	if !t.Valid() {
		return nil, &ConfigurationError{Kind: KindUnknownType, Type: t.String()}
	}

	v, err, _ := p.group.Do(t.String(), func() (any, error) {
		if client, ok := p.cache.Get(t); ok {
			return client, nil
		}

		file, err := p.loader.Load()
		if err != nil {
			return nil, err
		}

		client, err := NewClient(t, file, p.logger)
		if err != nil {
			return nil, err
		}

		p.logger.Debug("cached llm client", "type", t, "model", client.Model())
		return p.cache.Add(t, client), nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Client), nil
}

// Warm builds the clients for types up front so configuration errors
// surface during startup rather than on first use.
func (p *Provider) Warm(types ...ModelType) error {
	for _, t := range types {
		if _, err := p.Client(t); err != nil {
			return fmt.Errorf("failed to initialize %s client: %w", t, err)
		}
	}
	return nil
}

// Cached reports whether a client for t has been built.
func (p *Provider) Cached(t ModelType) bool {
	_, ok := p.cache.Get(t)
	return ok
}
