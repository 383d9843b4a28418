package llm

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/bimmerbailey/flowllm/internal/config"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewClient builds the chat client for t from a loaded configuration.
//
// Every type uses the OpenAI-compatible client. Ollama models are served
// through Ollama's OpenAI-compatible endpoint because its native client
// cannot bind tools, so the "ollama/" prefix is stripped first.
// Errors from the underlying constructor are returned as is.
func NewClient(t ModelType, file config.File, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	cfg, err := Resolve(file, t)
	if err != nil {
		return nil, err
	}

	rewritten, gateway := RewriteForGateway(cfg)
	if gateway {
		logger.Info("using openai-compatible client for ollama model",
			"type", t,
			"model", cfg.Model,
			"base_url", cfg.BaseURL,
		)
	}

	return newOpenAIClient(t, rewritten, gateway, logger)
}

// newOpenAIClient constructs the langchaingo OpenAI client for cfg.
func newOpenAIClient(t ModelType, cfg config.ModelConfig, gateway bool, logger *slog.Logger) (*Client, error) {
	if len(cfg.Extra) > 0 {
		keys := make([]string, 0, len(cfg.Extra))
		for k := range cfg.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		logger.Warn("ignoring unrecognized model options", "type", t, "keys", keys)
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Model),
	}

	// An empty key lets langchaingo fall back to OPENAI_API_KEY.
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}

	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	if cfg.Organization != "" {
		opts = append(opts, openai.WithOrganization(cfg.Organization))
	}

	// An api_version selects Azure OpenAI. langchaingo also requires an
	// embedding deployment there; chat clients never embed.
	if cfg.APIVersion != "" {
		opts = append(opts,
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithAPIVersion(cfg.APIVersion),
			openai.WithEmbeddingModel(cfg.Model),
		)
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}

	logger.Info("initialized openai-compatible client",
		"type", t,
		"model", cfg.Model,
		"base_url", cfg.BaseURL,
	)

	return &Client{
		llm:         model,
		modelType:   t,
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		apiVersion:  cfg.APIVersion,
		gateway:     gateway,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		topP:        cfg.TopP,
		logger:      logger,
	}, nil
}
