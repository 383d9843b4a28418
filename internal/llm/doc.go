// Package llm builds and caches chat-completion clients by model role.
//
// # Overview
//
// Applications ask for a client by ModelType (Basic, Reasoning, Vision). Each
// type maps to a top-level block in conf.yaml:
//
//	BASIC_MODEL:
//	  model: gpt-4o
//	  base_url: https://api.openai.com/v1
//	  api_key: $OPENAI_API_KEY
//	REASONING_MODEL:
//	  model: ollama/qwen3
//	  base_url: http://localhost:11434/v1
//	  api_key: ollama
//
// Every client is an OpenAI-compatible client from langchaingo. Models whose
// name mentions "ollama" and that have a base_url are treated as served by a
// local Ollama gateway: the first "ollama/" is stripped from the model name
// before the client is built.
//
// # Architecture
//
//	┌──────────────┐   miss   ┌──────────────┐   ┌───────────┐   ┌─────────────┐
//	│ Provider     │ ───────▶ │ config.Loader│ ─▶│ Resolve   │ ─▶│ NewClient   │
//	│  .Client(t)  │          └──────────────┘   └───────────┘   └──────┬──────┘
//	│              │ ◀──────────────── Cache.Add ───────────────────────┘
//	└──────────────┘
//
// The Cache is owned by the Provider (or injected with WithCache). It never
// evicts: at most one client exists per type for the cache's lifetime.
//
// # Usage
//
//	logger := slog.Default()
//	provider, err := llm.NewProvider(config.FileLoader{Path: config.DefaultPath()}, logger)
//	if err != nil {
//	    return err
//	}
//
//	// Build clients at startup so config errors stop the process early
//	if err := provider.Warm(llm.Basic); err != nil {
//	    return err
//	}
//
//	client, _ := provider.Client(llm.Basic)
//	resp, err := client.Chat(ctx, []llm.Message{
//	    {Role: "user", Content: "Hello"},
//	}, nil)
//
// # Errors
//
// Resolve and Provider.Client return *ConfigurationError for an unknown type
// (errors.Is ErrUnknownModelType) or a missing or malformed block
// (errors.Is ErrInvalidModelConfig). Errors from the langchaingo constructor,
// such as a missing API key, are returned unchanged.
package llm
