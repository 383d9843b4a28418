package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
)

// Client is a chat-completion client bound to one configured model type.
// It is immutable after construction and safe for concurrent use.
type Client struct {
	llm        llms.Model
	modelType  ModelType
	model      string
	baseURL    string
	apiVersion string
	gateway    bool

	temperature *float64
	maxTokens   int
	topP        *float64

	logger *slog.Logger
}

// Type returns the model type the client was built for.
func (c *Client) Type() ModelType { return c.modelType }

// Model returns the model name sent to the endpoint, after any gateway rewrite.
func (c *Client) Model() string { return c.model }

// BaseURL returns the configured endpoint, empty for the OpenAI default.
func (c *Client) BaseURL() string { return c.baseURL }

// APIVersion returns the Azure OpenAI API version, empty for other endpoints.
func (c *Client) APIVersion() string { return c.apiVersion }

// Gateway reports whether the client targets a local Ollama gateway.
func (c *Client) Gateway() bool { return c.gateway }

// LLM exposes the underlying langchaingo model for callers that need
// features beyond Chat, such as tool binding.
func (c *Client) LLM() llms.Model { return c.llm }

// Chat sends messages and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	model := c.callModel(opts)
	c.logger.Debug("sending chat request", "type", c.modelType, "model", model, "messages", len(messages))

	resp, err := c.llm.GenerateContent(ctx, convertMessages(messages), c.convertOptions(opts)...)
	if err != nil {
		c.logger.Error("chat request failed", "error", err, "model", model)
		return nil, wrapError(err)
	}

	return convertResponse(resp, model), nil
}

// ChatStream sends messages and returns a channel of streaming events.
// The channel is closed after the final event.
func (c *Client) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	lcMessages := convertMessages(messages)
	lcOpts := c.convertOptions(opts)

	eventChan := make(chan StreamEvent, 10)

	go func() {
		defer close(eventChan)

		streamOpts := append(lcOpts, llms.WithStreamingFunc(
			func(ctx context.Context, chunk []byte) error {
				select {
				case eventChan <- StreamEvent{Content: string(chunk)}:
				case <-ctx.Done():
					return ctx.Err()
				}
				return nil
			},
		))

		_, err := c.llm.GenerateContent(ctx, lcMessages, streamOpts...)
		if err != nil {
			c.logger.Error("chat stream failed", "error", err, "model", c.callModel(opts))
			sendFinal(ctx, eventChan, StreamEvent{Error: wrapError(err), Done: true})
			return
		}
		sendFinal(ctx, eventChan, StreamEvent{Done: true})
	}()

	return eventChan, nil
}

// sendFinal delivers the terminal event unless the caller has gone away.
func sendFinal(ctx context.Context, events chan<- StreamEvent, event StreamEvent) {
	if ctx.Err() != nil {
		return
	}
	select {
	case events <- event:
	case <-ctx.Done():
	}
}

func (c *Client) callModel(opts *ChatOptions) string {
	if opts != nil && opts.Model != "" {
		return opts.Model
	}
	return c.model
}

func (c *Client) convertOptions(opts *ChatOptions) []llms.CallOption {
	result := []llms.CallOption{llms.WithModel(c.callModel(opts))}

	temperature := c.temperature
	if opts != nil && opts.Temperature != nil {
		temperature = opts.Temperature
	}
	if temperature != nil {
		result = append(result, llms.WithTemperature(*temperature))
	}

	maxTokens := c.maxTokens
	if opts != nil && opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	if maxTokens > 0 {
		result = append(result, llms.WithMaxTokens(maxTokens))
	}

	if c.topP != nil {
		result = append(result, llms.WithTopP(*c.topP))
	}

	return result
}

// --- Conversion Helpers ---

func convertMessages(messages []Message) []llms.MessageContent {
	result := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		result[i] = llms.TextParts(convertRole(msg.Role), msg.Content)
	}
	return result
}

func convertRole(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "user":
		return llms.ChatMessageTypeHuman
	case "assistant":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeGeneric
	}
}

func convertResponse(lcResp *llms.ContentResponse, model string) *Response {
	if lcResp == nil || len(lcResp.Choices) == 0 {
		return &Response{Model: model}
	}

	choice := lcResp.Choices[0]

	return &Response{
		Content:      choice.Content,
		Model:        getStringFromInfo(choice.GenerationInfo, "Model", model),
		TokensPrompt: getIntFromInfo(choice.GenerationInfo, "PromptTokens"),
		TokensTotal:  getIntFromInfo(choice.GenerationInfo, "TotalTokens"),
	}
}

func getIntFromInfo(info map[string]any, key string) int {
	if v, ok := info[key].(int); ok {
		return v
	}
	if v, ok := info[key].(float64); ok {
		return int(v)
	}
	return 0
}

func getStringFromInfo(info map[string]any, key string, defaultVal string) string {
	if v, ok := info[key].(string); ok && v != "" {
		return v
	}
	return defaultVal
}

// wrapError converts langchaingo errors to our error types.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.Canceled), llms.IsCanceledError(err):
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	case llms.IsRateLimitError(err):
		return fmt.Errorf("%w: rate limit exceeded", ErrProviderUnavailable)
	case llms.IsAuthenticationError(err):
		return fmt.Errorf("authentication failed (check api_key): %w", err)
	case llms.IsTokenLimitError(err):
		return fmt.Errorf("%w: context too long", ErrInvalidResponse)
	case llms.IsProviderUnavailableError(err):
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	default:
		return err
	}
}
