package llm

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender: "system", "user", or "assistant"
	Role string

	// Content is the message text
	Content string
}

// ChatOptions overrides a client's configured defaults for one call.
// All fields are optional; nil opts uses the model block's settings.
type ChatOptions struct {
	// Model replaces the configured model name
	Model string

	// Temperature controls randomness (0.0 = deterministic, 2.0 = very random)
	Temperature *float64

	// MaxTokens limits the response length (0 = configured value)
	MaxTokens int
}

// Response represents a complete LLM response.
type Response struct {
	// Content is the generated text
	Content string

	// Model is the name of the model that generated the response
	Model string

	// TokensPrompt is the number of tokens in the prompt
	TokensPrompt int

	// TokensTotal is the total number of tokens (prompt + completion)
	TokensTotal int
}

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	// Content is the incremental text chunk (token or group of tokens)
	Content string

	// Done indicates if this is the final event in the stream
	Done bool

	// Error contains any error that occurred during streaming
	// When Error is non-nil, the stream should be considered terminated
	Error error
}
