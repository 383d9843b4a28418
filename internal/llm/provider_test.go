package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bimmerbailey/flowllm/internal/config"
	"github.com/tmc/langchaingo/llms"
)

// countingLoader returns a fixed configuration and counts Load calls.
type countingLoader struct {
	file  config.File
	err   error
	calls atomic.Int32
}

func (l *countingLoader) Load() (config.File, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	return l.file, nil
}

func TestNewProvider_Validation(t *testing.T) {
	if _, err := NewProvider(nil, testLogger()); err == nil {
		t.Error("NewProvider() should reject nil loader")
	}
	if _, err := NewProvider(&countingLoader{}, nil); err == nil {
		t.Error("NewProvider() should reject nil logger")
	}
}

func TestProvider_ClientPerType(t *testing.T) {
	loader := &countingLoader{file: testFile()}
	provider, err := NewProvider(loader, testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	want := map[ModelType]string{
		Basic:     "gpt-4o",
		Reasoning: "llama3",
		Vision:    "gpt-4o-mini",
	}

	for _, mt := range ModelTypes {
		client, err := provider.Client(mt)
		if err != nil {
			t.Fatalf("Client(%v) error = %v", mt, err)
		}
		if client.Model() != want[mt] {
			t.Errorf("Client(%v).Model() = %q, want %q", mt, client.Model(), want[mt])
		}
		if client.Type() != mt {
			t.Errorf("Client(%v).Type() = %v", mt, client.Type())
		}

		again, err := provider.Client(mt)
		if err != nil {
			t.Fatalf("second Client(%v) error = %v", mt, err)
		}
		if again != client {
			t.Errorf("Client(%v) returned a different instance on second call", mt)
		}
	}
}

func TestProvider_LoadsConfigOnce(t *testing.T) {
	loader := &countingLoader{file: testFile()}
	provider, err := NewProvider(loader, testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if _, err := provider.Client(Basic); err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	if _, err := provider.Client(Basic); err != nil {
		t.Fatalf("Client() error = %v", err)
	}

	if n := loader.calls.Load(); n != 1 {
		t.Errorf("Load called %d times, want 1", n)
	}
}

func TestProvider_UnknownTypeNotCached(t *testing.T) {
	loader := &countingLoader{file: testFile()}
	cache := NewCache()
	provider, err := NewProvider(loader, testLogger(), WithCache(cache))
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	_, err = provider.Client(ModelType(9))
	if !errors.Is(err, ErrUnknownModelType) {
		t.Fatalf("Client() error = %v, want ErrUnknownModelType", err)
	}
	if cache.Len() != 0 {
		t.Errorf("cache should be empty, has %d entries", cache.Len())
	}
}

func TestProvider_ErrorsNotCached(t *testing.T) {
	loader := &countingLoader{err: errors.New("disk on fire")}
	provider, err := NewProvider(loader, testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if _, err := provider.Client(Basic); err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Fatalf("Client() error = %v, want loader error", err)
	}
	if provider.Cached(Basic) {
		t.Error("failed construction should not be cached")
	}

	// Missing block: loader succeeds, resolver fails
	loader.err = nil
	loader.file = config.File{}
	if _, err := provider.Client(Basic); !errors.Is(err, ErrInvalidModelConfig) {
		t.Fatalf("Client() error = %v, want ErrInvalidModelConfig", err)
	}

	loader.file = testFile()
	client, err := provider.Client(Basic)
	if err != nil {
		t.Fatalf("Client() after fix error = %v", err)
	}
	if client.Model() != "gpt-4o" {
		t.Errorf("Model() = %q, want %q", client.Model(), "gpt-4o")
	}
	if n := loader.calls.Load(); n != 3 {
		t.Errorf("Load called %d times, want 3", n)
	}
}

func TestProvider_ConcurrentMisses(t *testing.T) {
	loader := &countingLoader{file: testFile()}
	provider, err := NewProvider(loader, testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	const workers = 32
	clients := make([]*Client, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := provider.Client(Reasoning)
			if err != nil {
				t.Errorf("Client() error = %v", err)
				return
			}
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for i, c := range clients {
		if c != clients[0] {
			t.Fatalf("worker %d got a different instance", i)
		}
	}
	if n := loader.calls.Load(); n != 1 {
		t.Errorf("Load called %d times, want 1", n)
	}
}

func TestProvider_SharedCache(t *testing.T) {
	cache := NewCache()
	first, _ := NewProvider(&countingLoader{file: testFile()}, testLogger(), WithCache(cache))
	secondLoader := &countingLoader{file: testFile()}
	second, _ := NewProvider(secondLoader, testLogger(), WithCache(cache))

	a, err := first.Client(Vision)
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}
	b, err := second.Client(Vision)
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}

	if a != b {
		t.Error("providers sharing a cache should return the same client")
	}
	if n := secondLoader.calls.Load(); n != 0 {
		t.Errorf("second provider loaded config %d times, want 0", n)
	}
}

func TestProvider_Warm(t *testing.T) {
	loader := &countingLoader{file: testFile()}
	provider, _ := NewProvider(loader, testLogger())

	if err := provider.Warm(Basic, Vision); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if !provider.Cached(Basic) || !provider.Cached(Vision) {
		t.Error("Warm() should cache the requested types")
	}
	if provider.Cached(Reasoning) {
		t.Error("Warm() should not build unrequested types")
	}

	broken, _ := NewProvider(&countingLoader{file: config.File{}}, testLogger())
	err := broken.Warm(Basic)
	if !errors.Is(err, ErrInvalidModelConfig) {
		t.Errorf("Warm() error = %v, want ErrInvalidModelConfig", err)
	}
	if err != nil && !strings.Contains(err.Error(), "basic") {
		t.Errorf("Warm() error should name the type, got: %v", err)
	}
}

func TestCache_AddKeepsFirst(t *testing.T) {
	cache := NewCache()
	a := &Client{modelType: Basic, model: "a"}
	b := &Client{modelType: Basic, model: "b"}

	if got := cache.Add(Basic, a); got != a {
		t.Error("first Add should store the client")
	}
	if got := cache.Add(Basic, b); got != a {
		t.Error("second Add should return the existing client")
	}
	if got, ok := cache.Get(Basic); !ok || got != a {
		t.Error("Get should return the first client")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

// newChatServer starts an OpenAI-compatible stub that records the requested
// model and answers every chat completion with content.
func newChatServer(t *testing.T, content string) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var gotModel atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel.Store(req["model"])

		if stream, _ := req["stream"].(bool); stream {
			w.Header().Set("Content-Type", "text/event-stream")
			for _, part := range []string{content[:len(content)/2], content[len(content)/2:]} {
				chunk := map[string]any{
					"id":      "chatcmpl-1",
					"object":  "chat.completion.chunk",
					"created": 1,
					"model":   req["model"],
					"choices": []map[string]any{{
						"index": 0,
						"delta": map[string]string{"role": "assistant", "content": part},
					}},
				}
				data, _ := json.Marshal(chunk)
				fmt.Fprintf(w, "data: %s\n\n", data)
			}
			fmt.Fprint(w, "data: [DONE]\n\n")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   req["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{
				"prompt_tokens":     3,
				"completion_tokens": 2,
				"total_tokens":      5,
			},
		})
	}))
	t.Cleanup(server.Close)

	return server, &gotModel
}

func TestClient_ChatAgainstGateway(t *testing.T) {
	server, gotModel := newChatServer(t, "Hello there")

	loader := &countingLoader{file: config.File{
		"basic_model": map[string]any{
			"model":    "ollama/llama3",
			"base_url": server.URL + "/v1",
			"api_key":  "ollama",
		},
	}}
	provider, _ := NewProvider(loader, testLogger())

	client, err := provider.Client(Basic)
	if err != nil {
		t.Fatalf("Client() error = %v", err)
	}

	resp, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "Hello"}}, nil)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	if resp.Content != "Hello there" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello there")
	}
	if gotModel.Load() != "llama3" {
		t.Errorf("server saw model %v, want %q", gotModel.Load(), "llama3")
	}
}

func TestClient_ChatStream(t *testing.T) {
	server, _ := newChatServer(t, "streamed")

	file := config.File{
		"basic_model": map[string]any{
			"model":    "gpt-4o",
			"base_url": server.URL,
			"api_key":  "sk-test",
		},
	}
	client, err := NewClient(Basic, file, testLogger())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	stream, err := client.ChatStream(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}

	var sb strings.Builder
	var done bool
	for event := range stream {
		if event.Error != nil {
			t.Fatalf("stream error: %v", event.Error)
		}
		sb.WriteString(event.Content)
		if event.Done {
			done = true
		}
	}

	if sb.String() != "streamed" {
		t.Errorf("streamed content = %q, want %q", sb.String(), "streamed")
	}
	if !done {
		t.Error("stream should end with a Done event")
	}
}

func TestClient_EmptyMessages(t *testing.T) {
	client, err := NewClient(Basic, testFile(), testLogger())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := client.Chat(context.Background(), nil, nil); err == nil {
		t.Error("Chat() should reject empty messages")
	}
	if _, err := client.ChatStream(context.Background(), nil, nil); err == nil {
		t.Error("ChatStream() should reject empty messages")
	}
}

func TestClient_ConvertOptions(t *testing.T) {
	temp := 0.3
	override := 0.9
	client := &Client{model: "gpt-4o", temperature: &temp, maxTokens: 100}

	if got := len(client.convertOptions(nil)); got != 3 {
		t.Errorf("convertOptions(nil) returned %d options, want 3 (model, temperature, max tokens)", got)
	}
	if got := client.callModel(&ChatOptions{Model: "other"}); got != "other" {
		t.Errorf("callModel() = %q, want %q", got, "other")
	}
	if got := client.callModel(nil); got != "gpt-4o" {
		t.Errorf("callModel(nil) = %q, want %q", got, "gpt-4o")
	}
	if got := len(client.convertOptions(&ChatOptions{Temperature: &override})); got != 3 {
		t.Errorf("convertOptions() returned %d options, want 3", got)
	}

	bare := &Client{model: "gpt-4o"}
	if got := len(bare.convertOptions(nil)); got != 1 {
		t.Errorf("convertOptions(nil) with no defaults returned %d options, want 1", got)
	}
}

// chunkModel streams a fixed number of chunks, then waits for release
// before returning.
type chunkModel struct {
	chunks   int
	streamed chan struct{}
	release  chan struct{}
}

func (m *chunkModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	for i := 0; i < m.chunks; i++ {
		if err := opts.StreamingFunc(ctx, []byte("x")); err != nil {
			return nil, err
		}
	}
	close(m.streamed)
	<-m.release
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "done"}}}, nil
}

func (m *chunkModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestClient_ChatStreamStopsWhenCallerLeaves(t *testing.T) {
	// Fill the event buffer so the final event has nowhere to go.
	model := &chunkModel{chunks: 10, streamed: make(chan struct{}), release: make(chan struct{})}
	client := &Client{llm: model, model: "gpt-4o", logger: testLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := client.ChatStream(ctx, []Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}

	<-model.streamed
	cancel()
	close(model.release)

	var content int
	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				if content != 10 {
					t.Errorf("received %d content events, want 10", content)
				}
				return
			}
			if event.Done {
				t.Fatal("final event should be dropped after the context is canceled")
			}
			content++
		case <-timeout:
			t.Fatal("stream goroutine did not exit after cancellation")
		}
	}
}
