package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"helicone-chat/internal/config"
)

const heliconeAuthHeader = "Helicone-Auth"

var ErrNoChoices = errors.New("completion response contained no choices")

// CompletionClient turns a single user message into a completion.
type CompletionClient interface {
	Complete(ctx context.Context, message string) (string, error)
}

type OpenAIClientOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	HeliconeAPIKey string
	Timeout        time.Duration
}

// OpenAIClient calls an OpenAI-compatible chat-completion API, normally
// through the Helicone proxy.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(opts OpenAIClientOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("completion API key is required")
	}
	if opts.Model == "" {
		return nil, errors.New("completion model is required")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.HeliconeAPIKey != "" {
		headers := http.Header{}
		headers.Set(heliconeAuthHeader, "Bearer "+opts.HeliconeAPIKey)
		httpClient.Transport = &headerTransport{base: http.DefaultTransport, headers: headers}
	}
	cfg.HTTPClient = httpClient

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
	}, nil
}

// NewCompletionClientFromConfig builds the completion client only when a
// completion key is configured; otherwise it returns a nil client and no
// error. The Helicone key alone never produces a client.
func NewCompletionClientFromConfig(cfg *config.Config) (CompletionClient, error) {
	if !cfg.ForwardingEnabled() {
		return nil, nil
	}

	client, err := NewOpenAIClient(OpenAIClientOptions{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.HeliconeBaseURL,
		Model:          cfg.Model,
		HeliconeAPIKey: cfg.HeliconeAPIKey,
		Timeout:        cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, message string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// headerTransport adds a fixed set of headers to every outbound request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for key, values := range t.headers {
		clone.Header[key] = append([]string(nil), values...)
	}
	return t.base.RoundTrip(clone)
}
