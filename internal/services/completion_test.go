package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helicone-chat/internal/config"
)

type capturedRequest struct {
	path         string
	auth         string
	heliconeAuth string
	hasHelicone  bool
	body         map[string]any
}

func newCompletionServer(t *testing.T, status int, payload string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		_, captured.hasHelicone = r.Header[http.CanonicalHeaderKey(heliconeAuthHeader)]
		captured.heliconeAuth = r.Header.Get(heliconeAuthHeader)
		_ = json.NewDecoder(r.Body).Decode(&captured.body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

const completionOK = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "gpt-3.5-turbo",
	"choices": [
		{"index": 0, "message": {"role": "assistant", "content": "pong"}, "finish_reason": "stop"},
		{"index": 1, "message": {"role": "assistant", "content": "second"}, "finish_reason": "stop"}
	]
}`

func TestOpenAIClient_CompleteSendsSingleUserTurn(t *testing.T) {
	var captured capturedRequest
	server := newCompletionServer(t, http.StatusOK, completionOK, &captured)

	client, err := NewOpenAIClient(OpenAIClientOptions{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1",
		Model:   "gpt-3.5-turbo",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)

	assert.Equal(t, "/v1/chat/completions", captured.path)
	assert.Equal(t, "Bearer sk-test", captured.auth)
	assert.False(t, captured.hasHelicone, "Helicone-Auth must not be sent without a proxy key")
	assert.Equal(t, "gpt-3.5-turbo", captured.body["model"])

	messages, ok := captured.body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "ping", first["content"])
}

func TestOpenAIClient_AttachesHeliconeAuth(t *testing.T) {
	var captured capturedRequest
	server := newCompletionServer(t, http.StatusOK, completionOK, &captured)

	client, err := NewOpenAIClient(OpenAIClientOptions{
		APIKey:         "sk-test",
		BaseURL:        server.URL,
		Model:          "gpt-3.5-turbo",
		HeliconeAPIKey: "sk-helicone",
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-helicone", captured.heliconeAuth)
	assert.Equal(t, "Bearer sk-test", captured.auth)
}

func TestOpenAIClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"auth rejected", http.StatusUnauthorized, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`},
		{"server error", http.StatusBadGateway, `{"error": {"message": "bad gateway"}}`},
		{"malformed body", http.StatusOK, `{"choices": [`},
		{"no choices", http.StatusOK, `{"id": "chatcmpl-2", "choices": []}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured capturedRequest
			server := newCompletionServer(t, tc.status, tc.payload, &captured)

			client, err := NewOpenAIClient(OpenAIClientOptions{
				APIKey:  "sk-test",
				BaseURL: server.URL,
				Model:   "gpt-3.5-turbo",
			})
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "ping")
			require.Error(t, err)
			assert.NotEmpty(t, err.Error())
		})
	}
}

func TestOpenAIClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client, err := NewOpenAIClient(OpenAIClientOptions{
		APIKey:  "sk-test",
		BaseURL: baseURL,
		Model:   "gpt-3.5-turbo",
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "ping")
	assert.Error(t, err)
}

func TestNewOpenAIClient_RequiresKeyAndModel(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIClientOptions{Model: "gpt-3.5-turbo"})
	assert.Error(t, err)

	_, err = NewOpenAIClient(OpenAIClientOptions{APIKey: "sk-test"})
	assert.Error(t, err)
}

func TestNewCompletionClientFromConfig(t *testing.T) {
	tests := []struct {
		name        string
		openAIKey   string
		heliconeKey string
		wantClient  bool
	}{
		{"no keys", "", "", false},
		{"helicone key only", "", "hk", false},
		{"openai key only", "sk-test", "", true},
		{"both keys", "sk-test", "hk", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{
				OpenAIAPIKey:    tc.openAIKey,
				HeliconeAPIKey:  tc.heliconeKey,
				HeliconeBaseURL: config.DefaultHeliconeBaseURL,
				Model:           config.DefaultModel,
				RequestTimeout:  time.Second,
			}

			client, err := NewCompletionClientFromConfig(cfg)
			require.NoError(t, err)
			if tc.wantClient {
				assert.NotNil(t, client)
			} else {
				assert.Nil(t, client)
			}
		})
	}
}

func TestNewCompletionClientFromConfig_MissingModel(t *testing.T) {
	client, err := NewCompletionClientFromConfig(&config.Config{OpenAIAPIKey: "sk-test"})
	assert.Error(t, err)
	assert.Nil(t, client)
}
