package completions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m2tx/toolchat/internal/model"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		Endpoint:    url,
		Model:       "llama-test",
		APIKey:      "secret",
		Timeout:     5 * time.Second,
		MaxRetries:  3,
		Temperature: 0.7,
		TopP:        0.95,
		MaxTokens:   4096,
	})
	require.NoError(t, err)
	c.Retrier().Sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func writeSSE(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\n\n", l)
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Model: "m"})
	require.ErrorIs(t, err, ErrMissingEndpoint)

	_, err = NewClient(Config{Endpoint: "http://localhost"})
	require.ErrorIs(t, err, ErrMissingModel)
}

func TestClient_StreamSendsRequestAndDecodes(t *testing.T) {
	var captured map[string]any
	var auth, accept string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		accept = r.Header.Get("Accept")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		writeSSE(w,
			`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
			`data: {"choices":[{"delta":{"content":"!"}}]}`,
			`data: [DONE]`,
		)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	tools := []model.Tool{{Type: "function", Function: model.ToolFunction{Name: "get_time"}}}

	var streamed string
	msg, stats, err := c.Stream(context.Background(),
		[]model.Message{model.SystemMessage("sys"), model.UserMessage("hi")},
		tools,
		func(s string) { streamed += s })
	require.NoError(t, err)

	require.Equal(t, "Hello!", msg.Text())
	require.Equal(t, "Hello!", streamed)
	require.Equal(t, 2, stats.Tokens)

	require.Equal(t, "Bearer secret", auth)
	require.Equal(t, "text/event-stream", accept)
	require.Equal(t, "llama-test", captured["model"])
	require.Equal(t, true, captured["stream"])
	require.Equal(t, "auto", captured["tool_choice"])
	require.Equal(t, 0.7, captured["temperature"])
	require.Equal(t, 0.95, captured["top_p"])
	require.Equal(t, float64(4096), captured["max_tokens"])
	require.Contains(t, captured, "presence_penalty")
	require.Contains(t, captured, "frequency_penalty")
	require.Len(t, captured["messages"], 2)
	require.Len(t, captured["tools"], 1)
}

func TestClient_StreamOmitsToolsWhenNoneRegistered(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		writeSSE(w, `data: [DONE]`)
	}))
	defer srv.Close()

	_, _, err := newTestClient(t, srv.URL).Stream(context.Background(), []model.Message{model.UserMessage("hi")}, nil, nil)
	require.NoError(t, err)
	require.NotContains(t, captured, "tools")
	require.NotContains(t, captured, "tool_choice")
}

func TestClient_StreamNon2xxIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, _, err := newTestClient(t, srv.URL).Stream(context.Background(), nil, nil, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "model not loaded")
}

func TestClient_CompleteRetriesTransportFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeSSE(w,
			`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"c1","function":{"name":"get_time","arguments":"{}"}}]}}]}`,
			`data: [DONE]`,
		)
	}))
	defer srv.Close()

	msg := newTestClient(t, srv.URL).Complete(context.Background(), []model.Message{model.UserMessage("time?")}, nil, nil)

	require.EqualValues(t, 3, calls.Load())
	require.Len(t, msg.ToolCalls, 1)
	require.Equal(t, "get_time", msg.ToolCalls[0].Function.Name)
}

func TestClient_CompleteSynthesizesErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	msg := newTestClient(t, url).Complete(context.Background(), []model.Message{model.UserMessage("hi")}, nil, nil)

	require.Equal(t, model.RoleAssistant, msg.Role)
	require.Contains(t, msg.Text(), "[Error: ")
	require.False(t, msg.HasInvocations())
}
