package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "test/model",
		Temperature: 0.7,
		MaxTokens:   1024,
		Referer:     "https://example.org",
		AppTitle:    "Test Assistant",
	}
}

func completionJSON(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id": "gen-1",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestNewClient(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://localhost:9999/api/v1/", Model: "m"})
	assert.Equal(t, "http://localhost:9999/api/v1", c.cfg.BaseURL)
	assert.Equal(t, 2*time.Minute, c.httpClient.Timeout)

	c = NewClient(Config{}, WithTimeout(5*time.Second))
	assert.Equal(t, "https://openrouter.ai/api/v1", c.cfg.BaseURL)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)

	custom := &http.Client{}
	c = NewClient(Config{}, WithHTTPClient(custom))
	assert.Same(t, custom, c.httpClient)
}

func TestWithTimeoutLeavesCallerClientAlone(t *testing.T) {
	custom := &http.Client{}
	c := NewClient(Config{}, WithHTTPClient(custom), WithTimeout(5*time.Second))

	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
	assert.Zero(t, custom.Timeout)
	assert.NotSame(t, custom, c.httpClient)
}

func TestSendSuccess(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "https://example.org", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Test Assistant", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionJSON("Use conservation of energy.")))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL))
	history := []Message{
		{Role: RoleUser, Content: "What is Q.1 about?"},
		{Role: RoleAssistant, Content: "Kinematics."},
		{Role: RoleUser, Content: "How do I solve it?"},
	}

	resp := c.Send(context.Background(), history, "2020 Paper I", "--- Page 1 ---\nQ.1 A ball")

	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "Use conservation of energy.", resp.Message)
	assert.Empty(t, resp.Error)

	assert.Equal(t, "test/model", got.Model)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "Q.1 A ball")
	assert.Contains(t, got.Messages[0].Content, `"2020 Paper I"`)
	assert.Equal(t, history, got.Messages[1:])
}

func TestSendOmitsEmptyContext(t *testing.T) {
	var system string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		system = req.Messages[0].Content
		w.Write([]byte(completionJSON("ok")))
	}))
	defer server.Close()

	resp := NewClient(testConfig(server.URL)).Send(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}}, "2001 Paper II", "")

	assert.True(t, resp.Success)
	assert.NotContains(t, system, "PAPER CONTENT")
}

func TestSendFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantError string
	}{
		{
			name:      "401 with error message",
			status:    http.StatusUnauthorized,
			body:      `{"error":{"message":"No auth credentials found","code":401}}`,
			wantError: "No auth credentials found",
		},
		{
			name:      "500 without body",
			status:    http.StatusInternalServerError,
			body:      "",
			wantError: "API error: 500",
		},
		{
			name:      "429 with non-json body",
			status:    http.StatusTooManyRequests,
			body:      "slow down",
			wantError: "API error: 429",
		},
		{
			name:      "malformed success body",
			status:    http.StatusOK,
			body:      "not json",
			wantError: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			resp := NewClient(testConfig(server.URL)).Send(context.Background(),
				[]Message{{Role: RoleUser, Content: "hi"}}, "t", "")

			assert.False(t, resp.Success)
			assert.Empty(t, resp.Message)
			assert.Contains(t, resp.Error, tt.wantError)
		})
	}
}

func TestSendFallbackWhenShapeUnexpected(t *testing.T) {
	for _, body := range []string{`{}`, `{"choices":[]}`, completionJSON("   ")} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		resp := NewClient(testConfig(server.URL)).Send(context.Background(),
			[]Message{{Role: RoleUser, Content: "hi"}}, "t", "")
		server.Close()

		assert.True(t, resp.Success, body)
		assert.Equal(t, FallbackMessage, resp.Message, body)
	}
}

func TestSendTransportFailure(t *testing.T) {
	resp := NewClient(testConfig("http://127.0.0.1:1")).Send(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}}, "t", "")

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "failed to execute request")
}

func TestSendCallsEndpointOnce(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	resp := NewClient(testConfig(server.URL)).Send(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}}, "t", "")

	assert.False(t, resp.Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestChatReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL)).Chat(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "API error (401): bad key", err.Error())
}

func TestSendUnauthorizedWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"No auth credentials found"}}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = ""
	resp := NewClient(cfg).Send(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "t", "")

	assert.False(t, resp.Success)
	assert.Equal(t, "No auth credentials found. "+MissingKeyHint, resp.Error)

	resp = NewClient(testConfig(server.URL)).Send(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, "t", "")
	assert.Equal(t, "No auth credentials found", resp.Error)
}

func TestSetModel(t *testing.T) {
	var model string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		model = req.Model
		w.Write([]byte(completionJSON("ok")))
	}))
	defer server.Close()

	c := NewClient(testConfig(server.URL))
	c.SetModel("other/model")
	c.Send(context.Background(), []Message{{Role: RoleUser, Content: strings.Repeat("x", 3)}}, "t", "")

	assert.Equal(t, "other/model", c.Model())
	assert.Equal(t, "other/model", model)
}
