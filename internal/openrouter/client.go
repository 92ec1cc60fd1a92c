package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iit-archive/cli/internal/logger"
	"github.com/iit-archive/cli/internal/rag"
)

// FallbackMessage is returned when a successful response carries no text.
const FallbackMessage = "Sorry, I could not generate a response."

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the normalized outcome of one assistant call.
type ChatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Config carries the endpoint, credential and generation settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Referer     string
	AppTitle    string
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	mu         sync.RWMutex
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		hc := *client.httpClient
		hc.Timeout = d
		client.httpClient = &hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(client *Client) {
		client.logger = logger.OrNop(l)
	}
}

// NewClient creates a new client
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model requests are sent to.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Model
}

// SetModel changes the model used by later requests.
func (c *Client) SetModel(model string) {
	c.mu.Lock()
	c.cfg.Model = model
	c.mu.Unlock()
}

// ChatRequest is the completion request body.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// ChatCompletion is the subset of the completion response we read.
type ChatCompletion struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Send asks the assistant about paperTitle. The system prompt embeds
// pdfContext when it is non-empty; history is appended in order and
// should end with the latest user message. Send never fails: errors are
// folded into the returned ChatResponse.
func (c *Client) Send(ctx context.Context, history []Message, paperTitle, pdfContext string) ChatResponse {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: rag.BuildSystemPrompt(paperTitle, pdfContext)})
	messages = append(messages, history...)

	completion, err := c.Chat(ctx, messages)
	if err != nil {
		c.logger.Warn("chat request failed", zap.String("paper", paperTitle), zap.Error(err))
		return ChatResponse{Success: false, Error: c.describe(err)}
	}

	content := ""
	if len(completion.Choices) > 0 {
		content = completion.Choices[0].Message.Content
	}
	if strings.TrimSpace(content) == "" {
		content = FallbackMessage
	}

	c.logger.Debug("chat request finished",
		zap.String("paper", paperTitle),
		zap.Int("history", len(history)),
		zap.Int("context_chars", len(pdfContext)))

	return ChatResponse{Success: true, Message: content}
}

// MissingKeyHint is appended to a 401 when no API key is configured.
const MissingKeyHint = "Set OPENROUTER_API_KEY to use the study assistant."

func (c *Client) describe(err error) string {
	msg := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("API error: %d", apiErr.StatusCode)
		}
	}
	if IsUnauthorized(err) && c.cfg.APIKey == "" {
		msg = strings.TrimRight(msg, ". ") + ". " + MissingKeyHint
	}
	return msg
}

// Chat performs one completion call with the given messages.
func (c *Client) Chat(ctx context.Context, messages []Message) (*ChatCompletion, error) {
	reqBody := ChatRequest{
		Model:       c.Model(),
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Message = eb.Error.Message
		}
		return nil, apiErr
	}

	var completion ChatCompletion
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &completion, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.AppTitle != "" {
		req.Header.Set("X-Title", c.cfg.AppTitle)
	}
}
