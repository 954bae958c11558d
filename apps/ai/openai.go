package ai

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

	"github.com/getevo/evo/v2/lib/log"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/vidbriefs/vidbriefs-backend/apps/models"
)

// Typed failures so callers can react differently: a 401 means the key is
// wrong and the operator must re-enter credentials, a timeout is retryable.
var (
	ErrUnauthorized      = errors.New("llm: unauthorized, check the API key")
	ErrTimeout           = errors.New("llm: request timed out")
	ErrMalformedResponse = errors.New("llm: malformed response")
	ErrNetwork           = errors.New("llm: network error")
)

// Completer is the single operation the summarization pipeline needs from
// a language model
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// OpenAI API client
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// ChatMessage represents a message in the chat
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatCompletionRequest represents the request to OpenAI Chat API
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

// ChatCompletionResponse represents the response from OpenAI Chat API
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

var (
	client     *OpenAIClient
	clientLock sync.RWMutex
)

// InitClient initializes the OpenAI client.
// It first tries to read from database settings, then falls back to config.
func InitClient() error {
	clientLock.Lock()
	defer clientLock.Unlock()

	apiKey := models.GetSettingValue("ai.api_key", "")
	baseURL := models.GetSettingValue("ai.endpoint", "")
	model := models.GetSettingValue("ai.model", "")

	if apiKey == "" {
		apiKey = settings.Get("OPENAI.API_KEY").String()
		baseURL = settings.Get("OPENAI.ENDPOINT", "https://api.openai.com/v1").String()
		model = settings.Get("OPENAI.MODEL", "gpt-4o").String()
	}

	if apiKey == "" {
		log.Warning("AI API key is not configured")
		return fmt.Errorf("AI API key is not configured")
	}

	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o"
	}

	timeout, _ := settings.Get("OPENAI.TIMEOUT", "300s").Duration()
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	client = &OpenAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}

	log.Info("AI client initialized with endpoint: %s, model: %s", baseURL, model)
	return nil
}

// ReloadSettings reloads AI settings from database
func ReloadSettings() {
	log.Info("Reloading AI settings...")
	if err := InitClient(); err != nil {
		log.Error("Failed to reload AI settings: %v", err)
	}
}

// GetClient returns the OpenAI client instance
func GetClient() *OpenAIClient {
	clientLock.RLock()
	defer clientLock.RUnlock()
	return client
}

// NewOpenAIClient builds a client for a fixed endpoint, used by tests
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Complete sends a chat completion request and returns the first choice
func (c *OpenAIClient) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	req := ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", ErrTimeout
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	// other failure statuses are service trouble, not a shape problem
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var result ChatCompletionResponse
		if json.Unmarshal(respBody, &result) == nil && result.Error != nil {
			return "", fmt.Errorf("%w: status %d: %s", ErrNetwork, resp.StatusCode, result.Error.Message)
		}
		return "", fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformedResponse, result.Error.Message)
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty choices", ErrMalformedResponse)
	}

	return result.Choices[0].Message.Content, nil
}

var _ Completer = (*OpenAIClient)(nil)
