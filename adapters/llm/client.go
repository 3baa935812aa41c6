package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dataprobe/internal"
	"dataprobe/ports"

	"github.com/tidwall/gjson"
)

const defaultBaseURL = "http://localhost:11434/v1"

// Config holds LLM adapter configuration
type Config struct {
	APIKey        string        // Bearer key, optional for local servers
	BaseURL       string        // OpenAI-compatible endpoint (default: local Ollama)
	SystemContext string        // System message sent with every prompt
	Temperature   float64       // 0.0-1.0, lower = more deterministic
	Timeout       time.Duration // Transport timeout, 0 for none
}

// NewClient creates an OpenAI-compatible chat completions client
func NewClient(config Config) *OpenAIClient {
	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	system := config.SystemContext
	if strings.TrimSpace(system) == "" {
		system = "You are a careful data analyst. Answer questions about the dataset you are given."
	}

	return &OpenAIClient{
		APIKey:        config.APIKey,
		BaseURL:       strings.TrimRight(baseURL, "/"),
		SystemContext: system,
		Temperature:   config.Temperature,
		httpClient:    &http.Client{Timeout: config.Timeout},
		logger:        internal.DefaultLogger.With("LLMClient"),
	}
}

// OpenAIClient implements ports.LLMClient against any server that speaks the
// chat completions API (OpenAI, Ollama, llama.cpp, vLLM).
type OpenAIClient struct {
	APIKey        string
	BaseURL       string
	SystemContext string
	Temperature   float64

	httpClient *http.Client
	logger     *internal.Logger
}

var _ ports.LLMClient = (*OpenAIClient)(nil)

func (c *OpenAIClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	resp, err := c.ChatCompletionWithUsage(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *OpenAIClient) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("missing model")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
		Stream      bool    `json:"stream"`
	}
	body := reqBody{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: c.SystemContext},
			{Role: "user", Content: prompt},
		},
		Temperature: c.Temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	c.logger.Debug("POST %s/chat/completions model=%s prompt=%d chars", c.BaseURL, model, len(prompt))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := gjson.GetBytes(respRaw, "error.message").String()
		if detail == "" {
			detail = truncate(string(respRaw), 200)
		}
		return nil, fmt.Errorf("llm http %d: %s", resp.StatusCode, detail)
	}
	if !gjson.ValidBytes(respRaw) {
		return nil, fmt.Errorf("llm response is not JSON: %s", truncate(string(respRaw), 200))
	}

	content := gjson.GetBytes(respRaw, "choices.0.message.content")
	if !content.Exists() {
		return nil, fmt.Errorf("llm response missing choices")
	}

	out := &ports.LLMResponse{Content: content.String()}
	if usage := gjson.GetBytes(respRaw, "usage"); usage.Exists() {
		out.Usage = &ports.UsageData{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
			Model:            gjson.GetBytes(respRaw, "model").String(),
			Provider:         "openai-compatible",
		}
	}

	c.logger.Debug("completion received in %v (%d chars)", time.Since(start).Round(time.Millisecond), len(out.Content))
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// MockLLMClient is a mock LLM client for testing
type MockLLMClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors

	Prompts []string // Prompts received, in call order
}

var _ ports.LLMClient = (*MockLLMClient)(nil)

func (m *MockLLMClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return "I could not find an answer in the data provided.", nil
}

func (m *MockLLMClient) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	content, err := m.ChatCompletion(ctx, model, prompt, maxTokens)
	if err != nil {
		return nil, err
	}
	return &ports.LLMResponse{Content: content}, nil
}
