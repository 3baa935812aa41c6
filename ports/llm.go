package ports

import "context"

// UsageData represents raw usage data reported by the LLM provider
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// LLMResponse is a completion plus the provider's usage report, when it sends one
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// LLMClient answers a single prompt. Implementations must honour ctx cancellation.
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)

	ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*LLMResponse, error)
}
