package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"dataprobe/ai"
	"dataprobe/domain/dataset"
	"dataprobe/internal"
	"dataprobe/internal/errors"
	"dataprobe/internal/metrics"
	"dataprobe/ports"
)

// QuestionConfig controls how questions are sent to the language model
type QuestionConfig struct {
	Model       string
	MaxTokens   int
	Timeout     time.Duration // 0 disables the bound
	PreviewRows int
}

// Answer is the language model's reply to one question
type Answer struct {
	Question string           `json:"question"`
	Text     string           `json:"answer"`
	Model    string           `json:"model"`
	Duration time.Duration    `json:"duration_ns"`
	Usage    *ports.UsageData `json:"usage,omitempty"`
}

// QuestionService answers free-text questions about a dataset through an
// LLMClient. It keeps no state between questions.
type QuestionService struct {
	llm     ports.LLMClient
	prompts *ai.PromptManager
	config  QuestionConfig
	logger  *internal.Logger
}

// NewQuestionService creates a question service
func NewQuestionService(llm ports.LLMClient, prompts *ai.PromptManager, config QuestionConfig) *QuestionService {
	if prompts == nil {
		prompts = ai.NewPromptManager("")
	}
	if config.PreviewRows <= 0 {
		config.PreviewRows = 5
	}
	return &QuestionService{
		llm:     llm,
		prompts: prompts,
		config:  config,
		logger:  internal.DefaultLogger.With("QuestionService"),
	}
}

// Answer sends the dataset context and the question, verbatim, to the model
// and returns its reply unmodified. Any collaborator failure, including the
// time bound expiring, is a QueryEngineError.
func (s *QuestionService) Answer(ctx context.Context, ds *dataset.Dataset, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.InvalidInput("question is empty")
	}

	prompt, err := s.prompts.BuildQuestionPrompt(ds, question, s.config.PreviewRows)
	if err != nil {
		return nil, errors.QueryEngineError("failed to build the question prompt", err)
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.llm.ChatCompletionWithUsage(ctx, s.config.Model, prompt, s.config.MaxTokens)
	elapsed := time.Since(start)
	metrics.LLMDuration.Observe(elapsed.Seconds())

	if err != nil {
		s.logger.Warn("question failed after %v: %v", elapsed.Round(time.Millisecond), err)
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.QueryEngineError(
				fmt.Sprintf("the language model did not answer within %v", s.config.Timeout), err)
		}
		return nil, errors.QueryEngineError("the language model could not answer", err)
	}

	answer := &Answer{
		Question: question,
		Text:     resp.Content,
		Model:    s.config.Model,
		Duration: elapsed,
		Usage:    resp.Usage,
	}
	if resp.Usage != nil {
		metrics.RecordUsage(s.config.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		s.logger.Info("answered in %v (%d tokens)", elapsed.Round(time.Millisecond), resp.Usage.TotalTokens)
	} else {
		s.logger.Info("answered in %v", elapsed.Round(time.Millisecond))
	}
	return answer, nil
}
