package app

import (
	"context"
	"testing"
	"time"

	"dataprobe/adapters/tabular"
	"dataprobe/domain/dataset"
	"dataprobe/internal/errors"
	"dataprobe/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLLM records calls through testify's mock
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	args := m.Called(ctx, model, prompt, maxTokens)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) ChatCompletionWithUsage(ctx context.Context, model string, prompt string, maxTokens int) (*ports.LLMResponse, error) {
	args := m.Called(ctx, model, prompt, maxTokens)
	resp, _ := args.Get(0).(*ports.LLMResponse)
	return resp, args.Error(1)
}

func loadSales(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := tabular.NewDataReader(nil).Read("sales.csv", []byte("region,price\nnorth,10\nsouth,15\n"))
	require.NoError(t, err)
	return ds
}

func TestAnswerPassesQuestionAndReturnsReplyUnmodified(t *testing.T) {
	llm := &MockLLM{}
	question := "  What is the average price?"
	reply := "  The average price is **12.5**.\n"

	llm.On("ChatCompletionWithUsage", mock.Anything, "tinyllama",
		mock.MatchedBy(func(prompt string) bool {
			return len(prompt) > len(question) && prompt[len(prompt)-len(question)-1:len(prompt)-1] == question
		}), 512).
		Return(&ports.LLMResponse{Content: reply, Usage: &ports.UsageData{TotalTokens: 90}}, nil).Once()

	svc := NewQuestionService(llm, nil, QuestionConfig{Model: "tinyllama", MaxTokens: 512})
	answer, err := svc.Answer(context.Background(), loadSales(t), question)
	require.NoError(t, err)

	assert.Equal(t, reply, answer.Text)
	assert.Equal(t, question, answer.Question)
	assert.Equal(t, 90, answer.Usage.TotalTokens)
	llm.AssertExpectations(t)
}

func TestAnswerWrapsFailuresAsQueryEngineError(t *testing.T) {
	llm := &MockLLM{}
	llm.On("ChatCompletionWithUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()

	svc := NewQuestionService(llm, nil, QuestionConfig{Model: "m"})
	_, err := svc.Answer(context.Background(), loadSales(t), "anything?")
	require.Error(t, err)
	assert.True(t, errors.IsQueryEngine(err))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAnswerTimeBound(t *testing.T) {
	llm := &MockLLM{}
	llm.On("ChatCompletionWithUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded).Once()

	svc := NewQuestionService(llm, nil, QuestionConfig{Model: "m", Timeout: 20 * time.Millisecond})
	_, err := svc.Answer(context.Background(), loadSales(t), "slow?")
	require.Error(t, err)
	assert.True(t, errors.IsQueryEngine(err))
	assert.Contains(t, err.Error(), "did not answer within 20ms")
}

func TestAnswerRejectsBlankQuestion(t *testing.T) {
	svc := NewQuestionService(&MockLLM{}, nil, QuestionConfig{Model: "m"})
	_, err := svc.Answer(context.Background(), loadSales(t), "   ")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
