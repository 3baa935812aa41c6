package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCode(t *testing.T) {
	base := DataFormatError("not a table", stderrors.New("bad bytes"))
	wrapped := Wrap(base, "load failed")

	assert.Equal(t, CodeDataFormat, GetCode(wrapped))
	assert.True(t, IsDataFormat(wrapped))
	assert.Contains(t, wrapped.Error(), "load failed")
	assert.Contains(t, wrapped.Error(), "bad bytes")
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	wrapped := Wrap(stderrors.New("boom"), "context")
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestHasCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", QueryExpressionError("unknown column \"y\"", nil))
	assert.True(t, IsQueryExpression(err))
	assert.False(t, IsQueryEngine(err))
	assert.Equal(t, CodeQueryExpression, GetCode(err))
}

func TestQueryEngineErrorCarriesCollaboratorMessage(t *testing.T) {
	err := QueryEngineError("question could not be answered", stderrors.New("model timed out"))
	assert.True(t, IsQueryEngine(err))
	assert.Equal(t, "question could not be answered: model timed out", err.Error())
	assert.Equal(t, "model timed out", stderrors.Unwrap(err).Error())
}

func TestGetCodeUnknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeNotFound, GetCode(NotFound("column \"x\"")))
	assert.Equal(t, `column "x" not found`, NotFound("column \"x\"").Error())
}
