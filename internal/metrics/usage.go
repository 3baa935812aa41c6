package metrics

import (
	"dataprobe/internal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LLMTokens counts tokens reported by the language model provider.
var LLMTokens = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dataprobe_llm_tokens_total",
		Help: "Tokens consumed by question answering, by model and kind",
	},
	[]string{"model", "kind"},
)

var usageLogger = internal.DefaultLogger.With("Usage")

// RecordUsage adds one call's token counts. Negative counts are logged and
// dropped; usage tracking never fails the caller.
func RecordUsage(model string, promptTokens, completionTokens int) bool {
	if promptTokens < 0 || completionTokens < 0 {
		usageLogger.Error("invalid token counts for %s: prompt=%d completion=%d", model, promptTokens, completionTokens)
		return false
	}
	LLMTokens.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	LLMTokens.WithLabelValues(model, "completion").Add(float64(completionTokens))
	return true
}
