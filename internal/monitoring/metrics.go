package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sells-group/resale-cli/pkg/anthropic"
)

var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resale_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300},
		},
		[]string{"stage", "status"},
	)

	ExtractedCandidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resale_extracted_candidates_total",
			Help: "Documents resolved by each extraction strategy",
		},
		[]string{"strategy"},
	)

	StatusAssigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resale_status_assigned_total",
			Help: "Usage statuses assigned by the annotator",
		},
		[]string{"status"},
	)

	StatusCorrections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "resale_status_corrections_total",
			Help: "Manual status corrections applied",
		},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resale_llm_tokens_used_total",
			Help: "LLM tokens used",
		},
		[]string{"stage", "type"},
	)
)

// Register adds the pipeline metrics to reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		StageDuration,
		ExtractedCandidates,
		StatusAssigned,
		StatusCorrections,
		LLMTokensUsed,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveStage records one finished stage.
func ObserveStage(stage, status string, d time.Duration) {
	StageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

// ObserveUsage adapts ObserveTokens to anthropic.Prompt.OnUsage.
func ObserveUsage(stage string, u anthropic.TokenUsage) {
	ObserveTokens(stage, u.InputTokens, u.OutputTokens)
}

// ObserveTokens records LLM token usage for a stage.
func ObserveTokens(stage string, input, output int64) {
	LLMTokensUsed.WithLabelValues(stage, "input").Add(float64(input))
	LLMTokensUsed.WithLabelValues(stage, "output").Add(float64(output))
}
