// Package monitoring summarizes the run ledger and exposes pipeline
// metrics to Prometheus.
package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of recent pipeline runs.
type MetricsSnapshot struct {
	RunsTotal     int     `json:"runs_total"`
	RunsComplete  int     `json:"runs_complete"`
	RunsFailed    int     `json:"runs_failed"`
	RunsRunning   int     `json:"runs_running"`
	FailRate      float64 `json:"fail_rate"`
	AvgDurationMs int64   `json:"avg_duration_ms"`

	// Failures by the stage that aborted the run.
	FailedStages map[string]int `json:"failed_stages,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the run ledger.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := time.Now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
		FailedStages:  make(map[string]int),
	}

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)
	var totalDuration int64
	var timedRuns int64
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusRunning:
			snap.RunsRunning++
		}
		if len(r.Results) == 0 {
			continue
		}
		var d int64
		for _, sr := range r.Results {
			d += sr.Duration
			if sr.Status == model.StageStatusFailed {
				snap.FailedStages[sr.Name]++
			}
		}
		totalDuration += d
		timedRuns++
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if timedRuns > 0 {
		snap.AvgDurationMs = totalDuration / timedRuns
	}
	return snap, nil
}

// LedgerCollector adapts a Collector to prometheus.Collector so ledger
// state is read at scrape time.
type LedgerCollector struct {
	collector     *Collector
	lookbackHours int

	runs     *prometheus.Desc
	failRate *prometheus.Desc
	duration *prometheus.Desc
}

// NewLedgerCollector creates a scrape-time collector over the ledger.
func NewLedgerCollector(c *Collector, lookbackHours int) *LedgerCollector {
	return &LedgerCollector{
		collector:     c,
		lookbackHours: lookbackHours,
		runs: prometheus.NewDesc("resale_ledger_runs",
			"Pipeline runs in the lookback window by status", []string{"status"}, nil),
		failRate: prometheus.NewDesc("resale_ledger_fail_rate",
			"Share of finished runs that failed in the lookback window", nil, nil),
		duration: prometheus.NewDesc("resale_ledger_avg_duration_ms",
			"Average summed stage duration of runs in the lookback window", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (lc *LedgerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- lc.runs
	ch <- lc.failRate
	ch <- lc.duration
}

// Collect implements prometheus.Collector.
func (lc *LedgerCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := lc.collector.Collect(ctx, lc.lookbackHours)
	if err != nil {
		zap.L().Warn("monitoring: ledger scrape failed", zap.Error(err))
		return
	}
	ch <- prometheus.MustNewConstMetric(lc.runs, prometheus.GaugeValue, float64(snap.RunsComplete), string(model.RunStatusComplete))
	ch <- prometheus.MustNewConstMetric(lc.runs, prometheus.GaugeValue, float64(snap.RunsFailed), string(model.RunStatusFailed))
	ch <- prometheus.MustNewConstMetric(lc.runs, prometheus.GaugeValue, float64(snap.RunsRunning), string(model.RunStatusRunning))
	ch <- prometheus.MustNewConstMetric(lc.failRate, prometheus.GaugeValue, snap.FailRate)
	ch <- prometheus.MustNewConstMetric(lc.duration, prometheus.GaugeValue, float64(snap.AvgDurationMs))
}
