package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	ScanCyclesTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "scan_cycles_total", Help: "Total scan cycles run"})
	CycleErrorsTotal     = prometheus.NewCounter(prometheus.CounterOpts{Name: "scan_cycle_errors_total", Help: "Cycles aborted by an error"})
	HeartbeatsTotal      = prometheus.NewCounter(prometheus.CounterOpts{Name: "heartbeats_total", Help: "Heartbeat log lines emitted"})
	PathsEvaluatedTotal  = prometheus.NewCounter(prometheus.CounterOpts{Name: "paths_evaluated_total", Help: "Triangle paths evaluated"})
	PathsRejectedTotal   = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "paths_rejected_total", Help: "Path rejections by reason"}, []string{"reason"})
	QuoteRequestsTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "quote_requests_total", Help: "Quote API requests issued"})
	QuoteRetriesTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "quote_retries_total", Help: "Quote API retries after transient failures"})
	QuoteFailuresTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "quote_failures_total", Help: "Quote requests that exhausted retries"})
	QuoteLatencyMs       = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "quote_latency_ms", Help: "Quote request latency", Buckets: prometheus.ExponentialBuckets(10, 2, 12)})
	OpportunitiesFound   = prometheus.NewCounter(prometheus.CounterOpts{Name: "arbitrage_opportunities_found", Help: "Opportunities passing all filters"})
	OpportunityProfitBps = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "opportunity_profit_bps", Help: "Profit bps of accepted opportunities", Buckets: prometheus.LinearBuckets(0, 10, 30)})
	RequoteRejections    = prometheus.NewCounter(prometheus.CounterOpts{Name: "requote_rejections_total", Help: "Opportunities invalidated by the re-quote guard"})
	TrianglesExecuted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "triangles_executed_total", Help: "Fully completed 3-leg executions"})
	LegsExecutedTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "legs_executed_total", Help: "Individual swap legs confirmed"})
	PartialFailures      = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "partial_failures_total", Help: "Executions aborted mid-sequence, by failed leg"}, []string{"leg"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		ScanCyclesTotal, CycleErrorsTotal, HeartbeatsTotal,
		PathsEvaluatedTotal, PathsRejectedTotal,
		QuoteRequestsTotal, QuoteRetriesTotal, QuoteFailuresTotal, QuoteLatencyMs,
		OpportunitiesFound, OpportunityProfitBps, RequoteRejections,
		TrianglesExecuted, LegsExecutedTotal, PartialFailures,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("Prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
