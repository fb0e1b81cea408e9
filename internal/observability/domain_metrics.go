package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	ingestFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice2sql_ingest_files_total",
			Help: "Total number of uploaded files processed, by detected format and outcome.",
		},
		[]string{"format", "status"},
	)
	ingestRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voice2sql_ingest_rows_total",
			Help: "Total number of rows written to the relational store by ingestion.",
		},
	)
	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice2sql_translations_total",
			Help: "Total number of natural-language translations by resolution path.",
		},
		[]string{"path"},
	)
	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice2sql_query_executions_total",
			Help: "Total number of SQL executions against the relational store.",
		},
		[]string{"status"},
	)
	queryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voice2sql_query_duration_seconds",
			Help:    "Latency of SQL executions against the relational store.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
	transcriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voice2sql_transcriptions_total",
			Help: "Total number of speech-to-text requests by backend and outcome.",
		},
		[]string{"backend", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		ingestFilesTotal,
		ingestRowsTotal,
		translationsTotal,
		queryExecutionsTotal,
		queryDurationSeconds,
		transcriptionsTotal,
	)
}

func ObserveIngestFile(format string, rows int, err error) {
	if err != nil {
		ingestFilesTotal.WithLabelValues(format, StatusError).Inc()
		return
	}
	ingestFilesTotal.WithLabelValues(format, StatusOK).Inc()
	if rows > 0 {
		ingestRowsTotal.Add(float64(rows))
	}
}

func ObserveTranslation(path string) {
	translationsTotal.WithLabelValues(path).Inc()
}

func ObserveQueryExecution(elapsed time.Duration, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	queryExecutionsTotal.WithLabelValues(status).Inc()
	queryDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveTranscription(backend string, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	transcriptionsTotal.WithLabelValues(backend, status).Inc()
}
