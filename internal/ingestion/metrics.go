package ingestion

import (
	"time"

	"github.com/rpattn/memberload/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestionRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memberload",
		Subsystem: "ingestion",
		Name:      "rows_total",
		Help:      "Processed upload rows broken down by mode, result and failure kind.",
	}, []string{"mode", "result", "kind"})

	ingestionFileSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memberload",
		Subsystem: "ingestion",
		Name:      "file_seconds",
		Help:      "Time spent processing one uploaded file.",
		Buckets: []float64{
			0.05, 0.1, 0.25, 0.5,
			1, 2.5, 5, 10,
			30, 60, 120, 300,
		},
	}, []string{"mode"})
)

func observeRow(mode domain.Mode, row domain.ReportRow) {
	ingestionRows.WithLabelValues(string(mode), string(row.Result), string(row.Kind)).Inc()
}

func observeFile(mode domain.Mode, started time.Time) {
	ingestionFileSeconds.WithLabelValues(string(mode)).Observe(time.Since(started).Seconds())
}
