// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	urlChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamend_url_checks_total",
		Help: "URL validations by verdict",
	}, []string{"outcome"}) // outcome=valid|invalid|missing

	probeDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mediamend_probe_duration_seconds",
		Help:    "Wall time of HEAD probes",
		Buckets: prometheus.DefBuckets,
	})

	probeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamend_probe_failures_total",
		Help: "HEAD probe failures by kind",
	}, []string{"kind"}) // kind=transport|timeout

	documentsScannedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamend_documents_scanned_total",
		Help: "Documents processed by the scan engine, by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	scanFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamend_scan_failures_total",
		Help: "Scan failures by stage",
	}, []string{"stage"}) // stage=list_collections|page|document

	reportsPersistedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamend_reports_persisted_total",
		Help: "Reports written to the store by kind",
	}, []string{"kind"}) // kind=validation|repair

	repairsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamend_repairs_total",
		Help: "Repair attempts by type and outcome",
	}, []string{"type", "outcome"}) // outcome=success|failure

	queueMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamend_queue_messages_total",
		Help: "Worker queue messages by outcome",
	}, []string{"outcome"}) // outcome=processed|failed|unparseable|unknown_type

	workerTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediamend_worker_ticks_total",
		Help: "Worker tick executions by outcome",
	}, []string{"outcome"}) // outcome=run|skipped|receive_error
)

func IncURLCheck(outcome string) { urlChecksTotal.WithLabelValues(outcome).Inc() }

func ObserveProbeDuration(d time.Duration) { probeDurationSeconds.Observe(d.Seconds()) }
func IncProbeFailure(kind string)          { probeFailuresTotal.WithLabelValues(kind).Inc() }

func IncDocumentScanned(outcome string) { documentsScannedTotal.WithLabelValues(outcome).Inc() }
func IncScanFailure(stage string)       { scanFailuresTotal.WithLabelValues(stage).Inc() }

func IncReportPersisted(kind string) { reportsPersistedTotal.WithLabelValues(kind).Inc() }

func IncRepair(repairType, outcome string) {
	repairsTotal.WithLabelValues(repairType, outcome).Inc()
}

func IncQueueMessage(outcome string) { queueMessagesTotal.WithLabelValues(outcome).Inc() }
func IncWorkerTick(outcome string)   { workerTicksTotal.WithLabelValues(outcome).Inc() }
