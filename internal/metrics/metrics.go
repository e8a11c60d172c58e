package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timeclock",
			Name:      "submissions_total",
			Help:      "Count of scan submissions by outcome.",
		},
		[]string{"outcome"},
	)

	records = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timeclock",
			Name:      "records_total",
			Help:      "Count of ledger records produced by kind and persistence path.",
		},
		[]string{"kind", "path"},
	)

	failOpen = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timeclock",
			Name:      "fail_open_total",
			Help:      "Count of history checks that failed open because the ledger was unreachable.",
		},
		[]string{"component"},
	)

	syncResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timeclock",
			Name:      "sync_records_total",
			Help:      "Count of offline queue replays by result.",
		},
		[]string{"result"},
	)

	queuePending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "timeclock",
			Name:      "queue_pending",
			Help:      "Submissions waiting in the offline queue.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "timeclock",
			Name:      "http_requests_total",
			Help:      "Count of admin API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(submissions, records, failOpen, syncResults, queuePending, httpRequests)
	})
}

func IncSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

func IncRecord(kind, path string) {
	records.WithLabelValues(kind, path).Inc()
}

func IncFailOpen(component string) {
	failOpen.WithLabelValues(component).Inc()
}

func AddSync(result string, n int) {
	syncResults.WithLabelValues(result).Add(float64(n))
}

func SetQueuePending(n int) {
	queuePending.Set(float64(n))
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
