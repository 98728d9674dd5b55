package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"filevault/internal/domain"
)

// Metrics сборщики Prometheus для операций с файлами и очистки корзины.
// Nil *Metrics допустим и ничего не записывает.
type Metrics struct {
	operationsTotal *prometheus.CounterVec
	sweepRuns       prometheus.Counter
	filesPurged     prometheus.Counter
	purgeFailures   prometheus.Counter
	sweepDuration   prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "filevault_operations_total",
				Help: "Total number of file operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		sweepRuns: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filevault_sweep_runs_total",
			Help: "Total number of retention sweep runs",
		}),
		filesPurged: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filevault_files_purged_total",
			Help: "Total number of files permanently purged by the retention sweeper",
		}),
		purgeFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "filevault_purge_failures_total",
			Help: "Total number of files the retention sweeper failed to purge",
		}),
		sweepDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "filevault_sweep_duration_seconds",
			Help:    "Duration of retention sweep runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
	}
}

// Outcome короткая метка результата операции
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

func (m *Metrics) ObserveSweep(d time.Duration, purged, failed int) {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
	m.filesPurged.Add(float64(purged))
	m.purgeFailures.Add(float64(failed))
	m.sweepDuration.Observe(d.Seconds())
}
