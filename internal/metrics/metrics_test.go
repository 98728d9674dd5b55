package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"filevault/internal/domain"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("restore", nil)
	m.ObserveOperation("restore", fmt.Errorf("%w: file is active", domain.ErrInvalidState))
	m.ObserveOperation("restore", fmt.Errorf("%w: file is active", domain.ErrInvalidState))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("restore", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("restore", "invalid_state")))
}

func TestObserveSweep(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSweep(time.Second, 3, 1)
	m.ObserveSweep(time.Second, 2, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sweepRuns))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.filesPurged))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purgeFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("list", nil)
	m.ObserveSweep(time.Second, 1, 1)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "not_found", Outcome(fmt.Errorf("wrap: %w", domain.ErrNotFound)))
	assert.Equal(t, "forbidden", Outcome(domain.ErrForbidden))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}
