package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type LendingMetrics struct {
	operations *prometheus.CounterVec
	supplied   *prometheus.CounterVec
}

var (
	lendingOnce     sync.Once
	lendingRegistry *LendingMetrics
)

func Lending() *LendingMetrics {
	lendingOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_operations_total",
				Help: "Count of completed lending operations by event type.",
			}, []string{"type"}),
			supplied: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "lending_amount_total",
				Help: "Cumulative amounts moved by lending operations, by event type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(
			lendingRegistry.operations,
			lendingRegistry.supplied,
		)
	})
	return lendingRegistry
}

func (m *LendingMetrics) ObserveOperation(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.operations.WithLabelValues(eventType).Inc()
}

func (m *LendingMetrics) ObserveAmount(eventType string, amount uint64) {
	if m == nil || eventType == "" {
		return
	}
	m.supplied.WithLabelValues(eventType).Add(float64(amount))
}

func (m *LendingMetrics) InitEventType(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.operations.WithLabelValues(eventType).Add(0)
	m.supplied.WithLabelValues(eventType).Add(0)
}
