package chain

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/DeBrosOfficial/noforma/pkg/errors"
)

// Metrics collects chain client metrics. A nil *Metrics records nothing.
type Metrics struct {
	submissions    *prometheus.CounterVec
	submitDuration *prometheus.HistogramVec
	calls          *prometheus.CounterVec
	probes         *prometheus.CounterVec
	providerLive   prometheus.Gauge
}

// NewMetrics registers the chain metrics with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "noforma",
				Subsystem: "chain",
				Name:      "submissions_total",
				Help:      "Total number of transaction submissions by function and outcome",
			},
			[]string{"function", "outcome"},
		),
		submitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "noforma",
				Subsystem: "chain",
				Name:      "submission_duration_seconds",
				Help:      "Time from intent to confirmed receipt",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30, 60, 120},
			},
			[]string{"function"},
		),
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "noforma",
				Subsystem: "chain",
				Name:      "calls_total",
				Help:      "Total number of read-only contract calls by function and outcome",
			},
			[]string{"function", "outcome"},
		),
		probes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "noforma",
				Subsystem: "chain",
				Name:      "endpoint_probes_total",
				Help:      "Endpoint liveness probes by result",
			},
			[]string{"result"},
		),
		providerLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "noforma",
				Subsystem: "chain",
				Name:      "provider_live",
				Help:      "1 when the active endpoint answered its last probe",
			},
		),
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(apperrors.GetErrorCode(err))
}

func (m *Metrics) observeSubmit(function string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(function, outcome(err)).Inc()
	if err == nil {
		m.submitDuration.WithLabelValues(function).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) observeCall(function string, err error) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(function, outcome(err)).Inc()
}

func (m *Metrics) observeProbe(live bool) {
	if m == nil {
		return
	}
	if live {
		m.probes.WithLabelValues("live").Inc()
	} else {
		m.probes.WithLabelValues("down").Inc()
	}
}

func (m *Metrics) setLive(live bool) {
	if m == nil {
		return
	}
	if live {
		m.providerLive.Set(1)
	} else {
		m.providerLive.Set(0)
	}
}
