package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"

	"oracleAMM/internal/amm"
	"oracleAMM/internal/model"
)

// EngineMetrics implements amm.Observer on top of Prometheus collectors.
type EngineMetrics struct {
	operations   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	events       *prometheus.CounterVec
	swapVolume   *prometheus.CounterVec
	protocolFees *prometheus.CounterVec
	lastSequence prometheus.Gauge
}

var (
	engineOnce     sync.Once
	engineRegistry *EngineMetrics
)

func Engine() *EngineMetrics {
	engineOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "amm_operations_total",
				Help: "Engine operations by name and outcome.",
			}, []string{"op", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "amm_operation_duration_seconds",
				Help:    "Engine operation latency including oracle and ledger calls.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			}, []string{"op"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "amm_events_total",
				Help: "Committed engine events by kind.",
			}, []string{"kind"}),
			swapVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "amm_swap_volume",
				Help: "Swap input volume in base units by input token.",
			}, []string{"token"}),
			protocolFees: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "amm_protocol_fees_accrued",
				Help: "Protocol fees accrued in base units by token.",
			}, []string{"token"}),
			lastSequence: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "amm_last_event_sequence",
				Help: "Sequence number of the last committed event.",
			}),
		}
		prometheus.MustRegister(
			engineRegistry.operations,
			engineRegistry.latency,
			engineRegistry.events,
			engineRegistry.swapVolume,
			engineRegistry.protocolFees,
			engineRegistry.lastSequence,
		)
	})
	return engineRegistry
}

func (m *EngineMetrics) ObserveOperation(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *EngineMetrics) ObserveEvent(ev model.Event) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(ev.Kind)).Inc()
	m.lastSequence.Set(float64(ev.Sequence))
	if ev.Kind != model.EventSwap {
		return
	}
	m.swapVolume.WithLabelValues(string(ev.Token)).Add(toFloat(ev.Amount))
	m.protocolFees.WithLabelValues(string(ev.CounterToken)).Add(toFloat(ev.ProtocolFee))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var engineErr *amm.Error
	if errors.As(err, &engineErr) {
		return engineErr.Name
	}
	return "error"
}

func toFloat(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	return v.Float64()
}
