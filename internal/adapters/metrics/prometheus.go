package metrics

import (
	"math/big"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trebuchet-org/pledge/internal/domain"
	"github.com/trebuchet-org/pledge/internal/domain/models"
	"github.com/trebuchet-org/pledge/internal/usecase"
)

const namespace = "pledge"

// Recorder exports ledger activity as prometheus metrics on its own registry
type Recorder struct {
	registry *prometheus.Registry

	transitions  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	disbursed    *prometheus.CounterVec
	mirrorFailed prometheus.Counter

	sweepRuns      prometheus.Counter
	sweepFinalized prometheus.Counter
	sweepFailures  prometheus.Counter
	sweepDuration  prometheus.Histogram
}

// NewRecorder registers every collector on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed challenge state transitions",
		}, []string{"from", "to"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Rejected or failed ledger operations by error class",
		}, []string{"operation", "class"}),
		disbursed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disbursed_units_total",
			Help:      "Amount disbursed from custody in the smallest asset unit",
		}, []string{"kind"}),
		mirrorFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_failures_total",
			Help:      "Events that could not be mirrored",
		}),
		sweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Deadline sweeps executed",
		}),
		sweepFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "finalized_total",
			Help:      "Challenges finalized by the sweep",
		}),
		sweepFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "failures_total",
			Help:      "Challenges the sweep could not finalize",
		}),
		sweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Wall time of one sweep",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (r *Recorder) Transition(from, to models.State) {
	r.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (r *Recorder) OperationFailed(operation string, class domain.ErrorClass) {
	r.failures.WithLabelValues(operation, string(class)).Inc()
}

func (r *Recorder) Disbursed(kind models.EntryKind, amount *big.Int) {
	f, _ := new(big.Float).SetInt(amount).Float64()
	r.disbursed.WithLabelValues(string(kind)).Add(f)
}

func (r *Recorder) MirrorFailed() {
	r.mirrorFailed.Inc()
}

// ObserveSweep records one completed sweep
func (r *Recorder) ObserveSweep(result *usecase.SweepResult, took time.Duration) {
	r.sweepRuns.Inc()
	r.sweepFinalized.Add(float64(len(result.Finalized)))
	r.sweepFailures.Add(float64(len(result.Failures)))
	r.sweepDuration.Observe(took.Seconds())
}

// Registry exposes the recorder's registry for gathering
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

var _ usecase.MetricsRecorder = (*Recorder)(nil)
