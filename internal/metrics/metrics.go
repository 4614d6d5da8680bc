// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/logger"
	"github.com/tamzrod/sabwatch/internal/policy"
	"github.com/tamzrod/sabwatch/internal/status"
)

const (
	namespace = "sabwatch"

	// shutdownGrace bounds how long the listener waits for in-flight scrapes.
	shutdownGrace = 5 * time.Second
)

// Metrics holds the watchdog collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	ticks          *prometheus.CounterVec
	health         prometheus.Gauge
	recoveryState  prometheus.Gauge
	failureStreak  prometheus.Gauge
	remaining      prometheus.Gauge
	rate           prometheus.Gauge
	attempts       *prometheus.CounterVec
	escalations    prometheus.Counter
	notifyFailures *prometheus.CounterVec
	notifyDropped  prometheus.Counter
	fetchDuration  *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,

		ticks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Watchdog ticks by observed health.",
		}, []string{"health"}),

		health: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health",
			Help:      "Current health (1=Healthy, 2=Suspect, 3=Stalled, 4=Unreachable, 0=Unknown).",
		}),

		recoveryState: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recovery_state",
			Help:      "Current recovery state (0=Normal, 1=CoolingDown, 2=Backoff).",
		}),

		failureStreak: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failure_streak",
			Help:      "Consecutive failed recovery attempts.",
		}),

		remaining: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_remaining_bytes",
			Help:      "Bytes left in the download queue at the last successful poll.",
		}),

		rate: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "download_rate_bytes_per_second",
			Help:      "Download rate at the last successful poll.",
		}),

		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_attempts_total",
			Help:      "Recovery actions by outcome.",
		}, []string{"outcome"}),

		escalations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_escalations_total",
			Help:      "Escalations after persistent recovery failure.",
		}),

		notifyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Failed notification deliveries by sink.",
		}, []string{"sink"}),

		notifyDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Notifications dropped because the queue was full.",
		}),

		fetchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "status_fetch_duration_seconds",
			Help:      "Duration of status fetches.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"result"}),
	}
}

// ObserveTick records the health seen by one tick.
func (m *Metrics) ObserveTick(h status.Health) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(h.String()).Inc()
	m.health.Set(float64(status.HealthCode(h)))
}

// ObserveProgress records queue progress from a successful poll.
func (m *Metrics) ObserveProgress(s status.Snapshot) {
	if m == nil {
		return
	}
	m.remaining.Set(float64(s.RemainingBytes))
	m.rate.Set(s.RateBytesPerSec)
}

// ObserveFetch records a status fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetchDuration.WithLabelValues(result).Observe(d.Seconds())
}

// SetRecovery records the policy's state.
func (m *Metrics) SetRecovery(st policy.Status) {
	if m == nil {
		return
	}
	m.recoveryState.Set(float64(st.State.Code()))
	m.failureStreak.Set(float64(st.Streak))
}

// RecoveryAttempt counts one recovery action.
func (m *Metrics) RecoveryAttempt(o status.Outcome) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(o.String()).Inc()
}

// Escalated counts one escalation.
func (m *Metrics) Escalated() {
	if m == nil {
		return
	}
	m.escalations.Inc()
}

// NotifyFailed counts a failed delivery to sink.
func (m *Metrics) NotifyFailed(sink string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(sink).Inc()
}

// NotifyDropped counts a dropped notification.
func (m *Metrics) NotifyDropped() {
	if m == nil {
		return
	}
	m.notifyDropped.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Serve exposes /metrics on addr until ctx ends.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.SugaredLogger) error {
	if log == nil {
		log = logger.Nop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("metrics listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
