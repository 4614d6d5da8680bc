// internal/watchdog/loop.go
package watchdog

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/actuator"
	"github.com/tamzrod/sabwatch/internal/detector"
	"github.com/tamzrod/sabwatch/internal/logger"
	"github.com/tamzrod/sabwatch/internal/metrics"
	"github.com/tamzrod/sabwatch/internal/notify"
	"github.com/tamzrod/sabwatch/internal/policy"
	"github.com/tamzrod/sabwatch/internal/poller"
	"github.com/tamzrod/sabwatch/internal/status"
)

// Poller reads the managed service once per call.
type Poller interface {
	PollOnce(ctx context.Context) poller.PollResult
}

// Config is the loop's immutable timing.
type Config struct {
	Interval      time.Duration
	ActionTimeout time.Duration // < Interval
}

// Deps are the components the loop drives. Metrics, Clock and Logger
// are optional.
type Deps struct {
	Poller   Poller
	Detector *detector.Detector
	Policy   *policy.Policy
	Actuator actuator.Actuator
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Clock    clock.Clock
	Logger   *zap.SugaredLogger
}

// Loop owns the watchdog cycle: poll, classify, decide, act, notify.
//
// Detector and policy state is touched only from the goroutine running
// Run (or Tick), one tick at a time. No locks.
type Loop struct {
	cfg Config
	d   Deps

	health       status.Health // health at the previous tick
	failingSince time.Time
	lastOutcome  status.Outcome
	lastSnap     status.Snapshot
}

// New validates cfg and deps.
func New(cfg Config, deps Deps) (*Loop, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("watchdog: interval must be > 0")
	}
	if cfg.ActionTimeout <= 0 || cfg.ActionTimeout >= cfg.Interval {
		return nil, errors.New("watchdog: action timeout must be > 0 and < interval")
	}
	if deps.Poller == nil || deps.Detector == nil || deps.Policy == nil ||
		deps.Actuator == nil || deps.Notifier == nil {
		return nil, errors.New("watchdog: poller, detector, policy, actuator and notifier are required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Loop{cfg: cfg, d: deps, health: status.HealthHealthy}, nil
}

// Run ticks once immediately, then every Interval, until ctx ends.
// Ticks that come due while a tick is running are dropped, never run
// concurrently. Returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.d.Clock.Ticker(l.cfg.Interval)
	defer ticker.Stop()

	l.d.Logger.Infow("watchdog started", "interval", l.cfg.Interval.String())

	l.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			l.d.Logger.Infow("watchdog stopped", "recovery", l.d.Policy.Snapshot().State.String())
			return nil
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick runs one full cycle. A failure inside a tick is logged and
// reported, never returned.
func (l *Loop) Tick(ctx context.Context) {
	now := l.d.Clock.Now()

	// ---- poll ----
	res := l.d.Poller.PollOnce(ctx)
	l.d.Metrics.ObserveFetch(l.d.Clock.Since(now), res.Err)
	if ctx.Err() != nil {
		// shutting down; the aborted fetch says nothing about the service
		return
	}

	// ---- classify ----
	var v status.Verdict
	if res.Err != nil {
		v = poller.Classify(res.Err)
		l.logFetchError(res.Err)
	} else {
		v = l.d.Detector.Observe(res.Snapshot)
		l.lastSnap = res.Snapshot
		l.d.Metrics.ObserveProgress(res.Snapshot)
	}
	l.d.Metrics.ObserveTick(v.Health)

	l.trackHealth(now, v)

	// ---- decide ----
	dec, err := l.d.Policy.Decide(now, v.Health)
	if err != nil {
		l.d.Logger.Errorw("recovery policy rejected transition", "err", err)
		return
	}
	if dec.Changed() {
		l.d.Logger.Infow("recovery state changed",
			"from", dec.From.String(),
			"to", dec.To.String(),
			"streak", dec.Status.Streak,
			"expires", dec.Status.ExpiresAt,
		)
	}

	if dec.Recovered {
		l.notify(notify.KindRecoveredToHealthy, now, v)
	}
	if dec.Recover {
		l.recover(ctx, now, v)
	}
	if dec.Escalate {
		l.escalate(now, v)
	}

	// ---- report ----
	l.d.Metrics.SetRecovery(l.d.Policy.Snapshot())
	l.notify(notify.KindStatus, now, v)
}

// recover runs the action the policy asked for. The policy transition is
// already committed, so an abort here leaves no half-done state.
func (l *Loop) recover(ctx context.Context, now time.Time, v status.Verdict) {
	l.notify(notify.KindRecoveryTriggered, now, v)

	actx, cancel := context.WithTimeout(ctx, l.cfg.ActionTimeout)
	out := l.d.Actuator.Act(actx, actuator.Trigger{Health: v.Health, Reason: v.Reason, At: now})
	cancel()

	if ctx.Err() != nil {
		// shutting down; an interrupted action is not a failed one
		l.d.Logger.Infow("recovery interrupted by shutdown",
			"health", v.Health.String(),
			"reason", v.Reason.String(),
		)
		return
	}

	l.lastOutcome = out
	l.d.Metrics.RecoveryAttempt(out)

	dec, err := l.d.Policy.RecordOutcome(l.d.Clock.Now(), out)
	if err != nil {
		l.d.Logger.Errorw("recovery policy rejected outcome", "outcome", out.String(), "err", err)
		return
	}

	l.d.Logger.Infow("recovery attempted",
		"health", v.Health.String(),
		"reason", v.Reason.String(),
		"outcome", out.String(),
		"streak", dec.Status.Streak,
		"next_check", dec.Status.ExpiresAt,
	)

	if out.Failed() {
		l.notify(notify.KindRecoveryFailed, now, v)
	}
	if dec.Escalate {
		l.escalate(now, v)
	}
}

func (l *Loop) escalate(now time.Time, v status.Verdict) {
	l.d.Metrics.Escalated()
	l.notify(notify.KindRecoveryEscalated, now, v)
}

// trackHealth notifies health transitions and keeps the failure clock.
func (l *Loop) trackHealth(now time.Time, v status.Verdict) {
	switch {
	case v.Health.IsFailing():
		if l.failingSince.IsZero() {
			l.failingSince = now
		}
	case v.Health == status.HealthHealthy:
		l.failingSince = time.Time{}
	}

	prev := l.health
	if v.Health == prev {
		return
	}

	kind := notify.KindHealthChanged
	if severity(v.Health) > severity(prev) {
		kind = notify.KindHealthDegraded
	}

	e := l.event(kind, now, v)
	e.PreviousHealth = prev
	l.d.Notifier.Notify(e)

	l.health = v.Health
}

func (l *Loop) notify(k notify.EventKind, now time.Time, v status.Verdict) {
	l.d.Notifier.Notify(l.event(k, now, v))
}

func (l *Loop) event(k notify.EventKind, now time.Time, v status.Verdict) notify.Event {
	st := l.d.Policy.Snapshot()

	e := notify.NewEvent(k, now)
	e.Health = v.Health
	e.PreviousHealth = l.health
	e.Reason = v.Reason
	e.Recovery = st.State
	e.Streak = st.Streak
	e.Outcome = l.lastOutcome
	e.FailingSince = l.failingSince
	e.RemainingBytes = l.lastSnap.RemainingBytes
	e.RateBytesPerSec = l.lastSnap.RateBytesPerSec
	return e
}

func (l *Loop) logFetchError(err error) {
	var pe *poller.ProtocolError
	if errors.As(err, &pe) {
		l.d.Logger.Warnw("status fetch returned unexpected payload", "err", err, "payload", pe.Payload)
		return
	}
	l.d.Logger.Warnw("status fetch failed", "err", err)
}

// severity orders health for degraded-vs-improved transitions.
func severity(h status.Health) int {
	switch h {
	case status.HealthHealthy:
		return 0
	case status.HealthSuspect:
		return 1
	default:
		return 2
	}
}
