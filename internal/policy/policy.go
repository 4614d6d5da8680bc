// internal/policy/policy.go
package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/logger"
	"github.com/tamzrod/sabwatch/internal/status"
)

// maxAttempts bounds the rolling attempt log.
const maxAttempts = 16

// Config is the immutable policy configuration.
type Config struct {
	Cooldown   time.Duration // base suppression interval after a trigger
	MaxBackoff time.Duration // ceiling for the grown interval
	Jitter     float64       // randomization factor in [0,1); 0 disables

	// EscalateAfter: failure streak at which an escalation is emitted.
	EscalateAfter int

	// UnreachableTolerance: consecutive Unreachable ticks needed to count as failing.
	UnreachableTolerance int
}

// Policy decides whether to act on a health classification.
//
// It separates "is it unhealthy" (the detector) from "should we act now",
// holding all hysteresis in one place. Owned by the loop goroutine; not
// safe for concurrent use.
type Policy struct {
	cfg     Config
	machine *fsm.FSM
	bo      *backoff.ExponentialBackOff
	st      Status

	unreachable int  // consecutive Unreachable ticks
	escalated   bool // escalation already emitted in this episode
	charged     bool // the current attempt's failure already advanced the streak
	attempts    []Attempt

	log *zap.SugaredLogger
}

// New creates a policy in StateNormal. log may be nil.
func New(cfg Config, log *zap.SugaredLogger) (*Policy, error) {
	if cfg.Cooldown <= 0 {
		return nil, errors.New("policy: cooldown must be > 0")
	}
	if cfg.MaxBackoff < cfg.Cooldown {
		return nil, errors.New("policy: max backoff must be >= cooldown")
	}
	if cfg.Jitter < 0 || cfg.Jitter >= 1 {
		return nil, errors.New("policy: jitter must be in [0,1)")
	}
	if cfg.EscalateAfter < 1 {
		cfg.EscalateAfter = 1
	}
	if cfg.UnreachableTolerance < 1 {
		cfg.UnreachableTolerance = 1
	}
	if log == nil {
		log = logger.Nop()
	}

	p := &Policy{
		cfg: cfg,
		bo: &backoff.ExponentialBackOff{
			InitialInterval:     cfg.Cooldown,
			RandomizationFactor: cfg.Jitter,
			Multiplier:          2,
			MaxInterval:         cfg.MaxBackoff,
			MaxElapsedTime:      0, // retry forever; escalation is separate
			Stop:                backoff.Stop,
			Clock:               backoff.SystemClock,
		},
		log: log,
	}
	p.bo.Reset()

	p.machine = fsm.NewFSM(
		nameNormal,
		fsm.Events{
			{Name: eventTrigger, Src: []string{nameNormal}, Dst: nameCoolingDown},
			{Name: eventRetry, Src: []string{nameCoolingDown, nameBackoff}, Dst: nameBackoff},
			{Name: eventFail, Src: []string{nameCoolingDown, nameBackoff}, Dst: nameBackoff},
			{Name: eventRecover, Src: []string{nameCoolingDown, nameBackoff}, Dst: nameNormal},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				p.log.Debugw("recovery state", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)

	return p, nil
}

// Decide consumes the health of one tick and returns what to do.
//
//	Normal      + Healthy/Suspect      -> stay, no action
//	Normal      + Stalled/Unreachable  -> CoolingDown, recover
//	CoolingDown/Backoff before expiry  -> stay, no action
//	CoolingDown/Backoff at expiry:
//	  Healthy                          -> Normal, streak reset
//	  Stalled/Unreachable              -> Backoff with grown interval, recover
//	  Suspect                          -> keep waiting for a verdict
func (p *Policy) Decide(now time.Time, h status.Health) (Decision, error) {
	d := Decision{From: p.st.State}

	if h == status.HealthUnreachable {
		p.unreachable++
	} else {
		p.unreachable = 0
	}
	failing := h == status.HealthStalled ||
		(h == status.HealthUnreachable && p.unreachable >= p.cfg.UnreachableTolerance)

	switch p.st.State {
	case StateNormal:
		if failing {
			if err := p.fire(eventTrigger); err != nil {
				return d, err
			}
			p.trigger(now, h)
			d.Recover = true
		}

	case StateCoolingDown, StateBackoff:
		if now.Before(p.st.ExpiresAt) {
			break
		}
		switch {
		case h == status.HealthHealthy:
			if err := p.fire(eventRecover); err != nil {
				return d, err
			}
			p.st = Status{State: StateNormal}
			p.escalated = false
			p.charged = false
			p.bo.Reset()
			d.Recovered = true

		case failing:
			if err := p.fire(eventRetry); err != nil {
				return d, err
			}
			if p.charged {
				p.st.ExpiresAt = now.Add(p.st.Interval)
			} else {
				p.grow(now)
			}
			p.charged = false
			p.st.TriggeredAt = now
			p.st.Trigger = h
			d.Recover = true
			d.Escalate = p.checkEscalate()
		}

	default:
		return d, fmt.Errorf("policy: unknown state %d", p.st.State)
	}

	d.To = p.st.State
	d.Status = p.st
	return d, nil
}

// RecordOutcome feeds the result of a recovery action back into the policy.
// A failed or timed-out action advances the failure streak immediately;
// the retry at expiry then does not count the same attempt twice.
func (p *Policy) RecordOutcome(now time.Time, o status.Outcome) (Decision, error) {
	d := Decision{From: p.st.State}

	p.attempts = append(p.attempts, Attempt{At: now, Trigger: p.st.Trigger, Outcome: o})
	if len(p.attempts) > maxAttempts {
		p.attempts = p.attempts[len(p.attempts)-maxAttempts:]
	}

	if o.Failed() && p.st.State != StateNormal && !p.charged {
		if err := p.fire(eventFail); err != nil {
			return d, err
		}
		p.grow(p.st.TriggeredAt)
		p.charged = true
		d.Escalate = p.checkEscalate()
	}

	d.To = p.st.State
	d.Status = p.st
	return d, nil
}

// Snapshot returns a copy of the current bookkeeping.
func (p *Policy) Snapshot() Status {
	return p.st
}

// Attempts returns the rolling attempt log, oldest first.
func (p *Policy) Attempts() []Attempt {
	out := make([]Attempt, len(p.attempts))
	copy(out, p.attempts)
	return out
}

// ---- internals ----

func (p *Policy) trigger(now time.Time, h status.Health) {
	p.bo.Reset()
	p.bo.NextBackOff() // consume the base interval; the next call yields cooldown*2
	p.charged = false

	p.st = Status{
		State:       StateCoolingDown,
		ExpiresAt:   now.Add(p.cfg.Cooldown),
		Interval:    p.cfg.Cooldown,
		Streak:      0,
		TriggeredAt: now,
		Trigger:     h,
	}
}

// grow advances the streak and sets the next expiry from base.
// interval = min(maxBackoff, cooldown * 2^streak), kept >= cooldown under jitter.
func (p *Policy) grow(base time.Time) {
	p.st.Streak++

	interval := p.bo.NextBackOff()
	if interval == backoff.Stop || interval > p.cfg.MaxBackoff {
		interval = p.cfg.MaxBackoff
	}
	if interval < p.cfg.Cooldown {
		interval = p.cfg.Cooldown
	}

	p.st.State = StateBackoff
	p.st.Interval = interval
	p.st.ExpiresAt = base.Add(interval)
}

func (p *Policy) checkEscalate() bool {
	if p.escalated || p.st.Streak < p.cfg.EscalateAfter {
		return false
	}
	p.escalated = true
	return true
}

// fire runs an fsm event and syncs the typed state.
// Self-transitions (backoff -> backoff) are not errors.
func (p *Policy) fire(event string) error {
	err := p.machine.Event(context.Background(), event)
	if err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return fmt.Errorf("policy: %s from %s: %w", event, p.machine.Current(), err)
		}
	}

	s, ok := stateFromName(p.machine.Current())
	if !ok {
		return fmt.Errorf("policy: unknown fsm state %q", p.machine.Current())
	}
	p.st.State = s
	return nil
}
