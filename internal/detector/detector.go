// internal/detector/detector.go
package detector

import (
	"errors"

	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/logger"
	"github.com/tamzrod/sabwatch/internal/status"
)

// Config sizes the detection windows, in samples.
type Config struct {
	// WindowSamples is the stall window: how many consecutive samples
	// without progress make a stall. Must be >= 2.
	WindowSamples int

	// PausedSamples is how many consecutive Paused samples without
	// progress make a paused stall. 0 means WindowSamples.
	PausedSamples int
}

// Detector classifies the managed service's health from its recent history.
// It is owned by a single goroutine. Observe is the only mutator: the
// history survives recovery actions, so the last pre-action sample is the
// baseline the next poll is judged against.
type Detector struct {
	cfg     Config
	history *History
	paused  int // consecutive Paused samples
	log     *zap.SugaredLogger
}

// New creates a detector. log may be nil.
func New(cfg Config, log *zap.SugaredLogger) (*Detector, error) {
	if cfg.WindowSamples < 2 {
		return nil, errors.New("detector: window must hold at least 2 samples")
	}
	if cfg.PausedSamples <= 0 {
		cfg.PausedSamples = cfg.WindowSamples
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Detector{cfg: cfg, history: NewHistory(cfg.WindowSamples), log: log}, nil
}

// Observe folds snap into the history and classifies the current health.
//
// Explicit failure signals win over progress heuristics; an idle service
// with nothing to do is healthy; otherwise progress is judged between the
// oldest retained sample and snap, and only a full window without progress
// is a stall.
func (d *Detector) Observe(snap status.Snapshot) status.Verdict {
	d.history.Push(snap)

	if snap.State == status.ServicePaused {
		d.paused++
	} else {
		d.paused = 0
	}

	v := d.classify(snap)
	d.log.Debugw("observed",
		"state", snap.State.String(),
		"remaining", snap.RemainingBytes,
		"rate", snap.RateBytesPerSec,
		"job", snap.ActiveJobID,
		"samples", d.history.Len(),
		"health", v.Health.String(),
		"reason", v.Reason.String(),
	)
	return v
}

// ObserveHealth is Observe without the reason.
func (d *Detector) ObserveHealth(snap status.Snapshot) status.Health {
	return d.Observe(snap).Health
}

func (d *Detector) classify(snap status.Snapshot) status.Verdict {
	switch snap.State {
	case status.ServiceError:
		return status.Verdict{Health: status.HealthStalled, Reason: status.ReasonServiceError}
	case status.ServiceIdle:
		if !snap.HasActiveJob() {
			return status.Verdict{Health: status.HealthHealthy, Reason: status.ReasonIdle}
		}
	}

	oldest, _ := d.history.Oldest()
	if snap.RemainingBytes < oldest.RemainingBytes || snap.ActiveJobID != oldest.ActiveJobID {
		return status.Verdict{Health: status.HealthHealthy, Reason: status.ReasonProgress}
	}

	if snap.State == status.ServicePaused {
		if d.paused >= d.cfg.PausedSamples {
			return status.Verdict{Health: status.HealthStalled, Reason: status.ReasonPaused}
		}
		return status.Verdict{Health: status.HealthSuspect, Reason: status.ReasonPaused}
	}

	if !d.history.Full() {
		return status.Verdict{Health: status.HealthSuspect, Reason: status.ReasonInsufficientHistory}
	}
	return status.Verdict{Health: status.HealthStalled, Reason: status.ReasonNoProgress}
}

// Samples returns how many samples are currently retained.
func (d *Detector) Samples() int {
	return d.history.Len()
}
