// internal/actuator/api.go
package actuator

import (
	"context"

	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/logger"
	"github.com/tamzrod/sabwatch/internal/status"
)

// ServiceControl is the part of the service API used for recovery.
// Implemented by sabnzbd.Client.
type ServiceControl interface {
	Resume(ctx context.Context) error
	Restart(ctx context.Context) error
}

// APIActuator recovers through the service's own API.
type APIActuator struct {
	ctl          ServiceControl
	resumePaused bool
	log          *zap.SugaredLogger
}

// NewAPI creates an API actuator. With resumePaused a paused stall is
// answered with a resume instead of a restart. log may be nil.
func NewAPI(ctl ServiceControl, resumePaused bool, log *zap.SugaredLogger) *APIActuator {
	if log == nil {
		log = logger.Nop()
	}
	return &APIActuator{ctl: ctl, resumePaused: resumePaused, log: log}
}

func (a *APIActuator) Act(ctx context.Context, t Trigger) status.Outcome {
	action, call := "restart", a.ctl.Restart
	if a.resumePaused && t.Reason == status.ReasonPaused {
		action, call = "resume", a.ctl.Resume
	}

	err := call(ctx)
	out := OutcomeOf(ctx, err)
	if err != nil {
		a.log.Warnw("api action failed",
			"err", &ActuationError{Action: action, Err: err},
			"outcome", out.String(),
		)
		return out
	}

	a.log.Infow("api action sent", "action", action, "reason", t.Reason.String())
	return out
}
