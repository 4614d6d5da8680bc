// internal/actuator/container.go
package actuator

import (
	"context"

	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/logger"
	"github.com/tamzrod/sabwatch/internal/status"
)

// ContainerControl restarts the container running the managed service.
// Implemented by docker.Restarter.
type ContainerControl interface {
	Restart(ctx context.Context) error
	Container() string
}

// ContainerActuator recovers by restarting the service's container,
// the equivalent of `docker restart <container>`.
type ContainerActuator struct {
	ctl ContainerControl
	log *zap.SugaredLogger
}

// NewContainer creates a container actuator. log may be nil.
func NewContainer(ctl ContainerControl, log *zap.SugaredLogger) *ContainerActuator {
	if log == nil {
		log = logger.Nop()
	}
	return &ContainerActuator{ctl: ctl, log: log}
}

func (a *ContainerActuator) Act(ctx context.Context, t Trigger) status.Outcome {
	err := a.ctl.Restart(ctx)
	out := OutcomeOf(ctx, err)
	if err != nil {
		a.log.Warnw("container restart failed",
			"container", a.ctl.Container(),
			"err", &ActuationError{Action: "container_restart", Err: err},
			"outcome", out.String(),
		)
		return out
	}

	a.log.Infow("container restarted",
		"container", a.ctl.Container(),
		"health", t.Health.String(),
		"reason", t.Reason.String(),
	)
	return out
}
