// internal/actuator/router.go
package actuator

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/logger"
	"github.com/tamzrod/sabwatch/internal/status"
)

// Router picks the action for a trigger and refuses overlapping calls.
//
// Paused handles ReasonPaused triggers when set; everything else goes
// to Default. While one action is in flight, further calls fail at once.
type Router struct {
	Paused  Actuator
	Default Actuator

	busy atomic.Bool
	log  *zap.SugaredLogger
}

// NewRouter creates a router. paused may be nil. log may be nil.
func NewRouter(def, paused Actuator, log *zap.SugaredLogger) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{Default: def, Paused: paused, log: log}
}

func (r *Router) Act(ctx context.Context, t Trigger) status.Outcome {
	if !r.busy.CompareAndSwap(false, true) {
		r.log.Warnw("recovery action already in flight, refusing overlap",
			"health", t.Health.String(),
			"reason", t.Reason.String(),
		)
		return status.OutcomeFailed
	}
	defer r.busy.Store(false)

	a := r.Default
	if t.Reason == status.ReasonPaused && r.Paused != nil {
		a = r.Paused
	}
	if a == nil {
		r.log.Errorw("no recovery action configured")
		return status.OutcomeFailed
	}

	if err := ctx.Err(); err != nil {
		return OutcomeOf(ctx, err)
	}
	return a.Act(ctx, t)
}
