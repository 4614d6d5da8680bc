// internal/actuator/actuator.go
package actuator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/sabwatch/internal/status"
)

// Trigger describes why a recovery action is requested.
type Trigger struct {
	Health status.Health
	Reason status.Reason
	At     time.Time
}

// Actuator performs one corrective action against the managed service.
//
// Act must be safe to call repeatedly, including while the effects of a
// previous action are still propagating. It never returns OutcomeNone and
// never panics past the caller. The deadline is carried by ctx.
type Actuator interface {
	Act(ctx context.Context, t Trigger) status.Outcome
}

// Func adapts a plain function to Actuator.
type Func func(ctx context.Context, t Trigger) status.Outcome

func (f Func) Act(ctx context.Context, t Trigger) status.Outcome { return f(ctx, t) }

// ActuationError: the recovery action itself failed.
type ActuationError struct {
	Action string // "resume", "restart", "container_restart"
	Err    error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("actuator: %s: %v", e.Action, e.Err)
}
func (e *ActuationError) Unwrap() error { return e.Err }

// OutcomeOf maps the error of an action run under ctx.
// A passed deadline is a timeout; everything else is a failure.
func OutcomeOf(ctx context.Context, err error) status.Outcome {
	switch {
	case err == nil:
		return status.OutcomeSucceeded
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return status.OutcomeTimedOut
	default:
		return status.OutcomeFailed
	}
}
