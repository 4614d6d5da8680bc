// internal/policy/state.go
package policy

import (
	"time"

	"github.com/tamzrod/sabwatch/internal/status"
)

// State is the recovery policy's own state.
type State uint8

const (
	// StateNormal: no recovery in progress.
	StateNormal State = iota
	// StateCoolingDown: a recovery action was just taken; further actions are suppressed.
	StateCoolingDown
	// StateBackoff: recoveries failed to restore health; the wait interval grows.
	StateBackoff
)

// fsm state names
const (
	nameNormal      = "normal"
	nameCoolingDown = "cooling_down"
	nameBackoff     = "backoff"
)

// fsm event names
const (
	eventTrigger = "trigger"
	eventRetry   = "retry"
	eventFail    = "fail"
	eventRecover = "recover"
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return nameNormal
	case StateCoolingDown:
		return nameCoolingDown
	case StateBackoff:
		return nameBackoff
	default:
		return "unknown"
	}
}

// Code is the numeric form used in the status block.
func (s State) Code() uint16 {
	return uint16(s)
}

func stateFromName(name string) (State, bool) {
	switch name {
	case nameNormal:
		return StateNormal, true
	case nameCoolingDown:
		return StateCoolingDown, true
	case nameBackoff:
		return StateBackoff, true
	default:
		return StateNormal, false
	}
}

// Status is a copy of the policy's bookkeeping.
// CoolingDown and Backoff always carry ExpiresAt.
type Status struct {
	State       State
	ExpiresAt   time.Time     // zero in StateNormal
	Interval    time.Duration // current suppression interval
	Streak      int           // consecutive failed recoveries
	TriggeredAt time.Time     // time of the last recovery trigger
	Trigger     status.Health // health that caused the last trigger
}

// Decision tells the loop what to do after a tick.
type Decision struct {
	From, To State

	// Recover: run the recovery action now.
	Recover bool
	// Escalate: recoveries keep failing; a human must intervene.
	Escalate bool
	// Recovered: the service is healthy again and the policy returned to Normal.
	Recovered bool

	Status Status
}

// Changed reports whether the recovery state moved.
func (d Decision) Changed() bool {
	return d.From != d.To
}

// Attempt records one recovery action. Kept only as a short rolling log.
type Attempt struct {
	At      time.Time
	Trigger status.Health
	Outcome status.Outcome
}
