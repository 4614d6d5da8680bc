// internal/status/outcome.go
package status

// Outcome is the result of one recovery action.
type Outcome uint8

const (
	// OutcomeNone: no action has been taken yet.
	OutcomeNone Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "None"
	case OutcomeSucceeded:
		return "Succeeded"
	case OutcomeFailed:
		return "Failed"
	case OutcomeTimedOut:
		return "TimedOut"
	default:
		return "Unknown"
	}
}

// Failed reports whether the action did not complete successfully.
func (o Outcome) Failed() bool {
	return o == OutcomeFailed || o == OutcomeTimedOut
}
