// internal/status/health.go
package status

// Health is the detector's classification of the managed service.
type Health uint8

const (
	HealthHealthy Health = iota
	// HealthSuspect: no progress yet, but not enough evidence to call it a stall.
	HealthSuspect
	// HealthStalled: no progress across the full window, or an explicit failure signal.
	HealthStalled
	// HealthUnreachable: the status fetch failed.
	HealthUnreachable
)

func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "Healthy"
	case HealthSuspect:
		return "Suspect"
	case HealthStalled:
		return "Stalled"
	case HealthUnreachable:
		return "Unreachable"
	default:
		return "Unknown"
	}
}

// IsFailing reports whether h warrants a recovery action.
func (h Health) IsFailing() bool {
	return h == HealthStalled || h == HealthUnreachable
}

// Reason explains how a verdict was reached.
type Reason uint8

const (
	ReasonProgress Reason = iota
	ReasonIdle
	ReasonInsufficientHistory
	ReasonNoProgress
	ReasonServiceError
	ReasonPaused
	ReasonUnreachable
)

func (r Reason) String() string {
	switch r {
	case ReasonProgress:
		return "progress"
	case ReasonIdle:
		return "idle"
	case ReasonInsufficientHistory:
		return "insufficient_history"
	case ReasonNoProgress:
		return "no_progress"
	case ReasonServiceError:
		return "service_error"
	case ReasonPaused:
		return "paused"
	case ReasonUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Verdict pairs a health classification with its reason.
type Verdict struct {
	Health Health
	Reason Reason
}
