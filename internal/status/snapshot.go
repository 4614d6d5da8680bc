// internal/status/snapshot.go
package status

import (
	"strings"
	"time"
)

// ServiceState is the queue state reported by the managed service.
type ServiceState uint8

const (
	ServiceIdle ServiceState = iota
	ServiceDownloading
	ServicePaused
	ServiceError
)

func (s ServiceState) String() string {
	switch s {
	case ServiceIdle:
		return "Idle"
	case ServiceDownloading:
		return "Downloading"
	case ServicePaused:
		return "Paused"
	case ServiceError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ParseServiceState maps the service's own state label.
// Matching is case-insensitive. ok=false for anything unrecognized.
func ParseServiceState(s string) (ServiceState, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "idle":
		return ServiceIdle, true
	case "downloading":
		return ServiceDownloading, true
	case "paused":
		return ServicePaused, true
	case "error", "failed":
		return ServiceError, true
	default:
		return ServiceIdle, false
	}
}

// Snapshot is one point-in-time read of the managed service.
// Produced only by the poller. Treat as immutable.
type Snapshot struct {
	At time.Time

	QueueSizeBytes  int64
	RemainingBytes  int64
	RateBytesPerSec float64

	// ActiveJobID is empty when no job is active.
	ActiveJobID string

	State ServiceState

	// Slots is the number of jobs in the queue.
	Slots int
}

// HasActiveJob reports whether the service is working on a job.
func (s Snapshot) HasActiveJob() bool {
	return s.ActiveJobID != ""
}
