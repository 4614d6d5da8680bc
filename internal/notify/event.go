// internal/notify/event.go
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/sabwatch/internal/policy"
	"github.com/tamzrod/sabwatch/internal/status"
)

// EventKind classifies a watchdog event.
type EventKind uint8

const (
	// KindStatus is the per-tick state report. Only state mirrors consume it.
	KindStatus EventKind = iota
	KindHealthDegraded
	KindHealthChanged
	KindRecoveryTriggered
	KindRecoveryFailed
	KindRecoveryEscalated
	KindRecoveredToHealthy
)

func (k EventKind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindHealthDegraded:
		return "health_degraded"
	case KindHealthChanged:
		return "health_changed"
	case KindRecoveryTriggered:
		return "recovery_triggered"
	case KindRecoveryFailed:
		return "recovery_failed"
	case KindRecoveryEscalated:
		return "recovery_escalated"
	case KindRecoveredToHealthy:
		return "recovered_to_healthy"
	default:
		return "unknown"
	}
}

// Alert reports whether k is meant for humans (chat, webhook, error tracker).
func (k EventKind) Alert() bool {
	return k != KindStatus
}

// Event is one watchdog event. Value type; sinks must not modify it.
type Event struct {
	ID   uuid.UUID
	Kind EventKind
	At   time.Time

	Health         status.Health
	PreviousHealth status.Health
	Reason         status.Reason

	Recovery policy.State
	Streak   int
	Outcome  status.Outcome

	// FailingSince is when the current failure began; zero while healthy.
	FailingSince time.Time

	RemainingBytes  int64
	RateBytesPerSec float64

	Message string
}

// NewEvent returns an event of kind k at time at with a fresh ID.
func NewEvent(k EventKind, at time.Time) Event {
	return Event{ID: uuid.New(), Kind: k, At: at}
}

// Summary is a one-line human description of e.
func (e Event) Summary() string {
	var s string
	switch e.Kind {
	case KindHealthDegraded:
		s = fmt.Sprintf("SABnzbd health degraded: %s -> %s (%s)", e.PreviousHealth, e.Health, e.Reason)
	case KindHealthChanged:
		s = fmt.Sprintf("SABnzbd health changed: %s -> %s (%s)", e.PreviousHealth, e.Health, e.Reason)
	case KindRecoveryTriggered:
		s = fmt.Sprintf("SABnzbd %s (%s): recovery triggered, streak %d", e.Health, e.Reason, e.Streak)
	case KindRecoveryFailed:
		s = fmt.Sprintf("SABnzbd recovery %s, streak %d", e.Outcome, e.Streak)
	case KindRecoveryEscalated:
		s = fmt.Sprintf("SABnzbd still %s after %d recoveries, manual intervention needed", e.Health, e.Streak)
	case KindRecoveredToHealthy:
		s = "SABnzbd recovered, downloads progressing"
	default:
		s = fmt.Sprintf("SABnzbd %s, recovery %s", e.Health, e.Recovery)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}
