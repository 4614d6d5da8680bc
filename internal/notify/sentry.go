// internal/notify/sentry.go
package notify

import (
	"context"
	"errors"
	"strconv"

	"github.com/getsentry/sentry-go"
)

// SentrySink reports failed and escalated recoveries to Sentry.
// It owns its hub; the global Sentry client is left alone.
type SentrySink struct {
	hub *sentry.Hub
}

// NewSentrySink creates a sink. transport may be nil for the default HTTP transport.
func NewSentrySink(dsn, environment string, transport sentry.Transport) (*SentrySink, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Transport:   transport,
	})
	if err != nil {
		return nil, err
	}
	return &SentrySink{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (s *SentrySink) Name() string { return "sentry" }

func (s *SentrySink) Send(_ context.Context, e Event) error {
	var level sentry.Level
	switch e.Kind {
	case KindRecoveryEscalated:
		level = sentry.LevelError
	case KindRecoveryFailed:
		level = sentry.LevelWarning
	default:
		return nil
	}

	ev := sentry.NewEvent()
	ev.Level = level
	ev.Message = e.Summary()
	ev.Timestamp = e.At
	ev.Tags = map[string]string{
		"event":    e.Kind.String(),
		"health":   e.Health.String(),
		"reason":   e.Reason.String(),
		"recovery": e.Recovery.String(),
		"outcome":  e.Outcome.String(),
	}
	ev.Extra = map[string]interface{}{
		"event_id":       e.ID.String(),
		"failure_streak": strconv.Itoa(e.Streak),
	}
	ev.Fingerprint = []string{"sabwatch", e.Kind.String()}

	if id := s.hub.CaptureEvent(ev); id == nil {
		return errors.New("sentry: event dropped")
	}
	return nil
}

// Flush waits for buffered events, up to ctx's deadline.
func (s *SentrySink) Flush(ctx context.Context) bool {
	return s.hub.Client().FlushWithContext(ctx)
}
