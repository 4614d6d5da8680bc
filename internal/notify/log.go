// internal/notify/log.go
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/logger"
)

// LogSink writes every event to the log. Always enabled.
type LogSink struct {
	log *zap.SugaredLogger
}

// NewLogSink creates a log sink. log may be nil.
func NewLogSink(log *zap.SugaredLogger) *LogSink {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, e Event) error {
	kv := []interface{}{
		"kind", e.Kind.String(),
		"id", e.ID.String(),
		"health", e.Health.String(),
		"reason", e.Reason.String(),
		"recovery", e.Recovery.String(),
		"streak", e.Streak,
	}

	switch e.Kind {
	case KindStatus:
		s.log.Debugw(e.Summary(), kv...)
	case KindRecoveryFailed, KindRecoveryEscalated:
		s.log.Errorw(e.Summary(), append(kv, "outcome", e.Outcome.String())...)
	case KindHealthDegraded, KindRecoveryTriggered:
		s.log.Warnw(e.Summary(), kv...)
	default:
		s.log.Infow(e.Summary(), kv...)
	}
	return nil
}
