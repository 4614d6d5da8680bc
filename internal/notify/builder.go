// internal/notify/builder.go
package notify

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tamzrod/sabwatch/internal/config"
	nmodbus "github.com/tamzrod/sabwatch/internal/notify/modbus"
)

// BuildSinks creates the enabled sinks for cfg, log sink first.
// The returned close function releases sink resources.
func BuildSinks(cfg config.NotifyConfig, log *zap.SugaredLogger) ([]Sink, func(ctx context.Context) error, error) {
	sinks := []Sink{NewLogSink(log)}
	var closers []func(ctx context.Context) error

	closeAll := func(ctx context.Context) error {
		var last error
		for _, fn := range closers {
			if err := fn(ctx); err != nil {
				last = err
			}
		}
		return last
	}

	client := &http.Client{Timeout: cfg.SendTimeout}

	if cfg.Webhook.URL != "" {
		sinks = append(sinks, NewWebhookSink(cfg.Webhook.URL, client))
	}

	if cfg.Slack.WebhookURL != "" {
		sinks = append(sinks, NewSlackSink(cfg.Slack.WebhookURL, cfg.Slack.Channel, client))
	}

	if cfg.Sentry.DSN != "" {
		s, err := NewSentrySink(cfg.Sentry.DSN, cfg.Sentry.Environment, nil)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
		closers = append(closers, func(ctx context.Context) error {
			s.Flush(ctx)
			return nil
		})
	}

	if m := cfg.Modbus; m != nil {
		cli, err := nmodbus.NewBlockClient(nmodbus.Config{
			Endpoint: m.Endpoint,
			Timeout:  m.Timeout,
		})
		if err != nil {
			_ = closeAll(context.Background())
			return nil, nil, err
		}
		s, err := NewStatusBlockSink(StatusBlockConfig{
			UnitID:       m.UnitID,
			BaseSlot:     m.BaseSlot,
			InstanceName: m.InstanceName,
		}, cli)
		if err != nil {
			_ = cli.Close()
			_ = closeAll(context.Background())
			return nil, nil, err
		}
		sinks = append(sinks, s)
		closers = append(closers, func(context.Context) error { return cli.Close() })
	}

	return sinks, closeAll, nil
}

// Build creates a running dispatcher for cfg. rec may be nil.
// close drains the queue, then releases sink resources.
func Build(cfg config.NotifyConfig, rec Recorder, log *zap.SugaredLogger) (*Dispatcher, func(ctx context.Context) error, error) {
	sinks, closeSinks, err := BuildSinks(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	d := NewDispatcher(Config{QueueSize: cfg.QueueSize, SendTimeout: cfg.SendTimeout}, sinks, rec, log)

	closeFn := func(ctx context.Context) error {
		derr := d.Close(ctx)
		if err := closeSinks(ctx); err != nil {
			return err
		}
		return derr
	}
	return d, closeFn, nil
}
