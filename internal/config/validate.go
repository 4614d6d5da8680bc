// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ConfigurationError{Field: "config", Msg: "missing"}
	}

	// ------------------------------------------------------------
	// MANAGED SERVICE
	// ------------------------------------------------------------

	if err := validateURL("service.url", cfg.Service.URL); err != nil {
		return err
	}
	if cfg.Service.APIKey == "" {
		return &ConfigurationError{
			Field: "service.api_key",
			Msg:   fmt.Sprintf("required (set it in the file or via %s)", EnvAPIKey),
		}
	}

	// ------------------------------------------------------------
	// POLL CADENCE
	// ------------------------------------------------------------

	interval := cfg.Poll.Interval
	if interval <= 0 {
		return &ConfigurationError{Field: "poll.interval", Msg: "must be > 0"}
	}

	// Every blocking call must finish before the next tick is due.
	if cfg.Service.Timeout <= 0 || cfg.Service.Timeout >= interval {
		return &ConfigurationError{
			Field: "service.timeout",
			Msg:   fmt.Sprintf("must be > 0 and < poll.interval (%s), got %s", interval, cfg.Service.Timeout),
		}
	}
	if cfg.Recovery.ActionTimeout <= 0 || cfg.Recovery.ActionTimeout >= interval {
		return &ConfigurationError{
			Field: "recovery.action_timeout",
			Msg:   fmt.Sprintf("must be > 0 and < poll.interval (%s), got %s", interval, cfg.Recovery.ActionTimeout),
		}
	}
	if cfg.Poll.StallWindow < interval {
		return &ConfigurationError{
			Field: "poll.stall_window",
			Msg:   fmt.Sprintf("must be >= poll.interval (%s), got %s", interval, cfg.Poll.StallWindow),
		}
	}
	if cfg.Poll.PausedWindow < interval {
		return &ConfigurationError{
			Field: "poll.paused_window",
			Msg:   fmt.Sprintf("must be >= poll.interval (%s), got %s", interval, cfg.Poll.PausedWindow),
		}
	}

	// ------------------------------------------------------------
	// RECOVERY POLICY
	// ------------------------------------------------------------

	r := cfg.Recovery
	if r.Cooldown <= 0 {
		return &ConfigurationError{Field: "recovery.cooldown", Msg: "must be > 0"}
	}
	if r.MaxBackoff < r.Cooldown {
		return &ConfigurationError{
			Field: "recovery.max_backoff",
			Msg:   fmt.Sprintf("must be >= recovery.cooldown (%s), got %s", r.Cooldown, r.MaxBackoff),
		}
	}
	if r.Jitter < 0 || r.Jitter >= 1 {
		return &ConfigurationError{Field: "recovery.jitter", Msg: fmt.Sprintf("must be in [0,1), got %v", r.Jitter)}
	}
	if r.EscalateAfter < 1 {
		return &ConfigurationError{Field: "recovery.escalate_after", Msg: "must be >= 1"}
	}
	if r.UnreachableTolerance < 1 {
		return &ConfigurationError{Field: "recovery.unreachable_tolerance", Msg: "must be >= 1"}
	}

	switch r.Method {
	case MethodAPI:
	case MethodDocker:
		if r.Docker.Container == "" {
			return &ConfigurationError{Field: "recovery.docker.container", Msg: "required for method docker"}
		}
	default:
		return &ConfigurationError{
			Field: "recovery.method",
			Msg:   fmt.Sprintf("must be %q or %q, got %q", MethodDocker, MethodAPI, r.Method),
		}
	}

	// ------------------------------------------------------------
	// NOTIFICATION SINKS
	// ------------------------------------------------------------

	n := cfg.Notify
	if n.QueueSize < 1 {
		return &ConfigurationError{Field: "notify.queue_size", Msg: "must be >= 1"}
	}
	if n.SendTimeout <= 0 {
		return &ConfigurationError{Field: "notify.send_timeout", Msg: "must be > 0"}
	}
	if n.Webhook.URL != "" {
		if err := validateURL("notify.webhook.url", n.Webhook.URL); err != nil {
			return err
		}
	}
	if n.Slack.WebhookURL != "" {
		if err := validateURL("notify.slack.webhook_url", n.Slack.WebhookURL); err != nil {
			return err
		}
	}

	// status block is opt-in
	if m := n.Modbus; m != nil {
		if m.Endpoint == "" {
			return &ConfigurationError{Field: "notify.modbus.endpoint", Msg: "required when notify.modbus is set"}
		}
		for i := 0; i < len(m.InstanceName); i++ {
			if m.InstanceName[i] > 0x7F {
				return &ConfigurationError{
					Field: "notify.modbus.instance_name",
					Msg:   "must contain ASCII characters only",
				}
			}
		}
		if m.Timeout <= 0 {
			return &ConfigurationError{Field: "notify.modbus.timeout", Msg: "must be > 0"}
		}
	}

	// ------------------------------------------------------------
	// AMBIENT
	// ------------------------------------------------------------

	switch strings.ToLower(cfg.Log.Format) {
	case "console", "json":
	default:
		return &ConfigurationError{Field: "log.format", Msg: fmt.Sprintf("must be console or json, got %q", cfg.Log.Format)}
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigurationError{Field: field, Msg: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigurationError{Field: field, Msg: fmt.Sprintf("scheme must be http or https, got %q", raw)}
	}
	if u.Host == "" {
		return &ConfigurationError{Field: field, Msg: fmt.Sprintf("host required, got %q", raw)}
	}
	return nil
}
