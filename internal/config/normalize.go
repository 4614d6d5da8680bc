// internal/config/normalize.go
package config

import "time"

// Defaults applied by Normalize. Window and cooldown defaults are
// expressed in polls so they follow the configured interval.
const (
	DefaultInterval        = 60 * time.Second
	DefaultServiceTimeout  = 5 * time.Second
	DefaultStallPolls      = 3
	DefaultPausedPolls     = 5
	DefaultCooldownPolls   = 2
	DefaultMaxBackoff      = 30 * time.Minute
	DefaultEscalateAfter   = 3
	DefaultActionTimeout   = 30 * time.Second
	DefaultContainer       = "sabnzbd"
	DefaultURL             = "http://sabnzbd:8080"
	DefaultQueueSize       = 32
	DefaultSendTimeout     = 5 * time.Second
	DefaultModbusTimeout   = 2 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
	defaultTimeoutFraction = 2
)

// Normalize fills zero values with defaults.
// It is allowed to mutate configuration.
// It MUST be called before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ---- service / poll ----

	if cfg.Service.URL == "" {
		cfg.Service.URL = DefaultURL
	}
	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = DefaultInterval
	}
	if cfg.Service.Timeout == 0 {
		cfg.Service.Timeout = capBelowInterval(DefaultServiceTimeout, cfg.Poll.Interval)
	}
	if cfg.Poll.StallWindow == 0 {
		cfg.Poll.StallWindow = DefaultStallPolls * cfg.Poll.Interval
	}
	if cfg.Poll.PausedWindow == 0 {
		cfg.Poll.PausedWindow = DefaultPausedPolls * cfg.Poll.Interval
	}

	// ---- recovery ----

	if cfg.Recovery.Cooldown == 0 {
		cfg.Recovery.Cooldown = DefaultCooldownPolls * cfg.Poll.Interval
	}
	if cfg.Recovery.MaxBackoff == 0 {
		cfg.Recovery.MaxBackoff = DefaultMaxBackoff
		if cfg.Recovery.MaxBackoff < cfg.Recovery.Cooldown {
			cfg.Recovery.MaxBackoff = cfg.Recovery.Cooldown
		}
	}
	if cfg.Recovery.EscalateAfter == 0 {
		cfg.Recovery.EscalateAfter = DefaultEscalateAfter
	}
	if cfg.Recovery.UnreachableTolerance == 0 {
		cfg.Recovery.UnreachableTolerance = 1
	}
	if cfg.Recovery.ActionTimeout == 0 {
		cfg.Recovery.ActionTimeout = capBelowInterval(DefaultActionTimeout, cfg.Poll.Interval)
	}
	if cfg.Recovery.Method == "" {
		cfg.Recovery.Method = MethodDocker
	}
	if cfg.Recovery.Method == MethodDocker && cfg.Recovery.Docker.Container == "" {
		cfg.Recovery.Docker.Container = DefaultContainer
	}

	// ---- notify ----

	if cfg.Notify.QueueSize == 0 {
		cfg.Notify.QueueSize = DefaultQueueSize
	}
	if cfg.Notify.SendTimeout == 0 {
		cfg.Notify.SendTimeout = DefaultSendTimeout
	}
	if m := cfg.Notify.Modbus; m != nil {
		if m.Timeout == 0 {
			m.Timeout = DefaultModbusTimeout
		}
		// Truncate to max 16 characters; ASCII is checked by Validate.
		if len(m.InstanceName) > 16 {
			m.InstanceName = m.InstanceName[:16]
		}
	}

	// ---- log ----

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// capBelowInterval keeps a default timeout strictly below the poll interval.
func capBelowInterval(d, interval time.Duration) time.Duration {
	if interval > 0 && d >= interval {
		return interval / defaultTimeoutFraction
	}
	return d
}
