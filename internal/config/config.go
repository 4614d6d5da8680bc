// internal/config/config.go
package config

import "time"

type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Poll     PollConfig     `yaml:"poll"`
	Recovery RecoveryConfig `yaml:"recovery"`
	Notify   NotifyConfig   `yaml:"notify"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// ---- MANAGED SERVICE ----

type ServiceConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"` // per status request, < poll.interval
}

// ---- POLL ----

type PollConfig struct {
	Interval     time.Duration `yaml:"interval"`
	StallWindow  time.Duration `yaml:"stall_window"`
	PausedWindow time.Duration `yaml:"paused_window"`
}

// ---- RECOVERY ----

const (
	MethodDocker = "docker"
	MethodAPI    = "api"
)

type RecoveryConfig struct {
	Cooldown             time.Duration `yaml:"cooldown"`
	MaxBackoff           time.Duration `yaml:"max_backoff"`
	Jitter               float64       `yaml:"jitter"` // 0 disables
	EscalateAfter        int           `yaml:"escalate_after"`
	UnreachableTolerance int           `yaml:"unreachable_tolerance"`
	ActionTimeout        time.Duration `yaml:"action_timeout"` // < poll.interval

	// ResumePaused: a service stuck in Paused is resumed instead of restarted.
	// nil means enabled.
	ResumePaused *bool `yaml:"resume_paused"`

	Method string       `yaml:"method"` // docker | api
	Docker DockerConfig `yaml:"docker"`
}

type DockerConfig struct {
	Endpoint  string `yaml:"endpoint"` // empty: DOCKER_HOST / default socket
	Container string `yaml:"container"`
}

// ---- NOTIFY ----

type NotifyConfig struct {
	QueueSize   int           `yaml:"queue_size"`
	SendTimeout time.Duration `yaml:"send_timeout"`

	Webhook WebhookConfig `yaml:"webhook"`
	Slack   SlackConfig   `yaml:"slack"`
	Sentry  SentryConfig  `yaml:"sentry"`

	// Watchdog status block (optional, opt-in)
	Modbus *ModbusConfig `yaml:"modbus"`
}

type WebhookConfig struct {
	URL string `yaml:"url"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Channel    string `yaml:"channel"`
}

type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

type ModbusConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	UnitID       uint8         `yaml:"unit_id"`
	BaseSlot     uint16        `yaml:"base_slot"`
	InstanceName string        `yaml:"instance_name"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ---- AMBIENT ----

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StallSamples is the stall window expressed in polls.
func (c Config) StallSamples() int {
	return samples(c.Poll.StallWindow, c.Poll.Interval)
}

// PausedSamples is the paused window expressed in polls.
func (c Config) PausedSamples() int {
	return samples(c.Poll.PausedWindow, c.Poll.Interval)
}

// ResumePausedEnabled reports whether Paused stalls are resumed via the API.
func (c Config) ResumePausedEnabled() bool {
	return c.Recovery.ResumePaused == nil || *c.Recovery.ResumePaused
}

// samples rounds window/interval up, with a floor of 2 so that a single
// zero-progress sample can never fill the window.
func samples(window, interval time.Duration) int {
	if interval <= 0 {
		return 2
	}
	n := int((window + interval - 1) / interval)
	if n < 2 {
		n = 2
	}
	return n
}
