// internal/config/load.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment variables. The SABNZBD_* and *_COUNT names match the
// sab_watchdog.py container so existing deployments keep working.
const (
	EnvAPIKey             = "SABNZBD_APIKEY"
	EnvURL                = "SABNZBD_URL"
	EnvContainer          = "SABNZBD_CONTAINER"
	EnvCheckInterval      = "CHECK_INTERVAL"        // seconds
	EnvMaxZeroCount       = "MAX_ZERO_COUNT"        // stall window, in polls
	EnvMaxPausedZeroCount = "MAX_PAUSED_ZERO_COUNT" // paused window, in polls
	EnvMethod             = "SABWATCH_RECOVERY_METHOD"
	EnvCooldown           = "SABWATCH_COOLDOWN"
	EnvMaxBackoff         = "SABWATCH_MAX_BACKOFF"
	EnvWebhookURL         = "SABWATCH_WEBHOOK_URL"
	EnvSlackWebhookURL    = "SABWATCH_SLACK_WEBHOOK_URL"
	EnvSentryDSN          = "SABWATCH_SENTRY_DSN"
	EnvMetricsListen      = "SABWATCH_METRICS_LISTEN"
	EnvLogLevel           = "SABWATCH_LOG_LEVEL"
	EnvLogFormat          = "SABWATCH_LOG_FORMAT"
)

// Load reads the YAML file at path (optional), overlays the environment,
// fills defaults and validates. Any failure is a *ConfigurationError.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, &ConfigurationError{Field: "file", Msg: err.Error()}
		}
		if err := Decode(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}

	Normalize(&cfg)

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses YAML strictly: unknown keys are rejected.
func Decode(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return &ConfigurationError{Field: "file", Msg: fmt.Sprintf("yaml: %v", err)}
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. Set variables win over the file.
func ApplyEnv(cfg *Config) error {
	v := viper.New()
	for _, key := range []string{
		EnvAPIKey, EnvURL, EnvContainer, EnvCheckInterval, EnvMaxZeroCount,
		EnvMaxPausedZeroCount, EnvMethod, EnvCooldown, EnvMaxBackoff, EnvWebhookURL,
		EnvSlackWebhookURL, EnvSentryDSN, EnvMetricsListen, EnvLogLevel, EnvLogFormat,
	} {
		if err := v.BindEnv(key); err != nil {
			return &ConfigurationError{Field: key, Msg: err.Error()}
		}
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	setString(EnvAPIKey, &cfg.Service.APIKey)
	setString(EnvURL, &cfg.Service.URL)
	setString(EnvContainer, &cfg.Recovery.Docker.Container)
	setString(EnvMethod, &cfg.Recovery.Method)
	setString(EnvWebhookURL, &cfg.Notify.Webhook.URL)
	setString(EnvSlackWebhookURL, &cfg.Notify.Slack.WebhookURL)
	setString(EnvSentryDSN, &cfg.Notify.Sentry.DSN)
	setString(EnvMetricsListen, &cfg.Metrics.Listen)
	setString(EnvLogLevel, &cfg.Log.Level)
	setString(EnvLogFormat, &cfg.Log.Format)

	for key, dst := range map[string]*time.Duration{
		EnvCooldown:   &cfg.Recovery.Cooldown,
		EnvMaxBackoff: &cfg.Recovery.MaxBackoff,
	} {
		if !v.IsSet(key) {
			continue
		}
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return &ConfigurationError{Field: key, Msg: err.Error()}
		}
		*dst = d
	}

	if v.IsSet(EnvCheckInterval) {
		secs, err := positiveInt(v, EnvCheckInterval)
		if err != nil {
			return err
		}
		cfg.Poll.Interval = time.Duration(secs) * time.Second
	}

	interval := cfg.Poll.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	if v.IsSet(EnvMaxZeroCount) {
		n, err := positiveInt(v, EnvMaxZeroCount)
		if err != nil {
			return err
		}
		cfg.Poll.StallWindow = time.Duration(n) * interval
	}
	if v.IsSet(EnvMaxPausedZeroCount) {
		n, err := positiveInt(v, EnvMaxPausedZeroCount)
		if err != nil {
			return err
		}
		cfg.Poll.PausedWindow = time.Duration(n) * interval
	}

	return nil
}

func positiveInt(v *viper.Viper, key string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(v.GetString(key), "%d", &n); err != nil || n <= 0 {
		return 0, &ConfigurationError{Field: key, Msg: fmt.Sprintf("must be a positive integer, got %q", v.GetString(key))}
	}
	return n, nil
}
