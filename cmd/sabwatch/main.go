// cmd/sabwatch/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/sabwatch/internal/actuator"
	"github.com/tamzrod/sabwatch/internal/config"
	"github.com/tamzrod/sabwatch/internal/detector"
	"github.com/tamzrod/sabwatch/internal/logger"
	"github.com/tamzrod/sabwatch/internal/metrics"
	"github.com/tamzrod/sabwatch/internal/notify"
	"github.com/tamzrod/sabwatch/internal/policy"
	"github.com/tamzrod/sabwatch/internal/poller"
	"github.com/tamzrod/sabwatch/internal/poller/sabnzbd"
	"github.com/tamzrod/sabwatch/internal/watchdog"
)

// notifyDrainGrace bounds how long pending notifications may delay exit.
const notifyDrainGrace = 10 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sabwatch",
	Short: "Liveness watchdog for a SABnzbd download queue",
	Long: `sabwatch polls the SABnzbd queue, detects stalled downloads and
recovers the service by resuming it, restarting it through its API or
restarting its container. Configuration comes from an optional YAML
file overlaid with environment variables.`,
	SilenceUsage: true,
	RunE:         runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (optional; environment always applies)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zl := logger.New(cfg.Log.Level, logger.ParseFormat(cfg.Log.Format))
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar()
	mainLog := log.Named(logger.ComponentMain)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Build components
	// --------------------

	m := metrics.New()

	sab, err := sabnzbd.New(sabnzbd.Config{BaseURL: cfg.Service.URL, APIKey: cfg.Service.APIKey})
	if err != nil {
		return err
	}

	p, err := poller.New(poller.Config{Timeout: cfg.Service.Timeout}, sab)
	if err != nil {
		return err
	}

	det, err := detector.New(detector.Config{
		WindowSamples: cfg.StallSamples(),
		PausedSamples: cfg.PausedSamples(),
	}, log.Named(logger.ComponentDetector))
	if err != nil {
		return err
	}

	pol, err := policy.New(policy.Config{
		Cooldown:             cfg.Recovery.Cooldown,
		MaxBackoff:           cfg.Recovery.MaxBackoff,
		Jitter:               cfg.Recovery.Jitter,
		EscalateAfter:        cfg.Recovery.EscalateAfter,
		UnreachableTolerance: cfg.Recovery.UnreachableTolerance,
	}, log.Named(logger.ComponentPolicy))
	if err != nil {
		return err
	}

	act, err := actuator.Build(cfg, sab, log.Named(logger.ComponentActuator))
	if err != nil {
		return err
	}

	disp, closeNotify, err := notify.Build(cfg.Notify, m, log.Named(logger.ComponentNotify))
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), notifyDrainGrace)
		defer cancel()
		if err := closeNotify(cctx); err != nil {
			mainLog.Warnw("notifications not fully delivered", "err", err)
		}
	}()

	loop, err := watchdog.New(watchdog.Config{
		Interval:      cfg.Poll.Interval,
		ActionTimeout: cfg.Recovery.ActionTimeout,
	}, watchdog.Deps{
		Poller:   p,
		Detector: det,
		Policy:   pol,
		Actuator: act,
		Notifier: disp,
		Metrics:  m,
		Clock:    clock.New(),
		Logger:   log.Named(logger.ComponentWatchdog),
	})
	if err != nil {
		return err
	}

	mainLog.Infow("starting",
		"url", cfg.Service.URL,
		"interval", cfg.Poll.Interval.String(),
		"stall_polls", cfg.StallSamples(),
		"paused_polls", cfg.PausedSamples(),
		"method", cfg.Recovery.Method,
		"cooldown", cfg.Recovery.Cooldown.String(),
		"max_backoff", cfg.Recovery.MaxBackoff.String(),
	)

	// --------------------
	// Run until signalled
	// --------------------

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	if cfg.Metrics.Listen != "" {
		g.Go(func() error {
			return m.Serve(gctx, cfg.Metrics.Listen, log.Named(logger.ComponentMetrics))
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("sabwatch: %w", err)
	}
	mainLog.Infow("shutdown complete")
	return nil
}
