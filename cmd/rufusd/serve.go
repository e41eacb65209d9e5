package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	rufus "github.com/nadnerb/rufus-scheduler"
	"github.com/nadnerb/rufus-scheduler/internal/api"
	"github.com/nadnerb/rufus-scheduler/internal/config"
	"github.com/nadnerb/rufus-scheduler/internal/logger"
	"github.com/nadnerb/rufus-scheduler/internal/metrics"
	"github.com/nadnerb/rufus-scheduler/internal/tracing"
	"github.com/nadnerb/rufus-scheduler/internal/watcher"
)

var (
	dryRun    bool
	watchMode bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler daemon",
	Long: `Start rufusd in daemon mode.

This is the default mode when no subcommand is specified. It registers the
configured jobs, runs the scheduler loop, and provides observability
endpoints.`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate configuration without starting the scheduler")
	serveCmd.Flags().BoolVar(&watchMode, "watch", false, "Reload jobs when the config file changes")
}

const shutdownGrace = 30 * time.Second

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if dryRun {
		fmt.Printf("configuration is valid\n")
		fmt.Printf("  frequency: %s\n", cfg.Global.Frequency)
		fmt.Printf("  jobs:      %d\n", len(cfg.Jobs))
		fmt.Printf("  metrics:   %v\n", cfg.Global.MetricsEnabled)
		fmt.Printf("  api:       %v\n", cfg.Global.APIEnabled)
		return
	}

	log := logger.New(cfg.Global.LogLevel, cfg.Global.LogFormat)
	slog.SetDefault(log)

	slog.Info("rufusd starting",
		"version", version,
		"pid", os.Getpid(),
		"frequency", cfg.Global.Frequency,
		"jobs", len(cfg.Jobs),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer cancel()

	tracingProvider, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:     cfg.Global.TracingEnabled,
		Exporter:    cfg.Global.TracingExporter,
		Endpoint:    cfg.Global.TracingEndpoint,
		SampleRate:  cfg.Global.TracingSampleRate,
		ServiceName: cfg.Global.TracingServiceName,
		Version:     version,
		UseTLS:      cfg.Global.TracingUseTLS,
	}, log)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown error", "error", err)
		}
	}()

	frequency := rufus.MustParseDuration(cfg.Global.Frequency)
	output := logger.NewBuffer(cfg.Global.OutputBufferSize)

	sched := rufus.NewScheduler(rufus.Options{
		Frequency:    frequency,
		Logger:       log,
		HistorySize:  cfg.Global.HistorySize,
		EventHandler: metricsEventHandler,
		ErrorHandler: func(job *rufus.Job, err error) {
			slog.Error("job failed", "job_id", job.ID(), "name", job.Name(), "error", err)
		},
	})

	registry := newJobRegistry(sched, output, tracingProvider.Tracer("rufusd"), log)
	if err := registry.apply(cfg); err != nil {
		slog.Error("failed to register jobs", "error", err)
		os.Exit(1)
	}

	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	metrics.SchedulerUp.Set(1)

	if cfg.Global.MetricsEnabled {
		metricsServer := metrics.NewServer(cfg.Global.MetricsPort, cfg.Global.MetricsPath, log)
		if err := metricsServer.Start(ctx); err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		defer stopServer(metricsServer.Stop)

		interval := rufus.MustParseDuration(cfg.Global.ResourceInterval)
		sampler, err := metrics.NewResourceSampler(interval, log)
		if err != nil {
			slog.Warn("resource sampler unavailable", "error", err)
		} else {
			go sampler.Run(ctx)
		}
	}

	if cfg.Global.APIEnabled {
		apiServer := api.NewServer(cfg.Global.APIPort, cfg.Global.APIAuth, sched, output, version, log)
		if err := apiServer.Start(ctx); err != nil {
			slog.Error("failed to start API server", "error", err)
			os.Exit(1)
		}
		defer stopServer(apiServer.Stop)
	}

	if watchMode {
		w, err := watcher.New(watcher.Config{
			ConfigPath: configPath(),
			Logger:     log,
			Handler: func() error {
				newCfg, err := config.Load(cfgFile)
				if err != nil {
					return err
				}
				return registry.apply(newCfg)
			},
		})
		if err != nil {
			slog.Error("failed to create config watcher", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := w.Start(ctx); err != nil {
				slog.Error("config watcher failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownScheduler(sched)
	metrics.SchedulerUp.Set(0)
	slog.Info("rufusd stopped")
}

// shutdownScheduler waits for in-flight jobs, interrupting them after the
// grace period.
func shutdownScheduler(sched *rufus.Scheduler) {
	done := make(chan struct{})
	go func() {
		sched.Shutdown(rufus.ShutdownWait)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		slog.Warn("shutdown grace period elapsed, killing running jobs")
		sched.Shutdown(rufus.ShutdownKill)
		<-done
	}
}

func stopServer(stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		slog.Warn("server shutdown error", "error", err)
	}
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("RUFUS_CONFIG"); v != "" {
		return v
	}
	return "rufusd.yaml"
}

// metricsEventHandler keeps the Prometheus gauges in sync with job
// lifecycle transitions.
func metricsEventHandler(event rufus.Event, job *rufus.Job) {
	label := job.Name()
	if label == "" {
		label = job.Kind().String() + "-" + job.ID()[:8]
	}

	switch event {
	case rufus.EventScheduled:
		metrics.ScheduledJobs.WithLabelValues(job.Kind().String()).Inc()
		metrics.JobNextRun.WithLabelValues(label).Set(float64(job.NextTime().Unix()))
	case rufus.EventUnscheduled:
		metrics.ScheduledJobs.WithLabelValues(job.Kind().String()).Dec()
		metrics.JobNextRun.DeleteLabelValues(label)
	case rufus.EventTriggered:
		metrics.RunningJobs.Inc()
	case rufus.EventCompleted, rufus.EventFailed, rufus.EventTimedOut, rufus.EventKilled:
		metrics.RunningJobs.Dec()
		if next := job.NextTime(); !next.IsZero() {
			metrics.JobNextRun.WithLabelValues(label).Set(float64(next.Unix()))
		}
	}
}
