package main

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/trace"

	rufus "github.com/nadnerb/rufus-scheduler"
	"github.com/nadnerb/rufus-scheduler/internal/command"
	"github.com/nadnerb/rufus-scheduler/internal/config"
	"github.com/nadnerb/rufus-scheduler/internal/logger"
)

// jobRegistry maps config-defined jobs onto scheduler jobs and supports
// reloading: on apply, the previously registered set is unscheduled and
// the new set registered.
type jobRegistry struct {
	mu     sync.Mutex
	sched  *rufus.Scheduler
	output *logger.Buffer
	tracer trace.Tracer
	logger *slog.Logger
	jobs   map[string]string // config job name -> scheduler job id
}

func newJobRegistry(sched *rufus.Scheduler, output *logger.Buffer, tracer trace.Tracer, log *slog.Logger) *jobRegistry {
	return &jobRegistry{
		sched:  sched,
		output: output,
		tracer: tracer,
		logger: log.With("component", "job_registry"),
		jobs:   make(map[string]string),
	}
}

// apply registers the configured jobs, replacing any previous set.
func (r *jobRegistry) apply(cfg *config.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, id := range r.jobs {
		if err := r.sched.Unschedule(id); err != nil {
			r.logger.Debug("stale job already gone", "job", name, "error", err)
		}
	}
	r.jobs = make(map[string]string)

	// Deterministic registration order keeps tie-broken triggering stable
	// across reloads.
	names := make([]string, 0, len(cfg.Jobs))
	for name := range cfg.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		jc := cfg.Jobs[name]
		if !jc.IsEnabled() {
			r.logger.Info("job disabled, skipping", "job", name)
			continue
		}
		job, err := r.register(name, jc)
		if err != nil {
			return fmt.Errorf("job %q: %w", name, err)
		}
		r.jobs[name] = job.ID()
		r.logger.Info("job registered",
			"job", name,
			"type", jc.Type,
			"schedule", jc.Schedule,
			"next_time", job.NextTime(),
		)
	}
	return nil
}

func (r *jobRegistry) register(name string, jc *config.Job) (*rufus.Job, error) {
	runner, err := command.NewRunner(name, command.Config{
		Command:    jc.Command,
		WorkingDir: jc.WorkingDir,
		Env:        jc.Env,
	}, r.output, r.tracer, r.logger)
	if err != nil {
		return nil, err
	}

	opts := rufus.JobOptions{
		Name:        name,
		Tags:        jc.Tags,
		Mutexes:     jc.Mutexes,
		Times:       jc.Times,
		DiscardPast: jc.DiscardPast,
		NoOverlap:   jc.NoOverlap,
		Blocking:    jc.Blocking,
	}
	if jc.Timeout != "" {
		opts.Timeout = jc.Timeout
	}
	if jc.FirstIn != "" {
		opts.FirstIn = jc.FirstIn
	}
	if jc.LastIn != "" {
		opts.LastIn = jc.LastIn
	}
	if jc.LastAt != "" {
		opts.LastAt = jc.LastAt
	}

	switch jc.Type {
	case "at":
		return r.sched.At(jc.Schedule, runner.Run, opts)
	case "in":
		return r.sched.In(jc.Schedule, runner.Run, opts)
	case "every":
		return r.sched.Every(jc.Schedule, runner.Run, opts)
	case "cron":
		return r.sched.Cron(jc.Schedule, runner.Run, opts)
	default:
		return nil, fmt.Errorf("unknown job type %q", jc.Type)
	}
}
