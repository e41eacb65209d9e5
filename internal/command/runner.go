// Package command executes config-defined shell command jobs.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rufus "github.com/nadnerb/rufus-scheduler"
	"github.com/nadnerb/rufus-scheduler/internal/logger"
	"github.com/nadnerb/rufus-scheduler/internal/metrics"
)

// Runner executes one configured command job. It implements the callable
// payload for jobs registered by the daemon.
type Runner struct {
	name       string
	command    []string
	workingDir string
	env        map[string]string
	output     *logger.Buffer
	tracer     trace.Tracer
	logger     *slog.Logger
}

// Config describes the command to run.
type Config struct {
	Command    []string
	WorkingDir string
	Env        map[string]string
}

// NewRunner creates a runner for a named command job. Output lines are
// captured into the shared ring buffer.
func NewRunner(name string, cfg Config, output *logger.Buffer, tracer trace.Tracer, log *slog.Logger) (*Runner, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("job %q has no command", name)
	}
	return &Runner{
		name:       name,
		command:    cfg.Command,
		workingDir: cfg.WorkingDir,
		env:        cfg.Env,
		output:     output,
		tracer:     tracer,
		logger:     log.With("component", "command_runner", "job", name),
	}, nil
}

// Name returns the job name the runner was registered under.
func (r *Runner) Name() string { return r.name }

// Run executes the command and blocks until completion or cancellation.
// It is shaped as a scheduler callable.
func (r *Runner) Run(ctx context.Context, job *rufus.Job) error {
	ctx, span := r.tracer.Start(ctx, "job.run",
		trace.WithAttributes(
			attribute.String("job.name", r.name),
			attribute.String("job.id", job.ID()),
			attribute.String("job.kind", job.Kind().String()),
		))
	defer span.End()

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}

	cmd.Env = os.Environ()
	for k, v := range r.env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}
	cmd.Env = append(cmd.Env,
		fmt.Sprintf("RUFUS_JOB=%s", r.name),
		fmt.Sprintf("RUFUS_JOB_ID=%s", job.ID()),
		fmt.Sprintf("RUFUS_JOB_COUNT=%d", job.Count()),
	)

	cmd.Stdout = newLineWriter(r.output, r.name, "stdout")
	cmd.Stderr = newLineWriter(r.output, r.name, "stderr")

	r.logger.Info("executing command job", "command", r.command)

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	result := "success"
	switch {
	case err == nil:
	case ctx.Err() != nil:
		// Interrupted by timeout or kill; the scheduler records the
		// specific outcome, the metric reflects the interruption.
		result = "interrupted"
		err = fmt.Errorf("command interrupted: %w", context.Cause(ctx))
	default:
		result = "failure"
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			err = fmt.Errorf("command exited with code %d", exitCode)
		} else {
			exitCode = -1
			err = fmt.Errorf("failed to start command: %w", err)
		}
	}

	metrics.RecordRun(r.name, result, duration.Seconds())
	metrics.JobLastExit.WithLabelValues(r.name).Set(float64(exitCode))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("command job failed",
			"exit_code", exitCode,
			"duration", duration,
			"error", err,
		)
		return err
	}

	span.SetAttributes(attribute.Int("job.exit_code", exitCode))
	r.logger.Info("command job completed", "duration", duration)
	return nil
}
