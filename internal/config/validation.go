package config

import (
	"fmt"

	rufus "github.com/nadnerb/rufus-scheduler"
	"github.com/nadnerb/rufus-scheduler/cronline"
)

var jobTypes = map[string]bool{"at": true, "in": true, "every": true, "cron": true}

// Validate checks the configuration for consistency. It parses every
// schedule spec so a bad job fails at load time, not at serve time.
func (c *Config) Validate() error {
	if _, err := rufus.ParseDuration(c.Global.Frequency); err != nil {
		return fmt.Errorf("global.frequency: %w", err)
	}
	if c.Global.ResourceInterval != "" {
		if _, err := rufus.ParseDuration(c.Global.ResourceInterval); err != nil {
			return fmt.Errorf("global.resource_interval: %w", err)
		}
	}
	if c.Global.MetricsPort < 0 || c.Global.MetricsPort > 65535 {
		return fmt.Errorf("global.metrics_port: %d out of range", c.Global.MetricsPort)
	}
	if c.Global.APIPort < 0 || c.Global.APIPort > 65535 {
		return fmt.Errorf("global.api_port: %d out of range", c.Global.APIPort)
	}

	for name, job := range c.Jobs {
		if err := job.validate(); err != nil {
			return fmt.Errorf("job %q: %w", name, err)
		}
	}
	return nil
}

func (j *Job) validate() error {
	if !jobTypes[j.Type] {
		return fmt.Errorf("unknown type %q (want at, in, every or cron)", j.Type)
	}
	if j.Schedule == "" {
		return fmt.Errorf("schedule is required")
	}
	if len(j.Command) == 0 {
		return fmt.Errorf("command is required")
	}

	switch j.Type {
	case "at":
		if _, err := rufus.ParseTime(j.Schedule); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	case "in", "every":
		if _, err := rufus.ParseDuration(j.Schedule); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	case "cron":
		if _, err := cronline.Parse(j.Schedule); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
	}

	for label, spec := range map[string]string{
		"timeout":  j.Timeout,
		"first_in": j.FirstIn,
		"last_in":  j.LastIn,
	} {
		if spec == "" {
			continue
		}
		if _, err := rufus.ParseDuration(spec); err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
	}
	if j.LastAt != "" {
		if _, err := rufus.ParseTime(j.LastAt); err != nil {
			return fmt.Errorf("last_at: %w", err)
		}
	}
	if j.Times != nil && *j.Times < 0 {
		return fmt.Errorf("times: must not be negative")
	}
	return nil
}
