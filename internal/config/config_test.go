package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rufusd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "version: \"1\"\n"))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Global.Frequency != "300ms" {
		t.Errorf("Frequency = %q, want 300ms", cfg.Global.Frequency)
	}
	if cfg.Global.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.Global.LogLevel)
	}
	if cfg.Global.MetricsPort != 9090 {
		t.Errorf("MetricsPort = %d, want 9090", cfg.Global.MetricsPort)
	}
	if cfg.Global.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.Global.APIPort)
	}
	if cfg.Jobs == nil {
		t.Error("Jobs map should be initialised")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Global.Frequency != "300ms" {
		t.Errorf("Frequency = %q, want default", cfg.Global.Frequency)
	}
}

func TestLoad_Jobs(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
version: "1"
global:
  frequency: 1s
  log_level: debug
jobs:
  cleanup:
    type: cron
    schedule: "0 3 * * *"
    command: ["sh", "-c", "rm -rf /tmp/scratch/*"]
    tags: [maintenance]
    timeout: 5m
  poll:
    type: every
    schedule: 30s
    command: ["curl", "-fsS", "http://localhost/health"]
    no_overlap: true
  once:
    type: in
    schedule: 10s
    command: ["echo", "hello"]
    enabled: false
`))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}

	if len(cfg.Jobs) != 3 {
		t.Fatalf("jobs = %d, want 3", len(cfg.Jobs))
	}
	cleanup := cfg.Jobs["cleanup"]
	if cleanup.Type != "cron" || cleanup.Schedule != "0 3 * * *" {
		t.Errorf("cleanup parsed wrong: %+v", cleanup)
	}
	if !cleanup.IsEnabled() {
		t.Error("cleanup should default to enabled")
	}
	if cfg.Jobs["once"].IsEnabled() {
		t.Error("once should be disabled")
	}
	if !cfg.Jobs["poll"].NoOverlap {
		t.Error("poll should have no_overlap")
	}
}

func TestLoad_InvalidJob(t *testing.T) {
	cases := map[string]string{
		"bad type": `
jobs:
  j:
    type: nope
    schedule: 1s
    command: ["true"]
`,
		"bad cron": `
jobs:
  j:
    type: cron
    schedule: "61 * * * *"
    command: ["true"]
`,
		"bad duration": `
jobs:
  j:
    type: every
    schedule: "abc"
    command: ["true"]
`,
		"missing command": `
jobs:
  j:
    type: every
    schedule: 1s
`,
		"negative times": `
jobs:
  j:
    type: every
    schedule: 1s
    command: ["true"]
    times: -1
`,
	}
	for name, content := range cases {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RUFUS_GLOBAL_FREQUENCY", "2s")
	t.Setenv("RUFUS_GLOBAL_LOG_LEVEL", "debug")
	t.Setenv("RUFUS_GLOBAL_METRICS_PORT", "9999")

	cfg, err := Load(writeConfig(t, "global:\n  frequency: 1s\n"))
	if err != nil {
		t.Fatalf("Load error = %v", err)
	}
	if cfg.Global.Frequency != "2s" {
		t.Errorf("Frequency = %q, want env override 2s", cfg.Global.Frequency)
	}
	if cfg.Global.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Global.LogLevel)
	}
	if cfg.Global.MetricsPort != 9999 {
		t.Errorf("MetricsPort = %d, want 9999", cfg.Global.MetricsPort)
	}
}

func TestValidate_BadFrequency(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Global.Frequency = "wat"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad frequency")
	}
}
