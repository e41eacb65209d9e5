package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	rufus "github.com/nadnerb/rufus-scheduler"
	"github.com/nadnerb/rufus-scheduler/internal/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, authToken string) (*httptest.Server, *rufus.Scheduler, *logger.Buffer) {
	t.Helper()
	sched := rufus.NewScheduler(rufus.Options{Logger: testLogger()})
	output := logger.NewBuffer(100)
	s := NewServer(0, authToken, sched, output, "test", testLogger())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, sched, output
}

func TestStatusEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t, "")

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("GET /status error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var status statusView
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Version != "test" {
		t.Errorf("version = %q, want test", status.Version)
	}
	if status.Started {
		t.Error("scheduler should report stopped")
	}
}

func TestJobsEndpoints(t *testing.T) {
	ts, sched, _ := newTestServer(t, "")

	job, err := sched.Every("1h", func() {}, rufus.JobOptions{Name: "poller", Tags: []string{"net"}})
	if err != nil {
		t.Fatalf("Every error = %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/v1/jobs")
	if err != nil {
		t.Fatalf("GET /jobs error = %v", err)
	}
	defer resp.Body.Close()
	var jobs []jobView
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Name != "poller" || jobs[0].Kind != "every" {
		t.Errorf("jobs = %+v", jobs)
	}

	// Tag filter
	resp, err = http.Get(ts.URL + "/api/v1/jobs?tags=other")
	if err != nil {
		t.Fatalf("GET /jobs?tags error = %v", err)
	}
	defer resp.Body.Close()
	jobs = nil
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("filtered jobs = %+v, want none", jobs)
	}

	// Detail
	resp, err = http.Get(ts.URL + "/api/v1/jobs/" + job.ID())
	if err != nil {
		t.Fatalf("GET /jobs/{id} error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail status = %d, want 200", resp.StatusCode)
	}

	// Unknown id
	resp, err = http.Get(ts.URL + "/api/v1/jobs/bogus")
	if err != nil {
		t.Fatalf("GET /jobs/bogus error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown job status = %d, want 404", resp.StatusCode)
	}
}

func TestJobActions(t *testing.T) {
	ts, sched, _ := newTestServer(t, "")

	job, err := sched.Every("1h", func() {})
	if err != nil {
		t.Fatalf("Every error = %v", err)
	}

	post := func(path string) int {
		t.Helper()
		resp, err := http.Post(ts.URL+path, "", nil)
		if err != nil {
			t.Fatalf("POST %s error = %v", path, err)
		}
		defer resp.Body.Close()
		return resp.StatusCode
	}

	if code := post("/api/v1/jobs/" + job.ID() + "/pause"); code != http.StatusOK {
		t.Errorf("pause status = %d", code)
	}
	if !job.Paused() {
		t.Error("job should be paused")
	}
	if code := post("/api/v1/jobs/" + job.ID() + "/resume"); code != http.StatusOK {
		t.Errorf("resume status = %d", code)
	}
	if job.Paused() {
		t.Error("job should be resumed")
	}
	if code := post("/api/v1/jobs/" + job.ID() + "/unschedule"); code != http.StatusOK {
		t.Errorf("unschedule status = %d", code)
	}
	if job.UnscheduledAt().IsZero() {
		t.Error("job should be marked unscheduled")
	}
	if code := post("/api/v1/jobs/bogus/pause"); code != http.StatusNotFound {
		t.Errorf("pause bogus status = %d, want 404", code)
	}
}

func TestLogsEndpoint(t *testing.T) {
	ts, _, output := newTestServer(t, "")

	output.Add(logger.Entry{Timestamp: time.Now(), JobName: "a", Stream: "stdout", Message: "one"})
	output.Add(logger.Entry{Timestamp: time.Now(), JobName: "b", Stream: "stdout", Message: "two"})

	resp, err := http.Get(ts.URL + "/api/v1/logs?job=a")
	if err != nil {
		t.Fatalf("GET /logs error = %v", err)
	}
	defer resp.Body.Close()
	var entries []logger.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "one" {
		t.Errorf("entries = %+v, want only job a", entries)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ts, _, _ := newTestServer(t, "secret")

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}

	// Health stays open for probes.
	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}
