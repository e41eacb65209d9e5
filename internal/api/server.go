// Package api exposes the rufusd management HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	rufus "github.com/nadnerb/rufus-scheduler"
	"github.com/nadnerb/rufus-scheduler/internal/logger"
)

// Server is the management API server. All mutations go through the
// scheduler's public API; the server holds no job state of its own.
type Server struct {
	port      int
	authToken string
	scheduler *rufus.Scheduler
	output    *logger.Buffer
	version   string

	server *http.Server
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewServer creates a management API server around the scheduler. An empty
// authToken disables authentication.
func NewServer(port int, authToken string, scheduler *rufus.Scheduler, output *logger.Buffer, version string, log *slog.Logger) *Server {
	return &Server{
		port:      port,
		authToken: authToken,
		scheduler: scheduler,
		output:    output,
		version:   version,
		logger:    log.With("component", "api_server"),
	}
}

// Handler builds the API routes, wrapped in auth when configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/jobs", s.handleJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleJob)
	mux.HandleFunc("POST /api/v1/jobs/{id}/pause", s.handlePause)
	mux.HandleFunc("POST /api/v1/jobs/{id}/resume", s.handleResume)
	mux.HandleFunc("POST /api/v1/jobs/{id}/unschedule", s.handleUnschedule)
	mux.HandleFunc("POST /api/v1/jobs/{id}/trigger", s.handleTrigger)
	mux.HandleFunc("GET /api/v1/logs", s.handleLogs)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return s.authMiddleware(mux)
}

// Start starts the API server in the background.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	s.logger.Info("starting API server", "port", s.port, "auth", s.authToken != "")

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server failed", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()

	if server == nil {
		return nil
	}
	s.logger.Info("stopping API server")
	return server.Shutdown(ctx)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	if s.authToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != s.authToken {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusView is the GET /api/v1/status payload.
type statusView struct {
	Version     string `json:"version"`
	Started     bool   `json:"started"`
	Paused      bool   `json:"paused"`
	Uptime      string `json:"uptime"`
	Frequency   string `json:"frequency"`
	JobCount    int    `json:"job_count"`
	RunningJobs int    `json:"running_jobs"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusView{
		Version:     s.version,
		Started:     s.scheduler.Started(),
		Paused:      s.scheduler.Paused(),
		Uptime:      rufus.FormatDuration(s.scheduler.Uptime().Truncate(time.Second)),
		Frequency:   rufus.FormatDuration(s.scheduler.Frequency()),
		JobCount:    len(s.scheduler.Jobs()),
		RunningJobs: len(s.scheduler.RunningJobs()),
	})
}

// jobView is the job payload shared by list and detail endpoints.
type jobView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Kind        string            `json:"kind"`
	Spec        string            `json:"spec"`
	State       string            `json:"state"`
	Tags        []string          `json:"tags,omitempty"`
	Paused      bool              `json:"paused"`
	Running     bool              `json:"running"`
	Count       int64             `json:"count"`
	NextTime    *time.Time        `json:"next_time,omitempty"`
	LastTime    *time.Time        `json:"last_time,omitempty"`
	ScheduledAt time.Time         `json:"scheduled_at"`
	Stats       rufus.HistoryStats `json:"stats"`
	History     []rufus.RunEntry  `json:"history,omitempty"`
}

func viewOf(job *rufus.Job, withHistory bool) jobView {
	v := jobView{
		ID:          job.ID(),
		Name:        job.Name(),
		Kind:        job.Kind().String(),
		Spec:        job.OriginalSpec(),
		State:       job.State().String(),
		Tags:        job.Tags(),
		Paused:      job.Paused(),
		Running:     job.Running(),
		Count:       job.Count(),
		ScheduledAt: job.ScheduledAt(),
		Stats:       job.History().Stats(),
	}
	if next := job.NextTime(); !next.IsZero() {
		v.NextTime = &next
	}
	if last := job.LastTime(); !last.IsZero() {
		v.LastTime = &last
	}
	if withHistory {
		v.History = job.History().Entries()
	}
	return v
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	var tags []string
	if q := r.URL.Query().Get("tags"); q != "" {
		tags = strings.Split(q, ",")
	}

	jobs := s.scheduler.Jobs(tags...)
	if r.URL.Query().Get("running") == "true" {
		jobs = filterRunning(jobs)
	}

	views := make([]jobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, viewOf(job, false))
	}
	writeJSON(w, http.StatusOK, views)
}

func filterRunning(jobs []*rufus.Job) []*rufus.Job {
	var out []*rufus.Job
	for _, job := range jobs {
		if job.Running() {
			out = append(out, job)
		}
	}
	return out
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job := s.scheduler.Job(r.PathValue("id"))
	if job == nil {
		writeError(w, http.StatusNotFound, "no such job")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(job, true))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.jobAction(w, r, s.scheduler.PauseJob)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.jobAction(w, r, s.scheduler.ResumeJob)
}

func (s *Server) handleUnschedule(w http.ResponseWriter, r *http.Request) {
	s.jobAction(w, r, s.scheduler.Unschedule)
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	s.jobAction(w, r, s.scheduler.TriggerJob)
}

func (s *Server) jobAction(w http.ResponseWriter, r *http.Request, action func(string) error) {
	id := r.PathValue("id")
	if err := action(id); err != nil {
		status := http.StatusBadRequest
		if isNotFound(err) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": id})
}

func isNotFound(err error) bool {
	return errors.Is(err, rufus.ErrNotFound)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	entries := s.output.Recent(limit)
	if jobName := r.URL.Query().Get("job"); jobName != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.JobName == jobName {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
