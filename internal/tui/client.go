// Package tui is the interactive jobs dashboard for rufusd.
package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the rufusd management API.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// NewClient creates an API client for the given base URL.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		http:      &http.Client{Timeout: 5 * time.Second},
	}
}

// Status mirrors the API's status payload.
type Status struct {
	Version     string `json:"version"`
	Started     bool   `json:"started"`
	Paused      bool   `json:"paused"`
	Uptime      string `json:"uptime"`
	Frequency   string `json:"frequency"`
	JobCount    int    `json:"job_count"`
	RunningJobs int    `json:"running_jobs"`
}

// JobRow mirrors the API's job list payload.
type JobRow struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Spec     string     `json:"spec"`
	State    string     `json:"state"`
	Paused   bool       `json:"paused"`
	Running  bool       `json:"running"`
	Count    int64      `json:"count"`
	NextTime *time.Time `json:"next_time"`
	LastTime *time.Time `json:"last_time"`
}

// Status fetches the scheduler status.
func (c *Client) Status() (*Status, error) {
	var status Status
	if err := c.get("/api/v1/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Jobs fetches the scheduled jobs.
func (c *Client) Jobs() ([]JobRow, error) {
	var jobs []JobRow
	if err := c.get("/api/v1/jobs", &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Pause pauses a job by id.
func (c *Client) Pause(id string) error { return c.post("/api/v1/jobs/" + id + "/pause") }

// Resume resumes a job by id.
func (c *Client) Resume(id string) error { return c.post("/api/v1/jobs/" + id + "/resume") }

// Unschedule removes a job by id.
func (c *Client) Unschedule(id string) error { return c.post("/api/v1/jobs/" + id + "/unschedule") }

// Trigger fires a job immediately.
func (c *Client) Trigger(id string) error { return c.post("/api/v1/jobs/" + id + "/trigger") }

func (c *Client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(path string) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("api: %s", apiErr.Error)
		}
		return fmt.Errorf("api: unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
