package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshInterval = time.Second

type refreshMsg struct {
	status *Status
	jobs   []JobRow
	err    error
}

type actionMsg struct {
	err error
}

// Model is the dashboard's bubbletea model.
type Model struct {
	client *Client
	table  table.Model
	status *Status
	jobs   []JobRow
	errMsg string
	width  int
}

// New creates the dashboard model around an API client.
func New(client *Client) Model {
	columns := []table.Column{
		{Title: "NAME", Width: 18},
		{Title: "KIND", Width: 6},
		{Title: "SPEC", Width: 22},
		{Title: "STATE", Width: 12},
		{Title: "RUNS", Width: 6},
		{Title: "NEXT", Width: 20},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(16),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return Model{client: client, table: t}
}

// Run starts the dashboard and blocks until quit.
func Run(client *Client) error {
	_, err := tea.NewProgram(New(client), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.refresh
}

func (m Model) refresh() tea.Msg {
	status, err := m.client.Status()
	if err != nil {
		return refreshMsg{err: err}
	}
	jobs, err := m.client.Jobs()
	if err != nil {
		return refreshMsg{err: err}
	}
	return refreshMsg{status: status, jobs: jobs}
}

func scheduleRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

type refreshTickMsg struct{}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(msg.Height - 6)
		return m, nil

	case refreshTickMsg:
		return m, m.refresh

	case refreshMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, scheduleRefresh()
		}
		m.errMsg = ""
		m.status = msg.status
		m.jobs = msg.jobs
		m.table.SetRows(rowsOf(msg.jobs))
		return m, scheduleRefresh()

	case actionMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		return m, m.refresh

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p":
			return m, m.jobAction(m.client.Pause)
		case "r":
			return m, m.jobAction(m.client.Resume)
		case "t":
			return m, m.jobAction(m.client.Trigger)
		case "u":
			return m, m.jobAction(m.client.Unschedule)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) jobAction(action func(string) error) tea.Cmd {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.jobs) {
		return nil
	}
	id := m.jobs[cursor].ID
	return func() tea.Msg {
		return actionMsg{err: action(id)}
	}
}

func rowsOf(jobs []JobRow) []table.Row {
	rows := make([]table.Row, 0, len(jobs))
	for _, job := range jobs {
		name := job.Name
		if name == "" {
			name = shortID(job.ID)
		}
		state := job.State
		if job.Running {
			state = runningStyle.Render(state)
		} else if job.Paused {
			state = pausedStyle.Render("paused")
		}
		next := "-"
		if job.NextTime != nil {
			next = job.NextTime.Local().Format("2006-01-02 15:04:05")
		}
		rows = append(rows, table.Row{
			name,
			job.Kind,
			truncate(job.Spec, 22),
			state,
			fmt.Sprintf("%d", job.Count),
			next,
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// View implements tea.Model.
func (m Model) View() string {
	header := titleStyle.Render("rufus-scheduler")
	if m.status != nil {
		header += statusBarStyle.Render(fmt.Sprintf(
			"v%s  uptime %s  tick %s  jobs %d  running %d",
			m.status.Version, m.status.Uptime, m.status.Frequency,
			m.status.JobCount, m.status.RunningJobs,
		))
		if m.status.Paused {
			header += pausedStyle.Render(" PAUSED")
		}
	}

	body := tableBorderStyle.Render(m.table.View())
	help := helpStyle.Render("p pause · r resume · t trigger · u unschedule · q quit")

	out := header + "\n" + body + "\n" + help
	if m.errMsg != "" {
		out += "\n" + errorStyle.Render("error: "+m.errMsg)
	}
	return out
}
