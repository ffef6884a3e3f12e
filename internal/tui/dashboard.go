// Package tui renders the interactive job dashboard: a live table of
// background jobs with keybindings to start runs, cancel jobs, and filter.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"mpvscraper/internal/jobs"
)

const (
	pollInterval = 200 * time.Millisecond
	eventTailLen = 6
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginBottom(1)

	statusStyles = map[jobs.Status]lipgloss.Style{
		jobs.StatusQueued:    lipgloss.NewStyle().Foreground(lipgloss.Color("#A8DADC")),
		jobs.StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D")),
		jobs.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3")),
		jobs.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		jobs.StatusCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D")),
	}

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(0, 1)
)

// Starter enqueues the library run and returns its job id. The dashboard
// never touches the workflow directly; it only observes the job manager.
type Starter func() string

// tickMsg drives the periodic snapshot poll.
type tickMsg struct{}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	manager *jobs.Manager
	start   Starter

	table   table.Model
	spinner spinner.Model
	filter  textinput.Model

	filtering bool
	snapshot  []jobs.Job
	status    string
	seen      map[string]jobs.Status
	events    []string

	width  int
	height int
}

// NewModel builds the dashboard over a job manager.
func NewModel(manager *jobs.Manager, start Starter) Model {
	columns := []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Name", Width: 18},
		{Title: "Status", Width: 10},
		{Title: "Step", Width: 34},
		{Title: "Started", Width: 8},
	}
	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#1A1B26")).Background(lipgloss.Color("#4ECDC4"))
	tbl.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))

	filter := textinput.New()
	filter.Placeholder = "filter jobs"
	filter.CharLimit = 60
	filter.Width = 30

	return Model{
		manager: manager,
		start:   start,
		table:   tbl,
		spinner: sp,
		filter:  filter,
		seen:    make(map[string]jobs.Status),
	}
}

// Init starts the spinner and the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, poll())
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		height := msg.Height - 8
		if height < 4 {
			height = 4
		}
		m.table.SetHeight(height)
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			switch msg.String() {
			case "enter", "esc":
				m.filtering = false
				m.filter.Blur()
				if msg.String() == "esc" {
					m.filter.SetValue("")
				}
				m.refreshRows()
				return m, nil
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.refreshRows()
				return m, cmd
			}
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			if m.start != nil {
				id := m.start()
				m.status = "started run " + id
			}
		case "c":
			if row := m.table.SelectedRow(); len(row) > 0 {
				if m.manager.Cancel(row[0]) {
					m.status = "cancelling " + row[0]
				} else {
					m.status = row[0] + " is already finished"
				}
			}
		case "f":
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		m.snapshot = m.manager.List()
		m.recordTransitions()
		m.refreshRows()
		cmds = append(cmds, poll())
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// recordTransitions appends a tail line for every job whose status changed
// since the previous poll, keeping the last few for the event log.
func (m *Model) recordTransitions() {
	for _, job := range m.snapshot {
		prev, known := m.seen[job.ID]
		if known && prev == job.Status {
			continue
		}
		m.seen[job.ID] = job.Status
		line := fmt.Sprintf("%s  %s %s %s",
			time.Now().Format("15:04:05"), job.ID, job.Name,
			statusStyles[job.Status].Render(string(job.Status)))
		if job.Error != "" {
			line += ": " + job.Error
		}
		m.events = append(m.events, line)
	}
	if len(m.events) > eventTailLen {
		m.events = m.events[len(m.events)-eventTailLen:]
	}
}

// refreshRows rebuilds the table rows from the latest snapshot, applying
// the fuzzy filter when one is active.
func (m *Model) refreshRows() {
	query := strings.TrimSpace(m.filter.Value())
	rows := make([]table.Row, 0, len(m.snapshot))
	for _, job := range m.snapshot {
		if query != "" && !fuzzy.MatchNormalizedFold(query, job.Name) && !strings.HasPrefix(job.ID, query) {
			continue
		}
		step := job.Step
		if job.Error != "" {
			step = job.Error
		}
		rows = append(rows, table.Row{
			job.ID,
			job.Name,
			string(job.Status),
			step,
			job.StartedAt.Local().Format("15:04:05"),
		})
	}
	m.table.SetRows(rows)
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("mpv-scraper jobs"))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.table.View()))
	b.WriteString("\n")

	running := 0
	for _, job := range m.snapshot {
		if job.Status == jobs.StatusRunning || job.Status == jobs.StatusQueued {
			running++
		}
	}
	if running > 0 {
		b.WriteString(fmt.Sprintf("%s %d active\n", m.spinner.View(), running))
	}
	for _, line := range m.events {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(statusLine(m.snapshot, m.status))
		b.WriteString("\n")
	}
	if m.filtering {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("s start run • c cancel • f filter • q quit"))
	return b.String()
}

func statusLine(snapshot []jobs.Job, status string) string {
	for _, job := range snapshot {
		if strings.Contains(status, job.ID) && job.Status.Terminal() {
			return statusStyles[job.Status].Render(status + " (" + string(job.Status) + ")")
		}
	}
	return status
}

// Run starts the dashboard program and blocks until the user quits.
func Run(manager *jobs.Manager, start Starter) error {
	_, err := tea.NewProgram(NewModel(manager, start), tea.WithAltScreen()).Run()
	return err
}
