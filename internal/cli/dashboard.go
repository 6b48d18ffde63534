package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/andrewm4894/github-standup-agent/pkg/models"
)

// Dashboard panel indices.
const (
	panelWorkLog = iota
	panelMetrics
	panelHistory
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	statusCounts map[string]int
	activeTasks  []taskSnapshot
	metricsData  *metricsSnapshot
	standups     []standupSnapshot

	// State.
	loading bool
	err     error
}

type taskSnapshot struct {
	title  string
	status string
}

type metricsSnapshot struct {
	tasksCreated   int
	tasksCompleted int
	workLogQueries int
	standupsPosted int
	eventCount     int
}

type standupSnapshot struct {
	date    string
	excerpt string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	statusCounts map[string]int
	activeTasks  []taskSnapshot
	metrics      *metricsSnapshot
	standups     []standupSnapshot
	err          error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	statusInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusCompleted  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusAbandoned  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel:  panelWorkLog,
		loading:      true,
		statusCounts: make(map[string]int),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusCounts = msg.statusCounts
		m.activeTasks = msg.activeTasks
		m.metricsData = msg.metrics
		m.standups = msg.standups
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Standup Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	workLogPanel := m.renderWorkLogPanel()
	metricsPanel := m.renderMetricsPanel()
	historyPanel := m.renderHistoryPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		workLogPanel = m.applyPanelStyle(panelWorkLog, workLogPanel, colWidth-4)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, colWidth-4)
		historyPanel = m.applyPanelStyle(panelHistory, historyPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, workLogPanel, metricsPanel, historyPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		workLogPanel = m.applyPanelStyle(panelWorkLog, workLogPanel, panelWidth)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, panelWidth)
		historyPanel = m.applyPanelStyle(panelHistory, historyPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, workLogPanel, metricsPanel, historyPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderWorkLogPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Work log"))
	b.WriteString("\n")

	if len(m.statusCounts) == 0 {
		b.WriteString("  No tasks logged.")
		return b.String()
	}

	order := []string{"in_progress", "completed", "abandoned"}
	for _, status := range order {
		count, ok := m.statusCounts[status]
		if !ok || count == 0 {
			continue
		}
		label := fmt.Sprintf("  %-14s %d", status, count)
		b.WriteString(styleForStatus(status).Render(label))
		b.WriteString("\n")
	}

	if len(m.activeTasks) > 0 {
		b.WriteString("\n  Active:\n")
		for _, t := range m.activeTasks {
			b.WriteString(fmt.Sprintf("  - %s\n", t.title))
		}
	}

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metrics (7d)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	lines := []struct {
		label string
		value int
	}{
		{"Events", md.eventCount},
		{"Created", md.tasksCreated},
		{"Completed", md.tasksCompleted},
		{"Queries", md.workLogQueries},
		{"Published", md.standupsPosted},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}

	return b.String()
}

func (m dashboardModel) renderHistoryPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent standups"))
	b.WriteString("\n")

	if len(m.standups) == 0 {
		b.WriteString("  No standups recorded.")
		return b.String()
	}

	for _, s := range m.standups {
		b.WriteString(fmt.Sprintf("  %s  %s\n", s.date, s.excerpt))
	}

	return b.String()
}

func styleForStatus(status string) lipgloss.Style {
	switch status {
	case "in_progress":
		return statusInProgress
	case "completed":
		return statusCompleted
	case "abandoned":
		return statusAbandoned
	default:
		return lipgloss.NewStyle()
	}
}

func loadData() tea.Msg {
	result := dataLoadedMsg{
		statusCounts: make(map[string]int),
	}

	if TaskStore != nil {
		tasks, err := TaskStore.ListTasks(models.TaskFilter{})
		if err != nil {
			result.err = fmt.Errorf("loading tasks: %w", err)
			return result
		}
		for _, t := range tasks {
			result.statusCounts[string(t.Status)]++
			if t.Status == models.StatusInProgress {
				result.activeTasks = append(result.activeTasks, taskSnapshot{
					title:  t.Title,
					status: string(t.Status),
				})
			}
		}
	}

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			tasksCreated:   metrics.TasksCreated,
			tasksCompleted: metrics.TasksCompleted,
			workLogQueries: metrics.WorkLogQueries,
			standupsPosted: metrics.StandupsPosted,
			eventCount:     metrics.EventCount,
		}
	}

	if History != nil {
		entries, err := History.Recent(5)
		if err != nil {
			result.err = fmt.Errorf("loading standup history: %w", err)
			return result
		}
		for _, e := range entries {
			excerpt := strings.SplitN(e.Summary, "\n", 2)[0]
			if len(excerpt) > 60 {
				excerpt = excerpt[:60] + "..."
			}
			result.standups = append(result.standups, standupSnapshot{
				date:    e.Date,
				excerpt: excerpt,
			})
		}
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for the work log and metrics",
	Long: `Launch an interactive terminal dashboard showing the work log,
telemetry metrics, and recent standups in a live view.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskStore == nil {
			return fmt.Errorf("task store not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
