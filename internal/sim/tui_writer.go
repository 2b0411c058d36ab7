package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a reading line for the main viewport.
type logMsg struct{ line string }

// alertMsg carries an alert line for the alerts section.
type alertMsg struct {
	line     string
	severity string
}

// healthMsg carries the latest device health summary.
type healthMsg struct{ telemetry.HealthSummary }

// readingMsg carries the latest reading for the status footer.
type readingMsg struct{ telemetry.Reading }

// adminMsg reports admin server status.
type adminMsg struct{ active bool }

const (
	maxLogLines         = 1000
	maxSectionHeightPct = 0.2
)

// TUIWriter renders readings, alerts and device health using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	th         config.Thresholds
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the TUI interrupts the process so the sampling loop shuts down too.
func NewTUIWriter(deviceName string, th config.Thresholds) *TUIWriter {
	w := &TUIWriter{th: th, done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(deviceName, th), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements TelemetryWriter.
func (w *TUIWriter) Write(r telemetry.Reading) error {
	w.program.Send(logMsg{line: formatReading(r, w.th)})
	for _, a := range r.Alerts {
		w.program.Send(alertMsg{line: formatAlert(a), severity: a.Severity})
	}
	w.program.Send(readingMsg{r})
	return nil
}

// WriteHealth implements HealthWriter.
func (w *TUIWriter) WriteHealth(h telemetry.HealthSummary) error {
	w.program.Send(healthMsg{h})
	return nil
}

// SetAdminStatus updates the admin server indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	deviceName   string
	table        table.Model
	vp           viewport.Model
	alertVP      viewport.Model
	logs         []string
	alertLogs    []string
	alertCounts  map[string]int
	health       telemetry.HealthSummary
	haveHealth   bool
	latest       telemetry.Reading
	haveLatest   bool
	admin        bool
	wrap         bool
	autoscroll   bool
	help         bool
	header       string
	headerHeight int
	height       int
}

func newTUIModel(deviceName string, th config.Thresholds) tuiModel {
	cols := []table.Column{
		{Title: "Threshold", Width: 20},
		{Title: "Value", Width: 10},
		{Title: "Threshold", Width: 20},
		{Title: "Value", Width: 10},
	}
	rows := []table.Row{
		{"Temp High (°C)", fmt.Sprintf("%.1f", th.TempHigh), "Temp Low (°C)", fmt.Sprintf("%.1f", th.TempLow)},
		{"Humidity High (%)", fmt.Sprintf("%.1f", th.HumidityHigh), "Humidity Low (%)", fmt.Sprintf("%.1f", th.HumidityLow)},
		{"Prediction Deviation", fmt.Sprintf("%.1f", th.PredictionDeviation), "", ""},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		deviceName:  deviceName,
		table:       t,
		vp:          viewport.New(0, 0),
		alertVP:     viewport.New(0, 0),
		alertCounts: make(map[string]int),
		autoscroll:  true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.alertVP.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
		m.refreshAlerts()
	case tea.KeyMsg:
		if m.help {
			switch msg.String() {
			case "?", "h", "esc":
				m.help = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			m.refreshAlerts()
			m.header = m.renderHeader()
			m.headerHeight = lipgloss.Height(m.header)
			m.updateViewportHeight()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
				m.alertVP.GotoBottom()
			}
			return m, nil
		case "h", "?":
			m.help = true
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
		}
		return m, nil
	case logMsg:
		m.logs = appendCapped(m.logs, msg.line)
		m.refreshViewport()
	case alertMsg:
		m.alertLogs = appendCapped(m.alertLogs, msg.line)
		m.alertCounts[msg.severity]++
		if m.height > 0 {
			m.updateViewportHeight()
		}
		m.refreshAlerts()
	case readingMsg:
		m.latest = msg.Reading
		m.haveLatest = true
	case healthMsg:
		m.health = msg.HealthSummary
		m.haveHealth = true
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

func appendCapped(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	return lines
}

func (m tuiModel) maxSectionLines() int {
	h := int(float64(m.height) * maxSectionHeightPct)
	if h < 1 {
		h = 1
	}
	return h
}

func (m *tuiModel) updateViewportHeight() {
	bottomHeight := lipgloss.Height(m.renderBottom())
	alertLines := len(m.alertLogs)
	if alertLines == 0 {
		alertLines = 1
	}
	if limit := m.maxSectionLines(); alertLines > limit {
		alertLines = limit
	}
	m.alertVP.Height = alertLines

	h := m.height - m.headerHeight - bottomHeight - (1 + m.alertVP.Height) - 3
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.alertVP.GotoBottom()
		m.vp.GotoBottom()
	}
}

func (m tuiModel) wrapLines(lines []string, width int) string {
	if !m.wrap || width <= 0 {
		return strings.Join(lines, "\n")
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = wordwrap.String(l, width)
	}
	return strings.Join(out, "\n")
}

func (m *tuiModel) refreshViewport() {
	m.vp.SetContent(m.wrapLines(m.logs, m.vp.Width))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshAlerts() {
	m.alertVP.SetContent(m.wrapLines(m.alertLogs, m.alertVP.Width))
	if m.autoscroll {
		m.alertVP.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.vp.View(),
		divider,
		fmt.Sprintf("Alerts: %d high, %d medium, %d info",
			m.alertCounts[telemetry.SeverityHigh],
			m.alertCounts[telemetry.SeverityMedium],
			m.alertCounts[telemetry.SeverityInfo]),
		m.alertVP.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Render(m.deviceName)
	if m.wrap && m.vp.Width > 0 {
		title = wordwrap.String(title, m.vp.Width)
	}
	return title + "\n" + m.table.View()
}

func indicator(on bool) string {
	c := lipgloss.Color("9")
	if on {
		c = lipgloss.Color("10")
	}
	return lipgloss.NewStyle().Foreground(c).Render("●")
}

func (m tuiModel) renderBottom() string {
	status := fmt.Sprintf("%sHEALTH%s waiting for first summary", colorBlue, colorReset)
	if m.haveHealth {
		status = fmt.Sprintf("%sHEALTH%s %s%s%s readings=%d failed=%d reliability=%.2f%% uptime=%.2fh",
			colorBlue, colorReset,
			healthColor(m.health.Status), m.health.Status, colorReset,
			m.health.TotalReadings, m.health.FailedReadings,
			m.health.ReliabilityPercent, m.health.UptimeHours)
	}
	if m.haveLatest {
		status += fmt.Sprintf(" | last=%.1f°C → %.1f°C", m.latest.Temperature, m.latest.Predicted())
	}
	return fmt.Sprintf("%s | Admin %s | Wrap %s | Scroll %s | Help h",
		status, indicator(m.admin), indicator(m.wrap), indicator(m.autoscroll))
}

func (m tuiModel) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q  quit",
		" w  toggle line wrap",
		" s  toggle auto-scroll",
		" h/? toggle this help view",
		"",
		"When auto-scroll is disabled:",
		" j/k or up/down    scroll one line",
		" pgdown/pgup       scroll a page",
	}
	return strings.Join(lines, "\n")
}
