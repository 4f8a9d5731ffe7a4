package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	zone "github.com/lrstanley/bubblezone"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/armctl/pkg/joystick"
	"github.com/gwillem/armctl/pkg/metrics"
	"github.com/gwillem/armctl/pkg/robot"
	"github.com/gwillem/armctl/pkg/teleop"
)

type RunCommand struct {
	Device      string `short:"d" long:"device" description:"Arm device path (overrides config)"`
	Transport   string `long:"transport" choice:"chardev" choice:"serial" description:"Arm transport (overrides config)"`
	Joystick    int    `short:"j" long:"joystick" default:"-1" description:"Joystick index (overrides config)"`
	Mode        string `short:"m" long:"mode" default:"pointer" choice:"pointer" choice:"keyboard" choice:"controller" description:"Initial input mode"`
	MetricsAddr string `long:"metrics-addr" description:"Serve Prometheus metrics on this address, e.g. :9100"`
	LogFile     string `long:"log-file" default:"armctl.log" description:"Log file"`
}

const (
	chartHeight = 8
	maxLogs     = 5
	tickEvery   = 50 * time.Millisecond
)

// Joint colors for the axis chart
var jointColors = map[robot.Joint]string{
	robot.Base:     "196", // red
	robot.Shoulder: "208", // orange
	robot.Elbow:    "226", // yellow
	robot.Wrist:    "46",  // green
	robot.Claw:     "51",  // cyan
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	buttonStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	pressedStyle = buttonStyle.BorderForeground(lipgloss.Color("10")).Foreground(lipgloss.Color("10"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type runModel struct {
	engine   *teleop.Engine
	poller   *teleop.Poller
	axes     robot.Calibration
	keys     map[string]robot.Control
	hold     *teleop.HoldTracker
	chart    *streamlinechart.Model
	snap     teleop.Snapshot
	pointer  robot.Control // control held by the mouse, -1 if none
	width    int
	logs     []string
	quitting bool
}

// Messages from the engine and poller
type telemetryMsg teleop.Telemetry
type logMsg string
type tickMsg time.Time

func waitForTelemetry(p *teleop.Poller) tea.Cmd {
	return func() tea.Msg {
		return telemetryMsg(<-p.Telemetry())
	}
}

func waitForLog(e *teleop.Engine) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-e.Logs())
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func newRunModel(e *teleop.Engine, p *teleop.Poller, cfg *robot.Config) runModel {
	chart := streamlinechart.New(60, chartHeight,
		streamlinechart.WithYRange(-32768, 32767),
	)
	for _, ax := range cfg.Joystick.Axes {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[ax.Joint]))
		chart.SetDataSetStyles(string(ax.Joint), runes.ThinLineStyle, style)
	}

	return runModel{
		engine:  e,
		poller:  p,
		axes:    cfg.Joystick.Axes,
		keys:    cfg.Keyboard.Keys,
		hold:    teleop.NewHoldTracker(cfg.Keyboard.ReleaseTimeout()),
		chart:   &chart,
		snap:    e.Snapshot(),
		pointer: -1,
	}
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *runModel) setMode(mode teleop.InputMode) {
	m.engine.SetMode(mode)
	// The engine has already stopped whatever these were holding.
	m.hold.ReleaseAll()
	m.pointer = -1
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForTelemetry(m.poller),
		waitForLog(m.engine),
		tick(),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 4
		if w < 40 {
			w = 40
		}
		m.chart.Resize(w, chartHeight)
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.setMode(m.engine.Mode().Next())
			m.snap = m.engine.Snapshot()
			return m, nil
		}
		if c, ok := m.keys[key]; ok && m.engine.Authorized(teleop.Keyboard) {
			if m.hold.Press(key, time.Now()) {
				m.engine.Press(teleop.Keyboard, c)
			}
		}
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		m.snap = m.engine.Snapshot()
		return m, nil

	case tickMsg:
		for _, key := range m.hold.Expire(time.Time(msg)) {
			if c, ok := m.keys[key]; ok {
				m.engine.Release(teleop.Keyboard, c)
			}
		}
		m.snap = m.engine.Snapshot()
		return m, tick()

	case telemetryMsg:
		for _, ax := range m.axes {
			m.chart.PushDataSet(string(ax.Joint), float64(msg.Axes[ax.Axis]))
		}
		m.chart.DrawAll()
		return m, waitForTelemetry(m.poller)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.engine)
	}

	return m, nil
}

func (m *runModel) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		for _, mode := range teleop.AllModes() {
			if zone.Get("mode-" + mode.String()).InBounds(msg) {
				m.setMode(mode)
				return
			}
		}
		for _, c := range robot.AllControls() {
			if !zone.Get("ctl-" + c.String()).InBounds(msg) {
				continue
			}
			if c.Momentary() {
				m.engine.Click(teleop.Pointer, c)
				return
			}
			if m.engine.Press(teleop.Pointer, c) {
				m.pointer = c
			}
			return
		}

	case tea.MouseActionRelease:
		// Terminals do not always say which button was released.
		if m.pointer.Valid() {
			m.engine.Release(teleop.Pointer, m.pointer)
			m.pointer = -1
		}
	}
}

func (m runModel) View() string {
	if m.quitting {
		return "Arm stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("armctl"))
	sb.WriteString("  ")
	sb.WriteString(m.renderModes())
	sb.WriteString("\n\n")

	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatus(),
		"  ",
		m.renderControls(),
	))
	sb.WriteString("\n")

	if len(m.axes) > 0 {
		sb.WriteString(chartStyle.Render(m.chart.View()))
		sb.WriteString("\n")
		sb.WriteString(m.renderLegend())
		sb.WriteString("\n")
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240"))
	if m.width > 4 {
		logStyle = logStyle.Width(m.width - 4)
	}
	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("tab: switch input  q: quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return zone.Scan(sb.String())
}

func (m runModel) renderModes() string {
	var items []string
	for _, mode := range teleop.AllModes() {
		item := "( ) " + mode.String()
		if mode == m.snap.Mode {
			item = activeStyle.Render("(•) " + mode.String())
		}
		items = append(items, zone.Mark("mode-"+mode.String(), item))
	}
	return strings.Join(items, "  ")
}

func (m runModel) renderStatus() string {
	snap := m.snap

	device := []string{"unknown", "unknown", "unknown"}
	if snap.HasDevice {
		device = []string{
			snap.Device.ConnectionText(),
			snap.Device.LastCommandText(),
			snap.Device.BatteryText(),
		}
	}
	js := "waiting"
	if snap.JoystickConnected {
		js = snap.JoystickName
	}
	sent := string(snap.LastCommand)
	if sent == "" {
		sent = "-"
	}
	lastErr := snap.LastError
	if lastErr == "" {
		lastErr = "-"
	}

	rows := [][]string{
		{"Arm", device[0]},
		{"Last command", device[1]},
		{"Battery", device[2]},
		{"Joystick", js},
		{"Sent", sent},
		{"Error", lastErr},
	}

	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	errCellStyle := errorStyle.Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(statusStyle).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return keyStyle
			}
			if row == len(rows)-1 && snap.LastError != "" {
				return errCellStyle
			}
			return cellStyle
		})
	return t.Render()
}

// renderControls draws one clickable button per control, joints as
// positive/negative pairs.
func (m runModel) renderControls() string {
	button := func(c robot.Control) string {
		style := buttonStyle
		if c == m.pointer {
			style = pressedStyle
		}
		return zone.Mark("ctl-"+c.String(), style.Render(string(c.Start())))
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, button(robot.LightOn), button(robot.LightOff)),
	}
	controls := robot.AllControls()
	for i := 2; i+1 < len(controls); i += 2 {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, button(controls[i]), button(controls[i+1])))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m runModel) renderLegend() string {
	var items []string
	for _, ax := range m.axes {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[ax.Joint])).Bold(true)
		items = append(items, colorStyle.Render("━━")+fmt.Sprintf(" %s (axis %d)", ax.Joint, ax.Axis))
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Device != "" {
		cfg.Device.Path = c.Device
	}
	if c.Transport != "" {
		cfg.Device.Transport = c.Transport
	}
	if c.Joystick >= 0 {
		cfg.Joystick.Index = c.Joystick
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	mode, err := teleop.ParseInputMode(c.Mode)
	if err != nil {
		return err
	}

	f, err := tea.LogToFile(c.LogFile, "armctl")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel()}))

	reg := prometheus.NewRegistry()
	mtr := metrics.New(reg)
	if c.MetricsAddr != "" {
		srv := &http.Server{Addr: c.MetricsAddr, Handler: metrics.Handler(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "error", err)
			}
		}()
		defer srv.Close()
	}

	ch := robot.NewChannel(cfg.Device)
	defer ch.Close()

	engine := teleop.NewEngine(ch, cfg.Joystick.Axes,
		teleop.WithLogger(logger),
		teleop.WithMetrics(mtr),
		teleop.WithButtons(cfg.Joystick.Buttons),
		teleop.WithMode(mode),
	)
	// The device may come up later; every command retries the open.
	if err := engine.Start(); err != nil {
		logger.Warn("arm not ready", "device", cfg.Device.Path, "error", err)
	}

	poller := teleop.NewPoller(engine, teleop.PollerConfig{
		Open:              joystick.Open(cfg.Joystick.Index),
		Axes:              cfg.Joystick.Axes.Axes(),
		PollInterval:      cfg.Joystick.PollInterval(),
		ReconnectInterval: cfg.Joystick.ReconnectInterval(),
		Logger:            logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	zone.NewGlobal()
	p := tea.NewProgram(newRunModel(engine, poller, cfg), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := p.Run()

	cancel()
	wg.Wait()
	if err := engine.Close(); err != nil {
		logger.Warn("final stop not confirmed", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("run TUI: %w", runErr)
	}
	return nil
}
