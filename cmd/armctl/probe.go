package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/armctl/pkg/joystick"
	"github.com/gwillem/armctl/pkg/robot"
)

type ProbeCommand struct {
	Joystick int `short:"j" long:"joystick" default:"-1" description:"Joystick index (overrides config)"`
}

func (c *ProbeCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	index := cfg.Joystick.Index
	if c.Joystick >= 0 {
		index = c.Joystick
	}

	dev, err := joystick.Open(index)()
	if err != nil {
		fatalf("%v", err)
	}
	defer dev.Close()

	fmt.Println(headerStyle.Render("Probing " + dev.Name()))
	fmt.Println(dimStyle.Render("Move each stick to its limits to see the range it reaches."))
	fmt.Println()

	p := tea.NewProgram(newProbeModel(dev, cfg.Joystick))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run probe: %w", err)
	}
	return nil
}

// probeModel shows live axis values with the range seen so far.
type probeModel struct {
	dev      joystick.Device
	cfg      robot.JoystickConfig
	state    joystick.State
	min, max []int
	err      error
	quitting bool
}

type probeTickMsg time.Time

func probeTick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return probeTickMsg(t)
	})
}

func newProbeModel(dev joystick.Device, cfg robot.JoystickConfig) probeModel {
	return probeModel{dev: dev, cfg: cfg}
}

func (m probeModel) Init() tea.Cmd {
	return probeTick()
}

func (m probeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case probeTickMsg:
		st, err := m.dev.Read()
		if err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.state = st
		for i, v := range st.AxisData {
			if i >= len(m.min) {
				m.min = append(m.min, v)
				m.max = append(m.max, v)
				continue
			}
			m.min[i] = min(m.min[i], v)
			m.max[i] = max(m.max[i], v)
		}
		return m, probeTick()
	}

	return m, nil
}

func (m probeModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Joystick lost: %v", m.err)) + "\n"
	}
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableAxisStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableMovingStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)

	rows := make([][]string, 0, len(m.state.AxisData))
	dirs := make([]robot.Direction, 0, len(m.state.AxisData))
	for i, v := range m.state.AxisData {
		joint, dir := "-", robot.Stopped
		if cal, ok := m.cfg.Axes.ByAxis(i); ok {
			joint = string(cal.Joint)
			dir = cal.Classify(robot.ClampAxis(v))
		}
		dirs = append(dirs, dir)
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", v),
			fmt.Sprintf("%d", m.min[i]),
			fmt.Sprintf("%d", m.max[i]),
			joint,
			dir.String(),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Axis", "Current", "Min", "Max", "Joint", "Direction").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableAxisStyle
			case 1:
				return tableCurrentStyle
			case 5:
				if row >= 0 && row < len(dirs) && dirs[row] != robot.Stopped {
					return tableMovingStyle
				}
				return tableCellStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")

	var pressed []string
	for b := 0; b < 32; b++ {
		if m.state.Buttons&(1<<b) == 0 {
			continue
		}
		label := fmt.Sprintf("%d", b)
		if ctl, ok := m.cfg.Buttons[b]; ok {
			label += "=" + ctl.String()
		}
		pressed = append(pressed, label)
	}
	if len(pressed) == 0 {
		pressed = []string{"none"}
	}
	sb.WriteString("Buttons: " + strings.Join(pressed, " "))
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))

	return sb.String()
}
