package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/gwillem/armctl/pkg/joystick"
	"github.com/gwillem/armctl/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// maxJoysticks is how many /dev/input/js* indices setup probes.
const maxJoysticks = 8

const customDevice = "custom"

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("armctl setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Step 1: arm device
	fmt.Println(subHeaderStyle.Render("━━━ Arm device ━━━"))
	fmt.Println()
	pickDevice(&cfg.Device)

	if err := verifyDevice(cfg.Device); err != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("Arm did not answer: %v", err)))
		fmt.Println(dimStyle.Render("Saving anyway; run will keep retrying the device."))
	}

	// Step 2: joystick
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Joystick ━━━"))
	fmt.Println()
	pickJoystick(&cfg.Joystick)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Start with: " + headerStyle.Render("armctl run"))
	return nil
}

// deviceCandidates lists arm driver nodes and serial ports, current path
// first.
func deviceCandidates(current string) []string {
	seen := map[string]bool{}
	var paths []string
	add := func(p string) {
		if p == "" || seen[p] || strings.Contains(p, "Bluetooth") {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	add(current)
	nodes, _ := filepath.Glob("/dev/roboarm*")
	for _, n := range nodes {
		add(n)
	}
	ports, err := robot.ListSerialPorts()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
	}
	for _, p := range ports {
		add(p)
	}
	return paths
}

func pickDevice(dev *robot.DeviceConfig) {
	var options []huh.Option[string]
	for _, p := range deviceCandidates(dev.Path) {
		options = append(options, huh.NewOption(p, p))
	}
	options = append(options, huh.NewOption("Other path...", customDevice))

	path := dev.Path
	transport := dev.Transport
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which device is the arm?").
				Options(options...).
				Value(&path),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Device path").
				Value(&path).
				Validate(func(s string) error {
					if s == "" || s == customDevice {
						return fmt.Errorf("enter a device path")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return path != customDevice }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How is it attached?").
				Options(
					huh.NewOption("Kernel driver (character device)", robot.TransportCharDev),
					huh.NewOption("Serial port", robot.TransportSerial),
				).
				Value(&transport),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	dev.Path = path
	dev.Transport = transport
}

// verifyDevice sends stop:all and prints the status frame.
func verifyDevice(dev robot.DeviceConfig) error {
	ch := robot.NewChannel(dev)
	defer ch.Close()

	fmt.Printf("Sending %s to %s...\n", robot.CmdStopAll, dev.Path)
	st, err := ch.Send(robot.CmdStopAll)
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("  Arm answered: " + st.String()))
	return nil
}

func pickJoystick(jc *robot.JoystickConfig) {
	var options []huh.Option[int]
	for i := 0; i < maxJoysticks; i++ {
		dev, err := joystick.Open(i)()
		if err != nil {
			continue
		}
		label := fmt.Sprintf("js%d: %s", i, dev.Name())
		dev.Close()
		fmt.Printf("  Found %s\n", label)
		options = append(options, huh.NewOption(label, i))
	}
	if len(options) == 0 {
		fmt.Println("No joystick found. Keeping index", jc.Index)
		return
	}

	index := jc.Index
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Which joystick should drive the arm?").
				Options(options...).
				Value(&index),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	jc.Index = index
}
