// Package armctl drives a five-joint robotic arm from a terminal.
//
// Commands come from one of three input sources at a time: on-screen
// buttons clicked with the mouse, the keyboard, or an analog joystick.
// Each source is turned into start and stop commands for the arm's
// joints and light, written to the arm device one at a time. After every
// command the device answers with a status frame (connection, result of
// the last command, battery level), shown in the UI.
//
// # Installation
//
//	go install github.com/gwillem/armctl/cmd/armctl@latest
//
// # Usage
//
// Pick the arm device and joystick once:
//
//	armctl setup
//
// Check how the joystick axes move:
//
//	armctl probe
//
// Then control the arm, switching input with tab:
//
//	armctl run --mode keyboard --metrics-addr :9100
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/armctl: CLI with run, setup and probe commands
//   - pkg/robot: Command vocabulary, status frames, device channel and configuration
//   - pkg/teleop: Input arbitration, command translation and the joystick poll loop
//   - pkg/joystick: Linux joystick device access
//   - pkg/metrics: Prometheus metrics
package armctl
