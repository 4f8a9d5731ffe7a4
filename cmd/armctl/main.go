package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/gwillem/armctl/pkg/robot"
)

type Options struct {
	Config string `short:"c" long:"config" default:"armctl.json" description:"Configuration file"`
	Debug  bool   `long:"debug" description:"Log every command sent"`

	Run   RunCommand   `command:"run" description:"Control the arm from the terminal"`
	Setup SetupCommand `command:"setup" description:"Pick the arm device and joystick, then save the configuration"`
	Probe ProbeCommand `command:"probe" description:"Show live joystick axes and buttons"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "armctl - drive a robotic arm from pointer, keyboard or joystick"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, falling back to defaults when
// it does not exist.
func loadConfig() (*robot.Config, error) {
	cfg, err := robot.LoadConfigFrom(opts.Config)
	if errors.Is(err, os.ErrNotExist) {
		def := robot.DefaultConfig()
		return &def, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func logLevel() slog.Level {
	if opts.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
