package robot

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.bug.st/serial"
)

// maxFrame bounds a status read-back.
const maxFrame = 128

// Channel sends one command to the arm and returns the status it reports.
type Channel interface {
	Send(cmd Command) (DeviceStatus, error)
}

// Opener opens the transport to the arm.
type Opener func() (io.ReadWriteCloser, error)

// DeviceChannel is a Channel over a character device or a serial bridge.
type DeviceChannel struct {
	open Opener

	// persistent keeps the port open between sends and frames commands and
	// status lines with '\n'. Serial bridges need this; the character
	// device is opened and closed around every command.
	persistent bool

	mu   sync.Mutex
	port io.ReadWriteCloser
}

// NewChannel creates a channel for the configured device.
func NewChannel(cfg DeviceConfig) *DeviceChannel {
	timeout := cfg.ReadTimeout()
	switch cfg.Transport {
	case TransportSerial:
		return NewChannelWithOpener(func() (io.ReadWriteCloser, error) {
			return openSerial(cfg.Path, cfg.BaudRate, timeout)
		}, true)
	default:
		return NewChannelWithOpener(func() (io.ReadWriteCloser, error) {
			return openCharDev(cfg.Path, timeout)
		}, false)
	}
}

// NewChannelWithOpener creates a channel over an arbitrary transport.
func NewChannelWithOpener(open Opener, persistent bool) *DeviceChannel {
	return &DeviceChannel{open: open, persistent: persistent}
}

func openCharDev(path string, timeout time.Duration) (io.ReadWriteCloser, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	// Drivers without poll support return os.ErrNoDeadline; their read
	// returns immediately anyway.
	_ = f.SetReadDeadline(time.Now().Add(timeout))
	return f, nil
}

func openSerial(path string, baud int, timeout time.Duration) (io.ReadWriteCloser, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return port, nil
}

// Send writes cmd and reads back one status frame.
//
// Open failures return ErrDeviceUnavailable and write failures
// ErrWriteFailed; in both cases the command was not delivered. A missing or
// malformed status frame returns ErrStatusUnparseable after a successful
// write.
func (c *DeviceChannel) Send(cmd Command) (DeviceStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	port := c.port
	if port == nil {
		p, err := c.open()
		if err != nil {
			return DeviceStatus{}, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		port = p
	}

	line, err := c.exchange(port, cmd)
	switch {
	case !c.persistent:
		port.Close()
	case err != nil:
		// Drop the port so the next send reopens it.
		port.Close()
		c.port = nil
	default:
		c.port = port
	}
	if err != nil {
		return DeviceStatus{}, err
	}

	return ParseStatus(line)
}

// inputResetter discards bytes already received, as serial.Port does.
type inputResetter interface {
	ResetInputBuffer() error
}

func (c *DeviceChannel) exchange(port io.ReadWriter, cmd Command) (string, error) {
	payload := []byte(cmd)
	if c.persistent {
		payload = append(payload, '\n')
		// A late tail of an earlier frame must not be read as this
		// command's status.
		if r, ok := port.(inputResetter); ok {
			if err := r.ResetInputBuffer(); err != nil {
				return "", fmt.Errorf("%w: reset input: %v", ErrWriteFailed, err)
			}
		}
	}
	n, err := port.Write(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if n != len(payload) {
		return "", fmt.Errorf("%w: wrote %d of %d bytes", ErrWriteFailed, n, len(payload))
	}

	line, err := c.readFrame(port)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStatusUnparseable, err)
	}
	return line, nil
}

func (c *DeviceChannel) readFrame(r io.Reader) (string, error) {
	buf := make([]byte, 0, maxFrame)
	chunk := make([]byte, maxFrame)
	for len(buf) < maxFrame {
		n, err := r.Read(chunk[:maxFrame-len(buf)])
		buf = append(buf, chunk[:n]...)
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			return string(buf[:i]), nil
		}
		if n > 0 && !c.persistent {
			break
		}
		if err != nil || n == 0 {
			if len(buf) > 0 && err == nil {
				err = fmt.Errorf("unterminated frame %q", buf)
			}
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
	}
	if c.persistent {
		return "", fmt.Errorf("unterminated frame %q", buf)
	}
	return string(buf), nil
}

// Close releases a port held open by a persistent channel.
func (c *DeviceChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	return err
}

// ListSerialPorts returns the serial ports present on the system.
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
