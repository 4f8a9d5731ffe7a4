package robot

import "errors"

var (
	// ErrDeviceUnavailable means the arm device could not be opened
	// (unplugged, missing node, no permission).
	ErrDeviceUnavailable = errors.New("arm device unavailable")

	// ErrWriteFailed means the device opened but the command was not
	// written completely.
	ErrWriteFailed = errors.New("command write failed")

	// ErrStatusUnparseable means the command was written but the status
	// read-back was missing or malformed. The command itself was delivered.
	ErrStatusUnparseable = errors.New("status frame unparseable")
)
