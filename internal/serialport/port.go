// Package serialport opens the capture input for the decoder: standard input,
// a recorded capture file, or a serial-attached IR receiver that prints
// pulse/space lines.
package serialport

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter extends SerialPorter with timeout capabilities.
// serial.Port implements it.
type TimeoutSerialPorter interface {
	SerialPorter
	SetReadTimeout(timeout time.Duration) error
}

// Opener opens a serial port at path with the given options.
type Opener func(path string, opts PortOptions) (SerialPorter, error)

// Open opens a real serial port using go.bug.st/serial.
func Open(path string, opts PortOptions) (SerialPorter, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	// Reads block indefinitely; the feeder's poll timer provides timeouts.
	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// Ports lists the serial ports present on the host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

var _ TimeoutSerialPorter = (serial.Port)(nil)
