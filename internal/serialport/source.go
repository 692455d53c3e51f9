package serialport

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// InputKind is the kind of capture input selected by OpenInput.
type InputKind string

const (
	InputStdin  InputKind = "stdin"
	InputFile   InputKind = "file"
	InputSerial InputKind = "serial"
)

// serialPrefixes are device paths treated as serial ports without -serial.
var serialPrefixes = []string{"/dev/tty", "/dev/cu.", "COM"}

// Source opens capture inputs. The zero value is not usable; see
// DefaultSource.
type Source struct {
	Stdin      io.Reader
	OpenSerial Opener
	OpenFile   func(path string) (io.ReadCloser, error)
}

// DefaultSource reads from the process stdin, real serial ports and the
// local filesystem.
func DefaultSource() Source {
	return Source{
		Stdin:      os.Stdin,
		OpenSerial: Open,
		OpenFile: func(path string) (io.ReadCloser, error) {
			return os.Open(filepath.Clean(path))
		},
	}
}

// Kind reports how name would be opened.
func Kind(name string, forceSerial bool) InputKind {
	if name == "" || name == "-" {
		return InputStdin
	}
	if forceSerial {
		return InputSerial
	}
	for _, p := range serialPrefixes {
		if strings.HasPrefix(name, p) {
			return InputSerial
		}
	}
	return InputFile
}

// OpenInput opens name: "-" is standard input, device paths (or any path
// when forceSerial is set) are serial ports, anything else is a file.
func (s Source) OpenInput(name string, forceSerial bool, opts PortOptions) (io.ReadCloser, InputKind, error) {
	kind := Kind(name, forceSerial)
	switch kind {
	case InputStdin:
		return io.NopCloser(s.Stdin), kind, nil
	case InputSerial:
		port, err := s.OpenSerial(name, opts)
		if err != nil {
			return nil, kind, fmt.Errorf("failed to open serial port %s (%s): %w", name, opts, err)
		}
		return port, kind, nil
	default:
		f, err := s.OpenFile(name)
		if err != nil {
			return nil, kind, fmt.Errorf("failed to open capture file: %w", err)
		}
		return f, kind, nil
	}
}
