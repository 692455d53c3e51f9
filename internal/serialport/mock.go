package serialport

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrPortClosed is returned by MockPort after Close.
var ErrPortClosed = errors.New("serial port closed")

// MockPort is an in-memory serial port for tests. Reads block until data is
// pushed or the port is closed, the way a receiver with no IR activity does.
type MockPort struct {
	mu   sync.Mutex
	cond *sync.Cond

	buf     bytes.Buffer
	written bytes.Buffer

	// ReadError is returned once by the next Read if set.
	ReadError error

	Closed      bool
	ReadTimeout time.Duration
	Options     PortOptions
}

// NewMockPort returns an open MockPort.
func NewMockPort() *MockPort {
	m := &MockPort{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Opener returns an Opener that always yields m and records the options it
// was opened with.
func (m *MockPort) Opener() Opener {
	return func(path string, opts PortOptions) (SerialPorter, error) {
		n, err := opts.Normalize()
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.Options = n
		m.mu.Unlock()
		return m, nil
	}
}

// PushLine queues one receiver line such as "pulse 560".
func (m *MockPort) PushLine(format string, v ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(&m.buf, format, v...)
	m.buf.WriteByte('\n')
	m.cond.Broadcast()
}

func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for !m.Closed && m.ReadError == nil && m.buf.Len() == 0 {
		m.cond.Wait()
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.ReadError = nil
		return 0, err
	}
	if m.buf.Len() > 0 {
		return m.buf.Read(p)
	}
	return 0, ErrPortClosed
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return 0, ErrPortClosed
	}
	return m.written.Write(p)
}

// Fail makes the next Read return err.
func (m *MockPort) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadError = err
	m.cond.Broadcast()
}

// Close wakes any blocked reader.
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	m.cond.Broadcast()
	return nil
}

// SetReadTimeout implements TimeoutSerialPorter.
func (m *MockPort) SetReadTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadTimeout = timeout
	return nil
}

// Written returns everything written to the port.
func (m *MockPort) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written.Bytes()...)
}

var _ TimeoutSerialPorter = (*MockPort)(nil)
