package serialport

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptions_Normalize_Defaults(t *testing.T) {
	got, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestPortOptions_Normalize_ParityAliases(t *testing.T) {
	tests := map[string]string{
		"":     "N",
		"none": "N",
		" e ":  "E",
		"Even": "E",
		"o":    "O",
		"ODD":  "O",
	}
	for in, want := range tests {
		got, err := PortOptions{Parity: in}.Normalize()
		if err != nil {
			t.Errorf("Normalize(parity %q) error = %v", in, err)
			continue
		}
		if got.Parity != want {
			t.Errorf("Normalize(parity %q) = %q, want %q", in, got.Parity, want)
		}
	}
}

func TestPortOptions_Normalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"data bits too low", PortOptions{DataBits: 4}},
		{"data bits too high", PortOptions{DataBits: 9}},
		{"stop bits", PortOptions{StopBits: 3}},
		{"parity", PortOptions{Parity: "M"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.opts.Normalize(); err == nil {
				t.Errorf("expected error for %+v", tc.opts)
			}
		})
	}
}

func TestPortOptions_Equal(t *testing.T) {
	a := PortOptions{}
	b := PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "none"}
	if !a.Equal(b) {
		t.Errorf("%+v should equal %+v after normalization", a, b)
	}
	if a.Equal(PortOptions{BaudRate: 9600}) {
		t.Error("different baud rates should not be equal")
	}
	if a.Equal(PortOptions{DataBits: 12}) {
		t.Error("invalid options should never be equal")
	}
}

func TestPortOptions_String(t *testing.T) {
	if got := (PortOptions{}).String(); got != "115200 8N1" {
		t.Errorf("String() = %q, want %q", got, "115200 8N1")
	}
	if got := (PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"}).String(); got != "9600 7E2" {
		t.Errorf("String() = %q, want %q", got, "9600 7E2")
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "O"}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode() error = %v", err)
	}
	if mode.BaudRate != 9600 || mode.DataBits != 7 {
		t.Errorf("mode = %+v", mode)
	}
	if mode.StopBits != serial.TwoStopBits {
		t.Errorf("StopBits = %v, want TwoStopBits", mode.StopBits)
	}
	if mode.Parity != serial.OddParity {
		t.Errorf("Parity = %v, want OddParity", mode.Parity)
	}

	mode, err = PortOptions{}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode() error = %v", err)
	}
	if mode.StopBits != serial.OneStopBit || mode.Parity != serial.NoParity {
		t.Errorf("default mode = %+v", mode)
	}

	if _, err := (PortOptions{StopBits: 5}).SerialMode(); err == nil {
		t.Error("expected error for invalid stop bits")
	}
}
