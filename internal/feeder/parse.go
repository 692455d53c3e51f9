package feeder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMalformedLine indicates a line that is not "<token> <integer>".
	ErrMalformedLine = errors.New("malformed timing line")
	// ErrUnknownToken indicates a well formed line with a token other than
	// pulse or space.
	ErrUnknownToken = errors.New("unknown timing token")
)

// LineKind is the leading token of a timing line.
type LineKind int

const (
	LinePulse LineKind = iota
	LineSpace
)

const (
	tokenPulse = "pulse"
	tokenSpace = "space"
)

func (k LineKind) String() string {
	if k == LineSpace {
		return tokenSpace
	}
	return tokenPulse
}

// Line is one parsed "pulse <µs>" or "space <µs>" line.
type Line struct {
	Kind  LineKind
	Width time.Duration
	// Token is the raw leading token, kept for diagnostics.
	Token string
}

// ParseLine parses a single line of capture output. Surrounding whitespace is
// ignored and the two fields may be separated by any run of blanks.
func ParseLine(s string) (Line, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Line{}, fmt.Errorf("%w: %q: expected 2 fields, got %d", ErrMalformedLine, s, len(fields))
	}
	us, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Line{}, fmt.Errorf("%w: %q: %v", ErrMalformedLine, s, err)
	}
	if us < 0 {
		return Line{}, fmt.Errorf("%w: %q: negative width", ErrMalformedLine, s)
	}

	l := Line{Width: time.Duration(us) * time.Microsecond, Token: fields[0]}
	switch fields[0] {
	case tokenPulse:
		l.Kind = LinePulse
	case tokenSpace:
		l.Kind = LineSpace
	default:
		return l, fmt.Errorf("%w: %q (%s)", ErrUnknownToken, s, fields[0])
	}
	return l, nil
}
