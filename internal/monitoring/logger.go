package monitoring

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
)

// Logf is the package-level diagnostic sink. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package sink. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Level is the severity of a diagnostic line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel accepts debug, info, warn/warning and error, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes lines for one named component at or above its level.
// Lines are formatted as LEVEL:name:message and handed to Logf.
type Logger struct {
	name string

	mu    sync.RWMutex
	level Level
}

// NewLogger returns a standalone component logger.
func NewLogger(name string, level Level) *Logger {
	return &Logger{name: name, level: level}
}

// Name returns the component name.
func (l *Logger) Name() string { return l.name }

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Enabled reports whether lines at level would be written.
func (l *Logger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return level >= l.Level()
}

func (l *Logger) logf(level Level, format string, v ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	Logf("%s:%s:%s", level, l.name, fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...interface{}) { l.logf(LevelDebug, format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { l.logf(LevelInfo, format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.logf(LevelWarn, format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.logf(LevelError, format, v...) }

// Registry hands out one Logger per component name. Loggers created after a
// level override was set pick the override up.
type Registry struct {
	mu        sync.Mutex
	base      Level
	overrides map[string]Level
	loggers   map[string]*Logger
}

// NewRegistry returns a registry whose loggers default to base.
func NewRegistry(base Level) *Registry {
	return &Registry{
		base:      base,
		overrides: make(map[string]Level),
		loggers:   make(map[string]*Logger),
	}
}

// Logger returns the logger for name, creating it if needed.
func (r *Registry) Logger(name string) *Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[name]; ok {
		return l
	}
	level := r.base
	if o, ok := r.overrides[name]; ok {
		level = o
	}
	l := NewLogger(name, level)
	r.loggers[name] = l
	return l
}

// SetLevel overrides the level of a single component.
func (r *Registry) SetLevel(name string, level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[name] = level
	if l, ok := r.loggers[name]; ok {
		l.SetLevel(level)
	}
}

// Apply sets the base level and per-component overrides from a spec such as
// "info,reader=warn,bitdecoder=debug". A bare level sets the base.
func (r *Registry) Apply(spec string) error {
	base, overrides, err := ParseLevels(spec)
	if err != nil {
		return err
	}
	r.mu.Lock()
	if base != nil {
		r.base = *base
		for name, l := range r.loggers {
			if _, ok := r.overrides[name]; !ok {
				l.SetLevel(*base)
			}
		}
	}
	r.mu.Unlock()
	for name, level := range overrides {
		r.SetLevel(name, level)
	}
	return nil
}

// Names returns the registered component names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseLevels splits a comma separated level spec. The returned base is nil
// when the spec has no bare level entry.
func ParseLevels(spec string) (*Level, map[string]Level, error) {
	var base *Level
	overrides := make(map[string]Level)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			level, err := ParseLevel(part)
			if err != nil {
				return nil, nil, err
			}
			base = &level
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, nil, fmt.Errorf("missing component name in %q", part)
		}
		level, err := ParseLevel(value)
		if err != nil {
			return nil, nil, fmt.Errorf("component %s: %w", name, err)
		}
		overrides[name] = level
	}
	return base, overrides, nil
}
