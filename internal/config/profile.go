package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/irdecode/internal/ir"
)

// DefaultConfigPath is the path to the canonical timing profile defaults.
const DefaultConfigPath = "config/profile.defaults.json"

// DefaultPollInterval is used when poll_interval is unset.
const DefaultPollInterval = 100 * time.Millisecond

// ProfileConfig is the on-disk form of a timing profile. All widths are in
// microseconds. Omitted fields fall back to the built-in defaults, so a file
// can tune a single window.
type ProfileConfig struct {
	Name *string `json:"name,omitempty"`

	HeaderPulseMinUS *int64 `json:"header_pulse_min_us,omitempty"`
	HeaderPulseMaxUS *int64 `json:"header_pulse_max_us,omitempty"`
	HeaderSpaceMinUS *int64 `json:"header_space_min_us,omitempty"`
	HeaderSpaceMaxUS *int64 `json:"header_space_max_us,omitempty"`
	BitPulseMinUS    *int64 `json:"bit_pulse_min_us,omitempty"`
	BitPulseMaxUS    *int64 `json:"bit_pulse_max_us,omitempty"`
	ZeroSpaceMinUS   *int64 `json:"zero_space_min_us,omitempty"`
	ZeroSpaceMaxUS   *int64 `json:"zero_space_max_us,omitempty"`
	OneSpaceMinUS    *int64 `json:"one_space_min_us,omitempty"`
	OneSpaceMaxUS    *int64 `json:"one_space_max_us,omitempty"`
	GapSpaceUS       *int64 `json:"gap_space_us,omitempty"`

	// PollInterval is a duration string like "100ms".
	PollInterval *string `json:"poll_interval,omitempty"`
}

func ptrInt64(v int64) *int64    { return &v }
func ptrString(v string) *string { return &v }

// EmptyProfileConfig returns a ProfileConfig with every field unset.
func EmptyProfileConfig() *ProfileConfig {
	return &ProfileConfig{}
}

// DefaultProfileConfig returns a fully populated config matching
// ir.DefaultProfile.
func DefaultProfileConfig() *ProfileConfig {
	return &ProfileConfig{
		Name:             ptrString("default"),
		HeaderPulseMinUS: ptrInt64(ir.DefaultHeaderPulseMinUS),
		HeaderPulseMaxUS: ptrInt64(ir.DefaultHeaderPulseMaxUS),
		HeaderSpaceMinUS: ptrInt64(ir.DefaultHeaderSpaceMinUS),
		HeaderSpaceMaxUS: ptrInt64(ir.DefaultHeaderSpaceMaxUS),
		BitPulseMinUS:    ptrInt64(ir.DefaultBitPulseMinUS),
		BitPulseMaxUS:    ptrInt64(ir.DefaultBitPulseMaxUS),
		ZeroSpaceMinUS:   ptrInt64(ir.DefaultZeroSpaceMinUS),
		ZeroSpaceMaxUS:   ptrInt64(ir.DefaultZeroSpaceMaxUS),
		OneSpaceMinUS:    ptrInt64(ir.DefaultOneSpaceMinUS),
		OneSpaceMaxUS:    ptrInt64(ir.DefaultOneSpaceMaxUS),
		GapSpaceUS:       ptrInt64(ir.DefaultGapSpaceUS),
		PollInterval:     ptrString(DefaultPollInterval.String()),
	}
}

// LoadProfileConfig loads a ProfileConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Unknown fields are
// rejected so a mistyped window name does not silently use the default.
func LoadProfileConfig(path string) (*ProfileConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg := EmptyProfileConfig()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching parent
// directories so it works from package tests. Panics if the file cannot be
// loaded.
func MustLoadDefaultConfig() *ProfileConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadProfileConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the individual values and the profile they produce.
func (c *ProfileConfig) Validate() error {
	for name, v := range map[string]*int64{
		"header_pulse_min_us": c.HeaderPulseMinUS,
		"header_pulse_max_us": c.HeaderPulseMaxUS,
		"header_space_min_us": c.HeaderSpaceMinUS,
		"header_space_max_us": c.HeaderSpaceMaxUS,
		"bit_pulse_min_us":    c.BitPulseMinUS,
		"bit_pulse_max_us":    c.BitPulseMaxUS,
		"zero_space_min_us":   c.ZeroSpaceMinUS,
		"zero_space_max_us":   c.ZeroSpaceMaxUS,
		"one_space_min_us":    c.OneSpaceMinUS,
		"one_space_max_us":    c.OneSpaceMaxUS,
		"gap_space_us":        c.GapSpaceUS,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}

	if c.PollInterval != nil && *c.PollInterval != "" {
		d, err := time.ParseDuration(*c.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("poll_interval must be positive, got %s", d)
		}
	}

	return c.ToProfile().Validate()
}

// ToProfile builds the ir.Profile described by the config. The result is not
// validated; call Profile.Validate or ir.NewClassifier.
func (c *ProfileConfig) ToProfile() ir.Profile {
	return ir.Profile{
		HeaderPulse: ir.MicrosWindow(get(c.HeaderPulseMinUS, ir.DefaultHeaderPulseMinUS), get(c.HeaderPulseMaxUS, ir.DefaultHeaderPulseMaxUS)),
		HeaderSpace: ir.MicrosWindow(get(c.HeaderSpaceMinUS, ir.DefaultHeaderSpaceMinUS), get(c.HeaderSpaceMaxUS, ir.DefaultHeaderSpaceMaxUS)),
		BitPulse:    ir.MicrosWindow(get(c.BitPulseMinUS, ir.DefaultBitPulseMinUS), get(c.BitPulseMaxUS, ir.DefaultBitPulseMaxUS)),
		ZeroSpace:   ir.MicrosWindow(get(c.ZeroSpaceMinUS, ir.DefaultZeroSpaceMinUS), get(c.ZeroSpaceMaxUS, ir.DefaultZeroSpaceMaxUS)),
		OneSpace:    ir.MicrosWindow(get(c.OneSpaceMinUS, ir.DefaultOneSpaceMinUS), get(c.OneSpaceMaxUS, ir.DefaultOneSpaceMaxUS)),
		GapSpace:    time.Duration(get(c.GapSpaceUS, ir.DefaultGapSpaceUS)) * time.Microsecond,
	}
}

// GetName returns the profile name or "default".
func (c *ProfileConfig) GetName() string {
	if c.Name == nil || *c.Name == "" {
		return "default"
	}
	return *c.Name
}

// GetPollInterval parses and returns the PollInterval.
func (c *ProfileConfig) GetPollInterval() time.Duration {
	if c.PollInterval == nil || *c.PollInterval == "" {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(*c.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

func get(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}
