package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/irdecode/internal/ir"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultProfileConfig(t *testing.T) {
	cfg := DefaultProfileConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultProfileConfig().Validate() = %v", err)
	}
	if got := cfg.ToProfile(); got != ir.DefaultProfile() {
		t.Errorf("ToProfile() = %+v, want %+v", got, ir.DefaultProfile())
	}
	if cfg.GetPollInterval() != 100*time.Millisecond {
		t.Errorf("GetPollInterval() = %v, want 100ms", cfg.GetPollInterval())
	}
	if cfg.GetName() != "default" {
		t.Errorf("GetName() = %q, want default", cfg.GetName())
	}
}

func TestEmptyProfileConfigFallsBack(t *testing.T) {
	cfg := EmptyProfileConfig()
	if got := cfg.ToProfile(); got != ir.DefaultProfile() {
		t.Errorf("empty config profile = %+v, want defaults", got)
	}
	if cfg.GetPollInterval() != DefaultPollInterval {
		t.Errorf("GetPollInterval() = %v, want %v", cfg.GetPollInterval(), DefaultPollInterval)
	}
}

func TestDefaultsFileMatchesBuiltIn(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if got := cfg.ToProfile(); got != ir.DefaultProfile() {
		t.Errorf("%s profile = %+v, want %+v", DefaultConfigPath, got, ir.DefaultProfile())
	}
	if cfg.GetPollInterval() != DefaultPollInterval {
		t.Errorf("%s poll interval = %v", DefaultConfigPath, cfg.GetPollInterval())
	}
}

func TestLoadProfileConfig_Partial(t *testing.T) {
	path := writeConfig(t, "sony.json", `{
  "name": "wide-one",
  "one_space_min_us": 1400,
  "one_space_max_us": 2000,
  "poll_interval": "250ms"
}`)
	cfg, err := LoadProfileConfig(path)
	if err != nil {
		t.Fatalf("LoadProfileConfig() error = %v", err)
	}

	p := cfg.ToProfile()
	if p.OneSpace != ir.MicrosWindow(1400, 2000) {
		t.Errorf("OneSpace = %v, want (1400us, 2000us)", p.OneSpace)
	}
	if p.HeaderPulse != ir.DefaultProfile().HeaderPulse {
		t.Errorf("HeaderPulse = %v, want default", p.HeaderPulse)
	}
	if cfg.GetPollInterval() != 250*time.Millisecond {
		t.Errorf("GetPollInterval() = %v, want 250ms", cfg.GetPollInterval())
	}
	if cfg.GetName() != "wide-one" {
		t.Errorf("GetName() = %q", cfg.GetName())
	}
}

func TestLoadProfileConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "profile.yaml", `{}`, ".json extension"},
		{"bad json", "bad.json", `{"gap_space_us":`, "failed to parse"},
		{"unknown field", "typo.json", `{"gap_us": 9000}`, "unknown field"},
		{"negative width", "neg.json", `{"bit_pulse_min_us": -1}`, "non-negative"},
		{"bad poll", "poll.json", `{"poll_interval": "soon"}`, "invalid poll_interval"},
		{"zero poll", "poll0.json", `{"poll_interval": "0s"}`, "must be positive"},
		{"overlapping spaces", "overlap.json", `{"zero_space_max_us": 1600}`, "overlap"},
		{"empty window", "empty.json", `{"header_pulse_min_us": 5000}`, "invalid configuration"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.file, tc.body)
			_, err := LoadProfileConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadProfileConfig_OverlapIsSentinel(t *testing.T) {
	path := writeConfig(t, "overlap.json", `{"header_pulse_min_us": 700}`)
	_, err := LoadProfileConfig(path)
	if !errors.Is(err, ir.ErrOverlappingPulseWindows) {
		t.Errorf("error = %v, want ErrOverlappingPulseWindows", err)
	}
}

func TestLoadProfileConfig_Missing(t *testing.T) {
	_, err := LoadProfileConfig(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestLoadProfileConfig_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.json")
	body := `{"name": "` + strings.Repeat("x", 1024*1024) + `"}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadProfileConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("error = %v, want too large", err)
	}
}

func TestGetPollInterval_InvalidFallsBack(t *testing.T) {
	cfg := &ProfileConfig{PollInterval: ptrString("never")}
	if cfg.GetPollInterval() != DefaultPollInterval {
		t.Errorf("GetPollInterval() = %v, want default", cfg.GetPollInterval())
	}
}
