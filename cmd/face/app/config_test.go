package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/watchface"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "face.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "feed:\n  file: feed.txt\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Settings.Mode != ModeTUI {
		t.Errorf("expected mode %q, got %q", ModeTUI, config.Settings.Mode)
	}
	if config.Settings.LogFile != defaultLogFile {
		t.Errorf("expected log file %q in tui mode, got %q", defaultLogFile, config.Settings.LogFile)
	}
	if config.Display.InteractiveTick != time.Second || config.Display.AmbientTick != time.Minute {
		t.Errorf("unexpected ticks: %s / %s", config.Display.InteractiveTick, config.Display.AmbientTick)
	}
	if config.Altitude.Weighting != "timestamp" {
		t.Errorf("expected timestamp weighting, got %q", config.Altitude.Weighting)
	}
	if config.Layout == nil || len(config.Layout.Rows) != len(watchface.DefaultLayout().Rows) {
		t.Errorf("expected the default layout, got %+v", config.Layout)
	}
	if _, ok := config.FallbackFix(); ok {
		t.Error("expected no fallback fix")
	}
}

func TestLoadConfig_Full(t *testing.T) {
	body := `
settings:
  logLevel: debug
  mode: headless
display:
  interactiveTick: 500ms
  ambientTick: 30s
  hour24: false
  timezone: Europe/Berlin
  background: "#000080"
  text: "#ffcc00"
storage:
  dbPath: /tmp/face.sqlite
feed:
  command: ./sensors
  args: ["--rate", "1"]
altitude:
  maxAccuracy: 50
  weighting: age
fallback:
  latitude: 52.52
  longitude: 13.405
  accuracy: 100
layout:
  rows:
    - name: main
      cells:
        - kind: clock
        - kind: altitude
  optional:
    - row: main
      cell:
        kind: pressure
        window: 2m
`
	config, err := LoadConfig(writeConfig(t, body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Settings.LogFile != "" {
		t.Errorf("expected no default log file in headless mode, got %q", config.Settings.LogFile)
	}
	if config.Display.InteractiveTick != 500*time.Millisecond || config.Display.AmbientTick != 30*time.Second {
		t.Errorf("unexpected ticks: %s / %s", config.Display.InteractiveTick, config.Display.AmbientTick)
	}

	clock := config.Layout.Rows[0].Cells[0]
	if clock.Hour24 == nil || *clock.Hour24 {
		t.Errorf("expected display.hour24 applied to the clock cell, got %v", clock.Hour24)
	}
	if w := config.Layout.Optional[0].Cell.Window; w != 2*time.Minute {
		t.Errorf("expected a 2m pressure window, got %s", w)
	}

	tz, err := config.Timezone()
	if err != nil || tz.String() != "Europe/Berlin" {
		t.Errorf("unexpected timezone %v: %v", tz, err)
	}

	background, text, err := config.Colors()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if background.Hex() != "#000080" || text.Hex() != "#ffcc00" {
		t.Errorf("unexpected colors %s / %s", background.Hex(), text.Hex())
	}

	fix, ok := config.FallbackFix()
	if !ok || fix.Latitude != 52.52 || fix.Provider != "fallback" {
		t.Errorf("unexpected fallback fix %+v", fix)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no feed", "settings:\n  mode: headless\n"},
		{"file and command", "feed:\n  file: a\n  command: b\n"},
		{"args without command", "feed:\n  file: a\n  args: [x]\n"},
		{"unknown mode", "settings:\n  mode: web\nfeed:\n  file: a\n"},
		{"ambient faster than interactive", "display:\n  interactiveTick: 1m\n  ambientTick: 1s\nfeed:\n  file: a\n"},
		{"unknown weighting", "altitude:\n  weighting: linear\nfeed:\n  file: a\n"},
		{"unknown timezone", "display:\n  timezone: Mars/Olympus\nfeed:\n  file: a\n"},
		{"bad color", "display:\n  text: yellow\nfeed:\n  file: a\n"},
		{"fallback out of range", "fallback:\n  latitude: 91\nfeed:\n  file: a\n"},
		{"unknown cell", "layout:\n  rows:\n    - name: x\n      cells:\n        - kind: weather\nfeed:\n  file: a\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tc.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
