package app

import (
	"context"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/grid"
	"github.com/roman-kulish/wrist-telemetry/internal/watchface"
)

const morningFeed = `# summit at noon
permission location granted
pressure 89876 2025-06-21T11:59:00Z
fix 46.5 8.0 1000 5 2025-06-21T11:59:30Z
battery 73%
`

func testConfig(t *testing.T, feed string) *Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "feed.txt")
	if err := os.WriteFile(path, []byte(feed), 0o644); err != nil {
		t.Fatalf("writing feed: %v", err)
	}

	c := NewConfig()
	c.FeedFile = path
	c.OutputFile = filepath.Join(dir, "face.png")
	c.At = time.Date(2025, 6, 21, 12, 0, 0, 0, time.UTC)
	c.Timezone = time.UTC
	return c
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cellText(t *testing.T, g *grid.Grid, row, id string) string {
	t.Helper()
	r, ok := g.Row(row)
	if !ok {
		t.Fatalf("row %q missing", row)
	}
	c, ok := r.Get(id)
	if !ok {
		t.Fatalf("cell %q missing", id)
	}
	return c.Text()
}

func TestReplay(t *testing.T) {
	config := testConfig(t, morningFeed)

	g, err := replay(context.Background(), config, nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Destroy()

	if got := cellText(t, g, "center", "clock"); got != "12:00:00" {
		t.Errorf("expected clock 12:00:00, got %q", got)
	}
	if got := cellText(t, g, "top", "date"); got != "21.06.2025" {
		t.Errorf("expected date 21.06.2025, got %q", got)
	}
	if got := cellText(t, g, "bottom", "battery"); got != "73%" {
		t.Errorf("expected battery 73%%, got %q", got)
	}
	if got := cellText(t, g, "bottom", "altitude"); got == "-- m" || !strings.HasSuffix(got, " m") {
		t.Errorf("expected a fused altitude, got %q", got)
	}
	if got := cellText(t, g, "sun", "sunrise-sunset"); strings.Contains(got, "--:--") {
		t.Errorf("expected sun times once location is granted, got %q", got)
	}
}

func TestReplay_AmbientWithoutPermission(t *testing.T) {
	config := testConfig(t, "pressure 101325\nambient on\n")
	config.BurnIn = true

	g, err := replay(context.Background(), config, nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Destroy()

	if !g.Ambient() {
		t.Fatal("expected the ambient record to be applied")
	}
	if got := cellText(t, g, "sun", "sunrise-sunset"); !strings.Contains(got, "--:--") {
		t.Errorf("expected placeholder sun times without permission, got %q", got)
	}
}

func TestReplay_GrantLocationFlag(t *testing.T) {
	config := testConfig(t, "fix 46.5 8.0 - 5 2025-06-21T11:00:00Z\n")
	config.GrantLocation = true

	g, err := replay(context.Background(), config, nil, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Destroy()

	if got := cellText(t, g, "sun", "sunrise-sunset"); strings.Contains(got, "--:--") {
		t.Errorf("expected sun times, got %q", got)
	}
}

func TestRun_WritesPNG(t *testing.T) {
	config := testConfig(t, morningFeed)
	config.Render.Width, config.Render.Height = 200, 120

	if err := Run(context.Background(), config, discardLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(config.OutputFile)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 120 {
		t.Errorf("expected a 200x120 image, got %v", b)
	}
}

func TestRun_MissingFeed(t *testing.T) {
	config := testConfig(t, "")
	config.FeedFile = filepath.Join(t.TempDir(), "missing.txt")

	if err := Run(context.Background(), config, discardLogger()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	body := "rows:\n  - name: only\n    cells:\n      - kind: clock\n        hour24: false\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing layout: %v", err)
	}

	layout, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(layout.Rows) != 1 || layout.Rows[0].Cells[0].Kind != watchface.Clock {
		t.Fatalf("unexpected layout %+v", layout)
	}

	if err = os.WriteFile(path, []byte("rows:\n  - name: only\n    cells:\n      - kind: radar\n"), 0o644); err != nil {
		t.Fatalf("writing layout: %v", err)
	}
	if _, err = LoadLayout(path); err == nil {
		t.Fatal("expected error for an unknown cell kind")
	}
}
