package render

import (
	"image/color"
	"testing"

	"github.com/roman-kulish/wrist-telemetry/internal/grid"
)

func countColored(img interface {
	At(x, y int) color.Color
}, w, h int, bg color.Color) int {
	br, bgc, bb, _ := bg.RGBA()
	var n int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != br || g != bgc || b != bb {
				n++
			}
		}
	}
	return n
}

func TestRenderer_Background(t *testing.T) {
	r, err := NewRenderer(Config{Width: 40, Height: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	img, err := r.Render(Frame{Background: grid.White})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if n := countColored(img, 40, 30, grid.White); n != 0 {
		t.Errorf("expected a plain background, got %d other pixels", n)
	}
}

func TestRenderer_DrawsText(t *testing.T) {
	r, err := NewRenderer(Config{Width: 160, Height: 80, FontSize: 24})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, aa := range []bool{true, false} {
		frame := Frame{
			Background: grid.Black,
			Rows: [][]Cell{
				{{Text: "12:34", Style: grid.Style{Color: grid.White, AntiAlias: aa, Scale: 1}}},
				{{Text: "85%", Style: grid.Style{Color: grid.White, AntiAlias: aa, Scale: 1}}, {Text: "", Style: grid.Style{}}},
			},
		}

		img, err := r.Render(frame)
		if err != nil {
			t.Fatalf("antialias=%v: unexpected error: %v", aa, err)
		}
		if n := countColored(img, 160, 80, grid.Black); n == 0 {
			t.Errorf("antialias=%v: expected text pixels", aa)
		}
	}
}

func TestRenderer_DimmedText(t *testing.T) {
	r, _ := NewRenderer(Config{Width: 100, Height: 40})
	frame := Frame{
		Background: grid.Black,
		Rows:       [][]Cell{{{Text: "88", Style: grid.Style{Color: grid.White, Dim: true}}}},
	}

	img, err := r.Render(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for y := 0; y < 40; y++ {
		for x := 0; x < 100; x++ {
			if c := img.RGBAAt(x, y); c.R == 0xff {
				t.Fatalf("expected no full intensity pixel at %d,%d", x, y)
			}
		}
	}
}

func TestFrameOf(t *testing.T) {
	g := grid.New()
	g.PutRow(grid.NewRow("empty"))
	_ = g.AddCell("top", grid.NewDateCell("date", grid.Env{}))
	g.Start()

	f := FrameOf(g)
	if len(f.Rows) != 1 || len(f.Rows[0]) != 1 || f.Rows[0][0].Text == "" {
		t.Errorf("expected a single row with the date, got %+v", f.Rows)
	}
	if f.Background != grid.Black {
		t.Errorf("expected black background, got %v", f.Background)
	}
}

func TestFrameOf_Hidden(t *testing.T) {
	g := grid.New()
	_ = g.AddCell("top", grid.NewDateCell("date", grid.Env{}))
	g.Start()
	g.InvertColors()
	g.SetVisible(false)

	f := FrameOf(g)
	if len(f.Rows) != 0 {
		t.Errorf("expected no rows while hidden, got %+v", f.Rows)
	}
	if f.Background != grid.White {
		t.Errorf("expected the background kept, got %v", f.Background)
	}
}
