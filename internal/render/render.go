// Package render draws a grid frame into an image
package render

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/roman-kulish/wrist-telemetry/internal/grid"
)

const (
	defaultWidth    = 320
	defaultHeight   = 320
	defaultFontSize = 28
	dpi             = 72
)

// Config of the renderer. Zero values are replaced by defaults.
type Config struct {
	Width    int     `yaml:"width" validate:"gte=0"`
	Height   int     `yaml:"height" validate:"gte=0"`
	FontSize float64 `yaml:"fontSize" validate:"gte=0"`
}

// Cell is the drawable part of a grid cell
type Cell struct {
	Text  string
	Style grid.Style
}

// Frame is a snapshot of what the grid shows
type Frame struct {
	Background colorful.Color
	Rows       [][]Cell
}

// FrameOf snapshots g. Empty rows are skipped and a hidden grid shows only its
// background.
func FrameOf(g *grid.Grid) Frame {
	f := Frame{Background: g.BackgroundColor()}
	if !g.Visible() {
		return f
	}
	for _, r := range g.Rows() {
		var row []Cell
		for _, c := range r.Cells() {
			row = append(row, Cell{Text: c.Text(), Style: c.Style()})
		}
		if len(row) > 0 {
			f.Rows = append(f.Rows, row)
		}
	}
	return f
}

// Renderer draws frames. It is not safe for concurrent use.
type Renderer struct {
	config  Config
	font    *truetype.Font
	context *freetype.Context
}

func NewRenderer(config Config) (*Renderer, error) {
	if config.Width <= 0 {
		config.Width = defaultWidth
	}
	if config.Height <= 0 {
		config.Height = defaultHeight
	}
	if config.FontSize <= 0 {
		config.FontSize = defaultFontSize
	}

	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetHinting(font.HintingFull)

	return &Renderer{
		config:  config,
		font:    parsedFont,
		context: context,
	}, nil
}

// Render draws the rows top to bottom, each cell centered in an equal share of its row
func (r *Renderer) Render(f Frame) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.config.Width, r.config.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(f.Background), image.Point{}, draw.Src)

	if len(f.Rows) == 0 {
		return img, nil
	}

	r.context.SetDst(img)
	r.context.SetClip(img.Bounds())

	rowHeight := r.config.Height / len(f.Rows)
	for ri, row := range f.Rows {
		colWidth := r.config.Width / len(row)
		for ci, c := range row {
			if c.Text == "" {
				continue
			}
			box := image.Rect(ci*colWidth, ri*rowHeight, (ci+1)*colWidth, (ri+1)*rowHeight)
			if err := r.drawCell(img, box, c); err != nil {
				return nil, fmt.Errorf("drawing row %d cell %d: %w", ri, ci, err)
			}
		}
	}

	return img, nil
}

func (r *Renderer) drawCell(img *image.RGBA, box image.Rectangle, c Cell) error {
	col := c.Style.Color
	if c.Style.Dim {
		col = grid.Dimmed(col)
	}
	src := image.NewUniform(col)

	if !c.Style.AntiAlias {
		// low power path: a fixed bitmap face, no anti-aliasing
		face := basicfont.Face7x13
		d := font.Drawer{Dst: img, Src: src, Face: face}
		width := d.MeasureString(c.Text).Round()
		d.Dot = center(box, width, face.Metrics())
		d.DrawString(c.Text)
		return nil
	}

	size := r.config.FontSize
	if c.Style.Scale > 0 {
		size *= c.Style.Scale
	}

	face := truetype.NewFace(r.font, &truetype.Options{Size: size, DPI: dpi, Hinting: font.HintingFull})
	defer face.Close()

	width := font.MeasureString(face, c.Text).Round()

	r.context.SetFontSize(size)
	r.context.SetSrc(src)
	if _, err := r.context.DrawString(c.Text, center(box, width, face.Metrics())); err != nil {
		return err
	}
	return nil
}

// center returns the dot that centers a text of width pixels in box
func center(box image.Rectangle, width int, m font.Metrics) fixed.Point26_6 {
	height := (m.Ascent + m.Descent).Round()
	x := box.Min.X + (box.Dx()-width)/2
	y := box.Min.Y + (box.Dy()-height)/2 + m.Ascent.Round()
	return fixed.P(x, y)
}
