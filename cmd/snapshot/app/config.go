package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/wrist-telemetry/internal/render"
	"github.com/roman-kulish/wrist-telemetry/internal/watchface"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	FeedFile      string
	DBPath        string
	LayoutFile    string
	OutputFile    string
	Format        ImageFormat
	At            time.Time
	Timezone      *time.Location
	Ambient       bool
	LowPower      bool
	BurnIn        bool
	GrantLocation bool
	Invert        bool
	Verbose       bool
	Render        render.Config
	Layout        watchface.Layout
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:   ImagePNG,
		At:       time.Now(),
		Timezone: time.Local,
		Layout:   watchface.DefaultLayout(),
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat, at, tz string
	flag.StringVar(&c.FeedFile, "feed", "", "Path to the feed file to replay")
	flag.StringVar(&c.DBPath, "db", "", "Path to the database file holding the last known fix (optional)")
	flag.StringVar(&c.LayoutFile, "layout", "", "Path to a YAML layout file (optional)")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	flag.StringVar(&at, "at", "", "Render the face at this RFC3339 time instead of now")
	flag.StringVar(&tz, "tz", "", "Timezone of the clock, date and sun cells")
	flag.BoolVar(&c.Ambient, "ambient", false, "Render in ambient mode")
	flag.BoolVar(&c.LowPower, "low-power", false, "Disable anti-aliasing as on low-bit ambient displays")
	flag.BoolVar(&c.BurnIn, "burn-in", false, "Enable burn-in protection")
	flag.BoolVar(&c.GrantLocation, "grant-location", false, "Grant the location permission before replaying")
	flag.BoolVar(&c.Invert, "invert", false, "Invert the color scheme")
	flag.IntVar(&c.Render.Width, "width", 0, "Image width in pixels")
	flag.IntVar(&c.Render.Height, "height", 0, "Image height in pixels")
	flag.Float64Var(&c.Render.FontSize, "font-size", 0, "Base font size in points")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)

	var err error
	if c.FeedFile == "" {
		err = errors.New("feed file is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if c.Render.Width < 0 || c.Render.Height < 0 || c.Render.FontSize < 0 {
		err = errors.New("image size must not be negative")
	}

	if err == nil && at != "" {
		if c.At, err = time.Parse(time.RFC3339, at); err != nil {
			err = fmt.Errorf("invalid time: %w", err)
		}
	}
	if err == nil && tz != "" {
		if c.Timezone, err = time.LoadLocation(tz); err != nil {
			err = fmt.Errorf("invalid timezone: %w", err)
		}
	}
	if err == nil && c.LayoutFile != "" {
		c.Layout, err = LoadLayout(c.LayoutFile)
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}

// LoadLayout reads a watch face layout from a YAML file
func LoadLayout(path string) (watchface.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return watchface.Layout{}, fmt.Errorf("reading layout: %w", err)
	}

	var layout watchface.Layout
	if err = yaml.Unmarshal(data, &layout); err != nil {
		return watchface.Layout{}, fmt.Errorf("parsing layout: %w", err)
	}

	if err = layout.Validate(); err != nil {
		return watchface.Layout{}, err
	}

	return layout, nil
}
