package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/wrist-telemetry/internal/altitude"
	"github.com/roman-kulish/wrist-telemetry/internal/grid"
	"github.com/roman-kulish/wrist-telemetry/internal/render"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
	"github.com/roman-kulish/wrist-telemetry/internal/watchface"
)

const (
	ModeTUI      = "tui"
	ModeHeadless = "headless"

	defaultInteractiveTick = time.Second
	defaultAmbientTick     = time.Minute
	defaultDBPath          = "face.sqlite"
	defaultLogFile         = "face.log"
)

// Config represents the main application configuration
type Config struct {
	Settings Settings          `yaml:"settings"`
	Display  DisplayConfig     `yaml:"display"`
	Storage  StorageConfig     `yaml:"storage"`
	Feed     FeedConfig        `yaml:"feed"`
	Altitude altitude.Config   `yaml:"altitude"`
	Layout   *watchface.Layout `yaml:"layout"`
	Fallback *FixConfig        `yaml:"fallback"`
	Render   render.Config     `yaml:"render"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"`
	Mode     string `yaml:"mode" validate:"omitempty,oneof=tui headless"`
}

// DisplayConfig represents how the face is drawn and refreshed
type DisplayConfig struct {
	InteractiveTick time.Duration `yaml:"interactiveTick" validate:"gte=0"`
	AmbientTick     time.Duration `yaml:"ambientTick" validate:"gte=0"`
	Hour24          *bool         `yaml:"hour24"`
	Timezone        string        `yaml:"timezone"`
	Background      string        `yaml:"background" validate:"omitempty,hexcolor"`
	Text            string        `yaml:"text" validate:"omitempty,hexcolor"`
	LowPower        bool          `yaml:"lowPower"`
	BurnIn          bool          `yaml:"burnIn"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

// FeedConfig represents where sensor records are read from. Either a file or a
// command producing records on its stdout.
type FeedConfig struct {
	File    string   `yaml:"file"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// FixConfig is a location used when no fix has ever been received
type FixConfig struct {
	Latitude  float64  `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64  `yaml:"longitude" validate:"gte=-180,lte=180"`
	Altitude  *float64 `yaml:"altitude"`
	Accuracy  float64  `yaml:"accuracy" validate:"gte=0"`
}

// LoadConfig reads and validates the configuration file at path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	config.applyDefaults()

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
	if c.Settings.Mode == "" {
		c.Settings.Mode = ModeTUI
	}
	if c.Settings.Mode == ModeTUI && c.Settings.LogFile == "" {
		c.Settings.LogFile = defaultLogFile
	}
	if c.Display.InteractiveTick == 0 {
		c.Display.InteractiveTick = defaultInteractiveTick
	}
	if c.Display.AmbientTick == 0 {
		c.Display.AmbientTick = defaultAmbientTick
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = defaultDBPath
	}
	if c.Altitude.Weighting == "" {
		c.Altitude.Weighting = altitude.DefaultConfig().Weighting
	}
	if c.Layout == nil {
		layout := watchface.DefaultLayout()
		c.Layout = &layout
	}
	if c.Display.Hour24 != nil {
		c.Layout.SetHour24(*c.Display.Hour24)
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	if c.Feed.File != "" && c.Feed.Command != "" {
		return errors.New("app.Config: feed file and command are mutually exclusive")
	}
	if c.Feed.File == "" && c.Feed.Command == "" {
		return errors.New("app.Config: feed file or command is required")
	}
	if len(c.Feed.Args) > 0 && c.Feed.Command == "" {
		return errors.New("app.Config: feed args given without a command")
	}

	if c.Display.AmbientTick < c.Display.InteractiveTick {
		return fmt.Errorf("app.Config: ambient tick must not be shorter than the interactive tick: %s given", c.Display.AmbientTick)
	}

	if _, ok := altitude.PolicyByName(c.Altitude.Weighting); !ok {
		return fmt.Errorf("app.Config: unknown altitude weighting '%s'", c.Altitude.Weighting)
	}

	if _, err := c.Timezone(); err != nil {
		return fmt.Errorf("app.Config: %w", err)
	}

	return c.Layout.Validate()
}

// Timezone returns the configured display timezone, local time when unset
func (c *Config) Timezone() (*time.Location, error) {
	if c.Display.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Display.Timezone)
}

// Colors returns the background and text colors, white on black when unset
func (c *Config) Colors() (background, text colorful.Color, err error) {
	background, text = grid.Black, grid.White
	if c.Display.Background != "" {
		if background, err = grid.ParseColor(c.Display.Background); err != nil {
			return
		}
	}
	if c.Display.Text != "" {
		if text, err = grid.ParseColor(c.Display.Text); err != nil {
			return
		}
	}
	return
}

// FallbackFix returns the configured fallback location, if any
func (c *Config) FallbackFix() (telemetry.Fix, bool) {
	if c.Fallback == nil {
		return telemetry.Fix{}, false
	}
	return telemetry.Fix{
		Latitude:  c.Fallback.Latitude,
		Longitude: c.Fallback.Longitude,
		Altitude:  c.Fallback.Altitude,
		Accuracy:  c.Fallback.Accuracy,
		Provider:  "fallback",
	}, true
}
