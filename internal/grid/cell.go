// Package grid holds the display cells and the rows and grid that arrange them. A cell
// owns the sensor and location subscriptions it needs and acquires or releases them as
// its visibility and the runtime permissions change. Every method in this package must
// be called from the single control goroutine.
package grid

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/roman-kulish/wrist-telemetry/internal/permission"
)

var (
	ErrDuplicateCell = errors.New("duplicate cell id")
	ErrCellNotFound  = errors.New("cell not found")
)

// State of a cell lifecycle
type State int

const (
	// Detached cells are not started or destroyed and hold nothing
	Detached State = iota
	// Inactive cells are started but hidden or missing a required permission
	Inactive
	// Active cells are started, visible and permitted
	Active
)

func (s State) String() string {
	switch s {
	case Detached:
		return "detached"
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	}
	return "unknown"
}

// Style is how a cell should be drawn
type Style struct {
	Color     colorful.Color
	AntiAlias bool
	Scale     float64
	Dim       bool
}

// Cell is a single display element
type Cell interface {
	ID() string
	Text() string
	Style() Style
	State() State

	Start()
	Destroy()
	Refresh(now time.Time)

	SetVisible(visible bool)
	SetAmbient(ambient bool)
	SetLowPowerRendering(lowPower bool)
	SetBurnInProtection(burnIn bool)
	SetTextColor(c colorful.Color)
	PermissionChanged(c permission.Capability, granted bool)

	// Subscriptions returns the names of the subscriptions currently held
	Subscriptions() []string
}

// Env is what every cell needs from its host
type Env struct {
	Gate     permission.Gate
	Logger   *slog.Logger
	Now      func() time.Time
	Timezone *time.Location
}

func (e Env) withDefaults() Env {
	if e.Logger == nil {
		e.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Timezone == nil {
		e.Timezone = time.Local
	}
	return e
}
