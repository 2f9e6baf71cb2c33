package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/altitude"
	"github.com/roman-kulish/wrist-telemetry/internal/feed"
	"github.com/roman-kulish/wrist-telemetry/internal/grid"
	"github.com/roman-kulish/wrist-telemetry/internal/location"
	"github.com/roman-kulish/wrist-telemetry/internal/loop"
	"github.com/roman-kulish/wrist-telemetry/internal/permission"
	"github.com/roman-kulish/wrist-telemetry/internal/render"
	"github.com/roman-kulish/wrist-telemetry/internal/storage"
	"github.com/roman-kulish/wrist-telemetry/internal/stream"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
	"github.com/roman-kulish/wrist-telemetry/internal/watchface"
)

// Run starts the watch face and blocks until ctx is done or the user quits
func Run(ctx context.Context, config *Config, logger *slog.Logger) (err error) {
	store := storage.NewSqliteStore(config.Storage.DBPath)
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing storage: %w", closeErr))
		}
	}()

	f, err := newFace(config, store, logger)
	if err != nil {
		return fmt.Errorf("failed to create watch face: %w", err)
	}
	defer f.close()

	stopped, err := f.device.Begin(ctx, f.router)
	if err != nil {
		return fmt.Errorf("failed to start feed: %w", err)
	}

	f.grid.Start()

	switch config.Settings.Mode {
	case ModeHeadless:
		return runHeadless(ctx, f, stopped)
	default:
		return runTUI(ctx, f, stopped)
	}
}

// face owns everything the grid is built from. All of its methods run on the control
// goroutine, the one draining the queue.
type face struct {
	config *Config

	queue    *loop.Queue
	registry *permission.Registry
	services watchface.Services
	grid     *grid.Grid

	router *feed.Router
	device *feed.Device

	lastTick time.Time
	logger   *slog.Logger
}

func newFace(config *Config, store storage.Store, logger *slog.Logger) (*face, error) {
	f := face{
		config: config,
		queue:  loop.NewQueue(loop.WithLogger(logger)),
		logger: logger,
	}

	registry, err := permission.NewRegistry(f.queue, permission.WithLogger(logger), permission.WithStore(store))
	if err != nil {
		return nil, fmt.Errorf("creating permission registry: %w", err)
	}
	f.registry = registry

	f.router = feed.NewRouter(f.handleHost, feed.WithRouterLogger(logger))
	f.device = feed.NewDevice(feedSource(&config.Feed), feed.WithLogger(logger))

	pressure := stream.NewHub[telemetry.Pressure]("pressure", f.router.Barometer, f.queue, stream.WithLogger[telemetry.Pressure](logger))

	locationOptions := []func(*location.Client){location.WithLogger(logger), location.WithStore(store)}
	if fix, ok := config.FallbackFix(); ok {
		locationOptions = append(locationOptions, location.WithFallback(fix))
	}
	positioning := location.NewClient(f.router.GPS, f.queue, locationOptions...)

	policy, _ := altitude.PolicyByName(config.Altitude.Weighting)
	engine := altitude.NewEngine(config.Altitude, altitude.WithPolicy(policy), altitude.WithLogger(logger))

	tz, err := config.Timezone()
	if err != nil {
		return nil, err
	}

	f.services = watchface.Services{
		Env: grid.Env{
			Gate:     registry,
			Logger:   logger,
			Timezone: tz,
		},
		Engine:   engine,
		Pressure: pressure,
		Location: positioning,
		Battery:  f.router.Battery,
	}

	background, text, err := config.Colors()
	if err != nil {
		return nil, err
	}

	if f.grid, err = watchface.Build(*config.Layout, f.services, grid.WithLogger(logger), grid.WithColors(background, text)); err != nil {
		return nil, fmt.Errorf("building grid: %w", err)
	}
	f.grid.SetLowPowerRendering(config.Display.LowPower)
	f.grid.SetBurnInProtection(config.Display.BurnIn)

	registry.Watch(f.grid.PermissionChanged)

	return &f, nil
}

func feedSource(config *FeedConfig) feed.Source {
	if config.Command != "" {
		return feed.CommandSource{Command: config.Command, Args: config.Args}
	}
	return feed.FileSource{Path: config.File}
}

// close releases every subscription before the feed and the queue go away
func (f *face) close() {
	f.grid.Destroy()
	f.device.Stop()
	f.queue.Close()
}

func (f *face) post(name string, fn func()) {
	if err := f.queue.Post(name, fn); err != nil {
		f.logger.Debug("dropping event", slog.String("event", name), slog.String("reason", err.Error()))
	}
}

// handleHost receives host directives from the feed goroutine
func (f *face) handleHost(rec feed.Record) {
	switch rec.Kind {
	case feed.KindPermission:
		if err := f.registry.Set(rec.Capability, rec.Status); err != nil {
			f.logger.Warn(fmt.Sprintf("setting permission: %s", err.Error()))
		}
	case feed.KindAmbient:
		f.post("ambient", func() { f.setAmbient(rec.On) })
	case feed.KindVisible:
		f.post("visible", func() { f.grid.SetVisible(rec.On) })
	}
}

func (f *face) setAmbient(ambient bool) {
	if f.grid.Ambient() == ambient {
		return
	}
	f.grid.SetAmbient(ambient)
	f.refresh(time.Now())
}

// tick refreshes the grid when the current refresh interval has passed
func (f *face) tick(now time.Time) bool {
	if now.Sub(f.lastTick) < f.interval() {
		return false
	}
	f.refresh(now)
	return true
}

func (f *face) refresh(now time.Time) {
	f.lastTick = now
	f.grid.Tick(now)
}

func (f *face) interval() time.Duration {
	if f.grid.Ambient() {
		return f.config.Display.AmbientTick
	}
	return f.config.Display.InteractiveTick
}

// toggleOptional switches the i-th optional cell of the layout
func (f *face) toggleOptional(i int) {
	if i < 0 || i >= len(f.config.Layout.Optional) {
		return
	}
	t := f.config.Layout.Optional[i]
	enabled, err := f.services.ToggleCell(f.grid, t)
	if err != nil {
		f.logger.Warn(fmt.Sprintf("toggling cell: %s", err.Error()), slog.String("cell", t.Cell.CellID()))
		return
	}
	f.logger.Info("cell toggled", slog.String("cell", t.Cell.CellID()), slog.Bool("enabled", enabled))
}

func (f *face) toggleLocationPermission() {
	status := permission.Granted
	if f.registry.Has(permission.Location) {
		status = permission.Denied
	}
	if err := f.registry.Set(permission.Location, status); err != nil {
		f.logger.Warn(fmt.Sprintf("setting permission: %s", err.Error()))
	}
}

func (f *face) frame() render.Frame {
	return render.FrameOf(f.grid)
}
