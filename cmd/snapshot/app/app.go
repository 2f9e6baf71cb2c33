package app

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
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

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.FeedFile); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("feed file '%s' does not exist: %w", config.FeedFile, err)
	}

	var store storage.Store
	if config.DBPath != "" {
		s := storage.NewSqliteStore(config.DBPath)
		defer s.Close()
		store = s
	}

	g, err := replay(ctx, config, store, logger)
	if err != nil {
		return err
	}
	defer g.Destroy()

	frame := render.FrameOf(g)
	if config.Verbose {
		for i, row := range frame.Rows {
			for _, c := range row {
				logger.Info("cell", slog.Int("row", i), slog.String("text", c.Text))
			}
		}
	}

	renderer, err := render.NewRenderer(config.Render)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	img, err := renderer.Render(frame)
	if err != nil {
		return fmt.Errorf("rendering frame: %w", err)
	}

	if err = writeImage(img, config); err != nil {
		return err
	}

	logger.Info("snapshot written", slog.String("path", config.OutputFile))
	return nil
}

// replay builds the grid, feeds it every record of the feed file and leaves it in the
// requested display state. Everything runs on the calling goroutine.
func replay(ctx context.Context, config *Config, store storage.Store, logger *slog.Logger) (*grid.Grid, error) {
	queue := loop.NewQueue(loop.WithLogger(logger))
	defer queue.Close()

	var registryOptions []func(*permission.Registry)
	var locationOptions []func(*location.Client)
	registryOptions = append(registryOptions, permission.WithLogger(logger))
	locationOptions = append(locationOptions, location.WithLogger(logger))
	if store != nil {
		registryOptions = append(registryOptions, permission.WithStore(store))
		locationOptions = append(locationOptions, location.WithStore(store))
	}

	registry, err := permission.NewRegistry(queue, registryOptions...)
	if err != nil {
		return nil, fmt.Errorf("creating permission registry: %w", err)
	}

	var g *grid.Grid
	router := feed.NewRouter(func(rec feed.Record) {
		switch rec.Kind {
		case feed.KindPermission:
			if err := registry.Set(rec.Capability, rec.Status); err != nil {
				logger.Warn(fmt.Sprintf("setting permission: %s", err.Error()))
			}
		case feed.KindAmbient:
			_ = queue.Post("ambient", func() { g.SetAmbient(rec.On) })
		case feed.KindVisible:
			_ = queue.Post("visible", func() { g.SetVisible(rec.On) })
		}
	}, feed.WithRouterLogger(logger))

	services := watchface.Services{
		Env: grid.Env{
			Gate:     registry,
			Logger:   logger,
			Now:      func() time.Time { return config.At },
			Timezone: config.Timezone,
		},
		Engine:   altitude.NewEngine(altitude.DefaultConfig(), altitude.WithLogger(logger)),
		Pressure: stream.NewHub[telemetry.Pressure]("pressure", router.Barometer, queue, stream.WithLogger[telemetry.Pressure](logger)),
		Location: location.NewClient(router.GPS, queue, locationOptions...),
		Battery:  router.Battery,
	}

	if g, err = watchface.Build(config.Layout, services, grid.WithLogger(logger)); err != nil {
		return nil, fmt.Errorf("building grid: %w", err)
	}
	registry.Watch(g.PermissionChanged)

	g.SetLowPowerRendering(config.LowPower)
	g.SetBurnInProtection(config.BurnIn)
	if config.Invert {
		g.InvertColors()
	}

	if config.GrantLocation {
		if err = registry.Set(permission.Location, permission.Granted); err != nil {
			g.Destroy()
			return nil, err
		}
		queue.Drain()
	}

	g.Start()

	f, err := os.Open(config.FeedFile)
	if err != nil {
		g.Destroy()
		return nil, fmt.Errorf("opening feed: %w", err)
	}
	defer f.Close()

	device := feed.NewDevice(feed.FileSource{Path: config.FeedFile}, feed.WithLogger(logger), feed.WithClock(func() time.Time { return config.At }))
	if err = device.Replay(ctx, f, router); err != nil {
		g.Destroy()
		return nil, fmt.Errorf("replaying feed: %w", err)
	}

	queue.Drain()

	if config.Ambient {
		g.SetAmbient(true)
	}
	g.Tick(config.At)

	return g, nil
}

func writeImage(img image.Image, config *Config) (err error) {
	out, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing output file: %w", closeErr)
		}
	}()

	switch config.Format {
	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
	default:
		err = png.Encode(out, img)
	}
	if err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}

	return nil
}
