package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
)

// runHeadless drains the queue on the calling goroutine. Ticks are scheduled by gocron
// and posted to the queue; every refresh logs the rendered rows.
func runHeadless(ctx context.Context, f *face, stopped <-chan error) error {
	scheduler := gocron.NewScheduler(f.services.Env.Timezone)

	_, err := scheduler.Every(f.config.Display.InteractiveTick).Do(func() {
		f.post("tick", func() {
			if f.tick(time.Now()) {
				f.logFrame()
			}
		})
	})
	if err != nil {
		return fmt.Errorf("scheduling ticks: %w", err)
	}

	scheduler.StartAsync()
	defer scheduler.Stop()

	f.logger.Info("running headless", slog.Duration("tick", f.config.Display.InteractiveTick))

	for {
		select {
		case <-ctx.Done():
			f.queue.Drain()
			return nil

		case err, ok := <-stopped:
			if ok && err != nil {
				return fmt.Errorf("feed stopped: %w", err)
			}
			stopped = nil // feed ended, keep showing the last values
			f.logger.Info("feed ended")

		case <-f.queue.Ready():
			f.queue.Drain()
		}
	}
}

func (f *face) logFrame() {
	if !f.grid.Visible() {
		return
	}

	frame := f.frame()
	rows := make([]string, 0, len(frame.Rows))
	for _, row := range frame.Rows {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			cells = append(cells, c.Text)
		}
		rows = append(rows, strings.Join(cells, "  "))
	}

	f.logger.Info("frame", slog.String("rows", strings.Join(rows, " / ")), slog.Bool("ambient", f.grid.Ambient()))
}
