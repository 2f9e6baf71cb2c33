package feed

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// ParseErrorsThreshold defines the number of consecutive parse errors allowed
	ParseErrorsThreshold = 5
)

var (
	// ErrTooManyParseErrors is returned when the number of consecutive parse errors exceeds the threshold
	ErrTooManyParseErrors = errors.New("too many consecutive parse errors")

	// ErrBrokenPipe is returned when there's an error reading from stdout or stderr
	ErrBrokenPipe = errors.New("broken pipe")
)

// Sink receives parsed records
type Sink interface {
	Handle(r Record)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(r Record)

func (f SinkFunc) Handle(r Record) {
	f(r)
}

// WithLogger sets the logger for the device
func WithLogger(logger *slog.Logger) func(d *Device) {
	return func(d *Device) {
		d.logger = logger.With(slog.String("feed", d.source.Name()))
	}
}

// WithParseErrorsThreshold sets the threshold for consecutive parse errors
func WithParseErrorsThreshold(threshold uint8) func(d *Device) {
	return func(d *Device) {
		d.parseErrorsThreshold = threshold
	}
}

// WithClock sets the time source used to stamp records without a timestamp
func WithClock(now func() time.Time) func(d *Device) {
	return func(d *Device) {
		d.now = now
	}
}

// Device reads telemetry records from a source and hands them to a sink. It stands in
// for the watch sensors, positioning service and host lifecycle.
type Device struct {
	source Source

	isRunning atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	parseErrorsThreshold uint8
	now                  func() time.Time
	logger               *slog.Logger
}

// NewDevice creates a new Device instance with a discard logger
func NewDevice(source Source, options ...func(d *Device)) *Device {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	d := Device{
		source:               source,
		logger:               logger,
		parseErrorsThreshold: ParseErrorsThreshold,
		now:                  time.Now,
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

// Begin starts reading records in the background. The returned channel is closed when
// reading stops and carries the error that stopped it, if any.
func (d *Device) Begin(ctx context.Context, sink Sink) (<-chan error, error) {
	if d.isRunning.Load() {
		return nil, fmt.Errorf("feed is already running")
	}

	d.isRunning.Store(true)

	ctx, d.cancel = context.WithCancel(ctx)

	s, err := d.source.Open(ctx)
	if err != nil {
		d.isRunning.Store(false) // Reset running state on error
		d.cancel()
		return nil, fmt.Errorf("opening %s: %w", d.source.Name(), err)
	}

	stopped := make(chan error, 1)

	d.wg.Add(1)
	go func() {
		defer close(stopped)

		d.logger.Info("reading feed...")

		done := make(chan error, 3) // expects three results from three goroutines

		scanned := make(chan struct{})
		go func() {
			defer close(scanned)
			done <- d.scan(ctx, s.Stdout, sink, true)
		}()
		go d.handleStderr(s.Stderr, done)
		go func() {
			<-scanned // Wait closes the pipes, stdout must be fully read first
			d.handleWait(s.Wait, done)
		}()

		var errs []error
		for i := 0; i < cap(done); i++ {
			if err := <-done; err != nil {
				d.cancel() // cancel context on error
				d.logger.Error(err.Error())

				errs = append(errs, err)
			}
		}

		if s.Close != nil {
			if err := s.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", d.source.Name(), err))
			}
		}

		d.logger.Info("feed stopped")

		d.isRunning.Store(false)
		d.wg.Done()

		if len(errs) > 0 {
			stopped <- errors.Join(errs...)
		}
	}()

	return stopped, nil
}

// Replay reads every record from r synchronously, ignoring sleep records
func (d *Device) Replay(ctx context.Context, r io.Reader, sink Sink) error {
	return d.scan(ctx, r, sink, false)
}

func (d *Device) Stop() {
	if !d.isRunning.Load() {
		return // already stopped
	}

	d.cancel()
	d.wg.Wait()
	d.isRunning.Store(false)
}

// IsRunning returns true if the feed is being read
func (d *Device) IsRunning() bool {
	return d.isRunning.Load()
}

// scan reads, parses and hands records to the sink
func (d *Device) scan(ctx context.Context, r io.Reader, sink Sink, sleep bool) error {
	var parseErrors uint8

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := Parse(line, d.now())
		if err != nil {
			parseErrors++
			d.logger.Warn(fmt.Sprintf("error parsing record: %s", err.Error()), slog.String("line", line))

			if parseErrors >= d.parseErrorsThreshold {
				return ErrTooManyParseErrors
			}

			continue
		}

		parseErrors = 0 // reset counter

		if rec.Kind == KindSleep {
			if sleep && !d.sleep(ctx, rec.Sleep) {
				return nil
			}
			continue
		}

		sink.Handle(rec)
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		return fmt.Errorf("%w: error reading feed: %w", ErrBrokenPipe, err)
	}

	return nil
}

func (d *Device) sleep(ctx context.Context, dur time.Duration) bool {
	t := time.NewTimer(dur)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// handleStderr reads from stderr and logs it
func (d *Device) handleStderr(stderr io.Reader, done chan<- error) {
	if stderr == nil {
		done <- nil
		return
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		d.logger.Warn(fmt.Sprintf("%s >> %s", d.source.Name(), line)) // simple logging here
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		done <- fmt.Errorf("%w: error reading stderr: %w", ErrBrokenPipe, err)
		return
	}

	done <- nil
}

// handleWait waits for the source to finish and sends the error to the error channel
func (d *Device) handleWait(wait func() error, done chan<- error) {
	if wait == nil {
		done <- nil
		return
	}

	if err := wait(); err != nil && !errors.Is(err, context.Canceled) {
		done <- fmt.Errorf("source exited with error: %w", err)
		return
	}

	done <- nil
}
