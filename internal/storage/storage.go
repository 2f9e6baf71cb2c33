package storage

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

// Store keeps the small amount of state the display needs across restarts: the most
// recent positioning fix and the user's answers to permission requests. It is not a
// history; every write replaces the previous value.
type Store interface {
	// SaveFix replaces the stored fix. Fixes older than the stored one are ignored.
	SaveFix(ctx context.Context, f telemetry.Fix) error

	// LastFix returns the stored fix. ok is false when nothing was saved yet.
	LastFix(ctx context.Context) (f telemetry.Fix, ok bool, err error)

	// SavePermission records the status of a capability
	SavePermission(ctx context.Context, capability, status string) error

	// Permissions returns every recorded capability status
	Permissions(ctx context.Context) (map[string]string, error)

	// Close releases all database connections. It is safe to call Close multiple times.
	Close() error
}
