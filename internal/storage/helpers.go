package storage

import (
	"database/sql"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func toFixData(f telemetry.Fix) *fixData {
	return &fixData{
		Timestamp: f.Timestamp.UnixMilli(),
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		Altitude: sql.NullFloat64{
			Float64: toSQLNullType[float64](f.Altitude),
			Valid:   f.HasAltitude(),
		},
		Accuracy: f.Accuracy,
		Provider: f.Provider,
	}
}

func fromFixData(d *fixData) telemetry.Fix {
	f := telemetry.Fix{
		Timestamp: time.UnixMilli(d.Timestamp).UTC(),
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Accuracy:  d.Accuracy,
		Provider:  d.Provider,
	}
	if d.Altitude.Valid {
		f.Altitude = telemetry.Float(d.Altitude.Float64)
	}
	return f
}

func toSQLNullType[T float64 | int64, Y float64 | int | int64](f *Y) T {
	if f == nil {
		return 0
	}
	return T(*f)
}
