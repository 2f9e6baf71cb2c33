package storage

import (
	"database/sql"
)

// fixData is the last_fix row. Timestamps are unix milliseconds.
type fixData struct {
	Timestamp int64
	Latitude  float64
	Longitude float64
	Altitude  sql.NullFloat64
	Accuracy  float64
	Provider  string
}
