package feed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/permission"
	"github.com/roman-kulish/wrist-telemetry/internal/telemetry"
)

// Kind of a feed record
type Kind string

const (
	KindPressure   Kind = "pressure"
	KindFix        Kind = "fix"
	KindBattery    Kind = "battery"
	KindPermission Kind = "permission"
	KindAmbient    Kind = "ambient"
	KindVisible    Kind = "visible"
	KindSleep      Kind = "sleep"
)

var ErrUnknownRecord = errors.New("unknown record")

// Record is a single parsed feed line. Only the fields of its Kind are set.
type Record struct {
	Kind Kind

	Pressure telemetry.Pressure
	Fix      telemetry.Fix
	Battery  int

	Capability permission.Capability
	Status     permission.Status

	On    bool
	Sleep time.Duration
}

// Parse parses one line of the feed. Lines look like:
//
//	pressure 101325 [timestamp]
//	fix 52.52 13.405 34.5 8 1718950000000
//	fix 52.52 13.405 - 8 2024-06-21T06:00:00Z
//	battery 85
//	permission location granted
//	ambient on
//	visible off
//	sleep 250ms
//
// Timestamps are unix milliseconds or RFC3339; a missing pressure timestamp is now.
func Parse(line string, now time.Time) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, fmt.Errorf("%w: empty line", ErrUnknownRecord)
	}

	kind, args := Kind(fields[0]), fields[1:]
	switch kind {
	case KindPressure:
		return parsePressure(args, now)
	case KindFix:
		return parseFix(args)
	case KindBattery:
		return parseBattery(args)
	case KindPermission:
		return parsePermission(args)
	case KindAmbient, KindVisible:
		return parseSwitch(kind, args)
	case KindSleep:
		return parseSleep(args)
	}

	return Record{}, fmt.Errorf("%w: %q", ErrUnknownRecord, fields[0])
}

func expectArgs(kind Kind, args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		return fmt.Errorf("%s: expected %d to %d arguments, got %d", kind, min, max, len(args))
	}
	return nil
}

func parsePressure(args []string, now time.Time) (Record, error) {
	if err := expectArgs(KindPressure, args, 1, 2); err != nil {
		return Record{}, err
	}

	value, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return Record{}, fmt.Errorf("parsing pressure: %w", err)
	}

	ts := now
	if len(args) == 2 {
		if ts, err = parseTimestamp(args[1]); err != nil {
			return Record{}, err
		}
	}

	return Record{Kind: KindPressure, Pressure: telemetry.Pressure{Timestamp: ts, Value: value}}, nil
}

func parseFix(args []string) (Record, error) {
	if err := expectArgs(KindFix, args, 5, 5); err != nil {
		return Record{}, err
	}

	var (
		f   = telemetry.Fix{Provider: "feed"}
		err error
	)

	if f.Latitude, err = strconv.ParseFloat(args[0], 64); err != nil || f.Latitude < -90 || f.Latitude > 90 {
		return Record{}, fmt.Errorf("parsing latitude %q", args[0])
	}
	if f.Longitude, err = strconv.ParseFloat(args[1], 64); err != nil || f.Longitude < -180 || f.Longitude > 180 {
		return Record{}, fmt.Errorf("parsing longitude %q", args[1])
	}
	if args[2] != "-" {
		alt, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return Record{}, fmt.Errorf("parsing altitude: %w", err)
		}
		f.Altitude = telemetry.Float(alt)
	}
	if f.Accuracy, err = strconv.ParseFloat(args[3], 64); err != nil || f.Accuracy < 0 {
		return Record{}, fmt.Errorf("parsing accuracy %q", args[3])
	}
	if f.Timestamp, err = parseTimestamp(args[4]); err != nil {
		return Record{}, err
	}

	return Record{Kind: KindFix, Fix: f}, nil
}

func parseBattery(args []string) (Record, error) {
	if err := expectArgs(KindBattery, args, 1, 1); err != nil {
		return Record{}, err
	}

	level, err := strconv.Atoi(strings.TrimSuffix(args[0], "%"))
	if err != nil || level < 0 || level > 100 {
		return Record{}, fmt.Errorf("parsing battery level %q", args[0])
	}

	return Record{Kind: KindBattery, Battery: level}, nil
}

func parsePermission(args []string) (Record, error) {
	if err := expectArgs(KindPermission, args, 2, 2); err != nil {
		return Record{}, err
	}

	c, err := permission.ParseCapability(args[0])
	if err != nil {
		return Record{}, err
	}
	st, err := permission.ParseStatus(args[1])
	if err != nil {
		return Record{}, err
	}

	return Record{Kind: KindPermission, Capability: c, Status: st}, nil
}

func parseSwitch(kind Kind, args []string) (Record, error) {
	if err := expectArgs(kind, args, 1, 1); err != nil {
		return Record{}, err
	}

	switch args[0] {
	case "on":
		return Record{Kind: kind, On: true}, nil
	case "off":
		return Record{Kind: kind, On: false}, nil
	}
	return Record{}, fmt.Errorf("%s: expected on or off, got %q", kind, args[0])
}

func parseSleep(args []string) (Record, error) {
	if err := expectArgs(KindSleep, args, 1, 1); err != nil {
		return Record{}, err
	}

	d, err := time.ParseDuration(args[0])
	if err != nil || d < 0 {
		return Record{}, fmt.Errorf("parsing sleep duration %q", args[0])
	}
	return Record{Kind: KindSleep, Sleep: d}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return ts, nil
}
