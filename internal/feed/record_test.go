package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/roman-kulish/wrist-telemetry/internal/permission"
)

var testNow = time.Date(2025, time.June, 21, 12, 0, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	rec, err := Parse("pressure 101325", testNow)
	if err != nil || rec.Kind != KindPressure || rec.Pressure.Value != 101325 || !rec.Pressure.Timestamp.Equal(testNow) {
		t.Fatalf("unexpected pressure record %+v err=%v", rec, err)
	}

	rec, err = Parse("fix 52.52 13.405 34.5 8 1750500000000", testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Fix.Latitude != 52.52 || rec.Fix.Longitude != 13.405 || !rec.Fix.HasAltitude() || *rec.Fix.Altitude != 34.5 || rec.Fix.Accuracy != 8 {
		t.Errorf("unexpected fix %+v", rec.Fix)
	}
	if !rec.Fix.Timestamp.Equal(time.UnixMilli(1750500000000)) {
		t.Errorf("unexpected timestamp %v", rec.Fix.Timestamp)
	}

	rec, err = Parse("fix 41 11 - 3 2025-06-21T06:00:00Z", testNow)
	if err != nil || rec.Fix.HasAltitude() || rec.Fix.Timestamp.Hour() != 6 {
		t.Errorf("unexpected fix without altitude %+v err=%v", rec.Fix, err)
	}

	rec, err = Parse("permission location denied_do_not_ask_again", testNow)
	if err != nil || rec.Capability != permission.Location || rec.Status != permission.DeniedDoNotAskAgain {
		t.Errorf("unexpected permission record %+v err=%v", rec, err)
	}

	rec, err = Parse("ambient on", testNow)
	if err != nil || rec.Kind != KindAmbient || !rec.On {
		t.Errorf("unexpected ambient record %+v err=%v", rec, err)
	}

	rec, err = Parse("battery 85%", testNow)
	if err != nil || rec.Battery != 85 {
		t.Errorf("unexpected battery record %+v err=%v", rec, err)
	}

	rec, err = Parse("sleep 250ms", testNow)
	if err != nil || rec.Sleep != 250*time.Millisecond {
		t.Errorf("unexpected sleep record %+v err=%v", rec, err)
	}
}

func TestParse_Invalid(t *testing.T) {
	lines := []string{
		"pressure",
		"pressure abc",
		"fix 91 0 - 3 0",
		"fix 0 0 - -1 0",
		"fix 0 0 - 1 yesterday",
		"battery 101",
		"permission camera granted",
		"permission location maybe",
		"visible maybe",
		"sleep -1s",
	}
	for _, line := range lines {
		if _, err := Parse(line, testNow); err == nil {
			t.Errorf("%q: expected error", line)
		}
	}

	if _, err := Parse("heartrate 60", testNow); !errors.Is(err, ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord, got %v", err)
	}
}
