package altitude

import (
	"time"
)

// WeightPolicy computes how much a location sample is trusted relative to the
// barometer. A zero weight means pressure only.
type WeightPolicy func(loc LocationSample, now time.Time, cfg Config) float64

// TimestampWeight is the weighting the watch face has always shipped with:
//
//	w = 1 - (accuracy*accuracyWeight + ts*ageWeight) / (accuracy + ts)
//
// where ts is the raw epoch timestamp of the fix in milliseconds. Mixing an absolute
// timestamp into the ratio makes w converge to 1-ageWeight for any real fix, so age
// and accuracy barely matter. It is kept as the default to preserve behaviour; use
// ElapsedAgeWeight for an age based variant.
func TimestampWeight(loc LocationSample, _ time.Time, cfg Config) float64 {
	ts := float64(loc.Timestamp.UnixMilli())
	den := loc.Accuracy + ts
	if den == 0 {
		return 0
	}
	return 1 - (loc.Accuracy*cfg.AccuracyWeight+ts*cfg.AgeWeight)/den
}

// ElapsedAgeWeight applies the same ratio to the age of the fix in seconds instead
// of its absolute timestamp. A fresh, exact fix gets weight 1.
func ElapsedAgeWeight(loc LocationSample, now time.Time, cfg Config) float64 {
	age := now.Sub(loc.Timestamp).Seconds()
	if age < 0 {
		age = 0
	}
	den := loc.Accuracy + age
	if den == 0 {
		return 1
	}
	w := 1 - (loc.Accuracy*cfg.AccuracyWeight+age*cfg.AgeWeight)/den
	return min(max(w, 0), 1)
}

// PolicyByName resolves a configured weighting name
func PolicyByName(name string) (WeightPolicy, bool) {
	switch name {
	case "", "timestamp":
		return TimestampWeight, true
	case "age":
		return ElapsedAgeWeight, true
	}
	return nil, false
}
