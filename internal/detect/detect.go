package detect

import (
	"context"
	"sort"
)

// Event is a single detected beat. Time is in seconds from the start of the
// recording. Downbeat marks the first beat of a measure. BeatInMeasure is the
// 1-based position within the measure as reported by the backend, or 0 when
// the backend cannot tell.
type Event struct {
	Time          float64
	Downbeat      bool
	BeatInMeasure int
}

// Detector is an opaque beat/downbeat detection backend. Implementations
// decode the audio themselves; Detect returns events in ascending time order.
type Detector interface {
	Name() string
	Detect(ctx context.Context, audioPath string) ([]Event, error)
}

// SortEvents orders events by ascending time. The sort is stable so backends
// that emit coincident events keep their relative order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
}

// ValidateOrdering reports whether events are in ascending time order.
func ValidateOrdering(events []Event) bool {
	for i := 1; i < len(events); i++ {
		if events[i].Time < events[i-1].Time {
			return false
		}
	}
	return true
}

// Measure holds the measure numbering for one event, computed by
// NumberMeasures.
type Measure struct {
	Number        int
	BeatInMeasure int
}

// NumberMeasures assigns measure numbers to an ordered event sequence. The
// measure counter increments on every downbeat; beats before the first
// downbeat belong to measure 0 and keep the backend's beat position.
func NumberMeasures(events []Event) []Measure {
	out := make([]Measure, len(events))
	current := 0
	for i, ev := range events {
		beat := ev.BeatInMeasure
		if ev.Downbeat {
			current++
			beat = 1
		}
		out[i] = Measure{Number: current, BeatInMeasure: beat}
	}
	return out
}
