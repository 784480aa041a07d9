package interval

import (
	"sort"
	"time"
)

// Interval is a half-open [Start, End) span on absolute instants.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i Interval) IsValid() bool {
	return i.Start.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// OverlapsAny reports whether iv overlaps any interval in list.
func OverlapsAny(iv Interval, list []Interval) bool {
	for _, b := range list {
		if Overlaps(iv, b) {
			return true
		}
	}
	return false
}

// Merge sorts the intervals and coalesces overlapping or adjacent ones.
// Invalid (empty or inverted) intervals are dropped.
func Merge(list []Interval) []Interval {
	valid := make([]Interval, 0, len(list))
	for _, iv := range list {
		if iv.IsValid() {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool {
		return valid[i].Start.Before(valid[j].Start)
	})

	merged := []Interval{valid[0]}
	for _, iv := range valid[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// Subtract removes every busy interval from window and returns the ordered
// free sub-intervals. Busy spans outside the window are ignored.
func Subtract(window Interval, busy []Interval) []Interval {
	if !window.IsValid() {
		return nil
	}

	merged := Merge(busy)

	var free []Interval
	cursor := window.Start

	for _, b := range merged {
		if !b.End.After(window.Start) || !b.Start.Before(window.End) {
			continue
		}
		if b.Start.After(cursor) {
			free = append(free, Interval{Start: cursor, End: minTime(b.Start, window.End)})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(window.End) {
			return free
		}
	}

	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
