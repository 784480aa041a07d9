package scheduling

import (
	"time"

	"github.com/crmforge/meeting-scheduler/internal/interval"
)

type GenerateInput struct {
	Window          interval.Interval
	DurationMinutes int
	StepMinutes     int

	// Buffers widen the span tested against busy intervals, so a slot is
	// only offered when its buffered envelope is free.
	BufferBeforeMinutes int
	BufferAfterMinutes  int

	Busy []interval.Interval
	Now  time.Time
}

// GenerateSlots enumerates candidate starts at StepMinutes resolution and
// keeps every candidate whose buffered interval fits the window's busy
// picture. Candidates starting at or before Now are dropped. Output is
// ascending by start.
func GenerateSlots(in GenerateInput) []Slot {
	if in.DurationMinutes <= 0 || !in.Window.IsValid() {
		return nil
	}

	step := in.StepMinutes
	if step <= 0 {
		step = DefaultStepMinutes
	}

	duration := time.Duration(in.DurationMinutes) * time.Minute
	stepDur := time.Duration(step) * time.Minute
	before := time.Duration(in.BufferBeforeMinutes) * time.Minute
	after := time.Duration(in.BufferAfterMinutes) * time.Minute

	busy := interval.Merge(in.Busy)

	var slots []Slot
	for cur := in.Window.Start; !cur.Add(duration).After(in.Window.End); cur = cur.Add(stepDur) {
		if !cur.After(in.Now) {
			continue
		}

		occupied := interval.Interval{
			Start: cur.Add(-before),
			End:   cur.Add(duration).Add(after),
		}
		if interval.OverlapsAny(occupied, busy) {
			continue
		}

		slots = append(slots, Slot{
			Start:           cur,
			End:             cur.Add(duration),
			DurationMinutes: in.DurationMinutes,
		})
	}

	return slots
}
