package scheduling

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/crmforge/meeting-scheduler/internal/httperr"
	"github.com/crmforge/meeting-scheduler/internal/interval"
)

// DayWindow is one weekday's open window in "HH:mm" local time.
type DayWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkingHours maps a weekday to its open window. Absent weekday means the
// whole day is unavailable.
type WorkingHours map[time.Weekday]DayWindow

// DefaultWorkingHours is Mon-Fri 09:00-17:00.
func DefaultWorkingHours() WorkingHours {
	wh := WorkingHours{}
	for d := time.Monday; d <= time.Friday; d++ {
		wh[d] = DayWindow{Start: "09:00", End: "17:00"}
	}
	return wh
}

// ParseWorkingHours decodes the persisted JSON column, keyed "0".."6"
// (Sunday = 0). Empty input yields nil so callers can fall back to the
// default hours.
func ParseWorkingHours(raw string) (WorkingHours, error) {
	if raw == "" {
		return nil, nil
	}

	var byKey map[string]DayWindow
	if err := json.Unmarshal([]byte(raw), &byKey); err != nil {
		return nil, httperr.ErrBusiness("invalid_working_hours")
	}

	wh := WorkingHours{}
	for key, win := range byKey {
		day, err := strconv.Atoi(key)
		if err != nil || day < 0 || day > 6 {
			return nil, httperr.ErrBusiness("invalid_working_hours")
		}
		wh[time.Weekday(day)] = win
	}

	if err := wh.Validate(); err != nil {
		return nil, err
	}
	return wh, nil
}

func (wh WorkingHours) Validate() error {
	for _, win := range wh {
		start, okS := parseHM(win.Start)
		end, okE := parseHM(win.End)
		if !okS || !okE || !start.Before(end) {
			return httperr.ErrBusiness("invalid_working_hours")
		}
	}
	return nil
}

// MarshalJSONColumn renders the map back into its "0".."6"-keyed column form.
func (wh WorkingHours) MarshalJSONColumn() (string, error) {
	byKey := make(map[string]DayWindow, len(wh))
	for day, win := range wh {
		byKey[strconv.Itoa(int(day))] = win
	}
	b, err := json.Marshal(byKey)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LongestWindowMinutes returns the widest configured day window.
func (wh WorkingHours) LongestWindowMinutes() int {
	longest := 0
	for _, win := range wh {
		start, okS := parseHM(win.Start)
		end, okE := parseHM(win.End)
		if !okS || !okE {
			continue
		}
		if m := int(end.Sub(start) / time.Minute); m > longest {
			longest = m
		}
	}
	return longest
}

// WindowFor builds the absolute open interval for day's date in loc.
// ok is false when that weekday has no hours.
func (wh WorkingHours) WindowFor(day time.Time, loc *time.Location) (interval.Interval, bool) {
	local := day.In(loc)
	win, found := wh[local.Weekday()]
	if !found {
		return interval.Interval{}, false
	}

	start, okS := parseHM(win.Start)
	end, okE := parseHM(win.End)
	if !okS || !okE {
		return interval.Interval{}, false
	}

	atTime := func(t time.Time) time.Time {
		return time.Date(
			local.Year(), local.Month(), local.Day(),
			t.Hour(), t.Minute(), 0, 0,
			loc,
		)
	}

	iv := interval.Interval{Start: atTime(start), End: atTime(end)}
	if !iv.IsValid() {
		return interval.Interval{}, false
	}
	return iv, true
}

// GenerateFromWorkingHours produces slots for every calendar day of
// in.Window using the day's open hours in loc, clamped to in.Window.
func GenerateFromWorkingHours(in GenerateInput, wh WorkingHours, loc *time.Location) []Slot {
	if len(wh) == 0 {
		wh = DefaultWorkingHours()
	}
	if !in.Window.IsValid() {
		return nil
	}

	var slots []Slot

	day := in.Window.Start.In(loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)

	for day.Before(in.Window.End) {
		if open, ok := wh.WindowFor(day, loc); ok {
			sub := clamp(open, in.Window)
			if sub.IsValid() {
				dayIn := in
				dayIn.Window = sub
				slots = append(slots, GenerateSlots(dayIn)...)
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	return slots
}

func clamp(iv, bounds interval.Interval) interval.Interval {
	out := iv
	if bounds.Start.After(out.Start) {
		out.Start = bounds.Start
	}
	if bounds.End.Before(out.End) {
		out.End = bounds.End
	}
	return out
}

func parseHM(hm string) (time.Time, bool) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
