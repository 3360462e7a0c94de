package stats

import (
	"math"
	"slices"
	"time"

	"glucotrack/internal/model"
)

const (
	RangeLow  = 70
	RangeHigh = 140

	DefaultDays = 7
	recentCount = 7
)

// InRange reports whether a reading is within the target band.
func InRange(v float64) bool {
	return v >= RangeLow && v <= RangeHigh
}

// Window returns the readings from the start of the calendar day days-1
// before now up to now, oldest first.
func Window(logs []model.GlucoseLog, now time.Time, days int, loc *time.Location) []model.GlucoseLog {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day()-(days-1), 0, 0, 0, 0, loc)

	out := make([]model.GlucoseLog, 0, len(logs))
	for _, l := range logs {
		if !l.Timestamp.Before(start) && !l.Timestamp.After(now) {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b model.GlucoseLog) int { return a.Timestamp.Compare(b.Timestamp) })
	return out
}

// Summarize aggregates the trailing days. missingLogs counts scheduled
// check-ins (enabled reminders per day) that have no reading with that
// label on that day.
func Summarize(logs []model.GlucoseLog, reminders []model.Reminder, now time.Time, days int, loc *time.Location) model.WeeklySummary {
	if days <= 0 {
		days = DefaultDays
	}
	if loc == nil {
		loc = time.Local
	}
	window := Window(logs, now, days, loc)

	s := model.WeeklySummary{
		Days:      days,
		TotalLogs: len(window),
		Recent:    []model.GlucoseLog{},
	}
	if len(window) > 0 {
		var sum float64
		inRange := 0
		for _, l := range window {
			sum += l.Value
			if InRange(l.Value) {
				inRange++
			}
		}
		s.Average = int(math.Round(sum / float64(len(window))))
		s.TimeInRange = int(math.Round(float64(inRange) / float64(len(window)) * 100))
		latest := window[len(window)-1]
		s.Latest = &latest
		s.Recent = slices.Clone(window[max(0, len(window)-recentCount):])
	}

	enabled := make(map[model.RoutineLabel]int)
	for _, r := range reminders {
		if r.Enabled {
			enabled[r.Label]++
		}
	}
	expected := 0
	for _, n := range enabled {
		expected += n
	}
	expected *= days

	type slot struct {
		label model.RoutineLabel
		day   string
	}
	seen := make(map[slot]struct{})
	covered := 0
	for _, l := range window {
		n, ok := enabled[l.Label]
		if !ok {
			continue
		}
		k := slot{l.Label, l.Timestamp.In(loc).Format(time.DateOnly)}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		covered += n
	}
	s.MissingLogs = max(0, expected-covered)
	return s
}
