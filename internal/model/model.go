package model

import "time"

// RoutineLabel names a daily check-in slot. It is the join key between
// reminders, logs and notifications.
type RoutineLabel string

const (
	Fasting       RoutineLabel = "Fasting"
	PreBreakfast  RoutineLabel = "Pre-Breakfast"
	PostBreakfast RoutineLabel = "Post-Breakfast"
	PreLunch      RoutineLabel = "Pre-Lunch"
	PostLunch     RoutineLabel = "Post-Lunch"
	PreDinner     RoutineLabel = "Pre-Dinner"
	PostDinner    RoutineLabel = "Post-Dinner"
	BeforeBed     RoutineLabel = "Before Bed"
)

// Labels lists every routine label in day order.
var Labels = []RoutineLabel{
	Fasting, PreBreakfast, PostBreakfast, PreLunch,
	PostLunch, PreDinner, PostDinner, BeforeBed,
}

func (l RoutineLabel) Valid() bool {
	for _, k := range Labels {
		if k == l {
			return true
		}
	}
	return false
}

// Reminder is a daily check-in schedule entry.
type Reminder struct {
	ID           string       `json:"id"`
	Label        RoutineLabel `json:"label" validate:"routine"`
	Time         string       `json:"time" validate:"clock"` // HH:MM
	Enabled      bool         `json:"enabled"`
	SnoozedUntil *time.Time   `json:"snoozedUntil,omitempty"`
}

// Minutes returns the reminder time as minutes since midnight.
func (r Reminder) Minutes() (int, error) {
	t, err := time.Parse("15:04", r.Time)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Snoozed reports whether the reminder is suppressed at now.
func (r Reminder) Snoozed(now time.Time) bool {
	return r.SnoozedUntil != nil && now.Before(*r.SnoozedUntil)
}

// GlucoseLog is an append-only reading in mg/dL.
type GlucoseLog struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Value     float64      `json:"value"`
	Label     RoutineLabel `json:"label"`
}

type NotificationType string

const (
	Tactical  NotificationType = "tactical"
	Strategic NotificationType = "strategic"
	Info      NotificationType = "info"
)

// Notification is an alert shown to the user. ReminderID is only set on
// tactical notifications.
type Notification struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	Timestamp  time.Time        `json:"timestamp"`
	ReminderID string           `json:"reminderId,omitempty"`
}

// WeeklySummary aggregates readings over a trailing window.
type WeeklySummary struct {
	Days        int          `json:"days"`
	TimeInRange int          `json:"timeInRange"` // percent
	Average     int          `json:"average"`
	TotalLogs   int          `json:"totalLogs"`
	MissingLogs int          `json:"missingLogs"`
	Latest      *GlucoseLog  `json:"latest"`
	Recent      []GlucoseLog `json:"recent"`
}

// Insight is a short supportive review of a summary.
type Insight struct {
	Summary       string `json:"summary"`
	Encouragement string `json:"encouragement"`
}

// DefaultReminders is the schedule seeded on first run.
func DefaultReminders() []Reminder {
	return []Reminder{
		{ID: "1", Label: Fasting, Time: "07:00", Enabled: true},
		{ID: "2", Label: PostBreakfast, Time: "09:30", Enabled: true},
		{ID: "3", Label: PostLunch, Time: "13:30", Enabled: true},
		{ID: "4", Label: PostDinner, Time: "20:30", Enabled: true},
		{ID: "5", Label: BeforeBed, Time: "22:30", Enabled: true},
	}
}
