package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"glucotrack/internal/model"
)

const (
	WeeklyReviewTitle  = "Weekly Review"
	MonthlyReportTitle = "Monthly Health Report"

	weeklyReviewMessage  = "It's Sunday! Take a look at your 'Time in Range' summary for the week."
	monthlyReportMessage = "Your 30-day health summary is ready. Export the PDF for your next doctor visit."
)

// MonthlyScope selects how the monthly report is deduplicated.
type MonthlyScope string

const (
	// MonthlyEver creates the report only if no report with the title exists at all.
	MonthlyEver MonthlyScope = "ever"
	// MonthlyPerMonth creates one report per calendar month.
	MonthlyPerMonth MonthlyScope = "month"
)

// CopyProvider returns candidate messages for a routine. Implementations
// must never fail; they fall back to canned text instead.
type CopyProvider interface {
	SupportiveCopy(ctx context.Context, label model.RoutineLabel) []string
}

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

// Rules holds the evaluation parameters. All calendar and minute-of-day
// arithmetic happens in Location.
type Rules struct {
	DueWindow    time.Duration
	DedupWindow  time.Duration
	SnoozeFor    time.Duration
	WeeklyDay    time.Weekday
	MonthlyDay   int
	MonthlyScope MonthlyScope
	Location     *time.Location
}

func DefaultRules() Rules {
	return Rules{
		DueWindow:    30 * time.Minute,
		DedupWindow:  30 * time.Minute,
		SnoozeFor:    15 * time.Minute,
		WeeklyDay:    time.Sunday,
		MonthlyDay:   1,
		MonthlyScope: MonthlyEver,
		Location:     time.Local,
	}
}

func (r Rules) loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r Rules) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(r.loc()).Date()
	by, bm, bd := b.In(r.loc()).Date()
	return ay == by && am == bm && ad == bd
}

// Due reports whether now falls in the reminder's window. Both ends are
// inclusive at minute granularity, so a 30 minute window spans 31 minutes.
// The window does not wrap past midnight.
func (r Rules) Due(rem model.Reminder, now time.Time) bool {
	scheduled, err := rem.Minutes()
	if err != nil {
		return false
	}
	local := now.In(r.loc())
	current := local.Hour()*60 + local.Minute()
	return current >= scheduled && current <= scheduled+int(r.DueWindow/time.Minute)
}

// LoggedToday reports whether a log for label exists on now's calendar date.
func (r Rules) LoggedToday(logs []model.GlucoseLog, label model.RoutineLabel, now time.Time) bool {
	for _, l := range logs {
		if l.Label == label && r.sameDay(l.Timestamp, now) {
			return true
		}
	}
	return false
}

// Alerted reports whether a notification for the reminder was raised within
// the dedup window, or at or after the start of today's due window. The
// second check keeps the last minute of the window from alerting again.
func (r Rules) Alerted(notifications []model.Notification, rem model.Reminder, now time.Time) bool {
	start, scoped := r.windowStart(rem, now)
	for _, n := range notifications {
		if n.ReminderID != rem.ID {
			continue
		}
		if now.Sub(n.Timestamp) < r.DedupWindow {
			return true
		}
		if scoped && !n.Timestamp.Before(start) {
			return true
		}
	}
	return false
}

// windowStart is the reminder's scheduled minute on now's date in Location.
func (r Rules) windowStart(rem model.Reminder, now time.Time) (time.Time, bool) {
	minutes, err := rem.Minutes()
	if err != nil {
		return time.Time{}, false
	}
	local := now.In(r.loc())
	return time.Date(local.Year(), local.Month(), local.Day(), minutes/60, minutes%60, 0, 0, r.loc()), true
}

// Eligible reports whether a tactical notification should be raised for rem.
func (r Rules) Eligible(rem model.Reminder, logs []model.GlucoseLog, notifications []model.Notification, now time.Time) bool {
	if !rem.Enabled || rem.Snoozed(now) {
		return false
	}
	if !r.Due(rem, now) {
		return false
	}
	if r.LoggedToday(logs, rem.Label, now) {
		return false
	}
	return !r.Alerted(notifications, rem, now)
}

// DueReminders returns the reminders that would raise a notification at now.
// Every check reads the given snapshot only.
func (r Rules) DueReminders(reminders []model.Reminder, logs []model.GlucoseLog, notifications []model.Notification, now time.Time) []model.Reminder {
	var due []model.Reminder
	for _, rem := range reminders {
		if r.Eligible(rem, logs, notifications, now) {
			due = append(due, rem)
		}
	}
	return due
}

// TacticalNotifications builds one notification per due reminder. Copy for
// each reminder is fetched concurrently; the result keeps schedule order.
func (r Rules) TacticalNotifications(ctx context.Context, due []model.Reminder, now time.Time, provider CopyProvider, pick Picker) []model.Notification {
	candidates := make([][]string, len(due))
	g, gctx := errgroup.WithContext(ctx)
	for i, rem := range due {
		g.Go(func() error {
			candidates[i] = provider.SupportiveCopy(gctx, rem.Label)
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.Notification, 0, len(due))
	for i, rem := range due {
		out = append(out, model.Notification{
			ID:         fmt.Sprintf("alert-%s-%d", rem.ID, now.UnixMilli()),
			Title:      fmt.Sprintf("%s Check-in", rem.Label),
			Message:    choose(candidates[i], pick, rem.Label),
			Type:       model.Tactical,
			Timestamp:  now,
			ReminderID: rem.ID,
		})
	}
	return out
}

func choose(candidates []string, pick Picker, label model.RoutineLabel) string {
	if len(candidates) == 0 {
		return fmt.Sprintf("Time for your %s check.", label)
	}
	i := pick.IntN(len(candidates))
	if i < 0 || i >= len(candidates) {
		i = 0
	}
	return candidates[i]
}

// EvaluateTactical returns notifications with a tactical notification
// prepended for every reminder that is due, not snoozed, not yet logged
// today and not already alerted.
func (r Rules) EvaluateTactical(ctx context.Context, reminders []model.Reminder, logs []model.GlucoseLog, notifications []model.Notification, now time.Time, provider CopyProvider, pick Picker) []model.Notification {
	due := r.DueReminders(reminders, logs, notifications, now)
	if len(due) == 0 {
		return notifications
	}
	created := r.TacticalNotifications(ctx, due, now, provider, pick)
	// most recent first; within a tick the later reminder sits on top
	out := make([]model.Notification, 0, len(created)+len(notifications))
	for i := len(created) - 1; i >= 0; i-- {
		out = append(out, created[i])
	}
	return append(out, notifications...)
}

// EvaluateStrategic adds the weekly review and the monthly report when
// their day comes round.
func (r Rules) EvaluateStrategic(notifications []model.Notification, now time.Time) []model.Notification {
	local := now.In(r.loc())

	if local.Weekday() == r.WeeklyDay && !r.hasStrategic(notifications, WeeklyReviewTitle, func(n model.Notification) bool {
		return r.sameDay(n.Timestamp, now)
	}) {
		notifications = prepend(notifications, model.Notification{
			ID:        fmt.Sprintf("weekly-%d", now.UnixMilli()),
			Title:     WeeklyReviewTitle,
			Message:   weeklyReviewMessage,
			Type:      model.Strategic,
			Timestamp: now,
		})
	}

	if local.Day() == r.MonthlyDay && !r.hasStrategic(notifications, MonthlyReportTitle, func(n model.Notification) bool {
		if r.MonthlyScope != MonthlyPerMonth {
			return true
		}
		t := n.Timestamp.In(r.loc())
		return t.Year() == local.Year() && t.Month() == local.Month()
	}) {
		notifications = prepend(notifications, model.Notification{
			ID:        fmt.Sprintf("monthly-%d", now.UnixMilli()),
			Title:     MonthlyReportTitle,
			Message:   monthlyReportMessage,
			Type:      model.Strategic,
			Timestamp: now,
		})
	}

	return notifications
}

func (r Rules) hasStrategic(notifications []model.Notification, title string, match func(model.Notification) bool) bool {
	for _, n := range notifications {
		if n.Type == model.Strategic && n.Title == title && match(n) {
			return true
		}
	}
	return false
}

// AddLog appends a reading and retires every tactical notification whose
// reminder resolves to the same label.
func AddLog(logs []model.GlucoseLog, notifications []model.Notification, reminders []model.Reminder, value float64, label model.RoutineLabel, now time.Time) ([]model.GlucoseLog, []model.Notification, model.GlucoseLog) {
	entry := model.GlucoseLog{
		ID:        logID(logs, now),
		Timestamp: now,
		Value:     value,
		Label:     label,
	}
	logs = append(logs, entry)
	return logs, RetireLabel(notifications, reminders, label), entry
}

// logID derives the id from the timestamp, suffixing on collision.
func logID(logs []model.GlucoseLog, now time.Time) string {
	base := fmt.Sprintf("log-%d", now.UnixMilli())
	taken := make(map[string]struct{}, len(logs))
	for _, l := range logs {
		taken[l.ID] = struct{}{}
	}
	id := base
	for n := 2; ; n++ {
		if _, ok := taken[id]; !ok {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

// RetireLabel drops tactical notifications whose reminder carries label.
func RetireLabel(notifications []model.Notification, reminders []model.Reminder, label model.RoutineLabel) []model.Notification {
	labels := make(map[string]model.RoutineLabel, len(reminders))
	for _, rem := range reminders {
		labels[rem.ID] = rem.Label
	}
	out := make([]model.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.Type == model.Tactical && n.ReminderID != "" {
			if l, ok := labels[n.ReminderID]; ok && l == label {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// Snooze removes the notification with notifID and, when it points at a
// reminder, suppresses that reminder for SnoozeFor. found is false when no
// such notification exists; nothing changes in that case.
func (r Rules) Snooze(reminders []model.Reminder, notifications []model.Notification, notifID string, now time.Time) ([]model.Reminder, []model.Notification, bool) {
	idx := -1
	for i, n := range notifications {
		if n.ID == notifID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return reminders, notifications, false
	}

	if rid := notifications[idx].ReminderID; rid != "" {
		reminders = r.snoozeWhere(reminders, now, func(rem model.Reminder) bool { return rem.ID == rid })
	}

	out := make([]model.Notification, 0, len(notifications)-1)
	out = append(out, notifications[:idx]...)
	out = append(out, notifications[idx+1:]...)
	return reminders, out, true
}

func (r Rules) snoozeWhere(reminders []model.Reminder, now time.Time, match func(model.Reminder) bool) []model.Reminder {
	until := now.Add(r.SnoozeFor)
	out := make([]model.Reminder, len(reminders))
	for i, rem := range reminders {
		if match(rem) {
			u := until
			rem.SnoozedUntil = &u
		}
		out[i] = rem
	}
	return out
}

// ClearAll drops every notification.
func ClearAll([]model.Notification) []model.Notification {
	return []model.Notification{}
}

func prepend(notifications []model.Notification, n model.Notification) []model.Notification {
	out := make([]model.Notification, 0, len(notifications)+1)
	out = append(out, n)
	return append(out, notifications...)
}
