package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"glucotrack/internal/model"
)

var (
	// ErrTickInFlight is returned when an evaluation pass is already running.
	ErrTickInFlight = errors.New("evaluation already in flight")
	// ErrPersist wraps store write failures. The in-memory state keeps the change.
	ErrPersist = errors.New("persist state")
)

// Store is the durable side of the engine. It is read once by Load and
// written after every reminder or log mutation.
type Store interface {
	LoadReminders(ctx context.Context) ([]model.Reminder, error)
	SaveReminders(ctx context.Context, reminders []model.Reminder) error
	LoadLogs(ctx context.Context) ([]model.GlucoseLog, error)
	SaveLogs(ctx context.Context, logs []model.GlucoseLog) error
}

// Engine owns the reminder schedule, the log history and the live
// notifications. All mutation goes through its methods.
type Engine struct {
	rules  Rules
	store  Store
	copy   CopyProvider
	pick   Picker
	now    func() time.Time
	logger *zap.Logger

	tick sync.Mutex

	mu            sync.RWMutex
	reminders     []model.Reminder
	logs          []model.GlucoseLog
	notifications []model.Notification
}

type Option func(*Engine)

func WithRules(r Rules) Option { return func(e *Engine) { e.rules = r } }

func WithCopy(p CopyProvider) Option { return func(e *Engine) { e.copy = p } }

func WithPicker(p Picker) Option { return func(e *Engine) { e.pick = p } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		rules:         DefaultRules(),
		store:         store,
		copy:          cannedCopy{},
		pick:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		now:           time.Now,
		logger:        zap.NewNop(),
		reminders:     model.DefaultReminders(),
		notifications: []model.Notification{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type cannedCopy struct{}

func (cannedCopy) SupportiveCopy(_ context.Context, label model.RoutineLabel) []string {
	return []string{fmt.Sprintf("Time for your %s check.", label)}
}

// Load reads reminders and logs from the store. On error the engine keeps
// the defaults for the part that failed and the error is returned. A stored
// schedule that decodes but fails validation is replaced by the defaults
// with a warning.
func (e *Engine) Load(ctx context.Context) error {
	reminders, rerr := e.store.LoadReminders(ctx)
	logs, lerr := e.store.LoadLogs(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if rerr == nil {
		if err := validStored(reminders); err != nil {
			e.logger.Warn("stored reminders invalid, using defaults", zap.Error(err))
			reminders = model.DefaultReminders()
		}
		e.reminders = reminders
	}
	if lerr == nil {
		e.logs = logs
	}
	e.logger.Info("state loaded",
		zap.Int("reminders", len(e.reminders)),
		zap.Int("logs", len(e.logs)))
	return errors.Join(rerr, lerr)
}

// Tick runs one evaluation pass. Passes never overlap: a call made while
// another pass is running returns ErrTickInFlight without doing anything.
// Duplicate checks read a snapshot taken at the start of the pass; before
// committing, each new notification is checked again against the live state
// and dropped if it went stale while copy was being fetched. When ctx is
// cancelled during the copy fetch the tactical results are discarded, the
// strategic pass still runs and ctx's error is returned.
func (e *Engine) Tick(ctx context.Context) (int, error) {
	if !e.tick.TryLock() {
		return 0, ErrTickInFlight
	}
	defer e.tick.Unlock()

	now := e.now()

	e.mu.RLock()
	reminders := slices.Clone(e.reminders)
	logs := slices.Clone(e.logs)
	notifications := slices.Clone(e.notifications)
	e.mu.RUnlock()

	var created []model.Notification
	if due := e.rules.DueReminders(reminders, logs, notifications, now); len(due) > 0 {
		created = e.rules.TacticalNotifications(ctx, due, now, e.copy, e.pick)
	}
	cerr := ctx.Err()
	if cerr != nil {
		created = nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, n := range created {
		rem, ok := findReminder(e.reminders, n.ReminderID)
		if !ok || !e.rules.Eligible(rem, e.logs, e.notifications, now) {
			e.logger.Debug("dropping stale notification", zap.String("reminder", n.ReminderID))
			continue
		}
		e.notifications = prepend(e.notifications, n)
		e.logger.Info("tactical notification raised",
			zap.String("id", n.ID),
			zap.String("reminder", n.ReminderID),
			zap.String("label", string(rem.Label)))
		count++
	}

	before := len(e.notifications)
	e.notifications = e.rules.EvaluateStrategic(e.notifications, now)
	if added := len(e.notifications) - before; added > 0 {
		e.logger.Info("strategic notification raised", zap.Int("count", added))
		count += added
	}
	return count, cerr
}

// AddLog validates and appends a reading, then retires open tactical
// notifications for its label.
func (e *Engine) AddLog(ctx context.Context, value float64, label model.RoutineLabel) (model.GlucoseLog, error) {
	if err := model.ValidateReading(value, label); err != nil {
		return model.GlucoseLog{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	logs, notifications, entry := AddLog(e.logs, e.notifications, e.reminders, value, label, e.now())
	retired := len(e.notifications) - len(notifications)
	e.logs, e.notifications = logs, notifications
	e.logger.Info("reading logged",
		zap.String("id", entry.ID),
		zap.String("label", string(label)),
		zap.Float64("value", value),
		zap.Int("retired", retired))

	if err := e.store.SaveLogs(ctx, slices.Clone(e.logs)); err != nil {
		e.logger.Error("save logs failed", zap.Error(err))
		return entry, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return entry, nil
}

// Snooze removes a notification and suppresses its reminder for the snooze
// duration. It reports false when the notification does not exist.
func (e *Engine) Snooze(ctx context.Context, notifID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snoozeLocked(ctx, notifID)
}

func (e *Engine) snoozeLocked(ctx context.Context, notifID string) (bool, error) {
	var rid string
	for _, n := range e.notifications {
		if n.ID == notifID {
			rid = n.ReminderID
			break
		}
	}

	reminders, notifications, found := e.rules.Snooze(e.reminders, e.notifications, notifID, e.now())
	if !found {
		e.logger.Debug("snooze miss", zap.String("notification", notifID))
		return false, nil
	}
	e.reminders, e.notifications = reminders, notifications

	if _, ok := findReminder(e.reminders, rid); !ok {
		return true, nil
	}
	e.logger.Info("reminder snoozed", zap.String("notification", notifID), zap.String("reminder", rid))
	return true, e.saveReminders(ctx)
}

// SnoozeLabel is the voice entry point. It snoozes the newest tactical
// notification raised for label; with none open it snoozes the label's
// reminders directly. It reports false when nothing carries the label.
func (e *Engine) SnoozeLabel(ctx context.Context, label model.RoutineLabel) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var newest *model.Notification
	for i, n := range e.notifications {
		if n.Type != model.Tactical {
			continue
		}
		rem, ok := findReminder(e.reminders, n.ReminderID)
		if !ok || rem.Label != label {
			continue
		}
		if newest == nil || n.Timestamp.After(newest.Timestamp) {
			newest = &e.notifications[i]
		}
	}
	if newest != nil {
		return e.snoozeLocked(ctx, newest.ID)
	}

	matched := false
	for _, rem := range e.reminders {
		if rem.Label == label {
			matched = true
			break
		}
	}
	if !matched {
		e.logger.Debug("snooze miss", zap.String("label", string(label)))
		return false, nil
	}
	e.reminders = e.rules.snoozeWhere(e.reminders, e.now(), func(r model.Reminder) bool { return r.Label == label })
	e.logger.Info("label snoozed", zap.String("label", string(label)))
	return true, e.saveReminders(ctx)
}

// UpdateReminders replaces the whole schedule. Entries without an id get one.
func (e *Engine) UpdateReminders(ctx context.Context, set []model.Reminder) ([]model.Reminder, error) {
	if err := model.ValidateReminders(set); err != nil {
		return nil, err
	}
	next := make([]model.Reminder, len(set))
	for i, r := range set {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		next[i] = r
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.reminders = next
	e.logger.Info("schedule replaced", zap.Int("reminders", len(next)))
	return slices.Clone(next), e.saveReminders(ctx)
}

// ClearAll drops every live notification.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = ClearAll(e.notifications)
	e.logger.Info("notifications cleared")
}

// Inject prepends a notification as-is. Used by the debug simulator.
func (e *Engine) Inject(n model.Notification) model.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n.Timestamp.IsZero() {
		n.Timestamp = e.now()
	}
	if n.ID == "" {
		n.ID = fmt.Sprintf("test-%d", n.Timestamp.UnixMilli())
		for i := 2; hasNotification(e.notifications, n.ID); i++ {
			n.ID = fmt.Sprintf("test-%d-%d", n.Timestamp.UnixMilli(), i)
		}
	}
	e.notifications = prepend(e.notifications, n)
	return n
}

func (e *Engine) Reminders() []model.Reminder {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.reminders)
}

func (e *Engine) Logs() []model.GlucoseLog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.logs)
}

func (e *Engine) Notifications() []model.Notification {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.notifications)
}

// Now returns the engine clock reading.
func (e *Engine) Now() time.Time { return e.now() }

// Location is the zone used for calendar arithmetic.
func (e *Engine) Location() *time.Location { return e.rules.loc() }

func (e *Engine) saveReminders(ctx context.Context) error {
	if err := e.store.SaveReminders(ctx, slices.Clone(e.reminders)); err != nil {
		e.logger.Error("save reminders failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func findReminder(reminders []model.Reminder, id string) (model.Reminder, bool) {
	if id == "" {
		return model.Reminder{}, false
	}
	for _, r := range reminders {
		if r.ID == id {
			return r, true
		}
	}
	return model.Reminder{}, false
}

func hasNotification(notifications []model.Notification, id string) bool {
	for _, n := range notifications {
		if n.ID == id {
			return true
		}
	}
	return false
}

func validStored(reminders []model.Reminder) error {
	if err := model.ValidateReminders(reminders); err != nil {
		return err
	}
	for i, r := range reminders {
		if r.ID == "" {
			return fmt.Errorf("%w: reminder %d has no id", model.ErrInvalidInput, i)
		}
	}
	return nil
}
