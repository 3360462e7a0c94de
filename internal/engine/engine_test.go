package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"glucotrack/internal/model"
)

type memStore struct {
	mu        sync.Mutex
	reminders []model.Reminder
	logs      []model.GlucoseLog
	saves     int
	failSave  error
	failLoad  error
}

func (s *memStore) LoadReminders(context.Context) ([]model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad != nil {
		return nil, s.failLoad
	}
	if s.reminders == nil {
		return model.DefaultReminders(), nil
	}
	return s.reminders, nil
}

func (s *memStore) SaveReminders(_ context.Context, r []model.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failSave != nil {
		return s.failSave
	}
	s.reminders = r
	return nil
}

func (s *memStore) LoadLogs(context.Context) ([]model.GlucoseLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoad != nil {
		return nil, s.failLoad
	}
	return s.logs, nil
}

func (s *memStore) SaveLogs(_ context.Context, l []model.GlucoseLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.failSave != nil {
		return s.failSave
	}
	s.logs = l
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// blockingCopy parks every call until release is closed.
type blockingCopy struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingCopy() *blockingCopy {
	return &blockingCopy{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingCopy) SupportiveCopy(_ context.Context, label model.RoutineLabel) []string {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return []string{"late copy for " + string(label)}
}

func newTestEngine(t *testing.T, store *memStore, clk *clock, cp CopyProvider) *Engine {
	t.Helper()
	e := New(store,
		WithRules(testRules()),
		WithCopy(cp),
		WithPicker(fixedPicker(0)),
		WithClock(clk.Now),
	)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return e
}

func TestEngine_LoadSeedsDefaults(t *testing.T) {
	e := newTestEngine(t, &memStore{}, &clock{now: at(6, 0)}, newRecordingCopy())
	got := e.Reminders()
	if len(got) != 5 {
		t.Fatalf("expected 5 default reminders, got %d", len(got))
	}
	if got[0].Label != model.Fasting || got[0].Time != "07:00" {
		t.Errorf("unexpected first default %+v", got[0])
	}
	if len(e.Logs()) != 0 || len(e.Notifications()) != 0 {
		t.Error("expected empty logs and notifications")
	}
}

func TestEngine_LoadErrorKeepsDefaults(t *testing.T) {
	store := &memStore{failLoad: errors.New("connection refused")}
	e := New(store, WithRules(testRules()))
	if err := e.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if len(e.Reminders()) != 5 {
		t.Errorf("expected default reminders after load failure, got %d", len(e.Reminders()))
	}
}

func TestEngine_LoadInvalidStoredRemindersFallsBack(t *testing.T) {
	tests := []struct {
		name      string
		reminders []model.Reminder
	}{
		{"unknown label", []model.Reminder{{ID: "1", Label: "Brunch", Time: "07:00", Enabled: true}}},
		{"malformed time", []model.Reminder{{ID: "1", Label: model.Fasting, Time: "7am", Enabled: true}}},
		{"missing id", []model.Reminder{{Label: model.Fasting, Time: "07:00", Enabled: true}}},
		{"duplicate id", []model.Reminder{
			{ID: "1", Label: model.Fasting, Time: "07:00", Enabled: true},
			{ID: "1", Label: model.BeforeBed, Time: "22:00", Enabled: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&memStore{reminders: tt.reminders}, WithRules(testRules()))
			if err := e.Load(context.Background()); err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			got := e.Reminders()
			if len(got) != 5 || got[0].Label != model.Fasting || got[0].Time != "07:00" {
				t.Fatalf("expected default schedule, got %+v", got)
			}
		})
	}
}

func TestEngine_InjectedMorningAlertDoesNotBlockLaterReminder(t *testing.T) {
	clk := &clock{now: at(9, 0)}
	e := newTestEngine(t, &memStore{}, clk, newRecordingCopy())
	e.Inject(model.Notification{Title: "Routine Check-in", Type: model.Tactical, ReminderID: "3"})

	clk.Set(at(13, 35))
	n, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("created = %d, want the Post-Lunch alert", n)
	}
	if got := e.Notifications(); len(got) != 2 || got[0].ReminderID != "3" {
		t.Fatalf("expected a new alert for reminder 3 on top, got %+v", got)
	}
}

func TestEngine_MovedReminderFiresAgain(t *testing.T) {
	clk := &clock{now: at(7, 5)}
	e := newTestEngine(t, &memStore{}, clk, newRecordingCopy())

	if n, err := e.Tick(context.Background()); err != nil || n != 1 {
		t.Fatalf("first Tick() = %d, %v; want 1, nil", n, err)
	}

	if _, err := e.UpdateReminders(context.Background(), []model.Reminder{
		{ID: "1", Label: model.Fasting, Time: "08:00", Enabled: true},
	}); err != nil {
		t.Fatalf("UpdateReminders() error: %v", err)
	}

	clk.Set(at(8, 5))
	n, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("created = %d after moving the reminder, want 1", n)
	}

	clk.Set(at(8, 30))
	if n, _ := e.Tick(context.Background()); n != 0 {
		t.Fatalf("window end re-alerted, created = %d", n)
	}
}

func TestEngine_TickRaisesAndDeduplicates(t *testing.T) {
	clk := &clock{now: at(7, 15)}
	e := newTestEngine(t, &memStore{}, clk, newRecordingCopy())

	n, err := e.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 notification created, got %d", n)
	}

	clk.Set(at(7, 16))
	n, err = e.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
	if n != 0 {
		t.Fatalf("second tick created %d notifications", n)
	}
	if len(e.Notifications()) != 1 {
		t.Fatalf("expected 1 live notification, got %d", len(e.Notifications()))
	}
}

func TestEngine_OverlappingTickIsSkipped(t *testing.T) {
	clk := &clock{now: at(7, 15)}
	cp := newBlockingCopy()
	e := newTestEngine(t, &memStore{}, clk, cp)

	done := make(chan int)
	go func() {
		n, _ := e.Tick(context.Background())
		done <- n
	}()
	<-cp.entered

	if _, err := e.Tick(context.Background()); !errors.Is(err, ErrTickInFlight) {
		t.Fatalf("overlapping Tick() error = %v, want ErrTickInFlight", err)
	}

	close(cp.release)
	if n := <-done; n != 1 {
		t.Fatalf("first tick created %d notifications, want 1", n)
	}
	if len(e.Notifications()) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(e.Notifications()))
	}
}

func TestEngine_TickDropsNotificationStaleAtCommit(t *testing.T) {
	clk := &clock{now: at(7, 15)}
	cp := newBlockingCopy()
	e := newTestEngine(t, &memStore{}, clk, cp)

	done := make(chan int)
	go func() {
		n, _ := e.Tick(context.Background())
		done <- n
	}()
	<-cp.entered

	// the user logs while copy is still being generated
	if _, err := e.AddLog(context.Background(), 96, model.Fasting); err != nil {
		t.Fatalf("AddLog() error: %v", err)
	}
	close(cp.release)

	if n := <-done; n != 0 {
		t.Fatalf("stale notification committed, created = %d", n)
	}
	if len(e.Notifications()) != 0 {
		t.Fatalf("expected no live notifications, got %+v", e.Notifications())
	}
}

func TestEngine_TickCancelledDiscardsResults(t *testing.T) {
	clk := &clock{now: at(7, 15)}
	cp := newBlockingCopy()
	e := newTestEngine(t, &memStore{}, clk, cp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		_, err := e.Tick(ctx)
		done <- err
	}()
	<-cp.entered
	cancel()
	close(cp.release)

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Tick() error = %v, want context.Canceled", err)
	}
	if len(e.Notifications()) != 0 {
		t.Fatal("cancelled tick must not commit notifications")
	}
}

func TestEngine_TickCancelledStillRunsStrategic(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 7, 15, 0, 0, time.UTC)
	cp := newBlockingCopy()
	e := newTestEngine(t, &memStore{}, &clock{now: sunday}, cp)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		n   int
		err error
	}
	done := make(chan result)
	go func() {
		n, err := e.Tick(ctx)
		done <- result{n, err}
	}()
	<-cp.entered
	cancel()
	close(cp.release)

	res := <-done
	if !errors.Is(res.err, context.Canceled) {
		t.Fatalf("Tick() error = %v, want context.Canceled", res.err)
	}
	if res.n != 1 {
		t.Fatalf("created = %d, want only the weekly review", res.n)
	}
	got := e.Notifications()
	if len(got) != 1 || got[0].Type != model.Strategic || got[0].Title != WeeklyReviewTitle {
		t.Fatalf("expected only the weekly review, got %+v", got)
	}
}

func TestEngine_TickStrategic(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 5, 0, 0, 0, time.UTC)
	clk := &clock{now: sunday}
	e := newTestEngine(t, &memStore{}, clk, newRecordingCopy())

	for i := 0; i < 3; i++ {
		if _, err := e.Tick(context.Background()); err != nil {
			t.Fatalf("Tick() error: %v", err)
		}
		clk.Set(sunday.Add(time.Duration(i+1) * time.Minute))
	}
	if n := countTitle(e.Notifications(), WeeklyReviewTitle); n != 1 {
		t.Fatalf("expected 1 weekly review, got %d", n)
	}
}

func TestEngine_AddLogValidatesAndWritesThrough(t *testing.T) {
	store := &memStore{}
	clk := &clock{now: at(7, 15)}
	e := newTestEngine(t, store, clk, newRecordingCopy())

	if _, err := e.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
	if len(e.Notifications()) != 1 {
		t.Fatal("expected an open fasting alert")
	}

	if _, err := e.AddLog(context.Background(), 2000, model.Fasting); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("AddLog(2000) error = %v, want ErrInvalidInput", err)
	}
	if len(store.logs) != 0 {
		t.Fatal("invalid reading must not be persisted")
	}

	entry, err := e.AddLog(context.Background(), 104, model.Fasting)
	if err != nil {
		t.Fatalf("AddLog() error: %v", err)
	}
	if len(store.logs) != 1 || store.logs[0].ID != entry.ID {
		t.Fatalf("log not written through: %+v", store.logs)
	}
	if len(e.Notifications()) != 0 {
		t.Errorf("logging should close the open alert, got %+v", e.Notifications())
	}

	clk.Set(at(7, 20))
	if n, _ := e.Tick(context.Background()); n != 0 {
		t.Errorf("no alert expected after logging, created %d", n)
	}
}

func TestEngine_AddLogPersistFailureKeepsState(t *testing.T) {
	store := &memStore{}
	e := newTestEngine(t, store, &clock{now: at(12, 0)}, newRecordingCopy())
	store.failSave = errors.New("disk full")

	_, err := e.AddLog(context.Background(), 120, model.PreLunch)
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("AddLog() error = %v, want ErrPersist", err)
	}
	if len(e.Logs()) != 1 {
		t.Error("in-memory log should be kept after a persist failure")
	}
}

func TestEngine_SnoozeWritesThrough(t *testing.T) {
	store := &memStore{}
	clk := &clock{now: at(7, 15)}
	e := newTestEngine(t, store, clk, newRecordingCopy())

	if _, err := e.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
	id := e.Notifications()[0].ID

	found, err := e.Snooze(context.Background(), id)
	if err != nil || !found {
		t.Fatalf("Snooze() = %v, %v", found, err)
	}
	if len(e.Notifications()) != 0 {
		t.Error("snoozed notification should be removed")
	}
	if store.reminders[0].SnoozedUntil == nil || !store.reminders[0].SnoozedUntil.Equal(at(7, 30)) {
		t.Errorf("snoozedUntil not persisted: %+v", store.reminders[0])
	}

	clk.Set(at(7, 29))
	if n, _ := e.Tick(context.Background()); n != 0 {
		t.Errorf("snoozed reminder re-alerted at 07:29")
	}
	clk.Set(at(7, 30))
	if n, _ := e.Tick(context.Background()); n != 1 {
		t.Errorf("expected re-alert once the snooze expired, got %d", n)
	}

	saves := store.saves
	found, err = e.Snooze(context.Background(), "missing")
	if err != nil || found {
		t.Errorf("Snooze(missing) = %v, %v; want false, nil", found, err)
	}
	if store.saves != saves {
		t.Error("snooze miss must not write the store")
	}
}

func TestEngine_SnoozeLabel(t *testing.T) {
	t.Run("open notification", func(t *testing.T) {
		store := &memStore{}
		e := newTestEngine(t, store, &clock{now: at(7, 10)}, newRecordingCopy())
		if _, err := e.Tick(context.Background()); err != nil {
			t.Fatalf("Tick() error: %v", err)
		}
		found, err := e.SnoozeLabel(context.Background(), model.Fasting)
		if err != nil || !found {
			t.Fatalf("SnoozeLabel() = %v, %v", found, err)
		}
		if len(e.Notifications()) != 0 {
			t.Error("expected the fasting alert to be removed")
		}
		if store.reminders[0].SnoozedUntil == nil {
			t.Error("expected fasting reminder snoozed")
		}
	})

	t.Run("no open notification", func(t *testing.T) {
		store := &memStore{}
		e := newTestEngine(t, store, &clock{now: at(13, 0)}, newRecordingCopy())
		found, err := e.SnoozeLabel(context.Background(), model.PostLunch)
		if err != nil || !found {
			t.Fatalf("SnoozeLabel() = %v, %v", found, err)
		}
		for _, r := range store.reminders {
			if r.Label == model.PostLunch && (r.SnoozedUntil == nil || !r.SnoozedUntil.Equal(at(13, 15))) {
				t.Errorf("post-lunch reminder not snoozed: %+v", r)
			}
			if r.Label != model.PostLunch && r.SnoozedUntil != nil {
				t.Errorf("unrelated reminder snoozed: %+v", r)
			}
		}
	})

	t.Run("unknown label", func(t *testing.T) {
		e := newTestEngine(t, &memStore{}, &clock{now: at(13, 0)}, newRecordingCopy())
		found, err := e.SnoozeLabel(context.Background(), model.PreDinner)
		if err != nil || found {
			t.Errorf("SnoozeLabel(no reminder) = %v, %v; want false, nil", found, err)
		}
	})
}

func TestEngine_UpdateReminders(t *testing.T) {
	store := &memStore{}
	e := newTestEngine(t, store, &clock{now: at(6, 0)}, newRecordingCopy())

	_, err := e.UpdateReminders(context.Background(), []model.Reminder{{Label: model.Fasting, Time: "6am"}})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("UpdateReminders(bad time) error = %v, want ErrInvalidInput", err)
	}
	if len(e.Reminders()) != 5 {
		t.Fatal("invalid schedule must not replace the current one")
	}

	got, err := e.UpdateReminders(context.Background(), []model.Reminder{
		{ID: "1", Label: model.Fasting, Time: "06:30", Enabled: true},
		{Label: model.PreDinner, Time: "18:00", Enabled: false},
	})
	if err != nil {
		t.Fatalf("UpdateReminders() error: %v", err)
	}
	if len(got) != 2 || got[1].ID == "" {
		t.Fatalf("expected 2 reminders with ids, got %+v", got)
	}
	if len(store.reminders) != 2 || store.reminders[0].Time != "06:30" {
		t.Errorf("schedule not written through: %+v", store.reminders)
	}
}

func TestEngine_ClearAllAndInject(t *testing.T) {
	e := newTestEngine(t, &memStore{}, &clock{now: at(7, 10)}, newRecordingCopy())
	if _, err := e.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() error: %v", err)
	}
	injected := e.Inject(model.Notification{Title: "Routine Check-in", Type: model.Tactical, ReminderID: "3"})
	if injected.ID == "" || injected.Timestamp.IsZero() {
		t.Errorf("Inject should fill id and timestamp, got %+v", injected)
	}
	if got := e.Notifications(); len(got) != 2 || got[0].ID != injected.ID {
		t.Fatalf("injected notification should be first, got %+v", got)
	}

	e.ClearAll()
	if len(e.Notifications()) != 0 {
		t.Error("ClearAll should drop every notification")
	}
}
