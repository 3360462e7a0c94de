package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"glucotrack/internal/engine"
	"glucotrack/internal/model"
)

// Engine is what the handlers need from the reminder engine.
type Engine interface {
	Reminders() []model.Reminder
	Logs() []model.GlucoseLog
	Notifications() []model.Notification
	UpdateReminders(ctx context.Context, set []model.Reminder) ([]model.Reminder, error)
	AddLog(ctx context.Context, value float64, label model.RoutineLabel) (model.GlucoseLog, error)
	Snooze(ctx context.Context, notifID string) (bool, error)
	ClearAll()
	Inject(n model.Notification) model.Notification
	Now() time.Time
	Location() *time.Location
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps engine and validation errors onto status codes.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrUnknownLabel):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrPersist):
		http.Error(w, "failed to persist", http.StatusInternalServerError)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
