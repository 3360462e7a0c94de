package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"glucotrack/internal/engine"
	"glucotrack/internal/model"
)

type NotificationHandler struct {
	Engine Engine
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.Notifications())
}

func (h *NotificationHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	found, err := h.Engine.Snooze(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.Engine.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

type injectReq struct {
	Kind       string `json:"kind"` // tactical or strategic preset
	Title      string `json:"title"`
	Message    string `json:"message"`
	ReminderID string `json:"reminderId"`
}

// Inject pushes a simulator alert. An empty body gives the tactical preset.
func (h *NotificationHandler) Inject(w http.ResponseWriter, r *http.Request) {
	var req injectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var n model.Notification
	switch req.Kind {
	case "", string(model.Tactical):
		n = model.Notification{
			Title:      "Routine Check-in",
			Message:    "Time for your post-lunch check. Let's see how your body is feeling.",
			Type:       model.Tactical,
			ReminderID: "3",
		}
	case string(model.Strategic):
		n = model.Notification{
			Title:   engine.WeeklyReviewTitle,
			Message: "It's Sunday! Take a look at your 'Time in Range' summary for the week.",
			Type:    model.Strategic,
		}
	default:
		http.Error(w, "kind must be tactical or strategic", http.StatusBadRequest)
		return
	}
	if req.Title != "" {
		n.Title = req.Title
	}
	if req.Message != "" {
		n.Message = req.Message
	}
	if req.ReminderID != "" && n.Type == model.Tactical {
		n.ReminderID = req.ReminderID
	}

	writeJSON(w, http.StatusCreated, h.Engine.Inject(n))
}
