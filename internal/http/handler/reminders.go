package handler

import (
	"encoding/json"
	"net/http"

	"glucotrack/internal/model"
)

type ReminderHandler struct {
	Engine Engine
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.Reminders())
}

// Update replaces the whole schedule.
func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var set []model.Reminder
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if set == nil {
		set = []model.Reminder{}
	}

	out, err := h.Engine.UpdateReminders(r.Context(), set)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
