package handler

import (
	"encoding/json"
	"net/http"

	"glucotrack/internal/model"
)

type LogHandler struct {
	Engine Engine
}

type createLogReq struct {
	Value *float64 `json:"value"`
	Label string   `json:"label"`
}

func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.Logs())
}

func (h *LogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLogReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Value == nil {
		http.Error(w, "value required", http.StatusBadRequest)
		return
	}
	label, err := model.ParseLabel(req.Label)
	if err != nil {
		writeErr(w, err)
		return
	}

	entry, err := h.Engine.AddLog(r.Context(), *req.Value, label)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
