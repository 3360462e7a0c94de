package handler

import (
	"context"
	"net/http"
	"strconv"

	"glucotrack/internal/model"
	"glucotrack/internal/report"
	"glucotrack/internal/stats"
)

const maxSummaryDays = 90

// InsightProvider reviews a summary. It never fails.
type InsightProvider interface {
	Insights(ctx context.Context, s model.WeeklySummary) model.Insight
}

type StatsHandler struct {
	Engine   Engine
	Insights InsightProvider
}

func (h *StatsHandler) summary(days int) model.WeeklySummary {
	return stats.Summarize(h.Engine.Logs(), h.Engine.Reminders(), h.Engine.Now(), days, h.Engine.Location())
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	days := stats.DefaultDays
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxSummaryDays {
			http.Error(w, "days must be between 1 and 90", http.StatusBadRequest)
			return
		}
		days = n
	}
	writeJSON(w, http.StatusOK, h.summary(days))
}

func (h *StatsHandler) Insight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Insights.Insights(r.Context(), h.summary(stats.DefaultDays)))
}

type ReportHandler struct {
	Engine Engine
}

func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	now, loc := h.Engine.Now(), h.Engine.Location()
	logs := h.Engine.Logs()
	summary := stats.Summarize(logs, h.Engine.Reminders(), now, report.Days, loc)

	data, err := report.MonthlyWorkbook(logs, summary, now, loc)
	if err != nil {
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(now.In(loc))+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
