package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"glucotrack/internal/config"
	"glucotrack/internal/http/handler"
	mw "glucotrack/internal/http/middleware"
)

// NewRouter wires the JSON API. voice, when non-nil, is mounted at /mcp.
func NewRouter(cfg config.Config, eng handler.Engine, insights handler.InsightProvider, voice http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	remH := &handler.ReminderHandler{Engine: eng}
	r.Get("/reminders", remH.List)
	r.Put("/reminders", remH.Update)

	logH := &handler.LogHandler{Engine: eng}
	r.Get("/logs", logH.List)
	r.Post("/logs", logH.Create)

	notifH := &handler.NotificationHandler{Engine: eng}
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", notifH.List)
		r.Delete("/", notifH.Clear)
		r.Post("/{id}/snooze", notifH.Snooze)
	})

	statsH := &handler.StatsHandler{Engine: eng, Insights: insights}
	r.Get("/stats/summary", statsH.Summary)
	r.Get("/stats/insights", statsH.Insight)

	reportH := &handler.ReportHandler{Engine: eng}
	r.Get("/reports/monthly.xlsx", reportH.Monthly)

	if cfg.DebugRoutes {
		r.Post("/debug/notifications", notifH.Inject)
	}

	if voice != nil {
		r.Handle("/mcp", voice)
	}

	return r
}
