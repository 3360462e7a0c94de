package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"glucotrack/internal/config"
	"glucotrack/internal/engine"
	"glucotrack/internal/genai"
	"glucotrack/internal/store"
)

type Context struct {
	Config config.Config
	Logger *zap.Logger
	Out    io.Writer
}

// app is the wired runtime shared by every command.
type app struct {
	engine   *engine.Engine
	store    *store.Store
	copy     *genai.Supportive
	location *time.Location
}

func (a *app) Close() error { return a.store.Close() }

// Rules maps configuration onto engine rules.
func Rules(cfg config.Config) (engine.Rules, error) {
	loc, err := cfg.Location()
	if err != nil {
		return engine.Rules{}, err
	}
	weekday, err := cfg.WeeklyDay()
	if err != nil {
		return engine.Rules{}, err
	}
	r := engine.DefaultRules()
	r.Location = loc
	r.WeeklyDay = weekday
	r.MonthlyDay = cfg.MonthlyReportDay
	r.MonthlyScope = engine.MonthlyScope(cfg.MonthlyDedup)
	r.SnoozeFor = time.Duration(cfg.SnoozeMinutes) * time.Minute
	return r, nil
}

// open builds the store, copy provider and engine, then loads state.
// offline skips the Gemini client even when a key is configured.
func (c *Context) open(ctx context.Context, offline bool) (*app, error) {
	rules, err := Rules(c.Config)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(c.Config.StoreURL, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var gen genai.Generator
	if c.Config.GeminiAPIKey != "" && !offline {
		g, err := genai.NewGemini(c.Config.GeminiAPIKey, c.Config.GeminiModel, c.Config.CopyTimeout)
		if err != nil {
			st.Close()
			return nil, err
		}
		gen = g
	} else {
		c.Logger.Info("copy generation offline, using fixed messages")
	}
	sup := genai.NewSupportive(gen, c.Logger.Named("genai"))

	eng := engine.New(st,
		engine.WithRules(rules),
		engine.WithCopy(sup),
		engine.WithLogger(c.Logger.Named("engine")),
	)
	if err := eng.Load(ctx); err != nil {
		// defaults stay in place for whatever failed to load
		c.Logger.Warn("state load incomplete", zap.Error(err))
	}
	return &app{engine: eng, store: st, copy: sup, location: rules.Location}, nil
}
