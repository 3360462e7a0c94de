package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpx "glucotrack/internal/http"
	"glucotrack/internal/jobs"
	"glucotrack/internal/voice"
)

type ServeCmd struct{}

func (c *ServeCmd) Run(ctx *Context) error {
	root, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := ctx.open(root, false)
	if err != nil {
		return err
	}
	defer a.Close()

	worker := &jobs.Worker{
		ID:       "poller-1",
		Engine:   a.engine,
		Interval: ctx.Config.PollInterval,
		Logger:   ctx.Logger.Named("jobs"),
	}
	go worker.Run(root)

	mcp := voice.Handler(voice.NewServer(a.engine, ctx.Logger.Named("voice")))
	r := httpx.NewRouter(ctx.Config, a.engine, a.copy, mcp, ctx.Logger.Named("http"))

	srv := &http.Server{
		Addr:              ctx.Config.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		ctx.Logger.Info("listening", zap.String("addr", ctx.Config.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ch:
	case err := <-errCh:
		return err
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
