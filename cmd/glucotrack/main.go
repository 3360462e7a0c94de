package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"glucotrack/internal/cli"
	"glucotrack/internal/config"
	"glucotrack/internal/logging"
	"glucotrack/internal/voice"
)

var version = "dev"

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Config file path (yaml). Defaults to ./config.yaml when present." type:"path"`

	Serve    cli.ServeCmd    `cmd:"" help:"Run the API, the voice tools and the reminder poller." default:"1"`
	Evaluate cli.EvaluateCmd `cmd:"" help:"Run one evaluation pass and print the notifications."`
	Log      cli.LogCmd      `cmd:"" help:"Record a glucose reading."`
	Export   cli.ExportCmd   `cmd:"" help:"Write the monthly xlsx report."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("glucotrack"),
		kong.Description("Glucose check-in reminders, logging and reports"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	voice.Version = version

	err = kctx.Run(&cli.Context{Config: cfg, Logger: logger, Out: os.Stdout})
	if err != nil {
		logger.Error("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
