package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/statebus/internal/config"
	"git.home.luguber.info/inful/statebus/internal/errors"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"statebus.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Host the store engine behind the NATS bridge"`

	UI struct {
		Local bool `help:"Use an in-process engine instead of the remote backend"`
	} `cmd:"" help:"Run the interactive counter view"`

	Dispatch struct {
		Type string `arg:"" help:"Action type (incrementCounter, resetApp)"`
	} `cmd:"" help:"Dispatch one action against a running daemon"`

	Get struct{} `cmd:"" help:"Print the current state snapshot"`

	Watch struct {
		Field string `short:"f" help:"Field to watch" default:"counter"`
	} `cmd:"" help:"Stream field updates until interrupted"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(7)
	}

	// Set up logging
	levelVar := new(slog.LevelVar)
	levelVar.Set(config.ParseLogLevel(cfg.Logging.Level))
	if CLI.Verbose {
		levelVar.Set(slog.LevelDebug)
	}
	logger := slog.New(config.NewLogHandler(os.Stderr, cfg.Logging, levelVar))
	slog.SetDefault(logger)

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose, logger)

	var runErr error
	switch ctx.Command() {
	case "serve":
		runErr = runServe(cfg, levelVar)
	case "ui":
		runErr = runUI(cfg, CLI.UI.Local)
	case "dispatch <type>":
		runErr = runDispatch(cfg, CLI.Dispatch.Type)
	case "get":
		runErr = runGet(cfg)
	case "watch":
		runErr = runWatch(cfg, CLI.Watch.Field)
	case "init":
		runErr = runInit(CLI.Config, CLI.Init.Force)
	default:
		runErr = errors.New(errors.CategoryValidation, errors.SeverityError, "unknown command")
	}

	if runErr != nil {
		slog.Error(adapter.FormatError(runErr))
		os.Exit(adapter.ExitCodeFor(runErr))
	}
}
