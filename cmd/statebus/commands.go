package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/statebus/internal/config"
	"git.home.luguber.info/inful/statebus/internal/daemon"
	derrors "git.home.luguber.info/inful/statebus/internal/errors"
	"git.home.luguber.info/inful/statebus/internal/remote"
	"git.home.luguber.info/inful/statebus/internal/store"
	"git.home.luguber.info/inful/statebus/internal/ui"
)

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// connectRemote dials NATS and builds the remote backend.
func connectRemote(cfg *config.Config) (*remote.Client, *nats.Conn, error) {
	nc, err := nats.Connect(cfg.NATS.URL, nats.Name("statebus-cli"))
	if err != nil {
		return nil, nil, derrors.Wrap(err, derrors.CategoryTransport, derrors.SeverityError,
			fmt.Sprintf("connect to NATS at %s", cfg.NATS.URL))
	}
	timeout, _ := cfg.RequestTimeout() // validated at load
	client := remote.NewClient(remote.WrapConn(nc), cfg.NATS.SubjectPrefix,
		remote.WithRequestTimeout(timeout))
	return client, nc, nil
}

func runServe(cfg *config.Config, levelVar *slog.LevelVar) error {
	ctx, cancel := signalContext()
	defer cancel()

	d := daemon.New(cfg, daemon.Options{ConfigPath: CLI.Config, LogLevel: levelVar})
	if err := d.Run(ctx); err != nil {
		return derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityFatal, "daemon failed")
	}
	return nil
}

func runUI(cfg *config.Config, local bool) error {
	var backend store.Backend
	if local {
		backend = store.NewEngine(store.DefaultSchema())
	} else {
		client, nc, err := connectRemote(cfg)
		if err != nil {
			return err
		}
		defer nc.Close()
		backend = client
	}

	program := tea.NewProgram(ui.New(backend), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityError, "counter view failed")
	}
	return nil
}

func runDispatch(cfg *config.Config, actionType string) error {
	if _, ok := store.ParseActionType(actionType); !ok {
		return derrors.New(derrors.CategoryValidation, derrors.SeverityError,
			fmt.Sprintf("unknown action type %q (known: %s, %s)",
				actionType, store.ActionIncrementCounter, store.ActionResetApp))
	}

	client, nc, err := connectRemote(cfg)
	if err != nil {
		return err
	}
	defer nc.Close()

	if err := client.Dispatch(context.Background(), store.Action{Type: store.ActionType(actionType)}); err != nil {
		return err
	}
	slog.Info("Action dispatched", "type", actionType)
	return nil
}

func runGet(cfg *config.Config) error {
	client, nc, err := connectRemote(cfg)
	if err != nil {
		return err
	}
	defer nc.Close()

	snapshot, err := client.State(context.Background())
	if err != nil {
		return err
	}
	for field, value := range snapshot {
		fmt.Printf("%s: %d\n", field, value)
	}
	return nil
}

func runWatch(cfg *config.Config, field string) error {
	client, nc, err := connectRemote(cfg)
	if err != nil {
		return err
	}
	defer nc.Close()

	selection := client.Select(store.Field(field))
	value, err := selection.Value(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%s %s: %d\n", time.Now().Format(time.TimeOnly), field, value)

	cancel, err := selection.Subscribe(func(v int64) {
		fmt.Printf("%s %s: %d\n", time.Now().Format(time.TimeOnly), field, v)
	})
	if err != nil {
		return err
	}
	defer cancel()

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()
	return nil
}

func runInit(path string, force bool) error {
	if err := config.WriteDefault(path, force); err != nil {
		return derrors.Wrap(err, derrors.CategoryConfig, derrors.SeverityError, "write configuration")
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}
