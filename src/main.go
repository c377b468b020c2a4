package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/contre95/snapshotd/src/features/config"
	"github.com/contre95/snapshotd/src/features/hosting"
	"github.com/contre95/snapshotd/src/features/logging"
	"github.com/contre95/snapshotd/src/features/metrics"
	"github.com/contre95/snapshotd/src/features/naming"
	"github.com/contre95/snapshotd/src/features/notify"
	"github.com/contre95/snapshotd/src/features/renaming"
	"github.com/contre95/snapshotd/src/infra/journal"
	"github.com/contre95/snapshotd/src/infra/watcher"
)

func main() {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if flags.ShowVersion {
		fmt.Println(config.Version())
		os.Exit(0)
	}

	// Load configuration
	cfgManager, err := config.Load(flags.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := cfgManager.Get()
	if err := flags.Apply(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	journalStore := journal.NewInMemoryJournal(200)

	// Create and start the Telegram bot if enabled
	var notifier renaming.Notifier
	var telegramBot *notify.Telegram
	if cfg.Telegram.Enabled {
		telegramBot, err = notify.NewTelegram(cfgManager, journalStore)
		if err != nil {
			slog.Error("Failed to initialize Telegram bot", "error", err)
		} else {
			go telegramBot.Start()
			notifier = telegramBot
			slog.Info("Telegram bot started")
		}
	}

	// Create the renaming service
	engine := naming.NewEngine(naming.TimestampSource(cfg.Rename.TimestampSource))
	service := renaming.NewService(engine, renaming.NewExecutor(), cfgManager, collector, journalStore, notifier)

	// Register watch targets
	events := make(chan renaming.Event, 64)
	fsWatcher, err := watcher.NewWatcher(events)
	if err != nil {
		log.Fatalf("failed to create watcher: %v", err)
	}

	registered := 0
	for _, path := range cfg.Watch.Paths {
		if err := fsWatcher.Add(watcher.Target{Path: path, Recursive: cfg.Watch.Recursive}); err != nil {
			slog.Error("Skipping unwatchable target", "path", path, "error", err)
			continue
		}
		registered++
	}
	if registered == 0 {
		log.Fatalf("no watchable targets among %v", cfg.Watch.Paths)
	}
	collector.SetWatchTargets(registered)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fsWatcher.Start(ctx)

	// Events are handled one at a time: the grace wait and the full-file hash
	// block the next event.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				service.Handle(ctx, event)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Create and start the status server if enabled
	var server *hosting.Server
	if cfg.Server.Enabled {
		server = hosting.NewServer(cfgManager, journalStore)
		if err := server.Start(); err != nil {
			slog.Error("Failed to start status server", "error", err)
		} else {
			slog.Info("Status server started", "port", cfg.Server.Port)
		}
	}

	fmt.Println("Watching paths, use CTRL-C to stop.")
	slog.Info("Monitoring started", "targets", registered, "recursive", cfg.Watch.Recursive)

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down...")

	cancel()
	fsWatcher.Stop()
	<-done

	if telegramBot != nil {
		telegramBot.Stop()
		slog.Info("Telegram bot stopped")
	}
	if server != nil {
		if err := server.Shutdown(); err != nil {
			log.Fatalf("failed to shutdown status server: %v", err)
		}
	}
	slog.Info("Monitoring ended.")
}
