package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codefionn/warteraum/internal/chat"
	"github.com/codefionn/warteraum/internal/config"
	"github.com/codefionn/warteraum/internal/logger"
	"github.com/codefionn/warteraum/internal/media"
	"github.com/codefionn/warteraum/internal/store"
	"github.com/codefionn/warteraum/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "warteraum.json", "path to the JSON config file")
	listenAddr := flag.String("addr", "", "listen address (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error, none")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Global().Close()

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retention := time.Duration(cfg.RetentionHours) * time.Hour
	if n, err := db.PurgeOlderThan(ctx, retention, time.Now()); err != nil {
		logger.Error("Startup retention purge failed: %v", err)
	} else if n > 0 {
		logger.Info("Startup retention purge removed %d rows", n)
	}
	go db.SweepLoop(ctx, time.Duration(cfg.SweepIntervalMinutes)*time.Minute, retention)

	mediaStore, err := media.NewStore(cfg.MediaDir)
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	engine := chat.NewEngine(db, hub)
	if err := engine.Restore(ctx); err != nil {
		return err
	}

	srv, err := ws.NewServer(cfg, engine, hub, mediaStore)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	return srv.Stop()
}
