package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/lessondesk/internal/baserow"
	"github.com/five82/lessondesk/internal/config"
	"github.com/five82/lessondesk/internal/gateway"
	"github.com/five82/lessondesk/internal/proxy"
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", "", "path to the .env file (optional, defaults to ./.env)")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := config.LoadProxy(*envFile)
	if err != nil {
		logger.Printf("lessondesk-proxy: %v", err)
		return 1
	}

	fields, err := gateway.LoadFieldTable(cfg.FieldsFile)
	if err != nil {
		logger.Printf("lessondesk-proxy: load field table: %v", err)
		return 1
	}

	upstream, err := baserow.NewClient(cfg.BaserowURL, cfg.BaserowToken, cfg.BaserowTableID)
	if err != nil {
		logger.Printf("lessondesk-proxy: %v", err)
		return 1
	}

	app := proxy.New(proxy.Options{
		Upstream: upstream,
		Fields:   fields,
		Logger:   logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s (table %s)", cfg.Listen, cfg.BaserowTableID)
		errCh <- app.Listen(cfg.Listen)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		logger.Printf("lessondesk-proxy: server error: %v", err)
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Printf("lessondesk-proxy: shutdown: %v", err)
		return 1
	}
	return 0
}
