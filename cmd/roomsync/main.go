// roomsync is the shared room document server. Game clients connect over
// websocket, mutate room documents with partial updates and watch them for
// changes.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/neonrush/rush-engine/engine/roomsync"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := roomsync.LoadConfig(*configPath)
	if err != nil {
		logger.Error("load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := roomsync.NewServer(cfg, logger)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
