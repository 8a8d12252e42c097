package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"TrackBets/internal/di"
	"TrackBets/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	// The API always logs to the console.
	if cfg.Logging.Output != "stderr" {
		cfg.Logging.Output = "stdout"
	}

	log.Printf("env=%s addr=%s:%d ingest=%t", cfg.Environment, cfg.Server.Host, cfg.Server.Port, cfg.Server.FunnelIngest)

	app, cleanup, err := di.InitializeServer(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx)
	stop()
	cleanup()
	if err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
