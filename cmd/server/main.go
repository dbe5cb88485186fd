package main

import (
	"context"
	"flag"
	"log"

	"github.com/locvowork/bikestore_reports/internal/bootstrap"
	"github.com/locvowork/bikestore_reports/internal/config"
	"github.com/locvowork/bikestore_reports/internal/logger"
)

func main() {
	envFile := flag.String("env", ".env", "Environment file to load")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadEnvConfig(*envFile)
	if err != nil {
		log.Fatalf("failed to load env config: %v", err)
	}

	app := bootstrap.NewApp(cfg)
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLogErr(ctx, err, "Failed to initialize application")
		log.Fatal(err)
	}
	defer app.Close()

	logger.InfoLog(ctx, "Starting server on port %s", cfg.APP_PORT)
	if err := app.Serve(); err != nil {
		logger.ErrorLogErr(ctx, err, "Server stopped")
	}
}
