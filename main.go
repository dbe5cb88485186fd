package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/locvowork/bikestore_reports/internal/bootstrap"
	"github.com/locvowork/bikestore_reports/internal/config"
	"github.com/locvowork/bikestore_reports/internal/domain"
	"github.com/locvowork/bikestore_reports/internal/logger"
)

func main() {
	envFile := flag.String("env", ".env", "Environment file to load")
	only := flag.String("only", "", "Comma separated artifacts to produce: csv, charts, workbook (default all)")
	out := flag.String("out", "", "Directory for the workbook (overrides EXPORT_DIR)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadEnvConfig(*envFile)
	if err != nil {
		log.Fatalf("failed to load env config: %v", err)
	}
	if *out != "" {
		cfg.EXPORT_DIR = *out
	}

	opts := domain.RunOptions{Artifacts: splitList(*only)}
	if err := opts.Validate(); err != nil {
		log.Fatal(err)
	}

	app := bootstrap.NewApp(cfg)
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLogErr(ctx, err, "Failed to initialize application")
		os.Exit(1)
	}
	defer app.Close()

	run, err := app.Service.Run(ctx, opts)
	if err != nil {
		app.Close()
		os.Exit(1)
	}
	if run.WorkbookPath != "" {
		logger.InfoLog(ctx, "Workbook written to %s", run.WorkbookPath)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
