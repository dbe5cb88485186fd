package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/bikestore_reports/internal/config"
	"github.com/locvowork/bikestore_reports/internal/database"
	"github.com/locvowork/bikestore_reports/internal/domain"
	"github.com/locvowork/bikestore_reports/internal/handler"
	"github.com/locvowork/bikestore_reports/internal/logger"
	"github.com/locvowork/bikestore_reports/internal/repository"
	"github.com/locvowork/bikestore_reports/internal/service"
	"github.com/locvowork/bikestore_reports/pkg/xlsxreport"
)

type App struct {
	Echo    *echo.Echo
	DB      *sql.DB
	Config  *config.EnvConfig
	Service *service.ReportService
}

func NewApp(cfg *config.EnvConfig) *App {
	e := echo.New()
	e.HideBanner = true
	return &App{
		Echo:   e,
		Config: cfg,
	}
}

// Initialize connects the database and the optional run history, then builds
// the report service. Routes are registered separately by the HTTP server.
func (a *App) Initialize(ctx context.Context) error {
	cfg := a.Config

	logger.InitLogging(cfg.LOG_FILE_PATH)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	dbConfig := database.Config{
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
	}

	db, err := database.NewPostgresDB(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db
	logger.InfoLog(ctx, "Database connection established successfully")

	var history domain.RunHistory
	if cfg.ELASTIC_URL != "" {
		es, err := database.NewElasticSearchClient(cfg.ELASTIC_URL, cfg.RUN_HISTORY_INDEX)
		if err != nil {
			return fmt.Errorf("failed to initialize run history: %w", err)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("failed to create run history index: %w", err)
		}
		history = es
		logger.InfoLog(ctx, "Run history enabled, index=%s", cfg.RUN_HISTORY_INDEX)
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return err
	}

	repo := repository.NewReportRepository(db)
	a.Service = service.NewReportService(repo, exporter, service.Config{
		ExportDir: cfg.EXPORT_DIR,
		CSVDir:    cfg.CSV_DIR,
		ChartDir:  cfg.CHART_DIR,
		Workers:   cfg.CHART_WORKERS,
	}, history)

	return nil
}

// newExporter uses the rules file when one is configured and the built-in
// rules otherwise.
func newExporter(cfg *config.EnvConfig) (*xlsxreport.Exporter, error) {
	opts := []xlsxreport.ExportOption{
		xlsxreport.WithAutoFitColumns(cfg.REPORT_AUTOFIT_COLUMNS),
	}
	if cfg.REPORT_DATE_FORMAT != "" {
		opts = append(opts, xlsxreport.WithDateFormat(cfg.REPORT_DATE_FORMAT))
	}
	if cfg.REPORT_HEADER_FILL != "" {
		opts = append(opts, xlsxreport.WithHeaderStyle(xlsxreport.HeaderStyle(cfg.REPORT_HEADER_FILL)))
	}
	if cfg.REPORT_RULES_FILE != "" {
		rules, err := xlsxreport.LoadRules(cfg.REPORT_RULES_FILE)
		if err != nil {
			return nil, fmt.Errorf("failed to load report rules: %w", err)
		}
		opts = append(opts, xlsxreport.WithRules(rules...))
	}
	return xlsxreport.NewExporter(opts...)
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(reportHandler *handler.ReportHandler) {
	a.Echo.GET("/healthz", reportHandler.HealthHandler)

	reports := a.Echo.Group("/reports")
	reports.POST("/run", reportHandler.RunHandler)
	reports.GET("/workbook", reportHandler.WorkbookHandler)
	reports.GET("/runs", reportHandler.RunsHandler)
	reports.GET("/runs/:id", reportHandler.RunByIDHandler)

	a.Echo.GET("/charts/:name", reportHandler.ChartHandler)
}

// Serve registers the HTTP surface and blocks until the server stops.
func (a *App) Serve() error {
	a.RegisterMiddlewares()
	a.RegisterRoutes(handler.NewReportHandler(a.Service))
	return a.Echo.Start(":" + a.Config.APP_PORT)
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
