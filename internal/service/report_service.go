package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/locvowork/bikestore_reports/internal/chart"
	"github.com/locvowork/bikestore_reports/internal/csvexport"
	"github.com/locvowork/bikestore_reports/internal/domain"
	"github.com/locvowork/bikestore_reports/internal/logger"
	"github.com/locvowork/bikestore_reports/pkg/xlsxreport"
)

// Sheet names of the workbook report
const (
	OrdersSheet   = "OrdersReport"
	ProductsSheet = "ProductsStock"
)

// WorkbookFile is the report file name inside the export directory.
const WorkbookFile = "report.xlsx"

// fetchFunc reads one dataset through the run's repository.
type fetchFunc func(ctx context.Context, repo domain.ReportRepository) (*xlsxreport.Dataset, error)

// each adapts a repository method expression to fetchFunc.
func each(fn func(domain.ReportRepository, context.Context) (*xlsxreport.Dataset, error)) fetchFunc {
	return func(ctx context.Context, repo domain.ReportRepository) (*xlsxreport.Dataset, error) {
		return fn(repo, ctx)
	}
}

func customersSample(ctx context.Context, repo domain.ReportRepository) (*xlsxreport.Dataset, error) {
	return repo.CustomersSample(ctx, 10)
}

func topProducts(ctx context.Context, repo domain.ReportRepository) (*xlsxreport.Dataset, error) {
	return repo.TopProducts(ctx, 10)
}

type csvJob struct {
	name  string
	fetch fetchFunc
}

type chartJob struct {
	name  string
	fetch fetchFunc
	build func(ds *xlsxreport.Dataset) (chart.Renderable, error)
}

// Config locates the outputs of a report run.
type Config struct {
	ExportDir string
	CSVDir    string
	ChartDir  string
	// Workers bounds how many CSV and chart jobs run at once.
	Workers int
}

// ReportService produces the CSV dumps, charts and workbook of a report run.
type ReportService struct {
	repo     domain.ReportRepository
	exporter *xlsxreport.Exporter
	csv      *csvexport.Writer
	charts   *chart.Renderer
	history  domain.RunHistory
	cfg      Config

	csvJobs   []csvJob
	chartJobs []chartJob
}

// NewReportService wires the service. history may be nil to disable run history.
func NewReportService(repo domain.ReportRepository, exporter *xlsxreport.Exporter, cfg Config, history domain.RunHistory) *ReportService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	s := &ReportService{
		repo:     repo,
		exporter: exporter,
		csv:      csvexport.NewWriter(cfg.CSVDir),
		charts:   chart.NewRenderer(cfg.ChartDir),
		history:  history,
		cfg:      cfg,
	}

	s.csvJobs = []csvJob{
		{"customers_sample", customersSample},
		{"revenue_by_year", each(domain.ReportRepository.RevenueByYear)},
		{"top_products", topProducts},
		{"revenue_by_store", each(domain.ReportRepository.RevenueByStore)},
		{"bikestore_dataset", each(domain.ReportRepository.LineItems)},
	}

	s.chartJobs = []chartJob{
		{chart.RevenueByYear, each(domain.ReportRepository.RevenueByYear), builderOf(chart.NewRevenueByYearBar)},
		{chart.TopProducts, topProducts, builderOf(chart.NewTopProductsBar)},
		{chart.CategoryPie, each(domain.ReportRepository.ProductsByCategory), builderOf(chart.NewCategoryPie)},
		{chart.StoreRevenue, each(domain.ReportRepository.StoreListRevenue), builderOf(chart.NewStoreRevenueBar)},
		{chart.BrandAvgPrice, each(domain.ReportRepository.AvgPriceByBrand), builderOf(chart.NewBrandAvgPriceBar)},
		{chart.DailySales, each(domain.ReportRepository.DailySales), builderOf(chart.NewDailySalesLine)},
		{chart.PriceHistogram, each(domain.ReportRepository.ProductPrices), builderOf(chart.NewPriceHistogram)},
		{chart.CityScatter, each(domain.ReportRepository.CityOrdersRevenue), builderOf(chart.NewCityScatter)},
		{chart.StoreSalesOverTime, each(domain.ReportRepository.StoreQuantityByDate), builderOf(chart.NewStoreSalesOverTime)},
	}

	return s
}

// WorkbookPath is where Run writes the workbook.
func (s *ReportService) WorkbookPath() string {
	return filepath.Join(s.cfg.ExportDir, WorkbookFile)
}

// ChartNames lists the charts a run renders.
func (s *ReportService) ChartNames() []string {
	names := make([]string, len(s.chartJobs))
	for i, job := range s.chartJobs {
		names[i] = job.name
	}
	return names
}

// ChartPath returns the rendered file of a known chart.
func (s *ReportService) ChartPath(name string) (string, error) {
	for _, job := range s.chartJobs {
		if job.name == name {
			return s.charts.Path(name), nil
		}
	}
	return "", fmt.Errorf("unknown chart %q", name)
}

// Run produces the selected artifacts and records the run summary. The
// returned run is filled in even when err is not nil.
func (s *ReportService) Run(ctx context.Context, opts domain.RunOptions) (*domain.ReportRun, error) {
	run := &domain.ReportRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		From:      opts.From,
		To:        opts.To,
	}
	ctx = logger.WithRunID(ctx, run.ID)
	logger.InfoLog(ctx, "Report run started")

	err := s.run(ctx, opts, run)

	run.FinishedAt = time.Now().UTC()
	run.DurationMS = run.FinishedAt.Sub(run.StartedAt).Milliseconds()
	run.Status = domain.RunSucceeded
	if err != nil {
		run.Status = domain.RunFailed
		run.Error = err.Error()
		logger.ErrorLogErr(ctx, err, "Report run failed")
	} else {
		logger.InfoLog(ctx, "Report run finished: %d sheets, %d rows, %d csv files, %d charts, revenue total %.2f mean %.2f",
			run.Sheets, run.Rows, len(run.CSVFiles), len(run.Charts), run.RevenueTotal, run.RevenueMean)
	}

	if s.history != nil {
		if herr := s.history.Record(ctx, run); herr != nil {
			logger.WarnLog(ctx, "Failed to record run history: %v", herr)
		}
	}

	return run, err
}

func (s *ReportService) run(ctx context.Context, opts domain.RunOptions, run *domain.ReportRun) error {
	rng, err := opts.Range()
	if err != nil {
		return err
	}
	repo := s.repo.InRange(rng)

	if opts.Wants(domain.ArtifactCSV) || opts.Wants(domain.ArtifactCharts) {
		csvFiles, charts, err := s.renderArtifacts(ctx, repo, opts)
		run.CSVFiles = csvFiles
		run.Charts = charts
		if err != nil {
			return err
		}
	}

	if opts.Wants(domain.ArtifactWorkbook) {
		result, orders, err := s.exportWorkbook(ctx, repo)
		if err != nil {
			return err
		}
		run.WorkbookPath = result.Path
		run.Sheets = result.Sheets
		run.Rows = result.Rows
		run.RevenueTotal, run.RevenueMean, run.RevenueMedian = revenueSummary(orders)
	}

	return nil
}

// renderArtifacts runs the CSV and chart jobs on a bounded worker group.
// The first failure cancels the remaining jobs.
func (s *ReportService) renderArtifacts(ctx context.Context, repo domain.ReportRepository, opts domain.RunOptions) ([]string, []string, error) {
	var (
		mu       sync.Mutex
		csvFiles []string
		charts   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	if opts.Wants(domain.ArtifactCSV) {
		for _, job := range s.csvJobs {
			g.Go(func() error {
				ds, err := job.fetch(gctx, repo)
				if err != nil {
					return fmt.Errorf("csv %s: %w", job.name, err)
				}
				path, err := s.csv.WriteFile(job.name, ds)
				if err != nil {
					return fmt.Errorf("csv %s: %w", job.name, err)
				}
				logger.InfoLog(gctx, "Saved %d rows to %s", ds.Len(), path)

				mu.Lock()
				csvFiles = append(csvFiles, path)
				mu.Unlock()
				return nil
			})
		}
	}

	if opts.Wants(domain.ArtifactCharts) {
		for _, job := range s.chartJobs {
			g.Go(func() error {
				ds, err := job.fetch(gctx, repo)
				if err != nil {
					return fmt.Errorf("chart %s: %w", job.name, err)
				}
				c, err := job.build(ds)
				if err != nil {
					return fmt.Errorf("chart %s: %w", job.name, err)
				}
				path, err := s.charts.Save(job.name, c)
				if err != nil {
					return err
				}
				logger.InfoLog(gctx, "Chart %s saved to %s, rows=%d", job.name, path, ds.Len())

				mu.Lock()
				charts = append(charts, path)
				mu.Unlock()
				return nil
			})
		}
	}

	err := g.Wait()
	sort.Strings(csvFiles)
	sort.Strings(charts)
	return csvFiles, charts, err
}

// workbookRequest fetches both sheets and returns the request along with the
// orders dataset.
func workbookRequest(ctx context.Context, repo domain.ReportRepository, path string) (*xlsxreport.ReportRequest, *xlsxreport.Dataset, error) {
	orders, err := repo.OrdersReport(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %s: %w", OrdersSheet, err)
	}
	stock, err := repo.ProductsStock(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %s: %w", ProductsSheet, err)
	}

	req := xlsxreport.NewReportRequest(path).
		AddSheet(OrdersSheet, orders).
		AddSheet(ProductsSheet, stock)
	return req, orders, nil
}

// exportWorkbook writes the workbook report to WorkbookPath and returns the
// orders dataset alongside the result.
func (s *ReportService) exportWorkbook(ctx context.Context, repo domain.ReportRepository) (*xlsxreport.ExportResult, *xlsxreport.Dataset, error) {
	req, orders, err := workbookRequest(ctx, repo, s.WorkbookPath())
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return nil, nil, &xlsxreport.IOError{Path: req.Path, Op: "mkdir", Err: err}
	}

	result, err := s.exporter.Export(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("exporting workbook: %w", err)
	}
	logger.InfoLog(ctx, "Created file %s, %d sheets, %d rows", result.Path, result.Sheets, result.Rows)
	return result, orders, nil
}

// WriteWorkbook streams a freshly built workbook for orders within rng to w.
func (s *ReportService) WriteWorkbook(ctx context.Context, w io.Writer, rng domain.DateRange) (*xlsxreport.ExportResult, error) {
	req, _, err := workbookRequest(ctx, s.repo.InRange(rng), WorkbookFile)
	if err != nil {
		return nil, err
	}
	return s.exporter.Write(ctx, w, req)
}

// RecentRuns returns the latest recorded runs, newest first.
func (s *ReportService) RecentRuns(ctx context.Context, size int) ([]domain.ReportRun, error) {
	if s.history == nil {
		return []domain.ReportRun{}, nil
	}
	return s.history.Recent(ctx, size)
}

// RunByID returns one recorded run. Without a run history every ID is unknown.
func (s *ReportService) RunByID(ctx context.Context, id string) (*domain.ReportRun, error) {
	if s.history == nil {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	return s.history.Get(ctx, id)
}

// revenueSummary returns sum, mean and median of order_revenue. Missing or
// non-numeric data yields zeros.
func revenueSummary(orders *xlsxreport.Dataset) (float64, float64, float64) {
	if orders == nil || orders.Len() == 0 {
		return 0, 0, 0
	}
	values, err := orders.Floats("order_revenue")
	if err != nil {
		return 0, 0, 0
	}
	data := stats.Float64Data(values)
	sum, _ := data.Sum()
	mean, _ := data.Mean()
	median, _ := data.Median()
	return sum, mean, median
}

// builderOf adapts a typed chart constructor to the job signature.
func builderOf[T chart.Renderable](fn func(*xlsxreport.Dataset) (T, error)) func(*xlsxreport.Dataset) (chart.Renderable, error) {
	return func(ds *xlsxreport.Dataset) (chart.Renderable, error) {
		c, err := fn(ds)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
