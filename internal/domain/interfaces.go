package domain

import (
	"context"

	"github.com/locvowork/bikestore_reports/pkg/xlsxreport"
)

// ReportRepository runs the canned BikeStores queries. Every method returns
// its result flattened into a dataset, columns in SELECT order.
type ReportRepository interface {
	// InRange returns a repository whose order-based queries only see orders
	// dated within r.
	InRange(r DateRange) ReportRepository

	// CSV dumps
	CustomersSample(ctx context.Context, limit int) (*xlsxreport.Dataset, error)
	RevenueByYear(ctx context.Context) (*xlsxreport.Dataset, error)
	TopProducts(ctx context.Context, limit int) (*xlsxreport.Dataset, error)
	RevenueByStore(ctx context.Context) (*xlsxreport.Dataset, error)
	LineItems(ctx context.Context) (*xlsxreport.Dataset, error)

	// Chart sources
	ProductsByCategory(ctx context.Context) (*xlsxreport.Dataset, error)
	StoreListRevenue(ctx context.Context) (*xlsxreport.Dataset, error)
	AvgPriceByBrand(ctx context.Context) (*xlsxreport.Dataset, error)
	DailySales(ctx context.Context) (*xlsxreport.Dataset, error)
	ProductPrices(ctx context.Context) (*xlsxreport.Dataset, error)
	CityOrdersRevenue(ctx context.Context) (*xlsxreport.Dataset, error)
	StoreQuantityByDate(ctx context.Context) (*xlsxreport.Dataset, error)

	// Workbook sheets
	OrdersReport(ctx context.Context) (*xlsxreport.Dataset, error)
	ProductsStock(ctx context.Context) (*xlsxreport.Dataset, error)
}

// RunHistory stores report run summaries
type RunHistory interface {
	Record(ctx context.Context, run *ReportRun) error
	Recent(ctx context.Context, size int) ([]ReportRun, error)
	Get(ctx context.Context, id string) (*ReportRun, error)
}
