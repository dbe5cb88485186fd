package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/locvowork/bikestore_reports/internal/domain"
	"github.com/locvowork/bikestore_reports/internal/logger"
	"github.com/locvowork/bikestore_reports/internal/repository/builder"
	"github.com/locvowork/bikestore_reports/pkg/xlsxreport"
)

// Revenue of one order line after discount, and at product list price.
const (
	netLineRevenue  = "oi.quantity * oi.list_price * (1 - COALESCE(oi.discount, 0))"
	listLineRevenue = "oi.quantity * p.list_price"
)

type reportRepository struct {
	db  *sql.DB
	rng domain.DateRange
}

// NewReportRepository creates a new instance of ReportRepository
func NewReportRepository(db *sql.DB) domain.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) InRange(rng domain.DateRange) domain.ReportRepository {
	return &reportRepository{db: r.db, rng: rng}
}

// ordersIn restricts a query joined on sales.orders o to the order date range.
func ordersIn(b *builder.SQLBuilder, rng domain.DateRange) *builder.SQLBuilder {
	if !rng.From.IsZero() {
		b.Where("o.order_date >= ?", rng.From)
	}
	if !rng.To.IsZero() {
		b.Where("o.order_date <= ?", rng.To)
	}
	return b
}

func customersSampleQuery(limit int) *builder.SQLBuilder {
	return builder.NewSQLBuilder().
		Select("*").
		From("sales.customers").
		OrderBy("customer_id").
		Limit(limit)
}

func revenueByYearQuery(rng domain.DateRange) *builder.SQLBuilder {
	return ordersIn(builder.NewSQLBuilder().
		Select("EXTRACT(YEAR FROM o.order_date)::int AS year", "SUM("+netLineRevenue+") AS revenue").
		From("sales.orders o").
		Join("INNER", "sales.order_items oi", "o.order_id = oi.order_id").
		GroupBy("year").
		OrderBy("year"), rng)
}

func topProductsQuery(limit int, rng domain.DateRange) *builder.SQLBuilder {
	return ordersIn(builder.NewSQLBuilder().
		Select("p.product_name", "SUM(oi.quantity) AS units_sold").
		From("production.products p").
		Join("INNER", "sales.order_items oi", "p.product_id = oi.product_id").
		Join("INNER", "sales.orders o", "oi.order_id = o.order_id").
		GroupBy("p.product_name").
		OrderBy("units_sold DESC").
		Limit(limit), rng)
}

func revenueByStoreQuery(rng domain.DateRange) *builder.SQLBuilder {
	return ordersIn(builder.NewSQLBuilder().
		Select("s.store_name", "SUM("+netLineRevenue+") AS revenue").
		From("sales.stores s").
		Join("INNER", "sales.orders o", "s.store_id = o.store_id").
		Join("INNER", "sales.order_items oi", "o.order_id = oi.order_id").
		GroupBy("s.store_name").
		OrderBy("revenue DESC"), rng)
}

func lineItemsQuery(rng domain.DateRange) *builder.SQLBuilder {
	return ordersIn(builder.NewSQLBuilder().
		Select(
			"o.order_id",
			"o.order_date",
			"o.required_date",
			"o.shipped_date",
			"o.order_status",
			"c.first_name || ' ' || c.last_name AS customer_name",
			"c.city AS customer_city",
			"s.store_name",
			"st.first_name || ' ' || st.last_name AS staff_name",
			"p.product_name",
			"b.brand_name",
			"cat.category_name",
			"oi.quantity",
			"oi.list_price",
			"oi.discount",
			"("+netLineRevenue+") AS total_amount",
		).
		From("sales.orders o").
		Join("INNER", "sales.customers c", "o.customer_id = c.customer_id").
		Join("INNER", "sales.stores s", "o.store_id = s.store_id").
		Join("INNER", "sales.staffs st", "o.staff_id = st.staff_id").
		Join("INNER", "sales.order_items oi", "o.order_id = oi.order_id").
		Join("INNER", "production.products p", "oi.product_id = p.product_id").
		Join("INNER", "production.brands b", "p.brand_id = b.brand_id").
		Join("INNER", "production.categories cat", "p.category_id = cat.category_id").
		OrderBy("o.order_id, oi.item_id"), rng)
}

func productsByCategoryQuery() *builder.SQLBuilder {
	return builder.NewSQLBuilder().
		Select("c.category_name", "COUNT(p.product_id) AS product_count").
		From("production.products p").
		Join("INNER", "production.categories c", "p.category_id = c.category_id").
		GroupBy("c.category_name").
		OrderBy("c.category_name")
}

func storeListRevenueQuery(rng domain.DateRange) *builder.SQLBuilder {
	return ordersIn(builder.NewSQLBuilder().
		Select("s.store_name", "SUM("+listLineRevenue+") AS revenue").
		From("sales.order_items oi").
		Join("INNER", "production.products p", "oi.product_id = p.product_id").
		Join("INNER", "sales.orders o", "o.order_id = oi.order_id").
		Join("INNER", "sales.stores s", "o.store_id = s.store_id").
		GroupBy("s.store_name").
		OrderBy("revenue DESC"), rng)
}

func avgPriceByBrandQuery() *builder.SQLBuilder {
	return builder.NewSQLBuilder().
		Select("b.brand_name", "AVG(p.list_price) AS avg_price").
		From("production.products p").
		Join("INNER", "production.brands b", "p.brand_id = b.brand_id").
		GroupBy("b.brand_name").
		OrderBy("avg_price DESC")
}

func dailySalesQuery(rng domain.DateRange) *builder.SQLBuilder {
	return ordersIn(builder.NewSQLBuilder().
		Select("DATE(o.order_date) AS order_date", "SUM("+listLineRevenue+") AS daily_sales").
		From("sales.orders o").
		Join("INNER", "sales.order_items oi", "o.order_id = oi.order_id").
		Join("INNER", "production.products p", "oi.product_id = p.product_id").
		GroupBy("DATE(o.order_date)").
		OrderBy("order_date"), rng)
}

func productPricesQuery() *builder.SQLBuilder {
	return builder.NewSQLBuilder().
		Select("p.list_price").
		From("production.products p")
}

func cityOrdersRevenueQuery(rng domain.DateRange) *builder.SQLBuilder {
	return ordersIn(builder.NewSQLBuilder().
		Select("c.city", "COUNT(o.order_id) AS num_orders", "SUM("+listLineRevenue+") AS revenue").
		From("sales.customers c").
		Join("INNER", "sales.orders o", "c.customer_id = o.customer_id").
		Join("INNER", "sales.order_items oi", "o.order_id = oi.order_id").
		Join("INNER", "production.products p", "oi.product_id = p.product_id").
		GroupBy("c.city").
		OrderBy("revenue DESC"), rng)
}

func storeQuantityByDateQuery(rng domain.DateRange) *builder.SQLBuilder {
	return ordersIn(builder.NewSQLBuilder().
		Select("DATE(o.order_date) AS order_date", "s.store_name", "SUM(oi.quantity) AS qty").
		From("sales.orders o").
		Join("INNER", "sales.order_items oi", "o.order_id = oi.order_id").
		Join("INNER", "sales.stores s", "o.store_id = s.store_id").
		GroupBy("DATE(o.order_date)", "s.store_name").
		OrderBy("order_date, s.store_name"), rng)
}

func ordersReportQuery(rng domain.DateRange) *builder.SQLBuilder {
	return ordersIn(builder.NewSQLBuilder().
		Select(
			"o.order_id",
			"o.order_date",
			"c.first_name || ' ' || c.last_name AS customer",
			"s.store_name",
			"SUM("+listLineRevenue+") AS order_revenue",
		).
		From("sales.orders o").
		Join("INNER", "sales.customers c", "o.customer_id = c.customer_id").
		Join("INNER", "sales.stores s", "o.store_id = s.store_id").
		Join("INNER", "sales.order_items oi", "o.order_id = oi.order_id").
		Join("INNER", "production.products p", "oi.product_id = p.product_id").
		GroupBy("o.order_id", "o.order_date", "c.first_name", "c.last_name", "s.store_name").
		OrderBy("o.order_date, o.order_id"), rng)
}

func productsStockQuery() *builder.SQLBuilder {
	return builder.NewSQLBuilder().
		Select("p.product_name", "b.brand_name", "c.category_name", "p.list_price", "st.store_id", "st.quantity").
		From("production.products p").
		Join("INNER", "production.brands b", "p.brand_id = b.brand_id").
		Join("INNER", "production.categories c", "p.category_id = c.category_id").
		Join("INNER", "production.stocks st", "p.product_id = st.product_id").
		OrderBy("b.brand_name, p.product_name, st.store_id")
}

func (r *reportRepository) CustomersSample(ctx context.Context, limit int) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "customers sample", customersSampleQuery(limit))
}

func (r *reportRepository) RevenueByYear(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "revenue by year", revenueByYearQuery(r.rng))
}

func (r *reportRepository) TopProducts(ctx context.Context, limit int) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "top products", topProductsQuery(limit, r.rng))
}

func (r *reportRepository) RevenueByStore(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "revenue by store", revenueByStoreQuery(r.rng))
}

func (r *reportRepository) LineItems(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "line items", lineItemsQuery(r.rng))
}

func (r *reportRepository) ProductsByCategory(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "products by category", productsByCategoryQuery())
}

func (r *reportRepository) StoreListRevenue(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "store list revenue", storeListRevenueQuery(r.rng))
}

func (r *reportRepository) AvgPriceByBrand(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "average price by brand", avgPriceByBrandQuery())
}

func (r *reportRepository) DailySales(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "daily sales", dailySalesQuery(r.rng))
}

func (r *reportRepository) ProductPrices(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "product prices", productPricesQuery())
}

func (r *reportRepository) CityOrdersRevenue(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "city orders and revenue", cityOrdersRevenueQuery(r.rng))
}

func (r *reportRepository) StoreQuantityByDate(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "store quantity by date", storeQuantityByDateQuery(r.rng))
}

func (r *reportRepository) OrdersReport(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "orders report", ordersReportQuery(r.rng))
}

func (r *reportRepository) ProductsStock(ctx context.Context) (*xlsxreport.Dataset, error) {
	return r.query(ctx, "products stock", productsStockQuery())
}

// query runs a SELECT and flattens every row into the dataset, keyed by the
// result's column names.
func (r *reportRepository) query(ctx context.Context, name string, b *builder.SQLBuilder) (*xlsxreport.Dataset, error) {
	q, args, err := b.BuildSafe()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", name, err)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s columns: %w", name, err)
	}

	ds := xlsxreport.NewDataset(cols...)
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", name, err)
		}

		row := make(xlsxreport.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		ds.Rows = append(ds.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	logger.DebugLog(ctx, "Query %s returned %d rows", name, ds.Len())
	return ds, nil
}

// normalizeValue turns driver bytes into numbers or text. lib/pq returns
// NUMERIC columns as []byte.
func normalizeValue(v interface{}) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	s := string(b)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
