package chart

import (
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/locvowork/bikestore_reports/pkg/xlsxreport"
)

// Chart names, also used as the rendered file names
const (
	RevenueByYear      = "revenue_by_year"
	TopProducts        = "top_products"
	CategoryPie        = "pie"
	StoreRevenue       = "bar"
	BrandAvgPrice      = "barh"
	DailySales         = "line"
	PriceHistogram     = "hist"
	CityScatter        = "scatter"
	StoreSalesOverTime = "store_sales_over_time"
)

// HistogramBins is the number of bins of the product price histogram.
const HistogramBins = 20

func initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     "1000px",
		Height:    "600px",
	})
}

func titleOpts(title, subtitle string) charts.GlobalOpts {
	return charts.WithTitleOpts(opts.Title{
		Title:    title,
		Subtitle: subtitle,
	})
}

func barData(values []float64) []opts.BarData {
	items := make([]opts.BarData, 0, len(values))
	for _, v := range values {
		items = append(items, opts.BarData{Value: v})
	}
	return items
}

// labelsAndValues extracts a category column and a numeric column.
func labelsAndValues(ds *xlsxreport.Dataset, labelCol, valueCol string) ([]string, []float64, error) {
	if ds == nil {
		return nil, nil, fmt.Errorf("dataset is nil")
	}
	labels, err := ds.Strings(labelCol)
	if err != nil {
		return nil, nil, err
	}
	values, err := ds.Floats(valueCol)
	if err != nil {
		return nil, nil, err
	}
	return labels, values, nil
}

// NewRevenueByYearBar renders yearly revenue (columns year, revenue).
func NewRevenueByYearBar(ds *xlsxreport.Dataset) (*charts.Bar, error) {
	years, revenue, err := labelsAndValues(ds, "year", "revenue")
	if err != nil {
		return nil, fmt.Errorf("revenue by year: %w", err)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Revenue by Year"),
		titleOpts("Revenue by Year", ""),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Year"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Revenue ($)"}),
	)
	bar.SetXAxis(years).AddSeries("Revenue", barData(revenue))
	return bar, nil
}

// NewTopProductsBar renders units sold per product as horizontal bars, the
// best seller on top (columns product_name, units_sold, best first).
func NewTopProductsBar(ds *xlsxreport.Dataset) (*charts.Bar, error) {
	products, units, err := labelsAndValues(ds, "product_name", "units_sold")
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	reverseStrings(products)
	reverseFloats(units)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Top Products by Units Sold"),
		titleOpts(fmt.Sprintf("Top %d Products by Units Sold", len(products)), ""),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Units Sold"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Product"}),
	)
	bar.SetXAxis(products).AddSeries("Units Sold", barData(units))
	bar.XYReversal()
	return bar, nil
}

// NewCategoryPie renders the share of products per category
// (columns category_name, product_count).
func NewCategoryPie(ds *xlsxreport.Dataset) (*charts.Pie, error) {
	categories, counts, err := labelsAndValues(ds, "category_name", "product_count")
	if err != nil {
		return nil, fmt.Errorf("products by category: %w", err)
	}

	items := make([]opts.PieData, 0, len(categories))
	for i, c := range categories {
		items = append(items, opts.PieData{Name: c, Value: counts[i]})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		initOpts("Distribution of Products by Category"),
		titleOpts("Distribution of Products by Category", ""),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Orient: "vertical", Left: "right"}),
	)
	pie.AddSeries("Products", items).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: true, Formatter: "{b}: {d}%"}))
	return pie, nil
}

// NewStoreRevenueBar renders revenue per store (columns store_name, revenue).
func NewStoreRevenueBar(ds *xlsxreport.Dataset) (*charts.Bar, error) {
	stores, revenue, err := labelsAndValues(ds, "store_name", "revenue")
	if err != nil {
		return nil, fmt.Errorf("revenue by store: %w", err)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Revenue by Store"),
		titleOpts("Revenue by Store", ""),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Revenue"}),
	)
	bar.SetXAxis(stores).AddSeries("Revenue", barData(revenue))
	return bar, nil
}

// NewBrandAvgPriceBar renders average list price per brand as horizontal bars
// (columns brand_name, avg_price).
func NewBrandAvgPriceBar(ds *xlsxreport.Dataset) (*charts.Bar, error) {
	brands, prices, err := labelsAndValues(ds, "brand_name", "avg_price")
	if err != nil {
		return nil, fmt.Errorf("average price by brand: %w", err)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Average Product Price by Brand"),
		titleOpts("Average Product Price by Brand", ""),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Average Price"}),
	)
	bar.SetXAxis(brands).AddSeries("Average Price", barData(prices))
	bar.XYReversal()
	return bar, nil
}

// NewDailySalesLine renders the daily sales trend (columns order_date, daily_sales).
func NewDailySalesLine(ds *xlsxreport.Dataset) (*charts.Line, error) {
	dates, sales, err := labelsAndValues(ds, "order_date", "daily_sales")
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}

	points := make([]opts.LineData, 0, len(sales))
	for i, v := range sales {
		points = append(points, opts.LineData{Name: dates[i], Value: v})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts("Daily Sales Trend"),
		titleOpts("Daily Sales Trend", ""),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Sales"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(dates).
		AddSeries("Sales", points).
		SetSeriesOptions(charts.WithLineChartOpts(
			opts.LineChart{Smooth: false, ShowSymbol: true, SymbolSize: 4, Symbol: "circle"},
		))
	return line, nil
}

// NewPriceHistogram renders the distribution of product list prices
// (column list_price) over HistogramBins equal-width bins.
func NewPriceHistogram(ds *xlsxreport.Dataset) (*charts.Bar, error) {
	if ds == nil {
		return nil, fmt.Errorf("product prices: dataset is nil")
	}
	prices, err := ds.Floats("list_price")
	if err != nil {
		return nil, fmt.Errorf("product prices: %w", err)
	}

	hist, err := NewHistogram(prices, HistogramBins)
	if err != nil {
		return nil, fmt.Errorf("product prices: %w", err)
	}

	counts := make([]float64, len(hist.Counts))
	for i, c := range hist.Counts {
		counts[i] = float64(c)
	}
	subtitle := "no products"
	if len(prices) > 0 {
		subtitle = fmt.Sprintf("mean %.2f, median %.2f", hist.Mean, hist.Median)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Distribution of Product Prices"),
		titleOpts("Distribution of Product Prices", subtitle),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Price"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Frequency"}),
	)
	bar.SetXAxis(hist.Labels()).
		AddSeries("Products", barData(counts)).
		SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "0%"}))
	return bar, nil
}

// NewCityScatter plots order count against revenue, one point per city
// (columns city, num_orders, revenue).
func NewCityScatter(ds *xlsxreport.Dataset) (*charts.Scatter, error) {
	cities, orders, err := labelsAndValues(ds, "city", "num_orders")
	if err != nil {
		return nil, fmt.Errorf("orders vs revenue: %w", err)
	}
	revenue, err := ds.Floats("revenue")
	if err != nil {
		return nil, fmt.Errorf("orders vs revenue: %w", err)
	}

	points := make([]opts.ScatterData, 0, len(cities))
	for i, city := range cities {
		points = append(points, opts.ScatterData{
			Name:       city,
			Value:      []interface{}{orders[i], revenue[i]},
			SymbolSize: 8,
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		initOpts("Orders vs Revenue by City"),
		titleOpts("Orders vs Revenue by City", ""),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Number of Orders", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Revenue", Type: "value"}),
	)
	scatter.AddSeries("Cities", points)
	return scatter, nil
}

// NewStoreSalesOverTime renders quantity sold per store and day with a
// slider over the date axis (columns order_date, store_name, qty).
func NewStoreSalesOverTime(ds *xlsxreport.Dataset) (*charts.Bar, error) {
	dates, qty, err := labelsAndValues(ds, "order_date", "qty")
	if err != nil {
		return nil, fmt.Errorf("store sales over time: %w", err)
	}
	stores, err := ds.Strings("store_name")
	if err != nil {
		return nil, fmt.Errorf("store sales over time: %w", err)
	}

	axis := uniqueInOrder(dates)
	pos := make(map[string]int, len(axis))
	for i, d := range axis {
		pos[d] = i
	}

	series := make(map[string][]float64)
	var storeOrder []string
	for i, store := range stores {
		if _, ok := series[store]; !ok {
			series[store] = make([]float64, len(axis))
			storeOrder = append(storeOrder, store)
		}
		series[store][pos[dates[i]]] += qty[i]
	}

	// show roughly the first month of the range initially
	end := float32(100)
	if len(axis) > 30 {
		end = float32(3000) / float32(len(axis))
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts("Store Sales Over Time"),
		titleOpts("Store Sales Over Time", ""),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: true, Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Quantity Sold"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: end}),
	)
	bar.SetXAxis(axis)
	for _, store := range storeOrder {
		bar.AddSeries(store, barData(series[store]))
	}
	return bar, nil
}

func uniqueInOrder(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseFloats(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
