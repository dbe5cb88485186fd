package xlsxreport

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ordersDataset() *Dataset {
	return NewDataset("order_id", "order_revenue").
		Append(1, 500).
		Append(2, 100).
		Append(3, 300)
}

func productsDataset() *Dataset {
	return NewDataset("product_name", "quantity").
		Append("A", 5).
		Append("B", 2)
}

func exportTo(t *testing.T, req *ReportRequest) *ExportResult {
	t.Helper()
	exporter, err := NewExporter()
	require.NoError(t, err)

	result, err := exporter.Export(context.Background(), req)
	require.NoError(t, err)
	return result
}

func openWorkbook(t *testing.T, path string) *excelize.File {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// autoFilterRef returns the range of the sheet-scoped built-in name backing the
// autofilter. excelize reads that name back under a different label than the
// one it writes, so only the scope and the reference are matched.
func autoFilterRef(f *excelize.File, sheet string) string {
	for _, dn := range f.GetDefinedName() {
		if dn.Scope == sheet && strings.HasPrefix(dn.Name, "_xlnm.") && strings.Contains(dn.RefersTo, "!$A$1:") {
			return dn.RefersTo
		}
	}
	return ""
}

var autoFilterElem = regexp.MustCompile(`<autoFilter ref="([^"]+)"`)

// worksheetAutoFilter reads the autoFilter element of the n-th worksheet part.
func worksheetAutoFilter(t *testing.T, path string, n int) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	name := "xl/worksheets/sheet" + strconv.Itoa(n) + ".xml"
	for _, zf := range zr.File {
		if zf.Name != name {
			continue
		}
		rc, err := zf.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		if m := autoFilterElem.FindSubmatch(data); m != nil {
			return string(m[1])
		}
		return ""
	}
	t.Fatalf("%s not found in %s", name, path)
	return ""
}

func hexEqual(t *testing.T, expected, actual string) {
	t.Helper()
	assert.Equal(t,
		strings.ToUpper(strings.TrimPrefix(expected, "#")),
		strings.ToUpper(strings.TrimPrefix(actual, "#")))
}

func TestExport_OrdersReportSortedAscending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	input := ordersDataset()

	result := exportTo(t, NewReportRequest(path).AddSheet("OrdersReport", input))

	assert.Equal(t, path, result.Path)
	assert.Equal(t, 1, result.Sheets)
	assert.Equal(t, 3, result.Rows)

	f := openWorkbook(t, path)
	rows, err := f.GetRows("OrdersReport")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"order_id", "order_revenue"},
		{"2", "100"},
		{"3", "300"},
		{"1", "500"},
	}, rows)

	// the caller's dataset is left untouched
	assert.Equal(t, []interface{}{1, 2, 3}, input.Values("order_id"))
}

func TestExport_OrdersReportColorScale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	exportTo(t, NewReportRequest(path).AddSheet("OrdersReport", ordersDataset()))

	f := openWorkbook(t, path)
	formats, err := f.GetConditionalFormats("OrdersReport")
	require.NoError(t, err)
	require.Len(t, formats, 1)

	opts, ok := formats["B2:B4"]
	require.True(t, ok, "color scale should cover the order_revenue data rows only, got %v", formats)
	require.Len(t, opts, 1)
	assert.Equal(t, "3_color_scale", opts[0].Type)
	assert.Equal(t, "min", opts[0].MinType)
	assert.Equal(t, "max", opts[0].MaxType)
	hexEqual(t, LowRevenueColor, opts[0].MinColor)
	hexEqual(t, HighRevenueColor, opts[0].MaxColor)
}

func TestExport_OtherSheetsKeepInputOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	exportTo(t, NewReportRequest(path).AddSheet("ProductsStock", productsDataset()))

	f := openWorkbook(t, path)
	rows, err := f.GetRows("ProductsStock")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"product_name", "quantity"},
		{"A", "5"},
		{"B", "2"},
	}, rows)

	formats, err := f.GetConditionalFormats("ProductsStock")
	require.NoError(t, err)
	assert.Empty(t, formats)
}

func TestExport_SheetOrderAndLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	req := NewReportRequest(path).
		AddSheet("OrdersReport", ordersDataset()).
		AddSheet("ProductsStock", productsDataset())

	result := exportTo(t, req)
	assert.Equal(t, 2, result.Sheets)
	assert.Equal(t, 5, result.Rows)

	f := openWorkbook(t, path)
	assert.Equal(t, []string{"OrdersReport", "ProductsStock"}, f.GetSheetList())

	for _, sheet := range f.GetSheetList() {
		panes, err := f.GetPanes(sheet)
		require.NoError(t, err)
		assert.True(t, panes.Freeze, sheet)
		assert.Equal(t, 1, panes.XSplit, sheet)
		assert.Equal(t, 1, panes.YSplit, sheet)
		assert.Equal(t, "B2", panes.TopLeftCell, sheet)
	}

	assert.True(t, strings.HasSuffix(autoFilterRef(f, "OrdersReport"), "$A$1:$B$4"), autoFilterRef(f, "OrdersReport"))
	assert.True(t, strings.HasSuffix(autoFilterRef(f, "ProductsStock"), "$A$1:$B$3"), autoFilterRef(f, "ProductsStock"))
	assert.Equal(t, "$A$1:$B$4", worksheetAutoFilter(t, path, 1))
	assert.Equal(t, "$A$1:$B$3", worksheetAutoFilter(t, path, 2))
}

func TestExport_EmptyDatasetWritesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	result := exportTo(t, NewReportRequest(path).AddSheet("OrdersReport", NewDataset("order_id", "order_revenue")))
	assert.Equal(t, 0, result.Rows)

	f := openWorkbook(t, path)
	rows, err := f.GetRows("OrdersReport")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"order_id", "order_revenue"}}, rows)

	panes, err := f.GetPanes("OrdersReport")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, "B2", panes.TopLeftCell)

	assert.True(t, strings.HasSuffix(autoFilterRef(f, "OrdersReport"), "$A$1:$B$1"), autoFilterRef(f, "OrdersReport"))
	assert.Equal(t, "$A$1:$B$1", worksheetAutoFilter(t, path, 1))

	formats, err := f.GetConditionalFormats("OrdersReport")
	require.NoError(t, err)
	assert.Empty(t, formats)
}

func TestExport_MissingRuleColumnIsPlainSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	data := NewDataset("order_id", "customer").
		Append(7, "Zed").
		Append(3, "Amy")

	exportTo(t, NewReportRequest(path).AddSheet("OrdersReport", data))

	f := openWorkbook(t, path)
	rows, err := f.GetRows("OrdersReport")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"order_id", "customer"},
		{"7", "Zed"},
		{"3", "Amy"},
	}, rows)

	formats, err := f.GetConditionalFormats("OrdersReport")
	require.NoError(t, err)
	assert.Empty(t, formats)
}

func TestExport_SortIsStableAndNonNumericLast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	data := NewDataset("order_id", "order_revenue").
		Append(1, 200.5).
		Append(2, nil).
		Append(3, []byte("100")).
		Append(4, 200.5).
		Append(5, "50")

	exportTo(t, NewReportRequest(path).AddSheet("OrdersReport", data))

	f := openWorkbook(t, path)
	cols, err := f.GetCols("OrdersReport")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "5", "3", "1", "4", "2"}, cols[0])
}

func TestExport_SortPropertyRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 5; run++ {
		data := NewDataset("order_id", "order_date", "order_revenue")
		n := rng.Intn(40)
		for i := 0; i < n; i++ {
			data.Append(i, time.Date(2018, 1, 1+i%28, 0, 0, 0, 0, time.UTC), float64(rng.Intn(20))*12.5)
		}

		path := filepath.Join(t.TempDir(), "report.xlsx")
		exportTo(t, NewReportRequest(path).AddSheet("OrdersReport", data))

		f := openWorkbook(t, path)
		rows, err := f.GetRows("OrdersReport")
		require.NoError(t, err)
		require.Len(t, rows, n+1)

		var ids []int
		prev := -1.0
		for _, row := range rows[1:] {
			revenue, err := strconv.ParseFloat(row[2], 64)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, revenue, prev)
			prev = revenue

			id, err := strconv.Atoi(row[0])
			require.NoError(t, err)
			ids = append(ids, id)
		}

		sort.Ints(ids)
		for i, id := range ids {
			assert.Equal(t, i, id, "rows must be a permutation of the input")
		}
	}
}

func TestExport_EmptyRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	exporter, err := NewExporter()
	require.NoError(t, err)

	_, err = exporter.Export(context.Background(), NewReportRequest(path))
	assert.ErrorIs(t, err, ErrEmptyRequest)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be created")
}

func TestExport_SchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(path string) *ReportRequest
		sheet  string
		column string
	}{
		{
			name: "duplicate column",
			req: func(path string) *ReportRequest {
				return NewReportRequest(path).AddSheet("OrdersReport", NewDataset("order_id", "order_id"))
			},
			sheet:  "OrdersReport",
			column: "order_id",
		},
		{
			name: "empty column name",
			req: func(path string) *ReportRequest {
				return NewReportRequest(path).AddSheet("ProductsStock", NewDataset("product_name", " "))
			},
			sheet:  "ProductsStock",
			column: " ",
		},
		{
			name: "duplicate sheet",
			req: func(path string) *ReportRequest {
				return NewReportRequest(path).
					AddSheet("ProductsStock", productsDataset()).
					AddSheet("productsstock", productsDataset())
			},
			sheet: "productsstock",
		},
		{
			name: "invalid sheet name",
			req: func(path string) *ReportRequest {
				return NewReportRequest(path).AddSheet("Orders/2018", ordersDataset())
			},
			sheet: "Orders/2018",
		},
		{
			name: "sheet name too long",
			req: func(path string) *ReportRequest {
				return NewReportRequest(path).AddSheet(strings.Repeat("x", 32), ordersDataset())
			},
			sheet: strings.Repeat("x", 32),
		},
		{
			name: "row value outside the column set",
			req: func(path string) *ReportRequest {
				ds := &Dataset{
					Columns: []string{"order_id"},
					Rows:    []Row{{"order_id": 2, "order_revenue": 100}},
				}
				return NewReportRequest(path).AddSheet("OrdersReport", ds)
			},
			sheet:  "OrdersReport",
			column: "order_revenue",
		},
		{
			name: "rows without columns",
			req: func(path string) *ReportRequest {
				ds := &Dataset{Rows: []Row{{}, {}}}
				return NewReportRequest(path).AddSheet("ProductsStock", ds)
			},
			sheet: "ProductsStock",
		},
	}

	exporter, err := NewExporter()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "report.xlsx")
			_, err := exporter.Export(context.Background(), tt.req(path))

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
			assert.Equal(t, tt.sheet, schemaErr.Sheet)
			assert.Equal(t, tt.column, schemaErr.Column)

			_, statErr := os.Stat(path)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestExport_UnwritableDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.xlsx")
	exporter, err := NewExporter()
	require.NoError(t, err)

	_, err = exporter.Export(context.Background(), NewReportRequest(path).AddSheet("OrdersReport", ordersDataset()))

	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "expected IOError, got %v", err)
	assert.Equal(t, path, ioErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExport_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	exportTo(t, NewReportRequest(path).AddSheet("ProductsStock", productsDataset()))

	f := openWorkbook(t, path)
	assert.Equal(t, []string{"ProductsStock"}, f.GetSheetList())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "report.xlsx", entries[0].Name())
}

func TestExport_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	req := func() *ReportRequest {
		return NewReportRequest(path).
			AddSheet("OrdersReport", ordersDataset()).
			AddSheet("ProductsStock", productsDataset())
	}

	snapshot := func() map[string]interface{} {
		f := openWorkbook(t, path)
		out := make(map[string]interface{})
		for _, sheet := range f.GetSheetList() {
			rows, err := f.GetRows(sheet)
			require.NoError(t, err)
			formats, err := f.GetConditionalFormats(sheet)
			require.NoError(t, err)
			panes, err := f.GetPanes(sheet)
			require.NoError(t, err)
			out[sheet] = []interface{}{rows, formats, panes, autoFilterRef(f, sheet)}
		}
		return out
	}

	exportTo(t, req())
	first := snapshot()
	exportTo(t, req())
	second := snapshot()

	assert.Equal(t, first, second)
}

func TestWrite_StreamsSameWorkbook(t *testing.T) {
	exporter, err := NewExporter()
	require.NoError(t, err)

	var buf bytes.Buffer
	result, err := exporter.Write(context.Background(), &buf, NewReportRequest("").AddSheet("OrdersReport", ordersDataset()))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue("OrdersReport", "B2")
	require.NoError(t, err)
	assert.Equal(t, "100", value)
}

func TestExport_CustomRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	exporter, err := NewExporter(WithRules(FormattingRule{
		Sheet:  "ProductsStock",
		Column: "quantity",
		Sort:   SortDescending,
	}))
	require.NoError(t, err)

	data := NewDataset("product_name", "quantity").
		Append("A", 2).
		Append("B", 9).
		Append("C", 4)
	_, err = exporter.Export(context.Background(), NewReportRequest(path).
		AddSheet("ProductsStock", data).
		AddSheet("OrdersReport", ordersDataset()))
	require.NoError(t, err)

	f := openWorkbook(t, path)
	cols, err := f.GetCols("ProductsStock")
	require.NoError(t, err)
	assert.Equal(t, []string{"product_name", "B", "C", "A"}, cols[0])

	// the default OrdersReport rule was replaced
	cols, err = f.GetCols("OrdersReport")
	require.NoError(t, err)
	assert.Equal(t, []string{"order_id", "1", "2", "3"}, cols[0])
}

func TestExport_DateCellsKeepDateFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	data := NewDataset("order_id", "order_date").
		Append(1, time.Date(2016, 1, 3, 0, 0, 0, 0, time.UTC))

	exportTo(t, NewReportRequest(path).AddSheet("Orders", data))

	f := openWorkbook(t, path)
	value, err := f.GetCellValue("Orders", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2016-01-03", value)
}
