package xlsxreport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// maxSheetNameLength is the longest sheet name Excel accepts.
const maxSheetNameLength = 31

// Exporter writes a ReportRequest to a formatted workbook.
type Exporter struct {
	config *ExportConfig
}

// NewExporter creates an exporter with the built-in rule set and the given options applied.
func NewExporter(opts ...ExportOption) (*Exporter, error) {
	cfg := &ExportConfig{
		Rules:          DefaultRules(),
		HeaderStyle:    DefaultHeaderStyle(),
		DateFormat:     "yyyy-mm-dd",
		AutoFitColumns: true,
		MaxColumnWidth: 50,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying export option: %w", err)
		}
	}
	return &Exporter{config: cfg}, nil
}

// Rules returns the formatting rules this exporter applies.
func (e *Exporter) Rules() []FormattingRule {
	out := make([]FormattingRule, len(e.config.Rules))
	copy(out, e.config.Rules)
	return out
}

// Export builds the workbook and atomically replaces the file at req.Path.
// Nothing is created at the destination when validation or writing fails.
func (e *Exporter) Export(ctx context.Context, req *ReportRequest) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	if req.Path == "" {
		return nil, &IOError{Path: req.Path, Op: "open", Err: fmt.Errorf("destination path is empty")}
	}

	f, result, err := e.Build(req)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := saveAtomic(f, req.Path); err != nil {
		return nil, err
	}

	result.Path = req.Path
	return result, nil
}

// Write builds the workbook and streams it to w. req.Path is ignored.
func (e *Exporter) Write(ctx context.Context, w io.Writer, req *ReportRequest) (*ExportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, result, err := e.Build(req)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return nil, fmt.Errorf("writing Excel file: %w", err)
	}
	return result, nil
}

// Build validates the request and returns the populated, formatted workbook.
// The caller owns the returned file and must close it.
func (e *Exporter) Build(req *ReportRequest) (*excelize.File, *ExportResult, error) {
	if err := Validate(req); err != nil {
		return nil, nil, err
	}

	f := excelize.NewFile()
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	headerStyle, err := newStyle(f, e.config.HeaderStyle)
	if err != nil {
		return nil, nil, fmt.Errorf("creating header style: %w", err)
	}
	dateStyle, err := newStyle(f, DateStyle(e.config.DateFormat))
	if err != nil {
		return nil, nil, fmt.Errorf("creating date style: %w", err)
	}

	result := &ExportResult{Sheets: len(req.Sheets)}
	written := make([]int, len(req.Sheets))

	// Data pass
	for i, sheet := range req.Sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return nil, nil, fmt.Errorf("renaming sheet %s: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, nil, fmt.Errorf("creating sheet %s: %w", sheet.Name, err)
		}

		rules := rulesForSheet(e.config.Rules, sheet.Name)
		n, err := e.writeSheet(f, sheet.Name, sheet.Data, sortedRows(sheet.Data, rules), headerStyle, dateStyle)
		if err != nil {
			return nil, nil, fmt.Errorf("exporting sheet %s: %w", sheet.Name, err)
		}
		written[i] = n
		result.Rows += n
	}

	// Formatting pass
	for i, sheet := range req.Sheets {
		rules := rulesForSheet(e.config.Rules, sheet.Name)
		if err := e.formatSheet(f, sheet.Name, sheet.Data.Columns, written[i], rules); err != nil {
			return nil, nil, fmt.Errorf("formatting sheet %s: %w", sheet.Name, err)
		}
	}

	f.SetActiveSheet(0)
	ok = true
	return f, result, nil
}

// Validate checks a request without writing anything.
func Validate(req *ReportRequest) error {
	if req == nil || len(req.Sheets) == 0 {
		return ErrEmptyRequest
	}

	sheetNames := make(map[string]bool, len(req.Sheets))
	for _, sheet := range req.Sheets {
		if err := validateSheetName(sheet.Name); err != nil {
			return err
		}
		key := strings.ToLower(sheet.Name)
		if sheetNames[key] {
			return &SchemaError{Sheet: sheet.Name, Reason: "duplicate sheet name"}
		}
		sheetNames[key] = true

		if sheet.Data == nil {
			return &SchemaError{Sheet: sheet.Name, Reason: "dataset is nil"}
		}

		colNames := make(map[string]bool, len(sheet.Data.Columns))
		for _, col := range sheet.Data.Columns {
			if strings.TrimSpace(col) == "" {
				return &SchemaError{Sheet: sheet.Name, Column: col, Reason: "empty column name"}
			}
			if colNames[col] {
				return &SchemaError{Sheet: sheet.Name, Column: col, Reason: "duplicate column name"}
			}
			colNames[col] = true
		}

		if len(sheet.Data.Columns) == 0 && len(sheet.Data.Rows) > 0 {
			return &SchemaError{Sheet: sheet.Name, Reason: "dataset has rows but no columns"}
		}
		for i, row := range sheet.Data.Rows {
			for key := range row {
				if !colNames[key] {
					return &SchemaError{Sheet: sheet.Name, Column: key, Reason: fmt.Sprintf("row %d has a value outside the column set", i)}
				}
			}
		}
	}
	return nil
}

func validateSheetName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &SchemaError{Sheet: name, Reason: "sheet name is empty"}
	case len([]rune(name)) > maxSheetNameLength:
		return &SchemaError{Sheet: name, Reason: fmt.Sprintf("sheet name longer than %d characters", maxSheetNameLength)}
	case strings.ContainsAny(name, `:\/?*[]`):
		return &SchemaError{Sheet: name, Reason: "sheet name contains one of : \\ / ? * [ ]"}
	case strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'"):
		return &SchemaError{Sheet: name, Reason: "sheet name starts or ends with an apostrophe"}
	}
	return nil
}

// writeSheet writes the header and the given rows, returning the data row count.
func (e *Exporter) writeSheet(f *excelize.File, sheetName string, data *Dataset, rows []Row, headerStyle, dateStyle int) (int, error) {
	columns := data.Columns
	if len(columns) == 0 {
		return 0, nil
	}

	header := make([]interface{}, len(columns))
	widths := make([]float64, len(columns))
	for i, col := range columns {
		header[i] = col
		widths[i] = float64(len(col))
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return 0, fmt.Errorf("setting header row: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return 0, err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return 0, fmt.Errorf("setting header style: %w", err)
	}

	for rowIdx, row := range rows {
		rowNum := rowIdx + 2
		values := make([]interface{}, len(columns))
		for colIdx, col := range columns {
			values[colIdx] = formatValue(row[col])

			if e.config.AutoFitColumns {
				if l := float64(len(displayText(values[colIdx]))); l > widths[colIdx] {
					widths[colIdx] = l
				}
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return 0, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return 0, fmt.Errorf("setting row %d: %w", rowNum, err)
		}

		for colIdx, v := range values {
			if _, isTime := v.(time.Time); !isTime {
				continue
			}
			dateCell, _ := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			if err := f.SetCellStyle(sheetName, dateCell, dateCell, dateStyle); err != nil {
				return 0, fmt.Errorf("setting date style: %w", err)
			}
		}
	}

	if e.config.AutoFitColumns {
		for i, width := range widths {
			colName, _ := excelize.ColumnNumberToName(i + 1)
			adjusted := width * 1.2
			if adjusted < 10 {
				adjusted = 10
			}
			if adjusted > float64(e.config.MaxColumnWidth) {
				adjusted = float64(e.config.MaxColumnWidth)
			}
			if err := f.SetColWidth(sheetName, colName, colName, adjusted); err != nil {
				return 0, fmt.Errorf("setting column width: %w", err)
			}
		}
	}

	return len(rows), nil
}

// formatSheet freezes the header row and first column, enables the autofilter
// over the written range and applies the color scales of matching rules.
func (e *Exporter) formatSheet(f *excelize.File, sheetName string, columns []string, dataRows int, rules []FormattingRule) error {
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
		Selection: []excelize.Selection{
			{SQRef: "B2", ActiveCell: "B2", Pane: "bottomRight"},
		},
	}); err != nil {
		return fmt.Errorf("setting freeze panes: %w", err)
	}

	if len(columns) == 0 {
		return nil
	}

	lastRow := dataRows + 1
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	if err := f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, lastRow), []excelize.AutoFilterOptions{}); err != nil {
		return fmt.Errorf("setting auto filter: %w", err)
	}

	if dataRows == 0 {
		return nil
	}

	for _, rule := range rules {
		if rule.ColorScale == nil {
			continue
		}
		colIdx := indexOf(columns, rule.Column)
		if colIdx < 0 {
			continue
		}
		colName, err := excelize.ColumnNumberToName(colIdx + 1)
		if err != nil {
			return err
		}
		if err := applyColorScale(f, sheetName, fmt.Sprintf("%s2:%s%d", colName, colName, lastRow), rule.ColorScale); err != nil {
			return fmt.Errorf("applying color scale to %s: %w", rule.Column, err)
		}
	}

	return nil
}

func applyColorScale(f *excelize.File, sheetName, rangeRef string, scale *ColorScale) error {
	minColor, err := normalizeHex(scale.MinColor)
	if err != nil {
		return err
	}
	maxColor, err := normalizeHex(scale.MaxColor)
	if err != nil {
		return err
	}
	midColor, err := scale.Mid()
	if err != nil {
		return err
	}

	return f.SetConditionalFormat(sheetName, rangeRef, []excelize.ConditionalFormatOptions{
		{
			Type:     "3_color_scale",
			Criteria: "=",
			MinType:  "min",
			MidType:  "percent",
			MidValue: "50",
			MaxType:  "max",
			MinColor: minColor,
			MidColor: midColor,
			MaxColor: maxColor,
		},
	})
}

// formatValue converts a dataset value into something excelize can store.
func formatValue(value interface{}) interface{} {
	if value == nil {
		return nil
	}

	// Handle byte arrays (common for strings in PostgreSQL)
	if b, ok := value.([]byte); ok {
		return string(b)
	}

	if t, ok := value.(time.Time); ok {
		return t
	}

	val := reflect.ValueOf(value)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		return formatValue(val.Elem().Interface())
	}

	return value
}

// displayText renders a cell value the way it reads in the sheet.
func displayText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

func indexOf(columns []string, name string) int {
	for i, col := range columns {
		if col == name {
			return i
		}
	}
	return -1
}

// saveAtomic writes the workbook next to path and renames it into place.
func saveAtomic(f *excelize.File, path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOError{Path: path, Op: "create", Err: err}
	}
	tmpName := tmp.Name()

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &IOError{Path: path, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &IOError{Path: path, Op: "close", Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return &IOError{Path: path, Op: "chmod", Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &IOError{Path: path, Op: "rename", Err: err}
	}
	return nil
}
