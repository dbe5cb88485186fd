package xlsxreport

import "fmt"

// Row is a single record keyed by column name.
type Row map[string]interface{}

// Dataset is an ordered set of rows sharing one column set.
// Columns fixes the column order used for the header and every data row.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset creates a dataset with the given column order.
func NewDataset(columns ...string) *Dataset {
	return &Dataset{Columns: columns}
}

// Append adds a row built from values in column order.
// Missing trailing values are left empty.
func (d *Dataset) Append(values ...interface{}) *Dataset {
	row := make(Row, len(d.Columns))
	for i, col := range d.Columns {
		if i < len(values) {
			row[col] = values[i]
		}
	}
	d.Rows = append(d.Rows, row)
	return d
}

// HasColumn reports whether the dataset declares the column.
func (d *Dataset) HasColumn(name string) bool {
	return indexOf(d.Columns, name) >= 0
}

// Len returns the number of data rows
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Values returns the column's values in row order.
func (d *Dataset) Values(column string) []interface{} {
	out := make([]interface{}, 0, len(d.Rows))
	for _, r := range d.Rows {
		out = append(out, r[column])
	}
	return out
}

// Floats returns the column's values as numbers. A missing column or a
// non-numeric value is an error.
func (d *Dataset) Floats(column string) ([]float64, error) {
	if !d.HasColumn(column) {
		return nil, fmt.Errorf("dataset has no column %q", column)
	}
	out := make([]float64, 0, len(d.Rows))
	for i, r := range d.Rows {
		f, ok := toFloat64(r[column])
		if !ok {
			return nil, fmt.Errorf("row %d: %s value %v is not numeric", i, column, r[column])
		}
		out = append(out, f)
	}
	return out, nil
}

// Strings returns the column's values as text; dates render as yyyy-mm-dd.
func (d *Dataset) Strings(column string) ([]string, error) {
	if !d.HasColumn(column) {
		return nil, fmt.Errorf("dataset has no column %q", column)
	}
	out := make([]string, 0, len(d.Rows))
	for _, r := range d.Rows {
		out = append(out, displayText(formatValue(r[column])))
	}
	return out, nil
}

// Sheet pairs a sheet name with the dataset written to it.
type Sheet struct {
	Name string
	Data *Dataset
}

// ReportRequest describes one workbook: its destination and its sheets in order.
type ReportRequest struct {
	Path   string
	Sheets []Sheet
}

// NewReportRequest creates an empty request for the given destination path.
func NewReportRequest(path string) *ReportRequest {
	return &ReportRequest{Path: path}
}

// AddSheet appends a sheet. Sheet order in the workbook follows call order.
func (r *ReportRequest) AddSheet(name string, data *Dataset) *ReportRequest {
	r.Sheets = append(r.Sheets, Sheet{Name: name, Data: data})
	return r
}

// ExportResult summarizes a written workbook.
type ExportResult struct {
	Path   string `json:"path"`
	Sheets int    `json:"sheets"`
	// Rows counts data rows across all sheets, header rows excluded.
	Rows int `json:"rows"`
}

// ExportConfig holds exporter-wide settings
type ExportConfig struct {
	Rules []FormattingRule

	HeaderStyle    *CellStyle
	DateFormat     string
	AutoFitColumns bool
	MaxColumnWidth int
}

// ExportOption is a functional option for the exporter
type ExportOption func(*ExportConfig) error
