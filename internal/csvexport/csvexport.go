package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/locvowork/bikestore_reports/pkg/xlsxreport"
)

// Writer dumps datasets as CSV files into one directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Path returns the file a dump with the given name is written to.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name+".csv")
}

// WriteFile writes ds to <dir>/<name>.csv and returns the path.
func (w *Writer) WriteFile(name string, ds *xlsxreport.Dataset) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating csv directory: %w", err)
	}

	path := w.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating csv file: %w", err)
	}

	if err := Write(f, ds); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// Write encodes ds as CSV: a header row, then one record per data row.
func Write(out io.Writer, ds *xlsxreport.Dataset) error {
	if ds == nil {
		return fmt.Errorf("dataset is nil")
	}

	columns := make([][]string, len(ds.Columns))
	for i, col := range ds.Columns {
		values, err := ds.Strings(col)
		if err != nil {
			return err
		}
		columns[i] = values
	}

	w := csv.NewWriter(out)
	if err := w.Write(ds.Columns); err != nil {
		return err
	}
	record := make([]string, len(ds.Columns))
	for row := 0; row < ds.Len(); row++ {
		for i := range columns {
			record[i] = columns[i][row]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
