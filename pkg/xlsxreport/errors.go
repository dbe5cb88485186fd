package xlsxreport

import (
	"errors"
	"fmt"
)

// ErrEmptyRequest is returned when a request carries no sheets.
var ErrEmptyRequest = errors.New("report request has no sheets")

// SchemaError reports a malformed sheet: bad sheet name, empty or duplicate column.
type SchemaError struct {
	Sheet  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("sheet '%s' column '%s': %s", e.Sheet, e.Column, e.Reason)
	}
	return fmt.Sprintf("sheet '%s': %s", e.Sheet, e.Reason)
}

// IOError reports a failure to persist the workbook at its destination.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
