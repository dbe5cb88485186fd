package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when the run history has no run with the requested ID.
var ErrRunNotFound = errors.New("report run not found")

// ==================== REPORT RUNS ====================

// RunStatus is the outcome of a report run
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Artifact groups a run can produce
const (
	ArtifactCSV      = "csv"
	ArtifactCharts   = "charts"
	ArtifactWorkbook = "workbook"
)

// AllArtifacts lists every artifact group in production order.
var AllArtifacts = []string{ArtifactCSV, ArtifactCharts, ArtifactWorkbook}

// RunOptions selects what a report run produces
type RunOptions struct {
	// Artifacts restricts the run to the named groups; empty means all.
	Artifacts []string `json:"artifacts"`
	// From and To bound order dates, inclusive, as yyyy-mm-dd. Empty is open.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// DateLayout is the format of RunOptions.From and RunOptions.To.
const DateLayout = "2006-01-02"

// DateRange restricts order-based queries to order dates in [From, To].
// A zero bound leaves that side open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the range has no bound at all.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Range parses the From and To bounds.
func (o RunOptions) Range() (DateRange, error) {
	var r DateRange
	var err error
	if o.From != "" {
		if r.From, err = time.Parse(DateLayout, o.From); err != nil {
			return DateRange{}, fmt.Errorf("invalid from date %q: %w", o.From, err)
		}
	}
	if o.To != "" {
		if r.To, err = time.Parse(DateLayout, o.To); err != nil {
			return DateRange{}, fmt.Errorf("invalid to date %q: %w", o.To, err)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return DateRange{}, fmt.Errorf("to date %s is before from date %s", o.To, o.From)
	}
	return r, nil
}

// Wants reports whether the artifact group is part of the run.
func (o RunOptions) Wants(artifact string) bool {
	if len(o.Artifacts) == 0 {
		return true
	}
	for _, a := range o.Artifacts {
		if a == artifact {
			return true
		}
	}
	return false
}

// ReportRun summarizes one batch run, as logged and stored in the run history
type ReportRun struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`

	WorkbookPath string   `json:"workbook_path,omitempty"`
	Sheets       int      `json:"sheets"`
	Rows         int      `json:"rows"`
	CSVFiles     []string `json:"csv_files,omitempty"`
	Charts       []string `json:"charts,omitempty"`

	// Order revenue figures of the OrdersReport sheet
	RevenueTotal  float64 `json:"revenue_total"`
	RevenueMean   float64 `json:"revenue_mean"`
	RevenueMedian float64 `json:"revenue_median"`
}

// Validate rejects unknown artifact groups and malformed date bounds.
func (o RunOptions) Validate() error {
	for _, a := range o.Artifacts {
		switch a {
		case ArtifactCSV, ArtifactCharts, ArtifactWorkbook:
		default:
			return fmt.Errorf("unknown artifact %q", a)
		}
	}
	_, err := o.Range()
	return err
}
