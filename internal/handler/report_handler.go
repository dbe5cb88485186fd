package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/bikestore_reports/internal/domain"
	"github.com/locvowork/bikestore_reports/internal/logger"
	"github.com/locvowork/bikestore_reports/internal/service/serviceutils"
	"github.com/locvowork/bikestore_reports/pkg/xlsxreport"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	workbookFilename = "report.xlsx"
	defaultRunsSize  = 20
	maxRunsSize      = 100
)

// ReportRunner is the part of the report service the HTTP layer uses.
type ReportRunner interface {
	Run(ctx context.Context, opts domain.RunOptions) (*domain.ReportRun, error)
	WriteWorkbook(ctx context.Context, w io.Writer, rng domain.DateRange) (*xlsxreport.ExportResult, error)
	ChartPath(name string) (string, error)
	RecentRuns(ctx context.Context, size int) ([]domain.ReportRun, error)
	RunByID(ctx context.Context, id string) (*domain.ReportRun, error)
}

type ReportHandler struct {
	svc ReportRunner
}

func NewReportHandler(svc ReportRunner) *ReportHandler {
	return &ReportHandler{svc: svc}
}

func (h *ReportHandler) HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// RunHandler runs a report batch. An empty body produces every artifact.
func (h *ReportHandler) RunHandler(c echo.Context) error {
	var opts domain.RunOptions
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&opts); err != nil {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid request body", err)
		}
	}
	if err := opts.Validate(); err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid run options", err)
	}

	run, err := h.svc.Run(c.Request().Context(), opts)
	if err != nil {
		return c.JSON(statusOf(err), serviceutils.Response{
			Message: "Report run failed",
			Data:    run,
			Error:   err.Error(),
		})
	}

	return serviceutils.ResponseSuccess(c, http.StatusOK, "Report run finished", run)
}

// WorkbookHandler streams a freshly built workbook as an attachment. Optional
// from and to query parameters (yyyy-mm-dd) bound the order dates.
func (h *ReportHandler) WorkbookHandler(c echo.Context) error {
	ctx := c.Request().Context()

	rng, err := domain.RunOptions{From: c.QueryParam("from"), To: c.QueryParam("to")}.Range()
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid date range", err)
	}

	// Buffered so a build failure is still answered with JSON.
	var buf bytes.Buffer
	result, err := h.svc.WriteWorkbook(ctx, &buf, rng)
	if err != nil {
		return serviceutils.ResponseError(c, statusOf(err), "Failed to generate Excel file", err)
	}
	logger.InfoLog(ctx, "Streaming workbook: %d sheets, %d rows, %d bytes", result.Sheets, result.Rows, buf.Len())

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", workbookFilename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ChartHandler serves a chart rendered by a previous run.
func (h *ReportHandler) ChartHandler(c echo.Context) error {
	path, err := h.svc.ChartPath(c.Param("name"))
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusNotFound, "Chart not found", err)
	}
	return c.File(path)
}

func (h *ReportHandler) RunsHandler(c echo.Context) error {
	size := defaultRunsSize
	if raw := c.QueryParam("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid size", fmt.Errorf("size must be a positive integer, got %q", raw))
		}
		size = n
	}
	if size > maxRunsSize {
		size = maxRunsSize
	}

	runs, err := h.svc.RecentRuns(c.Request().Context(), size)
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to list report runs", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Report runs listed successfully", runs)
}

func (h *ReportHandler) RunByIDHandler(c echo.Context) error {
	run, err := h.svc.RunByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, domain.ErrRunNotFound) {
		return serviceutils.ResponseError(c, http.StatusNotFound, "Report run not found", err)
	}
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to get report run", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "Report run retrieved successfully", run)
}

// statusOf maps exporter errors to HTTP statuses.
func statusOf(err error) int {
	var schemaErr *xlsxreport.SchemaError
	switch {
	case errors.Is(err, xlsxreport.ErrEmptyRequest), errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
