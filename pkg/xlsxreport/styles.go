package xlsxreport

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellStyle defines styling for cells
type CellStyle struct {
	FontName  string
	FontSize  float64
	FontBold  bool
	FontColor string

	FillColor string

	Alignment     string // "left", "center", "right"
	VerticalAlign string // "top", "middle", "bottom"

	BorderColor  string
	NumberFormat string
}

// StyleBuilder provides a fluent API for building cell styles
type StyleBuilder struct {
	style *CellStyle
}

// NewStyleBuilder creates a new style builder with default values
func NewStyleBuilder() *StyleBuilder {
	return &StyleBuilder{
		style: &CellStyle{
			FontName:      "Arial",
			FontSize:      10,
			VerticalAlign: "center",
		},
	}
}

// Font sets the font properties
func (b *StyleBuilder) Font(name string, size float64) *StyleBuilder {
	b.style.FontName = name
	b.style.FontSize = size
	return b
}

// Bold sets the font to bold
func (b *StyleBuilder) Bold() *StyleBuilder {
	b.style.FontBold = true
	return b
}

// FontColor sets the font color (hex format)
func (b *StyleBuilder) FontColor(color string) *StyleBuilder {
	b.style.FontColor = color
	return b
}

// Fill sets a solid background color
func (b *StyleBuilder) Fill(color string) *StyleBuilder {
	b.style.FillColor = color
	return b
}

// Align sets the horizontal alignment
func (b *StyleBuilder) Align(alignment string) *StyleBuilder {
	b.style.Alignment = alignment
	return b
}

// Border draws a thin border in the given color
func (b *StyleBuilder) Border(color string) *StyleBuilder {
	b.style.BorderColor = color
	return b
}

// NumberFormat sets a custom number format
func (b *StyleBuilder) NumberFormat(format string) *StyleBuilder {
	b.style.NumberFormat = format
	return b
}

// Build returns the built style
func (b *StyleBuilder) Build() *CellStyle {
	return b.style
}

// DefaultHeaderFill is the background of the header row.
const DefaultHeaderFill = "#4472C4"

// DefaultHeaderStyle returns the blue header style
func DefaultHeaderStyle() *CellStyle {
	return HeaderStyle(DefaultHeaderFill)
}

// HeaderStyle returns a bold white-on-fill header style with a thin border.
func HeaderStyle(fill string) *CellStyle {
	return NewStyleBuilder().
		Font("Arial", 11).
		Bold().
		FontColor("#FFFFFF").
		Fill(fill).
		Border(fill).
		Align("center").
		Build()
}

// DateStyle returns a style for date cells
func DateStyle(format string) *CellStyle {
	return NewStyleBuilder().
		NumberFormat(format).
		Align("center").
		Build()
}

// newStyle registers a CellStyle with the workbook and returns its ID.
func newStyle(f *excelize.File, style *CellStyle) (int, error) {
	if style == nil {
		return 0, nil
	}

	excelStyle := &excelize.Style{
		Font: &excelize.Font{
			Bold:   style.FontBold,
			Size:   style.FontSize,
			Family: style.FontName,
		},
		Alignment: &excelize.Alignment{
			Horizontal: style.Alignment,
			Vertical:   style.VerticalAlign,
		},
	}

	if style.FontColor != "" {
		excelStyle.Font.Color = strings.TrimPrefix(style.FontColor, "#")
	}

	if style.FillColor != "" {
		excelStyle.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{strings.TrimPrefix(style.FillColor, "#")},
		}
	}

	if style.BorderColor != "" {
		color := strings.TrimPrefix(style.BorderColor, "#")
		excelStyle.Border = []excelize.Border{
			{Type: "left", Color: color, Style: 1},
			{Type: "top", Color: color, Style: 1},
			{Type: "bottom", Color: color, Style: 1},
			{Type: "right", Color: color, Style: 1},
		}
	}

	if style.NumberFormat != "" {
		format := style.NumberFormat
		excelStyle.CustomNumFmt = &format
	}

	return f.NewStyle(excelStyle)
}
