package xlsxreport

import "fmt"

// WithRules replaces the formatting rule set
func WithRules(rules ...FormattingRule) ExportOption {
	return func(cfg *ExportConfig) error {
		if err := ValidateRules(rules); err != nil {
			return err
		}
		cfg.Rules = rules
		return nil
	}
}

// WithHeaderStyle sets a custom style for header row
func WithHeaderStyle(style *CellStyle) ExportOption {
	return func(cfg *ExportConfig) error {
		cfg.HeaderStyle = style
		return nil
	}
}

// WithDateFormat sets the number format applied to time.Time cells
func WithDateFormat(format string) ExportOption {
	return func(cfg *ExportConfig) error {
		cfg.DateFormat = format
		return nil
	}
}

// WithAutoFitColumns enables or disables fitting column widths to content
func WithAutoFitColumns(enabled bool) ExportOption {
	return func(cfg *ExportConfig) error {
		cfg.AutoFitColumns = enabled
		return nil
	}
}

// WithMaxColumnWidth sets the maximum column width
func WithMaxColumnWidth(width int) ExportOption {
	return func(cfg *ExportConfig) error {
		if width <= 0 {
			return fmt.Errorf("max column width must be positive, got %d", width)
		}
		cfg.MaxColumnWidth = width
		return nil
	}
}
