package xlsxreport

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// SortDirection controls how a rule orders the rows of its sheet.
type SortDirection string

const (
	SortNone       SortDirection = ""
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Colors of the built-in order revenue scale.
const (
	LowRevenueColor  = "#FFCCCC"
	HighRevenueColor = "#00FF00"
)

// FormattingRule binds a cosmetic treatment to one column of one sheet.
type FormattingRule struct {
	Sheet      string        `yaml:"sheet"`
	Column     string        `yaml:"column"`
	Sort       SortDirection `yaml:"sort,omitempty"`
	ColorScale *ColorScale   `yaml:"color_scale,omitempty"`
}

// ColorScale is a value-driven background gradient from MinColor to MaxColor.
// When MidColor is empty the midpoint is the linear blend of the two ends.
type ColorScale struct {
	MinColor string `yaml:"min_color"`
	MidColor string `yaml:"mid_color,omitempty"`
	MaxColor string `yaml:"max_color"`
}

// DefaultRules returns the built-in rule set: OrdersReport sorted by
// order_revenue ascending with a light red to bright green scale.
func DefaultRules() []FormattingRule {
	return []FormattingRule{
		{
			Sheet:  "OrdersReport",
			Column: "order_revenue",
			Sort:   SortAscending,
			ColorScale: &ColorScale{
				MinColor: LowRevenueColor,
				MaxColor: HighRevenueColor,
			},
		},
	}
}

// rulesForSheet returns the rules targeting a sheet, in declaration order.
func rulesForSheet(rules []FormattingRule, sheet string) []FormattingRule {
	var out []FormattingRule
	for _, r := range rules {
		if r.Sheet == sheet {
			out = append(out, r)
		}
	}
	return out
}

// sortedRows returns the rows to write for a sheet. The first sorting rule whose
// column exists wins; the caller's slice is never reordered.
func sortedRows(data *Dataset, rules []FormattingRule) []Row {
	rows := data.Rows
	for _, rule := range rules {
		if rule.Sort == SortNone || !data.HasColumn(rule.Column) {
			continue
		}
		out := make([]Row, len(rows))
		copy(out, rows)
		sortRowsByColumn(out, rule.Column, rule.Sort)
		return out
	}
	return rows
}

// sortRowsByColumn stable-sorts rows by the numeric value of column.
// Rows without a numeric value keep their relative order after all numeric rows.
func sortRowsByColumn(rows []Row, column string, dir SortDirection) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := toFloat64(rows[i][column])
		b, bok := toFloat64(rows[j][column])
		switch {
		case aok && bok:
			if dir == SortDescending {
				return a > b
			}
			return a < b
		case aok:
			return true
		default:
			return false
		}
	})
}

// toFloat64 converts numeric-looking values. Postgres NUMERIC arrives as []byte.
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Mid returns the explicit midpoint color or the linear blend of both ends.
func (c *ColorScale) Mid() (string, error) {
	if c.MidColor != "" {
		return normalizeHex(c.MidColor)
	}
	return blend(c.MinColor, c.MaxColor, 0.5)
}

// Validate checks that every color is a six digit hex triplet.
func (c *ColorScale) Validate() error {
	for _, col := range []string{c.MinColor, c.MaxColor} {
		if _, err := normalizeHex(col); err != nil {
			return err
		}
	}
	if c.MidColor != "" {
		if _, err := normalizeHex(c.MidColor); err != nil {
			return err
		}
	}
	return nil
}

func blend(from, to string, t float64) (string, error) {
	fr, fg, fb, err := parseHex(from)
	if err != nil {
		return "", err
	}
	tr, tg, tb, err := parseHex(to)
	if err != nil {
		return "", err
	}
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return fmt.Sprintf("#%02X%02X%02X", mix(fr, tr), mix(fg, tg), mix(fb, tb)), nil
}

func normalizeHex(color string) (string, error) {
	r, g, b, err := parseHex(color)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("#%02X%02X%02X", r, g, b), nil
}

func parseHex(color string) (uint8, uint8, uint8, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color '%s': expected #RRGGBB", color)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color '%s': %w", color, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
