package xlsxreport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.Len(t, rules, 1)

	r := rules[0]
	assert.Equal(t, "OrdersReport", r.Sheet)
	assert.Equal(t, "order_revenue", r.Column)
	assert.Equal(t, SortAscending, r.Sort)
	require.NotNil(t, r.ColorScale)
	assert.Equal(t, "#FFCCCC", r.ColorScale.MinColor)
	assert.Equal(t, "#00FF00", r.ColorScale.MaxColor)
	assert.NoError(t, ValidateRules(rules))
}

func TestSortedRows_DoesNotReorderInput(t *testing.T) {
	data := NewDataset("order_id", "order_revenue").
		Append(1, 500).
		Append(2, 100).
		Append(3, 300)

	out := sortedRows(data, DefaultRules())

	ids := make([]interface{}, 0, len(out))
	for _, r := range out {
		ids = append(ids, r["order_id"])
	}
	assert.Equal(t, []interface{}{2, 3, 1}, ids)
	assert.Equal(t, []interface{}{1, 2, 3}, data.Values("order_id"))
}

func TestSortedRows_NoMatchingRuleKeepsOrder(t *testing.T) {
	data := NewDataset("product_name", "quantity").
		Append("A", 5).
		Append("B", 2)

	out := sortedRows(data, rulesForSheet(DefaultRules(), "ProductsStock"))
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0]["product_name"])
	assert.Equal(t, "B", out[1]["product_name"])
}

func TestSortRowsByColumn(t *testing.T) {
	rows := []Row{
		{"id": 1, "v": int64(30)},
		{"id": 2, "v": "n/a"},
		{"id": 3, "v": float32(10)},
		{"id": 4, "v": []byte(" 30 ")},
		{"id": 5, "v": nil},
		{"id": 6, "v": uint16(20)},
	}

	t.Run("ascending", func(t *testing.T) {
		out := append([]Row(nil), rows...)
		sortRowsByColumn(out, "v", SortAscending)
		assert.Equal(t, []int{3, 6, 1, 4, 2, 5}, rowIDs(out))
	})

	t.Run("descending", func(t *testing.T) {
		out := append([]Row(nil), rows...)
		sortRowsByColumn(out, "v", SortDescending)
		assert.Equal(t, []int{1, 4, 6, 3, 2, 5}, rowIDs(out))
	})
}

func rowIDs(rows []Row) []int {
	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = r["id"].(int)
	}
	return ids
}

func TestColorScale_Mid(t *testing.T) {
	scale := &ColorScale{MinColor: LowRevenueColor, MaxColor: HighRevenueColor}
	mid, err := scale.Mid()
	require.NoError(t, err)
	assert.Equal(t, "#80E666", mid)

	scale.MidColor = "ffff00"
	mid, err = scale.Mid()
	require.NoError(t, err)
	assert.Equal(t, "#FFFF00", mid)
}

func TestColorScale_Validate(t *testing.T) {
	assert.NoError(t, (&ColorScale{MinColor: "#ffcccc", MaxColor: "00FF00"}).Validate())

	err := (&ColorScale{MinColor: "#FFF", MaxColor: "#00FF00"}).Validate()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "#FFF"))

	assert.Error(t, (&ColorScale{MinColor: "#FFCCCC", MaxColor: "#GG0000"}).Validate())
	assert.Error(t, (&ColorScale{MinColor: "#FFCCCC", MidColor: "red", MaxColor: "#00FF00"}).Validate())
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{42, 42, true},
		{int32(-3), -3, true},
		{uint64(9), 9, true},
		{1.5, 1.5, true},
		{"2.25", 2.25, true},
		{[]byte("1234.50"), 1234.5, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := toFloat64(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9)
		}
	}
}
