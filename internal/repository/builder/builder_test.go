package builder

import (
	"strings"
	"testing"
	"time"
)

func TestSQLBuilder(t *testing.T) {
	t.Run("Select", func(t *testing.T) {
		b := NewSQLBuilder()
		query, args := b.Select("customer_id", "first_name").From("sales.customers").Where("customer_id = ?", 1).Build()
		expected := "SELECT customer_id, first_name FROM sales.customers WHERE customer_id = $1"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
		if len(args) != 1 || args[0] != 1 {
			t.Errorf("expected args [1], got %v", args)
		}
	})

	t.Run("Select star by default", func(t *testing.T) {
		query, args := NewSQLBuilder().From("sales.customers").Limit(10).Build()
		expected := "SELECT * FROM sales.customers LIMIT 10"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
		if len(args) != 0 {
			t.Errorf("expected no args, got %v", args)
		}
	})

	t.Run("Join GroupBy OrderBy", func(t *testing.T) {
		query, _ := NewSQLBuilder().
			Select("s.store_name", "SUM(oi.quantity) AS qty").
			From("sales.orders o").
			Join("INNER", "sales.order_items oi", "o.order_id = oi.order_id").
			Join("INNER", "sales.stores s", "o.store_id = s.store_id").
			GroupBy("s.store_name").
			OrderBy("qty DESC").
			Build()

		expected := "SELECT s.store_name, SUM(oi.quantity) AS qty FROM sales.orders o " +
			"INNER JOIN sales.order_items oi ON o.order_id = oi.order_id " +
			"INNER JOIN sales.stores s ON o.store_id = s.store_id " +
			"GROUP BY s.store_name ORDER BY qty DESC"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
	})

	t.Run("Where conditions joined with AND", func(t *testing.T) {
		from := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2017, 12, 31, 0, 0, 0, 0, time.UTC)
		query, args := NewSQLBuilder().
			Select("o.order_id").
			From("sales.orders o").
			Where("o.order_date >= ?", from).
			Where("o.order_date <= ?", to).
			OrderBy("o.order_id").
			Build()

		expected := "SELECT o.order_id FROM sales.orders o WHERE o.order_date >= $1 AND o.order_date <= $2 ORDER BY o.order_id"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
		if len(args) != 2 || args[0] != from || args[1] != to {
			t.Errorf("expected args in placeholder order, got %v", args)
		}
	})

	t.Run("Multiple markers in one condition", func(t *testing.T) {
		query, args := NewSQLBuilder().
			From("production.products").
			Where("list_price BETWEEN ? AND ?", 100, 500).
			Where("model_year = ?", 2018).
			Build()

		expected := "SELECT * FROM production.products WHERE list_price BETWEEN $1 AND $2 AND model_year = $3"
		if query != expected {
			t.Errorf("expected %s, got %s", expected, query)
		}
		if len(args) != 3 || args[0] != 100 || args[1] != 500 || args[2] != 2018 {
			t.Errorf("expected args [100 500 2018], got %v", args)
		}
	})

	t.Run("Build is repeatable", func(t *testing.T) {
		b := NewSQLBuilder().
			From("sales.orders").
			Where("store_id = ?", 1).
			Where("order_status = ?", 3)

		q1, a1 := b.Build()
		q2, a2 := b.Build()
		if q1 != q2 {
			t.Errorf("expected identical queries, got %s and %s", q1, q2)
		}
		if len(a1) != 2 || len(a2) != 2 {
			t.Errorf("expected 2 args on both builds, got %v and %v", a1, a2)
		}
	})
}

func TestSQLBuilderBuildSafe(t *testing.T) {
	t.Run("valid query", func(t *testing.T) {
		sql, args, err := NewSQLBuilder().Select("*").
			From("sales.orders").
			Where("order_id = ?", 1001).
			Where("store_id = ?", 1).
			BuildSafe()

		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if len(args) != 2 {
			t.Errorf("expected 2 args, got %d", len(args))
		}
		if !strings.Contains(sql, "$1") || !strings.Contains(sql, "$2") {
			t.Errorf("expected placeholders $1 and $2 in %s", sql)
		}
	})

	t.Run("argument mismatch", func(t *testing.T) {
		_, _, err := NewSQLBuilder().
			From("sales.orders").
			Where("order_id = ? AND store_id = ?", 1).
			BuildSafe()
		if err == nil {
			t.Error("expected placeholder mismatch error")
		}
	})

	t.Run("missing table", func(t *testing.T) {
		if _, _, err := NewSQLBuilder().Select("1").BuildSafe(); err == nil {
			t.Error("expected missing table error")
		}
	})
}
