package builder

import (
	"fmt"
	"strings"
)

// SQLBuilder helps construct read-only SELECT queries for PostgreSQL.
// Conditions are written with "?" markers which Build renumbers to $1..$n.
type SQLBuilder struct {
	table   string
	columns []string
	joins   []string
	where   []condition
	groupBy []string
	orderBy []string
	limit   int
}

// condition is a SQL fragment with its positional arguments.
type condition struct {
	sql  string
	args []interface{}
}

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.columns = cols
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Join adds a JOIN clause.
func (b *SQLBuilder) Join(joinType, table, on string) *SQLBuilder {
	b.joins = append(b.joins, fmt.Sprintf("%s JOIN %s ON %s", joinType, table, on))
	return b
}

// Where adds a condition to the query. Where conditions are combined with AND.
func (b *SQLBuilder) Where(cond string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition{sql: cond, args: args})
	return b
}

// GroupBy adds GROUP BY expressions.
func (b *SQLBuilder) GroupBy(exprs ...string) *SQLBuilder {
	b.groupBy = append(b.groupBy, exprs...)
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Limit adds a LIMIT clause.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// BuildSafe constructs the final SQL string and arguments with safety validation.
// Returns an error if a condition's "?" markers don't match its arguments.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("no table given")
	}
	for _, c := range b.where {
		if n := strings.Count(c.sql, "?"); n != len(c.args) {
			return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d) in %q", n, len(c.args), c.sql)
		}
	}
	sql, args := b.Build()
	return sql, args, nil
}

// Build constructs the final SQL string and arguments. It does not modify the
// builder, so calling it twice yields the same result.
func (b *SQLBuilder) Build() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}
	argIndex := 1

	cols := "*"
	if len(b.columns) > 0 {
		cols = strings.Join(b.columns, ", ")
	}
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	for _, join := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}

	if len(b.where) > 0 {
		parts := make([]string, len(b.where))
		for i, c := range b.where {
			parts[i] = bind(c, &args, &argIndex)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}

	return sb.String(), args
}

// bind replaces each "?" in c with the next $n and collects its arguments.
func bind(c condition, args *[]interface{}, argIndex *int) string {
	var sb strings.Builder
	parts := strings.Split(c.sql, "?")
	for i, part := range parts {
		sb.WriteString(part)
		if i < len(parts)-1 {
			sb.WriteString(fmt.Sprintf("$%d", *argIndex))
			*argIndex++
		}
	}
	*args = append(*args, c.args...)
	return sb.String()
}
