package storage

import (
	"errors"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Filter is an equality predicate on a column of the base table
type Filter struct {
	Column string
	Value  any
}

// Order sorts results by a column of the base table
type Order struct {
	Column     string
	Descending bool
}

// Embed pulls columns of a related table into each result row. The base
// table's ForeignKey column references the related table's id, and rows
// without a match are dropped (inner join).
type Embed struct {
	Table      string
	ForeignKey string
	Columns    []string
}

// Query describes a select against a single table. MaxRows <= 0 means no limit.
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Orders  []Order
	Embeds  []Embed
	MaxRows int
}

// From starts a query on table
func From(table string) Query {
	return Query{Table: table}
}

// Select appends columns to the result shape
func (q Query) Select(columns ...string) Query {
	q.Columns = append(slices.Clip(q.Columns), columns...)
	return q
}

// Eq adds an equality filter
func (q Query) Eq(column string, value any) Query {
	q.Filters = append(slices.Clip(q.Filters), Filter{Column: column, Value: value})
	return q
}

// Order adds a sort key
func (q Query) Order(column string, descending bool) Query {
	q.Orders = append(slices.Clip(q.Orders), Order{Column: column, Descending: descending})
	return q
}

// Limit caps the number of rows
func (q Query) Limit(n int) Query {
	q.MaxRows = n
	return q
}

// Embed joins a related table through foreignKey and selects its columns
func (q Query) Embed(table, foreignKey string, columns ...string) Query {
	q.Embeds = append(slices.Clip(q.Embeds), Embed{Table: table, ForeignKey: foreignKey, Columns: columns})
	return q
}

func (q Query) validate() error {
	if q.Table == "" {
		return errors.New("query has no table")
	}
	if len(q.Columns) == 0 {
		return errors.New("query selects no columns")
	}
	for _, e := range q.Embeds {
		if e.Table == "" || e.ForeignKey == "" || len(e.Columns) == 0 {
			return errors.New("embed needs a table, a foreign key and columns")
		}
	}
	return nil
}

// dialect captures the SQL differences between the supported engines
type dialect struct {
	name        string
	placeholder func(n int) string
}

var (
	postgresDialect = dialect{
		name:        "postgres",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
	sqliteDialect = dialect{
		name:        "sqlite",
		placeholder: func(int) string { return "?" },
	}
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualify(table, column string) string {
	return quoteIdent(table) + "." + quoteIdent(column)
}

// selectSQL renders q. Embedded columns are aliased "<table>.<column>" and
// folded back into nested rows by nestEmbedded.
func (d dialect) selectSQL(q Query) (string, []any, error) {
	if err := q.validate(); err != nil {
		return "", nil, err
	}

	cols := make([]string, 0, len(q.Columns))
	for _, c := range q.Columns {
		cols = append(cols, qualify(q.Table, c)+" AS "+quoteIdent(c))
	}
	for _, e := range q.Embeds {
		for _, c := range e.Columns {
			cols = append(cols, qualify(e.Table, c)+" AS "+quoteIdent(e.Table+"."+c))
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(q.Table))

	for _, e := range q.Embeds {
		b.WriteString(" JOIN ")
		b.WriteString(quoteIdent(e.Table))
		b.WriteString(" ON ")
		b.WriteString(qualify(e.Table, "id"))
		b.WriteString(" = ")
		b.WriteString(qualify(q.Table, e.ForeignKey))
	}

	args := make([]any, 0, len(q.Filters)+1)
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(qualify(q.Table, f.Column))
		if f.Value == nil {
			b.WriteString(" IS NULL")
			continue
		}
		args = append(args, f.Value)
		b.WriteString(" = ")
		b.WriteString(d.placeholder(len(args)))
	}

	for i, o := range q.Orders {
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(qualify(q.Table, o.Column))
		if o.Descending {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}

	if q.MaxRows > 0 {
		args = append(args, q.MaxRows)
		b.WriteString(" LIMIT ")
		b.WriteString(d.placeholder(len(args)))
	}

	return b.String(), args, nil
}

// insertSQL renders a single-row insert. Columns are sorted so the statement
// text is stable for a given set of keys.
func (d dialect) insertSQL(table string, values Row, returning []string) (string, []any, error) {
	if table == "" {
		return "", nil, errors.New("insert has no table")
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(table))

	args := make([]any, 0, len(keys))
	if len(keys) == 0 {
		b.WriteString(" DEFAULT VALUES")
	} else {
		cols := make([]string, 0, len(keys))
		marks := make([]string, 0, len(keys))
		for _, k := range keys {
			args = append(args, values[k])
			cols = append(cols, quoteIdent(k))
			marks = append(marks, d.placeholder(len(args)))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(cols, ", "))
		b.WriteString(") VALUES (")
		b.WriteString(strings.Join(marks, ", "))
		b.WriteString(")")
	}

	if len(returning) > 0 {
		cols := make([]string, 0, len(returning))
		for _, c := range returning {
			cols = append(cols, quoteIdent(c))
		}
		b.WriteString(" RETURNING ")
		b.WriteString(strings.Join(cols, ", "))
	}

	return b.String(), args, nil
}

// nestEmbedded moves "<table>.<column>" keys of an embedded table into a
// nested Row stored under the table name.
func nestEmbedded(row Row, embeds []Embed) Row {
	if len(embeds) == 0 {
		return row
	}
	for _, e := range embeds {
		nested := make(Row, len(e.Columns))
		for _, c := range e.Columns {
			key := e.Table + "." + c
			if v, ok := row[key]; ok {
				nested[c] = v
				delete(row, key)
			}
		}
		row[e.Table] = nested
	}
	return row
}
