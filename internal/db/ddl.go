package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Kind is a portable column type.
type Kind int

// Column kinds.
const (
	Integer Kind = iota
	Text
)

// Dialect selects the SQL type names for a backend.
type Dialect string

// Supported dialects.
const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Column is one column of a Table.
type Column struct {
	Name string
	Kind Kind
}

// Table describes a loader target table.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// WithIndex returns a copy of t with a leading integer "index" column.
func (t Table) WithIndex() Table {
	cols := make([]Column, 0, len(t.Columns)+1)
	cols = append(cols, Column{Name: "index", Kind: Integer})
	cols = append(cols, t.Columns...)
	return Table{Name: t.Name, Columns: cols}
}

// CreateSQL renders CREATE TABLE for the dialect.
func (t Table) CreateSQL(d Dialect) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + d.typeName(c.Kind)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", sanitizeTable(t.Name), strings.Join(defs, ", "))
}

// DropSQL renders DROP TABLE IF EXISTS.
func (t Table) DropSQL() string {
	return "DROP TABLE IF EXISTS " + sanitizeTable(t.Name)
}

// InsertSQL renders a multi-row INSERT with rows groups of positional
// placeholders in the dialect's style.
func (t Table) InsertSQL(d Dialect, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", sanitizeTable(t.Name), quoteAndJoin(t.ColumnNames()))
	n := 1
	for r := range rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range t.Columns {
			if c > 0 {
				b.WriteString(", ")
			}
			if d == Postgres {
				fmt.Fprintf(&b, "$%d", n)
			} else {
				b.WriteByte('?')
			}
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Postgres integers are BIGINT so TIGER/Line ids never overflow.
func (d Dialect) typeName(k Kind) string {
	switch {
	case k == Integer && d == Postgres:
		return "BIGINT"
	case k == Integer:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// Sanitize quotes a possibly schema-qualified table name.
func Sanitize(table string) string {
	return sanitizeTable(table)
}

// sanitizeTable handles schema-qualified table names like "public.addresses".
func sanitizeTable(table string) string {
	if schema, name, ok := splitTable(table); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func splitTable(table string) (string, string, bool) {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1], true
	}
	return "", "", false
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
