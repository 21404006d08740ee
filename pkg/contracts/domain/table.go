package domain

import (
	"fmt"
)

// Table is an ordered set of uniquely named columns of equal length.
// Tables are never mutated in place; the With/Without helpers return new
// tables that share the untouched columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from columns, enforcing unique names and equal length
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if i == 0 {
			t.rows = col.Len()
		}
		if err := t.add(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustTable is like NewTable but panics on error. Intended for fixtures.
func MustTable(columns ...*Column) *Table {
	t, err := NewTable(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) add(col *Column) error {
	if _, exists := t.index[col.Name()]; exists {
		return fmt.Errorf("duplicate column %q", col.Name())
	}
	if col.Len() != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d", col.Name(), col.Len(), t.rows)
	}
	t.index[col.Name()] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// NumRows returns the row count
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count
func (t *Table) NumColumns() int { return len(t.columns) }

// Columns returns the columns in order
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name()
	}
	return names
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Has reports whether a column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// WithColumns returns a new table with cols appended after the existing ones.
// Every appended column must have a new name and the table's row count.
func (t *Table) WithColumns(cols ...*Column) (*Table, error) {
	out := t.clone()
	for _, col := range cols {
		if col == nil {
			return nil, fmt.Errorf("cannot append nil column")
		}
		if err := out.add(col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Without returns a new table with the named columns removed.
// Names that do not exist are ignored.
func (t *Table) Without(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &Table{
		columns: make([]*Column, 0, len(t.columns)),
		index:   make(map[string]int, len(t.columns)),
		rows:    t.rows,
	}
	for _, col := range t.columns {
		if drop[col.Name()] {
			continue
		}
		out.index[col.Name()] = len(out.columns)
		out.columns = append(out.columns, col)
	}
	return out
}

// Row returns row i rendered as text, in column order
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for j, col := range t.columns {
		row[j] = col.Text(i)
	}
	return row
}

func (t *Table) clone() *Table {
	out := &Table{
		columns: make([]*Column, len(t.columns), len(t.columns)+8),
		index:   make(map[string]int, len(t.columns)+8),
		rows:    t.rows,
	}
	copy(out.columns, t.columns)
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}
