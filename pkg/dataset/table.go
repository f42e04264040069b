// Copyright © 2018 One Concern

package dataset

// Table is the in-memory form of one tabular dataset: named columns and
// row-major string cells. Codecs translate between Table and their byte
// format; this package never interprets cell contents.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Equal reports deep equality of columns and cells.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i, c := range t.Columns {
		if o.Columns[i] != c {
			return false
		}
	}
	for i, row := range t.Rows {
		if len(row) != len(o.Rows[i]) {
			return false
		}
		for j, cell := range row {
			if o.Rows[i][j] != cell {
				return false
			}
		}
	}
	return true
}
