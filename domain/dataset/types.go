package dataset

import (
	"fmt"
	"strconv"
	"time"

	"dataprobe/domain/core"
)

// ColumnType is the type tag assigned to a column once, at load time.
type ColumnType string

const (
	ColumnNumeric     ColumnType = "numeric"
	ColumnTextual     ColumnType = "textual"
	ColumnCategorical ColumnType = "categorical"
)

// IsNumeric reports whether the column holds parsed numbers
func (t ColumnType) IsNumeric() bool { return t == ColumnNumeric }

// Column is a named, typed sequence of cells. Raw always holds the trimmed source
// text; Numbers is populated only for numeric columns and holds NaN for missing cells.
type Column struct {
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
	Raw     []string   `json:"-"`
	Numbers []float64  `json:"-"`
	Missing []bool     `json:"-"`
}

// Len returns the number of cells
func (c *Column) Len() int { return len(c.Raw) }

// IsMissing reports whether row i has no value
func (c *Column) IsMissing(i int) bool { return c.Missing[i] }

// Value returns the typed cell at row i: float64 for numeric columns, string
// otherwise, nil when missing.
func (c *Column) Value(i int) interface{} {
	if c.Missing[i] {
		return nil
	}
	if c.Type.IsNumeric() {
		return c.Numbers[i]
	}
	return c.Raw[i]
}

// Display renders row i for tables, using NaN for missing cells.
func (c *Column) Display(i int) string {
	if c.Missing[i] {
		return "NaN"
	}
	if c.Type.IsNumeric() {
		return strconv.FormatFloat(c.Numbers[i], 'g', -1, 64)
	}
	return c.Raw[i]
}

// NumericValues returns the non-missing numbers in row order
func (c *Column) NumericValues() []float64 {
	out := make([]float64, 0, len(c.Numbers))
	for i, v := range c.Numbers {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// TextValues returns the non-missing raw values in row order
func (c *Column) TextValues() []string {
	out := make([]string, 0, len(c.Raw))
	for i, v := range c.Raw {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// NonMissing counts cells with a value
func (c *Column) NonMissing() int {
	n := 0
	for _, m := range c.Missing {
		if !m {
			n++
		}
	}
	return n
}

func (c *Column) subset(indices []int) *Column {
	out := &Column{
		Name:    c.Name,
		Type:    c.Type,
		Raw:     make([]string, len(indices)),
		Missing: make([]bool, len(indices)),
	}
	if c.Numbers != nil {
		out.Numbers = make([]float64, len(indices))
	}
	for j, i := range indices {
		out.Raw[j] = c.Raw[i]
		out.Missing[j] = c.Missing[i]
		if c.Numbers != nil {
			out.Numbers[j] = c.Numbers[i]
		}
	}
	return out
}

// Dataset is the full in-memory table for one session. It is never mutated
// after construction; derived views are new values.
type Dataset struct {
	ID       core.DatasetID `json:"id"`
	Name     string         `json:"name"`
	Source   string         `json:"source"` // "csv" or "xlsx"
	Columns  []*Column      `json:"columns"`
	RowCount int            `json:"row_count"`
	LoadedAt time.Time      `json:"loaded_at"`

	// Fingerprint of the uploaded bytes; empty for derived views
	Fingerprint core.Hash `json:"fingerprint,omitempty"`

	index map[string]int
}

// New assembles a Dataset and checks the equal-length invariant.
func New(name, source string, columns []*Column) (*Dataset, error) {
	rows := 0
	if len(columns) > 0 {
		rows = columns[0].Len()
	}
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if col.Len() != rows || len(col.Missing) != rows {
			return nil, fmt.Errorf("column %q has %d values, expected %d", col.Name, col.Len(), rows)
		}
		if col.Type.IsNumeric() && len(col.Numbers) != rows {
			return nil, fmt.Errorf("numeric column %q has %d numbers, expected %d", col.Name, len(col.Numbers), rows)
		}
		if _, dup := index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		index[col.Name] = i
	}
	return &Dataset{
		ID:       core.NewDatasetID(),
		Name:     name,
		Source:   source,
		Columns:  columns,
		RowCount: rows,
		LoadedAt: time.Now(),
		index:    index,
	}, nil
}

// Shape returns (rows, columns)
func (d *Dataset) Shape() (int, int) { return d.RowCount, len(d.Columns) }

// ColumnNames returns names in column order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.Columns[i], true
}

// NumericColumns returns the names of numeric columns in column order
func (d *Dataset) NumericColumns() []string {
	var names []string
	for _, c := range d.Columns {
		if c.Type.IsNumeric() {
			names = append(names, c.Name)
		}
	}
	return names
}

// Subset returns a new Dataset holding the given rows, in the given order,
// with the same columns. The result shares this dataset's ID and name.
func (d *Dataset) Subset(indices []int) *Dataset {
	cols := make([]*Column, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = c.subset(indices)
	}
	return &Dataset{
		ID:       d.ID,
		Name:     d.Name,
		Source:   d.Source,
		Columns:  cols,
		RowCount: len(indices),
		LoadedAt: d.LoadedAt,
		index:    d.index,
	}
}

// Head returns the first n rows
func (d *Dataset) Head(n int) *Dataset {
	if n > d.RowCount {
		n = d.RowCount
	}
	if n < 0 {
		n = 0
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return d.Subset(indices)
}

// DisplayRows renders every row as display strings, in column order
func (d *Dataset) DisplayRows() [][]string {
	rows := make([][]string, d.RowCount)
	for r := range rows {
		row := make([]string, len(d.Columns))
		for c, col := range d.Columns {
			row[c] = col.Display(r)
		}
		rows[r] = row
	}
	return rows
}

// Records returns rows as name→typed value maps, for JSON output
func (d *Dataset) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, d.RowCount)
	for r := range records {
		rec := make(map[string]interface{}, len(d.Columns))
		for _, col := range d.Columns {
			rec[col.Name] = col.Value(r)
		}
		records[r] = rec
	}
	return records
}

// ColumnInfo is one entry of the data types listing
type ColumnInfo struct {
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	NonMissing int        `json:"non_missing"`
}

// Info lists every column with its type, in column order
func (d *Dataset) Info() []ColumnInfo {
	out := make([]ColumnInfo, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = ColumnInfo{Name: c.Name, Type: c.Type, NonMissing: c.NonMissing()}
	}
	return out
}

// FilteredView is the row subset selected by a filter expression. Rows keeps the
// original column order; RowIndices are positions in the source Dataset, ascending.
type FilteredView struct {
	Expression string   `json:"expression"`
	RowIndices []int    `json:"row_indices"`
	Rows       *Dataset `json:"-"`
}

// Len returns the number of matching rows
func (v *FilteredView) Len() int { return len(v.RowIndices) }
