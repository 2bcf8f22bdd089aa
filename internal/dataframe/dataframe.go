package dataframe

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")
	// ErrNotNumeric is returned when a numeric column is requested but the column holds strings.
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrRowCountMismatch indicates a column whose length differs from the table's row count.
	ErrRowCountMismatch = errors.New("row count mismatch")
)

// Kind is the storage type of a column.
type Kind int

const (
	Float Kind = iota
	String
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Schema lists column names and kinds in table order.
type Schema struct {
	names []string
	kinds []Kind
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// NumColumns returns the number of columns.
func (s Schema) NumColumns() int { return len(s.names) }

// Kind returns the kind of the i-th column.
func (s Schema) Kind(i int) Kind { return s.kinds[i] }

// IndexOf returns the position of name, or -1.
func (s Schema) IndexOf(name string) int {
	for i, n := range s.names {
		if n == name {
			return i
		}
	}
	return -1
}

// DataFrame is an in-memory, row-aligned set of named columns.
// Column slices handed to AddColumn are owned by the frame and never modified in place;
// derived frames (Copy, Select, Filter) share or copy them but never write to them.
type DataFrame struct {
	schema  Schema
	floats  map[string][]float64
	strings map[string][]string
	nrows   int
}

// New returns an empty DataFrame.
func New() *DataFrame {
	return &DataFrame{
		floats:  map[string][]float64{},
		strings: map[string][]string{},
	}
}

// NumRows returns the shared row count.
func (df *DataFrame) NumRows() int { return df.nrows }

// Schema returns a snapshot of the column layout.
func (df *DataFrame) Schema() Schema {
	return Schema{names: append([]string(nil), df.schema.names...), kinds: append([]Kind(nil), df.schema.kinds...)}
}

// HasColumn reports whether a column with that name exists.
func (df *DataFrame) HasColumn(name string) bool { return df.schema.IndexOf(name) >= 0 }

// AddColumn appends a numeric column, replacing an existing column of the same name in place.
func (df *DataFrame) AddColumn(name string, vals []float64) error {
	if err := df.checkLen(name, len(vals)); err != nil {
		return err
	}
	df.put(name, Float)
	delete(df.strings, name)
	df.floats[name] = vals
	df.nrows = len(vals)
	return nil
}

// AddStringColumn appends a string column, replacing an existing column of the same name in place.
func (df *DataFrame) AddStringColumn(name string, vals []string) error {
	if err := df.checkLen(name, len(vals)); err != nil {
		return err
	}
	df.put(name, String)
	delete(df.floats, name)
	df.strings[name] = vals
	df.nrows = len(vals)
	return nil
}

func (df *DataFrame) checkLen(name string, n int) error {
	if len(df.schema.names) == 0 {
		return nil
	}
	// Replacing the only column may change the row count.
	if len(df.schema.names) == 1 && df.schema.names[0] == name {
		return nil
	}
	if n != df.nrows {
		return fmt.Errorf("add column %q with %d rows to table with %d rows: %w", name, n, df.nrows, ErrRowCountMismatch)
	}
	return nil
}

func (df *DataFrame) put(name string, k Kind) {
	if i := df.schema.IndexOf(name); i >= 0 {
		df.schema.kinds[i] = k
		return
	}
	df.schema.names = append(df.schema.names, name)
	df.schema.kinds = append(df.schema.kinds, k)
}

// DoubleColumn returns the values of a numeric column. Callers must not modify the slice.
func (df *DataFrame) DoubleColumn(name string) ([]float64, error) {
	i := df.schema.IndexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrColumnNotFound)
	}
	if df.schema.kinds[i] != Float {
		return nil, fmt.Errorf("%q: %w", name, ErrNotNumeric)
	}
	return df.floats[name], nil
}

// StringColumn returns the values of a column as strings. Numeric columns are formatted,
// NaN becomes the empty string.
func (df *DataFrame) StringColumn(name string) ([]string, error) {
	i := df.schema.IndexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrColumnNotFound)
	}
	if df.schema.kinds[i] == String {
		return df.strings[name], nil
	}
	vals := df.floats[name]
	out := make([]string, len(vals))
	for j, v := range vals {
		out[j] = FormatFloat(v)
	}
	return out, nil
}

// Copy returns a shallow copy: column slices are shared, the column set is not.
func (df *DataFrame) Copy() *DataFrame {
	out := New()
	out.schema = df.Schema()
	out.nrows = df.nrows
	for k, v := range df.floats {
		out.floats[k] = v
	}
	for k, v := range df.strings {
		out.strings[k] = v
	}
	return out
}

// Select returns a new frame holding the given rows, in the given order.
// Indices must be within [0, NumRows()).
func (df *DataFrame) Select(indices []int) *DataFrame {
	out := New()
	out.schema = df.Schema()
	out.nrows = len(indices)
	for name, col := range df.floats {
		sel := make([]float64, len(indices))
		for j, idx := range indices {
			sel[j] = col[idx]
		}
		out.floats[name] = sel
	}
	for name, col := range df.strings {
		sel := make([]string, len(indices))
		for j, idx := range indices {
			sel[j] = col[idx]
		}
		out.strings[name] = sel
	}
	return out
}

// Filter keeps the rows whose value in a numeric column satisfies pred.
func (df *DataFrame) Filter(column string, pred func(float64) bool) (*DataFrame, error) {
	vals, err := df.DoubleColumn(column)
	if err != nil {
		return nil, err
	}
	var keep []int
	for i, v := range vals {
		if pred(v) {
			keep = append(keep, i)
		}
	}
	return df.Select(keep), nil
}

// Concat stacks frames with identical schemas vertically.
func Concat(frames ...*DataFrame) (*DataFrame, error) {
	if len(frames) == 0 {
		return New(), nil
	}
	first := frames[0]
	out := first.Copy()
	for _, f := range frames[1:] {
		if !sameSchema(first.schema, f.schema) {
			return nil, fmt.Errorf("concat: schema differs: %v vs %v", first.schema.names, f.schema.names)
		}
		for i, name := range first.schema.names {
			if first.schema.kinds[i] == Float {
				out.floats[name] = append(append([]float64(nil), out.floats[name]...), f.floats[name]...)
			} else {
				out.strings[name] = append(append([]string(nil), out.strings[name]...), f.strings[name]...)
			}
		}
		out.nrows += f.nrows
	}
	return out, nil
}

func sameSchema(a, b Schema) bool {
	if len(a.names) != len(b.names) {
		return false
	}
	for i := range a.names {
		if a.names[i] != b.names[i] || a.kinds[i] != b.kinds[i] {
			return false
		}
	}
	return true
}

// FormatFloat renders v compactly; NaN renders as "".
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
