package dataframe

import (
	"fmt"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowSchema maps the frame's columns to Arrow fields: Float -> float64, String -> utf8.
func (df *DataFrame) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(df.schema.names))
	for i, name := range df.schema.names {
		typ := arrow.DataType(arrow.PrimitiveTypes.Float64)
		if df.schema.kinds[i] == String {
			typ = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: name, Type: typ, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// ToRecord builds an Arrow record batch holding every row. NaN floats become nulls.
// The caller owns the record and must Release it.
func (df *DataFrame) ToRecord(mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	schema := df.ArrowSchema()
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for i, name := range df.schema.names {
		switch fb := b.Field(i).(type) {
		case *array.Float64Builder:
			vals := df.floats[name]
			valid := make([]bool, len(vals))
			for j, v := range vals {
				valid[j] = !math.IsNaN(v)
			}
			fb.AppendValues(vals, valid)
		case *array.StringBuilder:
			fb.AppendValues(df.strings[name], nil)
		}
	}
	return b.NewRecord()
}

// FromRecord converts an Arrow record batch into a DataFrame. Integer and floating point
// columns become Float columns (nulls -> NaN); string columns become String columns.
func FromRecord(rec arrow.Record) (*DataFrame, error) {
	df := New()
	n := int(rec.NumRows())
	for i, field := range rec.Schema().Fields() {
		col := rec.Column(i)
		var err error
		switch a := col.(type) {
		case *array.Float64:
			err = df.AddColumn(field.Name, floatsFrom(n, a.IsNull, a.Value))
		case *array.Float32:
			err = df.AddColumn(field.Name, floatsFrom(n, a.IsNull, func(j int) float64 { return float64(a.Value(j)) }))
		case *array.Int64:
			err = df.AddColumn(field.Name, floatsFrom(n, a.IsNull, func(j int) float64 { return float64(a.Value(j)) }))
		case *array.Int32:
			err = df.AddColumn(field.Name, floatsFrom(n, a.IsNull, func(j int) float64 { return float64(a.Value(j)) }))
		case *array.String:
			vals := make([]string, n)
			for j := 0; j < n; j++ {
				if !a.IsNull(j) {
					vals[j] = strings.Clone(a.Value(j))
				}
			}
			err = df.AddStringColumn(field.Name, vals)
		default:
			return nil, fmt.Errorf("arrow column %q: unsupported type %s", field.Name, field.Type)
		}
		if err != nil {
			return nil, err
		}
	}
	return df, nil
}

func floatsFrom(n int, isNull func(int) bool, value func(int) float64) []float64 {
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		if isNull(j) {
			out[j] = math.NaN()
			continue
		}
		out[j] = value(j)
	}
	return out
}
