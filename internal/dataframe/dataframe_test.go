package dataframe

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(t *testing.T) *DataFrame {
	t.Helper()
	df := New()
	require.NoError(t, df.AddColumn("val", []float64{1, 2, 3, 4}))
	require.NoError(t, df.AddStringColumn("name", []string{"a", "b", "c", "d"}))
	return df
}

func TestAddColumnOverwriteKeepsPosition(t *testing.T) {
	df := sampleFrame(t)
	require.NoError(t, df.AddColumn("name", []float64{9, 8, 7, 6}))

	s := df.Schema()
	assert.Equal(t, []string{"val", "name"}, s.Names())
	assert.Equal(t, Float, s.Kind(1))
	vals, err := df.DoubleColumn("name")
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 8, 7, 6}, vals)
}

func TestAddColumnRowMismatch(t *testing.T) {
	df := sampleFrame(t)
	err := df.AddColumn("short", []float64{1})
	assert.ErrorIs(t, err, ErrRowCountMismatch)
	assert.Equal(t, 2, df.Schema().NumColumns())
}

func TestDoubleColumnErrors(t *testing.T) {
	df := sampleFrame(t)
	_, err := df.DoubleColumn("missing")
	assert.ErrorIs(t, err, ErrColumnNotFound)
	_, err = df.DoubleColumn("name")
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestSelectAndFilter(t *testing.T) {
	df := sampleFrame(t)

	sel := df.Select([]int{3, 1})
	assert.Equal(t, 2, sel.NumRows())
	names, err := sel.StringColumn("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b"}, names)

	even, err := df.Filter("val", func(v float64) bool { return int(v)%2 == 0 })
	require.NoError(t, err)
	vals, _ := even.DoubleColumn("val")
	assert.Equal(t, []float64{2, 4}, vals)
	assert.Equal(t, 4, df.NumRows(), "source must be untouched")
}

func TestCopyIsolatesColumnSet(t *testing.T) {
	df := sampleFrame(t)
	cp := df.Copy()
	require.NoError(t, cp.AddColumn("extra", []float64{0, 0, 0, 0}))
	assert.False(t, df.HasColumn("extra"))
	assert.True(t, cp.HasColumn("extra"))
}

func TestConcat(t *testing.T) {
	a := sampleFrame(t)
	b := sampleFrame(t)
	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, 8, out.NumRows())
	vals, _ := out.DoubleColumn("val")
	assert.Equal(t, []float64{1, 2, 3, 4, 1, 2, 3, 4}, vals)
	av, _ := a.DoubleColumn("val")
	assert.Len(t, av, 4)

	c := New()
	require.NoError(t, c.AddColumn("other", []float64{1}))
	_, err = Concat(a, c)
	assert.Error(t, err)
}

func TestStringColumnFormatsNumbers(t *testing.T) {
	df := New()
	require.NoError(t, df.AddColumn("x", []float64{1.5, math.NaN(), 1000000}))
	got, err := df.StringColumn("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.5", "", "1000000"}, got)
}

func TestArrowRoundTripPreservesNaNAndStrings(t *testing.T) {
	df := New()
	require.NoError(t, df.AddColumn("x", []float64{1, math.NaN(), 3}))
	require.NoError(t, df.AddStringColumn("tag", []string{"p", "q", "r"}))

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := df.ToRecord(mem)
	assert.EqualValues(t, 3, rec.NumRows())
	assert.EqualValues(t, 1, rec.Column(0).NullN())

	back, err := FromRecord(rec)
	rec.Release()
	require.NoError(t, err)

	x, err := back.DoubleColumn("x")
	require.NoError(t, err)
	assert.Equal(t, 1.0, x[0])
	assert.True(t, math.IsNaN(x[1]))
	tags, err := back.StringColumn("tag")
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "q", "r"}, tags)
}
