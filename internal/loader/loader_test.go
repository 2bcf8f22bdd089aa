package loader

import (
	"archive/zip"
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func frame(t *testing.T) *dataframe.DataFrame {
	t.Helper()
	df := dataframe.New()
	require.NoError(t, df.AddColumn("value", []float64{1.5, math.NaN(), 1000000}))
	require.NoError(t, df.AddStringColumn("name", []string{"a", "b, c", "\"q\""}))
	return df
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.csv":       CSV,
		"A.TSV":       TSV,
		"b.xlsx":      XLSX,
		"c.json":      JSON,
		"d.jsonl":     NDJSON,
		"e.arrow.gz":  Arrow,
		"f.feather":   Arrow,
		"data.csv.GZ": CSV,
	}
	for name, want := range tests {
		got, ok := DetectFormat(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := DetectFormat("notes.txt")
	assert.False(t, ok)
}

func TestLoadCSVInfersColumnTypes(t *testing.T) {
	p := writeFile(t, "in.csv", "id,label,amount\n1,x,\"1,234.50\"\n2,y,\n3,,7\n")
	df, err := Load(p, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, df.NumRows())

	s := df.Schema()
	assert.Equal(t, []string{"id", "label", "amount"}, s.Names())
	assert.Equal(t, dataframe.Float, s.Kind(0))
	assert.Equal(t, dataframe.String, s.Kind(1))

	amount, err := df.DoubleColumn("amount")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, amount[0])
	assert.True(t, math.IsNaN(amount[1]))
	assert.Equal(t, 7.0, amount[2])
}

func TestLoadCSVLocaleAndMaxRows(t *testing.T) {
	p := writeFile(t, "eu.csv", "v;w\n1.234,5;a\n2,5;b\n9;c\n")
	df, err := Load(p, Options{Delimiter: ';', DecimalSeparator: ',', ThousandsSeparator: '.', MaxRows: 2})
	require.NoError(t, err)
	v, err := df.DoubleColumn("v")
	require.NoError(t, err)
	assert.Equal(t, []float64{1234.5, 2.5}, v)
}

func TestLoadCSVDuplicateAndBlankHeaders(t *testing.T) {
	p := writeFile(t, "dup.csv", "x,x,\n1,2,3\n")
	df, err := Load(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "x__2", "column_3"}, df.Schema().Names())
}

func TestLoadTSV(t *testing.T) {
	p := writeFile(t, "in.tsv", "a\tb\n1\t2\n")
	df, err := Load(p, Options{})
	require.NoError(t, err)
	b, err := df.DoubleColumn("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, b)
}

func TestLoadEmptyCSV(t *testing.T) {
	df, err := Load(writeFile(t, "empty.csv", ""), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, df.NumRows())
	assert.Equal(t, 0, df.Schema().NumColumns())
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := Load(writeFile(t, "x.txt", "hi"), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)

	err = Save(filepath.Join(t.TempDir(), "x.parquet"), frame(t), "")
	assert.ErrorIs(t, err, ErrUnsupported)

	err = Save(filepath.Join(t.TempDir(), "x.out"), frame(t), XLSX)
	assert.ErrorIs(t, err, ErrUnsupported, "xlsx is read-only")
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"out.csv", "out.tsv", "out.json", "out.ndjson", "out.arrow", "out.csv.gz", "out.arrow.gz"} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(p, frame(t), ""))

			got, err := Load(p, Options{})
			require.NoError(t, err)
			require.Equal(t, 3, got.NumRows())

			v, err := got.DoubleColumn("value")
			require.NoError(t, err)
			assert.Equal(t, 1.5, v[0])
			assert.True(t, math.IsNaN(v[1]))
			assert.Equal(t, 1000000.0, v[2])

			names, err := got.StringColumn("name")
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b, c", "\"q\""}, names)
		})
	}
}

func TestSaveCSVKeepsColumnOrder(t *testing.T) {
	p := filepath.Join(t.TempDir(), "o.csv")
	require.NoError(t, Save(p, frame(t), ""))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, "value,name", lines[0])
	assert.Equal(t, "1.5,a", lines[1])
	assert.Equal(t, "1000000,\"\"\"q\"\"\"", lines[3])
}

func TestLoadJSONValues(t *testing.T) {
	p := writeFile(t, "in.json", `[{"b": 1, "a": "x", "flag": true}, {"b": null, "a": "y"}, {"b": "3.5", "a": "z", "flag": false}]`)
	df, err := Load(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "flag"}, df.Schema().Names())

	b, err := df.DoubleColumn("b")
	require.NoError(t, err)
	assert.Equal(t, 1.0, b[0])
	assert.True(t, math.IsNaN(b[1]))
	assert.Equal(t, 3.5, b[2])

	flag, err := df.DoubleColumn("flag")
	require.NoError(t, err)
	assert.Equal(t, 1.0, flag[0])
	assert.True(t, math.IsNaN(flag[1]))
	assert.Equal(t, 0.0, flag[2])
}

func TestLoadNDJSONSkipsBlankLines(t *testing.T) {
	p := writeFile(t, "in.ndjson", "{\"v\": 1}\n\n{\"v\": 2}\n")
	df, err := Load(p, Options{})
	require.NoError(t, err)
	v, err := df.DoubleColumn("v")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v)
}

func TestLoadNDJSONBadLine(t *testing.T) {
	p := writeFile(t, "bad.ndjson", "{\"v\": 1}\n{oops\n")
	_, err := Load(p, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestForcedFormat(t *testing.T) {
	p := writeFile(t, "data.txt", "v\n4\n")
	df, err := Load(p, Options{Format: CSV})
	require.NoError(t, err)
	assert.Equal(t, 1, df.NumRows())
}

// buildWorkbook assembles a minimal XLSX with two sheets. The second sheet's
// relationship target carries a leading slash.
func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	files := map[string]string{
		"xl/workbook.xml": `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Summary" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets>
</workbook>`,
		"xl/_rels/workbook.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`,
		"xl/sharedStrings.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><si><t>metric</t></si><si><t>score</t></si><si><r><t>al</t></r><r><t>pha</t></r></si></sst>`,
		"xl/worksheets/sheet1.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c></row>
<row r="2"><c r="A2"><v>1</v></c></row>
</sheetData></worksheet>`,
		"xl/worksheets/sheet2.xml": `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="inlineStr"><is><t>name</t></is></c><c r="C1" t="s"><v>1</v></c></row>
<row r="2"><c r="A2" t="s"><v>2</v></c><c r="C2"><v>10.5</v></c></row>
<row r="3"><c r="A3" t="inlineStr"><is><t>beta</t></is></c><c r="C3"><v>20</v></c></row>
</sheetData></worksheet>`,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLoadXLSXSheetSelection(t *testing.T) {
	p := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, os.WriteFile(p, buildWorkbook(t), 0o644))

	first, err := Load(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"metric"}, first.Schema().Names())

	data, err := Load(p, Options{SheetName: "data"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "column_2", "score"}, data.Schema().Names())
	names, err := data.StringColumn("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
	score, err := data.DoubleColumn("score")
	require.NoError(t, err)
	assert.Equal(t, []float64{10.5, 20}, score)

	byIndex, err := Load(p, Options{SheetIndex: 2, MaxRows: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, byIndex.NumRows())

	_, err = Load(p, Options{SheetName: "Missing"})
	assert.ErrorIs(t, err, ErrSheetNotFound)
	assert.Contains(t, err.Error(), "Summary, Data")
}

func TestRelPath(t *testing.T) {
	tests := map[string]string{
		"/xl/worksheets/sheet1.xml": "xl/worksheets/sheet1.xml",
		"xl/worksheets/sheet1.xml":  "xl/worksheets/sheet1.xml",
		"/worksheets/sheet1.xml":    "xl/worksheets/sheet1.xml",
		"worksheets/sheet1.xml":     "xl/worksheets/sheet1.xml",
		"styles.xml":                "xl/styles.xml",
	}
	for in, want := range tests {
		assert.Equal(t, want, relPath(in), in)
	}
}

func TestColumnIndex(t *testing.T) {
	assert.Equal(t, 0, columnIndex("A1"))
	assert.Equal(t, 2, columnIndex("c12"))
	assert.Equal(t, 27, columnIndex("AB3"))
	assert.Equal(t, -1, columnIndex("12"))
	assert.Equal(t, 16383, columnIndex("XFD1"))
	assert.Equal(t, -1, columnIndex("XFE1"))
	assert.Equal(t, -1, columnIndex("ZZZZZZZZZZZZZ1"))
}

func TestRowReaderPlacesOutOfRangeCellsAtRowEnd(t *testing.T) {
	sheet := []byte(`<worksheet><sheetData>
<row r="1"><c r="A1"><v>1</v></c><c r="ZZZZZZZZZZZZZ1"><v>2</v></c><c r="C1"><v>3</v></c></row>
</sheetData></worksheet>`)
	rr := newRowReader(sheet, nil)
	row, ok := rr.next()
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3"}, row)
}
