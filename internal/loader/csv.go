package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
)

type csvCodec struct{ format Format }

func (c csvCodec) Format() Format { return c.format }

func (c csvCodec) Read(src io.Reader, opt Options) (*dataframe.DataFrame, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = c.delimiter(opt)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataframe.New(), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		rows = append(rows, rec)
	}
	return buildFrame(header, rows, opt)
}

func (c csvCodec) delimiter(opt Options) rune {
	if opt.Delimiter != 0 {
		return opt.Delimiter
	}
	if c.format == TSV {
		return '\t'
	}
	return ','
}

func (c csvCodec) Write(w io.Writer, df *dataframe.DataFrame) error {
	cw := csv.NewWriter(w)
	if c.format == TSV {
		cw.Comma = '\t'
	}
	names := df.Schema().Names()
	if err := cw.Write(names); err != nil {
		return err
	}
	cols := make([][]string, len(names))
	for i, name := range names {
		col, err := df.StringColumn(name)
		if err != nil {
			return err
		}
		cols[i] = col
	}
	rec := make([]string, len(names))
	for row := 0; row < df.NumRows(); row++ {
		for i := range cols {
			rec[i] = cols[i][row]
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// buildFrame turns header + string rows into typed columns. A column is numeric when every
// non-empty cell parses as a number; empty cells in numeric columns become NaN.
func buildFrame(header []string, rows [][]string, opt Options) (*dataframe.DataFrame, error) {
	df := dataframe.New()
	seen := map[string]int{}
	for j, h := range header {
		name := uniqueName(strings.TrimSpace(h), j, seen)
		cells := make([]string, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				cells[i] = strings.TrimSpace(rec[j])
			}
		}
		if nums, ok := numericColumn(cells, opt); ok {
			if err := df.AddColumn(name, nums); err != nil {
				return nil, err
			}
			continue
		}
		if err := df.AddStringColumn(name, cells); err != nil {
			return nil, err
		}
	}
	return df, nil
}

func uniqueName(name string, idx int, seen map[string]int) string {
	if name == "" {
		name = fmt.Sprintf("column_%d", idx+1)
	}
	seen[name]++
	if n := seen[name]; n > 1 {
		return fmt.Sprintf("%s__%d", name, n)
	}
	return name
}

func numericColumn(cells []string, opt Options) ([]float64, bool) {
	out := make([]float64, len(cells))
	nonEmpty := 0
	for i, c := range cells {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		x, ok := parseNumeric(c, opt)
		if !ok {
			return nil, false
		}
		out[i] = x
		nonEmpty++
	}
	return out, nonEmpty > 0 || len(cells) == 0
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	// Normalize spaces
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		if cpos >= 0 && dpos >= 0 {
			if cpos > dpos {
				dec = ','
				thou = '.'
			} else {
				dec = '.'
				thou = ','
			}
		} else if cpos >= 0 {
			dec = ','
		} else {
			dec = '.'
		}
	}
	// Remove thousands separators if they differ from decimal
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
