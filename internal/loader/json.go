package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
)

// jsonCodec reads and writes arrays of flat objects (JSON) or one object per line (NDJSON).
type jsonCodec struct{ format Format }

func (c jsonCodec) Format() Format { return c.format }

func (c jsonCodec) Read(src io.Reader, opt Options) (*dataframe.DataFrame, error) {
	var records []map[string]any
	if c.format == NDJSON {
		sc := bufio.NewScanner(src)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		line := 0
		for sc.Scan() {
			line++
			text := bytes.TrimSpace(sc.Bytes())
			if len(text) == 0 {
				continue
			}
			if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
				break
			}
			var rec map[string]any
			if err := decodeObject(text, &rec); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			records = append(records, rec)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	} else {
		b, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(b)) == 0 {
			return dataframe.New(), nil
		}
		if err := decodeObject(b, &records); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		if opt.MaxRows > 0 && len(records) > opt.MaxRows {
			records = records[:opt.MaxRows]
		}
	}
	return framesFromRecords(records, opt)
}

func decodeObject(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}

// framesFromRecords builds columns from the union of keys, ordered by name.
// Numbers and numeric strings feed numeric columns; booleans become 1/0.
func framesFromRecords(records []map[string]any, opt Options) (*dataframe.DataFrame, error) {
	keys := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			keys[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)

	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(header))
		for j, k := range header {
			row[j] = cellString(r[k])
		}
		rows[i] = row
	}
	return buildFrame(header, rows, opt)
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case json.Number:
		return x.String()
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func (c jsonCodec) Write(w io.Writer, df *dataframe.DataFrame) error {
	schema := df.Schema()
	names := schema.Names()
	floats := make([][]float64, len(names))
	strs := make([][]string, len(names))
	for i, name := range names {
		var err error
		if schema.Kind(i) == dataframe.Float {
			floats[i], err = df.DoubleColumn(name)
		} else {
			strs[i], err = df.StringColumn(name)
		}
		if err != nil {
			return err
		}
	}

	bw := bufio.NewWriter(w)
	if c.format == JSON {
		bw.WriteString("[")
	}
	for row := 0; row < df.NumRows(); row++ {
		if c.format == JSON {
			if row > 0 {
				bw.WriteString(",")
			}
			bw.WriteString("\n  ")
		}
		if err := writeObject(bw, names, row, floats, strs); err != nil {
			return err
		}
		if c.format == NDJSON {
			bw.WriteString("\n")
		}
	}
	if c.format == JSON {
		if df.NumRows() > 0 {
			bw.WriteString("\n")
		}
		bw.WriteString("]\n")
	}
	return bw.Flush()
}

// writeObject keeps column order, which a map-based encoder would not.
func writeObject(w *bufio.Writer, names []string, row int, floats [][]float64, strs [][]string) error {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return err
		}
		sb.Write(key)
		sb.WriteByte(':')
		if floats[i] != nil {
			v := floats[i][row]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				sb.WriteString("null")
			} else {
				sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
			}
			continue
		}
		val, err := json.Marshal(strs[i][row])
		if err != nil {
			return err
		}
		sb.Write(val)
	}
	sb.WriteByte('}')
	_, err := w.WriteString(sb.String())
	return err
}
