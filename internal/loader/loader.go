package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
	"github.com/KaramelBytes/tailcut-cli/internal/utils"
)

// Format names a table encoding.
type Format string

const (
	CSV    Format = "csv"
	TSV    Format = "tsv"
	XLSX   Format = "xlsx"
	JSON   Format = "json"
	NDJSON Format = "ndjson"
	Arrow  Format = "arrow"
)

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

// Options controls how tables are decoded.
type Options struct {
	// Format forces a decoder; empty means detect from the file extension.
	Format Format
	// Delimiter for CSV. If 0, ',' (or '\t' for .tsv).
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// XLSX sheet selection; SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
}

// Reader decodes one table format.
type Reader interface {
	Format() Format
	Read(r io.Reader, opt Options) (*dataframe.DataFrame, error)
}

// Writer encodes one table format.
type Writer interface {
	Format() Format
	Write(w io.Writer, df *dataframe.DataFrame) error
}

var (
	readers = map[Format]Reader{}
	writers = map[Format]Writer{}
)

// Register adds a reader and/or writer implementation to the registry.
func Register(v any) {
	if r, ok := v.(Reader); ok {
		readers[r.Format()] = r
	}
	if w, ok := v.(Writer); ok {
		writers[w.Format()] = w
	}
}

func init() {
	Register(csvCodec{format: CSV})
	Register(csvCodec{format: TSV})
	Register(xlsxReader{})
	Register(jsonCodec{format: JSON})
	Register(jsonCodec{format: NDJSON})
	Register(arrowCodec{})
}

// DetectFormat maps a file name to a format, looking through a trailing .gz.
func DetectFormat(path string) (Format, bool) {
	name := strings.ToLower(strings.TrimSuffix(strings.ToLower(path), ".gz"))
	switch filepath.Ext(name) {
	case ".csv":
		return CSV, true
	case ".tsv", ".tab":
		return TSV, true
	case ".xlsx":
		return XLSX, true
	case ".json":
		return JSON, true
	case ".jsonl", ".ndjson":
		return NDJSON, true
	case ".arrow", ".feather", ".ipc":
		return Arrow, true
	}
	return "", false
}

func isGzip(path string) bool { return strings.HasSuffix(strings.ToLower(path), ".gz") }

func resolve(path string, forced Format) (Format, error) {
	if forced != "" {
		return forced, nil
	}
	f, ok := DetectFormat(path)
	if !ok {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	return f, nil
}

// Load reads a table from path. Files ending in .gz are decompressed transparently.
func Load(path string, opt Options) (*dataframe.DataFrame, error) {
	format, err := resolve(path, opt.Format)
	if err != nil {
		return nil, err
	}
	rd, ok := readers[format]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", format, ErrUnsupported)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if isGzip(path) {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer zr.Close()
		src = zr
	}
	if format == TSV && opt.Delimiter == 0 {
		opt.Delimiter = '\t'
	}
	df, err := rd.Read(src, opt)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return df, nil
}

// Save writes df to path atomically, in the forced format or the one implied by the
// extension. A .gz suffix compresses the output.
func Save(path string, df *dataframe.DataFrame, forced Format) error {
	format, err := resolve(path, forced)
	if err != nil {
		return err
	}
	wr, ok := writers[format]
	if !ok {
		return fmt.Errorf("write %s: %w", format, ErrUnsupported)
	}
	var buf bytes.Buffer
	if isGzip(path) {
		zw := gzip.NewWriter(&buf)
		if err := wr.Write(zw, df); err != nil {
			return fmt.Errorf("encode %s: %w", format, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close gzip: %w", err)
		}
	} else if err := wr.Write(&buf, df); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
