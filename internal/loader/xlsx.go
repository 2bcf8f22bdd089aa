package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
)

// ErrSheetNotFound is returned when the requested worksheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

type xlsxReader struct{}

func (xlsxReader) Format() Format { return XLSX }

// Read decodes the selected worksheet; the first row is the header.
// If SheetName is empty and SheetIndex <= 0, the first sheet is used.
func (xlsxReader) Read(src io.Reader, opt Options) (*dataframe.DataFrame, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wb := workbook{
		sheets: parseWorkbookSheets(zipEntry(zr, "xl/workbook.xml")),
		rels:   parseRelationships(zipEntry(zr, "xl/_rels/workbook.xml.rels")),
		shared: parseSharedStrings(zipEntry(zr, "xl/sharedStrings.xml")),
	}
	target, err := wb.sheetPath(opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, err
	}
	sheet := zipEntry(zr, target)
	if sheet == nil {
		return nil, fmt.Errorf("%s: %w", target, ErrSheetNotFound)
	}

	rr := newRowReader(sheet, wb.shared)
	header, ok := rr.next()
	if !ok {
		return dataframe.New(), nil
	}
	var rows [][]string
	for {
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			break
		}
		row, ok := rr.next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return buildFrame(header, rows, opt)
}

type sheetRef struct {
	name string
	id   int
	rid  string
}

type workbook struct {
	sheets []sheetRef
	rels   map[string]string
	shared []string
}

// sheetPath resolves a sheet by name, then by 1-based sheetId, then by the
// conventional worksheets/sheetN.xml location.
func (wb workbook) sheetPath(name string, index int) (string, error) {
	if name != "" {
		for _, s := range wb.sheets {
			if strings.EqualFold(s.name, name) {
				if rel, ok := wb.rels[s.rid]; ok {
					return relPath(rel), nil
				}
			}
		}
		avail := make([]string, len(wb.sheets))
		for i, s := range wb.sheets {
			avail[i] = s.name
		}
		return "", fmt.Errorf("%q (available: %s): %w", name, strings.Join(avail, ", "), ErrSheetNotFound)
	}
	if index <= 0 {
		index = 1
	}
	for _, s := range wb.sheets {
		if s.id == index {
			if rel, ok := wb.rels[s.rid]; ok {
				return relPath(rel), nil
			}
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", index), nil
}

// relPath converts relationship targets ("worksheets/sheet1.xml", "/xl/worksheets/sheet1.xml")
// to ZIP entry names.
func relPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

func zipEntry(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

// eachStart calls fn for every start element in data.
func eachStart(data []byte, fn func(xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok {
			fn(se)
		}
	}
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func parseWorkbookSheets(data []byte) []sheetRef {
	var out []sheetRef
	eachStart(data, func(se xml.StartElement) {
		if se.Name.Local == "sheet" {
			out = append(out, sheetRef{name: attr(se, "name"), id: leadingInt(attr(se, "sheetId")), rid: attr(se, "id")})
		}
	})
	return out
}

func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	eachStart(data, func(se xml.StartElement) {
		if se.Name.Local != "Relationship" {
			return
		}
		if id, target := attr(se, "Id"), attr(se, "Target"); id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
}

// rowReader streams worksheet rows as string cells, placing each cell by its reference.
type rowReader struct {
	dec    *xml.Decoder
	shared []string
}

func newRowReader(data []byte, shared []string) *rowReader {
	return &rowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *rowReader) next() ([]string, bool) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "row":
				inRow, row = true, nil
			case inRow && t.Name.Local == "c":
				col := columnIndex(attr(t, "r"))
				if col < 0 {
					col = len(row)
				}
				for len(row) <= col {
					row = append(row, "")
				}
				row[col] = r.cellValue(attr(t, "t"))
			}
		case xml.EndElement:
			if t.Name.Local == "row" {
				return row, true
			}
		}
	}
}

// cellValue reads up to the closing </c>, capturing <v> or inline <is><t> text.
func (r *rowReader) cellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "v" || t.Name.Local == "t" {
				var s string
				if err := r.dec.DecodeElement(&s, &t); err == nil {
					val = s
				}
			}
		case xml.EndElement:
			if t.Name.Local != "c" {
				continue
			}
			if typ == "s" {
				idx := leadingInt(val)
				if idx >= 0 && idx < len(r.shared) {
					return r.shared[idx]
				}
				return ""
			}
			return val
		}
	}
}

// maxColumns is the sheet width limit of the format (A..XFD).
const maxColumns = 16384

// columnIndex maps a cell reference like "C12" to its 0-based column (2), or -1
// when the reference has no letters or lies past XFD.
func columnIndex(ref string) int {
	idx := 0
	n := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
		if idx > maxColumns {
			return -1
		}
		n++
	}
	if n == 0 {
		return -1
	}
	return idx - 1
}

func leadingInt(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
