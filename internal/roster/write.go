package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding selects the byte encoding of a CSV download.
type Encoding string

const (
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF8BOM Encoding = "utf-8-bom" // Excel で文字化けしない
	EncodingSJIS    Encoding = "shift_jis"
)

// ParseEncoding maps a config/query value to an Encoding; "" means UTF-8.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "utf-8-bom", "utf8bom", "utf-8bom":
		return EncodingUTF8BOM, nil
	case "shift_jis", "sjis", "cp932":
		return EncodingSJIS, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", s)
}

func (e Encoding) encoding() encoding.Encoding {
	switch e {
	case EncodingUTF8BOM:
		return unicode.UTF8BOM
	case EncodingSJIS:
		return japanese.ShiftJIS
	}
	return nil
}

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeSJIS = "text/csv; charset=Shift_JIS"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ContentType is the MIME type to send with a CSV in this encoding.
func (e Encoding) ContentType() string {
	if e == EncodingSJIS {
		return ContentTypeSJIS
	}
	return ContentTypeCSV
}

// WriteCSV writes t as comma separated values with a header row.
func WriteCSV(w io.Writer, t Table, enc Encoding) error {
	var tw *transform.Writer
	if e := enc.encoding(); e != nil {
		// 変換できない文字（é など）は置換文字にして出力を続ける
		tw = transform.NewWriter(w, encoding.ReplaceUnsupported(e.NewEncoder()))
		w = tw
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if tw != nil {
		return tw.Close()
	}
	return nil
}

// WriteXLSX writes t into a single-sheet workbook.
func WriteXLSX(w io.Writer, t Table, sheet string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet = SheetName(sheet)
	if def := f.GetSheetName(0); def != sheet {
		if err := f.SetSheetName(def, sheet); err != nil {
			return err
		}
	}

	rows := append([][]string{t.Header}, t.Rows...)
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, addr, &vals); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}
	if len(t.Header) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

// SheetName strips characters Excel rejects and clamps to 31 runes.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "Sheet1"
	}
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	return s
}
