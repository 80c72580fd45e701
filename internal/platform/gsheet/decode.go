package gsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadCSV decodes a CSV stream. UTF-8 / UTF-16 with BOM are detected;
// anything else is read as UTF-8.
func ReadCSV(r io.Reader) ([][]string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return readCSV(transform.NewReader(r, dec))
}

// ReadCSVShiftJIS decodes a CSV saved by Excel on a Japanese locale.
func ReadCSVShiftJIS(r io.Reader) ([][]string, error) {
	return readCSV(transform.NewReader(r, japanese.ShiftJIS.NewDecoder()))
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}

// ReadXLSX reads the first worksheet of a workbook.
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}

// ReadFile dispatches on the upload's extension (.csv / .xlsx).
// charset selects the CSV decoder ("shift_jis" or default UTF-8).
func ReadFile(filename string, r io.Reader, charset string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(r)
	case ".csv", ".txt", "":
		switch strings.ToLower(charset) {
		case "shift_jis", "sjis", "cp932":
			return ReadCSVShiftJIS(r)
		}
		return ReadCSV(r)
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
}
