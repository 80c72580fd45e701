package signup

import (
	"strings"
)

// ===== 入力テーブル =====

// Table is a raw sign-up export: a header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable treats the first row as the header. Rows may be ragged.
func NewTable(rows [][]string) Table {
	if len(rows) == 0 {
		return Table{}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	body := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if blankRow(r) {
			continue
		}
		body = append(body, r)
	}
	return Table{Header: header, Rows: body}
}

func blankRow(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Index returns the column position of an exact header name, or -1.
func (t Table) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return clean(row[idx])
}

// スプレッドシート由来の欠損値表現は空文字に寄せる
var missingValues = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"nat":  true,
	"<na>": true,
	"n/a":  true,
	"na":   true,
	"#n/a": true,
}

func clean(v string) string {
	v = strings.TrimSpace(v)
	if missingValues[strings.ToLower(v)] {
		return ""
	}
	return v
}

// ===== 正規化 =====

// Registrant is one sign-up row mapped onto the canonical fields.
// Fields keeps every original cell (cleaned) keyed by header for the expander.
type Registrant struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Age          string            `json:"age"`
	GuardianName string            `json:"guardianName"`
	ContactEmail string            `json:"contactEmail"`
	ContactPhone string            `json:"contactPhone"`
	Fields       map[string]string `json:"-"`
}

// 候補ヘッダ（先頭から順に完全一致で探す）
var (
	NameColumns     = []string{"Player Name (First and Last)", "Player Name", "Name", "Full Name"}
	AgeColumns      = []string{"Player Age", "Age"}
	GuardianColumns = []string{"Parent/Guardian Name", "Guardian Name"}
	EmailColumns    = []string{"Parent/Guardian Email", "Email"}
	PhoneColumns    = []string{"Parent/Guardian Phone Number", "Parent/Guardian Phone", "Phone"}
	IDColumns       = []string{"rowId", "id", "ID"}
)

// Normalize maps each row of t onto a Registrant.
// Rows without an id column value get one from newID.
func Normalize(t Table, newID func() string) []Registrant {
	nameIdx := resolveNameColumn(t.Header)
	ageIdx := firstIndex(t, AgeColumns)
	guardianIdx := firstIndex(t, GuardianColumns)
	emailIdx := firstIndex(t, EmailColumns)
	phoneIdx := firstIndex(t, PhoneColumns)
	idIdx := firstIndex(t, IDColumns)

	out := make([]Registrant, 0, len(t.Rows))
	for _, row := range t.Rows {
		r := Registrant{
			ID:           cell(row, idIdx),
			Name:         cell(row, nameIdx),
			Age:          cell(row, ageIdx),
			GuardianName: cell(row, guardianIdx),
			ContactEmail: cell(row, emailIdx),
			ContactPhone: cell(row, phoneIdx),
			Fields:       make(map[string]string, len(t.Header)),
		}
		if r.ID == "" {
			r.ID = newID()
		}
		for i, h := range t.Header {
			if h == "" {
				continue
			}
			if _, dup := r.Fields[h]; dup {
				continue
			}
			r.Fields[h] = cell(row, i)
		}
		out = append(out, r)
	}
	return out
}

// resolveNameColumn: 完全一致 → "name" を含む最初の列 → なし(-1)
func resolveNameColumn(header []string) int {
	for _, cand := range NameColumns {
		for i, h := range header {
			if h == cand {
				return i
			}
		}
	}
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), "name") {
			return i
		}
	}
	return -1
}

func firstIndex(t Table, candidates []string) int {
	for _, c := range candidates {
		if i := t.Index(c); i >= 0 {
			return i
		}
	}
	return -1
}
