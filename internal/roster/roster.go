// Package roster flattens attendance records back into flat tables
// (per-clinic rosters, full exports) and writes them as CSV or XLSX.
package roster

import (
	"sort"
	"strings"

	"clinic-roster/internal/attendance"
)

// Table is a flat export: header + rows, every row as wide as the header.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// 固定列（追加列はこの間に入る）
var (
	LeadingColumns  = []string{"rowId", "Name", "Age", "GuardianName"}
	TrailingColumns = []string{"Comments", "Fee"}
	GroupColumns    = []string{"Group", "Session", "Day", "Clinic", "Time"}
	ExpandedColumns = []string{"Day", "Clinic", "Time", "Name", "Age", "GuardianName", "ContactEmail", "ContactPhone"}
)

// Flatten renders a roster. columns gives the extra-column order; extra keys
// found on records but not listed are appended in name order.
func Flatten(columns []string, records []attendance.Record) Table {
	extras := extraColumns(columns, records)
	header := make([]string, 0, len(LeadingColumns)+len(extras)+len(TrailingColumns))
	header = append(header, LeadingColumns...)
	header = append(header, extras...)
	header = append(header, TrailingColumns...)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, rosterRow(r, extras))
	}
	return Table{Header: header, Rows: rows}
}

// FlattenGroup renders the records of g for one (day, clinic) in canonical order.
func FlattenGroup(g attendance.Group, k attendance.Key) Table {
	rs := g.Filter(k)
	attendance.Sort(rs)
	return Flatten(g.Columns, rs)
}

// FlattenAll renders every record of every group, each row prefixed with the
// group it came from. Extra columns are the union across groups.
func FlattenAll(groups []attendance.Group) Table {
	var cols []string
	var all []attendance.Record
	for _, g := range groups {
		cols = append(cols, g.Columns...)
		all = append(all, g.Records...)
	}
	extras := extraColumns(cols, all)

	header := make([]string, 0, len(GroupColumns)+len(LeadingColumns)+len(extras)+len(TrailingColumns))
	header = append(header, GroupColumns...)
	header = append(header, LeadingColumns...)
	header = append(header, extras...)
	header = append(header, TrailingColumns...)

	rows := make([][]string, 0, len(all))
	for _, g := range groups {
		for _, r := range g.Records {
			row := []string{g.ID, g.Session, r.Day, r.Clinic, r.Time}
			rows = append(rows, append(row, rosterRow(r, extras)...))
		}
	}
	return Table{Header: header, Rows: rows}
}

// Expanded renders the long-form import result (the "master attendance" sheet).
func Expanded(records []attendance.Record) Table {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Day, r.Clinic, r.Time, r.Name, r.Age, r.GuardianName, r.ContactEmail, r.ContactPhone})
	}
	return Table{Header: append([]string(nil), ExpandedColumns...), Rows: rows}
}

func rosterRow(r attendance.Record, extras []string) []string {
	row := make([]string, 0, len(LeadingColumns)+len(extras)+len(TrailingColumns))
	row = append(row, r.RowID, r.Name, r.Age, r.GuardianName)
	for _, c := range extras {
		row = append(row, r.ExtraValue(c))
	}
	return append(row, r.Comments, r.Fee)
}

func extraColumns(columns []string, records []attendance.Record) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	var stray []string
	for _, r := range records {
		for k := range r.Extra {
			if !seen[k] {
				seen[k] = true
				stray = append(stray, k)
			}
		}
	}
	sort.Strings(stray)
	return append(out, stray...)
}

// Filename: "Monday_RedBallClinic.csv"
func Filename(k attendance.Key, ext string) string { return BaseName(k) + "." + ext }

// BaseName is Filename without the extension.
func BaseName(k attendance.Key) string {
	return k.Day + "_" + strings.ReplaceAll(k.Clinic, " ", "")
}

const (
	ExportFilename = "attendance_export"
	MasterFilename = "master_attendance"
)
