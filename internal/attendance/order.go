package attendance

import (
	"sort"
	"strings"
)

// 並び順は固定（辞書順ではない）
var (
	Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

	Clinics = []string{
		"Red Ball Clinic",
		"Orange Ball Clinic",
		"Green Ball Clinic",
		"Yellow Ball Clinic",
		"High Performance Clinic",
	}
)

// unknown な値は既知の値すべての後ろ
const unknownRank = 1 << 30

func DayIndex(day string) int       { return indexOf(Days, day) }
func ClinicIndex(clinic string) int { return indexOf(Clinics, clinic) }

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return unknownRank
}

// Compare orders records by day, clinic, time and name.
// Time is compared as a plain string.
func Compare(a, b Record) int {
	if d := DayIndex(a.Day) - DayIndex(b.Day); d != 0 {
		return sign(d)
	}
	if d := ClinicIndex(a.Clinic) - ClinicIndex(b.Clinic); d != 0 {
		return sign(d)
	}
	if c := strings.Compare(a.Time, b.Time); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

func sign(d int) int {
	if d < 0 {
		return -1
	}
	return 1
}

// Sort sorts records in place in canonical order; ties keep their input order.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return Compare(records[i], records[j]) < 0
	})
}

// CompareKeys orders keys the same way Compare orders records.
func CompareKeys(a, b Key) int {
	return Compare(Record{Day: a.Day, Clinic: a.Clinic}, Record{Day: b.Day, Clinic: b.Clinic})
}

// ParseDay canonicalizes a day name case-insensitively.
// Unrecognized input is returned trimmed but otherwise unchanged.
func ParseDay(s string) string { return canonical(Days, s) }

// ParseClinic accepts "Red Ball Clinic", "RedBallClinic", "red-ball-clinic" and so on.
func ParseClinic(s string) string { return canonical(Clinics, s) }

func canonical(list []string, s string) string {
	s = strings.TrimSpace(s)
	want := squash(s)
	for _, v := range list {
		if squash(v) == want {
			return v
		}
	}
	return s
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseKey parses "Monday - Red Ball Clinic" (the label form used by the sheet UI).
func ParseKey(label string) (Key, bool) {
	day, clinic, ok := strings.Cut(label, " - ")
	if !ok {
		return Key{}, false
	}
	k := Key{Day: ParseDay(day), Clinic: ParseClinic(clinic)}
	if k.Day == "" || k.Clinic == "" {
		return Key{}, false
	}
	return k, true
}

// DefaultDisplayOrder: 全曜日 × 全クリニック
func DefaultDisplayOrder() []Key {
	out := make([]Key, 0, len(Days)*len(Clinics))
	for _, d := range Days {
		for _, c := range Clinics {
			out = append(out, Key{Day: d, Clinic: c})
		}
	}
	return out
}

// Section is one (day, clinic) block of the grouped view.
type Section struct {
	Key     Key      `json:"key"`
	Label   string   `json:"label"`
	GroupID string   `json:"groupId,omitempty"`
	Columns []string `json:"extraColumns"`
	Records []Record `json:"records"`
}

// Sections groups records by (day, clinic) following displayOrder.
// Pairs missing from displayOrder are left out, as are records without day/clinic.
func Sections(records []Record, displayOrder []Key) []Section {
	byKey := make(map[Key][]Record)
	for _, r := range records {
		if !r.Keyed() {
			continue
		}
		byKey[r.Key()] = append(byKey[r.Key()], r)
	}

	out := make([]Section, 0, len(displayOrder))
	seen := make(map[Key]bool, len(displayOrder))
	for _, k := range displayOrder {
		if seen[k] {
			continue
		}
		seen[k] = true
		rs, ok := byKey[k]
		if !ok {
			continue
		}
		Sort(rs)
		out = append(out, Section{Key: k, Label: k.String(), Records: rs})
	}
	return out
}

// Keys returns the distinct (day, clinic) keys of records in canonical order.
func Keys(records []Record) []Key {
	seen := make(map[Key]bool)
	var out []Key
	for _, r := range records {
		if !r.Keyed() || seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		out = append(out, r.Key())
	}
	sort.SliceStable(out, func(i, j int) bool { return CompareKeys(out[i], out[j]) < 0 })
	return out
}
