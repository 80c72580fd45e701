package attendance

import (
	"strings"
	"time"
)

// Record: 1行 = (参加者, 曜日, クリニック, 時間帯)
type Record struct {
	RowID        string            `json:"rowId"`
	Day          string            `json:"Day"`
	Clinic       string            `json:"Clinic"`
	Time         string            `json:"Time"`
	Name         string            `json:"Name"`
	Age          string            `json:"Age"`
	GuardianName string            `json:"GuardianName"`
	ContactEmail string            `json:"ContactEmail"`
	ContactPhone string            `json:"ContactPhone"`
	Comments     string            `json:"Comments"`
	Fee          string            `json:"Fee"`
	Extra        map[string]string `json:"extra,omitempty"`
	// 手動追加された行（空行の追加 / 未知の rowId での編集）
	Manual bool `json:"manual,omitempty"`
}

// Key returns the (day, clinic) pair the record is grouped under.
func (r Record) Key() Key { return Key{Day: r.Day, Clinic: r.Clinic} }

// Keyed reports whether the record carries both grouping keys.
func (r Record) Keyed() bool { return r.Day != "" && r.Clinic != "" }

// Clone copies the record including its extra map.
func (r Record) Clone() Record {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ExtraValue: 未設定の追加列は空文字
func (r Record) ExtraValue(col string) string {
	if r.Extra == nil {
		return ""
	}
	return r.Extra[col]
}

// Key identifies a clinic sheet.
type Key struct {
	Day    string `json:"day"`
	Clinic string `json:"clinic"`
}

func (k Key) String() string { return k.Day + " - " + k.Clinic }

// Group: 永続化の単位
//
// per_clinic ポリシーでは Day/Clinic が入り、per_upload ポリシーでは空（アップロード全体）。
type Group struct {
	ID        string    `json:"groupId"`
	Day       string    `json:"day,omitempty"`
	Clinic    string    `json:"clinic,omitempty"`
	Session   string    `json:"session"`
	Source    string    `json:"source,omitempty"`
	Records   []Record  `json:"records"`
	Columns   []string  `json:"extraColumns"`
	CreatedAt time.Time `json:"createdAt"`
}

// Scoped reports whether the group belongs to a single (day, clinic).
func (g Group) Scoped() bool { return g.Day != "" || g.Clinic != "" }

// Key is only meaningful for scoped groups.
func (g Group) Key() Key { return Key{Day: g.Day, Clinic: g.Clinic} }

// Contains reports whether the group holds records for k, or is scoped to k.
func (g Group) Contains(k Key) bool {
	if g.Scoped() && g.Key() == k {
		return true
	}
	for _, r := range g.Records {
		if r.Key() == k {
			return true
		}
	}
	return false
}

// Filter returns the records matching k, in stored order.
func (g Group) Filter(k Key) []Record {
	out := make([]Record, 0, len(g.Records))
	for _, r := range g.Records {
		if r.Key() == k {
			out = append(out, r)
		}
	}
	return out
}

// IndexOf returns the position of rowID in Records or -1.
func (g Group) IndexOf(rowID string) int {
	for i := range g.Records {
		if g.Records[i].RowID == rowID {
			return i
		}
	}
	return -1
}

// HasColumn reports whether an extra column is registered on the group.
func (g Group) HasColumn(name string) bool {
	for _, c := range g.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone deep-copies the group.
func (g Group) Clone() Group {
	out := g
	out.Records = make([]Record, len(g.Records))
	for i := range g.Records {
		out.Records[i] = g.Records[i].Clone()
	}
	out.Columns = append([]string(nil), g.Columns...)
	return out
}

// CoreFields are the persisted field names that can never be used as extra columns.
var CoreFields = []string{
	"rowId", "Day", "Clinic", "Time", "Name", "Age", "GuardianName",
	"ContactEmail", "ContactPhone", "Comments", "Fee",
}

// IsCoreField: 大文字小文字は区別しない
func IsCoreField(name string) bool {
	for _, f := range CoreFields {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}
