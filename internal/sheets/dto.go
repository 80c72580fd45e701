package sheets

import (
	"time"

	"clinic-roster/internal/attendance"
)

// ===== Requests =====

type ImportRequest struct {
	SheetURL string `json:"sheet_url" binding:"required"`
	Session  string `json:"session"`
}

// RowEdit: nil = 未送信（変更なし）、"" = 空に更新
type RowEdit struct {
	RowID        string            `json:"rowId"`
	Time         *string           `json:"Time,omitempty"`
	Name         *string           `json:"Name,omitempty"`
	Age          *string           `json:"Age,omitempty"`
	GuardianName *string           `json:"GuardianName,omitempty"`
	ContactEmail *string           `json:"ContactEmail,omitempty"`
	ContactPhone *string           `json:"ContactPhone,omitempty"`
	Comments     *string           `json:"Comments,omitempty"`
	Fee          *string           `json:"Fee,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
	Delete       bool              `json:"delete,omitempty"`
}

func (e RowEdit) apply(r *attendance.Record) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.Time, e.Time)
	set(&r.Name, e.Name)
	set(&r.Age, e.Age)
	set(&r.GuardianName, e.GuardianName)
	set(&r.ContactEmail, e.ContactEmail)
	set(&r.ContactPhone, e.ContactPhone)
	set(&r.Comments, e.Comments)
	set(&r.Fee, e.Fee)
	if len(e.Extra) == 0 {
		return
	}
	if r.Extra == nil {
		r.Extra = make(map[string]string, len(e.Extra))
	}
	for c, v := range e.Extra {
		r.Extra[c] = v
	}
}

type ApplyEditsRequest struct {
	Rows          []RowEdit `json:"rows"`
	DeletedRowIDs []string  `json:"deleted_row_ids"`
}

type AddColumnRequest struct {
	Name string `json:"name" binding:"required"`
}

// ===== Responses =====

type GroupSummary struct {
	GroupID   string    `json:"group_id"`
	Day       string    `json:"day,omitempty"`
	Clinic    string    `json:"clinic,omitempty"`
	Session   string    `json:"session"`
	Source    string    `json:"source,omitempty"`
	Records   int       `json:"records"`
	Columns   []string  `json:"extra_columns"`
	CreatedAt time.Time `json:"created_at"`
}

func summarize(g attendance.Group) GroupSummary {
	return GroupSummary{
		GroupID:   g.ID,
		Day:       g.Day,
		Clinic:    g.Clinic,
		Session:   g.Session,
		Source:    g.Source,
		Records:   len(g.Records),
		Columns:   append([]string{}, g.Columns...),
		CreatedAt: g.CreatedAt,
	}
}

type ImportResult struct {
	Policy  Policy         `json:"policy"`
	Session string         `json:"session"`
	Records int            `json:"records"`
	Skipped int            `json:"skipped"` // day/clinic なし（一覧には出ない）
	Groups  []GroupSummary `json:"groups"`
}

type EditResult struct {
	GroupID string              `json:"group_id"`
	Updated int                 `json:"updated"`
	Deleted int                 `json:"deleted"`
	Created []attendance.Record `json:"created"`
}

type Preview struct {
	Records  []attendance.Record  `json:"records"`
	Sections []attendance.Section `json:"sections"`
}

type RosterView struct {
	Key     attendance.Key      `json:"key"`
	GroupID string              `json:"group_id"`
	Session string              `json:"session"`
	Columns []string            `json:"extra_columns"`
	Records []attendance.Record `json:"records"`
}

type errDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
