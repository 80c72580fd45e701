package signup

import (
	"clinic-roster/internal/attendance"
)

// ClinicColumn maps a clinic label to the sign-up column listing its sessions.
type ClinicColumn struct {
	Clinic string `yaml:"clinic" json:"clinic"`
	Column string `yaml:"column" json:"column"`
}

// DefaultClinicColumns returns "{Clinic} - Day & Time" for every known clinic.
func DefaultClinicColumns() []ClinicColumn {
	out := make([]ClinicColumn, 0, len(attendance.Clinics))
	for _, c := range attendance.Clinics {
		out = append(out, ClinicColumn{Clinic: c, Column: c + " - Day & Time"})
	}
	return out
}

// Expand fans every registrant out into one record per (clinic, session).
// Clinics are visited in the order given, registrants in table order.
func Expand(rs []Registrant, clinics []ClinicColumn, newID func() string) []attendance.Record {
	out := []attendance.Record{}
	for _, cc := range clinics {
		for _, r := range rs {
			v := r.Fields[cc.Column]
			if v == "" {
				continue
			}
			for _, s := range ParseSessions(v) {
				out = append(out, attendance.Record{
					RowID:        newID(),
					Day:          attendance.ParseDay(s.Day),
					Clinic:       cc.Clinic,
					Time:         s.Time(),
					Name:         r.Name,
					Age:          r.Age,
					GuardianName: r.GuardianName,
					ContactEmail: r.ContactEmail,
					ContactPhone: r.ContactPhone,
				})
			}
		}
	}
	return out
}

// BuildAttendance runs normalize → expand → sort on a raw table.
func BuildAttendance(t Table, clinics []ClinicColumn, newID func() string) []attendance.Record {
	if len(clinics) == 0 {
		return []attendance.Record{}
	}
	records := Expand(Normalize(t, newID), clinics, newID)
	attendance.Sort(records)
	return records
}
