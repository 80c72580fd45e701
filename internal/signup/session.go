package signup

import "strings"

// Session: "Day - Start - End" 1件分
type Session struct {
	Day   string `json:"day"`
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

// Time renders the slot the way it is stored on a record.
func (s Session) Time() string { return s.Start + " - " + s.End }

// ParseSessions splits a clinic cell such as
// "Monday - 3:00pm - 4:00pm, Tuesday - 5:00pm - 6:00pm" into sessions.
// Tokens that do not split into exactly three non-empty parts are dropped.
func ParseSessions(cell string) []Session {
	out := []Session{}
	if strings.TrimSpace(cell) == "" {
		return out
	}
	for _, tok := range strings.Split(cell, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.Split(tok, "-")
		if len(parts) != 3 {
			continue
		}
		day := strings.TrimSpace(parts[0])
		start := strings.TrimSpace(parts[1])
		end := strings.TrimSpace(parts[2])
		if day == "" || start == "" || end == "" {
			continue
		}
		out = append(out, Session{Day: day, Start: start, End: end})
	}
	return out
}
