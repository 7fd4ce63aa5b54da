package chatlog

import (
	"fmt"
	"regexp"
	"strconv"
)

// entryOpen matches the bracketed date prefix that opens a new log entry.
// Any physical line beginning with this pattern starts a new entry; everything
// else is a continuation of the entry before it.
var entryOpen = regexp.MustCompile(`^\[\d{4}/\d{2}/\d{2}`)

// timestampPattern extracts the components of an entry timestamp. Three shapes
// are accepted: [YYYY/MM/DD HH:MM:SS], [YYYY/MM/DD HH:MM], and the 12-hour
// [YYYY/MM/DD HH:MM AM/PM]. Hours and minutes may be one or two digits.
var timestampPattern = regexp.MustCompile(`^\[(\d{4})/(\d{2})/(\d{2}) (\d{1,2}):(\d{1,2})(?::(\d{2}))?( [AP]M)?\]`)

// Timestamp is the parsed, 24-hour form of an entry's leading bracket.
// Date fields stay as the original strings; hour and minute are numeric so
// single-digit inputs can be re-rendered zero-padded.
type Timestamp struct {
	Year   string
	Month  string
	Day    string
	Hour   int
	Minute int

	// Second holds the two-digit seconds field when present.
	Second     string
	HasSeconds bool
}

// ParseTimestamp parses the timestamp bracket at the start of line. It returns
// the parsed timestamp, the remainder of the line after the closing bracket,
// and whether the bracket matched an accepted shape with in-range fields.
// 12-hour inputs are converted to 24-hour here (12 AM -> 00, 12 PM -> 12,
// 1-11 PM -> 13-23).
func ParseTimestamp(line string) (Timestamp, string, bool) {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return Timestamp{}, "", false
	}

	ts := Timestamp{
		Year:  m[1],
		Month: m[2],
		Day:   m[3],
	}
	ts.Hour, _ = strconv.Atoi(m[4])
	ts.Minute, _ = strconv.Atoi(m[5])
	if m[6] != "" {
		ts.Second = m[6]
		ts.HasSeconds = true
	}
	meridiem := ""
	if m[7] != "" {
		meridiem = m[7][1:] // strip the leading space
	}

	if !validRange(ts, meridiem) {
		return Timestamp{}, "", false
	}

	switch meridiem {
	case "AM":
		if ts.Hour == 12 {
			ts.Hour = 0
		}
	case "PM":
		if ts.Hour != 12 {
			ts.Hour += 12
		}
	}

	return ts, line[len(m[0]):], true
}

// validRange rejects brackets that match the shape but carry impossible
// field values, such as [2024/13/40 99:99].
func validRange(ts Timestamp, meridiem string) bool {
	month, _ := strconv.Atoi(ts.Month)
	day, _ := strconv.Atoi(ts.Day)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	if ts.Minute > 59 {
		return false
	}
	if ts.HasSeconds {
		if sec, _ := strconv.Atoi(ts.Second); sec > 59 {
			return false
		}
	}
	if meridiem != "" {
		return ts.Hour >= 1 && ts.Hour <= 12
	}
	return ts.Hour <= 23
}

// Canonical renders the timestamp in the fixed-width 24-hour form used for
// sorting and emission. Seconds appear only when the source carried them.
func (t Timestamp) Canonical() string {
	if t.HasSeconds {
		return fmt.Sprintf("[%s/%s/%s %02d:%02d:%s]", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("[%s/%s/%s %02d:%02d]", t.Year, t.Month, t.Day, t.Hour, t.Minute)
}
