package task

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// codedLine matches one dated subtask: a 4-digit MMDD code, a colon, then
// the rest of the line as the title.
var codedLine = regexp.MustCompile(`(\d{4}):\s*(.+)`)

// CodedLine is one raw (code, title) pair extracted from a description.
type CodedLine struct {
	Code  string
	Title string
}

// ExtractCodedLines returns every coded line in text, in order of
// occurrence. Titles are captured verbatim.
func ExtractCodedLines(text string) []CodedLine {
	matches := codedLine.FindAllStringSubmatch(text, -1)
	lines := make([]CodedLine, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, CodedLine{Code: m[1], Title: m[2]})
	}
	return lines
}

// DateCode is a parsed 4-digit date code. Invalid month/day combinations are
// not errors; they carry through tagged as invalid and render as the
// "Invalid date (CODE)" sentinel only at display boundaries.
type DateCode struct {
	Code  string
	Month time.Month
	Day   int
	valid bool
}

// Valid reports whether the code names a real month/day combination.
func (d DateCode) Valid() bool { return d.valid }

// Display renders the code as "March 05" style, or the invalid sentinel.
func (d DateCode) Display() string {
	if !d.valid {
		return fmt.Sprintf("Invalid date (%s)", d.Code)
	}
	return fmt.Sprintf("%s %02d", d.Month, d.Day)
}

// ParseDateCode interprets a 4-digit code as month+day. Validation uses year
// 1900, so "0229" is invalid.
func ParseDateCode(code string) DateCode {
	d := DateCode{Code: code}
	if len(code) != 4 {
		return d
	}
	month, err := strconv.Atoi(code[:2])
	if err != nil {
		return d
	}
	day, err := strconv.Atoi(code[2:])
	if err != nil {
		return d
	}
	// time.Date normalizes out-of-range values instead of rejecting them, so
	// round-trip the components to detect normalization.
	t := time.Date(1900, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(t.Month()) != month || t.Day() != day {
		return d
	}
	d.Month = time.Month(month)
	d.Day = day
	d.valid = true
	return d
}

// FormatDateCode is the display form of ParseDateCode.
func FormatDateCode(code string) string {
	return ParseDateCode(code).Display()
}

// BuildSubtasks derives the subtask list from a task description. The result
// is deterministic and ordered by appearance; an empty description yields an
// empty list.
func BuildSubtasks(description string) []Subtask {
	lines := ExtractCodedLines(description)
	subs := make([]Subtask, 0, len(lines))
	for _, l := range lines {
		subs = append(subs, Subtask{
			DateCode: l.Code,
			DateStr:  FormatDateCode(l.Code),
			Title:    l.Title,
			Status:   StatusNotStarted,
		})
	}
	return subs
}
