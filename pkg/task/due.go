package task

import (
	"strconv"
	"time"
)

// DueClass classifies a subtask on the daily view.
type DueClass string

const (
	ClassCompleted DueClass = "completed"
	ClassOverdue   DueClass = "overdue"
	ClassDueToday  DueClass = "due_today"
)

// CodeNum returns the date code as a flat MMDD integer ("0305" -> 305).
// Codes compare as plain integers with no year rollover: "1231" is always
// greater than "0101" regardless of chronological proximity.
func CodeNum(code string) int {
	n, _ := strconv.Atoi(code)
	return n
}

// TodayCode returns t's month+day as a 4-digit code.
func TodayCode(t time.Time) string {
	return t.Format("0102")
}

// InDueList reports whether a subtask belongs on the daily view for the
// given MMDD integer. Completed subtasks from past dates are hidden;
// completed subtasks due today still show.
func InDueList(sub Subtask, todayNum int) bool {
	n := CodeNum(sub.DateCode)
	if sub.Status == StatusCompleted && n < todayNum {
		return false
	}
	return n <= todayNum
}

// Classify returns the daily-view class for a subtask already known to be in
// the due list.
func Classify(sub Subtask, todayNum int) DueClass {
	if sub.Status == StatusCompleted {
		return ClassCompleted
	}
	if CodeNum(sub.DateCode) < todayNum {
		return ClassOverdue
	}
	return ClassDueToday
}
