package task

import (
	"fmt"
	"strings"
)

// Status represents task and subtask progress
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists all statuses in form-selector order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Subtask is one dated line extracted from a task description. The JSON tags
// define the wire format of the persisted subtasks column.
type Subtask struct {
	DateCode string `json:"date_code"`
	DateStr  string `json:"date_str"`
	Title    string `json:"title"`
	Status   Status `json:"status"`
}

// Task is one row of the tracker. ID is assigned by the store; Project and
// Name group and label the task but are not identity.
type Task struct {
	ID          int64
	Project     string
	Name        string
	Description string
	Status      Status
	Subtasks    []Subtask
}

// RenderSubtaskLines formats subtasks as newline-joined
// "<date_str>: <title> [<status>]" entries, the CSV export cell format.
func RenderSubtaskLines(subs []Subtask) string {
	lines := make([]string, len(subs))
	for i, s := range subs {
		lines[i] = fmt.Sprintf("%s: %s [%s]", s.DateStr, s.Title, s.Status)
	}
	return strings.Join(lines, "\n")
}
