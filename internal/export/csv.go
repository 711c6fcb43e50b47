// Package export flattens all tasks into CSV rows.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"

	"github.com/faraz/taskctl/internal/store"
	"github.com/faraz/taskctl/pkg/task"
)

// InvalidSubtasksSentinel replaces the subtasks cell when a row's persisted
// blob cannot be decoded. The failure is isolated to that row.
const InvalidSubtasksSentinel = "[Invalid subtasks]"

// Header is the CSV header row.
var Header = []string{"Project", "Task", "Description", "Status", "Subtasks"}

// Row is one flattened task.
type Row struct {
	Project     string
	Task        string
	Description string
	Status      string
	Subtasks    string
}

// Rows reads every task from the store and renders its subtasks cell.
func Rows(st *store.Store) ([]Row, error) {
	raw, err := st.ExportRows()
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(raw))
	for i, r := range raw {
		rows[i] = Row{
			Project:     r.Project,
			Task:        r.Task,
			Description: r.Description,
			Status:      r.Status,
			Subtasks:    renderCell(r.SubtasksRaw),
		}
	}
	return rows, nil
}

func renderCell(rawJSON string) string {
	var subs []task.Subtask
	if err := json.Unmarshal([]byte(rawJSON), &subs); err != nil {
		return InvalidSubtasksSentinel
	}
	return task.RenderSubtaskLines(subs)
}

// WriteCSV writes the full export to w.
func WriteCSV(st *store.Store, w io.Writer) error {
	rows, err := Rows(st)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Project, r.Task, r.Description, r.Status, r.Subtasks}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the full export to path.
func WriteFile(st *store.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(st, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
