package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/faraz/taskctl/internal/store"
	"github.com/faraz/taskctl/pkg/task"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRows(t *testing.T) {
	st := newTestStore(t)

	desc := "0305: run assay\n0310: analyze"
	subs := task.BuildSubtasks(desc)
	subs[1].Status = task.StatusCompleted
	st.Create(&task.Task{
		Project:     "lab",
		Name:        "assay",
		Description: desc,
		Status:      task.StatusInProgress,
		Subtasks:    subs,
	})

	rows, err := Rows(st)
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Rows() = %d rows, want 1", len(rows))
	}

	want := Row{
		Project:     "lab",
		Task:        "assay",
		Description: desc,
		Status:      "In Progress",
		Subtasks:    "March 05: run assay [Not Started]\nMarch 10: analyze [Completed]",
	}
	if rows[0] != want {
		t.Errorf("Rows()[0] = %+v, want %+v", rows[0], want)
	}
}

func TestRowsInvalidSubtasksIsolatedPerRow(t *testing.T) {
	st := newTestStore(t)

	good := &task.Task{Project: "lab", Name: "good", Status: task.StatusNotStarted, Subtasks: task.BuildSubtasks("0305: ok")}
	bad := &task.Task{Project: "lab", Name: "bad", Status: task.StatusNotStarted}
	st.Create(good)
	st.Create(bad)
	st.PutRawSubtasks(bad.ID, "{corrupt")

	rows, err := Rows(st)
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Rows() = %d rows, want 2", len(rows))
	}
	if rows[0].Subtasks != "March 05: ok [Not Started]" {
		t.Errorf("good row subtasks = %q", rows[0].Subtasks)
	}
	if rows[1].Subtasks != InvalidSubtasksSentinel {
		t.Errorf("bad row subtasks = %q, want %q", rows[1].Subtasks, InvalidSubtasksSentinel)
	}
}

func TestWriteCSV(t *testing.T) {
	st := newTestStore(t)

	st.Create(&task.Task{
		Project:     "lab",
		Name:        "assay",
		Description: "0305: run assay",
		Status:      task.StatusNotStarted,
		Subtasks:    task.BuildSubtasks("0305: run assay"),
	})

	var buf strings.Builder
	if err := WriteCSV(st, &buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("CSV has %d records, want header + 1 row", len(records))
	}
	if !reflect.DeepEqual(records[0], Header) {
		t.Errorf("header = %v, want %v", records[0], Header)
	}
	if records[1][0] != "lab" || records[1][1] != "assay" {
		t.Errorf("row = %v", records[1])
	}
	if records[1][4] != "March 05: run assay [Not Started]" {
		t.Errorf("subtasks cell = %q", records[1][4])
	}
}

func TestWriteFile(t *testing.T) {
	st := newTestStore(t)
	st.Create(&task.Task{Project: "lab", Name: "assay", Status: task.StatusNotStarted})

	path := filepath.Join(t.TempDir(), "all_tasks_export.csv")
	if err := WriteFile(st, path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export file: %v", err)
	}
	if !strings.HasPrefix(string(data), "Project,Task,Description,Status,Subtasks") {
		t.Errorf("export file should start with the header row")
	}
}
