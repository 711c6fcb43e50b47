package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/faraz/taskctl/pkg/task"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAssignsID(t *testing.T) {
	s := newTestStore(t)

	tk := &task.Task{Project: "lab", Name: "assay", Status: task.StatusNotStarted}
	if err := s.Create(tk); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tk.ID == 0 {
		t.Errorf("Create() did not assign an id")
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	tk := &task.Task{
		Project:     "lab",
		Name:        "assay",
		Description: "0305: run assay\n0310: analyze",
		Status:      task.StatusInProgress,
		Subtasks:    task.BuildSubtasks("0305: run assay\n0310: analyze"),
	}
	if err := s.Create(tk); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := s.Get(tk.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, tk) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, tk)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(42) error = %v, want ErrNotFound", err)
	}
}

func TestListProjects(t *testing.T) {
	s := newTestStore(t)

	s.Create(&task.Task{Project: "zeta", Name: "t1", Status: task.StatusNotStarted})
	s.Create(&task.Task{Project: "alpha", Name: "t2", Status: task.StatusNotStarted})
	s.Create(&task.Task{Project: "zeta", Name: "t3", Status: task.StatusNotStarted})

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	want := []string{"alpha", "zeta"}
	if !reflect.DeepEqual(projects, want) {
		t.Errorf("ListProjects() = %v, want %v", projects, want)
	}
}

func TestListFilterByProject(t *testing.T) {
	s := newTestStore(t)

	s.Create(&task.Task{Project: "lab", Name: "t1", Status: task.StatusNotStarted})
	s.Create(&task.Task{Project: "lab", Name: "t2", Status: task.StatusNotStarted})
	s.Create(&task.Task{Project: "other", Name: "t3", Status: task.StatusNotStarted})

	all, _ := s.List(Filter{})
	if len(all) != 3 {
		t.Errorf("List() all = %d, want 3", len(all))
	}

	labOnly, _ := s.List(Filter{Project: "lab"})
	if len(labOnly) != 2 {
		t.Errorf("List(project=lab) = %d, want 2", len(labOnly))
	}
}

func TestUpdateStatus(t *testing.T) {
	s := newTestStore(t)

	tk := &task.Task{Project: "lab", Name: "assay", Status: task.StatusNotStarted}
	s.Create(tk)

	if err := s.UpdateStatus(tk.ID, task.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	got, _ := s.Get(tk.ID)
	if got.Status != task.StatusCompleted {
		t.Errorf("Status = %q, want Completed", got.Status)
	}
}

func TestUpdateDescriptionReplacesSubtasks(t *testing.T) {
	s := newTestStore(t)

	desc := "0305: old step"
	tk := &task.Task{Project: "lab", Name: "assay", Description: desc, Status: task.StatusNotStarted, Subtasks: task.BuildSubtasks(desc)}
	s.Create(tk)

	newDesc := "0401: new step\n0402: another"
	if err := s.UpdateDescription(tk.ID, newDesc, task.BuildSubtasks(newDesc)); err != nil {
		t.Fatalf("UpdateDescription() error = %v", err)
	}

	got, _ := s.Get(tk.ID)
	if got.Description != newDesc {
		t.Errorf("Description = %q, want %q", got.Description, newDesc)
	}
	if len(got.Subtasks) != 2 || got.Subtasks[0].DateCode != "0401" {
		t.Errorf("Subtasks = %+v, want 2 entries starting 0401", got.Subtasks)
	}
}

func TestUpdateSubtasks(t *testing.T) {
	s := newTestStore(t)

	desc := "0305: step"
	tk := &task.Task{Project: "lab", Name: "assay", Description: desc, Status: task.StatusNotStarted, Subtasks: task.BuildSubtasks(desc)}
	s.Create(tk)

	tk.Subtasks[0].Status = task.StatusCompleted
	if err := s.UpdateSubtasks(tk.ID, tk.Subtasks); err != nil {
		t.Fatalf("UpdateSubtasks() error = %v", err)
	}

	got, _ := s.Get(tk.ID)
	if got.Subtasks[0].Status != task.StatusCompleted {
		t.Errorf("Subtasks[0].Status = %q, want Completed", got.Subtasks[0].Status)
	}
}

func TestUpdateSubtasksByNameWritesAllMatches(t *testing.T) {
	s := newTestStore(t)

	desc := "0305: step"
	first := &task.Task{Project: "lab", Name: "dup", Description: desc, Status: task.StatusNotStarted, Subtasks: task.BuildSubtasks(desc)}
	second := &task.Task{Project: "lab", Name: "dup", Description: desc, Status: task.StatusNotStarted, Subtasks: task.BuildSubtasks(desc)}
	other := &task.Task{Project: "lab", Name: "other", Description: desc, Status: task.StatusNotStarted, Subtasks: task.BuildSubtasks(desc)}
	s.Create(first)
	s.Create(second)
	s.Create(other)

	subs := task.BuildSubtasks(desc)
	subs[0].Status = task.StatusCompleted
	if err := s.UpdateSubtasksByName("lab", "dup", subs); err != nil {
		t.Fatalf("UpdateSubtasksByName() error = %v", err)
	}

	for _, id := range []int64{first.ID, second.ID} {
		got, _ := s.Get(id)
		if got.Subtasks[0].Status != task.StatusCompleted {
			t.Errorf("row %d Subtasks[0].Status = %q, want Completed", id, got.Subtasks[0].Status)
		}
	}
	untouched, _ := s.Get(other.ID)
	if untouched.Subtasks[0].Status != task.StatusNotStarted {
		t.Errorf("other row Subtasks[0].Status = %q, want Not Started", untouched.Subtasks[0].Status)
	}
}

func TestUpdateDescriptionByNameWritesAllMatches(t *testing.T) {
	s := newTestStore(t)

	s.Create(&task.Task{Project: "lab", Name: "dup", Description: "0305: old", Status: task.StatusNotStarted})
	s.Create(&task.Task{Project: "lab", Name: "dup", Description: "0305: old", Status: task.StatusNotStarted})

	subs := task.BuildSubtasks("0401: new")
	if err := s.UpdateDescriptionByName("lab", "dup", "0401: new", subs); err != nil {
		t.Fatalf("UpdateDescriptionByName() error = %v", err)
	}

	rows, _ := s.List(Filter{})
	for _, got := range rows {
		if got.Description != "0401: new" {
			t.Errorf("row %d description = %q, want %q", got.ID, got.Description, "0401: new")
		}
		if len(got.Subtasks) != 1 || got.Subtasks[0].DateStr != "April 01" {
			t.Errorf("row %d subtasks = %+v, want one April 01 entry", got.ID, got.Subtasks)
		}
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	tk := &task.Task{Project: "lab", Name: "assay", Status: task.StatusNotStarted}
	s.Create(tk)

	if err := s.Delete(tk.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(tk.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteByNameRemovesAllMatches(t *testing.T) {
	s := newTestStore(t)

	// Duplicate name pairs are allowed; legacy delete takes out all of them.
	s.Create(&task.Task{Project: "lab", Name: "dup", Status: task.StatusNotStarted})
	s.Create(&task.Task{Project: "lab", Name: "dup", Status: task.StatusNotStarted})
	s.Create(&task.Task{Project: "lab", Name: "other", Status: task.StatusNotStarted})

	if err := s.DeleteByName("lab", "dup"); err != nil {
		t.Fatalf("DeleteByName() error = %v", err)
	}

	remaining, _ := s.List(Filter{})
	if len(remaining) != 1 || remaining[0].Name != "other" {
		t.Errorf("remaining = %+v, want only 'other'", remaining)
	}
}

func TestMalformedSubtasksFailClosed(t *testing.T) {
	s := newTestStore(t)

	tk := &task.Task{Project: "lab", Name: "assay", Status: task.StatusNotStarted}
	s.Create(tk)
	if err := s.PutRawSubtasks(tk.ID, "{not json"); err != nil {
		t.Fatalf("PutRawSubtasks() error = %v", err)
	}

	got, err := s.Get(tk.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Subtasks) != 0 {
		t.Errorf("Subtasks = %+v, want empty on malformed blob", got.Subtasks)
	}

	// Listing must not fail either.
	if _, err := s.List(Filter{}); err != nil {
		t.Errorf("List() error = %v", err)
	}
}

func TestExportRowsPreserveRawBlob(t *testing.T) {
	s := newTestStore(t)

	tk := &task.Task{Project: "lab", Name: "assay", Status: task.StatusNotStarted}
	s.Create(tk)
	s.PutRawSubtasks(tk.ID, "{not json")

	rows, err := s.ExportRows()
	if err != nil {
		t.Fatalf("ExportRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ExportRows() = %d rows, want 1", len(rows))
	}
	if rows[0].SubtasksRaw != "{not json" {
		t.Errorf("SubtasksRaw = %q, want raw blob untouched", rows[0].SubtasksRaw)
	}
}
