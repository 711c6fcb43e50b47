package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/faraz/taskctl/pkg/task"
)

// ErrNotFound is returned when no task matches the given key.
var ErrNotFound = errors.New("task not found")

// Filter for listing tasks
type Filter struct {
	Project string
}

// ExportRow is one task row with the subtasks column left as raw JSON so the
// exporter can apply its own per-row error handling.
type ExportRow struct {
	Project     string
	Task        string
	Description string
	Status      string
	SubtasksRaw string
}

// Store provides SQLite-backed CRUD operations for tasks
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project TEXT NOT NULL,
		task TEXT NOT NULL,
		description TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'Not Started',
		subtasks TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project);
	`
	_, err := s.db.Exec(schema)
	return err
}

// encodeSubtasks serializes the subtask list. A nil list encodes as "[]" so
// the column round-trips identically.
func encodeSubtasks(subs []task.Subtask) (string, error) {
	if subs == nil {
		subs = []task.Subtask{}
	}
	b, err := json.Marshal(subs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeSubtasks fails closed: a malformed blob yields an empty list rather
// than failing the whole listing.
func decodeSubtasks(raw string) []task.Subtask {
	var subs []task.Subtask
	if err := json.Unmarshal([]byte(raw), &subs); err != nil {
		return nil
	}
	return subs
}

// Create inserts a new task and assigns its ID.
func (s *Store) Create(t *task.Task) error {
	raw, err := encodeSubtasks(t.Subtasks)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		INSERT INTO tasks (project, task, description, status, subtasks)
		VALUES (?, ?, ?, ?, ?)`,
		t.Project, t.Name, t.Description, string(t.Status), raw,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// Get retrieves a task by id.
func (s *Store) Get(id int64) (*task.Task, error) {
	t := &task.Task{}
	var status, raw string

	err := s.db.QueryRow(`
		SELECT id, project, task, description, status, subtasks
		FROM tasks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Project, &t.Name, &t.Description, &status, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Status = task.Status(status)
	t.Subtasks = decodeSubtasks(raw)
	return t, nil
}

// ListProjects returns all distinct project names, alphabetical.
func (s *Store) ListProjects() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT project FROM tasks ORDER BY project`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// List returns tasks matching the filter, in insertion order.
func (s *Store) List(filter Filter) ([]task.Task, error) {
	query := `SELECT id, project, task, description, status, subtasks FROM tasks WHERE 1=1`
	var args []any

	if filter.Project != "" {
		query += " AND project = ?"
		args = append(args, filter.Project)
	}

	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []task.Task
	for rows.Next() {
		var t task.Task
		var status, raw string
		if err := rows.Scan(&t.ID, &t.Project, &t.Name, &t.Description, &status, &raw); err != nil {
			return nil, err
		}
		t.Status = task.Status(status)
		t.Subtasks = decodeSubtasks(raw)
		results = append(results, t)
	}

	return results, rows.Err()
}

// UpdateStatus sets the task-level status.
func (s *Store) UpdateStatus(id int64, status task.Status) error {
	return s.exec(`UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
}

// UpdateDescription replaces the description and the derived subtask list
// together.
func (s *Store) UpdateDescription(id int64, description string, subs []task.Subtask) error {
	raw, err := encodeSubtasks(subs)
	if err != nil {
		return err
	}
	return s.exec(`UPDATE tasks SET description = ?, subtasks = ? WHERE id = ?`, description, raw, id)
}

// UpdateSubtasks persists the full subtask list.
func (s *Store) UpdateSubtasks(id int64, subs []task.Subtask) error {
	raw, err := encodeSubtasks(subs)
	if err != nil {
		return err
	}
	return s.exec(`UPDATE tasks SET subtasks = ? WHERE id = ?`, raw, id)
}

// Delete removes a task by id.
func (s *Store) Delete(id int64) error {
	return s.exec(`DELETE FROM tasks WHERE id = ?`, id)
}

func (s *Store) exec(query string, args ...any) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSubtasksByName persists subtasks for every row matching the name
// pair. Legacy keying, kept for databases that rely on name-pair identity.
func (s *Store) UpdateSubtasksByName(project, name string, subs []task.Subtask) error {
	raw, err := encodeSubtasks(subs)
	if err != nil {
		return err
	}
	return s.exec(`UPDATE tasks SET subtasks = ? WHERE project = ? AND task = ?`, raw, project, name)
}

// UpdateDescriptionByName replaces the description and subtask list for
// every row matching the name pair. Legacy keying.
func (s *Store) UpdateDescriptionByName(project, name, description string, subs []task.Subtask) error {
	raw, err := encodeSubtasks(subs)
	if err != nil {
		return err
	}
	return s.exec(`UPDATE tasks SET description = ?, subtasks = ? WHERE project = ? AND task = ?`, description, raw, project, name)
}

// DeleteByName removes every row matching the name pair. Legacy keying:
// under duplicate names this deletes all of them.
func (s *Store) DeleteByName(project, name string) error {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE project = ? AND task = ?`, project, name)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, project, name)
	}
	return nil
}

// ExportRows returns every task with the subtasks column untouched.
func (s *Store) ExportRows() ([]ExportRow, error) {
	rows, err := s.db.Query(`SELECT project, task, description, status, subtasks FROM tasks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ExportRow
	for rows.Next() {
		var r ExportRow
		if err := rows.Scan(&r.Project, &r.Task, &r.Description, &r.Status, &r.SubtasksRaw); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// PutRawSubtasks writes an arbitrary string into the subtasks column. Lets
// imports and tests exercise malformed-blob handling.
func (s *Store) PutRawSubtasks(id int64, raw string) error {
	return s.exec(`UPDATE tasks SET subtasks = ? WHERE id = ?`, raw, id)
}
