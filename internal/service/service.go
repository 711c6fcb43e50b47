// Package service holds the session-scoped task list. It mirrors the store
// in memory and writes every mutation through; each handler receives the
// service explicitly rather than reaching for ambient session state.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/faraz/taskctl/internal/store"
	"github.com/faraz/taskctl/pkg/task"
)

// ErrValidation marks user input the creation form should warn about.
var ErrValidation = errors.New("validation failed")

// DueItem is one (task, subtask) pair on the daily view.
type DueItem struct {
	Task         *task.Task
	SubtaskIndex int
	Subtask      task.Subtask
	Class        task.DueClass
}

// Counts are the dashboard metrics.
type Counts struct {
	Overdue       int
	DueToday      int
	TotalProjects int
	TotalTasks    int
}

// Service owns the in-memory task list for one session.
type Service struct {
	store          *store.Store
	tasks          []*task.Task
	legacyNameKeys bool
}

// Option configures a Service.
type Option func(*Service)

// WithLegacyNameKeys keys subtask and description persistence by the
// (project, task) name pair instead of the row id, for databases that rely
// on name-pair identity. Under duplicate names every matching row is
// written while the cache changes only the addressed task.
func WithLegacyNameKeys() Option {
	return func(s *Service) { s.legacyNameKeys = true }
}

// New loads all tasks from the store into the session cache.
func New(st *store.Store, opts ...Option) (*Service, error) {
	loaded, err := st.List(store.Filter{})
	if err != nil {
		return nil, err
	}
	tasks := make([]*task.Task, len(loaded))
	for i := range loaded {
		t := loaded[i]
		tasks[i] = &t
	}
	s := &Service{store: st, tasks: tasks}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LegacyNameKeys reports whether name-pair keying is active.
func (s *Service) LegacyNameKeys() bool {
	return s.legacyNameKeys
}

// Create validates, derives subtasks from the description, persists, and
// appends to the session cache.
func (s *Service) Create(project, name, description string, status task.Status) (*task.Task, error) {
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("%w: project is required", ErrValidation)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: task is required", ErrValidation)
	}
	if status == "" {
		status = task.StatusNotStarted
	}
	if !task.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	t := &task.Task{
		Project:     project,
		Name:        name,
		Description: description,
		Status:      status,
		Subtasks:    task.BuildSubtasks(description),
	}
	if err := s.store.Create(t); err != nil {
		return nil, err
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Get returns the cached task with the given id.
func (s *Service) Get(id int64) (*task.Task, error) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

// UpdateDescription replaces the description and re-derives the subtask
// list. The previous list and its statuses are discarded wholesale.
func (s *Service) UpdateDescription(id int64, description string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	subs := task.BuildSubtasks(description)
	if s.legacyNameKeys {
		err = s.store.UpdateDescriptionByName(t.Project, t.Name, description, subs)
	} else {
		err = s.store.UpdateDescription(id, description, subs)
	}
	if err != nil {
		return err
	}
	t.Description = description
	t.Subtasks = subs
	return nil
}

// SetStatus sets the task-level status. It is independent of subtask
// statuses and never derived from them.
func (s *Service) SetStatus(id int64, status task.Status) error {
	if !task.ValidStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.store.UpdateStatus(id, status); err != nil {
		return err
	}
	t.Status = status
	return nil
}

// CompleteSubtask marks one subtask completed and persists the full list.
// Completing an already-completed subtask is a no-op.
func (s *Service) CompleteSubtask(id int64, index int) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(t.Subtasks) {
		return fmt.Errorf("subtask index %d out of range", index)
	}
	t.Subtasks[index].Status = task.StatusCompleted
	if s.legacyNameKeys {
		return s.store.UpdateSubtasksByName(t.Project, t.Name, t.Subtasks)
	}
	return s.store.UpdateSubtasks(id, t.Subtasks)
}

// Delete removes a task from the store and the session cache.
func (s *Service) Delete(id int64) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteByName is the legacy name-pair delete. The store drops every
// matching row while the cache drops only the first match; under duplicate
// names the two can disagree.
func (s *Service) DeleteByName(project, name string) error {
	if err := s.store.DeleteByName(project, name); err != nil {
		return err
	}
	for i, t := range s.tasks {
		if t.Project == project && t.Name == name {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	return nil
}

// Tasks returns the session task list in collection order.
func (s *Service) Tasks() []*task.Task {
	return s.tasks
}

// ProjectNames returns the distinct project names, alphabetical.
func (s *Service) ProjectNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, t := range s.tasks {
		if !seen[t.Project] {
			seen[t.Project] = true
			names = append(names, t.Project)
		}
	}
	sort.Strings(names)
	return names
}

// FilterByProject returns tasks in the given project, or all tasks when
// project is empty. Collection order is preserved.
func (s *Service) FilterByProject(project string) []*task.Task {
	if project == "" {
		return s.tasks
	}
	var out []*task.Task
	for _, t := range s.tasks {
		if t.Project == project {
			out = append(out, t)
		}
	}
	return out
}

// FilterByName narrows a task list to the given task name, or returns it
// unchanged when name is empty.
func (s *Service) FilterByName(name string, within []*task.Task) []*task.Task {
	if name == "" {
		return within
	}
	var out []*task.Task
	for _, t := range within {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}

// GroupByProject maps project name to its tasks in collection order. Use
// ProjectNames for alphabetical iteration.
func (s *Service) GroupByProject() map[string][]*task.Task {
	groups := map[string][]*task.Task{}
	for _, t := range s.tasks {
		groups[t.Project] = append(groups[t.Project], t)
	}
	return groups
}

// DueOrOverdue returns every (task, subtask) pair due on or before now's
// month+day, classified. Past completed subtasks are excluded; today's
// completed subtasks still appear.
func (s *Service) DueOrOverdue(now time.Time) []DueItem {
	todayNum := task.CodeNum(task.TodayCode(now))
	var items []DueItem
	for _, t := range s.tasks {
		for i, sub := range t.Subtasks {
			if !task.InDueList(sub, todayNum) {
				continue
			}
			items = append(items, DueItem{
				Task:         t,
				SubtaskIndex: i,
				Subtask:      sub,
				Class:        task.Classify(sub, todayNum),
			})
		}
	}
	return items
}

// Counts computes the dashboard metrics. Overdue and due-today count only
// non-completed subtasks.
func (s *Service) Counts(now time.Time) Counts {
	todayNum := task.CodeNum(task.TodayCode(now))
	c := Counts{
		TotalProjects: len(s.ProjectNames()),
		TotalTasks:    len(s.tasks),
	}
	for _, t := range s.tasks {
		for _, sub := range t.Subtasks {
			if sub.Status == task.StatusCompleted {
				continue
			}
			n := task.CodeNum(sub.DateCode)
			switch {
			case n < todayNum:
				c.Overdue++
			case n == todayNum:
				c.DueToday++
			}
		}
	}
	return c
}
