package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/faraz/taskctl/internal/store"
	"github.com/faraz/taskctl/pkg/task"
)

// View represents the current view state
type View int

const (
	ProjectListView View = iota
	TaskListView
	DetailView
	DailyView
)

// KeyMap defines key bindings
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Quit    key.Binding
	Refresh key.Binding
	Daily   key.Binding
}

var keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "backspace"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Daily: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "today"),
	),
}

// dueEntry is one row of the daily view.
type dueEntry struct {
	taskName string
	project  string
	sub      task.Subtask
	class    task.DueClass
}

// Model is the main TUI model
type Model struct {
	store          *store.Store
	view           View
	projects       []string
	tasks          []task.Task
	selected       *task.Task
	due            []dueEntry
	cursor         int
	currentProject string
	width          int
	height         int
	err            error
}

// New creates a new TUI model
func New(st *store.Store) Model {
	return Model{
		store: st,
		view:  ProjectListView,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.loadProjects
}

func (m Model) loadProjects() tea.Msg {
	projects, err := m.store.ListProjects()
	if err != nil {
		return errMsg{err}
	}
	return projectsMsg(projects)
}

func (m Model) loadTasks() tea.Msg {
	tasks, err := m.store.List(store.Filter{Project: m.currentProject})
	if err != nil {
		return errMsg{err}
	}
	return tasksMsg(tasks)
}

func (m Model) loadDaily() tea.Msg {
	tasks, err := m.store.List(store.Filter{})
	if err != nil {
		return errMsg{err}
	}

	todayNum := task.CodeNum(task.TodayCode(time.Now()))
	var due []dueEntry
	for _, t := range tasks {
		for _, sub := range t.Subtasks {
			if !task.InDueList(sub, todayNum) {
				continue
			}
			due = append(due, dueEntry{
				taskName: t.Name,
				project:  t.Project,
				sub:      sub,
				class:    task.Classify(sub, todayNum),
			})
		}
	}
	return dailyMsg(due)
}

type errMsg struct{ err error }
type projectsMsg []string
type tasksMsg []task.Task
type dailyMsg []dueEntry

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			maxItems := m.maxItems()
			if m.cursor < maxItems-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, keys.Enter):
			return m.handleSelect()

		case key.Matches(msg, keys.Back):
			return m.handleBack()

		case key.Matches(msg, keys.Refresh):
			return m.refresh()

		case key.Matches(msg, keys.Daily):
			m.view = DailyView
			m.cursor = 0
			return m, m.loadDaily
		}

	case errMsg:
		m.err = msg.err
		return m, nil

	case projectsMsg:
		m.projects = msg
		m.cursor = 0
		return m, nil

	case tasksMsg:
		m.tasks = msg
		m.cursor = 0
		return m, nil

	case dailyMsg:
		m.due = msg
		return m, nil
	}

	return m, nil
}

func (m Model) maxItems() int {
	switch m.view {
	case ProjectListView:
		return len(m.projects)
	case TaskListView:
		return len(m.tasks)
	default:
		return 0
	}
}

func (m Model) handleSelect() (tea.Model, tea.Cmd) {
	switch m.view {
	case ProjectListView:
		if m.cursor < len(m.projects) {
			m.currentProject = m.projects[m.cursor]
			m.view = TaskListView
			m.cursor = 0
			return m, m.loadTasks
		}
	case TaskListView:
		if m.cursor < len(m.tasks) {
			t := m.tasks[m.cursor]
			m.selected = &t
			m.view = DetailView
		}
	}
	return m, nil
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	switch m.view {
	case TaskListView:
		m.view = ProjectListView
		m.cursor = 0
		m.currentProject = ""
	case DetailView:
		m.view = TaskListView
		m.selected = nil
	case DailyView:
		m.view = ProjectListView
		m.cursor = 0
	}
	return m, nil
}

func (m Model) refresh() (tea.Model, tea.Cmd) {
	switch m.view {
	case ProjectListView:
		return m, m.loadProjects
	case TaskListView:
		return m, m.loadTasks
	case DailyView:
		return m, m.loadDaily
	}
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	var s strings.Builder

	s.WriteString(m.renderHeader())
	s.WriteString("\n\n")

	switch m.view {
	case ProjectListView:
		s.WriteString(m.renderProjectList())
	case TaskListView:
		s.WriteString(m.renderTaskList())
	case DetailView:
		s.WriteString(m.renderDetail())
	case DailyView:
		s.WriteString(m.renderDaily())
	}

	s.WriteString("\n\n")
	s.WriteString(m.renderHelp())

	return s.String()
}

func (m Model) renderHeader() string {
	var title string
	switch m.view {
	case ProjectListView:
		title = "Projects"
	case TaskListView:
		title = fmt.Sprintf("Projects > %s", m.currentProject)
	case DetailView:
		if m.selected != nil {
			title = fmt.Sprintf("Projects > %s > %s", m.currentProject, m.selected.Name)
		}
	case DailyView:
		title = fmt.Sprintf("Due %s and earlier", time.Now().Format("January 02"))
	}
	return headerStyle.Render(title)
}

func (m Model) renderProjectList() string {
	if len(m.projects) == 0 {
		return subtitleStyle.Render("No projects found")
	}

	var s strings.Builder
	for i, p := range m.projects {
		cursor := "  "
		style := normalStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedStyle
		}
		s.WriteString(fmt.Sprintf("%s%s\n", cursor, style.Render(p)))
	}
	return s.String()
}

func (m Model) renderTaskList() string {
	if len(m.tasks) == 0 {
		return subtitleStyle.Render("No tasks found")
	}

	var s strings.Builder
	for i, t := range m.tasks {
		cursor := "  "
		style := normalStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedStyle
		}

		statusStr := StatusStyle(t.Status).Render(fmt.Sprintf("[%s]", t.Status))
		subCount := ""
		if len(t.Subtasks) > 0 {
			subCount = subtitleStyle.Render(fmt.Sprintf(" (%d subtasks)", len(t.Subtasks)))
		}

		line := fmt.Sprintf("%s %s%s", style.Render(t.Name), statusStr, subCount)
		s.WriteString(fmt.Sprintf("%s%s\n", cursor, line))
	}
	return s.String()
}

func (m Model) renderDetail() string {
	if m.selected == nil {
		return "No task selected"
	}

	t := m.selected
	var s strings.Builder

	statusStyle := StatusStyle(t.Status)
	s.WriteString(fmt.Sprintf("Status: %s\n\n", statusStyle.Render(string(t.Status))))

	s.WriteString(titleStyle.Render("Description"))
	s.WriteString("\n")
	if t.Description != "" {
		s.WriteString(t.Description)
	} else {
		s.WriteString(subtitleStyle.Render("(empty)"))
	}
	s.WriteString("\n\n")

	if len(t.Subtasks) > 0 {
		s.WriteString(titleStyle.Render("Subtasks"))
		s.WriteString("\n")
		for i, sub := range t.Subtasks {
			check := "[ ]"
			if sub.Status == task.StatusCompleted {
				check = "[x]"
			}
			line := fmt.Sprintf("%d. %s %s: %s", i+1, check, sub.DateStr, sub.Title)
			s.WriteString(StatusStyle(sub.Status).Render(line))
			s.WriteString("\n")
		}
	}

	return s.String()
}

func (m Model) renderDaily() string {
	if len(m.due) == 0 {
		return subtitleStyle.Render("No subtasks due today or earlier")
	}

	var s strings.Builder
	for _, e := range m.due {
		var line string
		switch e.class {
		case task.ClassCompleted:
			line = completedStyle.Render(fmt.Sprintf("%s (%s/%s)", e.sub.Title, e.project, e.taskName))
		case task.ClassOverdue:
			line = overdueStyle.Render(fmt.Sprintf("[Overdue] %s (%s/%s)", e.sub.Title, e.project, e.taskName))
		default:
			line = dueTodayStyle.Render(fmt.Sprintf("%s (%s/%s)", e.sub.Title, e.project, e.taskName))
		}
		s.WriteString(line)
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) renderHelp() string {
	var help string
	switch m.view {
	case ProjectListView:
		help = "[↑/k] Up  [↓/j] Down  [Enter] Select  [t] Today  [r] Refresh  [q] Quit"
	case TaskListView:
		help = "[↑/k] Up  [↓/j] Down  [Enter] Select  [Esc] Back  [r] Refresh  [q] Quit"
	case DetailView:
		help = "[Esc] Back  [q] Quit"
	case DailyView:
		help = "[Esc] Back  [r] Refresh  [q] Quit"
	}
	return helpStyle.Render(help)
}

// Run starts the TUI
func Run(st *store.Store) error {
	p := tea.NewProgram(New(st), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
