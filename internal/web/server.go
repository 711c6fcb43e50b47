package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/faraz/taskctl/internal/export"
	"github.com/faraz/taskctl/internal/service"
	"github.com/faraz/taskctl/internal/store"
	"github.com/faraz/taskctl/pkg/task"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"statusColor": func(s task.Status) string {
		switch s {
		case task.StatusCompleted:
			return "green"
		case task.StatusInProgress:
			return "orange"
		default:
			return "red"
		}
	},
}

var templates = template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))

// pageCodes maps the short navigation codes to their destinations.
var pageCodes = map[string]string{
	"1": "/",
	"2": "/create",
	"3": "/tasks",
	"4": "/daily",
	"5": "/projects",
}

// Server serves the five tracker pages and their form actions.
type Server struct {
	svc   *service.Service
	store *store.Store
	mux   *http.ServeMux
	now   func() time.Time
}

// NewServer creates a web server over the given session service. The store
// is needed directly only for CSV export, which reads raw rows. When the
// service runs with name-pair keying, delete is keyed the same way.
func NewServer(svc *service.Service, st *store.Store) *Server {
	s := &Server{
		svc:   svc,
		store: st,
		mux:   http.NewServeMux(),
		now:   time.Now,
	}
	s.mux.HandleFunc("/", s.handleDashboard)
	s.mux.HandleFunc("/page/", s.handlePageCode)
	s.mux.HandleFunc("/create", s.handleCreate)
	s.mux.HandleFunc("/tasks", s.handleTasks)
	s.mux.HandleFunc("/tasks/", s.handleTaskAction)
	s.mux.HandleFunc("/daily", s.handleDaily)
	s.mux.HandleFunc("/projects", s.handleProjects)
	s.mux.HandleFunc("/export.csv", s.handleExport)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handlePageCode redirects short page codes ("/page/3") to their pages.
func (s *Server) handlePageCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/page/")
	dest, ok := pageCodes[code]
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, dest, http.StatusFound)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	now := s.now()
	data := struct {
		Counts service.Counts
		Today  string
	}{
		Counts: s.svc.Counts(now),
		Today:  now.Format("January 02"),
	}
	s.render(w, "dashboard.html", data)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	type formData struct {
		Statuses []task.Status
		Warning  string
		Saved    string
		Project  string
		Task     string
		Desc     string
	}
	data := formData{Statuses: task.Statuses}

	if r.Method == http.MethodPost {
		project := r.FormValue("project")
		name := r.FormValue("task")
		desc := r.FormValue("description")
		status := task.Status(r.FormValue("status"))

		t, err := s.svc.Create(project, name, desc, status)
		switch {
		case errors.Is(err, service.ErrValidation):
			// Re-render the form with the warning and the submitted values.
			data.Warning = "Please fill in both Project and Task fields."
			data.Project = project
			data.Task = name
			data.Desc = desc
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		default:
			data.Saved = fmt.Sprintf("Task '%s' under project '%s' saved!", t.Name, t.Project)
		}
	}

	s.render(w, "create.html", data)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	projectFilter := r.URL.Query().Get("project")
	nameFilter := r.URL.Query().Get("task")

	filtered := s.svc.FilterByProject(projectFilter)
	filtered = s.svc.FilterByName(nameFilter, filtered)

	// Task filter options come from the project-filtered list, sorted.
	nameSet := map[string]bool{}
	var names []string
	for _, t := range s.svc.FilterByProject(projectFilter) {
		if !nameSet[t.Name] {
			nameSet[t.Name] = true
			names = append(names, t.Name)
		}
	}
	sort.Strings(names)

	data := struct {
		Tasks         []*task.Task
		Projects      []string
		TaskNames     []string
		ProjectFilter string
		NameFilter    string
		Statuses      []task.Status
		LegacyKeys    bool
	}{
		Tasks:         filtered,
		Projects:      s.svc.ProjectNames(),
		TaskNames:     names,
		ProjectFilter: projectFilter,
		NameFilter:    nameFilter,
		Statuses:      task.Statuses,
		LegacyKeys:    s.svc.LegacyNameKeys(),
	}
	s.render(w, "tasks.html", data)
}

// handleTaskAction dispatches POST /tasks/{id}/{action}.
func (s *Server) handleTaskAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/tasks/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch parts[1] {
	case "complete":
		idx, err := strconv.Atoi(r.FormValue("subtask"))
		if err != nil {
			http.Error(w, "bad subtask index", http.StatusBadRequest)
			return
		}
		if err := s.svc.CompleteSubtask(id, idx); err != nil {
			s.actionError(w, err)
			return
		}
	case "status":
		if err := s.svc.SetStatus(id, task.Status(r.FormValue("status"))); err != nil {
			s.actionError(w, err)
			return
		}
	case "description":
		if err := s.svc.UpdateDescription(id, r.FormValue("description")); err != nil {
			s.actionError(w, err)
			return
		}
	case "delete":
		if s.svc.LegacyNameKeys() {
			err = s.svc.DeleteByName(r.FormValue("project"), r.FormValue("task"))
		} else {
			err = s.svc.Delete(id)
		}
		if err != nil {
			s.actionError(w, err)
			return
		}
	default:
		http.NotFound(w, r)
		return
	}

	back := r.FormValue("back")
	if back == "" {
		back = "/tasks"
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) actionError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if errors.Is(err, service.ErrValidation) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	data := struct {
		Items []service.DueItem
		Today string
	}{
		Items: s.svc.DueOrOverdue(now),
		Today: now.Format("January 02"),
	}
	s.render(w, "daily.html", data)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	type projectGroup struct {
		Name  string
		Tasks []*task.Task
	}

	groups := s.svc.GroupByProject()
	var ordered []projectGroup
	for _, name := range s.svc.ProjectNames() {
		ordered = append(ordered, projectGroup{Name: name, Tasks: groups[name]})
	}

	data := struct {
		Projects []projectGroup
	}{Projects: ordered}
	s.render(w, "projects.html", data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="all_tasks_export.csv"`)
	if err := export.WriteCSV(s.store, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
