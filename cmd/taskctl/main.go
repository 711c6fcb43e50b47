package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/faraz/taskctl/internal/config"
	"github.com/faraz/taskctl/internal/export"
	"github.com/faraz/taskctl/internal/mcp"
	"github.com/faraz/taskctl/internal/service"
	"github.com/faraz/taskctl/internal/store"
	"github.com/faraz/taskctl/internal/tui"
	"github.com/faraz/taskctl/internal/web"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadOrCreate(config.ResolvePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	dbPath := resolveDBPath(cfg)

	switch os.Args[1] {
	case "init":
		runInit(dbPath)
	case "serve":
		st := mustOpenStore(dbPath)
		defer st.Close()
		runServe(st, cfg)
	case "tui":
		st := mustOpenStore(dbPath)
		defer st.Close()
		runTUI(st)
	case "mcp":
		st := mustOpenStore(dbPath)
		defer st.Close()
		runMCP(st, cfg)
	case "list":
		st := mustOpenStore(dbPath)
		defer st.Close()
		runList(st)
	case "export":
		st := mustOpenStore(dbPath)
		defer st.Close()
		runExport(st)
	case "version", "--version", "-v":
		fmt.Println("taskctl", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`taskctl - Track projects, tasks, and dated subtasks

Usage:
  taskctl init                 Initialize the database
  taskctl serve                Start the web UI
  taskctl tui                  Launch the terminal dashboard
  taskctl mcp                  Start MCP server (stdio)
  taskctl list [--project X]   List tasks (JSON)
  taskctl export [file]        Export all tasks to CSV
  taskctl version              Show version
  taskctl help                 Show this help

Database location (in priority order):
  1. TASKCTL_DB env variable
  2. db_path in the config file (TASKCTL_CONFIG or ~/.taskctl/config.toml)`)
}

// resolveDBPath prefers the TASKCTL_DB env variable over the config file.
func resolveDBPath(cfg config.Config) string {
	if p := os.Getenv("TASKCTL_DB"); p != "" {
		return p
	}
	return cfg.DBPath
}

func mustOpenStore(dbPath string) *store.Store {
	st, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run 'taskctl init' to create the database.\n")
		os.Exit(1)
	}
	return st
}

func mustNewService(st *store.Store, opts ...service.Option) *service.Service {
	svc, err := service.New(st, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tasks: %v\n", err)
		os.Exit(1)
	}
	return svc
}

func runInit(dbPath string) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	// Opening runs the migration.
	st, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing database: %v\n", err)
		os.Exit(1)
	}
	st.Close()

	fmt.Printf("Initialized database at %s\n", dbPath)
}

func serviceOpts(cfg config.Config) []service.Option {
	if cfg.LegacyNameKeys {
		return []service.Option{service.WithLegacyNameKeys()}
	}
	return nil
}

func runServe(st *store.Store, cfg config.Config) {
	svc := mustNewService(st, serviceOpts(cfg)...)
	srv := web.NewServer(svc, st)

	fmt.Printf("Serving on http://%s\n", cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, srv); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(st *store.Store) {
	if err := tui.Run(st); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}

func runMCP(st *store.Store, cfg config.Config) {
	svc := mustNewService(st, serviceOpts(cfg)...)
	s := mcp.NewServer(svc)
	if err := mcpserver.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func runList(st *store.Store) {
	filter := store.Filter{}

	// Parse --project flag
	for i, arg := range os.Args[2:] {
		if arg == "--project" && i+1 < len(os.Args[2:]) {
			filter.Project = os.Args[i+3]
		}
	}

	tasks, err := st.List(filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(tasks)
}

func runExport(st *store.Store) {
	path := "all_tasks_export.csv"
	if len(os.Args) > 2 {
		path = os.Args[2]
	}

	if err := export.WriteFile(st, path); err != nil {
		fmt.Fprintf(os.Stderr, "Export error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Tasks exported to %s\n", path)
}
