// Package mcp exposes the task tracker as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faraz/taskctl/internal/service"
	"github.com/faraz/taskctl/pkg/task"
)

// Handlers provides MCP tool handlers
type Handlers struct {
	svc *service.Service
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{svc: svc}
}

// RegisterTools registers all task tools with the MCP server
func (h *Handlers) RegisterTools(s *server.MCPServer) {
	s.AddTool(
		mcp.NewTool("task_list",
			mcp.WithDescription("List tasks, optionally filtered by project"),
			mcp.WithString("project", mcp.Description("Filter by project name")),
		),
		h.HandleList,
	)

	s.AddTool(
		mcp.NewTool("task_get",
			mcp.WithDescription("Get one task with its subtasks"),
			mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
		),
		h.HandleGet,
	)

	s.AddTool(
		mcp.NewTool("task_create",
			mcp.WithDescription("Create a task; dated subtasks are parsed from 'MMDD: text' lines in the description"),
			mcp.WithString("project", mcp.Description("Project name"), mcp.Required()),
			mcp.WithString("task", mcp.Description("Task name"), mcp.Required()),
			mcp.WithString("description", mcp.Description("Free-text description with optional 'MMDD: text' subtask lines")),
			mcp.WithString("status", mcp.Description("Task status: Not Started, In Progress, Completed")),
		),
		h.HandleCreate,
	)

	s.AddTool(
		mcp.NewTool("task_update",
			mcp.WithDescription("Update a task's status or description, or complete a subtask"),
			mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
			mcp.WithString("status", mcp.Description("New task status")),
			mcp.WithString("description", mcp.Description("New description; replaces the subtask list")),
			mcp.WithNumber("complete_subtask", mcp.Description("Mark the subtask at this index completed")),
		),
		h.HandleUpdate,
	)

	s.AddTool(
		mcp.NewTool("task_delete",
			mcp.WithDescription("Delete a task"),
			mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
		),
		h.HandleDelete,
	)
}

// taskSummary is the JSON shape returned by list and get.
type taskSummary struct {
	ID          int64          `json:"id"`
	Project     string         `json:"project"`
	Task        string         `json:"task"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status"`
	Subtasks    []task.Subtask `json:"subtasks"`
}

func summarize(t *task.Task) taskSummary {
	return taskSummary{
		ID:          t.ID,
		Project:     t.Project,
		Task:        t.Name,
		Description: t.Description,
		Status:      string(t.Status),
		Subtasks:    t.Subtasks,
	}
}

// HandleList lists tasks with an optional project filter
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := mcp.ParseString(req, "project", "")

	tasks := h.svc.FilterByProject(project)
	summaries := make([]taskSummary, len(tasks))
	for i, t := range tasks {
		summaries[i] = summarize(t)
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

// HandleGet returns a single task
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseInt(req, "id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("id is required"), nil
	}

	t, err := h.svc.Get(int64(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, _ := json.MarshalIndent(summarize(t), "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

// HandleCreate creates a new task
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := mcp.ParseString(req, "project", "")
	name := mcp.ParseString(req, "task", "")
	description := mcp.ParseString(req, "description", "")
	status := task.Status(mcp.ParseString(req, "status", string(task.StatusNotStarted)))

	t, err := h.svc.Create(project, name, description, status)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created task %d: %s/%s (%d subtasks)", t.ID, t.Project, t.Name, len(t.Subtasks))), nil
}

// HandleUpdate updates a task
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64(mcp.ParseInt(req, "id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("id is required"), nil
	}

	if status := mcp.ParseString(req, "status", ""); status != "" {
		if err := h.svc.SetStatus(id, task.Status(status)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	args, _ := req.Params.Arguments.(map[string]any)

	// A description argument replaces the subtask list even when empty, so
	// presence matters, not the value.
	if args != nil {
		if _, ok := args["description"]; ok {
			desc := mcp.ParseString(req, "description", "")
			if err := h.svc.UpdateDescription(id, desc); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		if _, ok := args["complete_subtask"]; ok {
			idx := mcp.ParseInt(req, "complete_subtask", -1)
			if idx < 0 {
				return mcp.NewToolResultError("complete_subtask must be a non-negative index"), nil
			}
			if err := h.svc.CompleteSubtask(id, idx); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf("Updated task %d", id)), nil
}

// HandleDelete deletes a task
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64(mcp.ParseInt(req, "id", 0))
	if id <= 0 {
		return mcp.NewToolResultError("id is required"), nil
	}

	if err := h.svc.Delete(id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted task %d", id)), nil
}

// NewServer creates a new MCP server with task tools
func NewServer(svc *service.Service) *server.MCPServer {
	s := server.NewMCPServer("taskctl", "1.0.0")
	h := NewHandlers(svc)
	h.RegisterTools(s)
	return s
}
