// Package mcpstdio exposes board commands as MCP tools over stdio.
package mcpstdio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/evanschultz/tavla/internal/app"
	"github.com/evanschultz/tavla/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP server identity.
type Config struct {
	ServerName    string
	ServerVersion string
}

// Service is the board surface the tools drive. *app.Service satisfies it.
type Service interface {
	Board() domain.Board
	AddTask(ctx context.Context, in app.AddTaskInput) (domain.Task, bool)
	RemoveTask(ctx context.Context, id string) bool
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) bool
	RenameColumn(ctx context.Context, id, title string) bool
	ToggleTheme(ctx context.Context) domain.Theme
	DragStart(id string) bool
	DragOver(ctx context.Context, activeID, overID string) bool
	DragEnd(ctx context.Context, activeID, overID string) bool
	DragCancel()
}

// NewServer builds an MCP server with every board tool registered.
func NewServer(cfg Config, svc Service) (*mcpserver.MCPServer, error) {
	if svc == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	srv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerBoardTools(srv, svc)
	registerTaskTools(srv, svc)
	registerDragTool(srv, svc)
	return srv, nil
}

// Serve runs the MCP server over the given streams until ctx is cancelled or
// in reaches EOF.
func Serve(ctx context.Context, srv *mcpserver.MCPServer, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(srv)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve mcp stdio: %w", err)
	}
	return nil
}

// normalizeConfig fills empty identity fields.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tavla"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	return cfg
}

// boardResult is the payload returned by every tool that changes the board.
type boardResult struct {
	Changed bool         `json:"changed"`
	Board   domain.Board `json:"board"`
}

func jsonResult(tool string, v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

func registerBoardTools(srv *mcpserver.MCPServer, svc Service) {
	srv.AddTool(
		mcp.NewTool(
			"tavla.board",
			mcp.WithDescription("Return the board: columns in order, tasks grouped by column, and the theme."),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return jsonResult("board", svc.Board())
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.rename_column",
			mcp.WithDescription("Rename one column."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Column identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("New column title")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if strings.TrimSpace(title) == "" {
				return mcp.NewToolResultError("title is required"), nil
			}
			if svc.Board().ColumnIndex(id) < 0 {
				return mcp.NewToolResultError(fmt.Sprintf("column %q not found", id)), nil
			}
			changed := svc.RenameColumn(ctx, id, title)
			return jsonResult("rename_column", boardResult{Changed: changed, Board: svc.Board()})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.toggle_theme",
			mcp.WithDescription("Switch between the light and dark theme."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			theme := svc.ToggleTheme(ctx)
			return jsonResult("toggle_theme", map[string]any{"theme": theme})
		},
	)
}

func registerTaskTools(srv *mcpserver.MCPServer, svc Service) {
	priorities := make([]string, 0, 3)
	for _, p := range domain.Priorities() {
		priorities = append(priorities, string(p))
	}

	srv.AddTool(
		mcp.NewTool(
			"tavla.add_task",
			mcp.WithDescription("Add a task to the first column."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("priority", mcp.Enum(priorities...), mcp.Description("Task priority, medium when omitted")),
			mcp.WithString("description", mcp.Description("Markdown description")),
			mcp.WithString("due_date", mcp.Description("Due date as YYYY-MM-DD")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if strings.TrimSpace(title) == "" {
				return mcp.NewToolResultError("title is required"), nil
			}
			priority, err := parsePriority(req.GetString("priority", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			due, err := parseDueDate(req.GetString("due_date", ""))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, ok := svc.AddTask(ctx, app.AddTaskInput{
				Title:       title,
				Priority:    priority,
				Description: req.GetString("description", ""),
				DueDate:     due,
			})
			if !ok {
				return mcp.NewToolResultError("task was not added"), nil
			}
			return jsonResult("add_task", map[string]any{"task": task})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.update_task",
			mcp.WithDescription("Update the editable fields of one task. Omitted fields are left alone."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("priority", mcp.Enum(priorities...), mcp.Description("New priority")),
			mcp.WithString("description", mcp.Description("New markdown description")),
			mcp.WithString("due_date", mcp.Description("New due date as YYYY-MM-DD")),
			mcp.WithBoolean("clear_due_date", mcp.Description("Remove the due date")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if _, ok := svc.Board().Task(id); !ok {
				return mcp.NewToolResultError(fmt.Sprintf("task %q not found", id)), nil
			}
			patch, err := patchFromRequest(req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			changed := svc.UpdateTask(ctx, id, patch)
			task, _ := svc.Board().Task(id)
			return jsonResult("update_task", map[string]any{"changed": changed, "task": task})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"tavla.delete_task",
			mcp.WithDescription("Delete one task."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if !svc.RemoveTask(ctx, id) {
				return mcp.NewToolResultError(fmt.Sprintf("task %q not found", id)), nil
			}
			return jsonResult("delete_task", boardResult{Changed: true, Board: svc.Board()})
		},
	)
}

// registerDragTool exposes a whole drag gesture as one call: start on
// active_id, hover over_id, then drop on over_id.
func registerDragTool(srv *mcpserver.MCPServer, svc Service) {
	srv.AddTool(
		mcp.NewTool(
			"tavla.drag",
			mcp.WithDescription("Drag a task onto another task or a column. A task in another column is inserted at the hovered position, a column id appends, and a task in the same column gives up its position to the dragged task, shifting the others."),
			mcp.WithString("active_id", mcp.Required(), mcp.Description("Task being dragged")),
			mcp.WithString("over_id", mcp.Required(), mcp.Description("Task or column id under the drop point")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			activeID, err := req.RequireString("active_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			overID, err := req.RequireString("over_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if !svc.DragStart(activeID) {
				return mcp.NewToolResultError(fmt.Sprintf("cannot drag task %q", activeID)), nil
			}
			hovered := svc.DragOver(ctx, activeID, overID)
			dropOn := overID
			if hovered {
				// The task now sits under the pointer, so the drop lands on itself.
				dropOn = activeID
			}
			dropped := svc.DragEnd(ctx, activeID, dropOn)
			return jsonResult("drag", boardResult{Changed: hovered || dropped, Board: svc.Board()})
		},
	)
}

func parsePriority(raw string) (domain.Priority, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.PriorityMedium, nil
	}
	p := domain.Priority(strings.ToLower(raw))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", raw)
	}
	return p, nil
}

func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	due, err := time.Parse(domain.DueDateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("due_date must be YYYY-MM-DD")
	}
	return &due, nil
}

// patchFromRequest builds a patch from the arguments that were actually sent.
func patchFromRequest(req mcp.CallToolRequest) (domain.TaskPatch, error) {
	args := req.GetArguments()
	var patch domain.TaskPatch
	if _, ok := args["title"]; ok {
		title := req.GetString("title", "")
		patch.Title = &title
	}
	if _, ok := args["description"]; ok {
		desc := req.GetString("description", "")
		patch.Description = &desc
	}
	if _, ok := args["priority"]; ok {
		p, err := parsePriority(req.GetString("priority", ""))
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Priority = &p
	}
	if _, ok := args["due_date"]; ok {
		due, err := parseDueDate(req.GetString("due_date", ""))
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.DueDate = due
	}
	patch.ClearDueDate = req.GetBool("clear_due_date", false)
	return patch, nil
}
