// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/vimdo/internal/adapters/server/httpapi"
	"github.com/hylla/vimdo/internal/app"
	"github.com/hylla/vimdo/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// TaskService is the task service the tools call.
type TaskService interface {
	ListTasks(context.Context) ([]domain.Task, error)
	GetTask(context.Context, int64) (domain.Task, error)
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	ReplaceTask(context.Context, app.ReplaceTaskInput) (domain.Task, error)
	ToggleTask(context.Context, int64) (domain.Task, error)
	DeleteTask(context.Context, int64) error
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the task tools.
func NewHandler(cfg Config, tasks TaskService) (*Handler, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerTaskTools(mcpSrv, tasks)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "vimdo"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerTaskTools registers the `vimdo.*` task tools.
func registerTaskTools(srv *mcpserver.MCPServer, tasks TaskService) {
	srv.AddTool(
		mcp.NewTool(
			"vimdo.list_tasks",
			mcp.WithDescription("List every task ordered by id, with its urgency and completion state."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := tasks.ListTasks(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			out := make([]httpapi.Task, 0, len(rows))
			for _, row := range rows {
				out = append(out, httpapi.TaskFromDomain(row))
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"tasks": out,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"vimdo.get_task",
			mcp.WithDescription("Return one task by id."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Task id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireInt("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.GetTask(ctx, int64(id))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return taskResult("get_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"vimdo.create_task",
			mcp.WithDescription("Create a task. Urgency 1 is urgent, 2 important, 3 normal."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Optional description")),
			mcp.WithNumber("urgency", mcp.Description("Urgency 1-3, defaults to 3")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.CreateTask(ctx, app.CreateTaskInput{
				Title:       title,
				Description: req.GetString("description", ""),
				Urgency:     domain.Urgency(req.GetInt("urgency", int(domain.DefaultUrgency))),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return taskResult("create_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"vimdo.replace_task",
			mcp.WithDescription("Replace every mutable field of one task."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Task id")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Description, cleared when omitted")),
			mcp.WithNumber("urgency", mcp.Required(), mcp.Description("Urgency 1-3")),
			mcp.WithBoolean("completed", mcp.Description("Completion state")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireInt("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			urgency, err := req.RequireInt("urgency")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.ReplaceTask(ctx, app.ReplaceTaskInput{
				ID:          int64(id),
				Title:       title,
				Description: req.GetString("description", ""),
				Urgency:     domain.Urgency(urgency),
				Completed:   req.GetBool("completed", false),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return taskResult("replace_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"vimdo.toggle_task",
			mcp.WithDescription("Flip the completion state of one task."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Task id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireInt("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := tasks.ToggleTask(ctx, int64(id))
			if err != nil {
				return toolResultFromError(err), nil
			}
			return taskResult("toggle_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"vimdo.delete_task",
			mcp.WithDescription("Delete one task permanently."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Task id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireInt("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := tasks.DeleteTask(ctx, int64(id)); err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"deleted": id,
			})
			if err != nil {
				return nil, fmt.Errorf("encode delete_task result: %w", err)
			}
			return result, nil
		},
	)
}

// taskResult encodes one task as a JSON tool result.
func taskResult(tool string, task domain.Task) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(httpapi.TaskFromDomain(task))
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidTitle), errors.Is(err, domain.ErrInvalidUrgency):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
