package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tvural/taskchat/internal/llm"
	"github.com/tvural/taskchat/internal/store"
)

// Handler executes one tool invocation for the given user and returns
// a JSON envelope. Handlers never fail past this boundary; errors are
// reported inside the envelope so the model can react to them.
type Handler func(ctx context.Context, userID string, args map[string]any) string

// Tool is one callable operation exposed to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry holds the task tools in their declaration order and
// dispatches invocations. The user identity is always taken from the
// authenticated caller, never from model-supplied arguments.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
	log    *slog.Logger
}

// NewRegistry builds the registry over a task store.
func NewRegistry(tasks *store.TaskStore, log *slog.Logger) *Registry {
	r := &Registry{byName: make(map[string]Tool), log: log}
	for _, t := range taskTools(tasks) {
		r.tools = append(r.tools, t)
		r.byName[t.Name] = t
	}
	return r
}

// Definitions returns the tool declarations for the inference call.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return defs
}

// Execute decodes raw JSON arguments and runs the named tool. The
// returned map is the decoded input, kept for the invocation trace.
func (r *Registry) Execute(ctx context.Context, userID, name, argsJSON string) (string, map[string]any) {
	args := map[string]any{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			r.log.Warn("tool arguments malformed", "tool", name, "error", err)
			return encode(map[string]any{
				"error":   "invalid arguments: " + err.Error(),
				"message": "The tool arguments could not be parsed.",
			}), args
		}
	}
	return r.ExecuteArgs(ctx, userID, name, args), args
}

// ExecuteArgs runs the named tool with already-decoded arguments.
func (r *Registry) ExecuteArgs(ctx context.Context, userID, name string, args map[string]any) string {
	tool, ok := r.byName[name]
	if !ok {
		r.log.Warn("unknown tool requested", "tool", name)
		return encode(map[string]any{
			"error":   fmt.Sprintf("unknown tool %q", name),
			"message": "That tool is not available.",
		})
	}
	r.log.Info("tool invoked", "tool", name, "user", userID)
	return tool.Handler(ctx, userID, args)
}

func taskTools(tasks *store.TaskStore) []Tool {
	userIDProp := map[string]any{"type": "string", "description": "The user's ID"}

	return []Tool{
		{
			Name:        "add_task",
			Description: "Add a new task for the user.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_id":     userIDProp,
					"title":       map[string]any{"type": "string", "description": "Task title (1-200 chars)"},
					"description": map[string]any{"type": "string", "description": "Optional task description (max 1000 chars)"},
				},
				"required": []string{"user_id", "title"},
			},
			Handler: func(ctx context.Context, userID string, args map[string]any) string {
				title := stringArg(args, "title")
				if strings.TrimSpace(title) == "" {
					return encode(map[string]any{"error": "title is required"})
				}
				task, err := tasks.Create(ctx, userID, title, stringArg(args, "description"))
				if err != nil {
					return storeError(err)
				}
				return encode(map[string]any{
					"task_id": task.ID,
					"title":   task.Title,
					"status":  task.Status(),
					"message": fmt.Sprintf("Task '%s' has been added successfully.", task.Title),
				})
			},
		},
		{
			Name:        "list_tasks",
			Description: "List tasks for a user, optionally filtered by status.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_id": userIDProp,
					"status":  map[string]any{"type": "string", "description": "Filter - \"all\", \"pending\", or \"completed\"", "enum": []string{"all", "pending", "completed"}},
				},
				"required": []string{"user_id"},
			},
			Handler: func(ctx context.Context, userID string, args map[string]any) string {
				status := stringArg(args, "status")
				list, err := tasks.List(ctx, userID, status)
				if err != nil {
					return storeError(err)
				}
				items := make([]map[string]any, 0, len(list))
				for i := range list {
					items = append(items, map[string]any{
						"id":          list[i].ID,
						"title":       list[i].Title,
						"description": list[i].Description,
						"status":      list[i].Status(),
					})
				}
				return encode(map[string]any{
					"tasks":   items,
					"count":   len(items),
					"message": fmt.Sprintf("Found %d task(s).", len(items)),
				})
			},
		},
		{
			Name:        "complete_task",
			Description: "Mark a task as completed by ID.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_id": userIDProp,
					"task_id": map[string]any{"type": "integer", "description": "The task ID to complete"},
				},
				"required": []string{"user_id", "task_id"},
			},
			Handler: func(ctx context.Context, userID string, args map[string]any) string {
				id, ok := intArg(args, "task_id")
				if !ok || id < 1 {
					return encode(map[string]any{"error": "valid task_id is required"})
				}
				task, already, err := tasks.SetCompleted(ctx, userID, uint(id))
				if errors.Is(err, store.ErrNotFound) {
					return taskNotFound(id)
				}
				if err != nil {
					return storeError(err)
				}
				msg := fmt.Sprintf("Task '%s' has been marked as complete!", task.Title)
				if already {
					msg = fmt.Sprintf("Task '%s' is already completed.", task.Title)
				}
				return encode(map[string]any{
					"task_id": task.ID,
					"title":   task.Title,
					"status":  task.Status(),
					"message": msg,
				})
			},
		},
		{
			Name:        "complete_task_by_name",
			Description: "Mark a task as completed by searching for its name/title. Use this when user refers to a task by name instead of ID.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_id":   userIDProp,
					"task_name": map[string]any{"type": "string", "description": "The task name/title to search for and complete"},
				},
				"required": []string{"user_id", "task_name"},
			},
			Handler: func(ctx context.Context, userID string, args map[string]any) string {
				name := stringArg(args, "task_name")
				task, err := tasks.FindByName(ctx, userID, name)
				if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrValidation) {
					return encode(map[string]any{
						"error":   fmt.Sprintf("Task '%s' not found", name),
						"message": fmt.Sprintf("Could not find a pending task matching '%s'. Use list_tasks to see available tasks.", name),
					})
				}
				if err != nil {
					return storeError(err)
				}
				task, _, err = tasks.SetCompleted(ctx, userID, task.ID)
				if err != nil {
					return storeError(err)
				}
				return encode(map[string]any{
					"task_id": task.ID,
					"title":   task.Title,
					"status":  task.Status(),
					"message": fmt.Sprintf("Task '%s' has been marked as complete!", task.Title),
				})
			},
		},
		{
			Name:        "update_task",
			Description: "Update a task's title or description.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_id":     userIDProp,
					"task_id":     map[string]any{"type": "integer", "description": "The task ID to update"},
					"title":       map[string]any{"type": "string", "description": "New task title (optional)"},
					"description": map[string]any{"type": "string", "description": "New task description (optional)"},
				},
				"required": []string{"user_id", "task_id"},
			},
			Handler: func(ctx context.Context, userID string, args map[string]any) string {
				id, ok := intArg(args, "task_id")
				if !ok || id < 1 {
					return encode(map[string]any{"error": "valid task_id is required"})
				}
				var title, description *string
				if t := stringArg(args, "title"); t != "" {
					title = &t
				}
				if d := stringArg(args, "description"); d != "" {
					description = &d
				}
				if title == nil && description == nil {
					return encode(map[string]any{"error": "title or description is required"})
				}
				task, err := tasks.Update(ctx, userID, uint(id), title, description)
				if errors.Is(err, store.ErrNotFound) {
					return taskNotFound(id)
				}
				if err != nil {
					return storeError(err)
				}
				return encode(map[string]any{
					"task_id": task.ID,
					"title":   task.Title,
					"status":  task.Status(),
					"message": fmt.Sprintf("Task '%s' has been updated.", task.Title),
				})
			},
		},
		{
			Name:        "delete_task",
			Description: "Permanently delete a task.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_id": userIDProp,
					"task_id": map[string]any{"type": "integer", "description": "The task ID to delete"},
				},
				"required": []string{"user_id", "task_id"},
			},
			Handler: func(ctx context.Context, userID string, args map[string]any) string {
				id, ok := intArg(args, "task_id")
				if !ok || id < 1 {
					return encode(map[string]any{"error": "valid task_id is required"})
				}
				task, err := tasks.Delete(ctx, userID, uint(id))
				if errors.Is(err, store.ErrNotFound) {
					return taskNotFound(id)
				}
				if err != nil {
					return storeError(err)
				}
				return encode(map[string]any{
					"task_id": task.ID,
					"title":   task.Title,
					"deleted": true,
					"message": fmt.Sprintf("Task '%s' has been deleted.", task.Title),
				})
			},
		},
	}
}

func taskNotFound(id int64) string {
	return encode(map[string]any{
		"error":   fmt.Sprintf("Task %d not found", id),
		"message": fmt.Sprintf("Could not find task with ID %d.", id),
	})
}

func storeError(err error) string {
	return encode(map[string]any{"error": err.Error()})
}

func encode(v map[string]any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"internal encoding failure"}`
	}
	return string(b)
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg accepts the number forms models actually send: JSON numbers,
// numeric strings, and the occasional quoted float.
func intArg(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	default:
		return 0, false
	}
}
