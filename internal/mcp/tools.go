package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Input types mirror the tool parameter schemas. The jsonschema tags
// produce the declarations MCP clients see.

type AddTaskInput struct {
	UserID      string `json:"user_id" jsonschema:"the user's ID"`
	Title       string `json:"title" jsonschema:"task title (1-200 chars)"`
	Description string `json:"description,omitempty" jsonschema:"optional task description (max 1000 chars)"`
}

type ListTasksInput struct {
	UserID string `json:"user_id" jsonschema:"the user's ID"`
	Status string `json:"status,omitempty" jsonschema:"filter: all, pending, or completed"`
}

type CompleteTaskInput struct {
	UserID string `json:"user_id" jsonschema:"the user's ID"`
	TaskID int64  `json:"task_id" jsonschema:"the task ID to complete"`
}

type CompleteTaskByNameInput struct {
	UserID   string `json:"user_id" jsonschema:"the user's ID"`
	TaskName string `json:"task_name" jsonschema:"the task name/title to search for and complete"`
}

type UpdateTaskInput struct {
	UserID      string `json:"user_id" jsonschema:"the user's ID"`
	TaskID      int64  `json:"task_id" jsonschema:"the task ID to update"`
	Title       string `json:"title,omitempty" jsonschema:"new task title (optional)"`
	Description string `json:"description,omitempty" jsonschema:"new task description (optional)"`
}

type DeleteTaskInput struct {
	UserID string `json:"user_id" jsonschema:"the user's ID"`
	TaskID int64  `json:"task_id" jsonschema:"the task ID to delete"`
}

func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_task",
		Description: "Add a new task for the user.",
	}, handleAddTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks for a user, optionally filtered by status.",
	}, handleListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed by ID.",
	}, handleCompleteTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_task_by_name",
		Description: "Mark a task as completed by searching for its name/title. Use this when the task is referred to by name instead of ID.",
	}, handleCompleteTaskByName)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_task",
		Description: "Update a task's title or description.",
	}, handleUpdateTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Permanently delete a task.",
	}, handleDeleteTask)
}

func requireUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.New("user_id is required")
	}
	return nil
}

func handleAddTask(ctx context.Context, req *mcp.CallToolRequest, input AddTaskInput) (*mcp.CallToolResult, any, error) {
	if err := requireUserID(input.UserID); err != nil {
		return nil, nil, err
	}
	envelope := registry.ExecuteArgs(ctx, input.UserID, "add_task", map[string]any{
		"title":       input.Title,
		"description": input.Description,
	})
	return textResult(envelope), nil, nil
}

func handleListTasks(ctx context.Context, req *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, any, error) {
	if err := requireUserID(input.UserID); err != nil {
		return nil, nil, err
	}
	envelope := registry.ExecuteArgs(ctx, input.UserID, "list_tasks", map[string]any{
		"status": input.Status,
	})
	return textResult(envelope), nil, nil
}

func handleCompleteTask(ctx context.Context, req *mcp.CallToolRequest, input CompleteTaskInput) (*mcp.CallToolResult, any, error) {
	if err := requireUserID(input.UserID); err != nil {
		return nil, nil, err
	}
	envelope := registry.ExecuteArgs(ctx, input.UserID, "complete_task", map[string]any{
		"task_id": float64(input.TaskID),
	})
	return textResult(envelope), nil, nil
}

func handleCompleteTaskByName(ctx context.Context, req *mcp.CallToolRequest, input CompleteTaskByNameInput) (*mcp.CallToolResult, any, error) {
	if err := requireUserID(input.UserID); err != nil {
		return nil, nil, err
	}
	envelope := registry.ExecuteArgs(ctx, input.UserID, "complete_task_by_name", map[string]any{
		"task_name": input.TaskName,
	})
	return textResult(envelope), nil, nil
}

func handleUpdateTask(ctx context.Context, req *mcp.CallToolRequest, input UpdateTaskInput) (*mcp.CallToolResult, any, error) {
	if err := requireUserID(input.UserID); err != nil {
		return nil, nil, err
	}
	envelope := registry.ExecuteArgs(ctx, input.UserID, "update_task", map[string]any{
		"task_id":     float64(input.TaskID),
		"title":       input.Title,
		"description": input.Description,
	})
	return textResult(envelope), nil, nil
}

func handleDeleteTask(ctx context.Context, req *mcp.CallToolRequest, input DeleteTaskInput) (*mcp.CallToolResult, any, error) {
	if err := requireUserID(input.UserID); err != nil {
		return nil, nil, err
	}
	envelope := registry.ExecuteArgs(ctx, input.UserID, "delete_task", map[string]any{
		"task_id": float64(input.TaskID),
	})
	return textResult(envelope), nil, nil
}
