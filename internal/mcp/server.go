// Package mcp exposes the task tools over the Model Context Protocol
// so external agents can manage tasks through the same handlers the
// chat assistant uses.
package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tvural/taskchat/internal/agent"
)

// registry holds the tool registry for the MCP handlers.
var registry *agent.Registry

const serverInstructions = `Todo task management server.

You can manage a user's todo tasks with these tools:
- add_task: create a new task (title required, description optional)
- list_tasks: list tasks, optionally filtered by status (all/pending/completed)
- complete_task: mark a task done by its numeric ID
- complete_task_by_name: mark a task done by (partial) title match
- update_task: change a task's title or description by ID
- delete_task: permanently remove a task by ID

Every tool requires the user_id of the task owner. Task IDs are
integers assigned by the system. Tool results are JSON objects; a
result containing an "error" key means the operation did not happen.`

// ServeStdio starts the MCP server using the official go-sdk over stdio.
func ServeStdio(tools *agent.Registry, version string) error {
	if tools == nil {
		return errors.New("tool registry is required")
	}
	registry = tools

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "taskchat",
			Version: version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	registerTools(server)

	return server.Run(context.Background(), &mcp.StdioTransport{})
}

// textResult wraps a JSON envelope string as a tool result.
func textResult(envelope string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: envelope},
		},
	}
}
