package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tvural/taskchat/internal/store"
)

// TaskHandler serves the task listing endpoint. Task mutations go
// through the assistant's tools; the REST surface is read-only.
type TaskHandler struct {
	tasks *store.TaskStore
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(tasks *store.TaskStore) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// ListTasks returns the user's tasks, newest first, optionally
// filtered by ?status=pending or ?status=completed.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID := c.Param("user_id")
	status := c.Query("status")

	tasks, err := h.tasks.List(c.Request.Context(), userID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tasks"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}
