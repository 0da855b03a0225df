package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tvural/taskchat/internal/agent"
	"github.com/tvural/taskchat/internal/models"
	"github.com/tvural/taskchat/internal/store"
)

// ChatInput DTO for sending a message to the assistant.
type ChatInput struct {
	Message string `json:"message" binding:"required,min=1,max=10000"`
}

// ChatHandler serves the conversational endpoints.
type ChatHandler struct {
	agent         *agent.Agent
	conversations *store.ConversationStore
	contextWindow int
}

// NewChatHandler creates a chat handler. contextWindow is the number
// of recent messages supplied to the assistant as context.
func NewChatHandler(a *agent.Agent, conversations *store.ConversationStore, contextWindow int) *ChatHandler {
	return &ChatHandler{agent: a, conversations: conversations, contextWindow: contextWindow}
}

// Chat sends a message through the assistant and returns its reply.
// The history window is captured before the new message is persisted,
// so the agent sees prior turns as context and the message itself only
// once.
func (h *ChatHandler) Chat(c *gin.Context) {
	userID := c.Param("user_id")

	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	conv, err := h.conversations.GetOrCreateActive(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation"})
		return
	}

	history, err := h.conversations.ContextWindow(ctx, conv.ID, h.contextWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversation"})
		return
	}

	if _, err := h.conversations.AppendMessage(ctx, userID, conv.ID, models.RoleUser, input.Message, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	result := h.agent.ProcessMessage(ctx, userID, input.Message, store.FormatForInference(history))

	if _, err := h.conversations.AppendMessage(ctx, userID, conv.ID, models.RoleAssistant, result.Content, result.ToolCalls); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	resp := gin.H{
		"message":         result.Content,
		"conversation_id": conv.ID,
		"tool_calls":      nil,
	}
	if len(result.ToolCalls) > 0 {
		resp["tool_calls"] = result.ToolCalls
	}
	c.JSON(http.StatusOK, resp)
}

// NewConversation starts a fresh conversation, discarding previous
// context.
func (h *ChatHandler) NewConversation(c *gin.Context) {
	userID := c.Param("user_id")

	conv, err := h.conversations.StartNew(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conv.ID,
		"message":         "New conversation started.",
	})
}
