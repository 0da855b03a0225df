// Package api wires the gin router for the REST surface.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tvural/taskchat/api/handlers"
	"github.com/tvural/taskchat/internal/agent"
	"github.com/tvural/taskchat/internal/auth"
	"github.com/tvural/taskchat/internal/store"
)

// Deps are the services the router needs.
type Deps struct {
	Auth          *auth.Service
	Agent         *agent.Agent
	Tasks         *store.TaskStore
	Conversations *store.ConversationStore
	ContextWindow int
	Log           *slog.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(d.Auth)
	taskHandler := handlers.NewTaskHandler(d.Tasks)
	chatHandler := handlers.NewChatHandler(d.Agent, d.Conversations, d.ContextWindow)

	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", AuthRequired(d.Auth), authHandler.Me)
		}

		// gin cannot mix a param segment with the static /auth group at
		// the same level, so user routes live under /users.
		userGroup := apiGroup.Group("/users/:user_id", AuthRequired(d.Auth), UserScoped())
		{
			userGroup.GET("/tasks", taskHandler.ListTasks)
			userGroup.POST("/chat", chatHandler.Chat)
			userGroup.POST("/chat/new", chatHandler.NewConversation)
		}
	}

	return r
}
