package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Field length limits enforced by the stores. Title and description are
// truncated silently; content over the limit is truncated as well.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
	MaxContentLen     = 10000
)

// MessageRole values for Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TaskStatus values accepted by list filters.
const (
	TaskStatusAll       = "all"
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// User represents an account that owns tasks and conversations.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"not null;type:varchar(100)"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex;type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"not null;type:varchar(255)"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}

// NewUser creates a user with a fresh UUID identifier.
func NewUser(name, email, passwordHash string) *User {
	return &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
}

// Task represents a todo item owned by a user. The ID is assigned by the
// store and immutable; every query must filter by UserID.
type Task struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"not null;type:varchar(100);index:idx_tasks_user"`
	Title       string    `json:"title" gorm:"not null;type:varchar(200)"`
	Description *string   `json:"description,omitempty" gorm:"type:varchar(1000)"`
	Completed   bool      `json:"completed" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"not null"`
}

// Status reports "pending" or "completed" for API responses and tool
// envelopes.
func (t *Task) Status() string {
	if t.Completed {
		return TaskStatusCompleted
	}
	return TaskStatusPending
}

// Conversation is a chat session for one user. UpdatedAt doubles as the
// last-activity timestamp; the conversation with the most recent
// UpdatedAt is the user's active one.
type Conversation struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"not null;type:varchar(100);index:idx_conversations_user"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`

	Messages []*Message `json:"messages,omitempty" gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// NewConversation creates a conversation with a fresh UUID identifier.
func NewConversation(userID string) *Conversation {
	return &Conversation{
		ID:     uuid.NewString(),
		UserID: userID,
	}
}

// Message is one turn in a conversation. Messages are immutable once
// created and are deleted with their parent conversation.
type Message struct {
	ID             string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string         `json:"user_id" gorm:"not null;type:varchar(100)"`
	ConversationID string         `json:"conversation_id" gorm:"not null;type:varchar(36);index:idx_messages_conversation"`
	Role           string         `json:"role" gorm:"not null;type:varchar(20)"`
	Content        string         `json:"content" gorm:"not null;type:varchar(10000)"`
	ToolCalls      datatypes.JSON `json:"tool_calls,omitempty"`
	CreatedAt      time.Time      `json:"created_at" gorm:"not null;index:idx_messages_created"`
}

// ToolCall records one tool invocation executed during an agent run.
// Serialized into Message.ToolCalls for assistant messages.
type ToolCall struct {
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input"`
}
