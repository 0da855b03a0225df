package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tvural/taskchat/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultContextWindow is the number of recent messages fed to the
// agent when no explicit limit is configured.
const DefaultContextWindow = 10

// ConversationStore persists conversations and their messages.
type ConversationStore struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewConversationStore creates a conversation store on top of an open
// database handle.
func NewConversationStore(db *gorm.DB, log *slog.Logger) *ConversationStore {
	return &ConversationStore{db: db, log: log}
}

// GetOrCreateActive returns the user's most recently active
// conversation, creating one if none exists. Two concurrent callers can
// both observe "none exists" and each create a conversation; the newer
// one simply wins on the next lookup, so the race is left unguarded.
func (s *ConversationStore) GetOrCreateActive(ctx context.Context, userID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get active conversation: %w", err)
	}

	return s.StartNew(ctx, userID)
}

// StartNew creates a fresh conversation, making it the active one and
// discarding previous context.
func (s *ConversationStore) StartNew(ctx context.Context, userID string) (*models.Conversation, error) {
	conv := models.NewConversation(userID)
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.log.Info("conversation created", "user", userID, "conversation", conv.ID)
	return conv, nil
}

// ContextWindow returns the most recent limit messages of a
// conversation in chronological order. A non-positive limit falls back
// to DefaultContextWindow.
func (s *ConversationStore) ContextWindow(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultContextWindow
	}

	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("load context window: %w", err)
	}

	// Fetched newest-first; reverse into chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// AppendMessage persists a message and bumps the parent conversation's
// last-activity timestamp in the same transaction. A conversation that
// vanished between lookup and append is logged rather than raised; the
// message itself is still kept.
func (s *ConversationStore) AppendMessage(ctx context.Context, userID, conversationID, role, content string, toolCalls []models.ToolCall) (*models.Message, error) {
	msg := &models.Message{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		Role:           role,
		Content:        truncate(content, models.MaxContentLen),
	}
	if len(toolCalls) > 0 {
		b, err := json.Marshal(toolCalls)
		if err != nil {
			return nil, fmt.Errorf("encode tool calls: %w", err)
		}
		msg.ToolCalls = datatypes.JSON(b)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("save message: %w", err)
		}
		res := tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", time.Now())
		if res.Error != nil {
			return fmt.Errorf("touch conversation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			s.log.Warn("conversation missing while appending message",
				"conversation", conversationID, "message", msg.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// InferenceMessage is the minimal shape the inference call needs.
type InferenceMessage struct {
	Role    string
	Content string
}

// FormatForInference strips tool-call metadata from persisted messages.
func FormatForInference(messages []models.Message) []InferenceMessage {
	out := make([]InferenceMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, InferenceMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
