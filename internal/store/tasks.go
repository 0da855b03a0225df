package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/tvural/taskchat/internal/models"
	"gorm.io/gorm"
)

// TaskStore provides transactional CRUD over tasks. Every operation is
// scoped by the owning user id passed explicitly by the caller.
type TaskStore struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewTaskStore creates a task store on top of an open database handle.
func NewTaskStore(db *gorm.DB, log *slog.Logger) *TaskStore {
	return &TaskStore{db: db, log: log}
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// Create inserts a new pending task. The title must be non-empty after
// trimming; title and description are truncated to their limits rather
// than rejected.
func (s *TaskStore) Create(ctx context.Context, userID, title, description string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	task := &models.Task{
		UserID: userID,
		Title:  truncate(title, models.MaxTitleLen),
	}
	if description != "" {
		d := truncate(description, models.MaxDescriptionLen)
		task.Description = &d
	}

	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.log.Info("task created", "user", userID, "task", task.ID)
	return task, nil
}

// List returns the user's tasks, newest-created first, optionally
// filtered by status. Unknown filter values fall back to all.
func (s *TaskStore) List(ctx context.Context, userID, status string) ([]models.Task, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	switch status {
	case models.TaskStatusPending:
		q = q.Where("completed = ?", false)
	case models.TaskStatusCompleted:
		q = q.Where("completed = ?", true)
	}

	var tasks []models.Task
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// GetByID fetches a single task by id, scoped to the user.
func (s *TaskStore) GetByID(ctx context.Context, userID string, id uint) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: task %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &task, nil
}

// FindByName locates a pending task whose title matches the fragment,
// case-insensitively and in either direction (fragment in title, or
// title in fragment). Candidates are scanned oldest-created first so
// ambiguous fragments resolve deterministically.
func (s *TaskStore) FindByName(ctx context.Context, userID, fragment string) (*models.Task, error) {
	needle := strings.ToLower(strings.TrimSpace(fragment))
	if needle == "" {
		return nil, fmt.Errorf("%w: task name must not be empty", ErrValidation)
	}

	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND completed = ?", userID, false).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("find task by name: %w", err)
	}

	for i := range tasks {
		title := strings.ToLower(tasks[i].Title)
		if strings.Contains(title, needle) || strings.Contains(needle, title) {
			return &tasks[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no pending task matching %q", ErrNotFound, fragment)
}

// Update changes the title and/or description of a task inside one
// transaction. Nil fields are left untouched; the caller is expected to
// provide at least one.
func (s *TaskStore) Update(ctx context.Context, userID string, id uint, title, description *string) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: task %d", ErrNotFound, id)
			}
			return fmt.Errorf("get task: %w", err)
		}

		if title != nil {
			t := strings.TrimSpace(*title)
			if t == "" {
				return fmt.Errorf("%w: title must not be empty", ErrValidation)
			}
			task.Title = truncate(t, models.MaxTitleLen)
		}
		if description != nil {
			d := truncate(*description, models.MaxDescriptionLen)
			task.Description = &d
		}

		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("task updated", "user", userID, "task", task.ID)
	return &task, nil
}

// SetCompleted marks a task as completed. Completing an already-done
// task is a no-op success; the returned bool reports that case. The
// update timestamp is only bumped on an actual transition.
func (s *TaskStore) SetCompleted(ctx context.Context, userID string, id uint) (*models.Task, bool, error) {
	var task models.Task
	already := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: task %d", ErrNotFound, id)
			}
			return fmt.Errorf("get task: %w", err)
		}

		if task.Completed {
			already = true
			return nil
		}

		task.Completed = true
		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("complete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info("task completed", "user", userID, "task", task.ID, "already", already)
	return &task, already, nil
}

// Delete permanently removes a task and returns the deleted record.
func (s *TaskStore) Delete(ctx context.Context, userID string, id uint) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: task %d", ErrNotFound, id)
			}
			return fmt.Errorf("get task: %w", err)
		}
		if err := tx.Delete(&task).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("task deleted", "user", userID, "task", task.ID)
	return &task, nil
}
