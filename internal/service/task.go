package service

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/dukerupert/todo/internal/apperr"
	"github.com/dukerupert/todo/internal/auth"
	"github.com/dukerupert/todo/internal/model"
)

const (
	minTitleLength       = 3
	maxTitleLength       = 40
	minDescriptionLength = 3
	maxDescriptionLength = 100
	minPriority          = 1
	maxPriority          = 5
)

type TaskRepository interface {
	Create(ctx context.Context, t *model.Task) (*model.Task, error)
	GetByID(ctx context.Context, id int64) (*model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Task, error)
	Update(ctx context.Context, t *model.Task) (*model.Task, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// TaskNotifier is told about every task that was created, updated or
// deleted.
type TaskNotifier interface {
	TaskChanged(action string, t *model.Task)
}

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

type TaskInput struct {
	Title       string
	Description string
	Priority    int
	Completed   bool
}

func (in TaskInput) Validate() error {
	var v apperr.ValidationError
	if n := utf8.RuneCountInString(in.Title); n < minTitleLength || n > maxTitleLength {
		v.Add("title", fmt.Sprintf("must be %d to %d characters", minTitleLength, maxTitleLength))
	}
	if n := utf8.RuneCountInString(in.Description); n < minDescriptionLength || n > maxDescriptionLength {
		v.Add("description", fmt.Sprintf("must be %d to %d characters", minDescriptionLength, maxDescriptionLength))
	}
	if in.Priority < minPriority || in.Priority > maxPriority {
		v.Add("priority", fmt.Sprintf("must be between %d and %d", minPriority, maxPriority))
	}
	return v.Err()
}

type TaskService struct {
	tasks    TaskRepository
	notifier TaskNotifier
	logger   *slog.Logger
}

// NewTaskService builds a TaskService. notifier may be nil.
func NewTaskService(tasks TaskRepository, notifier TaskNotifier, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:    tasks,
		notifier: notifier,
		logger:   logger.With("component", "tasks"),
	}
}

func (s *TaskService) notify(action string, t *model.Task) {
	if s.notifier != nil {
		s.notifier.TaskChanged(action, t)
	}
}

func (s *TaskService) ListOwned(ctx context.Context, ownerID int64) ([]model.Task, error) {
	return s.tasks.ListByOwner(ctx, ownerID)
}

func (s *TaskService) ListAll(ctx context.Context) ([]model.Task, error) {
	return s.tasks.List(ctx)
}

// ListVisible returns every task for an admin and the caller's own tasks
// otherwise.
func (s *TaskService) ListVisible(ctx context.Context, id auth.Identity) ([]model.Task, error) {
	if id.IsAdmin() {
		return s.ListAll(ctx)
	}
	return s.ListOwned(ctx, id.UserID)
}

// AdminListAll is ListAll guarded by the admin role.
func (s *TaskService) AdminListAll(ctx context.Context, id auth.Identity) ([]model.Task, error) {
	if !id.IsAdmin() {
		return nil, apperr.ErrForbidden
	}
	return s.ListAll(ctx)
}

// GetOwned returns the task only if ownerID owns it. A task owned by
// someone else is reported as not found.
func (s *TaskService) GetOwned(ctx context.Context, ownerID, taskID int64) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.OwnedBy(ownerID) {
		return nil, fmt.Errorf("task %d: %w", taskID, apperr.ErrNotFound)
	}
	return t, nil
}

// accessible loads the task if the caller owns it or is an admin.
func (s *TaskService) accessible(ctx context.Context, id auth.Identity, taskID int64) (*model.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || (!t.OwnedBy(id.UserID) && !id.IsAdmin()) {
		return nil, fmt.Errorf("task %d: %w", taskID, apperr.ErrNotFound)
	}
	return t, nil
}

func (s *TaskService) Create(ctx context.Context, ownerID int64, in TaskInput) (*model.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t, err := s.tasks.Create(ctx, &model.Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Completed:   in.Completed,
		OwnerID:     ownerID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("task created", "task_id", t.ID, "owner_id", ownerID)
	s.notify(ActionCreated, t)
	return t, nil
}

// Update replaces the four mutable fields of a task the caller owns, or of
// any task for an admin.
func (s *TaskService) Update(ctx context.Context, id auth.Identity, taskID int64, in TaskInput) (*model.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.accessible(ctx, id, taskID)
	if err != nil {
		return nil, err
	}

	existing.Title = in.Title
	existing.Description = in.Description
	existing.Priority = in.Priority
	existing.Completed = in.Completed

	t, err := s.tasks.Update(ctx, existing)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %d: %w", taskID, apperr.ErrNotFound)
	}
	s.logger.Debug("task updated", "task_id", t.ID, "by", id.UserID)
	s.notify(ActionUpdated, t)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id auth.Identity, taskID int64) error {
	t, err := s.accessible(ctx, id, taskID)
	if err != nil {
		return err
	}
	return s.remove(ctx, id, t)
}

// AdminDelete removes any task. The caller must be an admin.
func (s *TaskService) AdminDelete(ctx context.Context, id auth.Identity, taskID int64) error {
	if !id.IsAdmin() {
		return apperr.ErrForbidden
	}
	return s.Delete(ctx, id, taskID)
}

func (s *TaskService) remove(ctx context.Context, id auth.Identity, t *model.Task) error {
	ok, err := s.tasks.Delete(ctx, t.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("task %d: %w", t.ID, apperr.ErrNotFound)
	}
	s.logger.Debug("task deleted", "task_id", t.ID, "by", id.UserID)
	s.notify(ActionDeleted, t)
	return nil
}
