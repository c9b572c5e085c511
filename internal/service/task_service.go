package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go-task-manager/internal/model"
	"go-task-manager/internal/util"
	"go-task-manager/pkg/apierror"
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 5000
)

type taskStore interface {
	List(ctx context.Context, ownerID int64, status *model.TaskStatus) ([]model.Task, error)
	Create(ctx context.Context, t model.Task) (model.Task, error)
	FindByID(ctx context.Context, id int64) (model.Task, error)
	Update(ctx context.Context, t model.Task) (model.Task, error)
	Delete(ctx context.Context, id int64, ownerID int64) error
}

type taskRecorder interface {
	RecordTaskOperation(op string, outcome string)
}

type TaskService struct {
	store   taskStore
	metrics taskRecorder
	now     func() time.Time
}

func NewTaskService(store taskStore, metrics taskRecorder) *TaskService {
	return &TaskService{store: store, metrics: metrics, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, identity model.Identity, statusFilter string) ([]model.Task, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	var status *model.TaskStatus
	if filter := strings.TrimSpace(statusFilter); filter != "" {
		parsed := model.TaskStatus(filter)
		if !parsed.Valid() {
			return nil, apierror.Validation("unknown status filter", "status")
		}
		status = &parsed
	}

	tasks, err := s.store.List(ctx, identity.UserID, status)
	s.record("list", err)
	return tasks, err
}

func (s *TaskService) Create(ctx context.Context, identity model.Identity, req model.CreateTaskRequest) (model.Task, error) {
	if err := requireIdentity(identity); err != nil {
		return model.Task{}, err
	}

	priority := model.TaskPriority(strings.TrimSpace(req.Priority))
	if priority == "" {
		priority = model.TaskPriorityMedium
	}

	now := s.now().UTC()
	task := model.Task{
		Title:       util.CleanLine(req.Title),
		Description: util.CleanText(req.Description),
		Status:      model.TaskStatusPending,
		Priority:    priority,
		UserID:      identity.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateTask(task); err != nil {
		return model.Task{}, err
	}

	created, err := s.store.Create(ctx, task)
	s.record("create", err)
	return created, err
}

func (s *TaskService) Get(ctx context.Context, identity model.Identity, id int64) (model.Task, error) {
	task, err := s.load(ctx, identity, id)
	s.record("get", err)
	return task, err
}

// Update applies the non-nil fields of req to a task the caller owns.
func (s *TaskService) Update(ctx context.Context, identity model.Identity, id int64, req model.UpdateTaskRequest) (model.Task, error) {
	task, err := s.load(ctx, identity, id)
	if err != nil {
		s.record("update", err)
		return model.Task{}, err
	}

	if req.Title != nil {
		task.Title = util.CleanLine(*req.Title)
	}
	if req.Description != nil {
		task.Description = util.CleanText(*req.Description)
	}
	if req.Status != nil {
		task.Status = model.TaskStatus(strings.TrimSpace(*req.Status))
	}
	if req.Priority != nil {
		task.Priority = model.TaskPriority(strings.TrimSpace(*req.Priority))
	}
	if err := validateTask(task); err != nil {
		return model.Task{}, err
	}
	task.UpdatedAt = s.now().UTC()

	updated, err := s.store.Update(ctx, task)
	s.record("update", err)
	return updated, err
}

func (s *TaskService) Delete(ctx context.Context, identity model.Identity, id int64) error {
	if _, err := s.load(ctx, identity, id); err != nil {
		s.record("delete", err)
		return err
	}

	err := s.store.Delete(ctx, id, identity.UserID)
	s.record("delete", err)
	return err
}

// load fetches a task and applies the ownership check. A task owned by
// someone else is reported exactly like a missing one.
func (s *TaskService) load(ctx context.Context, identity model.Identity, id int64) (model.Task, error) {
	if err := requireIdentity(identity); err != nil {
		return model.Task{}, err
	}
	if id <= 0 {
		return model.Task{}, model.ErrTaskNotFound
	}

	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if err := authorize(task, identity); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func authorize(task model.Task, identity model.Identity) error {
	if !task.OwnedBy(identity) {
		return model.ErrTaskNotFound
	}
	return nil
}

func requireIdentity(identity model.Identity) error {
	if identity.UserID <= 0 {
		return model.ErrUnauthorized
	}
	return nil
}

func validateTask(t model.Task) error {
	if t.Title == "" {
		return apierror.Validation("title is required", "title")
	}
	if utf8.RuneCountInString(t.Title) > maxTitleLength {
		return apierror.Validation(fmt.Sprintf("title must be at most %d characters", maxTitleLength), "title")
	}
	if utf8.RuneCountInString(t.Description) > maxDescriptionLength {
		return apierror.Validation(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength), "description")
	}
	if !t.Status.Valid() {
		return apierror.Validation("status must be one of pending, in_progress, completed", "status")
	}
	if !t.Priority.Valid() {
		return apierror.Validation("priority must be one of low, medium, high", "priority")
	}
	return nil
}

func (s *TaskService) record(op string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.RecordTaskOperation(op, outcome)
}
