package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/lifecycle"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

// StatusTransitions is the task state machine. A task can be checked off
// directly from pending or via in_progress; completed is terminal.
var StatusTransitions = lifecycle.Table[enums.TaskStatus]{
	enums.TaskStatusPending:    {enums.TaskStatusInProgress, enums.TaskStatusCompleted},
	enums.TaskStatusInProgress: {enums.TaskStatusPending, enums.TaskStatusCompleted},
}

// Service exposes the farmer's task board.
type Service interface {
	Create(ctx context.Context, caller auth.Principal, input CreateTaskInput) (*models.FarmTask, error)
	Update(ctx context.Context, caller auth.Principal, id uuid.UUID, input UpdateTaskInput) (*models.FarmTask, error)
	Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error
	GetByFarmer(ctx context.Context, caller auth.Principal) ([]models.FarmTask, error)
	GetByStatus(ctx context.Context, caller auth.Principal, status enums.TaskStatus) ([]models.FarmTask, error)
	GetOverdue(ctx context.Context, caller auth.Principal) ([]models.FarmTask, error)
	UpdateStatus(ctx context.Context, caller auth.Principal, id uuid.UUID, next enums.TaskStatus) (*models.FarmTask, error)
}

// CreateTaskInput holds the validated payload to create a task.
type CreateTaskInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
}

// UpdateTaskInput holds optional mutation values for a task.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
}

type taskStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.FarmTask, error)
	FindByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.FarmTask, error)
	FindByStatus(ctx context.Context, farmerID uuid.UUID, status enums.TaskStatus) ([]models.FarmTask, error)
	FindOverdue(ctx context.Context, farmerID uuid.UUID, now time.Time) ([]models.FarmTask, error)
	Create(ctx context.Context, record *models.FarmTask) (*models.FarmTask, error)
	Update(ctx context.Context, id uuid.UUID, patch map[string]any) (*models.FarmTask, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo taskStore
	logg *logger.Logger
	now  func() time.Time
}

// NewService constructs the task service.
func NewService(repo taskStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("task repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, caller auth.Principal, input CreateTaskInput) (*models.FarmTask, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	task := &models.FarmTask{
		ID:          uuid.New(),
		FarmerID:    caller.ProfileID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      enums.TaskStatusPending,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, db.Wrap(err, "insert task")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"task_id": created.ID, "farmer_id": created.FarmerID})
	s.logg.Info(ctx, "task created")
	return created, nil
}

func (s *service) Update(ctx context.Context, caller auth.Principal, id uuid.UUID, input UpdateTaskInput) (*models.FarmTask, error) {
	if _, err := s.loadOwned(ctx, caller, id); err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		patch["title"] = trimmed
	}
	if input.Description != nil {
		patch["description"] = input.Description
	}
	if input.DueDate != nil {
		patch["due_date"] = *input.DueDate
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, db.Wrap(err, "update task")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return db.Wrap(err, "delete task")
	}
	return nil
}

func (s *service) GetByFarmer(ctx context.Context, caller auth.Principal) ([]models.FarmTask, error) {
	rows, err := s.repo.FindByFarmer(ctx, caller.ProfileID)
	if err != nil {
		return nil, db.Wrap(err, "list tasks")
	}
	return rows, nil
}

func (s *service) GetByStatus(ctx context.Context, caller auth.Principal, status enums.TaskStatus) ([]models.FarmTask, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid task status %q", status))
	}
	rows, err := s.repo.FindByStatus(ctx, caller.ProfileID, status)
	if err != nil {
		return nil, db.Wrap(err, "list tasks by status")
	}
	return rows, nil
}

func (s *service) GetOverdue(ctx context.Context, caller auth.Principal) ([]models.FarmTask, error) {
	rows, err := s.repo.FindOverdue(ctx, caller.ProfileID, s.now())
	if err != nil {
		return nil, db.Wrap(err, "list overdue tasks")
	}
	return rows, nil
}

func (s *service) UpdateStatus(ctx context.Context, caller auth.Principal, id uuid.UUID, next enums.TaskStatus) (*models.FarmTask, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid task status %q", next))
	}
	task, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := StatusTransitions.Step(task.Status, next); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, map[string]any{"status": next})
	if err != nil {
		return nil, db.Wrap(err, "update task status")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"task_id": id, "from": task.Status, "to": next})
	s.logg.Info(ctx, "task status changed")
	return updated, nil
}

func (s *service) loadOwned(ctx context.Context, caller auth.Principal, id uuid.UUID) (*models.FarmTask, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Wrap(err, "load task")
	}
	if err := auth.RequireOwner(caller, task.FarmerID); err != nil {
		return nil, err
	}
	return task, nil
}
