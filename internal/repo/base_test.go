package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

func TestCreateAndFindByID(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase[models.FarmTask](conn)

	task := &models.FarmTask{
		ID:       uuid.New(),
		FarmerID: uuid.New(),
		Title:    "Scout for aphids",
		Status:   enums.TaskStatusPending,
	}
	if _, err := base.Create(context.Background(), task); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := base.FindByID(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Title != task.Title {
		t.Fatalf("expected title %q got %q", task.Title, got.Title)
	}
}

func TestFindByIDMissingRow(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase[models.FarmTask](conn)

	_, err := base.FindByID(context.Background(), uuid.New())
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUpdatePatchesAndReloads(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase[models.FarmTask](conn)
	farmerID := uuid.New()
	tasks := seedTasks(t, conn, farmerID, []fixtureTask{
		{title: "Irrigate plot 2", status: enums.TaskStatusPending, dueDays: 1},
	})

	updated, err := base.Update(context.Background(), tasks[0].ID, map[string]any{
		"status": enums.TaskStatusCompleted,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != enums.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatalf("expected updated_at %v after created_at %v", updated.UpdatedAt, updated.CreatedAt)
	}
}

func TestUpdateMissingRow(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase[models.FarmTask](conn)

	_, err := base.Update(context.Background(), uuid.New(), map[string]any{"title": "x"})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase[models.FarmTask](conn)
	tasks := seedTasks(t, conn, uuid.New(), []fixtureTask{
		{title: "Repair fence", status: enums.TaskStatusPending, dueDays: 0},
	})

	if err := base.Delete(context.Background(), tasks[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := base.Delete(context.Background(), tasks[0].ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound on second delete, got %v", err)
	}
}

func TestCount(t *testing.T) {
	conn := openTestDB(t)
	base := NewBase[models.FarmTask](conn)
	farmerID := uuid.New()
	seedTasks(t, conn, farmerID, []fixtureTask{
		{title: "a", status: enums.TaskStatusPending, dueDays: 0},
		{title: "b", status: enums.TaskStatusCompleted, dueDays: 0},
		{title: "c", status: enums.TaskStatusPending, dueDays: 0},
	})

	total, err := base.Count(context.Background(), Eq("farmer_id", farmerID), Eq("status", enums.TaskStatusPending))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2, got %d", total)
	}
}
