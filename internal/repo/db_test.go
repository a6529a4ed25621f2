package repo

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
)

var testDBSeq atomic.Int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache DSN keeps the in-memory database alive across the
	// pooled connections GORM opens.
	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// sqlite folds LIKE case by default; postgres does not. Keep the fixture
	// backend case-sensitive so LIKE and ILIKE stay distinct operators.
	if err := conn.Exec("PRAGMA case_sensitive_like = ON").Error; err != nil {
		t.Fatalf("failed to configure test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.FarmTask{}); err != nil {
		t.Fatalf("failed to migrate fixture schema: %v", err)
	}
	return conn
}

type fixtureTask struct {
	title   string
	status  enums.TaskStatus
	dueDays int
}

func seedTasks(t *testing.T, conn *gorm.DB, farmerID uuid.UUID, fixtures []fixtureTask) []models.FarmTask {
	t.Helper()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.FarmTask, 0, len(fixtures))
	for _, f := range fixtures {
		due := base.AddDate(0, 0, f.dueDays)
		task := models.FarmTask{
			ID:       uuid.New(),
			FarmerID: farmerID,
			Title:    f.title,
			DueDate:  &due,
			Status:   f.status,
		}
		if err := conn.Create(&task).Error; err != nil {
			t.Fatalf("seed task %q: %v", f.title, err)
		}
		out = append(out, task)
	}
	return out
}
