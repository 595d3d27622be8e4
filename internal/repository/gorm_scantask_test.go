package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/classgraph/classgraph/pkg/model"
)

func setupScanTaskDB(t *testing.T) *GormScanTaskRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo := NewGormScanTaskRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func TestGormScanTaskRepository_CreateAndFetchPending(t *testing.T) {
	repo := setupScanTaskDB(t)
	ctx := context.Background()

	task := &model.ScanTask{
		JobUUID:       "job-1",
		Source:        model.SourceKindLocal,
		Roots:         []string{"/data/app.jar"},
		RequestParams: model.ScanParams{Concurrency: 4},
	}
	require.NoError(t, repo.CreateTask(ctx, task))
	assert.NotZero(t, task.ID)
	assert.Equal(t, model.ScanStatusPending, task.Status)

	pending, err := repo.FetchPendingTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "job-1", pending[0].JobUUID)
	assert.Equal(t, []string{"/data/app.jar"}, pending[0].Roots)
	assert.Equal(t, 4, pending[0].RequestParams.Concurrency)
}

func TestGormScanTaskRepository_LockTask(t *testing.T) {
	repo := setupScanTaskDB(t)
	ctx := context.Background()

	task := &model.ScanTask{JobUUID: "job-1", Roots: []string{"a.jar"}}
	require.NoError(t, repo.CreateTask(ctx, task))

	locked, err := repo.LockTask(ctx, task.ID, "worker-1")
	require.NoError(t, err)
	assert.True(t, locked)

	// A second attempt to lock the same already-running task must fail.
	locked, err = repo.LockTask(ctx, task.ID, "worker-2")
	require.NoError(t, err)
	assert.False(t, locked)

	pending, err := repo.FetchPendingTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestGormScanTaskRepository_UpdateStatus(t *testing.T) {
	repo := setupScanTaskDB(t)
	ctx := context.Background()

	task := &model.ScanTask{JobUUID: "job-1", Roots: []string{"a.jar"}}
	require.NoError(t, repo.CreateTask(ctx, task))
	require.NoError(t, repo.UpdateStatus(ctx, task.ID, model.ScanStatusCompleted, "ok"))

	var row ScanTaskRow
	require.NoError(t, repo.db.First(&row, task.ID).Error)
	assert.Equal(t, int(model.ScanStatusCompleted), row.Status)
	assert.Equal(t, "ok", row.StatusInfo)
	assert.NotNil(t, row.EndTime)
}
