package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/classgraph/classgraph/pkg/model"
)

// GormScanTaskRepository implements ScanTaskRepository using GORM.
type GormScanTaskRepository struct {
	db *gorm.DB
}

// NewGormScanTaskRepository creates a new GormScanTaskRepository.
func NewGormScanTaskRepository(db *gorm.DB) *GormScanTaskRepository {
	return &GormScanTaskRepository{db: db}
}

// AutoMigrate creates or updates the scan_tasks table.
func (r *GormScanTaskRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&ScanTaskRow{})
}

// CreateTask inserts task as a new pending row, serializing its roots and
// scan parameters to JSON, and stamps the generated ID back onto task.
func (r *GormScanTaskRepository) CreateTask(ctx context.Context, task *model.ScanTask) error {
	rootsJSON, err := json.Marshal(task.Roots)
	if err != nil {
		return fmt.Errorf("marshal roots: %w", err)
	}
	paramsJSON, err := json.Marshal(task.RequestParams)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	row := ScanTaskRow{
		JobUUID:    task.JobUUID,
		Source:     int(task.Source),
		Status:     int(model.ScanStatusPending),
		RootsJSON:  string(rootsJSON),
		ParamsJSON: string(paramsJSON),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create scan task: %w", err)
	}

	task.ID = row.ID
	task.Status = model.ScanStatusPending
	task.CreateTime = row.CreateTime
	return nil
}

// FetchPendingTasks returns up to limit pending tasks, oldest first.
func (r *GormScanTaskRepository) FetchPendingTasks(ctx context.Context, limit int) ([]*model.ScanTask, error) {
	var rows []ScanTaskRow
	err := r.db.WithContext(ctx).
		Where("status = ?", int(model.ScanStatusPending)).
		Order("create_time ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch pending scan tasks: %w", err)
	}

	tasks := make([]*model.ScanTask, 0, len(rows))
	for _, row := range rows {
		task, err := rowToScanTask(row)
		if err != nil {
			return nil, fmt.Errorf("decode scan task %d: %w", row.ID, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// LockTask claims a pending task for owner by updating it to Running only
// if it is still Pending, a compare-and-swap that keeps two scheduler
// instances from double-processing a task.
func (r *GormScanTaskRepository) LockTask(ctx context.Context, id int64, owner string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&ScanTaskRow{}).
		Where("id = ? AND status = ?", id, int(model.ScanStatusPending)).
		Updates(map[string]interface{}{
			"status":     int(model.ScanStatusRunning),
			"locked_by":  owner,
			"begin_time": now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("lock scan task %d: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateStatus sets a task's terminal or in-progress status.
func (r *GormScanTaskRepository) UpdateStatus(ctx context.Context, id int64, status model.ScanStatus, statusInfo string) error {
	updates := map[string]interface{}{
		"status":      int(status),
		"status_info": statusInfo,
	}
	if status == model.ScanStatusCompleted || status == model.ScanStatusFailed {
		updates["end_time"] = time.Now()
	}

	err := r.db.WithContext(ctx).Model(&ScanTaskRow{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("update scan task %d status: %w", id, err)
	}
	return nil
}

func rowToScanTask(row ScanTaskRow) (*model.ScanTask, error) {
	var roots []string
	if row.RootsJSON != "" {
		if err := json.Unmarshal([]byte(row.RootsJSON), &roots); err != nil {
			return nil, fmt.Errorf("unmarshal roots: %w", err)
		}
	}
	var params model.ScanParams
	if row.ParamsJSON != "" {
		if err := json.Unmarshal([]byte(row.ParamsJSON), &params); err != nil {
			return nil, fmt.Errorf("unmarshal params: %w", err)
		}
	}

	return &model.ScanTask{
		ID:            row.ID,
		JobUUID:       row.JobUUID,
		Source:        model.SourceKind(row.Source),
		Status:        model.ScanStatus(row.Status),
		StatusInfo:    row.StatusInfo,
		Roots:         roots,
		RequestParams: params,
		CreateTime:    row.CreateTime,
		BeginTime:     row.BeginTime,
		EndTime:       row.EndTime,
	}, nil
}
