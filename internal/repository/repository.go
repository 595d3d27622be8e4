// Package repository provides database abstraction for the classgraph
// scan service: persisting one scan's Class Graph (nodes, relation edges,
// and static final field values) and loading it back.
package repository

import (
	"context"

	"github.com/classgraph/classgraph/internal/graph"
	"github.com/classgraph/classgraph/pkg/model"
)

// GraphRepository defines the interface for Class Graph persistence.
type GraphRepository interface {
	// SaveGraph persists every node, edge, and field value in g under the
	// given job UUID, replacing any graph previously saved under it.
	SaveGraph(ctx context.Context, jobUUID string, g *graph.Graph) error

	// LoadGraph reconstructs the Class Graph saved under jobUUID by
	// replaying its persisted records through a fresh linker.
	LoadGraph(ctx context.Context, jobUUID string) (*graph.Graph, error)

	// ListJobs returns the distinct job UUIDs with a saved graph.
	ListJobs(ctx context.Context) ([]string, error)

	// DeleteGraph removes every row persisted under jobUUID.
	DeleteGraph(ctx context.Context, jobUUID string) error
}

// ScanTaskRepository defines the interface for the queued-job table a
// database-backed scan job source polls.
type ScanTaskRepository interface {
	// CreateTask inserts task as a new pending row and stamps its
	// generated ID back onto task.
	CreateTask(ctx context.Context, task *model.ScanTask) error

	// FetchPendingTasks returns up to limit tasks still in
	// model.ScanStatusPending, oldest first.
	FetchPendingTasks(ctx context.Context, limit int) ([]*model.ScanTask, error)

	// LockTask atomically transitions a pending task to running, tagged
	// with owner, and reports whether this call won the lock (false
	// means another worker already claimed it).
	LockTask(ctx context.Context, id int64, owner string) (bool, error)

	// UpdateStatus sets a task's status and status info, stamping the
	// end time when the new status is completed or failed (the begin time
	// is stamped by LockTask).
	UpdateStatus(ctx context.Context, id int64, status model.ScanStatus, statusInfo string) error
}
