package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/classgraph/classgraph/internal/graph"
	"github.com/classgraph/classgraph/internal/repository"
	"github.com/classgraph/classgraph/pkg/model"
)

// MockGraphRepository is a mock implementation of repository.GraphRepository.
type MockGraphRepository struct {
	mock.Mock
}

var (
	_ repository.GraphRepository    = (*MockGraphRepository)(nil)
	_ repository.ScanTaskRepository = (*MockScanTaskRepository)(nil)
)

// SaveGraph mocks the SaveGraph method.
func (m *MockGraphRepository) SaveGraph(ctx context.Context, jobUUID string, g *graph.Graph) error {
	args := m.Called(ctx, jobUUID, g)
	return args.Error(0)
}

// LoadGraph mocks the LoadGraph method.
func (m *MockGraphRepository) LoadGraph(ctx context.Context, jobUUID string) (*graph.Graph, error) {
	args := m.Called(ctx, jobUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*graph.Graph), args.Error(1)
}

// ListJobs mocks the ListJobs method.
func (m *MockGraphRepository) ListJobs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// DeleteGraph mocks the DeleteGraph method.
func (m *MockGraphRepository) DeleteGraph(ctx context.Context, jobUUID string) error {
	args := m.Called(ctx, jobUUID)
	return args.Error(0)
}

// ExpectSaveGraph sets up an expectation for SaveGraph.
func (m *MockGraphRepository) ExpectSaveGraph(jobUUID string, err error) *mock.Call {
	return m.On("SaveGraph", mock.Anything, jobUUID, mock.Anything).Return(err)
}

// ExpectLoadGraph sets up an expectation for LoadGraph.
func (m *MockGraphRepository) ExpectLoadGraph(jobUUID string, g *graph.Graph, err error) *mock.Call {
	return m.On("LoadGraph", mock.Anything, jobUUID).Return(g, err)
}

// MockScanTaskRepository is a mock implementation of repository.ScanTaskRepository.
type MockScanTaskRepository struct {
	mock.Mock
}

// CreateTask mocks the CreateTask method.
func (m *MockScanTaskRepository) CreateTask(ctx context.Context, task *model.ScanTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

// FetchPendingTasks mocks the FetchPendingTasks method.
func (m *MockScanTaskRepository) FetchPendingTasks(ctx context.Context, limit int) ([]*model.ScanTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ScanTask), args.Error(1)
}

// LockTask mocks the LockTask method.
func (m *MockScanTaskRepository) LockTask(ctx context.Context, id int64, owner string) (bool, error) {
	args := m.Called(ctx, id, owner)
	return args.Bool(0), args.Error(1)
}

// UpdateStatus mocks the UpdateStatus method.
func (m *MockScanTaskRepository) UpdateStatus(ctx context.Context, id int64, status model.ScanStatus, statusInfo string) error {
	args := m.Called(ctx, id, status, statusInfo)
	return args.Error(0)
}

// ExpectFetchPendingTasks sets up an expectation for FetchPendingTasks.
func (m *MockScanTaskRepository) ExpectFetchPendingTasks(limit int, tasks []*model.ScanTask, err error) *mock.Call {
	return m.On("FetchPendingTasks", mock.Anything, limit).Return(tasks, err)
}

// ExpectLockTask sets up an expectation for LockTask.
func (m *MockScanTaskRepository) ExpectLockTask(id int64, owner string, success bool, err error) *mock.Call {
	return m.On("LockTask", mock.Anything, id, owner).Return(success, err)
}

// ExpectUpdateStatus sets up an expectation for UpdateStatus.
func (m *MockScanTaskRepository) ExpectUpdateStatus(id int64, status model.ScanStatus, err error) *mock.Call {
	return m.On("UpdateStatus", mock.Anything, id, status, mock.Anything).Return(err)
}
