package mock

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/classgraph/classgraph/internal/loader"
)

// MockHandler is a mock implementation of loader.Handler, standing in for
// a real classpath walker (local filesystem, archive, or object store) in
// unit tests that exercise internal/scan without touching disk.
type MockHandler struct {
	mock.Mock
}

var _ loader.Handler = (*MockHandler)(nil)

// Walk mocks the Walk method.
func (m *MockHandler) Walk(ctx context.Context, root string, emit func(relativePath string, r io.Reader) error) error {
	args := m.Called(ctx, root, emit)
	return args.Error(0)
}

// ExpectWalk sets up an expectation for Walk.
func (m *MockHandler) ExpectWalk(root string, err error) *mock.Call {
	return m.On("Walk", mock.Anything, root, mock.Anything).Return(err)
}
