package scan

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/classgraph/classgraph/internal/loader"
	cgmock "github.com/classgraph/classgraph/internal/mock"
	"github.com/classgraph/classgraph/internal/testutil"
)

func TestScanner_Scan_LinksWalkedClassfiles(t *testing.T) {
	handler := &cgmock.MockHandler{}
	handler.On("Walk", mock.Anything, "classes", mock.Anything).
		Run(func(args mock.Arguments) {
			emit := args.Get(2).(func(string, io.Reader) error)
			data := testutil.NewClassfileBuilder("com.example.Widget").
				WithSuperclass("com.example.Base").
				Bytes()
			require.NoError(t, emit("com/example/Widget.class", bytes.NewReader(data)))
		}).
		Return(nil)

	registry := loader.NewRegistry()
	registry.Register("mem", handler)

	scanner := New(Options{Concurrency: 2}, registry)
	g, err := scanner.Scan(context.Background(), []string{"mem://classes"})
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	widget, ok := g.GetNode("com.example.Widget")
	require.True(t, ok)
	assert.True(t, widget.ClassfileScanned)

	handler.AssertExpectations(t)
}

func TestScanner_Scan_PropagatesWalkError(t *testing.T) {
	handler := &cgmock.MockHandler{}
	handler.ExpectWalk("classes", errors.New("walk failed"))

	registry := loader.NewRegistry()
	registry.Register("mem", handler)

	scanner := New(Options{Concurrency: 1}, registry)
	_, err := scanner.Scan(context.Background(), []string{"mem://classes"})
	assert.ErrorContains(t, err, "walk failed")
}

func TestScanner_Scan_NoRootsReturnsEmptyGraph(t *testing.T) {
	scanner := New(Options{}, loader.NewRegistry())
	g, err := scanner.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestSplitScheme(t *testing.T) {
	cases := []struct {
		root       string
		wantScheme string
		wantPath   string
	}{
		{"cos://bucket/prefix", "cos", "bucket/prefix"},
		{"./local/classes", "", "./local/classes"},
		{"/abs/path", "", "/abs/path"},
	}

	for _, tc := range cases {
		scheme, path := splitScheme(tc.root)
		assert.Equal(t, tc.wantScheme, scheme)
		assert.Equal(t, tc.wantPath, path)
	}
}
