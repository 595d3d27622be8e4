package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgraph/classgraph/internal/graph"
	"github.com/classgraph/classgraph/internal/loader"
	"github.com/classgraph/classgraph/internal/scan"
	"github.com/classgraph/classgraph/internal/testutil"
)

// writeClassfile writes a built classfile under dir, mirroring the package
// directory layout a real classpath root would have on disk.
func writeClassfile(t *testing.T, dir, relativePath string, data []byte) {
	t.Helper()
	full := filepath.Join(dir, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, data, 0o644))
}

// TestFullScanPipeline_LocalClasspath exercises the whole scan pipeline
// against a real filesystem classpath root: walk, parse, and link a small
// class hierarchy, then query the resulting Class Graph the way a caller
// of internal/repository would after loading it back.
func TestFullScanPipeline_LocalClasspath(t *testing.T) {
	root := t.TempDir()

	writeClassfile(t, root, "com/example/Greeter.class",
		testutil.NewClassfileBuilder("com.example.Greeter").AsInterface().Bytes())

	writeClassfile(t, root, "com/example/Base.class",
		testutil.NewClassfileBuilder("com.example.Base").
			WithField("name", "Ljava/lang/String;", testutil.FieldOptions{Public: true}).
			Bytes())

	writeClassfile(t, root, "com/example/Widget.class",
		testutil.NewClassfileBuilder("com.example.Widget").
			WithSuperclass("com.example.Base").
			WithInterface("com.example.Greeter").
			WithAnnotation("com.example.Deprecated").
			Bytes())

	writeClassfile(t, root, "com/example/Deprecated.class",
		testutil.NewClassfileBuilder("com.example.Deprecated").AsAnnotation().Bytes())

	registry := loader.NewRegistry()
	scanner := scan.New(scan.Options{Concurrency: 2}, registry)

	g, err := scanner.Scan(context.Background(), []string{root})
	require.NoError(t, err)
	require.NotNil(t, g)

	// The four scanned classes plus java.lang.String, Base's field type.
	assert.Equal(t, 5, g.Len())

	widget, ok := g.GetNode("com.example.Widget")
	require.True(t, ok)
	assert.False(t, widget.IsInterfaceCategory())

	supers := widget.Direct(graph.RelSuperclass)
	require.Len(t, supers, 1)
	assert.Equal(t, "com.example.Base", supers[0].Name)

	ifaces := widget.Direct(graph.RelImplementedInterface)
	require.Len(t, ifaces, 1)
	assert.Equal(t, "com.example.Greeter", ifaces[0].Name)

	annos := widget.Direct(graph.RelAnnotation)
	require.Len(t, annos, 1)
	assert.Equal(t, "com.example.Deprecated", annos[0].Name)

	greeter, ok := g.GetNode("com.example.Greeter")
	require.True(t, ok)
	assert.True(t, greeter.IsInterfaceCategory())
	implementers := greeter.Direct(graph.RelImplementingClass)
	require.Len(t, implementers, 1)
	assert.Equal(t, "com.example.Widget", implementers[0].Name)

	annotation, ok := g.GetNode("com.example.Deprecated")
	require.True(t, ok)
	assert.True(t, annotation.IsAnnotationCategory())

	interfaces := graph.Filter(g.Nodes(), graph.CategoryInterface, false)
	assert.Len(t, interfaces, 1)

	annotations := graph.Filter(g.Nodes(), graph.CategoryAnnotation, false)
	assert.Len(t, annotations, 1)

	reachableFromWidget := graph.Reachable(widget, graph.RelSuperclass)
	assert.Len(t, reachableFromWidget, 1)
	assert.Equal(t, "com.example.Base", reachableFromWidget[0].Name)
}

// TestFullScanPipeline_UnresolvedSuperclassBecomesExternalNode covers the
// edge case of a classfile that references a superclass never scanned:
// the graph must still link it in as an external stub node rather than
// erroring the whole scan.
func TestFullScanPipeline_UnresolvedSuperclassBecomesExternalNode(t *testing.T) {
	root := t.TempDir()

	writeClassfile(t, root, "com/example/Orphan.class",
		testutil.NewClassfileBuilder("com.example.Orphan").
			WithSuperclass("com.example.NeverScanned").
			Bytes())

	registry := loader.NewRegistry()
	scanner := scan.New(scan.Options{Concurrency: 1}, registry)

	g, err := scanner.Scan(context.Background(), []string{root})
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())

	external, ok := g.GetNode("com.example.NeverScanned")
	require.True(t, ok)
	assert.False(t, external.IsInterfaceCategory())
	assert.False(t, external.IsAnnotationCategory())

	onlyScanned := graph.Filter(g.Nodes(), graph.CategoryAny, false)
	assert.Len(t, onlyScanned, 1)
}
