package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgraph/classgraph/internal/classfile"
	"github.com/classgraph/classgraph/internal/intern"
	apperrors "github.com/classgraph/classgraph/pkg/errors"
)

func newTestGraph() *Graph {
	return New(intern.New(), nil)
}

func TestGraph_Link_CreatesNodeAndBidirectionalSuperclassEdge(t *testing.T) {
	g := newTestGraph()
	rec := classfile.NewRecord("com.example.Widget")
	rec.SuperclassName = "com.example.Base"

	require.NoError(t, g.Link(rec))

	widget, ok := g.GetNode("com.example.Widget")
	require.True(t, ok)
	base, ok := g.GetNode("com.example.Base")
	require.True(t, ok)

	assert.Equal(t, []*Node{base}, widget.Direct(RelSuperclass))
	assert.Equal(t, []*Node{widget}, base.Direct(RelSubclass))
}

func TestGraph_Link_InterfaceEdgeSetsIsInterfaceOnTarget(t *testing.T) {
	g := newTestGraph()
	rec := classfile.NewRecord("com.example.Widget")
	rec.ImplementedInterfaces = []string{"com.example.Greeter"}

	require.NoError(t, g.Link(rec))

	greeter, ok := g.GetNode("com.example.Greeter")
	require.True(t, ok)
	assert.True(t, greeter.IsInterface)

	widget, _ := g.GetNode("com.example.Widget")
	assert.Contains(t, widget.Direct(RelImplementedInterface), greeter)
	assert.Contains(t, greeter.Direct(RelImplementingClass), widget)
}

func TestGraph_Link_AnnotationEdgeSetsIsAnnotationOnTarget(t *testing.T) {
	g := newTestGraph()
	rec := classfile.NewRecord("com.example.Widget")
	rec.Annotations = []string{"com.example.Tag"}

	require.NoError(t, g.Link(rec))

	tag, ok := g.GetNode("com.example.Tag")
	require.True(t, ok)
	assert.True(t, tag.IsAnnotation)

	widget, _ := g.GetNode("com.example.Widget")
	assert.Contains(t, widget.Direct(RelAnnotation), tag)
	assert.Contains(t, tag.Direct(RelAnnotatedClass), widget)
}

func TestGraph_Link_FieldTypeEdgeIsOneWay(t *testing.T) {
	g := newTestGraph()
	rec := classfile.NewRecord("com.example.Widget")
	rec.FieldTypes = map[string]struct{}{"com.example.Helper": {}}

	require.NoError(t, g.Link(rec))

	helper, ok := g.GetNode("com.example.Helper")
	require.True(t, ok)
	widget, _ := g.GetNode("com.example.Widget")

	assert.Contains(t, widget.Direct(RelFieldType), helper)
	assert.Empty(t, helper.Direct(RelFieldType))
}

func TestGraph_Link_MergesStaticFinalFieldValues(t *testing.T) {
	g := newTestGraph()
	rec := classfile.NewRecord("com.example.Widget")
	rec.StaticFinalFieldValues["MAX"] = classfile.Constant{Kind: classfile.KindInt32, Int32: 7}

	require.NoError(t, g.Link(rec))

	widget, _ := g.GetNode("com.example.Widget")
	val, ok := widget.FieldValues["MAX"]
	require.True(t, ok)
	assert.Equal(t, int32(7), val.Int32)
}

func TestGraph_Link_DuplicateClassfileScanIsRejected(t *testing.T) {
	g := newTestGraph()
	rec := classfile.NewRecord("com.example.Widget")

	require.NoError(t, g.Link(rec))
	err := g.Link(classfile.NewRecord("com.example.Widget"))
	assert.ErrorIs(t, err, apperrors.ErrDuplicateClass)
}

func TestGraph_Link_CompanionAndTraitAuxKindsAreIndependentOfMainClass(t *testing.T) {
	g := newTestGraph()
	require.NoError(t, g.Link(classfile.NewRecord("com.example.Widget")))
	require.NoError(t, g.Link(classfile.NewRecord("com.example.Widget$")))
	require.NoError(t, g.Link(classfile.NewRecord("com.example.Widget$class")))

	// All three aux kinds merge onto the same base node.
	assert.Equal(t, 1, g.Len())

	err := g.Link(classfile.NewRecord("com.example.Widget$"))
	assert.ErrorIs(t, err, apperrors.ErrDuplicateClass)
}

func TestGraph_Link_OrMergesInterfaceAndAnnotationFlags(t *testing.T) {
	g := newTestGraph()
	main := classfile.NewRecord("com.example.Widget")
	require.NoError(t, g.Link(main))

	companion := classfile.NewRecord("com.example.Widget$")
	companion.IsInterface = true
	require.NoError(t, g.Link(companion))

	node, _ := g.GetNode("com.example.Widget")
	assert.True(t, node.IsInterface)
}

func TestGraph_ConsumeParseResult_NilRecordOnlyFlushesLog(t *testing.T) {
	g := newTestGraph()
	res := &classfile.ParseResult{
		Record: nil,
		Log:    []classfile.LogEntry{{Level: 0, Message: "skipped"}},
	}
	require.NoError(t, g.ConsumeParseResult(res))
	assert.Equal(t, 0, g.Len())
}
