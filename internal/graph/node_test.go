package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationKind_Inverse(t *testing.T) {
	cases := []struct {
		kind RelationKind
		want RelationKind
	}{
		{RelSuperclass, RelSubclass},
		{RelSubclass, RelSuperclass},
		{RelImplementedInterface, RelImplementingClass},
		{RelImplementingClass, RelImplementedInterface},
		{RelAnnotation, RelAnnotatedClass},
		{RelAnnotatedClass, RelAnnotation},
		{RelFieldType, RelFieldType},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.kind.inverse())
	}
}

func TestRelationKind_String(t *testing.T) {
	assert.Equal(t, "SUPERCLASS", RelSuperclass.String())
	assert.Equal(t, "FIELD_TYPE", RelFieldType.String())
	assert.Equal(t, "UNKNOWN", RelationKind(99).String())
}

func TestNode_DirectReturnsRecordedTargets(t *testing.T) {
	a := newNode(0, "a")
	b := newNode(1, "b")
	c := newNode(2, "c")

	a.addRelation(RelSuperclass, b)
	a.addRelation(RelSuperclass, c)

	targets := a.Direct(RelSuperclass)
	assert.Len(t, targets, 2)
	assert.Empty(t, a.Direct(RelFieldType))
}

func TestNode_IsAnnotationCategory(t *testing.T) {
	n := newNode(0, "a")
	assert.False(t, n.IsAnnotationCategory())
	n.IsAnnotation = true
	assert.True(t, n.IsAnnotationCategory())
}

func TestNode_IsInterfaceCategory_PlainInterface(t *testing.T) {
	n := newNode(0, "a")
	n.IsInterface = true
	assert.True(t, n.IsInterfaceCategory())
}

func TestNode_IsInterfaceCategory_AnnotationIsNotPlainInterface(t *testing.T) {
	n := newNode(0, "a")
	n.IsInterface = true
	n.IsAnnotation = true
	assert.False(t, n.IsInterfaceCategory())
}

func TestNode_IsInterfaceCategory_ImplementedElsewhereEvenIfAnnotation(t *testing.T) {
	n := newNode(0, "a")
	impl := newNode(1, "impl")
	n.IsAnnotation = true
	n.addRelation(RelImplementingClass, impl)
	assert.True(t, n.IsInterfaceCategory())
}

func TestNode_IsStandardClassCategory_AnnotationExcluded(t *testing.T) {
	n := newNode(0, "a")
	n.IsAnnotation = true
	assert.False(t, n.IsStandardClassCategory())
}

func TestNode_IsStandardClassCategory_HierarchyParticipant(t *testing.T) {
	n := newNode(0, "a")
	sup := newNode(1, "sup")
	n.addRelation(RelSuperclass, sup)
	assert.True(t, n.IsStandardClassCategory())
}

func TestNode_IsStandardClassCategory_NotUsedAsInterface(t *testing.T) {
	n := newNode(0, "a")
	assert.True(t, n.IsStandardClassCategory())
}

func TestNode_IsStandardClassCategory_UsedOnlyAsInterface(t *testing.T) {
	n := newNode(0, "a")
	impl := newNode(1, "impl")
	n.addRelation(RelImplementingClass, impl)
	assert.False(t, n.IsStandardClassCategory())
}

func TestNode_HasCategory(t *testing.T) {
	n := newNode(0, "a")
	n.IsInterface = true
	assert.True(t, n.HasCategory(CategoryAny))
	assert.True(t, n.HasCategory(CategoryInterface))
	assert.False(t, n.HasCategory(CategoryAnnotation))
}
