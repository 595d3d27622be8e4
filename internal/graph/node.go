// Package graph builds and queries the cross-linked Class Graph: one node
// per distinct dotted class name ever observed, either as a fully scanned
// classfile or as a mere reference from another class.
package graph

import "github.com/classgraph/classgraph/internal/classfile"

// RelationKind identifies one of the seven edge kinds a Node can carry.
type RelationKind int

const (
	RelSuperclass RelationKind = iota
	RelSubclass
	RelImplementedInterface
	RelImplementingClass
	RelAnnotation
	RelAnnotatedClass
	RelFieldType
)

// inverse returns the paired relation kind for the relations that come in
// inverse pairs. FIELD_TYPE has no inverse and returns itself; callers must
// not record an automatic reverse edge for it.
func (k RelationKind) inverse() RelationKind {
	switch k {
	case RelSuperclass:
		return RelSubclass
	case RelSubclass:
		return RelSuperclass
	case RelImplementedInterface:
		return RelImplementingClass
	case RelImplementingClass:
		return RelImplementedInterface
	case RelAnnotation:
		return RelAnnotatedClass
	case RelAnnotatedClass:
		return RelAnnotation
	default:
		return k
	}
}

func (k RelationKind) String() string {
	switch k {
	case RelSuperclass:
		return "SUPERCLASS"
	case RelSubclass:
		return "SUBCLASS"
	case RelImplementedInterface:
		return "IMPLEMENTED_INTERFACE"
	case RelImplementingClass:
		return "IMPLEMENTING_CLASS"
	case RelAnnotation:
		return "ANNOTATION"
	case RelAnnotatedClass:
		return "ANNOTATED_CLASS"
	case RelFieldType:
		return "FIELD_TYPE"
	default:
		return "UNKNOWN"
	}
}

// Node is one ClassInfo: a class graph vertex keyed by its dotted base
// name. Equality and ordering are by Name; index is an internal dense
// identifier assigned at creation time, used only to back a Bitset visited
// set during traversal.
type Node struct {
	index int
	Name  string

	IsInterface  bool
	IsAnnotation bool

	ClassfileScanned    bool
	CompanionScanned    bool
	TraitMethodsScanned bool

	FieldValues map[string]classfile.Constant

	relations map[RelationKind]map[*Node]struct{}
}

func newNode(index int, name string) *Node {
	return &Node{
		index:       index,
		Name:        name,
		FieldValues: make(map[string]classfile.Constant),
		relations:   make(map[RelationKind]map[*Node]struct{}),
	}
}

func (n *Node) addRelation(kind RelationKind, target *Node) {
	set := n.relations[kind]
	if set == nil {
		set = make(map[*Node]struct{})
		n.relations[kind] = set
	}
	set[target] = struct{}{}
}

// Direct returns the immediate edge targets of the given relation kind, in
// no particular order.
func (n *Node) Direct(kind RelationKind) []*Node {
	set := n.relations[kind]
	out := make([]*Node, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	return out
}

// IsAnnotationCategory reports whether n belongs to the "annotation"
// query category.
func (n *Node) IsAnnotationCategory() bool {
	return n.IsAnnotation
}

// IsInterfaceCategory reports whether n belongs to the "interface"
// query category: a non-annotation interface, or any node annotation or
// not that is used as an interface somewhere in the graph (it has at
// least one IMPLEMENTING_CLASS edge).
func (n *Node) IsInterfaceCategory() bool {
	if n.IsInterface && !n.IsAnnotation {
		return true
	}
	return len(n.relations[RelImplementingClass]) > 0
}

// IsStandardClassCategory reports whether n belongs to the "standard
// class" query category: not an annotation, and either it participates in
// a class hierarchy (sub- or super-class edges) or it is not used as an
// implemented interface anywhere.
func (n *Node) IsStandardClassCategory() bool {
	if n.IsAnnotation {
		return false
	}
	if len(n.relations[RelSubclass]) > 0 || len(n.relations[RelSuperclass]) > 0 {
		return true
	}
	return len(n.relations[RelImplementingClass]) == 0
}

// HasCategory reports whether n matches the named query category.
func (n *Node) HasCategory(c Category) bool {
	switch c {
	case CategoryAny:
		return true
	case CategoryAnnotation:
		return n.IsAnnotationCategory()
	case CategoryInterface:
		return n.IsInterfaceCategory()
	case CategoryStandardClass:
		return n.IsStandardClassCategory()
	default:
		return false
	}
}

// Category is one of the class-category filters the query surface exposes.
type Category int

const (
	CategoryAny Category = iota
	CategoryAnnotation
	CategoryInterface
	CategoryStandardClass
)
