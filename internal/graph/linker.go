package graph

import (
	"strings"

	"github.com/classgraph/classgraph/internal/classfile"
	"github.com/classgraph/classgraph/internal/intern"
	apperrors "github.com/classgraph/classgraph/pkg/errors"
	"github.com/classgraph/classgraph/pkg/utils"
)

type auxKind int

const (
	auxNone auxKind = iota
	auxCompanion
	auxTrait
)

// baseNameOf splits a raw class name into its Scala-merged base name and
// which auxiliary form (if any) it represents. A companion object's name
// ends in "$"; a trait's statically-dispatched method holder ends in
// "$class". Every other name is its own base.
func baseNameOf(name string) (string, auxKind) {
	if strings.HasSuffix(name, "$class") {
		return name[:len(name)-len("$class")], auxTrait
	}
	if strings.HasSuffix(name, "$") {
		return name[:len(name)-len("$")], auxCompanion
	}
	return name, auxNone
}

// Graph is the cross-linked Class Graph: all nodes ever created, indexed by
// base name. Graph is not safe for concurrent writers; only the linker
// goroutine mutates it. Reads (the query surface) are safe only once
// linking has finished.
type Graph struct {
	nodes   map[string]*Node
	nextIdx int
	intern  *intern.Table
	logger  utils.Logger
}

// New creates an empty Class Graph backed by the given intern table. A nil
// logger discards deferred log entries.
func New(tbl *intern.Table, logger utils.Logger) *Graph {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Graph{
		nodes:  make(map[string]*Node),
		intern: tbl,
		logger: logger,
	}
}

func (g *Graph) getOrCreate(name string) *Node {
	base, _ := baseNameOf(name)
	base = g.intern.Intern(base)
	if n, ok := g.nodes[base]; ok {
		return n
	}
	n := newNode(g.nextIdx, base)
	g.nextIdx++
	g.nodes[base] = n
	return n
}

// GetNode looks up an existing node by (possibly auxiliary) name.
func (g *Graph) GetNode(name string) (*Node, bool) {
	base, _ := baseNameOf(name)
	n, ok := g.nodes[base]
	return n, ok
}

// Nodes returns every node in the graph, in no particular order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Len returns the number of distinct nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

func (g *Graph) flushLog(entries []classfile.LogEntry) {
	for _, e := range entries {
		switch e.Level {
		case utils.LevelDebug:
			g.logger.Debug(e.Message)
		case utils.LevelInfo:
			g.logger.Info(e.Message)
		case utils.LevelWarn:
			g.logger.Warn(e.Message)
		case utils.LevelError:
			g.logger.Error(e.Message)
		}
	}
}

// ConsumeParseResult flushes a parser result's deferred log, in the order
// the scan orchestrator delivers results to the linker, then links the
// record if one was produced. The caller must serialize calls to this
// method: the linker is single-threaded by design.
func (g *Graph) ConsumeParseResult(res *classfile.ParseResult) error {
	g.flushLog(res.Log)
	if res.Record == nil {
		return nil
	}
	return g.Link(res.Record)
}

// Link cross-references one Unlinked Class Record into the graph,
// implementing the four-step algorithm: locate-or-create the node and
// check the duplicate-scan invariant, OR-merge the interface/annotation
// flags, record every relation in both directions (FIELD_TYPE one-way),
// and merge the static-final field values.
func (g *Graph) Link(rec *classfile.Record) error {
	_, kind := baseNameOf(rec.ClassName)
	node := g.getOrCreate(rec.ClassName)

	switch kind {
	case auxNone:
		if node.ClassfileScanned {
			return apperrors.ErrDuplicateClass
		}
		node.ClassfileScanned = true
	case auxCompanion:
		if node.CompanionScanned {
			return apperrors.ErrDuplicateClass
		}
		node.CompanionScanned = true
	case auxTrait:
		if node.TraitMethodsScanned {
			return apperrors.ErrDuplicateClass
		}
		node.TraitMethodsScanned = true
	}

	if rec.IsInterface {
		node.IsInterface = true
	}
	if rec.IsAnnotation {
		node.IsAnnotation = true
	}

	if rec.SuperclassName != "" {
		super := g.getOrCreate(rec.SuperclassName)
		node.addRelation(RelSuperclass, super)
		super.addRelation(RelSubclass, node)
	}

	for _, ifaceName := range rec.ImplementedInterfaces {
		iface := g.getOrCreate(ifaceName)
		iface.IsInterface = true
		node.addRelation(RelImplementedInterface, iface)
		iface.addRelation(RelImplementingClass, node)
	}

	for _, annName := range rec.Annotations {
		ann := g.getOrCreate(annName)
		ann.IsAnnotation = true
		node.addRelation(RelAnnotation, ann)
		ann.addRelation(RelAnnotatedClass, node)
	}

	for fieldTypeName := range rec.FieldTypes {
		ft := g.getOrCreate(fieldTypeName)
		node.addRelation(RelFieldType, ft)
	}

	for name, val := range rec.StaticFinalFieldValues {
		node.FieldValues[name] = val
	}

	return nil
}
