package graph

import "github.com/classgraph/classgraph/pkg/collections"

// Direct returns node's immediate edge targets for relation.
func Direct(node *Node, relation RelationKind) []*Node {
	return node.Direct(relation)
}

// Reachable computes the breadth-first closure of relation starting from
// node, excluding node itself, with a cycle guard (classfile inheritance
// should be acyclic but interface/annotation graphs may contain meta
// cycles). The returned slice has no guaranteed order.
func Reachable(node *Node, relation RelationKind) []*Node {
	visited := collections.NewBitset(node.index + 1)
	visited.Set(node.index)

	queue := collections.NewQueue[*Node](16)
	queue.Enqueue(node)

	result := make([]*Node, 0)
	for !queue.IsEmpty() {
		curr, _ := queue.Dequeue()
		for _, next := range curr.Direct(relation) {
			if visited.Test(next.index) {
				continue
			}
			visited.Set(next.index)
			result = append(result, next)
			queue.Enqueue(next)
		}
	}
	return result
}

// Path finds one path of relation edges from node to target, depth-first,
// returning the nodes visited from node (inclusive) to target (inclusive),
// or nil if target is unreachable. It exists alongside the breadth-first
// Reachable for diagnostics that want one concrete chain of edges, not just
// the set of everything eventually reachable. Each node is visited at most
// once, so when node == target the result is just [node]; a cycle leading
// back to node is not reported.
func Path(node, target *Node, relation RelationKind) []*Node {
	visited := collections.NewBitset(node.index + 1)
	visited.Set(node.index)
	parent := map[*Node]*Node{node: nil}

	stack := collections.NewStack[*Node](16)
	stack.Push(node)

	for !stack.IsEmpty() {
		curr, _ := stack.Pop()
		if curr == target {
			return buildPath(parent, target)
		}
		for _, next := range curr.Direct(relation) {
			if visited.Test(next.index) {
				continue
			}
			visited.Set(next.index)
			parent[next] = curr
			stack.Push(next)
		}
	}
	return nil
}

// buildPath walks parent links from target back to its root (the node
// recorded with a nil parent) and reverses them into root-to-target order.
func buildPath(parent map[*Node]*Node, target *Node) []*Node {
	var reversed []*Node
	for n := target; n != nil; n = parent[n] {
		reversed = append(reversed, n)
	}
	path := make([]*Node, len(reversed))
	for i, n := range reversed {
		path[len(reversed)-1-i] = n
	}
	return path
}

// Filter selects the subset of nodes matching category. When
// includeExternals is false, only nodes with ClassfileScanned set are
// retained (a node created purely as a reference target, never itself
// scanned, is "external"). The two-pass strategy avoids a copy when
// nothing would be filtered out.
func Filter(nodes []*Node, category Category, includeExternals bool) []*Node {
	matches := func(n *Node) bool {
		if !includeExternals && !n.ClassfileScanned {
			return false
		}
		return n.HasCategory(category)
	}

	keep := true
	for _, n := range nodes {
		if !matches(n) {
			keep = false
			break
		}
	}
	if keep {
		return nodes
	}

	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if matches(n) {
			out = append(out, n)
		}
	}
	return out
}
