// ABOUTME: Arena-backed tree of DAG nodes with an adjacency list
// ABOUTME: Provides pre-order traversal, ancestry checks and path distance

package dag

import (
	"fmt"
	"iter"
)

// Graph stores nodes in an arena indexed by slot; ids map to slots
type Graph struct {
	nodes    []Node
	index    map[int]int
	children [][]int
	parent   []int
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{index: make(map[int]int)}
}

// Build validates a wire DAG and loads it into a graph.
// The DAG must be non-empty, reference only known ids, and form a single tree under a root node.
func Build(d DAG) (*Graph, error) {
	if len(d.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrInvalidDAG)
	}

	g := NewGraph()
	for _, n := range d.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range d.Edges {
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}

	if _, err := g.root(); err != nil {
		return nil, err
	}
	return g, nil
}

// AddNode appends a node to the arena
func (g *Graph) AddNode(n Node) error {
	if _, exists := g.index[n.ID]; exists {
		return fmt.Errorf("%w: duplicate node id %d", ErrInvalidDAG, n.ID)
	}
	g.index[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.children = append(g.children, nil)
	g.parent = append(g.parent, -1)
	return nil
}

// AddEdge links parent to child. A child may have only one parent and edges may not close a cycle.
func (g *Graph) AddEdge(from, to int) error {
	fromSlot, ok := g.index[from]
	if !ok {
		return fmt.Errorf("%w: edge source %d", ErrUnknownNode, from)
	}
	toSlot, ok := g.index[to]
	if !ok {
		return fmt.Errorf("%w: edge target %d", ErrUnknownNode, to)
	}
	if g.parent[toSlot] != -1 {
		return fmt.Errorf("%w: node %d has more than one parent", ErrInvalidDAG, to)
	}
	if fromSlot == toSlot || g.reachable(toSlot, fromSlot) {
		return fmt.Errorf("%w: edge %d->%d creates a cycle", ErrInvalidDAG, from, to)
	}

	g.children[fromSlot] = append(g.children[fromSlot], toSlot)
	g.parent[toSlot] = fromSlot
	return nil
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node looks up a node by id
func (g *Graph) Node(id int) (Node, bool) {
	slot, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[slot], true
}

// Root returns the single root node
func (g *Graph) Root() (Node, bool) {
	slot, err := g.root()
	if err != nil {
		return Node{}, false
	}
	return g.nodes[slot], true
}

func (g *Graph) root() (int, error) {
	found := -1
	for slot, p := range g.parent {
		if p != -1 {
			continue
		}
		if found != -1 {
			return -1, fmt.Errorf("%w: more than one root", ErrInvalidDAG)
		}
		found = slot
	}
	if found == -1 {
		return -1, fmt.Errorf("%w: no root", ErrInvalidDAG)
	}
	if g.nodes[found].Kind != KindRoot {
		return -1, fmt.Errorf("%w: top node %d is %s", ErrInvalidDAG, g.nodes[found].ID, g.nodes[found].Kind)
	}
	return found, nil
}

// Walk yields every node in pre-order starting at the root
func (g *Graph) Walk() iter.Seq[Node] {
	slot, err := g.root()
	if err != nil {
		return func(func(Node) bool) {}
	}
	return g.DepthFirst(g.nodes[slot].ID)
}

// DepthFirst yields the subtree under start in pre-order, children in insertion order.
// Each call starts a fresh traversal.
func (g *Graph) DepthFirst(start int) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		slot, ok := g.index[start]
		if !ok {
			return
		}
		stack := []int{slot}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(g.nodes[cur]) {
				return
			}
			kids := g.children[cur]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
		}
	}
}

// IsDescendant reports whether node can be reached from ancestor by one or more edges
func (g *Graph) IsDescendant(ancestor, node int) bool {
	a, ok := g.index[ancestor]
	if !ok {
		return false
	}
	n, ok := g.index[node]
	if !ok || a == n {
		return false
	}
	return g.reachable(a, n)
}

// reachable runs a DFS bounded by the arena size
func (g *Graph) reachable(from, to int) bool {
	stack := []int{from}
	for steps := 0; len(stack) > 0 && steps <= len(g.nodes); steps++ {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range g.children[cur] {
			if c == to {
				return true
			}
			stack = append(stack, c)
		}
	}
	return false
}

// Distance returns the number of edges on the shortest path from -> to, or -1 when unreachable
func (g *Graph) Distance(from, to int) int {
	f, ok := g.index[from]
	if !ok {
		return -1
	}
	t, ok := g.index[to]
	if !ok {
		return -1
	}

	dist := map[int]int{f: 0}
	queue := []int{f}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == t {
			return dist[cur]
		}
		for _, c := range g.children[cur] {
			if _, seen := dist[c]; seen {
				continue
			}
			dist[c] = dist[cur] + 1
			queue = append(queue, c)
		}
	}
	return -1
}

// Children returns the direct children of a node
func (g *Graph) Children(id int) []Node {
	slot, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]Node, 0, len(g.children[slot]))
	for _, c := range g.children[slot] {
		out = append(out, g.nodes[c])
	}
	return out
}

// Parent returns the parent of a node
func (g *Graph) Parent(id int) (Node, bool) {
	slot, ok := g.index[id]
	if !ok || g.parent[slot] == -1 {
		return Node{}, false
	}
	return g.nodes[g.parent[slot]], true
}

// Subtree returns a node and its descendants in pre-order, down to maxDepth levels (0 = unlimited)
func (g *Graph) Subtree(id int, maxDepth int) []Node {
	slot, ok := g.index[id]
	if !ok {
		return nil
	}

	type frame struct{ slot, depth int }
	var out []Node
	stack := []frame{{slot, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, g.nodes[f.slot])
		if maxDepth > 0 && f.depth >= maxDepth {
			continue
		}
		kids := g.children[f.slot]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{kids[i], f.depth + 1})
		}
	}
	return out
}

// AncestorPath returns the nodes from the root down to id, inclusive
func (g *Graph) AncestorPath(id int) []Node {
	slot, ok := g.index[id]
	if !ok {
		return nil
	}
	var path []Node
	for cur := slot; cur != -1; cur = g.parent[cur] {
		path = append(path, g.nodes[cur])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// DAG exports the graph in wire form, nodes in arena order and edges grouped by parent
func (g *Graph) DAG() DAG {
	d := DAG{Nodes: make([]Node, len(g.nodes))}
	copy(d.Nodes, g.nodes)
	for slot, kids := range g.children {
		for _, c := range kids {
			d.Edges = append(d.Edges, Edge{From: g.nodes[slot].ID, To: g.nodes[c].ID})
		}
	}
	return d
}
