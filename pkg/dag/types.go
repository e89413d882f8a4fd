// ABOUTME: DAG data model for NSILI product metadata
// ABOUTME: Defines Node, Edge and DAG value types exchanged over the protocol

package dag

import "errors"

// NodeKind classifies a node within a product DAG
type NodeKind string

const (
	KindRoot      NodeKind = "ROOT_NODE"
	KindEntity    NodeKind = "ENTITY_NODE"
	KindRecord    NodeKind = "RECORD_NODE"
	KindAttribute NodeKind = "ATTRIBUTE_NODE"
)

var (
	// ErrInvalidDAG is returned when nodes and edges do not form a single rooted tree
	ErrInvalidDAG = errors.New("invalid dag")
	// ErrUnknownNode is returned when an edge or lookup references a missing node id
	ErrUnknownNode = errors.New("unknown node")
)

// Node is one vertex of a product DAG
type Node struct {
	ID    int      `json:"id"`
	Kind  NodeKind `json:"kind"`
	Name  string   `json:"name"`
	Value *Value   `json:"value,omitempty"`
}

// Edge connects a parent node to a child node
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// DAG is the wire form of a product: a flat node list plus parent->child edges
type DAG struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// IsAttribute reports whether the node carries a value
func (n Node) IsAttribute() bool {
	return n.Kind == KindAttribute
}

// IsEntity reports whether the node groups attribute children
func (n Node) IsEntity() bool {
	return n.Kind == KindEntity
}
