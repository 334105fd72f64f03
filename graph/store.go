package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/warpgraph/warpengine/delta"
	"github.com/warpgraph/warpengine/ident"
)

// Errors returned by Apply.
var (
	ErrDuplicateInsert = errors.New("graph: duplicate insert")
	ErrMissingTarget   = errors.New("graph: missing target")
	ErrDanglingEdge    = errors.New("graph: dangling edge")
)

// View is the read-only projection of a Store that matchers, footprint
// functions, and executors are handed — they receive a View, never a
// mutable Store. Store implements View directly; there is no separate
// concrete view type, because Store is itself immutable once
// constructed — Apply never mutates its receiver, it returns a new
// Store.
type View interface {
	GetNode(id ident.NodeId) (*NodeRecord, bool)
	GetEdge(id ident.EdgeId) (*EdgeRecord, bool)
	// IterNodes calls fn for every node in NodeId byte-lex order.
	// Iteration stops early if fn returns false.
	IterNodes(fn func(*NodeRecord) bool)
	// IterEdges calls fn for every edge in EdgeId byte-lex order.
	IterEdges(fn func(*EdgeRecord) bool)
	NodeCount() int
	EdgeCount() int
}

// Store owns the current graph state: flat keyed tables of nodes and
// edges, referring to nodes only by id rather than by pointer cycles.
// A Store is never mutated after construction; Apply produces a new
// Store, and the Engine swaps the current Store pointer atomically at
// commit.
type Store struct {
	nodes       map[ident.NodeId]*NodeRecord
	edges       map[ident.EdgeId]*EdgeRecord
	sortedNodes []ident.NodeId // cached NodeId byte-lex order
	sortedEdges []ident.EdgeId
}

// Empty returns a Store with no nodes or edges — the state at tick 0.
func Empty() *Store {
	s := &Store{
		nodes: make(map[ident.NodeId]*NodeRecord),
		edges: make(map[ident.EdgeId]*EdgeRecord),
	}
	s.computeOrder()
	return s
}

func (s *Store) GetNode(id ident.NodeId) (*NodeRecord, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

func (s *Store) GetEdge(id ident.EdgeId) (*EdgeRecord, bool) {
	e, ok := s.edges[id]
	return e, ok
}

func (s *Store) NodeCount() int { return len(s.nodes) }
func (s *Store) EdgeCount() int { return len(s.edges) }

func (s *Store) IterNodes(fn func(*NodeRecord) bool) {
	for _, id := range s.sortedNodes {
		if !fn(s.nodes[id]) {
			return
		}
	}
}

func (s *Store) IterEdges(fn func(*EdgeRecord) bool) {
	for _, id := range s.sortedEdges {
		if !fn(s.edges[id]) {
			return
		}
	}
}

// computeOrder populates sortedNodes/sortedEdges from the current
// tables. Called once, before a Store is ever handed out as a View, so
// IterNodes/IterEdges never mutate shared state — concurrent readers
// (the Sharded executor's goroutines chief among them) only ever see a
// fully-built, read-only Store.
func (s *Store) computeOrder() {
	nodeIds := make([]ident.NodeId, 0, len(s.nodes))
	for id := range s.nodes {
		nodeIds = append(nodeIds, id)
	}
	sort.Slice(nodeIds, func(i, j int) bool { return nodeIds[i].Less(nodeIds[j]) })
	s.sortedNodes = nodeIds

	edgeIds := make([]ident.EdgeId, 0, len(s.edges))
	for id := range s.edges {
		edgeIds = append(edgeIds, id)
	}
	sort.Slice(edgeIds, func(i, j int) bool { return edgeIds[i].Less(edgeIds[j]) })
	s.sortedEdges = edgeIds
}

// clone makes a shallow-structural copy of s's tables so Apply can
// mutate the copy freely while leaving s (and any reader still holding
// it) untouched.
func (s *Store) clone() *Store {
	out := &Store{
		nodes: make(map[ident.NodeId]*NodeRecord, len(s.nodes)),
		edges: make(map[ident.EdgeId]*EdgeRecord, len(s.edges)),
	}
	for k, v := range s.nodes {
		out.nodes[k] = v
	}
	for k, v := range s.edges {
		out.edges[k] = v
	}
	return out
}

// Apply returns a new Store with ops applied in order, leaving the
// receiver untouched. ops must already be in canonical (WarpOpKey,
// OpOrigin) order — Apply does not sort; that is the Merger's job.
//
// Apply fails with DuplicateInsert if an AddNode/AddEdge targets an
// existing id, MissingTarget if Update/Remove/SetAttachment names a
// non-existent id, and DanglingEdge if, after the full ordered
// application, any edge's endpoints no longer both exist.
func (s *Store) Apply(ops []delta.WarpOp) (*Store, error) {
	next := s.clone()
	for _, op := range ops {
		if err := next.applyOne(op); err != nil {
			return nil, err
		}
	}
	if err := next.checkNoOrphanEdges(); err != nil {
		return nil, err
	}
	next.computeOrder()
	return next, nil
}

func (s *Store) applyOne(op delta.WarpOp) error {
	switch op.Variant {
	case delta.VariantAddNode:
		if _, exists := s.nodes[op.TargetNode]; exists {
			return fmt.Errorf("%w: node %s", ErrDuplicateInsert, op.TargetNode)
		}
		s.nodes[op.TargetNode] = &NodeRecord{
			Id: op.TargetNode, TypeId: op.Node.TypeId, WarpId: op.Node.WarpId, Payload: op.Node.Payload,
		}
	case delta.VariantUpdateNode:
		existing, ok := s.nodes[op.TargetNode]
		if !ok {
			return fmt.Errorf("%w: node %s", ErrMissingTarget, op.TargetNode)
		}
		updated := *existing
		updated.TypeId = op.Node.TypeId
		updated.WarpId = op.Node.WarpId
		updated.Payload = op.Node.Payload
		s.nodes[op.TargetNode] = &updated
	case delta.VariantRemoveNode:
		if _, ok := s.nodes[op.TargetNode]; !ok {
			return fmt.Errorf("%w: node %s", ErrMissingTarget, op.TargetNode)
		}
		delete(s.nodes, op.TargetNode)
	case delta.VariantAddEdge:
		if _, exists := s.edges[op.TargetEdge]; exists {
			return fmt.Errorf("%w: edge %s", ErrDuplicateInsert, op.TargetEdge)
		}
		s.edges[op.TargetEdge] = &EdgeRecord{
			Id: op.TargetEdge, From: op.Edge.From, To: op.Edge.To,
			TypeId: op.Edge.TypeId, WarpId: op.Edge.WarpId, Payload: op.Edge.Payload,
		}
	case delta.VariantUpdateEdge:
		existing, ok := s.edges[op.TargetEdge]
		if !ok {
			return fmt.Errorf("%w: edge %s", ErrMissingTarget, op.TargetEdge)
		}
		updated := *existing
		updated.TypeId = op.Edge.TypeId
		updated.WarpId = op.Edge.WarpId
		updated.Payload = op.Edge.Payload
		s.edges[op.TargetEdge] = &updated
	case delta.VariantRemoveEdge:
		if _, ok := s.edges[op.TargetEdge]; !ok {
			return fmt.Errorf("%w: edge %s", ErrMissingTarget, op.TargetEdge)
		}
		delete(s.edges, op.TargetEdge)
	case delta.VariantSetAttachment:
		return s.setAttachment(op)
	case delta.VariantRemoveAttachment:
		return s.removeAttachment(op)
	default:
		return fmt.Errorf("graph: unhandled op variant %v", op.Variant)
	}
	return nil
}

func (s *Store) setAttachment(op delta.WarpOp) error {
	payload := op.Attachment.Payload
	if n, ok := s.nodes[op.TargetNode]; ok {
		updated := *n
		updated.Payload = &payload
		s.nodes[op.TargetNode] = &updated
		return nil
	}
	if e, ok := s.edges[op.TargetEdge]; ok {
		updated := *e
		updated.Payload = &payload
		s.edges[op.TargetEdge] = &updated
		return nil
	}
	return fmt.Errorf("%w: attachment target", ErrMissingTarget)
}

func (s *Store) removeAttachment(op delta.WarpOp) error {
	if n, ok := s.nodes[op.TargetNode]; ok {
		updated := *n
		updated.Payload = nil
		s.nodes[op.TargetNode] = &updated
		return nil
	}
	if e, ok := s.edges[op.TargetEdge]; ok {
		updated := *e
		updated.Payload = nil
		s.edges[op.TargetEdge] = &updated
		return nil
	}
	return fmt.Errorf("%w: attachment target", ErrMissingTarget)
}

// checkNoOrphanEdges enforces that every edge's endpoints exist. Orphan
// edges are rejected at commit and never contribute to the hash.
func (s *Store) checkNoOrphanEdges() error {
	for id, e := range s.edges {
		if _, ok := s.nodes[e.From]; !ok {
			return fmt.Errorf("%w: edge %s missing From endpoint %s", ErrDanglingEdge, id, e.From)
		}
		if _, ok := s.nodes[e.To]; !ok {
			return fmt.Errorf("%w: edge %s missing To endpoint %s", ErrDanglingEdge, id, e.To)
		}
	}
	return nil
}
