package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidGraph is returned when a network snapshot cannot be turned into a model.
var ErrInvalidGraph = errors.New("invalid graph")

// Model is an immutable in-memory view of one network snapshot.
//
// Nodes are held in an arena indexed by dense integer handles; edges are
// stored as handle pairs in per-node adjacency slices. The model is built
// once per analysis run and is never mutated afterwards, so it is safe to
// share between concurrent readers.
type Model struct {
	ids   []uint64       // handle -> external node ID
	roles []Role         // handle -> role
	index map[uint64]int // external node ID -> handle

	succ [][]int // handle -> successor handles
	pred [][]int // handle -> predecessor handles

	sources []int // handles with RoleSource, ascending by node ID
	targets []int // handles with RoleTarget, ascending by node ID
	free    []int // handles with RoleFree, ascending by node ID

	edgeCount int
}

// NewModel builds a model from a finite node and edge list.
//
// It fails with ErrInvalidGraph if a node ID appears twice, if an edge
// references an unknown node, or if the snapshot declares no target nodes.
func NewModel(nodes []NodeSpec, edges []EdgeSpec) (*Model, error) {
	m := &Model{
		ids:   make([]uint64, 0, len(nodes)),
		roles: make([]Role, 0, len(nodes)),
		index: make(map[uint64]int, len(nodes)),
		succ:  make([][]int, len(nodes)),
		pred:  make([][]int, len(nodes)),
	}

	// Handles are assigned in ascending node-ID order so that traversal
	// order is independent of the order the snapshot listed its nodes.
	sorted := make([]NodeSpec, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, n := range sorted {
		if _, exists := m.index[n.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate node %d", ErrInvalidGraph, n.ID)
		}
		h := len(m.ids)
		m.index[n.ID] = h
		m.ids = append(m.ids, n.ID)
		m.roles = append(m.roles, n.Role)

		switch n.Role {
		case RoleSource:
			m.sources = append(m.sources, h)
		case RoleTarget:
			m.targets = append(m.targets, h)
		case RoleFree:
			m.free = append(m.free, h)
		}
	}

	if len(m.targets) == 0 {
		return nil, fmt.Errorf("%w: empty target set", ErrInvalidGraph)
	}

	for _, e := range edges {
		from, ok := m.index[e.FromNodeID]
		if !ok {
			return nil, fmt.Errorf("%w: edge references unknown node %d", ErrInvalidGraph, e.FromNodeID)
		}
		to, ok := m.index[e.ToNodeID]
		if !ok {
			return nil, fmt.Errorf("%w: edge references unknown node %d", ErrInvalidGraph, e.ToNodeID)
		}
		m.succ[from] = append(m.succ[from], to)
		m.pred[to] = append(m.pred[to], from)
		m.edgeCount++
	}

	// Keep adjacency order deterministic regardless of edge input order.
	for h := range m.succ {
		sort.Ints(m.succ[h])
		sort.Ints(m.pred[h])
	}

	return m, nil
}

// NodeCount returns the number of nodes in the model
func (m *Model) NodeCount() int { return len(m.ids) }

// EdgeCount returns the number of directed edges in the model
func (m *Model) EdgeCount() int { return m.edgeCount }

// Handle returns the dense handle for an external node ID
func (m *Model) Handle(id uint64) (int, bool) {
	h, ok := m.index[id]
	return h, ok
}

// IDOf returns the external node ID for a handle
func (m *Model) IDOf(handle int) uint64 { return m.ids[handle] }

// RoleOf returns the role of the node at the given handle
func (m *Model) RoleOf(handle int) Role { return m.roles[handle] }

// Role returns the role of a node by external ID
func (m *Model) Role(id uint64) (Role, bool) {
	h, ok := m.index[id]
	if !ok {
		return RoleFree, false
	}
	return m.roles[h], true
}

// Successors returns the successor handles of a node.
// The returned slice is owned by the model and must not be modified.
func (m *Model) Successors(handle int) []int { return m.succ[handle] }

// Predecessors returns the predecessor handles of a node.
// The returned slice is owned by the model and must not be modified.
func (m *Model) Predecessors(handle int) []int { return m.pred[handle] }

// Sources returns the handles of all source nodes.
// The returned slice is owned by the model and must not be modified.
func (m *Model) Sources() []int { return m.sources }

// Targets returns the handles of all target nodes.
// The returned slice is owned by the model and must not be modified.
func (m *Model) Targets() []int { return m.targets }

// FreeNodes returns the handles of all free nodes.
// The returned slice is owned by the model and must not be modified.
func (m *Model) FreeNodes() []int { return m.free }

// SourceIDs returns the external IDs of all source nodes in ascending order
func (m *Model) SourceIDs() []uint64 { return m.idsFor(m.sources) }

// TargetIDs returns the external IDs of all target nodes in ascending order
func (m *Model) TargetIDs() []uint64 { return m.idsFor(m.targets) }

// FreeIDs returns the external IDs of all free nodes in ascending order
func (m *Model) FreeIDs() []uint64 { return m.idsFor(m.free) }

func (m *Model) idsFor(handles []int) []uint64 {
	out := make([]uint64, len(handles))
	for i, h := range handles {
		out[i] = m.ids[h]
	}
	return out
}
