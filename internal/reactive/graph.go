// Package reactive implements the dependency graph between dashboard controls and the
// values derived from them. A Controller owns one FilterState and recomputes only the
// nodes a control change reaches, in topological order, one tick at a time.
package reactive

import (
	"context"
	"fmt"
	"sort"

	"shoptrends/domain/controls"
	"shoptrends/internal/errors"
)

// NodeID names a node of the graph
type NodeID string

// Deps carries the current values of a node's upstream nodes
type Deps map[NodeID]interface{}

// ComputeFunc derives a node value from the filter state and its upstream values
type ComputeFunc func(ctx context.Context, state controls.FilterState, deps Deps) (interface{}, error)

// DecodeFunc rebuilds a node value from its JSON form in the shared cache
type DecodeFunc func(data []byte) (interface{}, error)

// Node is one derived value. Output nodes are published to the session after a tick;
// other nodes (the filtered view) only feed their dependents.
type Node struct {
	ID       NodeID
	Controls []string
	Deps     []NodeID
	Output   bool
	Compute  ComputeFunc
	// Decode enables the shared cache for this node; nil keeps it session-local
	Decode DecodeFunc
}

// Graph is an immutable, validated set of nodes with a fixed topological order.
// One Graph is shared by every Controller.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID

	// inputs is the transitive set of controls each node reads, sorted
	inputs map[NodeID][]string
	// affected maps a control to every node that transitively reads it, in order
	affected map[string][]NodeID
	controls map[string]bool
}

// NewGraph validates nodes against the known control ids and sorts them. Unknown
// controls, unknown dependencies, duplicates and cycles are configuration errors.
func NewGraph(controlIDs []string, nodes ...Node) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[NodeID]*Node, len(nodes)),
		inputs:   make(map[NodeID][]string, len(nodes)),
		affected: make(map[string][]NodeID),
		controls: make(map[string]bool, len(controlIDs)),
	}
	for _, id := range controlIDs {
		g.controls[id] = true
	}

	declared := make([]NodeID, 0, len(nodes))
	for i := range nodes {
		n := nodes[i]
		if n.ID == "" || n.Compute == nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("node %d needs an id and a compute function", i))
		}
		if _, dup := g.nodes[n.ID]; dup {
			return nil, errors.ConfigInvalid("duplicate node " + string(n.ID))
		}
		for _, c := range n.Controls {
			if !g.controls[c] {
				return nil, errors.ConfigInvalid(fmt.Sprintf("node %s reads unknown control %s", n.ID, c))
			}
		}
		g.nodes[n.ID] = &n
		declared = append(declared, n.ID)
	}
	for _, id := range declared {
		for _, d := range g.nodes[id].Deps {
			if _, ok := g.nodes[d]; !ok {
				return nil, errors.ConfigInvalid(fmt.Sprintf("node %s depends on unknown node %s", id, d))
			}
		}
	}

	order, err := topoSort(g.nodes, declared)
	if err != nil {
		return nil, err
	}
	g.order = order

	for _, id := range g.order {
		seen := make(map[string]bool)
		for _, c := range g.nodes[id].Controls {
			seen[c] = true
		}
		for _, d := range g.nodes[id].Deps {
			for _, c := range g.inputs[d] {
				seen[c] = true
			}
		}
		in := make([]string, 0, len(seen))
		for c := range seen {
			in = append(in, c)
		}
		sort.Strings(in)
		g.inputs[id] = in
		for _, c := range in {
			g.affected[c] = append(g.affected[c], id)
		}
	}
	return g, nil
}

// topoSort is Kahn's algorithm; ties keep declaration order so ticks are deterministic
func topoSort(nodes map[NodeID]*Node, declared []NodeID) ([]NodeID, error) {
	indegree := make(map[NodeID]int, len(nodes))
	children := make(map[NodeID][]NodeID, len(nodes))
	for _, id := range declared {
		indegree[id] += 0
		for _, d := range nodes[id].Deps {
			indegree[id]++
			children[d] = append(children[d], id)
		}
	}

	var ready, order []NodeID
	for _, id := range declared {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, c := range children[id] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}
	if len(order) != len(nodes) {
		return nil, errors.ConfigInvalid("node dependencies contain a cycle")
	}
	return order, nil
}

// Order returns every node id in recompute order
func (g *Graph) Order() []NodeID {
	return append([]NodeID(nil), g.order...)
}

// Outputs returns the output node ids in recompute order
func (g *Graph) Outputs() []NodeID {
	var out []NodeID
	for _, id := range g.order {
		if g.nodes[id].Output {
			out = append(out, id)
		}
	}
	return out
}

// Inputs returns the controls a node reads, directly or through its dependencies
func (g *Graph) Inputs(id NodeID) []string {
	return append([]string(nil), g.inputs[id]...)
}

// Affected returns the nodes a change of control reaches, in recompute order
func (g *Graph) Affected(control string) []NodeID {
	return append([]NodeID(nil), g.affected[control]...)
}

// Node returns the node definition
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}
