// Package dag provides the include graph of rules and partials. It detects
// include cycles, orders partials before the documents that include them and
// propagates a partial change to every rule that uses it.
package dag

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Kind distinguishes rule nodes from partial nodes.
type Kind string

// Node kinds.
const (
	KindRule    Kind = "rule"
	KindPartial Kind = "partial"
)

// ID returns the node identifier for a name of the given kind,
// e.g. "partial:footer".
func ID(kind Kind, name string) string {
	return string(kind) + ":" + name
}

// Node is a rule or a partial.
type Node struct {
	// ID is "<kind>:<name>"
	ID   string
	Kind Kind
	Name string
	// Path is the source file, empty for partials that were never resolved
	Path string
}

// CycleError reports partials that include each other.
type CycleError struct {
	// Path starts and ends with the same node
	Path []string
}

func (e *CycleError) Error() string {
	return "partial cycle: " + strings.Join(e.Path, " -> ")
}

// Graph records which partials each rule or partial includes.
type Graph struct {
	nodes      map[string]*Node
	includes   map[string][]string // includer -> included
	includedBy map[string][]string // included -> includers
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		includes:   make(map[string][]string),
		includedBy: make(map[string][]string),
	}
}

// AddNode adds a node and returns its ID. Adding an existing node updates
// its path when a non-empty one is given.
func (g *Graph) AddNode(kind Kind, name, path string) string {
	id := ID(kind, name)
	if node, ok := g.nodes[id]; ok {
		if path != "" {
			node.Path = path
		}
		return id
	}
	g.nodes[id] = &Node{ID: id, Kind: kind, Name: name, Path: path}
	return id
}

// AddInclude records that includer includes partial. Both nodes must exist,
// and a node cannot include itself.
func (g *Graph) AddInclude(partial, includer string) error {
	if _, ok := g.nodes[partial]; !ok {
		return fmt.Errorf("unknown node %q", partial)
	}
	if _, ok := g.nodes[includer]; !ok {
		return fmt.Errorf("unknown node %q", includer)
	}
	if partial == includer {
		return &CycleError{Path: []string{partial, partial}}
	}

	if !slices.Contains(g.includes[includer], partial) {
		g.includes[includer] = append(g.includes[includer], partial)
		g.includedBy[partial] = append(g.includedBy[partial], includer)
	}
	return nil
}

// Includes returns the partials a node includes directly, sorted.
func (g *Graph) Includes(id string) []string {
	out := slices.Clone(g.includes[id])
	sort.Strings(out)
	return out
}

// Nodes returns the nodes of one kind, or all nodes for "", sorted by ID.
func (g *Graph) Nodes(kind Kind) []*Node {
	var out []*Node
	for _, node := range g.nodes {
		if kind == "" || node.Kind == kind {
			out = append(out, node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Cycle returns one include cycle, or nil when there is none. The search
// starts from the lowest ID, so the result is stable.
func (g *Graph) Cycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var walk func(id string) []string
	walk = func(id string) []string {
		state[id] = active
		stack = append(stack, id)
		for _, next := range g.Includes(id) {
			switch state[next] {
			case active:
				start := slices.Index(stack, next)
				return append(slices.Clone(stack[start:]), next)
			case unvisited:
				if cycle := walk(next); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, node := range g.Nodes("") {
		if state[node.ID] != unvisited {
			continue
		}
		if cycle := walk(node.ID); cycle != nil {
			return cycle
		}
	}
	return nil
}

// Order returns every node after the partials it includes. Nodes that
// become ready together are taken in ID order. It fails with a *CycleError
// when partials include each other.
func (g *Graph) Order() ([]*Node, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	pending := make(map[string]int, len(g.nodes))
	var ready []string
	for id := range g.nodes {
		pending[id] = len(g.includes[id])
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]*Node, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		out = append(out, g.nodes[id])

		for _, includer := range g.includedBy[id] {
			pending[includer]--
			if pending[includer] == 0 {
				ready = append(ready, includer)
			}
		}
	}
	return out, nil
}

// Dependents returns the given nodes and everything that includes them,
// directly or through other partials, sorted by ID. Unknown IDs are ignored.
func (g *Graph) Dependents(ids ...string) []*Node {
	seen := make(map[string]bool)
	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok && !seen[id] {
			seen[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, includer := range g.includedBy[id] {
			if !seen[includer] {
				seen[includer] = true
				queue = append(queue, includer)
			}
		}
	}
	return g.collect(seen)
}

// Closure returns every partial a node includes, directly or through other
// partials, sorted by ID. The node itself is not part of the result.
func (g *Graph) Closure(id string) []*Node {
	seen := make(map[string]bool)
	queue := slices.Clone(g.includes[id])
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		queue = append(queue, g.includes[next]...)
	}
	delete(seen, id)
	return g.collect(seen)
}

func (g *Graph) collect(ids map[string]bool) []*Node {
	out := make([]*Node, 0, len(ids))
	for id := range ids {
		out = append(out, g.nodes[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
