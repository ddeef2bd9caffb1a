package graph

import (
	"errors"
	"sort"
)

var (
	ErrNilGraph     = errors.New("cannot operate on nil-graph")
	ErrEmptyName    = errors.New("nodes must have a non-empty name")
	ErrNodeNotFound = errors.New("node not found")
	ErrEdgeSelf     = errors.New("self-edges are not allowed")
)

// Edge is a directed "Source depends on Target" relation.
type Edge struct {
	Source string
	Target string
}

// Less orders edges by source and then by target.
func (e Edge) Less(o Edge) bool {
	if e.Source != o.Source {
		return e.Source < o.Source
	}
	return e.Target < o.Target
}

// Digraph is a directed graph without self-edges or parallel edges.
type Digraph struct {
	members NodeRefs
	edges   map[Edge]struct{}
}

func NewDigraph() *Digraph {
	return &Digraph{
		members: NewNodeRefs(),
		edges:   map[Edge]struct{}{},
	}
}

func (g *Digraph) GetNode(name string) (*Node, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	n, ok := g.members.Get(name)
	if !ok {
		return nil, ErrNodeNotFound
	}
	return n, nil
}

func (g *Digraph) HasNode(name string) bool {
	_, err := g.GetNode(name)
	return err == nil
}

// AddNode returns the node with the given name, creating it if necessary. The boolean reports
// whether the node was created.
func (g *Digraph) AddNode(name string) (*Node, bool, error) {
	if g == nil {
		return nil, false, ErrNilGraph
	} else if name == "" {
		return nil, false, ErrEmptyName
	}

	if n, ok := g.members.Get(name); ok {
		return n, false, nil
	}
	n := newNode(name)
	g.members.Add(n)
	return n, true, nil
}

func (g *Digraph) DeleteNode(name string) error {
	if g == nil {
		return ErrNilGraph
	}

	target, ok := g.members.Get(name)
	if !ok {
		return ErrNodeNotFound
	}

	for _, pred := range target.Predecessors().List() {
		if err := g.DeleteEdge(pred.name, name); err != nil {
			return err
		}
	}
	for _, succ := range target.Successors().List() {
		if err := g.DeleteEdge(name, succ.name); err != nil {
			return err
		}
	}

	g.members.Delete(name)
	return nil
}

// AddEdge records that 'src' depends on 'dst'. Both nodes must already be members. The boolean
// reports whether the edge is new.
func (g *Digraph) AddEdge(src string, dst string) (bool, error) {
	if g == nil {
		return false, ErrNilGraph
	}
	if src == dst {
		return false, ErrEdgeSelf
	}

	srcNode, ok := g.members.Get(src)
	if !ok {
		return false, ErrNodeNotFound
	}
	dstNode, ok := g.members.Get(dst)
	if !ok {
		return false, ErrNodeNotFound
	}

	e := Edge{Source: src, Target: dst}
	if _, ok := g.edges[e]; ok {
		return false, nil
	}
	g.edges[e] = struct{}{}
	srcNode.Successors().Add(dstNode)
	dstNode.Predecessors().Add(srcNode)
	return true, nil
}

func (g *Digraph) DeleteEdge(src string, dst string) error {
	if g == nil {
		return ErrNilGraph
	}

	srcNode, ok := g.members.Get(src)
	if !ok {
		return ErrNodeNotFound
	}
	dstNode, ok := g.members.Get(dst)
	if !ok {
		return ErrNodeNotFound
	}

	delete(g.edges, Edge{Source: src, Target: dst})
	srcNode.Successors().Delete(dst)
	dstNode.Predecessors().Delete(src)
	return nil
}

func (g *Digraph) HasEdge(src string, dst string) bool {
	if g == nil {
		return false
	}
	_, ok := g.edges[Edge{Source: src, Target: dst}]
	return ok
}

// Nodes returns all members sorted by name.
func (g *Digraph) Nodes() []*Node {
	if g == nil {
		return nil
	}
	return g.members.List()
}

func (g *Digraph) NodeCount() int {
	if g == nil {
		return 0
	}
	return g.members.Len()
}

// Edges returns all edges sorted by source and then by target.
func (g *Digraph) Edges() []Edge {
	if g == nil {
		return nil
	}
	edges := make([]Edge, 0, len(g.edges))
	for e := range g.edges {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i int, j int) bool { return edges[i].Less(edges[j]) })
	return edges
}

func (g *Digraph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}
