package depgraph

import (
	"errors"

	"github.com/Helcaraxan/aptgraph/internal/apt"
	"github.com/Helcaraxan/aptgraph/internal/graph"
)

// Status is the outcome of looking up the root package of a discovery run.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusFound
	StatusNotFound
	StatusQueryFailed
	StatusToolMissing
)

func (s Status) String() string {
	return map[Status]string{
		StatusUnknown:     "unknown",
		StatusFound:       "found",
		StatusNotFound:    "not-found",
		StatusQueryFailed: "query-failed",
		StatusToolMissing: "tool-missing",
	}[s]
}

func statusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusFound
	case errors.Is(err, apt.ErrPackageNotFound):
		return StatusNotFound
	case errors.Is(err, apt.ErrToolMissing):
		return StatusToolMissing
	default:
		return StatusQueryFailed
	}
}

// Graph is the dependency graph of a single root package.
type Graph struct {
	Root   string
	Status Status

	Graph *graph.Digraph

	// Constraints holds the verbatim version constraint text of each edge that declared one.
	Constraints map[graph.Edge]string
	// Failures records the lookup error of each package whose metadata could not be retrieved.
	Failures map[string]error
	// Undeclared lists, in expansion order, the packages whose metadata had no 'Depends:' field.
	Undeclared []string

	visited map[string]struct{}
	order   []string
}

func newGraph(root string) *Graph {
	return &Graph{
		Root:        root,
		Graph:       graph.NewDigraph(),
		Constraints: map[graph.Edge]string{},
		Failures:    map[string]error{},
		visited:     map[string]struct{}{},
	}
}

// Visited reports whether the package was expanded during discovery.
func (g *Graph) Visited(name string) bool {
	_, ok := g.visited[name]
	return ok
}

// VisitOrder returns the expanded packages in the order in which they were expanded.
func (g *Graph) VisitOrder() []string {
	return append([]string(nil), g.order...)
}

// Edges returns the dependency edges sorted by source and then by target.
func (g *Graph) Edges() []graph.Edge {
	return g.Graph.Edges()
}

// Empty reports whether there is nothing to render.
func (g *Graph) Empty() bool {
	return g.Graph.EdgeCount() == 0
}

func (g *Graph) markVisited(name string) bool {
	if _, ok := g.visited[name]; ok {
		return false
	}
	g.visited[name] = struct{}{}
	g.order = append(g.order, name)
	return true
}
