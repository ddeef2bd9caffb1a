package depgraph

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Helcaraxan/aptgraph/internal/apt"
	"github.com/Helcaraxan/aptgraph/internal/graph"
)

var ErrEmptyRoot = errors.New("root package name must not be empty")

// Options tune a discovery run.
type Options struct {
	// MaxDepth bounds the number of dependency levels below the root that are expanded. Zero means
	// no limit. Edges towards packages at the limit are still recorded.
	MaxDepth int
}

type pending struct {
	name  string
	depth int
}

// Discover builds the transitive dependency graph of 'root' by querying 'source' for every
// reachable package. A package that cannot be looked up ends its own branch but does not stop the
// discovery of other branches; such failures are recorded in the returned graph. The error is
// only non-nil for an empty root or when 'ctx' is done, in which case the partial graph is
// returned alongside it.
func Discover(ctx context.Context, log *zap.Logger, source apt.Source, root string, opts Options) (*Graph, error) {
	if log == nil {
		log = zap.NewNop()
	}

	g := newGraph(root)
	if root == "" {
		return g, ErrEmptyRoot
	}
	if _, _, err := g.Graph.AddNode(root); err != nil {
		return g, err
	}

	log.Debug("Discovering dependency graph.", zap.String("root", root), zap.Int("max-depth", opts.MaxDepth))

	// Breadth-first so that every package is expanded at its minimal depth.
	queue := []pending{{name: root}}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			log.Warn("Dependency discovery was interrupted.", zap.Int("expanded", len(g.order)), zap.Error(err))
			return g, err
		}

		next := queue[0]
		queue = queue[1:]
		if !g.markVisited(next.name) {
			continue
		}

		info, err := source.Lookup(ctx, next.name)
		if next.name == root {
			g.Status = statusFromError(err)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				log.Warn("Dependency discovery was interrupted.", zap.Int("expanded", len(g.order)), zap.Error(ctxErr))
				return g, ctxErr
			}
			g.Failures[next.name] = err
			reportLookupFailure(log, next.name, err)
			continue
		}

		if !info.HasDependsField {
			log.Debug("Package metadata has no 'Depends:' field.", zap.String("package", next.name))
			g.Undeclared = append(g.Undeclared, next.name)
		}

		expand := opts.MaxDepth <= 0 || next.depth+1 < opts.MaxDepth
		for _, dep := range info.Depends {
			if dep.Name == next.name {
				log.Debug("Ignoring self-dependency.", zap.String("package", next.name))
				continue
			}
			if g.addDependency(log, next.name, dep) && expand && !g.Visited(dep.Name) {
				queue = append(queue, pending{name: dep.Name, depth: next.depth + 1})
			}
		}
	}

	log.Debug(
		"Finished dependency discovery.",
		zap.String("root", root),
		zap.Stringer("status", g.Status),
		zap.Int("packages", len(g.order)),
		zap.Int("edges", g.Graph.EdgeCount()),
		zap.Int("failures", len(g.Failures)),
	)
	return g, nil
}

func (g *Graph) addDependency(log *zap.Logger, source string, dep apt.Dependency) bool {
	if _, _, err := g.Graph.AddNode(dep.Name); err != nil {
		log.Error("Could not add package to the graph.", zap.String("package", dep.Name), zap.Error(err))
		return false
	}
	added, err := g.Graph.AddEdge(source, dep.Name)
	if err != nil {
		log.Error("Could not add dependency to the graph.", zap.String("source", source), zap.String("target", dep.Name), zap.Error(err))
		return false
	}
	if added {
		log.Debug("Recorded dependency.", zap.String("source", source), zap.String("target", dep.Name))
		if dep.Constraint != "" {
			g.Constraints[graph.Edge{Source: source, Target: dep.Name}] = dep.Constraint
		}
	}
	return true
}

func reportLookupFailure(log *zap.Logger, name string, err error) {
	switch {
	case errors.Is(err, apt.ErrPackageNotFound):
		log.Warn("Package not found.", zap.String("package", name))
	case errors.Is(err, apt.ErrToolMissing):
		log.Error("The package manager does not seem to be installed.", zap.String("package", name), zap.Error(err))
	default:
		log.Warn("Could not retrieve package information.", zap.String("package", name), zap.Error(err))
	}
}
