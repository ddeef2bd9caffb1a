package analysis

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Helcaraxan/aptgraph/internal/depgraph"
	"github.com/Helcaraxan/aptgraph/internal/graph"
)

var ErrNoGraph = errors.New("no dependency graph to analyse")

type DepAnalysis struct {
	Package string `yaml:"package"`
	Status  string `yaml:"status"`

	DirectDependencyCount   int `yaml:"direct_dependencies"`
	IndirectDependencyCount int `yaml:"indirect_dependencies"`
	EdgeCount               int `yaml:"edges"`

	MaxDepth          int   `yaml:"max_depth"`
	DepthDistribution []int `yaml:"depth_distribution"`

	MeanReverseDependencyCount    float64  `yaml:"mean_reverse_deps"`
	MaxReverseDependencyCount     int      `yaml:"max_reverse_deps"`
	ReverseDependencyDistribution []int    `yaml:"reverse_deps_distribution"`
	MostRequired                  []string `yaml:"most_required,omitempty"`

	Failures   map[string]string `yaml:"failures,omitempty"`
	Undeclared []string          `yaml:"undeclared,omitempty"`
}

func Analyse(log *zap.Logger, g *depgraph.Graph) (*DepAnalysis, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if g == nil || g.Graph == nil {
		return nil, ErrNoGraph
	}

	result := &analysis{
		log:    log,
		graph:  g,
		depths: shortestDepths(g.Graph, g.Root),
	}

	for _, node := range g.Graph.Nodes() {
		result.processPackage(node)
	}

	meanArity, maxArity, arityDistribution := result.reverseDependencies.compute()
	_, maxDepth, depthDistribution := result.depths.distribution.compute()

	a := &DepAnalysis{
		Package:                       g.Root,
		Status:                        g.Status.String(),
		DirectDependencyCount:         result.directDependencies,
		IndirectDependencyCount:       result.indirectDependencies,
		EdgeCount:                     g.Graph.EdgeCount(),
		MaxDepth:                      int(maxDepth),
		DepthDistribution:             depthDistribution,
		MeanReverseDependencyCount:    meanArity,
		MaxReverseDependencyCount:     int(maxArity),
		ReverseDependencyDistribution: arityDistribution,
		MostRequired:                  result.mostRequired(int(maxArity)),
		Undeclared:                    append([]string(nil), g.Undeclared...),
	}
	if len(g.Failures) > 0 {
		a.Failures = make(map[string]string, len(g.Failures))
		for pkg, err := range g.Failures {
			a.Failures[pkg] = err.Error()
		}
	}
	return a, nil
}

type analysis struct {
	log    *zap.Logger
	graph  *depgraph.Graph
	depths *depthIndex

	directDependencies   int
	indirectDependencies int
	reverseDependencies  meanMaxDistribution
	arities              map[string]int
}

func (r *analysis) processPackage(node *graph.Node) {
	if node.Name() == r.graph.Root {
		return
	}

	depth, ok := r.depths.depth[node.Name()]
	if !ok {
		r.log.Warn("Package is not reachable from the root.", zap.String("package", node.Name()))
		return
	}
	r.depths.distribution.insert(int64(depth), depth)

	if depth == 1 {
		r.directDependencies++
	} else {
		r.indirectDependencies++
	}

	if arity := node.Predecessors().Len(); arity > 0 {
		r.reverseDependencies.insert(int64(arity), arity)
		if r.arities == nil {
			r.arities = map[string]int{}
		}
		r.arities[node.Name()] = arity
	}
}

func (r *analysis) mostRequired(maxArity int) []string {
	if maxArity < 2 {
		return nil
	}
	var names []string
	for name, arity := range r.arities {
		if arity == maxArity {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

type depthIndex struct {
	depth        map[string]int
	distribution meanMaxDistribution
}

// shortestDepths computes the number of edges on the shortest path from the root to every
// reachable package.
func shortestDepths(g *graph.Digraph, root string) *depthIndex {
	idx := &depthIndex{depth: map[string]int{}}

	rootNode, err := g.GetNode(root)
	if err != nil {
		return idx
	}
	idx.depth[root] = 0

	queue := []*graph.Node{rootNode}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range current.Successors().List() {
			if _, ok := idx.depth[next.Name()]; ok {
				continue
			}
			idx.depth[next.Name()] = idx.depth[current.Name()] + 1
			queue = append(queue, next)
		}
	}
	return idx
}

const (
	reportTemplate = `-- Analysis for '%s' --
Lookup status: %s

Dependency counts:
- Direct dependencies:   %d
- Indirect dependencies: %d
- Dependency edges:      %d

Depth statistics:
- Maximum dependency depth: %d
- Depth distribution:

%s

Reverse dependency statistics:
- Mean number of reverse dependencies:    %.2f
- Maximum number of reverse dependencies: %d
- Reverse dependency count distribution:

%s

`

	noDependencies = `-- Analysis for '%s' --
Lookup status: %s

No dependencies were found.

`
)

func (a *DepAnalysis) Print(f io.Writer) error {
	var err error
	if a.EdgeCount == 0 {
		_, err = fmt.Fprintf(f, noDependencies, a.Package, a.Status)
	} else {
		_, err = fmt.Fprintf(
			f,
			reportTemplate,
			a.Package,
			a.Status,
			a.DirectDependencyCount,
			a.IndirectDependencyCount,
			a.EdgeCount,
			a.MaxDepth,
			printedDistribution(a.DepthDistribution, 10),
			a.MeanReverseDependencyCount,
			a.MaxReverseDependencyCount,
			printedDistribution(a.ReverseDependencyDistribution, 10),
		)
	}
	if err != nil {
		return err
	}

	var extra strings.Builder
	if len(a.MostRequired) > 0 {
		fmt.Fprintf(&extra, "Most required packages: %s\n", strings.Join(a.MostRequired, ", "))
	}
	if len(a.Failures) > 0 {
		extra.WriteString("Packages whose information could not be retrieved:\n")
		names := make([]string, 0, len(a.Failures))
		for name := range a.Failures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&extra, "- %s: %s\n", name, a.Failures[name])
		}
	}
	if len(a.Undeclared) > 0 {
		fmt.Fprintf(&extra, "Packages without a 'Depends:' field: %s\n", strings.Join(a.Undeclared, ", "))
	}
	_, err = io.WriteString(f, extra.String())
	return err
}

type meanMaxDistribution struct {
	mean         float64
	max          int64
	distribution []int
	valCount     int
}

func (d *meanMaxDistribution) insert(val int64, distributionIdx int) {
	d.mean += float64(val)
	d.valCount++

	if val > d.max {
		d.max = val
	}
	d.distribution = insertIntoDistribution(distributionIdx, d.distribution)
}

func (d *meanMaxDistribution) compute() (float64, int64, []int) {
	mean := 0.0
	if d.valCount > 0 {
		mean = d.mean / float64(d.valCount)
	}
	return mean, d.max, d.distribution
}

func insertIntoDistribution(idx int, v []int) []int {
	if idx+1 > len(v) {
		newV := make([]int, idx+1)
		copy(newV, v)
		v = newV
	}
	v[idx]++
	return v
}

func distributionCountToPercentage(d []int, groupingFactor int) []float64 {
	var totalCount int

	columns := len(d) / groupingFactor
	if len(d)%groupingFactor > 0 {
		columns++
	}
	p := make([]float64, columns)

	for i := range p {
		for j := 0; j < groupingFactor && i*groupingFactor+j < len(d); j++ {
			totalCount += d[i*groupingFactor+j]
			p[i] += float64(d[i*groupingFactor+j])
		}
	}

	if totalCount == 0 {
		return p
	}
	for i := range p {
		p[i] /= float64(totalCount)
	}
	return p
}

func distributionToLines(distribution []float64, displayHeight int) []string {
	var maxColumnValue float64
	for _, columnValue := range distribution {
		if columnValue > maxColumnValue {
			maxColumnValue = columnValue
		}
	}
	if maxColumnValue == 0 {
		return []string{strings.Repeat("|", displayHeight+1)}
	}

	step := maxColumnValue / float64(displayHeight)
	lines := make([]string, 2*len(distribution))

	lines[0] = strings.Repeat("|", displayHeight+1)
	for idx, value := range distribution {
		stepCount := int(value / step)
		line := "_" + strings.Repeat("#", stepCount)
		// Rounding is done by hand as math.Mod is subject to floating point drift.
		if value-float64(stepCount)*step > step/2 {
			line += "_"
		}
		lines[idx*2+1] = line
		if idx*2+2 < len(lines) {
			lines[idx*2+2] = "_"
		}
	}
	return lines
}

func rotateDistributionLines(lines []string, displayHeight int) []string {
	rows := make([]string, displayHeight+1)
	for idx := 0; idx < displayHeight+1; idx++ {
		for l := range lines {
			if len(lines[l]) >= displayHeight+1-idx {
				rows[idx] += string(lines[l][displayHeight-idx])
			} else {
				rows[idx] += " "
			}
		}
	}
	return rows
}

func annotateDistributionPrintout(lines []string, distribution []float64, groupingFactor int) []string {
	if len(lines) == 0 {
		return lines
	}

	var maxColumnValue float64
	for _, columnValue := range distribution {
		if columnValue > maxColumnValue {
			maxColumnValue = columnValue
		}
	}

	lineLength := len(lines[0])

	lines[0] = fmt.Sprintf(" %6.2f %% ", maxColumnValue*100) + lines[0]
	for idx := 1; idx < len(lines)-1; idx++ {
		lines[idx] = "          " + lines[idx]
	}
	lines[len(lines)-1] = fmt.Sprintf(" %6.2f %% ", 0.0) + lines[len(lines)-1]

	topValue := groupingFactor * len(distribution)
	bottomLine := "          " + fmt.Sprintf(" 0 %*d", lineLength-3, topValue)
	return append(lines, bottomLine)
}

func printedDistribution(distribution []int, displayHeight int) string {
	// Fits most terminal widths.
	const maxColumns = 50

	groupingFactor := len(distribution) / maxColumns
	if len(distribution)%maxColumns > 0 {
		groupingFactor++
	} else if groupingFactor == 0 {
		groupingFactor = 1
	}

	pDistribution := distributionCountToPercentage(distribution, groupingFactor)
	lines := distributionToLines(pDistribution, displayHeight)
	rows := rotateDistributionLines(lines, displayHeight)
	rows = annotateDistributionPrintout(rows, pDistribution, groupingFactor)
	return strings.Join(rows, "\n")
}
