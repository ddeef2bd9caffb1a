package printer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Helcaraxan/aptgraph/internal/depgraph"
	"github.com/Helcaraxan/aptgraph/internal/logger"
	"github.com/Helcaraxan/aptgraph/internal/util"
)

// DefaultRankDir lays the graph out from left to right.
const DefaultRankDir = "LR"

// PrintConfig holds the parameters passed to the Print function of a Graph.
type PrintConfig struct {
	// Logger that should be used to show progress while printing the Graph.
	Log *logger.Logger

	// Path at which the DOT description of the Graph should be written. Any existing file is
	// overwritten. If empty the description is written to stdout.
	OutputPath string
	// Options tuning the generated description. A nil value results in the plain description.
	Style *StyleOptions
}

// StyleOptions tune the appearance of the rendered graph.
type StyleOptions struct {
	// Direction of the layout. Defaults to DefaultRankDir.
	RankDir string
	// Shape used for all nodes. Graphviz's default is used when empty.
	NodeShape string
	// Label edges with the version constraint under which the dependency was declared.
	Annotate bool
	// Fill every node with a colour derived from its name.
	Colour bool
}

// Print writes the DOT description of the Graph according to the configuration.
func Print(g *depgraph.Graph, config *PrintConfig) error {
	log := config.Log
	if log == nil {
		log = logger.NewNop()
	}

	var out io.Writer = os.Stdout
	if len(config.OutputPath) > 0 {
		f, err := util.PrepareOutputPath(log.Logger, config.OutputPath)
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		out = f
		log.Debug("Writing DOT graph.", zap.String("path", config.OutputPath))
	} else {
		log.Debug("Writing DOT graph to terminal.")
	}

	if _, err := out.Write(Export(g, config.Style)); err != nil {
		log.Error("Failed to write DOT file.", zap.Error(err))
		return fmt.Errorf("could not write DOT graph to %q: %w", config.OutputPath, err)
	}
	return nil
}

// Export returns the DOT description of the Graph. Edges are emitted in sorted order so that the
// same graph always yields the same bytes. Package names are quoted verbatim.
func Export(g *depgraph.Graph, style *StyleOptions) []byte {
	if style == nil {
		style = &StyleOptions{}
	}
	rankDir := style.RankDir
	if rankDir == "" {
		rankDir = DefaultRankDir
	}

	var buf bytes.Buffer
	buf.WriteString("digraph Dependencies {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankDir)
	if style.NodeShape != "" {
		fmt.Fprintf(&buf, "  node [shape=%s];\n", style.NodeShape)
	}

	if style.Colour {
		for _, node := range g.Graph.Nodes() {
			text, background := nameToColourHSV(node.Name(), node.Name() == g.Root)
			fmt.Fprintf(&buf, "  \"%s\" [style=filled,fillcolor=\"%s\",fontcolor=\"%s\"];\n", node.Name(), background, text)
		}
	}

	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  \"%s\" -> \"%s\"", e.Source, e.Target)
		if constraint, ok := g.Constraints[e]; ok && style.Annotate {
			fmt.Fprintf(&buf, " [label=\"%s\"]", constraint)
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.Bytes()
}
