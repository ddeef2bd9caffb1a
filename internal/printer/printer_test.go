package printer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helcaraxan/aptgraph/internal/apt"
	"github.com/Helcaraxan/aptgraph/internal/depgraph"
	"github.com/Helcaraxan/aptgraph/internal/logger"
	"github.com/Helcaraxan/aptgraph/internal/testutil"
)

func discover(t *testing.T, root string, packages apt.StaticSource) *depgraph.Graph {
	g, err := depgraph.Discover(context.Background(), nil, packages, root, depgraph.Options{})
	require.NoError(t, err)
	return g
}

var alphaPackages = apt.StaticSource{
	"alpha": "Package: alpha\nDepends: gamma (>= 1.0), beta\n",
	"beta":  "Package: beta\nDepends: gamma\n",
	"gamma": "Package: gamma\n",
}

func TestExport(t *testing.T) {
	testcases := map[string]struct {
		root     string
		packages apt.StaticSource
		style    *StyleOptions
		expected string
	}{
		"Plain": {
			root:     "alpha",
			packages: alphaPackages,
			expected: `digraph Dependencies {
  rankdir=LR;
  "alpha" -> "beta";
  "alpha" -> "gamma";
  "beta" -> "gamma";
}
`,
		},
		"Empty": {
			root:     "nosuchpkg",
			packages: apt.StaticSource{},
			expected: `digraph Dependencies {
  rankdir=LR;
}
`,
		},
		"Annotated": {
			root:     "alpha",
			packages: alphaPackages,
			style:    &StyleOptions{Annotate: true},
			expected: `digraph Dependencies {
  rankdir=LR;
  "alpha" -> "beta";
  "alpha" -> "gamma" [label=">= 1.0"];
  "beta" -> "gamma";
}
`,
		},
		"Layout": {
			root:     "alpha",
			packages: apt.StaticSource{"alpha": "Depends: beta"},
			style:    &StyleOptions{RankDir: "TB", NodeShape: "box"},
			expected: `digraph Dependencies {
  rankdir=TB;
  node [shape=box];
  "alpha" -> "beta";
}
`,
		},
		"VerbatimQuotes": {
			root:     "alpha",
			packages: apt.StaticSource{"alpha": `Depends: be"ta`},
			expected: `digraph Dependencies {
  rankdir=LR;
  "alpha" -> "be"ta";
}
`,
		},
	}

	for name := range testcases {
		testcase := testcases[name]
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			g := discover(t, testcase.root, testcase.packages)
			assert.Equal(t, testcase.expected, string(Export(g, testcase.style)))
		})
	}
}

func TestExportIdempotent(t *testing.T) {
	first := Export(discover(t, "alpha", alphaPackages), nil)
	second := Export(discover(t, "alpha", alphaPackages), nil)
	assert.Equal(t, first, second)

	g := discover(t, "alpha", alphaPackages)
	assert.Equal(t, Export(g, nil), Export(g, nil))
}

func TestExportColour(t *testing.T) {
	g := discover(t, "alpha", apt.StaticSource{"alpha": "Depends: beta"})
	out := string(Export(g, &StyleOptions{Colour: true}))

	rootText, rootBackground := nameToColourHSV("alpha", true)
	depText, depBackground := nameToColourHSV("beta", false)
	assert.Contains(t, out, `  "alpha" [style=filled,fillcolor="`+rootBackground+`",fontcolor="`+rootText+`"];`)
	assert.Contains(t, out, `  "beta" [style=filled,fillcolor="`+depBackground+`",fontcolor="`+depText+`"];`)
	assert.Contains(t, out, `  "alpha" -> "beta";`)
}

func TestNameToColour(t *testing.T) {
	text, background := nameToColourHSV("libc6", false)
	text2, background2 := nameToColourHSV("libc6", false)
	assert.Equal(t, text, text2)
	assert.Equal(t, background, background2)

	_, rootBackground := nameToColourHSV("libc6", true)
	assert.NotEqual(t, background, rootBackground)
}

func TestPrint(t *testing.T) {
	log := testutil.TestLogger(t).Domain(logger.PrinterDomain)
	g := discover(t, "alpha", alphaPackages)
	path := filepath.Join(t.TempDir(), "out", "dependencies.dot")

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the new description\n"+string(Export(g, nil))), 0600))

	require.NoError(t, Print(g, &PrintConfig{Log: log, OutputPath: path}))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(Export(g, nil)), string(content))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, FormatPNG, FormatFromPath("dependencies.png"))
	assert.Equal(t, FormatJPG, FormatFromPath("out/graph.JPEG"))
	assert.Equal(t, FormatUnknown, FormatFromPath("dependencies"))
	assert.Equal(t, FormatUnknown, FormatFromPath("dependencies.bmp"))

	assert.Equal(t, FormatSVG, ResolveFormat(FormatSVG, "dependencies.png"))
	assert.Equal(t, FormatPDF, ResolveFormat(FormatUnknown, "dependencies.pdf"))
	assert.Equal(t, "ps", FormatPS.String())
}
