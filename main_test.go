package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Helcaraxan/aptgraph/internal/analysis"
	"github.com/Helcaraxan/aptgraph/internal/logger"
	"github.com/Helcaraxan/aptgraph/internal/testutil"
)

var scenarioPackages = map[string]string{
	"alpha": "Package: alpha\nVersion: 1.0\nDepends: beta, gamma (>= 1.0)\n",
	"beta":  "Package: beta\nVersion: 2.1\nDepends: gamma\n",
	"gamma": "Package: gamma\nVersion: 1.4\n",
	"leaf":  "Package: leaf\nDepends:\n",
}

const scenarioDescription = `digraph Dependencies {
  rankdir=LR;
  "alpha" -> "beta";
  "alpha" -> "gamma";
  "beta" -> "gamma";
}
`

type cliResult struct {
	err    error
	stdout string
	log    string
}

func runCLI(t *testing.T, args ...string) cliResult {
	logs := &bytes.Buffer{}
	stdout := &bytes.Buffer{}

	cArgs := &commonArgs{
		log:    logger.NewBuilder(zapcore.AddSync(logs)),
		stdout: stdout,
	}
	cmd := newRootCmd(cArgs)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(logs)

	err := cmd.ExecuteContext(context.Background())
	t.Log(logs.String())
	return cliResult{err: err, stdout: stdout.String(), log: logs.String()}
}

func setupScenario(t *testing.T) (*testutil.FakeTools, string) {
	tools := testutil.NewFakeTools(t)
	tools.SetAptShowOutput(t, scenarioPackages)
	return tools, t.TempDir()
}

func TestGraphCommand(t *testing.T) {
	for _, prefix := range [][]string{nil, {"graph"}} {
		name := "Root"
		if len(prefix) > 0 {
			name = "Subcommand"
		}
		t.Run(name, func(t *testing.T) {
			tools, dir := setupScenario(t)
			descriptionPath := filepath.Join(dir, "dependencies.dot")
			imagePath := filepath.Join(dir, "dependencies.png")

			args := append(append([]string(nil), prefix...), "alpha", "-d", descriptionPath, "-o", imagePath)
			result := runCLI(t, args...)
			require.NoError(t, result.err)

			content, err := os.ReadFile(descriptionPath)
			require.NoError(t, err)
			assert.Equal(t, scenarioDescription, string(content))
			assert.FileExists(t, imagePath)
			assert.Equal(t, []string{"alpha", "beta", "gamma"}, tools.Queries(t))
		})
	}
}

func TestGraphCommandOverwrites(t *testing.T) {
	_, dir := setupScenario(t)
	descriptionPath := filepath.Join(dir, "dependencies.dot")
	imagePath := filepath.Join(dir, "dependencies.png")
	require.NoError(t, os.WriteFile(descriptionPath, []byte("stale\nstale\nstale\nstale\nstale\nstale\nstale\nstale\nstale\n"), 0600))

	for i := 0; i < 2; i++ {
		require.NoError(t, runCLI(t, "alpha", "-d", descriptionPath, "-o", imagePath).err)
		content, err := os.ReadFile(descriptionPath)
		require.NoError(t, err)
		assert.Equal(t, scenarioDescription, string(content))
	}
}

func TestGraphCommandDefaultPaths(t *testing.T) {
	_, dir := setupScenario(t)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() {
		require.NoError(t, os.Chdir(cwd))
	}()

	require.NoError(t, runCLI(t, "alpha").err)
	assert.FileExists(t, filepath.Join(dir, "dependencies.dot"))
	assert.FileExists(t, filepath.Join(dir, "dependencies.png"))
}

func TestGraphCommandNothingToRender(t *testing.T) {
	testcases := map[string]struct {
		pkg             string
		failApt         bool
		expectedMessage string
	}{
		"NotFound": {
			pkg:             "nosuchpkg",
			expectedMessage: "Package not found. Nothing to render.",
		},
		"Leaf": {
			pkg:             "leaf",
			expectedMessage: "Package has no dependencies. Nothing to render.",
		},
		"QueryFailed": {
			pkg:             "alpha",
			failApt:         true,
			expectedMessage: "Could not retrieve package information. Nothing to render.",
		},
	}

	for name := range testcases {
		testcase := testcases[name]
		t.Run(name, func(t *testing.T) {
			tools, dir := setupScenario(t)
			if testcase.failApt {
				tools.FailApt(t)
			}
			descriptionPath := filepath.Join(dir, "dependencies.dot")
			imagePath := filepath.Join(dir, "dependencies.png")

			result := runCLI(t, testcase.pkg, "-d", descriptionPath, "-o", imagePath)
			require.NoError(t, result.err)
			assert.Contains(t, result.log, testcase.expectedMessage)
			assert.NoFileExists(t, descriptionPath)
			assert.NoFileExists(t, imagePath)
		})
	}
}

func TestGraphCommandRendererProblems(t *testing.T) {
	t.Run("Missing", func(t *testing.T) {
		_, dir := setupScenario(t)
		descriptionPath := filepath.Join(dir, "dependencies.dot")
		imagePath := filepath.Join(dir, "dependencies.png")

		result := runCLI(t, "alpha", "-d", descriptionPath, "-o", imagePath, "--renderer-binary", "aptgraph-no-such-dot")
		require.NoError(t, result.err)
		assert.Contains(t, result.log, "sudo apt install graphviz")
		assert.NotContains(t, result.log, "Could not render the dependency graph.")
		assert.FileExists(t, descriptionPath)
		assert.NoFileExists(t, imagePath)
	})

	t.Run("Failed", func(t *testing.T) {
		tools, dir := setupScenario(t)
		tools.FailDot(t)
		descriptionPath := filepath.Join(dir, "dependencies.dot")
		imagePath := filepath.Join(dir, "dependencies.png")

		result := runCLI(t, "alpha", "-d", descriptionPath, "-o", imagePath)
		require.NoError(t, result.err)
		assert.Contains(t, result.log, "Could not render the dependency graph.")
		assert.NotContains(t, result.log, "sudo apt install graphviz")
		assert.FileExists(t, descriptionPath)
		assert.NoFileExists(t, imagePath)
	})
}

func TestGraphCommandOptions(t *testing.T) {
	_, dir := setupScenario(t)
	descriptionPath := filepath.Join(dir, "out", "graph.dot")
	imagePath := filepath.Join(dir, "out", "graph.png")

	result := runCLI(t, "graph", "alpha", "-d", descriptionPath, "-o", imagePath, "--no-render", "--depth", "1", "--style", "rankdir=TB,annotate")
	require.NoError(t, result.err)

	content, err := os.ReadFile(descriptionPath)
	require.NoError(t, err)
	assert.Equal(t, `digraph Dependencies {
  rankdir=TB;
  "alpha" -> "beta";
  "alpha" -> "gamma" [label=">= 1.0"];
}
`, string(content))
	assert.NoFileExists(t, imagePath)
}

func TestConfigFile(t *testing.T) {
	_, dir := setupScenario(t)
	configPath := filepath.Join(dir, "aptgraph.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`dot_output = "`+filepath.Join(dir, "from-config.dot")+`"
output = "`+filepath.Join(dir, "from-config.png")+`"
style = "rankdir=BT"
`), 0600))

	flagPath := filepath.Join(dir, "from-flag.png")
	require.NoError(t, runCLI(t, "alpha", "--config", configPath, "-o", flagPath).err)

	content, err := os.ReadFile(filepath.Join(dir, "from-config.dot"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "rankdir=BT;")
	assert.FileExists(t, flagPath)
	assert.NoFileExists(t, filepath.Join(dir, "from-config.png"))
}

func TestUsageErrors(t *testing.T) {
	testcases := map[string][]string{
		"NoArguments":      {},
		"TooManyArguments": {"alpha", "beta"},
		"GraphNoArguments": {"graph"},
		"GraphTooMany":     {"graph", "alpha", "beta"},
		"InvalidStyle":     {"alpha", "--style", "cluster=full"},
		"InvalidRenderer":  {"alpha", "--renderer", "neato"},
		"NegativeDepth":    {"alpha", "--depth", "-1"},
		"MissingConfig":    {"alpha", "--config", "/nonexistent/aptgraph.yaml"},
	}

	for name := range testcases {
		args := testcases[name]
		t.Run(name, func(t *testing.T) {
			tools, dir := setupScenario(t)
			result := runCLI(t, append(args, "-d", filepath.Join(dir, "dependencies.dot"))...)
			assert.Error(t, result.err)
			assert.NoFileExists(t, filepath.Join(dir, "dependencies.dot"))
			assert.Empty(t, tools.Queries(t))
		})
	}
}

func TestAnalyseCommand(t *testing.T) {
	setupScenario(t)

	result := runCLI(t, "analyse", "alpha")
	require.NoError(t, result.err)
	assert.Contains(t, result.stdout, "-- Analysis for 'alpha' --")
	assert.Contains(t, result.stdout, "- Direct dependencies:   2\n")

	result = runCLI(t, "analyze", "alpha", "--yaml")
	require.NoError(t, result.err)
	decoded := &analysis.DepAnalysis{}
	require.NoError(t, yaml.Unmarshal([]byte(result.stdout), decoded))
	assert.Equal(t, "alpha", decoded.Package)
	assert.Equal(t, 2, decoded.DirectDependencyCount)
	assert.Equal(t, 3, decoded.EdgeCount)
	assert.Equal(t, []string{"gamma"}, decoded.MostRequired)
}

func TestVersionCommand(t *testing.T) {
	result := runCLI(t, "version")
	require.NoError(t, result.err)
	assert.Equal(t, "aptgraph version devel (built unknown)\n", result.stdout)
}

func TestCompletionCommand(t *testing.T) {
	result := runCLI(t, "completion", "bash")
	require.NoError(t, result.err)
	assert.Contains(t, result.stdout, "aptgraph")

	path := filepath.Join(t.TempDir(), "aptgraph.zsh")
	require.NoError(t, runCLI(t, "completion", "zsh", "-o", path).err)
	assert.FileExists(t, path)
}

func TestVerbosity(t *testing.T) {
	setupScenario(t)

	result := runCLI(t, "analyse", "alpha", "--verbose=discovery")
	require.NoError(t, result.err)
	assert.Contains(t, result.log, "Discovering dependency graph.")

	result = runCLI(t, "analyse", "alpha")
	require.NoError(t, result.err)
	assert.NotContains(t, result.log, "Discovering dependency graph.")

	result = runCLI(t, "analyse", "nosuchpkg", "--quiet")
	require.NoError(t, result.err)
	assert.NotContains(t, result.log, "Package not found.")
}
