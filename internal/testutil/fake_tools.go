package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const fakeAptDriver = `#!/usr/bin/env bash
set -e -u -o pipefail

content_dir="%s"

if [[ -f "${content_dir}/error.lock" ]]; then
	echo >&2 "E: deliberate fake apt error"
	exit 1
fi

if [[ "$1" != "show" ]]; then
	echo >&2 "E: Unrecognised command '$1' to fake apt"
	exit 1
fi

echo >&2 "WARNING: apt does not have a stable CLI interface. Use with caution in scripts."

echo "$2" >> "${content_dir}/queries.log"

file="${content_dir}/show-${2//\//_}.txt"
if [[ ! -f "${file}" ]]; then
	echo >&2 "N: Unable to locate package $2"
	echo >&2 "E: No packages found"
	exit 100
fi
cat "${file}"
`

const fakeDotDriver = `#!/usr/bin/env bash
set -e -u -o pipefail

content_dir="%s"

if [[ -f "${content_dir}/dot-error.lock" ]]; then
	echo >&2 "Error: deliberate fake dot error"
	exit 1
fi

input=""
output=""
while [[ $# -gt 0 ]]; do
	case "$1" in
		-o)
			output="$2"
			shift 2
			;;
		-o*)
			output="${1:2}"
			shift
			;;
		-T*)
			shift
			;;
		*)
			input="$1"
			shift
			;;
	esac
done

cp "${input}" "${output}"
`

// TestDefinition describes the behaviour of the fake 'apt' driver for a test.
type TestDefinition interface {
	// AptError makes every invocation of the fake driver fail.
	AptError() bool
	// AptShowOutput maps package names to the output of 'apt show <package>'. Packages that are
	// not listed are reported as unknown.
	AptShowOutput() map[string]string
}

// FakeTools is a directory prepended to PATH that holds fake 'apt' and 'dot' drivers.
type FakeTools struct {
	Dir string
}

// SetupFakeTools loads the YAML test definition at the specified path into 'testDefinition' and
// installs fake tool drivers that behave accordingly. PATH is restored when the test ends.
func SetupFakeTools(t *testing.T, testDefinitionPath string, testDefinition TestDefinition) *FakeTools {
	raw, err := os.ReadFile(testDefinitionPath)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(raw, testDefinition))

	tools := NewFakeTools(t)
	tools.SetAptShowOutput(t, testDefinition.AptShowOutput())
	if testDefinition.AptError() {
		tools.FailApt(t)
	}
	return tools
}

// NewFakeTools installs fake 'apt' and 'dot' drivers without any known package.
func NewFakeTools(t *testing.T) *FakeTools {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apt"), []byte(fmt.Sprintf(fakeAptDriver, dir)), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dot"), []byte(fmt.Sprintf(fakeDotDriver, dir)), 0700))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return &FakeTools{Dir: dir}
}

func (f *FakeTools) SetAptShowOutput(t *testing.T, outputs map[string]string) {
	for pkg, output := range outputs {
		filename := fmt.Sprintf("show-%s.txt", strings.ReplaceAll(pkg, "/", "_"))
		require.NoError(t, os.WriteFile(filepath.Join(f.Dir, filename), []byte(output), 0600))
	}
}

func (f *FakeTools) FailApt(t *testing.T) {
	require.NoError(t, os.WriteFile(filepath.Join(f.Dir, "error.lock"), nil, 0600))
}

func (f *FakeTools) FailDot(t *testing.T) {
	require.NoError(t, os.WriteFile(filepath.Join(f.Dir, "dot-error.lock"), nil, 0600))
}

// Queries returns the package names that the fake 'apt' driver was invoked with, in order.
func (f *FakeTools) Queries(t *testing.T) []string {
	raw, err := os.ReadFile(filepath.Join(f.Dir, "queries.log"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Fields(string(raw))
}
