package apt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Helcaraxan/aptgraph/internal/util"
)

var (
	ErrPackageNotFound = errors.New("package not found")
	ErrQueryFailed     = errors.New("package query failed")
	ErrToolMissing     = errors.New("package manager not installed")
)

// DefaultCommand is the package manager invocation used when none is configured. The package
// name is appended as the last argument.
var DefaultCommand = []string{"apt", "show"}

// PackageInfo is the part of a package's metadata that matters for its dependency graph.
type PackageInfo struct {
	Name    string
	Depends []Dependency
	// HasDependsField is false when the metadata did not contain any 'Depends:' line, as opposed
	// to one with an empty list.
	HasDependsField bool
}

// Source provides package metadata.
type Source interface {
	Lookup(ctx context.Context, name string) (*PackageInfo, error)
}

// CommandSource retrieves package metadata by running a package manager command such as
// 'apt show <package>'.
type CommandSource struct {
	// Command and leading arguments. Defaults to DefaultCommand when empty.
	Command []string
	// Maximum duration of a single invocation. Zero means no limit.
	Timeout time.Duration

	log *zap.Logger
}

func NewCommandSource(log *zap.Logger, command []string, timeout time.Duration) *CommandSource {
	if log == nil {
		log = zap.NewNop()
	}
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &CommandSource{
		Command: command,
		Timeout: timeout,
		log:     log,
	}
}

// Lookup runs the package manager for the named package and parses its output. Errors wrap one
// of ErrPackageNotFound, ErrQueryFailed or ErrToolMissing.
func (s *CommandSource) Lookup(ctx context.Context, name string) (*PackageInfo, error) {
	log := s.log.With(zap.String("package", name))

	ctx, cancel := util.WithTimeout(ctx, s.Timeout)
	defer cancel()

	args := append(append([]string{}, s.Command[1:]...), name)
	stdout, stderr, err := util.RunCommand(ctx, log, "", s.Command[0], args...)
	switch {
	case errors.Is(err, util.ErrToolNotFound):
		log.Debug("Package manager is not available.", zap.String("command", s.Command[0]))
		return nil, fmt.Errorf("%w: %v", ErrToolMissing, err)
	case err != nil && signalsUnknownPackage(stdout, stderr):
		return nil, fmt.Errorf("%w: %q", ErrPackageNotFound, name)
	case err != nil:
		log.Debug("Package query failed.", zap.ByteString("stderr", stderr))
		return nil, fmt.Errorf("%w for %q: %v", ErrQueryFailed, name, err)
	case !hasPackageRecord(stdout):
		log.Debug("Package manager returned no package record.")
		return nil, fmt.Errorf("%w: %q", ErrPackageNotFound, name)
	}

	deps, found := ParseDepends(stdout)
	log.Debug("Retrieved package information.", zap.Int("dependencies", len(deps)), zap.Bool("depends-field", found))
	return &PackageInfo{
		Name:            name,
		Depends:         deps,
		HasDependsField: found,
	}, nil
}

var unknownPackageMarkers = [][]byte{
	[]byte("No packages found"),
	[]byte("Unable to locate package"),
}

func signalsUnknownPackage(outputs ...[]byte) bool {
	for _, output := range outputs {
		for _, marker := range unknownPackageMarkers {
			if bytes.Contains(output, marker) {
				return true
			}
		}
	}
	return false
}

// StaticSource serves package metadata from memory, keyed by package name. Packages without an
// entry are reported as unknown.
type StaticSource map[string]string

func (s StaticSource) Lookup(ctx context.Context, name string) (*PackageInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPackageNotFound, name)
	}
	deps, found := ParseDepends([]byte(raw))
	return &PackageInfo{Name: name, Depends: deps, HasDependsField: found}, nil
}
