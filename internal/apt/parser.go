package apt

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"
)

const (
	dependsLabel = "Depends:"
	packageLabel = "Package:"
)

var (
	listSeparatorRE = regexp.MustCompile(`,\s*`)
	nameEndRE       = regexp.MustCompile(`[\s(]`)
	constraintRE    = regexp.MustCompile(`\(([^)]*)\)`)
)

// Dependency is one entry of a 'Depends:' field.
type Dependency struct {
	// Name is the bare package name of the entry.
	Name string
	// Constraint is the verbatim text of the first parenthesised annotation, if any (e.g. ">= 1.0").
	Constraint string
}

// ParseDepends extracts the dependencies declared by every 'Depends:' line in the output of the
// package manager. The boolean reports whether any such line was present at all.
func ParseDepends(raw []byte) ([]Dependency, bool) {
	var (
		deps  []Dependency
		found bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dependsLabel) {
			continue
		}
		found = true

		value := strings.TrimSpace(line[len(dependsLabel):])
		if value == "" {
			continue
		}
		for _, entry := range listSeparatorRE.Split(value, -1) {
			if dep, ok := parseEntry(entry); ok {
				deps = append(deps, dep)
			}
		}
	}
	return deps, found
}

func parseEntry(entry string) (Dependency, bool) {
	entry = strings.TrimSpace(entry)
	name := entry
	if loc := nameEndRE.FindStringIndex(entry); loc != nil {
		name = entry[:loc[0]]
	}
	if name == "" {
		return Dependency{}, false
	}

	dep := Dependency{Name: name}
	// Only the first alternative of 'a (>= 1) | b' contributes the name, so only its constraint
	// is kept.
	first := entry
	if idx := strings.Index(entry, "|"); idx >= 0 {
		first = entry[:idx]
	}
	if m := constraintRE.FindStringSubmatch(first); m != nil {
		dep.Constraint = strings.TrimSpace(m[1])
	}
	return dep, true
}

func hasPackageRecord(raw []byte) bool {
	for _, line := range bytes.Split(raw, []byte("\n")) {
		if bytes.HasPrefix(line, []byte(packageLabel)) {
			return true
		}
	}
	return false
}
