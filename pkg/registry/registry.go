// Package registry holds the database of package versions known to be
// compromised. A Registry is built once and never mutated, so one value can be
// shared by any number of scan sessions without locking.
package registry

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

//go:embed known_bad.txt
var embeddedList string

var (
	namePattern    = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)
	versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?$`)
)

// Registry maps package names to the versions known to be compromised.
type Registry struct {
	versions map[string][]string
	names    []string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from the embedded IOC list.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Parse(strings.NewReader(embeddedList))
		if err != nil {
			panic(fmt.Sprintf("registry: embedded list is invalid: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Parse reads a list of name@version entries, one per line. A line with a bare
// name flags the package without any version constraint. Blank lines and lines
// starting with # are skipped. Entries keep their first-seen order.
func Parse(r io.Reader) (*Registry, error) {
	reg := &Registry{versions: make(map[string][]string)}
	sc := bufio.NewScanner(r)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, ver := splitEntry(line)
		if !namePattern.MatchString(name) {
			return nil, fmt.Errorf("line %d: invalid package name %q", lineNum, name)
		}
		if ver != "" {
			if !versionPattern.MatchString(ver) {
				return nil, fmt.Errorf("line %d: invalid version %q for %s", lineNum, ver, name)
			}
			if _, err := semver.StrictNewVersion(ver); err != nil {
				return nil, fmt.Errorf("line %d: invalid version %q for %s: %w", lineNum, ver, name, err)
			}
		}
		reg.add(name, ver)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("error reading known-bad list: %w", err)
	}
	return reg, nil
}

// LoadFile parses the known-bad list stored at path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open known-bad list: %w", err)
	}
	defer f.Close()

	reg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// splitEntry splits "name@version" on the last @ that is not the scope marker.
func splitEntry(line string) (string, string) {
	at := strings.LastIndex(line, "@")
	if at <= 0 {
		return line, ""
	}
	return line[:at], line[at+1:]
}

func (r *Registry) add(name, ver string) {
	existing, ok := r.versions[name]
	if !ok {
		r.names = append(r.names, name)
		existing = []string{}
	}
	if ver != "" && !contains(existing, ver) {
		existing = append(existing, ver)
	}
	r.versions[name] = existing
}

// Merge returns a new registry holding the entries of r followed by those of
// other. Neither input is modified.
func (r *Registry) Merge(other *Registry) *Registry {
	merged := &Registry{versions: make(map[string][]string, len(r.names))}
	for _, src := range []*Registry{r, other} {
		if src == nil {
			continue
		}
		for _, name := range src.names {
			vs := src.versions[name]
			if len(vs) == 0 {
				merged.add(name, "")
			}
			for _, v := range vs {
				merged.add(name, v)
			}
		}
	}
	return merged
}

// IsFlagged reports whether name appears in the registry.
func (r *Registry) IsFlagged(name string) bool {
	_, ok := r.versions[name]
	return ok
}

// KnownBadVersions returns a copy of the compromised versions recorded for
// name. The result is empty when name is not flagged or has no version
// constraint.
func (r *Registry) KnownBadVersions(name string) []string {
	vs := r.versions[name]
	out := make([]string, len(vs))
	copy(out, vs)
	return out
}

// Names returns every flagged package name once, in registry order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of flagged package names.
func (r *Registry) Len() int {
	return len(r.names)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
