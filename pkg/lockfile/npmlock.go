package lockfile

import (
	"encoding/json"
	"fmt"
	"strings"
)

const nodeModulesSegment = "node_modules/"

// ParseNpmLock reads a package-lock.json (or npm-shrinkwrap.json) document.
//
// Both historical layouts are read when present. The lockfileVersion 2/3
// "packages" map is keyed by install path and yields transitive records; the
// root entry (empty path) and entries without a version are skipped. The
// lockfileVersion 1 "dependencies" tree yields direct records for its top
// level and transitive records for everything nested below it.
func ParseNpmLock(content string) ([]Record, error) {
	doc, err := decodeObject([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("invalid package-lock.json: %w", err)
	}

	var records []Record

	if raw, ok := lookup(doc, "packages"); ok && isObject(raw) {
		pkgs, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid packages section: %w", err)
		}
		for _, p := range pkgs {
			if p.Key == "" {
				continue
			}
			ver := entryVersion(p.Value)
			if ver == "" {
				continue
			}
			records = append(records, Record{Name: nameFromInstallPath(p.Key), Spec: ver, Class: Transitive})
		}
	}

	if raw, ok := lookup(doc, "dependencies"); ok && isObject(raw) {
		nested, err := walkLockDependencies(raw, 0)
		if err != nil {
			return nil, fmt.Errorf("invalid dependencies section: %w", err)
		}
		records = append(records, nested...)
	}

	return records, nil
}

// nameFromInstallPath returns the package name installed at path, which is
// whatever follows the last node_modules/ segment.
func nameFromInstallPath(path string) string {
	if i := strings.LastIndex(path, nodeModulesSegment); i >= 0 {
		return path[i+len(nodeModulesSegment):]
	}
	return path
}

func walkLockDependencies(raw json.RawMessage, depth int) ([]Record, error) {
	deps, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	class := Transitive
	if depth == 0 {
		class = Direct
	}

	var records []Record
	for _, dep := range deps {
		if !isObject(dep.Value) {
			continue
		}
		if ver := entryVersion(dep.Value); ver != "" {
			records = append(records, Record{Name: dep.Key, Spec: ver, Class: class})
		}
		info, err := decodeObject(dep.Value)
		if err != nil {
			return nil, err
		}
		if child, ok := lookup(info, "dependencies"); ok && isObject(child) {
			nested, err := walkLockDependencies(child, depth+1)
			if err != nil {
				return nil, err
			}
			records = append(records, nested...)
		}
	}
	return records, nil
}

// entryVersion returns the "version" string of a lock entry, or "".
func entryVersion(raw json.RawMessage) string {
	var entry struct {
		Version json.RawMessage `json:"version"`
	}
	if !isObject(raw) {
		return ""
	}
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Version == nil {
		return ""
	}
	ver, _ := stringValue(entry.Version)
	return ver
}
