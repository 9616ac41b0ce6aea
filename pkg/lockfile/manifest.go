package lockfile

import (
	"fmt"
)

// manifestSections are merged in this order; a later section replaces the
// specifier of a name an earlier section already declared.
var manifestSections = []string{
	"dependencies",
	"devDependencies",
	"peerDependencies",
	"optionalDependencies",
}

// ParseManifest reads the dependency sections of a package.json document.
// Every entry is a direct dependency. Entries whose specifier is not a string
// are skipped.
func ParseManifest(content string) ([]Record, error) {
	doc, err := decodeObject([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("invalid package.json: %w", err)
	}

	var order []string
	specs := make(map[string]string)
	for _, section := range manifestSections {
		raw, ok := lookup(doc, section)
		if !ok || !isObject(raw) {
			continue
		}
		deps, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s section: %w", section, err)
		}
		for _, dep := range deps {
			spec, ok := stringValue(dep.Value)
			if !ok {
				continue
			}
			if _, seen := specs[dep.Key]; !seen {
				order = append(order, dep.Key)
			}
			specs[dep.Key] = spec
		}
	}

	records := make([]Record, 0, len(order))
	for _, name := range order {
		records = append(records, Record{Name: name, Spec: specs[name], Class: Direct})
	}
	return records, nil
}
