package lockfile

import (
	"regexp"
	"strings"
)

const pnpmPackagesHeader = "packages:"

var (
	// name@version keys: "lodash@4.17.21", "/lodash@4.17.21" (lockfile v6),
	// "@types/node@20.0.0", "react-dom@18.2.0(react@18.2.0)".
	pnpmAtKey = regexp.MustCompile(`^/?((?:@[^@/\s]+/)?[^@/\s]+)@([^\s'"():_]+)`)
	// name/version keys written by pnpm 5: "/lodash/4.17.21", "/@babel/core/7.0.0_x".
	pnpmSlashKey = regexp.MustCompile(`^/((?:@[^@/\s]+/)?[^@/\s]+)/(\d[^\s'"():_/]*)`)
	// any top-level YAML key, such as "snapshots:" or "importers:".
	pnpmTopLevelKey = regexp.MustCompile(`^[A-Za-z_][\w-]*:`)
)

// ParsePnpmLock reads the package keys of the packages: section of a
// pnpm-lock.yaml. The section starts at a line that is exactly "packages:"
// and ends at the next top-level key, so package-shaped keys under
// snapshots: or importers: are never read. All records are transitive.
func ParsePnpmLock(content string) ([]Record, error) {
	if err := checkText(content); err != nil {
		return nil, err
	}

	var (
		records    []Record
		inPackages bool
		keyIndent  = -1
	)
	for _, raw := range splitLines(content) {
		line := strings.TrimRight(raw, " \t")
		if line == pnpmPackagesHeader {
			inPackages = true
			keyIndent = -1
			continue
		}
		if !inPackages {
			continue
		}
		if pnpmTopLevelKey.MatchString(line) {
			inPackages = false
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := indentOf(line)
		if indent == 0 {
			continue
		}
		if keyIndent < 0 {
			keyIndent = indent
		}
		if indent != keyIndent || !strings.HasSuffix(trimmed, ":") {
			continue
		}

		if name, ver, ok := pnpmPackageKey(strings.TrimSuffix(trimmed, ":")); ok {
			records = append(records, Record{Name: name, Spec: ver, Class: Transitive})
		}
	}
	return records, nil
}

// pnpmPackageKey splits a packages: key into name and version.
func pnpmPackageKey(key string) (string, string, bool) {
	key = strings.Trim(key, `'"`)
	if m := pnpmAtKey.FindStringSubmatch(key); m != nil {
		return m[1], m[2], true
	}
	if m := pnpmSlashKey.FindStringSubmatch(key); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}
