// Package lockfile extracts (name, version specifier) pairs from npm
// manifests and from npm, Yarn and pnpm lockfiles.
//
// None of the parsers build a full syntax tree. Each one relies on the
// regularities of its format that are enough to recover package names and
// versions, and each is a pure function of its input text.
package lockfile

import (
	"errors"
	"fmt"
	"strings"
)

// DependencyClass tells whether a package was declared by the project itself
// or pulled in through another package.
type DependencyClass string

const (
	Direct     DependencyClass = "direct"
	Transitive DependencyClass = "transitive"
)

// Record is one package occurrence recovered from a source.
type Record struct {
	Name  string
	Spec  string // raw version specifier or resolved version, as written
	Class DependencyClass
}

// Format identifies the kind of document a source holds.
type Format string

const (
	FormatManifest Format = "package.json"
	FormatNpmLock  Format = "package-lock.json"
	FormatYarnLock Format = "yarn.lock"
	FormatPnpmLock Format = "pnpm-lock.yaml"
)

// Formats lists every supported format in lock auto-detection priority order,
// manifest first.
var Formats = []Format{FormatManifest, FormatNpmLock, FormatYarnLock, FormatPnpmLock}

// FileName returns the conventional file name for the format.
func (f Format) FileName() string {
	return string(f)
}

// IsLock reports whether the format is a lockfile rather than a manifest.
func (f Format) IsLock() bool {
	return f == FormatNpmLock || f == FormatYarnLock || f == FormatPnpmLock
}

// ParseError reports a source that could not be parsed. It is never fatal to
// a scan: the source contributes no records and scanning continues.
type ParseError struct {
	Format Format
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("error parsing %s %s: %v", e.Format, e.Source, e.Err)
	}
	return fmt.Sprintf("error parsing %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errBinaryContent = errors.New("content is binary, not text")

// Parse routes content to the parser for format. Any failure is returned as a
// *ParseError labelled with source.
func Parse(format Format, content, source string) ([]Record, error) {
	var (
		records []Record
		err     error
	)
	switch format {
	case FormatManifest:
		records, err = ParseManifest(content)
	case FormatNpmLock:
		records, err = ParseNpmLock(content)
	case FormatYarnLock:
		records, err = ParseYarnLock(content)
	case FormatPnpmLock:
		records, err = ParsePnpmLock(content)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, &ParseError{Format: format, Source: source, Err: err}
	}
	return records, nil
}

// splitLines splits text into lines without trailing carriage returns.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func checkText(content string) error {
	if strings.ContainsRune(content, 0) {
		return errBinaryContent
	}
	return nil
}
