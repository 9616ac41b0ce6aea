// Package version reduces npm version specifiers to a single comparison token.
//
// Normalization is textual: a range collapses to its first bound and an
// OR-list to its first alternative. It is not a semver range resolver, so a
// range such as ">=1.0.0 <2.0.0" that admits a known-bad release further inside
// the range does not normalize to that release. MayInclude exists to surface
// those cases as hints without changing how a version is classified.
package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

const orSeparator = "||"

// rangeOperators are stripped wherever they appear in a specifier.
var rangeOperators = strings.NewReplacer("^", "", "~", "", ">", "", "=", "", "<", "")

// Normalize strips range operators and whitespace from spec and keeps only the
// part before the first "||". An empty spec yields "".
func Normalize(spec string) string {
	if spec == "" {
		return ""
	}
	v := rangeOperators.Replace(spec)
	v = strings.Join(strings.Fields(v), "")
	if i := strings.Index(v, orSeparator); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}

// MayInclude returns the candidates that the range expressed by spec admits,
// in candidate order. Specifiers that are not semver ranges (dist-tags, git
// URLs, file paths) admit nothing.
func MayInclude(spec string, candidates []string) []string {
	spec = strings.TrimSpace(spec)
	if spec == "" || len(candidates) == 0 {
		return nil
	}
	c, err := semver.NewConstraint(spec)
	if err != nil {
		return nil
	}
	var matches []string
	for _, candidate := range candidates {
		v, err := semver.NewVersion(candidate)
		if err != nil {
			continue
		}
		if c.Check(v) {
			matches = append(matches, candidate)
		}
	}
	return matches
}
