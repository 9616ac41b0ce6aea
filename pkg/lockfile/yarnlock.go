package lockfile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sambabib/shaiscan/pkg/logger"
)

// YarnFlavor distinguishes the Yarn 1 lockfile dialect from the Yarn 2+ one.
type YarnFlavor int

const (
	YarnClassic YarnFlavor = iota
	YarnBerry
)

func (f YarnFlavor) String() string {
	if f == YarnBerry {
		return "berry"
	}
	return "classic"
}

var (
	classicVersionLine = regexp.MustCompile(`^\s+version\s+"?([^"\s]+)"?\s*$`)
	berryVersionLine   = regexp.MustCompile(`^\s+version:\s*"?([^"\s]+)"?\s*$`)
	eitherVersionLine  = regexp.MustCompile(`^\s+version(?::\s*|\s+)"?([^"\s]+)"?\s*$`)
	yarnNamePattern    = regexp.MustCompile(`^(@[^\s/@]+/)?[^\s/@]+$`)
)

// DetectYarnFlavor looks for the dialect markers at the head of a yarn.lock:
// a __metadata: block or the "yarn install" generator comment mean Berry,
// the "yarn lockfile v1" comment means Classic. The first package block ends
// the search; without a marker the lockfile is treated as Classic.
func DetectYarnFlavor(content string) YarnFlavor {
	flavor, _ := detectYarnFlavor(content)
	return flavor
}

func detectYarnFlavor(content string) (flavor YarnFlavor, marked bool) {
	for _, line := range splitLines(content) {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case line == "__metadata:":
			return YarnBerry, true
		case strings.HasPrefix(trimmed, "#"):
			if strings.Contains(trimmed, "yarn lockfile v1") {
				return YarnClassic, true
			}
			if strings.Contains(trimmed, `generated by running "yarn install"`) {
				return YarnBerry, true
			}
		case isYarnDeclarator(line):
			return YarnClassic, false
		}
	}
	return YarnClassic, false
}

// ParseYarnLock detects the dialect of a yarn.lock and parses it. All records
// are transitive and carry the resolved version. A lockfile without a dialect
// marker is read accepting either version syntax.
func ParseYarnLock(content string) ([]Record, error) {
	flavor, marked := detectYarnFlavor(content)
	switch {
	case !marked:
		logger.Warnf("yarn.lock has no dialect marker, accepting both version syntaxes")
		return parseYarnBlocks(content, eitherVersionLine)
	case flavor == YarnBerry:
		return ParseYarnBerry(content)
	default:
		return ParseYarnClassic(content)
	}
}

// ParseYarnClassic parses the Yarn 1 dialect, where fields are written as
// `version "1.2.3"`.
func ParseYarnClassic(content string) ([]Record, error) {
	return parseYarnBlocks(content, classicVersionLine)
}

// ParseYarnBerry parses the Yarn 2+ dialect, where fields are written as
// `version: 1.2.3`.
func ParseYarnBerry(content string) ([]Record, error) {
	return parseYarnBlocks(content, berryVersionLine)
}

// parseYarnBlocks walks declarator/field blocks. A declarator opens a package
// and the first version field at the block's own indentation closes it, so a
// block without a version never lends its name to a later version line.
// Package blocks that yield no version at all mean the content is not in the
// expected dialect, which is reported as an error.
func parseYarnBlocks(content string, versionLine *regexp.Regexp) ([]Record, error) {
	if err := checkText(content); err != nil {
		return nil, err
	}

	var (
		records     []Record
		current     string
		blockIndent = -1
		blocks      int
	)
	for _, line := range splitLines(content) {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if isYarnDeclarator(line) {
			current = yarnDeclaratorName(line)
			blockIndent = -1
			if current != "" {
				blocks++
			}
			continue
		}
		if current == "" {
			continue
		}
		indent := indentOf(line)
		if indent == 0 {
			current = ""
			continue
		}
		if blockIndent < 0 {
			blockIndent = indent
		}
		if indent != blockIndent {
			continue
		}
		if m := versionLine.FindStringSubmatch(line); m != nil {
			records = append(records, Record{Name: current, Spec: m[1], Class: Transitive})
			current = ""
		}
	}
	if blocks > 0 && len(records) == 0 {
		return nil, fmt.Errorf("no version found in %d package entries", blocks)
	}
	return records, nil
}

func isYarnDeclarator(line string) bool {
	if line == "" || indentOf(line) > 0 || strings.HasPrefix(line, "#") {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(line), ":")
}

// yarnDeclaratorName returns the package name of the first descriptor on a
// declarator line, or "" when the line does not describe a package.
func yarnDeclaratorName(line string) string {
	decl := strings.TrimSuffix(strings.TrimSpace(line), ":")
	first := strings.SplitN(decl, ",", 2)[0]
	first = strings.Trim(strings.TrimSpace(first), `"'`)
	name := descriptorName(first)
	if !yarnNamePattern.MatchString(name) {
		return ""
	}
	return name
}

// descriptorName strips the range (and any protocol such as npm:) from a
// descriptor: "@scope/pkg@npm:^1.0.0" becomes "@scope/pkg".
func descriptorName(descriptor string) string {
	offset := 0
	if strings.HasPrefix(descriptor, "@") {
		slash := strings.Index(descriptor, "/")
		if slash < 0 {
			return ""
		}
		offset = slash
	}
	at := strings.Index(descriptor[offset:], "@")
	if at < 0 {
		return ""
	}
	return descriptor[:offset+at]
}
