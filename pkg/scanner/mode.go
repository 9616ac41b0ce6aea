package scanner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sambabib/shaiscan/pkg/lockfile"
)

// Mode selects which sources a scan reads.
type Mode int

const (
	// ModeManifest scans package.json only.
	ModeManifest Mode = iota
	// ModeAutoLock scans the first lockfile present, in the order
	// package-lock.json, yarn.lock, pnpm-lock.yaml.
	ModeAutoLock
	ModeNpmLock
	ModeYarnLock
	ModePnpmLock
	// ModeAll scans the manifest and every lockfile present.
	ModeAll
)

func (m Mode) String() string {
	switch m {
	case ModeManifest:
		return "manifest"
	case ModeAutoLock:
		return "lock"
	case ModeNpmLock:
		return "npm"
	case ModeYarnLock:
		return "yarn"
	case ModePnpmLock:
		return "pnpm"
	case ModeAll:
		return "all"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

var lockPriority = []lockfile.Format{lockfile.FormatNpmLock, lockfile.FormatYarnLock, lockfile.FormatPnpmLock}

// ErrFormatNotFound is matched by every *FormatNotFoundError.
var ErrFormatNotFound = errors.New("source not found")

// FormatNotFoundError reports that none of the required sources was supplied.
type FormatNotFoundError struct {
	Formats []lockfile.Format
}

func (e *FormatNotFoundError) Error() string {
	switch {
	case len(e.Formats) == 1:
		return fmt.Sprintf("no %s found", e.Formats[0])
	case len(e.Formats) == len(lockfile.Formats):
		return "no package.json or lock files found"
	default:
		names := make([]string, len(e.Formats))
		for i, f := range e.Formats {
			names[i] = string(f)
		}
		return fmt.Sprintf("no lock file found (looked for %s)", strings.Join(names, ", "))
	}
}

func (e *FormatNotFoundError) Is(target error) bool {
	return target == ErrFormatNotFound
}

// Source is the raw text of one document and the label it is reported under.
type Source struct {
	Label   string
	Content string
}

// Sources holds the documents available to a scan, keyed by format.
type Sources map[lockfile.Format]Source

// Scan scans the sources selected by mode. It fails with a
// *FormatNotFoundError when a required source is absent. Parse errors are
// collected on the session and do not fail the scan.
func (s *Session) Scan(sources Sources, mode Mode) error {
	formats, err := selectFormats(sources, mode)
	if err != nil {
		return err
	}
	for _, f := range formats {
		src := sources[f]
		// parse errors are already recorded on the session
		_ = s.ScanContent(f, src.Content, src.Label)
	}
	return nil
}

func selectFormats(sources Sources, mode Mode) ([]lockfile.Format, error) {
	single := func(f lockfile.Format) ([]lockfile.Format, error) {
		if _, ok := sources[f]; !ok {
			return nil, &FormatNotFoundError{Formats: []lockfile.Format{f}}
		}
		return []lockfile.Format{f}, nil
	}

	switch mode {
	case ModeManifest:
		return single(lockfile.FormatManifest)
	case ModeNpmLock:
		return single(lockfile.FormatNpmLock)
	case ModeYarnLock:
		return single(lockfile.FormatYarnLock)
	case ModePnpmLock:
		return single(lockfile.FormatPnpmLock)
	case ModeAutoLock:
		for _, f := range lockPriority {
			if _, ok := sources[f]; ok {
				return []lockfile.Format{f}, nil
			}
		}
		return nil, &FormatNotFoundError{Formats: lockPriority}
	case ModeAll:
		var present []lockfile.Format
		for _, f := range lockfile.Formats {
			if _, ok := sources[f]; ok {
				present = append(present, f)
			}
		}
		if len(present) == 0 {
			return nil, &FormatNotFoundError{Formats: lockfile.Formats}
		}
		return present, nil
	default:
		return nil, fmt.Errorf("unknown scan mode %v", mode)
	}
}
