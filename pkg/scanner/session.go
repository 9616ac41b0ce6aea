// Package scanner matches the packages found in manifests and lockfiles
// against the known-bad registry and accumulates the resulting findings.
package scanner

import (
	"errors"
	"time"

	"github.com/sambabib/shaiscan/pkg/lockfile"
	"github.com/sambabib/shaiscan/pkg/logger"
	"github.com/sambabib/shaiscan/pkg/registry"
	"github.com/sambabib/shaiscan/pkg/version"
)

// Severity of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

const (
	MessageExactMatch = "exact infected version match"
	MessageNameMatch  = "package is on the infected list, verify version manually"
)

// Finding describes a flagged package occurrence.
type Finding struct {
	Name             string                   `json:"name"`
	Version          string                   `json:"version"`
	SpecifiedVersion string                   `json:"specifiedVersion"`
	Severity         Severity                 `json:"severity"`
	Type             lockfile.DependencyClass `json:"type"`
	Message          string                   `json:"message"`
	InfectedVersions []string                 `json:"infectedVersions"`

	// Known-bad versions the specifier's range could admit. Only set on
	// warnings.
	PossibleMatches []string `json:"possibleMatches,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// State is the accumulated result of a session.
type State struct {
	ScannedFiles  []string
	TotalPackages int
	Infected      []Finding
	Warnings      []Finding
	ParseErrors   []*lockfile.ParseError
	ScanDate      time.Time
}

// Session owns the dedup set and findings of one scan. A Session is not safe
// for concurrent use; the registry it reads may be shared.
type Session struct {
	registry *registry.Registry
	ignored  func(name string) bool
	now      func() time.Time
	seen     map[string]struct{}
	state    State
}

// Option configures a Session.
type Option func(*Session)

// WithIgnore suppresses name-only warnings for packages the predicate
// reports as ignored. Exact version matches are reported regardless.
func WithIgnore(ignored func(name string) bool) Option {
	return func(s *Session) {
		s.ignored = ignored
	}
}

// WithClock sets the clock used to stamp the scan date.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates an empty session that matches against reg.
func NewSession(reg *registry.Registry, opts ...Option) *Session {
	s := &Session{
		registry: reg,
		now:      time.Now,
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.ScanDate = s.now()
	return s
}

// CheckPackage matches one package occurrence. Repeated calls with the same
// name and specifier are no-ops.
func (s *Session) CheckPackage(name, spec string, class lockfile.DependencyClass) {
	s.check(name, spec, class, "")
}

func (s *Session) check(name, spec string, class lockfile.DependencyClass, source string) {
	key := name + "@" + spec
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.state.TotalPackages++

	if !s.registry.IsFlagged(name) {
		return
	}

	resolved := version.Normalize(spec)
	bad := s.registry.KnownBadVersions(name)
	f := Finding{
		Name:             name,
		Version:          resolved,
		SpecifiedVersion: spec,
		Type:             class,
		InfectedVersions: bad,
		Source:           source,
	}

	if containsVersion(bad, resolved) {
		f.Severity = SeverityCritical
		f.Message = MessageExactMatch
		s.state.Infected = append(s.state.Infected, f)
		logger.Debugf("%s %s@%s (%s)", f.Severity, name, resolved, class)
		return
	}

	if s.ignored != nil && s.ignored(name) {
		logger.Debugf("ignoring warning for %s@%s", name, spec)
		return
	}
	f.Severity = SeverityWarning
	f.Message = MessageNameMatch
	f.PossibleMatches = version.MayInclude(spec, bad)
	s.state.Warnings = append(s.state.Warnings, f)
	logger.Debugf("%s %s@%s (%s)", f.Severity, name, spec, class)
}

// ScanContent parses content as format and checks every record it yields.
// The label names the source in reports and defaults to the format's file
// name. A parse failure is recorded on the session and returned, but it leaves
// the session usable.
func (s *Session) ScanContent(format lockfile.Format, content, label string) error {
	if label == "" {
		label = format.FileName()
	}
	logger.Infof("Scanning %s...", label)
	s.state.ScannedFiles = append(s.state.ScannedFiles, label)

	records, err := lockfile.Parse(format, content, label)
	if err != nil {
		var perr *lockfile.ParseError
		if !errors.As(err, &perr) {
			perr = &lockfile.ParseError{Format: format, Source: label, Err: err}
		}
		s.state.ParseErrors = append(s.state.ParseErrors, perr)
		logger.Errorf("%v", perr)
		return perr
	}

	logger.Infof("Found %d packages in %s", len(records), label)
	for _, r := range records {
		s.check(r.Name, r.Spec, r.Class, label)
	}
	return nil
}

// State returns a snapshot of the accumulated results. Later calls on the
// session do not modify a returned snapshot.
func (s *Session) State() State {
	st := s.state
	st.ScannedFiles = append([]string(nil), s.state.ScannedFiles...)
	st.Infected = append([]Finding(nil), s.state.Infected...)
	st.Warnings = append([]Finding(nil), s.state.Warnings...)
	st.ParseErrors = append([]*lockfile.ParseError(nil), s.state.ParseErrors...)
	return st
}

func containsVersion(versions []string, v string) bool {
	for _, bad := range versions {
		if bad == v {
			return true
		}
	}
	return false
}
