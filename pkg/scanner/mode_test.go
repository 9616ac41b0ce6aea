package scanner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambabib/shaiscan/pkg/lockfile"
)

const (
	manifestDoc = `{"dependencies": {"posthog-node": "^5.0.0"}}`
	npmLockDoc  = `{"packages": {"": {"version": "1.0.0"}, "node_modules/kill-port": {"version": "2.0.2"}}}`
	yarnLockDoc = "# yarn lockfile v1\n\n\"kill-port@^2.0.0\":\n  version \"2.0.3\"\n"
	pnpmLockDoc = "lockfileVersion: '9.0'\n\npackages:\n  posthog-js@1.297.3:\n    resolution: {integrity: sha512-x}\n"
)

func allSources() Sources {
	return Sources{
		lockfile.FormatManifest: {Label: "package.json", Content: manifestDoc},
		lockfile.FormatNpmLock:  {Label: "package-lock.json", Content: npmLockDoc},
		lockfile.FormatYarnLock: {Label: "yarn.lock", Content: yarnLockDoc},
		lockfile.FormatPnpmLock: {Label: "pnpm-lock.yaml", Content: pnpmLockDoc},
	}
}

func without(src Sources, formats ...lockfile.Format) Sources {
	out := Sources{}
	for f, s := range src {
		out[f] = s
	}
	for _, f := range formats {
		delete(out, f)
	}
	return out
}

func TestScan_Modes(t *testing.T) {
	tests := []struct {
		name        string
		sources     Sources
		mode        Mode
		wantScanned []string
	}{
		{"manifest default", allSources(), ModeManifest, []string{"package.json"}},
		{"npm lock", allSources(), ModeNpmLock, []string{"package-lock.json"}},
		{"yarn lock", allSources(), ModeYarnLock, []string{"yarn.lock"}},
		{"pnpm lock", allSources(), ModePnpmLock, []string{"pnpm-lock.yaml"}},
		{"auto prefers npm", allSources(), ModeAutoLock, []string{"package-lock.json"}},
		{"auto falls back to yarn", without(allSources(), lockfile.FormatNpmLock), ModeAutoLock, []string{"yarn.lock"}},
		{"auto falls back to pnpm", without(allSources(), lockfile.FormatNpmLock, lockfile.FormatYarnLock), ModeAutoLock, []string{"pnpm-lock.yaml"}},
		{"all", allSources(), ModeAll, []string{"package.json", "package-lock.json", "yarn.lock", "pnpm-lock.yaml"}},
		{"all without manifest", without(allSources(), lockfile.FormatManifest), ModeAll, []string{"package-lock.json", "yarn.lock", "pnpm-lock.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(testRegistry(t))
			require.NoError(t, s.Scan(tt.sources, tt.mode))
			assert.Equal(t, tt.wantScanned, s.State().ScannedFiles)
		})
	}
}

func TestScan_AllModeFindings(t *testing.T) {
	s := NewSession(testRegistry(t))
	require.NoError(t, s.Scan(allSources(), ModeAll))

	st := s.State()
	assert.Equal(t, 4, st.TotalPackages)
	require.Len(t, st.Warnings, 1)
	assert.Equal(t, "posthog-node", st.Warnings[0].Name)

	var names []string
	for _, f := range st.Infected {
		names = append(names, f.Name+"@"+f.Version+" "+f.Source)
	}
	assert.Equal(t, []string{
		"kill-port@2.0.2 package-lock.json",
		"kill-port@2.0.3 yarn.lock",
		"posthog-js@1.297.3 pnpm-lock.yaml",
	}, names)
}

func TestScan_MissingSources(t *testing.T) {
	tests := []struct {
		name    string
		sources Sources
		mode    Mode
		wantMsg string
	}{
		{"no manifest", without(allSources(), lockfile.FormatManifest), ModeManifest, "no package.json found"},
		{"no npm lock", without(allSources(), lockfile.FormatNpmLock), ModeNpmLock, "no package-lock.json found"},
		{"no yarn lock", without(allSources(), lockfile.FormatYarnLock), ModeYarnLock, "no yarn.lock found"},
		{"no pnpm lock", without(allSources(), lockfile.FormatPnpmLock), ModePnpmLock, "no pnpm-lock.yaml found"},
		{"no lock at all", Sources{lockfile.FormatManifest: {Content: manifestDoc}}, ModeAutoLock, "no lock file found"},
		{"nothing", Sources{}, ModeAll, "no package.json or lock files found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(testRegistry(t))
			err := s.Scan(tt.sources, tt.mode)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFormatNotFound))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Empty(t, s.State().ScannedFiles)
		})
	}
}

func TestScan_ParseErrorDoesNotFailScan(t *testing.T) {
	src := allSources()
	src[lockfile.FormatNpmLock] = Source{Label: "package-lock.json", Content: "<html>rate limited</html>"}

	s := NewSession(testRegistry(t))
	require.NoError(t, s.Scan(src, ModeAll))

	st := s.State()
	assert.Len(t, st.ScannedFiles, 4)
	require.Len(t, st.ParseErrors, 1)
	assert.Equal(t, lockfile.FormatNpmLock, st.ParseErrors[0].Format)
	assert.Len(t, st.Infected, 2)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "lock", ModeAutoLock.String())
	assert.Equal(t, "Mode(42)", Mode(42).String())
}
