package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambabib/shaiscan/pkg/lockfile"
	"github.com/sambabib/shaiscan/pkg/registry"
	"github.com/sambabib/shaiscan/pkg/scanner"
)

var scanTime = time.Date(2025, 11, 24, 9, 30, 0, 0, time.UTC)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Parse(strings.NewReader(`
posthog-js@1.297.3
kill-port@2.0.2
kill-port@2.0.3
@asyncapi/specs@6.8.2
@asyncapi/diff@0.5.2
@zapier/secret-scrubber@1.1.3
bare-name
`))
	require.NoError(t, err)
	return reg
}

func scanManifest(t *testing.T, manifest string) scanner.State {
	t.Helper()
	s := scanner.NewSession(testRegistry(t), scanner.WithClock(func() time.Time { return scanTime }))
	require.NoError(t, s.Scan(scanner.Sources{lockfile.FormatManifest: {Content: manifest}}, scanner.ModeManifest))
	return s.State()
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     Summary
	}{
		{"critical", `{"dependencies": {"posthog-js": "1.297.3"}}`, Summary{TotalScanned: 1, CriticalFindings: 1}},
		{"warning", `{"dependencies": {"posthog-js": "1.0.0"}}`, Summary{TotalScanned: 1, Warnings: 1}},
		{"clean", `{"dependencies": {"lodash": "^4.17.21"}}`, Summary{TotalScanned: 1, IsClean: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(scanManifest(t, tt.manifest)))
		})
	}
}

func TestGenerateJSONReport(t *testing.T) {
	state := scanManifest(t, `{"dependencies": {"posthog-js": "1.297.3", "kill-port": "^2.0.0"}}`)

	data, err := GenerateJSONReport(state)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, []interface{}{"package.json"}, doc["scannedFiles"])
	assert.Equal(t, float64(2), doc["totalPackages"])
	assert.Equal(t, "2025-11-24T09:30:00.000Z", doc["scanDate"])
	assert.NotContains(t, doc, "parseErrors")

	infected := doc["infected"].([]interface{})
	require.Len(t, infected, 1)
	first := infected[0].(map[string]interface{})
	assert.Equal(t, "posthog-js", first["name"])
	assert.Equal(t, "1.297.3", first["version"])
	assert.Equal(t, "CRITICAL", first["severity"])
	assert.Equal(t, "direct", first["type"])
	assert.Equal(t, []interface{}{"1.297.3"}, first["infectedVersions"])

	warnings := doc["warnings"].([]interface{})
	require.Len(t, warnings, 1)
	assert.Equal(t, "^2.0.0", warnings[0].(map[string]interface{})["specifiedVersion"])

	assert.Equal(t, map[string]interface{}{
		"totalScanned":     float64(2),
		"criticalFindings": float64(1),
		"warnings":         float64(1),
		"isClean":          false,
	}, doc["summary"])
}

func TestGenerateJSONReport_EmptyListsAreArrays(t *testing.T) {
	data, err := GenerateJSONReport(scanner.State{ScanDate: scanTime})
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"scannedFiles": []`)
	assert.Contains(t, out, `"infected": []`)
	assert.Contains(t, out, `"warnings": []`)
	assert.Contains(t, out, `"isClean": true`)
}

func TestGenerateJSONReport_ParseErrors(t *testing.T) {
	s := scanner.NewSession(testRegistry(t))
	_ = s.ScanContent(lockfile.FormatNpmLock, "not json", "package-lock.json")

	report := BuildReport(s.State())
	require.Len(t, report.ParseErrors, 1)
	assert.Contains(t, report.ParseErrors[0], "package-lock.json")
}

func TestWriteTextReport_Critical(t *testing.T) {
	state := scanManifest(t, `{"dependencies": {"kill-port": "2.0.2", "posthog-js": "~1.0.0"}}`)

	var buf bytes.Buffer
	require.NoError(t, WriteTextReport(&buf, state, TextOptions{NoColor: true}))
	out := buf.String()

	assert.Contains(t, out, "Total packages scanned: 2")
	assert.Contains(t, out, "Critical findings: 1")
	assert.Contains(t, out, "Warnings: 1")
	assert.Contains(t, out, "  • kill-port@2.0.2\n    Type: direct dependency\n    Found in: package.json\n    Known infected versions: 2.0.2, 2.0.3\n")
	assert.Contains(t, out, "  • posthog-js@1.0.0\n")
	assert.Contains(t, out, "RECOMMENDED ACTIONS")
	assert.Contains(t, out, "2. Clear npm cache: npm cache clean --force")
	assert.Contains(t, out, "7. Check CI/CD pipelines for compromise")
	assert.NotContains(t, out, "\x1b[")

	critical := strings.Index(out, "CRITICAL - INFECTED PACKAGES FOUND")
	warnings := strings.Index(out, "WARNINGS - PACKAGES ON INFECTED LIST")
	actions := strings.Index(out, "RECOMMENDED ACTIONS")
	assert.True(t, critical < warnings && warnings < actions, "blocks out of order")
}

func TestWriteTextReport_WarningsOnly(t *testing.T) {
	state := scanManifest(t, `{"dependencies": {"bare-name": "1.0.0", "kill-port": "^2.0.0"}}`)

	var buf bytes.Buffer
	require.NoError(t, WriteTextReport(&buf, state, TextOptions{NoColor: true}))
	out := buf.String()

	assert.NotContains(t, out, "RECOMMENDED ACTIONS")
	assert.Contains(t, out, "Review warnings above")
	// bare names carry no version list
	assert.Contains(t, out, "  • bare-name@1.0.0\n    Type: direct dependency\n    Found in: package.json\n  • kill-port@2.0.0\n")
	assert.Contains(t, out, `Range "^2.0.0" may admit: 2.0.2, 2.0.3`)
}

func TestWriteTextReport_Clean(t *testing.T) {
	state := scanManifest(t, `{"dependencies": {"lodash": "^4.17.21"}}`)

	var buf bytes.Buffer
	require.NoError(t, WriteTextReport(&buf, state, TextOptions{NoColor: true}))
	assert.Contains(t, buf.String(), "No infected packages found! Your project appears clean.")
}

func TestWriteTextReport_Deterministic(t *testing.T) {
	state := scanManifest(t, `{"dependencies": {"kill-port": "2.0.2", "posthog-js": "1.0.0"}}`)

	var a, b bytes.Buffer
	require.NoError(t, WriteTextReport(&a, state, TextOptions{NoColor: true}))
	require.NoError(t, WriteTextReport(&b, state, TextOptions{NoColor: true}))
	assert.Equal(t, a.String(), b.String())
}

func TestWriteTextReport_ForceColor(t *testing.T) {
	state := scanManifest(t, `{"dependencies": {"kill-port": "2.0.2"}}`)

	var buf bytes.Buffer
	require.NoError(t, WriteTextReport(&buf, state, TextOptions{ForceColor: true}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestGenerateSarifReport(t *testing.T) {
	timeNow = func() time.Time { return scanTime.Add(time.Second) }
	t.Cleanup(func() { timeNow = time.Now })

	state := scanManifest(t, `{"dependencies": {"kill-port": "2.0.3", "@asyncapi/specs": ">=6.0.0 <7.0.0"}}`)

	data, err := GenerateSarifReport(state, "1.2.0")
	require.NoError(t, err)

	var report SarifReport
	require.NoError(t, json.Unmarshal(data, &report))

	assert.Equal(t, "2.1.0", report.Version)
	require.Len(t, report.Runs, 1)
	run := report.Runs[0]
	assert.Equal(t, "shaiscan", run.Tool.Driver.Name)
	assert.Equal(t, "1.2.0", run.Tool.Driver.Version)
	assert.Len(t, run.Tool.Driver.Rules, 2)

	require.Len(t, run.Results, 2)
	assert.Equal(t, "infected-version", run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Contains(t, run.Results[0].Message.Text, "kill-port@2.0.3 (direct dependency): exact infected version match")
	assert.Equal(t, "package.json", run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)

	assert.Equal(t, "infected-package", run.Results[1].RuleID)
	assert.Equal(t, "warning", run.Results[1].Level)
	assert.Equal(t, "6.8.2", run.Results[1].Properties["possibleMatches"])

	require.Len(t, run.Invocations, 1)
	assert.True(t, run.Invocations[0].ExecutionSuccessful)
	assert.Equal(t, "2025-11-24T09:30:00Z", run.Invocations[0].StartTimeUtc)
	assert.Equal(t, "2025-11-24T09:30:01Z", run.Invocations[0].EndTimeUtc)
}

func TestWriteKnownBadList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKnownBadList(&buf, testRegistry(t), TextOptions{NoColor: true}))

	want := `
Known Infected Packages (6 total):

@asyncapi/
  specs (6.8.2)
  diff (0.5.2)

@zapier/
  secret-scrubber (1.1.3)

[unscoped packages]
  bare-name
  kill-port (2.0.2, 2.0.3)
  posthog-js (1.297.3)
`
	assert.Equal(t, want, buf.String())
}

func TestWritePackageCheck(t *testing.T) {
	tests := []struct {
		name    string
		check   PackageCheck
		want    []string
		notWant []string
	}{
		{
			name:    "not flagged",
			check:   PackageCheck{Name: "lodash"},
			want:    []string{"lodash is NOT on the infected packages list"},
			notWant: []string{"Recommendation"},
		},
		{
			name:  "flagged name",
			check: PackageCheck{Name: "kill-port", Flagged: true, KnownBad: []string{"2.0.2", "2.0.3"}},
			want: []string{
				"WARNING: kill-port is on the infected packages list!",
				"Known infected versions: 2.0.2, 2.0.3",
				"Recommendation: Remove or update this package immediately.",
			},
		},
		{
			name: "exact version",
			check: PackageCheck{
				Name: "kill-port", Version: "2.0.2", Flagged: true, KnownBad: []string{"2.0.2", "2.0.3"},
				Finding: &scanner.Finding{Severity: scanner.SeverityCritical},
			},
			want: []string{"CRITICAL: kill-port@2.0.2 is a known infected version!"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePackageCheck(&buf, tt.check, TextOptions{NoColor: true}))
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}
