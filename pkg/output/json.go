package output

import (
	"encoding/json"
	"time"

	"github.com/sambabib/shaiscan/pkg/scanner"
)

// Summary condenses a scan into counts.
type Summary struct {
	TotalScanned     int  `json:"totalScanned"`
	CriticalFindings int  `json:"criticalFindings"`
	Warnings         int  `json:"warnings"`
	IsClean          bool `json:"isClean"`
}

// Summarize derives the summary of a scan. A scan is clean only when it has
// neither critical findings nor warnings.
func Summarize(state scanner.State) Summary {
	return Summary{
		TotalScanned:     state.TotalPackages,
		CriticalFindings: len(state.Infected),
		Warnings:         len(state.Warnings),
		IsClean:          len(state.Infected) == 0 && len(state.Warnings) == 0,
	}
}

// Report is the machine-readable form of a scan.
type Report struct {
	ScannedFiles  []string          `json:"scannedFiles"`
	TotalPackages int               `json:"totalPackages"`
	Infected      []scanner.Finding `json:"infected"`
	Warnings      []scanner.Finding `json:"warnings"`
	ParseErrors   []string          `json:"parseErrors,omitempty"`
	ScanDate      string            `json:"scanDate"`
	Summary       Summary           `json:"summary"`
}

const scanDateLayout = "2006-01-02T15:04:05.000Z07:00"

// BuildReport converts a session state into a Report. Empty lists are kept as
// empty arrays rather than null.
func BuildReport(state scanner.State) Report {
	r := Report{
		ScannedFiles:  nonNil(state.ScannedFiles),
		TotalPackages: state.TotalPackages,
		Infected:      state.Infected,
		Warnings:      state.Warnings,
		ScanDate:      state.ScanDate.UTC().Format(scanDateLayout),
		Summary:       Summarize(state),
	}
	if r.Infected == nil {
		r.Infected = []scanner.Finding{}
	}
	if r.Warnings == nil {
		r.Warnings = []scanner.Finding{}
	}
	for _, perr := range state.ParseErrors {
		r.ParseErrors = append(r.ParseErrors, perr.Error())
	}
	return r
}

// GenerateJSONReport renders a session state as indented JSON.
func GenerateJSONReport(state scanner.State) ([]byte, error) {
	return json.MarshalIndent(BuildReport(state), "", "  ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// timeNow is replaced in tests.
var timeNow = time.Now

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
