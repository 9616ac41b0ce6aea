package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sambabib/shaiscan/pkg/scanner"
)

// SARIF format specification: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

// SarifReport represents the top-level SARIF report structure
type SarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SarifRun `json:"runs"`
}

// SarifRun represents a single run of the analysis tool
type SarifRun struct {
	Tool        SarifTool         `json:"tool"`
	Results     []SarifResult     `json:"results"`
	Invocations []SarifInvocation `json:"invocations"`
}

// SarifTool represents the tool that performed the analysis
type SarifTool struct {
	Driver SarifDriver `json:"driver"`
}

// SarifDriver represents the driver of the tool
type SarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []SarifRule `json:"rules"`
}

// SarifRule represents a rule that was evaluated during the analysis
type SarifRule struct {
	ID               string       `json:"id"`
	ShortDescription SarifMessage `json:"shortDescription"`
	FullDescription  SarifMessage `json:"fullDescription"`
	Help             SarifMessage `json:"help"`
}

// SarifResult represents a result of the analysis
type SarifResult struct {
	RuleID     string            `json:"ruleId"`
	Level      string            `json:"level"`
	Message    SarifMessage      `json:"message"`
	Locations  []SarifLocation   `json:"locations"`
	Properties map[string]string `json:"properties,omitempty"`
}

// SarifMessage represents a message in the SARIF report
type SarifMessage struct {
	Text string `json:"text"`
}

// SarifLocation represents a location in the code
type SarifLocation struct {
	PhysicalLocation SarifPhysicalLocation `json:"physicalLocation"`
}

// SarifPhysicalLocation represents a physical location in the code
type SarifPhysicalLocation struct {
	ArtifactLocation SarifArtifactLocation `json:"artifactLocation"`
}

// SarifArtifactLocation represents the location of an artifact
type SarifArtifactLocation struct {
	URI string `json:"uri"`
}

// SarifInvocation represents an invocation of the tool
type SarifInvocation struct {
	ExecutionSuccessful bool   `json:"executionSuccessful"`
	StartTimeUtc        string `json:"startTimeUtc"`
	EndTimeUtc          string `json:"endTimeUtc"`
}

const (
	ruleInfectedVersion = "infected-version"
	ruleInfectedPackage = "infected-package"
)

var sarifRules = []SarifRule{
	{
		ID:               ruleInfectedVersion,
		ShortDescription: SarifMessage{Text: "Compromised package version"},
		FullDescription:  SarifMessage{Text: "The dependency resolves to a version known to carry the Shai-Hulud 2 payload."},
		Help:             SarifMessage{Text: "Remove or update the package, reinstall from a clean cache and rotate any exposed credentials."},
	},
	{
		ID:               ruleInfectedPackage,
		ShortDescription: SarifMessage{Text: "Package on the infected list"},
		FullDescription:  SarifMessage{Text: "The dependency is on the known-bad list but its version could not be matched exactly."},
		Help:             SarifMessage{Text: "Verify the installed version against the known infected versions."},
	},
}

// GenerateSarifReport converts a session state to SARIF. Findings without a
// source are attributed to package.json.
func GenerateSarifReport(state scanner.State, toolVersion string) ([]byte, error) {
	results := make([]SarifResult, 0, len(state.Infected)+len(state.Warnings))
	for _, f := range state.Infected {
		results = append(results, sarifResult(f, ruleInfectedVersion, "error"))
	}
	for _, f := range state.Warnings {
		results = append(results, sarifResult(f, ruleInfectedPackage, "warning"))
	}

	started := state.ScanDate.UTC()
	report := SarifReport{
		Schema:  "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json",
		Version: "2.1.0",
		Runs: []SarifRun{
			{
				Tool: SarifTool{
					Driver: SarifDriver{
						Name:           "shaiscan",
						Version:        toolVersion,
						InformationURI: "https://github.com/sambabib/shaiscan",
						Rules:          sarifRules,
					},
				},
				Results: results,
				Invocations: []SarifInvocation{
					{
						ExecutionSuccessful: len(state.ParseErrors) == 0,
						StartTimeUtc:        formatTimestamp(started),
						EndTimeUtc:          formatTimestamp(timeNow()),
					},
				},
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

func sarifResult(f scanner.Finding, ruleID, level string) SarifResult {
	text := fmt.Sprintf("%s@%s (%s dependency): %s", f.Name, f.SpecifiedVersion, f.Type, f.Message)
	if len(f.InfectedVersions) > 0 {
		text += fmt.Sprintf(". Known infected versions: %s", strings.Join(f.InfectedVersions, ", "))
	}

	uri := f.Source
	if uri == "" {
		uri = "package.json"
	}

	props := map[string]string{
		"package":         f.Name,
		"resolvedVersion": f.Version,
	}
	if len(f.PossibleMatches) > 0 {
		props["possibleMatches"] = strings.Join(f.PossibleMatches, ", ")
	}

	return SarifResult{
		RuleID:  ruleID,
		Level:   level,
		Message: SarifMessage{Text: text},
		Locations: []SarifLocation{
			{
				PhysicalLocation: SarifPhysicalLocation{
					ArtifactLocation: SarifArtifactLocation{URI: uri},
				},
			},
		},
		Properties: props,
	}
}
