package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/sambabib/shaiscan/pkg/scanner"
)

// TextOptions controls human-readable rendering.
type TextOptions struct {
	// NoColor disables all styling.
	NoColor bool
	// ForceColor styles output even when the writer is not a terminal.
	ForceColor bool
}

type palette struct {
	bold   lipgloss.Style
	red    lipgloss.Style
	yellow lipgloss.Style
	green  lipgloss.Style
	cyan   lipgloss.Style
}

// newPalette builds styles bound to w, so color detection follows the writer
// the report goes to rather than stdout.
func newPalette(w io.Writer, opts TextOptions) palette {
	r := lipgloss.NewRenderer(w)
	switch {
	case opts.NoColor:
		r.SetColorProfile(termenv.Ascii)
	case opts.ForceColor:
		r.SetColorProfile(termenv.ANSI)
	}
	return palette{
		bold:   r.NewStyle().Bold(true),
		red:    r.NewStyle().Foreground(lipgloss.Color("1")),
		yellow: r.NewStyle().Foreground(lipgloss.Color("3")),
		green:  r.NewStyle().Foreground(lipgloss.Color("2")),
		cyan:   r.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

func (p palette) count(n int, nonZero lipgloss.Style) string {
	if n > 0 {
		return nonZero.Render(fmt.Sprint(n))
	}
	return p.green.Render(fmt.Sprint(n))
}

var rule = strings.Repeat("═", 60)

// WriteTextReport renders the scan for a terminal: the summary counts, then
// critical findings, then warnings, then either remediation steps or a clean
// verdict.
func WriteTextReport(w io.Writer, state scanner.State, opts TextOptions) error {
	p := newPalette(w, opts)
	sum := Summarize(state)
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n%s\n%s\n", rule, p.bold.Render(" SCAN RESULTS"), rule)
	fmt.Fprintf(&b, "Total packages scanned: %d\n", sum.TotalScanned)
	fmt.Fprintf(&b, "Critical findings: %s\n", p.count(sum.CriticalFindings, p.red))
	fmt.Fprintf(&b, "Warnings: %s\n", p.count(sum.Warnings, p.yellow))

	if len(state.ParseErrors) > 0 {
		fmt.Fprintf(&b, "\n%s\n", p.yellow.Render("Sources that could not be parsed:"))
		for _, perr := range state.ParseErrors {
			fmt.Fprintf(&b, "  - %v\n", perr)
		}
	}

	if len(state.Infected) > 0 {
		fmt.Fprintf(&b, "\n%s\n\n", p.red.Render("🚨 CRITICAL - INFECTED PACKAGES FOUND:"))
		for _, f := range state.Infected {
			writeFinding(&b, f, p.red)
		}
	}

	if len(state.Warnings) > 0 {
		fmt.Fprintf(&b, "\n%s\n\n", p.yellow.Render("⚠️  WARNINGS - PACKAGES ON INFECTED LIST:"))
		for _, f := range state.Warnings {
			writeFinding(&b, f, p.yellow)
		}
	}

	switch {
	case sum.CriticalFindings > 0:
		writeRemediation(&b, p)
	case sum.IsClean:
		fmt.Fprintf(&b, "\n%s\n\n", p.green.Render("✅ No infected packages found! Your project appears clean."))
	default:
		fmt.Fprintf(&b, "\n%s\n\n", p.yellow.Render("⚠️  Review warnings above. Verify you are not using infected versions."))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFinding(b *strings.Builder, f scanner.Finding, accent lipgloss.Style) {
	fmt.Fprintf(b, "%s\n", accent.Render(fmt.Sprintf("  • %s@%s", f.Name, f.Version)))
	fmt.Fprintf(b, "    Type: %s dependency\n", f.Type)
	if f.Source != "" {
		fmt.Fprintf(b, "    Found in: %s\n", f.Source)
	}
	if f.Severity == scanner.SeverityCritical || len(f.InfectedVersions) > 0 {
		fmt.Fprintf(b, "    Known infected versions: %s\n", strings.Join(f.InfectedVersions, ", "))
	}
	if len(f.PossibleMatches) > 0 {
		fmt.Fprintf(b, "    Range %q may admit: %s\n", f.SpecifiedVersion, strings.Join(f.PossibleMatches, ", "))
	}
}

func writeRemediation(b *strings.Builder, p palette) {
	fmt.Fprintf(b, "\n%s\n%s\n%s\n\n", p.red.Render(rule), p.bold.Render(" 🛡️  RECOMMENDED ACTIONS"), rule)
	fmt.Fprintf(b, "1. %s remove or update affected packages\n", p.bold.Render("IMMEDIATELY"))
	fmt.Fprintf(b, "2. Clear npm cache: %s\n", p.cyan.Render("npm cache clean --force"))
	fmt.Fprintf(b, "3. Delete node_modules: %s\n", p.cyan.Render("rm -rf node_modules"))
	fmt.Fprintf(b, "4. Reinstall dependencies: %s\n", p.cyan.Render("npm install"))
	fmt.Fprintf(b, "5. %s Rotate any secrets/credentials that may have been exposed\n", p.yellow.Render("IMPORTANT:"))
	b.WriteString("6. Audit your systems for suspicious activity\n")
	b.WriteString("7. Check CI/CD pipelines for compromise\n\n")
}
