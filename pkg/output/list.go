package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sambabib/shaiscan/pkg/registry"
	"github.com/sambabib/shaiscan/pkg/scanner"
)

// WriteKnownBadList prints every flagged package grouped by scope. Scopes are
// sorted and keep registry order inside each scope; unscoped packages follow,
// sorted by name.
func WriteKnownBadList(w io.Writer, reg *registry.Registry, opts TextOptions) error {
	p := newPalette(w, opts)
	var b strings.Builder

	names := reg.Names()
	fmt.Fprintf(&b, "\n%s\n", p.bold.Render(fmt.Sprintf("Known Infected Packages (%d total):", len(names))))

	scoped := make(map[string][]string)
	var scopes, unscoped []string
	for _, name := range names {
		if !strings.HasPrefix(name, "@") {
			unscoped = append(unscoped, name)
			continue
		}
		scope, _, _ := strings.Cut(name, "/")
		if _, ok := scoped[scope]; !ok {
			scopes = append(scopes, scope)
		}
		scoped[scope] = append(scoped[scope], name)
	}
	sort.Strings(scopes)
	sort.Strings(unscoped)

	versions := func(name string) string {
		vs := reg.KnownBadVersions(name)
		if len(vs) == 0 {
			return ""
		}
		return " " + p.red.Render("("+strings.Join(vs, ", ")+")")
	}

	for _, scope := range scopes {
		fmt.Fprintf(&b, "\n%s\n", p.cyan.Render(scope+"/"))
		for _, name := range scoped[scope] {
			_, short, _ := strings.Cut(name, "/")
			fmt.Fprintf(&b, "  %s%s\n", short, versions(name))
		}
	}

	fmt.Fprintf(&b, "\n%s\n", p.cyan.Render("[unscoped packages]"))
	for _, name := range unscoped {
		fmt.Fprintf(&b, "  %s%s\n", name, versions(name))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// PackageCheck is the outcome of looking up a single package.
type PackageCheck struct {
	Name     string
	Version  string // empty when only the name was checked
	Flagged  bool
	KnownBad []string

	// Finding is set when a version was given and the package is flagged.
	Finding *scanner.Finding
}

// WritePackageCheck prints the verdict for a single package lookup.
func WritePackageCheck(w io.Writer, c PackageCheck, opts TextOptions) error {
	p := newPalette(w, opts)
	var b strings.Builder

	id := c.Name
	if c.Version != "" {
		id += "@" + c.Version
	}

	if !c.Flagged {
		fmt.Fprintf(&b, "\n%s\n\n", p.green.Render(fmt.Sprintf("✅ %s is NOT on the infected packages list.", c.Name)))
		_, err := io.WriteString(w, b.String())
		return err
	}

	switch {
	case c.Finding != nil && c.Finding.Severity == scanner.SeverityCritical:
		fmt.Fprintf(&b, "\n%s\n\n", p.red.Render(fmt.Sprintf("🚨 CRITICAL: %s is a known infected version!", id)))
	default:
		fmt.Fprintf(&b, "\n%s\n\n", p.red.Render(fmt.Sprintf("⚠️  WARNING: %s is on the infected packages list!", c.Name)))
	}
	if len(c.KnownBad) > 0 {
		fmt.Fprintf(&b, "Known infected versions: %s\n", p.red.Render(strings.Join(c.KnownBad, ", ")))
	}
	if c.Finding != nil && len(c.Finding.PossibleMatches) > 0 {
		fmt.Fprintf(&b, "Range %q may admit: %s\n", c.Version, strings.Join(c.Finding.PossibleMatches, ", "))
	}
	fmt.Fprintf(&b, "\n%s Remove or update this package immediately.\n", p.yellow.Render("Recommendation:"))

	_, err := io.WriteString(w, b.String())
	return err
}
