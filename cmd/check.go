package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sambabib/shaiscan/pkg/fetch"
	"github.com/sambabib/shaiscan/pkg/lockfile"
	"github.com/sambabib/shaiscan/pkg/output"
)

// checkCmd represents the check subcommand
var checkCmd = &cobra.Command{
	Use:   "check <name[@version]>",
	Short: "Check whether a single package is on the infected list",
	Long: `Check whether a package is on the infected list. With a version or range the
package is classified the same way a scan would classify it.

Exits with status 1 when the package is on the list.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, version, err := fetch.ParseNpmPackageInput(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig(".")
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		check := output.PackageCheck{
			Name:     name,
			Version:  version,
			Flagged:  reg.IsFlagged(name),
			KnownBad: reg.KnownBadVersions(name),
		}
		if check.Flagged && version != "" {
			session := newSession(cfg, reg)
			session.CheckPackage(name, version, lockfile.Direct)
			st := session.State()
			switch {
			case len(st.Infected) > 0:
				check.Finding = &st.Infected[0]
			case len(st.Warnings) > 0:
				check.Finding = &st.Warnings[0]
			}
		}

		if err := output.WritePackageCheck(cmd.OutOrStdout(), check, textOptions()); err != nil {
			return err
		}
		if check.Flagged {
			return errFlagged
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
