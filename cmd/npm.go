package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sambabib/shaiscan/pkg/fetch"
	"github.com/sambabib/shaiscan/pkg/lockfile"
)

// npmCmd represents the npm subcommand
var npmCmd = &cobra.Command{
	Use:   "npm <name[@version]>",
	Short: "Scan the dependencies of a published npm package",
	Long: `Fetch the manifest of a published npm package from the registry and scan its
declared dependencies. The latest version is used unless one is given.`,
	Example: `  shaiscan npm posthog-node
  shaiscan npm @asyncapi/specs@6.8.2 --json`,
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
		rs, err := resolveReport(cfg)
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		client := fetch.NewNpmClient(cfg.Registries.Npm, cfg.RequestTimeout())
		info, manifest, err := client.FetchPackage(cmd.Context(), name, version)
		if err != nil {
			return err
		}

		session := newSession(cfg, reg)
		label := fmt.Sprintf("npm:%s@%s", info.Name, info.Version)
		// the manifest is generated from decoded JSON, so it always parses
		_ = session.ScanContent(lockfile.FormatManifest, manifest, label)
		return writeReport(cmd, rs, session.State())
	},
}

func init() {
	rootCmd.AddCommand(npmCmd)
	addReportFlags(npmCmd)
}
