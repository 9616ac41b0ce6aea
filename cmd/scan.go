package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sambabib/shaiscan/pkg/fetch"
)

var scanModes modeFlags

// scanCmd represents the scan subcommand
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a local project",
	Long: `Scan the package.json and lockfiles of a local project directory.

By default only package.json is scanned. Use --lock, --npm, --yarn, --pnpm or
--all to scan lockfiles, which also cover transitive dependencies.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		dir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}

		cfg, err := loadConfig(dir)
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

		sources, err := fetch.ReadProjectDir(dir)
		if err != nil {
			return err
		}

		session := newSession(cfg, reg)
		if err := session.Scan(sources, scanModes.mode()); err != nil {
			return fmt.Errorf("%w in %s", err, dir)
		}
		return writeReport(cmd, rs, session.State())
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanModes.register(scanCmd)
	addReportFlags(scanCmd)
}
