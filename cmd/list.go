package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sambabib/shaiscan/pkg/output"
)

// listCmd represents the list subcommand
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the known infected packages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(".")
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		return output.WriteKnownBadList(cmd.OutOrStdout(), reg, textOptions())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
