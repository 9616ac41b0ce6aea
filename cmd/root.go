package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sambabib/shaiscan/pkg/logger"
)

// Version is set during build using ldflags
var Version = "dev"

// Exit statuses.
const (
	ExitClean    = 0
	ExitInfected = 1
	ExitError    = 2
)

var (
	cfgFile      string
	verbose      bool
	quiet        bool
	jsonOutput   bool
	noColor      bool
	outputFormat string
	outputFile   string
)

// errFlagged is returned by commands whose result warrants a non-zero exit
// without an error message.
var errFlagged = errors.New("flagged packages found")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shaiscan",
	Short: "Scans npm projects for packages compromised by Shai-Hulud 2",
	Long: `shaiscan checks package.json and npm, Yarn and pnpm lockfiles against a list of
package versions known to be compromised by the Shai-Hulud 2 supply-chain attack.

Local directories, GitHub repositories and published npm packages can be scanned.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
		logger.SetQuiet(quiet)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .shaiscan.yaml in the project or a parent directory)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print the text report when infected packages are found")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	err := rootCmd.Execute()
	switch {
	case err == nil:
		return ExitClean
	case errors.Is(err, errFlagged):
		return ExitInfected
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return ExitError
	}
}
