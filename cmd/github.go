package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sambabib/shaiscan/pkg/fetch"
)

var githubModes modeFlags

// githubCmd represents the github subcommand
var githubCmd = &cobra.Command{
	Use:   "github <owner/repo[@branch] | url>",
	Short: "Scan a GitHub repository",
	Long: `Fetch package.json and lockfiles from a GitHub repository and scan them.

The repository's default branch is used unless one is given as owner/repo@branch
or in a /tree/<branch> URL.`,
	Example: `  shaiscan github vercel/next.js
  shaiscan github https://github.com/owner/repo/tree/develop --all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		client := fetch.NewGitHubClient(cfg.RequestTimeout())
		client.APIURL = cfg.Registries.GitHubAPI
		client.RawURL = cfg.Registries.GitHubRaw

		repo, sources, err := client.FetchRepository(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		session := newSession(cfg, reg)
		if err := session.Scan(sources, githubModes.mode()); err != nil {
			return fmt.Errorf("%w in %s", err, repo.URL())
		}
		return writeReport(cmd, rs, session.State())
	},
}

func init() {
	rootCmd.AddCommand(githubCmd)
	githubModes.register(githubCmd)
	addReportFlags(githubCmd)
}
