package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sambabib/shaiscan/pkg/config"
	"github.com/sambabib/shaiscan/pkg/logger"
	"github.com/sambabib/shaiscan/pkg/output"
	"github.com/sambabib/shaiscan/pkg/registry"
	"github.com/sambabib/shaiscan/pkg/scanner"
)

// modeFlags select which sources the scan and github commands read.
type modeFlags struct {
	lock, npm, yarn, pnpm, all bool
}

func (m *modeFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&m.lock, "lock", "l", false, "Scan the first lockfile found (package-lock.json, yarn.lock, pnpm-lock.yaml)")
	cmd.Flags().BoolVar(&m.npm, "npm", false, "Scan package-lock.json")
	cmd.Flags().BoolVar(&m.yarn, "yarn", false, "Scan yarn.lock")
	cmd.Flags().BoolVar(&m.pnpm, "pnpm", false, "Scan pnpm-lock.yaml")
	cmd.Flags().BoolVarP(&m.all, "all", "a", false, "Scan package.json and every lockfile found")
	cmd.MarkFlagsMutuallyExclusive("lock", "npm", "yarn", "pnpm", "all")
}

func (m *modeFlags) mode() scanner.Mode {
	switch {
	case m.lock:
		return scanner.ModeAutoLock
	case m.npm:
		return scanner.ModeNpmLock
	case m.yarn:
		return scanner.ModeYarnLock
	case m.pnpm:
		return scanner.ModePnpmLock
	case m.all:
		return scanner.ModeAll
	default:
		return scanner.ModeManifest
	}
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output JSON (same as --format json)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: text, json or sarif (default from config, else text)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report to a file instead of stdout")
}

// loadConfig reads --config when given, otherwise the nearest .shaiscan.yaml
// at or above dir.
func loadConfig(dir string) (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadConfig(cfgFile)
	}
	return config.FindAndLoadConfig(dir)
}

// loadRegistry returns the built-in registry merged with the configured
// extra list, if any.
func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg := registry.Default()
	if cfg.KnownBadList == "" {
		return reg, nil
	}
	extra, err := registry.LoadFile(cfg.KnownBadList)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Loaded %d extra known-bad packages from %s", extra.Len(), cfg.KnownBadList)
	return reg.Merge(extra), nil
}

type reportSettings struct {
	format string
	file   string
}

// resolveReport picks the output format and destination from flags and
// config, and silences informational logging for machine-readable formats.
func resolveReport(cfg *config.Config) (reportSettings, error) {
	rs := reportSettings{format: cfg.Output.Format, file: cfg.Output.File}
	if outputFormat != "" {
		rs.format = outputFormat
	}
	if jsonOutput {
		rs.format = "json"
	}
	if outputFile != "" {
		rs.file = outputFile
	}
	switch rs.format {
	case "text", "json", "sarif":
	default:
		return rs, fmt.Errorf("unknown output format %q (expected text, json or sarif)", rs.format)
	}
	if rs.format != "text" && rs.file == "" {
		logger.SetQuiet(true)
	}
	return rs, nil
}

func textOptions() output.TextOptions {
	return output.TextOptions{NoColor: noColor}
}

func newSession(cfg *config.Config, reg *registry.Registry) *scanner.Session {
	return scanner.NewSession(reg, scanner.WithIgnore(cfg.IsPackageIgnored))
}

// writeReport renders the session state and returns errFlagged when it holds
// critical findings. With --quiet a text report to stdout is only printed when
// something critical was found.
func writeReport(cmd *cobra.Command, rs reportSettings, state scanner.State) error {
	render := func(w io.Writer) error {
		switch rs.format {
		case "json":
			return writeBytes(w, func() ([]byte, error) { return output.GenerateJSONReport(state) })
		case "sarif":
			return writeBytes(w, func() ([]byte, error) { return output.GenerateSarifReport(state, Version) })
		default:
			return output.WriteTextReport(w, state, textOptions())
		}
	}

	switch {
	case rs.file != "":
		f, err := os.Create(rs.file)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		if err := writeAndClose(f, render); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Infof("Report written to %s", rs.file)
	case quiet && rs.format == "text" && len(state.Infected) == 0:
		// nothing worth printing
	default:
		if err := render(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if len(state.Infected) > 0 {
		return errFlagged
	}
	return nil
}

// writeAndClose renders into wc and closes it, reporting the close error when
// rendering succeeded.
func writeAndClose(wc io.WriteCloser, render func(io.Writer) error) error {
	if err := render(wc); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

func writeBytes(w io.Writer, generate func() ([]byte, error)) error {
	data, err := generate()
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
