// Package cli wires the zi2anki commands. Commands write to the
// injected writer so tests can capture output without touching
// process-global state.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// BuildInfo carries the build metadata injected via ldflags.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// NewRootCommand constructs the zi2anki root command with all
// subcommands registered.
func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "zi2anki",
		Short:         "Build Anki decks from Chinese vocabulary CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}
	cmd.SetVersionTemplate("{{ .Version }}\n")
	cmd.SetOut(out)
	cmd.SetErr(out)

	cmd.AddCommand(newGenerateCommand(out, build))
	cmd.AddCommand(newServeCommand(build))
	cmd.AddCommand(newValidateCommand(out))
	cmd.AddCommand(newHealthcheckCommand(out))
	cmd.AddCommand(newVersionCommand(out, build))
	cmd.InitDefaultCompletionCmd()
	return cmd
}
