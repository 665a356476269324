package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newVersionCommand(out io.Writer, build BuildInfo) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(build)
			}
			_, err := fmt.Fprintf(out, "%s (commit: %s, built: %s)\n", build.Version, build.Commit, build.Date)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print version as JSON")
	return cmd
}
