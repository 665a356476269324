// SPDX-License-Identifier: MIT

// Command zi2anki builds Anki .apkg decks from Chinese vocabulary CSV
// files, either one-shot or as a daemon with an HTTP API.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ManuGH/zi2anki/internal/cli"
	"github.com/ManuGH/zi2anki/internal/version"
)

func main() {
	cmd := cli.NewRootCommand(os.Stdout, cli.BuildInfo{
		Version: version.Version,
		Commit:  version.Commit,
		Date:    version.Date,
	})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var withExitCode interface{ ExitCode() int }
		if errors.As(err, &withExitCode) {
			os.Exit(withExitCode.ExitCode())
		}
		os.Exit(1)
	}
}
