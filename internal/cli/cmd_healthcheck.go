package cli

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ManuGH/zi2anki/internal/platform/httpx"
	"github.com/spf13/cobra"
)

// newHealthcheckCommand probes a locally running daemon. Container
// images use it as their HEALTHCHECK so no curl is needed in the image.
func newHealthcheckCommand(out io.Writer) *cobra.Command {
	var (
		mode    string
		port    int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running daemon (liveness or readiness)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealthcheck(out, mode, port, timeout)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "ready", "check mode: ready or live")
	cmd.Flags().IntVar(&port, "port", 8080, "API port to probe")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "probe timeout")
	return cmd
}

func runHealthcheck(out io.Writer, mode string, port int, timeout time.Duration) error {
	var path string
	switch mode {
	case "ready":
		path = "/readyz"
	case "live":
		path = "/healthz"
	default:
		return fmt.Errorf("invalid mode %q (want ready or live)", mode)
	}

	url := fmt.Sprintf("http://localhost:%d%s", port, path)
	client := httpx.NewClient(timeout)
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck failed: %s returned %s", path, resp.Status)
	}
	fmt.Fprintf(out, "ok (%s)\n", path)
	return nil
}
