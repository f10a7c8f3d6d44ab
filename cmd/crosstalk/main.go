package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	xerrors "github.com/crosstalk-rpc/crosstalk/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗┬─┐┌─┐┌─┐┌─┐┌┬┐┌─┐┬  ┬┌─
  ║  ├┬┘│ │└─┐└─┐ │ ├─┤│  ├┴┐
  ╚═╝┴└─└─┘└─┘└─┘ ┴ ┴ ┴┴─┘┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "crosstalk",
		Short: "Bidirectional RPC over WebSocket",
		Long: `Crosstalk is a bidirectional RPC system over WebSocket.

Both sides of a connection can call methods on the other and send
fire-and-forget messages. Features include:

  • Request/response with correlation ids and timeouts
  • Fire-and-forget publishes
  • Automatic client reconnection with health probing
  • TLS with self-signed fallback for development
  • Prometheus metrics and OpenTelemetry tracing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(
		serveCmd(),
		callCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		var coded *xerrors.Error
		if errors.As(err, &coded) {
			fmt.Fprint(os.Stderr, coded.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// printBanner prints the Crosstalk ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
