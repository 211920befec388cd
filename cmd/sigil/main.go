package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigil-ui/sigil/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔═╗╦╔═╗╦╦
  ╚═╗║║ ╦║║
  ╚═╝╩╚═╝╩╩═╝
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "sigil",
		Short: "Tooling for the sigil reactive runtime",
		Long: `Sigil is a fine-grained reactive runtime for Go.

The CLI provides project tooling around the runtime:

  • Benchmark a synthetic entity workload
  • Serve the development inspector and metrics endpoints
  • Scaffold a sigil.json project configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		initCmd(),
		benchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the sigil ASCII art banner.
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

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
