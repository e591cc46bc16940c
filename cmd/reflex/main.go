package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌─┐┬  ┌─┐─┐ ┬
  ├┬┘├┤ ├┤ │  ├┤ ┌┴┬┘
  ┴└─└─┘└  ┴─┘└─┘┴ └─
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "reflex",
		Short: "Reactive dependency-tracking runtime for Go",
		Long: `Reflex is a reactive cell-and-observer runtime for Go.

Cells hold values, derived nodes compute from them lazily, and
observers re-run automatically when anything they read changes.
Dependencies are discovered at runtime, with no manual
subscription wiring. Features include:

  • Automatic fine-grained dependency tracking
  • Lazy cached derived computations
  • Deduplicated flush scheduling
  • Timer-driven re-execution and external polling
  • Prometheus metrics and OpenTelemetry tracing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		demoCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// printBanner prints the Reflex ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
