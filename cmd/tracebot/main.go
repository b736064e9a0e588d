package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracebot-dev/tracebot/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:   "tracebot",
		Short: "Matrix bot for reverse anime scene search backed by trace.moe",
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Connect to the configured homeserver and answer !trace commands",
			Run:   func(*cobra.Command, []string) { runServe() },
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run:   func(*cobra.Command, []string) { fmt.Println(version.GetInfo()) },
		},
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
