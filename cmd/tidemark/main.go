package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tidemarkdb/tidemark/utils/log"
)

// Version is stamped by the build.
var Version = "dev"

// flagPrintVersion set flag to show the current tidemark version.
var flagPrintVersion bool

func main() {
	// c is the root command.
	c := &cobra.Command{
		Use: "tidemark",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Print version if specified.
			if flagPrintVersion {
				log.Info("version: %s", Version)
				return nil
			}
			// Print information regarding usage.
			return cmd.Usage()
		},
	}

	c.AddCommand(replayCmd)
	c.AddCommand(inspectCmd)
	c.Flags().BoolVarP(&flagPrintVersion, "version", "v", false, "show the version info and exit")

	if err := c.Execute(); err != nil {
		os.Exit(1)
	}
}
