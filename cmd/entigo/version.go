package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version is overridden by ldflags at release build time.
	Version = "0.1.0"
	// Commit is the git revision the binary was built from (optional ldflag).
	Commit = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		if Commit != "" {
			fmt.Printf("entigo version %s (%s)\n", Version, Commit)
			return
		}

		fmt.Printf("entigo version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
