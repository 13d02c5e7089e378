package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"musicify/server"
)

var rootCmd = &cobra.Command{
	Use:   "musicify",
	Short: "Musicify analyzes audio into chords and tablature.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
