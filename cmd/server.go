package cmd

import (
	"github.com/spf13/cobra"

	"musicify/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Musicify HTTP server",
	Long:  `Start the Musicify HTTP server, serving the analysis API and stored audio files.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
