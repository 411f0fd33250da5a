package cmd

import (
	"fmt"
	"log"
	"os"

	"tunecast/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tunecast",
	Short: "tunecast turns track ids into locally streamable HLS audio.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting tunecast server...")
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
