// Package main provides vgctl, the operator CLI for a running voicegate
// gateway: submit recordings or text, inspect jobs, download audio, and
// tail live status events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "vgctl",
	Short: "Voicegate gateway client",
	Long:  "vgctl talks to a running voicegate gateway: submit recordings or text questions, inspect job state, download synthesized audio, and tail live status events.",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "gateway base URL")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
