package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/xccelera/voicegate/internal/httpc"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the current job record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := http.NewRequest("GET", serverURL+"/jobs/"+args[0], nil)
		if err != nil {
			return err
		}
		return doJSON(req)
	},
}

var audioOut string

var audioCmd = &cobra.Command{
	Use:   "audio <job-id>",
	Short: "Download the synthesized reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := httpc.Client.Get(serverURL + "/jobs/" + args[0] + "/audio")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
		}

		f, err := os.Create(audioOut)
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := io.Copy(f, resp.Body)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d bytes to %s\n", n, audioOut)
		return nil
	},
}

func init() {
	audioCmd.Flags().StringVarP(&audioOut, "out", "o", "output.wav", "output file")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(audioCmd)
}
