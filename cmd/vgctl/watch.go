package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Tail live status events until the job finishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wsURL, err := streamURL(serverURL, args[0])
		if err != nil {
			return err
		}

		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			return fmt.Errorf("connect %s: %w", wsURL, err)
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					return nil
				}
				return err
			}

			var ev struct {
				JobID  string `json:"job_id"`
				Status string `json:"status"`
				Detail string `json:"detail"`
				Error  string `json:"error"`
			}
			if err := json.Unmarshal(data, &ev); err != nil {
				fmt.Println(string(data))
				continue
			}
			if ev.Error != "" {
				return fmt.Errorf("%s", ev.Error)
			}

			if ev.Detail != "" {
				fmt.Printf("%s  %s (%s)\n", ev.JobID, ev.Status, ev.Detail)
			} else {
				fmt.Printf("%s  %s\n", ev.JobID, ev.Status)
			}

			if ev.Status == "completed" || ev.Status == "failed" {
				return nil
			}
		}
	},
}

// streamURL converts the HTTP base URL to the job's websocket endpoint.
func streamURL(base, jobID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/jobs/" + jobID
	return u.String(), nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
