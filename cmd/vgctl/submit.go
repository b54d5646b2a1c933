package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xccelera/voicegate/internal/httpc"
)

var submitTopK int

var submitCmd = &cobra.Command{
	Use:   "submit <file.wav>",
	Short: "Submit a recorded question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		audio, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filepath.Base(args[0]))
		if err != nil {
			return err
		}
		if _, err := part.Write(audio); err != nil {
			return err
		}
		if err := mw.WriteField("top_k", strconv.Itoa(submitTopK)); err != nil {
			return err
		}
		if err := mw.Close(); err != nil {
			return err
		}

		req, err := http.NewRequest("POST", serverURL+"/agent/voice", &buf)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())

		return doJSON(req)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Submit a text question, skipping transcription",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := json.Marshal(map[string]any{
			"text":  strings.Join(args, " "),
			"top_k": submitTopK,
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequest("POST", serverURL+"/agent/text", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		return doJSON(req)
	},
}

// doJSON performs the request and pretty-prints the JSON response.
func doJSON(req *http.Request) error {
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func init() {
	submitCmd.Flags().IntVar(&submitTopK, "top-k", 5, "retrieval depth")
	askCmd.Flags().IntVar(&submitTopK, "top-k", 5, "retrieval depth")
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(askCmd)
}
