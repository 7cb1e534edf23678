package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var apiBase string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "drugverify: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drugverify",
		Short: "Drug verification ops CLI",
		Long: `drugverify submits packaging photos to a running verification API and
fetches stored verification records.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&apiBase, "api", "http://localhost:8080", "Base URL of the verification API")
	cmd.AddCommand(
		newVerifyCmd(),
		newRecordCmd(),
		newRecordsCmd(),
	)
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var number string
	cmd := &cobra.Command{
		Use:   "verify <image-file>",
		Short: "Submit a packaging photo for verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			payload, err := json.Marshal(map[string]string{
				"image":              base64.StdEncoding.EncodeToString(image),
				"registrationNumber": number,
			})
			if err != nil {
				return fmt.Errorf("marshal request: %w", err)
			}
			return postJSON(cmd.Context(), "/verify", payload)
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "Operator-supplied registration number (skips recognition)")
	return cmd
}

func newRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <verification-id>",
		Short: "Fetch one verification record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON(cmd.Context(), "/verifications/"+url.PathEscape(args[0]))
		},
	}
}

func newRecordsCmd() *cobra.Command {
	var number string
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List verification records for a registration number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if number == "" {
				return fmt.Errorf("--number is required")
			}
			query := url.Values{"registrationNumber": {number}}
			return getJSON(cmd.Context(), "/verifications?"+query.Encode())
		},
	}
	cmd.Flags().StringVar(&number, "number", "", "Registration number to look up")
	return cmd
}

func postJSON(ctx context.Context, path string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(apiBase, "/")+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doRequest(req)
}

func getJSON(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(apiBase, "/")+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	return doRequest(req)
}

func doRequest(req *http.Request) error {
	// Verification requests ride on a browser session downstream, so the
	// client budget is generous.
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}
	fmt.Println(pretty.String())

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("api returned %s", resp.Status)
	}
	return nil
}
