package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PentesterFlow/workshopgraph/internal/output"
)

// analyzeClient posts URLs to a running server's /analyze endpoint.
type analyzeClient struct {
	endpoint string
	http     *http.Client
}

func newAnalyzeClient(base string) *analyzeClient {
	return &analyzeClient{
		endpoint: strings.TrimRight(base, "/") + "/analyze",
		http:     &http.Client{Timeout: 5 * time.Minute},
	}
}

// send posts one URL and writes the framed report, or an error line for a
// non-200 response.
func (c *analyzeClient) send(ctx context.Context, target string, w io.Writer) error {
	form := url.Values{"url": {target}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(w, "Error occurred while sending the request. Response code: %d\n", resp.StatusCode)
		if msg := strings.TrimSpace(string(body)); msg != "" {
			fmt.Fprintln(w, msg)
		}
		return nil
	}

	return output.WriteFramed(w, "Server Response:", string(body))
}

// interactive prompts for URLs until "exit" or end of input.
func (c *analyzeClient) interactive(ctx context.Context, r io.Reader, w io.Writer) error {
	fmt.Fprintln(w, "Enter a URL to analyze (or type 'exit' to quit):")

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "URL: ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.EqualFold(line, "exit"):
			fmt.Fprintln(w, "Exiting...")
			return nil
		case line == "":
			fmt.Fprintln(w, "Please enter a valid URL.")
		default:
			if err := c.send(ctx, line, w); err != nil {
				fmt.Fprintf(w, "An error occurred: %v\n", err)
			}
		}
	}
}
