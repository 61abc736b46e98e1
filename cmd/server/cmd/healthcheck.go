package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckTimeout int
	healthcheckURL     string
)

// errUnhealthy marks a reachable server reporting a non-healthy status.
var errUnhealthy = errors.New("unhealthy")

func newHealthcheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /health endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.
It exits with code 0 if the server is healthy, non-zero otherwise.

Exit codes:
  0 - Server is healthy
  1 - Server is unhealthy or unreachable
  2 - Invalid response from server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(healthcheckTimeout)*time.Second)
			defer cancel()

			status, err := checkHealth(ctx, http.DefaultClient, resolveHealthURL(healthcheckURL))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Health check failed: %v\n", err)
				os.Exit(healthExitCode(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server status: %s\n", status)
			return nil
		},
	}
	cmd.Flags().IntVar(&healthcheckTimeout, "timeout", 5, "timeout in seconds")
	cmd.Flags().StringVar(&healthcheckURL, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/health)")
	return cmd
}

// HealthResponse is the subset of the /health payload the probe reads.
type HealthResponse struct {
	Status string         `json:"status"`
	Checks map[string]any `json:"checks,omitempty"`
}

type decodeError struct{ err error }

func (e decodeError) Error() string { return "invalid response: " + e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func resolveHealthURL(flag string) string {
	if flag != "" {
		return flag
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s/health", port)
}

// checkHealth returns the reported status. Anything other than "healthy"
// yields an error wrapping errUnhealthy.
func checkHealth(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("%w: status %d", errUnhealthy, resp.StatusCode)
		}
		return "", decodeError{err: err}
	}
	if resp.StatusCode != http.StatusOK || health.Status != "healthy" {
		return health.Status, fmt.Errorf("%w: status=%s code=%d", errUnhealthy, health.Status, resp.StatusCode)
	}
	return health.Status, nil
}

func healthExitCode(err error) int {
	var de decodeError
	if errors.As(err, &de) {
		return 2
	}
	return 1
}
