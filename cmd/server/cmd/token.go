package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Issue an admin bearer token",
		Long: `Issue a bearer token for an existing admin profile, for scripts and
the MCP server. The profile must have the admin role.

Examples:
  server token ops@conectados420.cl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, pool, _, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			defer func() { _ = services.Close() }()

			token, err := services.Auth.TokenFor(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
