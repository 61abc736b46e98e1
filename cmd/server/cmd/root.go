package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	rootCmd = newRootCommand()
)

// newRootCommand builds the full command tree. Tests call it to get a tree
// without state left over from other tests.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "server",
		Short: "Conectados 420 storefront server",
		Long: `Conectados 420 storefront server runs the catalog, checkout and
back-office API for the shop.

The server supports:
- Product catalog with JSON-LD and N-Quads output
- Shipping quotes by comuna (static zones, BlueExpress, Chilexpress)
- Coupons, checkout and Mercado Pago card payments
- Order notification emails through a background job queue
- Carrier CSV export and tracking import for the shipping queue`,
		SilenceUsage: true,
		// Run the serve command by default if no subcommand is specified
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (optional, uses env vars by default)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	root.AddCommand(
		newServeCommand(),
		newVersionCommand(),
		newHealthcheckCommand(),
		newMigrateCommand(),
		newTokenCommand(),
		newOrdersCommand(),
	)
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
