package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conectados420/storefront/internal/storage/postgres"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long: `Apply or roll back the storefront schema migrations.

Examples:
  # Apply all pending migrations, including the job queue schema
  server migrate up

  # Roll back the last migration
  server migrate down --steps 1

  # Show the current schema version
  server migrate version`,
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(cfg.Database.URL, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
				return err
			}
			pool, err := postgres.Open(cmd.Context(), cfg.Database.URL, 2)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.MigrateJobQueue(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}, down, &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationVersion(cfg.Database.URL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", version, dirty)
			return nil
		},
	})
	return cmd
}
