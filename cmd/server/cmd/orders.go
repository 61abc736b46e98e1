package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conectados420/storefront/internal/domain/orders"
)

func newOrdersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Back-office order operations",
		Long: `Run shipping queue and maintenance operations against the order store.

Examples:
  # Write the carrier CSV for every order in the shipping queue
  server orders export-shipments --output ./exports

  # Apply the tracking numbers from a carrier file
  server orders import-tracking envios.csv

  # Book a paid order with Blue Express and save its label
  server orders ship 3f2a9c1e-... --label-dir ./labels

  # Show the carrier events for a tracking number
  server orders track BX123456

  # Delete every order (test environments only)
  server orders purge-test --yes`,
	}
	cmd.AddCommand(
		newOrdersExportCommand(),
		newOrdersImportCommand(),
		newOrdersShipCommand(),
		newOrdersTrackCommand(),
		newOrdersPurgeCommand(),
	)
	return cmd
}

func newOrdersExportCommand() *cobra.Command {
	var (
		output  string
		archive bool
		ids     []string
	)
	cmd := &cobra.Command{
		Use:   "export-shipments",
		Short: "Write the carrier CSV for the shipping queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			services, pool, _, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			defer func() { _ = services.Close() }()

			var archiver orders.Archiver
			if archive {
				if services.Archiver == nil {
					return errors.New("--archive requires EXPORTS_S3_BUCKET")
				}
				archiver = services.Archiver
			}

			export, err := services.Orders.ExportShipments(cmd.Context(), ids, archiver)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(output, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
			path := filepath.Join(output, export.Filename)
			if err := os.WriteFile(path, export.Body, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "exported %d order(s) to %s\n", export.Orders, path)
			if export.ArchiveKey != "" {
				fmt.Fprintf(out, "archived as %s\n", export.ArchiveKey)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", ".", "directory for the CSV file")
	cmd.Flags().BoolVar(&archive, "archive", false, "also upload the file to the exports bucket")
	cmd.Flags().StringSliceVar(&ids, "id", nil, "restrict the export to these order IDs (repeatable)")
	return cmd
}

func newOrdersImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-tracking <file>",
		Short: "Apply tracking numbers from a carrier CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			services, pool, _, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			defer func() { _ = services.Close() }()

			result, err := services.Orders.ImportTracking(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d of %d row(s), %d error(s)\n", result.Updated, result.Total, result.Errors)
			return nil
		},
	}
}

func newOrdersShipCommand() *cobra.Command {
	var labelDir string
	cmd := &cobra.Command{
		Use:   "ship <order-id>",
		Short: "Book the carrier shipment for an order and mark it shipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, pool, _, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			defer func() { _ = services.Close() }()

			booked, err := services.Shipments.Book(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "order %s shipped: shipment %s, tracking %s\n",
				booked.Order.Reference(), booked.Shipment.ShipmentID, booked.Shipment.TrackingNumber)

			if labelDir == "" {
				return nil
			}
			label, err := services.Shipments.Label(cmd.Context(), booked.Shipment.ShipmentID)
			if err != nil {
				return fmt.Errorf("shipment booked but label failed: %w", err)
			}
			if err := os.MkdirAll(labelDir, 0o755); err != nil {
				return fmt.Errorf("create label dir: %w", err)
			}
			path := filepath.Join(labelDir, booked.Shipment.ShipmentID+".pdf")
			if err := os.WriteFile(path, label, 0o644); err != nil {
				return fmt.Errorf("write label: %w", err)
			}
			fmt.Fprintf(out, "label written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&labelDir, "label-dir", "", "also download the PDF label into this directory")
	return cmd
}

func newOrdersTrackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "track <tracking-number>",
		Short: "Print the carrier tracking events for a shipment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, pool, _, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			defer func() { _ = services.Close() }()

			tracking, err := services.Shipments.Track(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", tracking.TrackingNumber, tracking.Status)
			for _, ev := range tracking.Events {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ev.Date.Format("2006-01-02 15:04"), ev.Status, ev.Description)
			}
			return w.Flush()
		},
	}
}

func newOrdersPurgeCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge-test",
		Short: "Delete every order, order item and payment log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to purge without --yes")
			}
			services, pool, _, err := openServices(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			defer func() { _ = services.Close() }()

			result, err := services.Orders.PurgeTestOrders(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TABLE\tDELETED")
			fmt.Fprintf(w, "payment_logs\t%d\n", result.PaymentLogs)
			fmt.Fprintf(w, "order_items\t%d\n", result.Items)
			fmt.Fprintf(w, "orders\t%d\n", result.Orders)
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}
