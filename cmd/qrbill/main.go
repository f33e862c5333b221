package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/switzbillz/switzbillz/internal/billing"
	"github.com/switzbillz/switzbillz/internal/cache"
	"github.com/switzbillz/switzbillz/internal/config"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/qrbill"
	"github.com/switzbillz/switzbillz/internal/settings"
	"github.com/switzbillz/switzbillz/internal/shop"
)

var Version = "dev"

func main() {
	godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qrbill",
		Short:         "SwitzBillz QR bill tools",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(referenceCmd())
	root.AddCommand(payloadCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(orderCmd())
	root.AddCommand(installCmd())

	return root
}

func referenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference [reference]",
		Short: "Normalize a reference number and print its QR reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID, _ := cmd.Flags().GetString("customer-id")

			normalized := qrbill.NormalizeReference(args[0])
			qrr, err := qrbill.GenerateQRReference(customerID, normalized)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Normalized:   %s\n", normalized)
			fmt.Fprintf(out, "QR reference: %s\n", qrr)
			fmt.Fprintf(out, "Formatted:    %s\n", qrbill.FormatReference(qrr))
			return nil
		},
	}

	cmd.Flags().StringP("customer-id", "c", "", "BESR customer identification number")

	return cmd
}

// previewFromStore builds the sample bill of the stored settings.
func previewFromStore(ctx context.Context) (*qrbill.Bill, error) {
	queries, closeDB, err := openQueries(ctx)
	if err != nil {
		return nil, err
	}
	defer closeDB()

	s, err := settings.Load(ctx, queries)
	if err != nil {
		return nil, err
	}

	bill, err := billing.BuildPreview(s)
	if err != nil {
		return nil, fmt.Errorf("%s", billing.Message(err))
	}
	if violations := bill.Violations(); len(violations) > 0 {
		return nil, fmt.Errorf("invalid settings: %v", violations)
	}
	return bill, nil
}

func payloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payload",
		Short: "Print the QR code payload of the preview bill",
		RunE: func(cmd *cobra.Command, args []string) error {
			bill, err := previewFromStore(cmd.Context())
			if err != nil {
				return err
			}

			payload, err := bill.Payload()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), payload)
			return nil
		},
	}
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [output.pdf]",
		Short: "Write the payment part of the preview bill as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")

			bill, err := previewFromStore(cmd.Context())
			if err != nil {
				return err
			}

			pdf, err := qrbill.PaymentPartPDF(bill, qrbill.Language(lang))
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], pdf, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", args[0], len(pdf))
			return nil
		},
	}

	cmd.Flags().StringP("lang", "l", qrbill.LangEN, "Language of the payment part (de, fr, it, en)")

	return cmd
}

func orderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order [order-id] [output.pdf]",
		Short: "Write the invoice and QR bill of an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var orderID int64
			if _, err := fmt.Sscan(args[0], &orderID); err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			queries, closeDB, err := openQueries(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			renderer := invoice.NewRenderer(cfg.ShopName, cfg.InvoicePrefix)
			doc, err := invoice.NewService(queries, renderer, cache.Nop{}, nil, cfg.TmpDir).GeneratePDF(cmd.Context(), orderID)
			if err != nil {
				return fmt.Errorf("%s", billing.Message(err))
			}

			if err := os.WriteFile(args[1], doc.Content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[1], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote invoice %s to %s\n", doc.InvoiceNumber, args[1])
			return nil
		},
	}
}

func installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Create the QR Bill Sent order state and enable the module",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			database, err := db.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer database.Close()

			module := shop.NewModule(database, nil, nil, nil, shop.Options{
				BaseURL:     cfg.BaseURL,
				ShopBaseURL: cfg.ShopBaseURL,
				ShopName:    cfg.ShopName,
			})

			state, err := module.Install(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Module installed, order state %q has id %d\n", state.Name, state.ID)
			return nil
		},
	}
}

func openQueries(ctx context.Context) (*db.Queries, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db.New(database), func() { database.Close() }, nil
}
