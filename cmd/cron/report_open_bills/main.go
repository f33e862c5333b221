package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/switzbillz/switzbillz/internal/config"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/qrbill"
	"github.com/switzbillz/switzbillz/internal/shop"
)

// Report QR bill orders that are not paid yet
//
// Usage:
//   go run ./cmd/cron/report_open_bills

// OpenBill is an unpaid QR bill order with the reason it is still open
type OpenBill struct {
	Order         db.Order
	InvoiceNumber string
	Reason        string
}

const (
	reasonNoInvoice  = "No invoice"
	reasonNotEmailed = "QR bill not emailed"
	reasonAwaiting   = "Awaiting payment"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()
	queries := db.New(database)

	orders, err := queries.ListUnpaidOrders(ctx, shop.ModuleName)
	if err != nil {
		log.Fatalf("Failed to list unpaid orders: %v", err)
	}

	log.Printf("Analyzing %d unpaid QR bill orders...\n", len(orders))

	groups := map[string][]OpenBill{}
	totals := map[string]decimal.Decimal{}

	for _, order := range orders {
		bill := OpenBill{Order: order}

		inv, err := queries.GetInvoiceByOrderID(ctx, order.ID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			bill.Reason = reasonNoInvoice
		case err != nil:
			log.Printf("⚠ Error loading invoice of order %d: %v", order.ID, err)
			continue
		case !order.QrBillEmailedAt.Valid:
			bill.InvoiceNumber = invoice.FormatInvoiceNumber(cfg.InvoicePrefix, inv.Number)
			bill.Reason = reasonNotEmailed
		default:
			bill.InvoiceNumber = invoice.FormatInvoiceNumber(cfg.InvoicePrefix, inv.Number)
			bill.Reason = reasonAwaiting
		}

		groups[bill.Reason] = append(groups[bill.Reason], bill)
		totals[order.Currency] = totals[order.Currency].Add(order.TotalPaid)
	}

	fmt.Println("\n" + strings.Repeat("=", 110))
	fmt.Println("OPEN QR BILLS REPORT")
	fmt.Println(strings.Repeat("=", 110))
	fmt.Printf("\nOpen QR bill orders: %d\n", len(orders))

	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		fmt.Printf("Total open amount: %s %s\n", c, qrbill.FormatAmount(totals[c]))
	}

	if len(orders) == 0 {
		fmt.Println("\n✓ No open QR bills!")
		return
	}

	for _, section := range []struct {
		reason string
		title  string
	}{
		{reasonNoInvoice, "📝 ORDERS WITHOUT INVOICE (no QR bill can be generated):"},
		{reasonNotEmailed, "✉ ORDERS WHOSE QR BILL WAS NOT EMAILED YET:"},
		{reasonAwaiting, "⏳ ORDERS AWAITING PAYMENT:"},
	} {
		bills := groups[section.reason]
		if len(bills) == 0 {
			continue
		}
		fmt.Println("\n" + section.title)
		fmt.Println(strings.Repeat("-", 110))
		printBillTable(bills)
	}

	fmt.Println("\n" + strings.Repeat("=", 110))
	fmt.Println("\n💡 Next steps:")
	fmt.Println("  1. Orders without invoice: create the invoice in the shop back office")
	fmt.Println("  2. Orders not emailed: run send_qr_bills or check the SMTP settings")
	fmt.Println("  3. Orders awaiting payment: compare with the bank statement and mark them as paid")
	fmt.Println()
}

// truncate shortens s to limit runes, marking the cut with "..".
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ".."
}

func printBillTable(bills []OpenBill) {
	fmt.Printf("%-8s %-12s %-12s %-10s %-16s %-30s %s\n",
		"ID", "Date", "Reference", "Invoice", "Amount", "Customer", "Reason")
	fmt.Println(strings.Repeat("-", 110))

	for _, b := range bills {
		customer := truncate(b.Order.CustomerEmail, 28)

		fmt.Printf("%-8d %-12s %-12s %-10s %12s %s %-30s %s\n",
			b.Order.ID,
			b.Order.CreatedAt.Format("2006-01-02"),
			b.Order.Reference,
			b.InvoiceNumber,
			qrbill.FormatAmount(b.Order.TotalPaid),
			b.Order.Currency,
			customer,
			b.Reason,
		)
	}
}
