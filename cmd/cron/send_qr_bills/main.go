package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/switzbillz/switzbillz/internal/cache"
	"github.com/switzbillz/switzbillz/internal/config"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/email"
	"github.com/switzbillz/switzbillz/internal/events"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/jobs"
	"github.com/switzbillz/switzbillz/internal/links"
	"github.com/switzbillz/switzbillz/internal/settings"
	"github.com/switzbillz/switzbillz/internal/shop"
)

// Emails the QR bill of every order waiting in the "QR Bill Sent" state that
// was not emailed yet
//
// Usage:
//   go run ./cmd/cron/send_qr_bills
//
// Or in crontab (every 15 minutes):
//   */15 * * * * cd /path/to/switzbillz && ./send_qr_bills >> logs/qr_bills.log 2>&1

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

	sender := email.New(cfg, queries)
	if !sender.Configured() {
		log.Fatal("SMTP_HOST is not set, no QR bills can be emailed")
	}

	stateID := settings.QRBillSentStateID(ctx, queries)
	if stateID == 0 {
		log.Fatal("Module is not installed: QR Bill Sent state missing")
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATS(ctx, cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	var signer *links.Signer
	if cfg.LinkSigningKey != "" {
		signer, err = links.NewSigner(cfg.LinkSigningKey, cfg.LinkTTL)
		if err != nil {
			log.Fatalf("Failed to create link signer: %v", err)
		}
	} else {
		log.Println("LINK_SIGNING_KEY not set, emails will not contain a download link")
	}

	renderer := invoice.NewRenderer(cfg.ShopName, cfg.InvoicePrefix)
	documents := invoice.NewService(queries, renderer, cache.Nop{}, publisher, cfg.TmpDir)
	mailer := jobs.NewMailer(queries, documents, sender, signer, publisher, cfg.BaseURL)

	log.Printf("Sending QR bills with %d workers...", cfg.Workers)

	results, stats, err := mailer.SendAll(ctx, jobs.NewBatch(cfg.Workers), shop.ModuleName, stateID)
	if err != nil {
		log.Fatalf("Failed to send QR bills: %v", err)
	}

	for _, r := range results {
		if r.Err != nil {
			log.Printf("  ✗ Order %d: %v", r.OrderID, r.Err)
			continue
		}
		log.Printf("  ✓ Order %d emailed (%s)", r.OrderID, r.Duration.Round(time.Millisecond))
	}

	log.Printf("\nSummary:")
	log.Printf("  Orders: %d", stats.Submitted)
	log.Printf("  Emailed: %d", stats.Succeeded)
	log.Printf("  Errors: %d", stats.Failed)
	log.Printf("  Duration: %s", stats.Duration.Round(time.Millisecond))

	level := "success"
	if stats.Failed > 0 {
		level = "warning"
	}
	queries.CreateLog(ctx, db.CreateLogParams{
		Subsystem: "cron",
		Level:     level,
		Message:   fmt.Sprintf("QR bills emailed: %d of %d orders", stats.Succeeded, stats.Submitted),
		Metadata: db.Metadata(map[string]interface{}{
			"orders":      stats.Submitted,
			"emailed":     stats.Succeeded,
			"errors":      stats.Failed,
			"duration_ms": stats.Duration.Milliseconds(),
		}),
	})

	if stats.Failed > 0 {
		log.Fatal("Job completed with errors")
	}

	log.Println("✓ Job completed successfully")
}
