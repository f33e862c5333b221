package invoice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/switzbillz/switzbillz/internal/billing"
	"github.com/switzbillz/switzbillz/internal/cache"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/events"
	"github.com/switzbillz/switzbillz/internal/qrbill"
	"github.com/switzbillz/switzbillz/internal/settings"
)

// ErrOrderNotFound is returned for unknown order ids.
var ErrOrderNotFound = errors.New("order not found")

// Document is an invoice merged with its QR bill.
type Document struct {
	OrderID       int64
	InvoiceNumber string
	Filename      string
	Content       []byte
}

// QRFilename returns the file name used for customer downloads.
func QRFilename(orderID int64) string {
	return fmt.Sprintf("QR_invoice_%d.pdf", orderID)
}

// Service generates invoice documents with QR bills.
type Service struct {
	queries   *db.Queries
	renderer  *Renderer
	cache     cache.PDFCache
	publisher events.Publisher
	tmpDir    string
}

// NewService creates a new document service. A nil cache or publisher
// disables caching or event publishing.
func NewService(queries *db.Queries, renderer *Renderer, pdfCache cache.PDFCache, publisher events.Publisher, tmpDir string) *Service {
	if pdfCache == nil {
		pdfCache = cache.Nop{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		queries:   queries,
		renderer:  renderer,
		cache:     pdfCache,
		publisher: publisher,
		tmpDir:    tmpDir,
	}
}

// GeneratePDF returns the invoice of an order followed by its QR bill
// payment part, rendered in the customer's language.
func (s *Service) GeneratePDF(ctx context.Context, orderID int64) (*Document, error) {
	order, err := s.queries.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	inv, err := s.queries.GetInvoiceByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, billing.ErrNoInvoice
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}

	cfg, err := settings.Load(ctx, s.queries)
	if err != nil {
		return nil, err
	}

	number := FormatInvoiceNumber(s.renderer.Prefix(), inv.Number)
	doc := &Document{
		OrderID:       orderID,
		InvoiceNumber: number,
		Filename:      "invoice_" + number + ".pdf",
	}

	key := cache.Key(orderID, cfg.Fingerprint())
	if content, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("[QRBill] Cache lookup failed for order %d: %v", orderID, err)
	} else if ok {
		doc.Content = content
		return doc, nil
	}

	bill, err := billing.BuildForOrder(cfg, billing.OrderDataFrom(order, &inv))
	if err != nil {
		return nil, err
	}

	invoicePDF, err := s.renderer.InvoicePDF(order, inv)
	if err != nil {
		return nil, err
	}

	qrPDF, err := qrbill.PaymentPartPDF(bill, qrbill.Language(order.Lang))
	if err != nil {
		return nil, err
	}

	doc.Content, err = Merge(ctx, s.tmpDir, invoicePDF, qrPDF)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, doc.Content); err != nil {
		log.Printf("[QRBill] Failed to cache PDF for order %d: %v", orderID, err)
	}

	if err := s.publisher.Publish(ctx, events.New(events.QRBillGenerated, orderID, map[string]string{
		"invoice_number": number,
		"reference":      bill.PaymentReference.Reference,
	})); err != nil {
		log.Printf("[QRBill] Failed to publish event for order %d: %v", orderID, err)
	}

	s.queries.CreateLog(ctx, db.CreateLogParams{
		Subsystem: "qrbill",
		Level:     "success",
		OrderID:   sql.NullInt64{Int64: orderID, Valid: true},
		Message:   fmt.Sprintf("Generated QR bill for order %s, invoice %s", order.Reference, number),
		Metadata: db.Metadata(map[string]interface{}{
			"order_id":       orderID,
			"invoice_number": number,
			"reference":      bill.PaymentReference.Reference,
			"amount":         inv.Total.StringFixed(2),
			"currency":       order.Currency,
		}),
	})

	return doc, nil
}
