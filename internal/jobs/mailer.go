package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/events"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/links"
)

// Documents generates order documents.
type Documents interface {
	GeneratePDF(ctx context.Context, orderID int64) (*invoice.Document, error)
}

// Sender emails QR bills.
type Sender interface {
	SendQRBill(ctx context.Context, order db.Order, doc *invoice.Document, downloadURL string) error
}

// Mailer emails the QR bill of an order to its customer.
type Mailer struct {
	queries   *db.Queries
	documents Documents
	sender    Sender
	signer    *links.Signer
	publisher events.Publisher
	baseURL   string
}

// NewMailer creates a new QR bill mailer. A nil signer leaves the download
// link out of the email.
func NewMailer(queries *db.Queries, documents Documents, sender Sender, signer *links.Signer, publisher events.Publisher, baseURL string) *Mailer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Mailer{
		queries:   queries,
		documents: documents,
		sender:    sender,
		signer:    signer,
		publisher: publisher,
		baseURL:   baseURL,
	}
}

// Send generates and emails the QR bill of one order and marks it as emailed.
// The order is only marked when the sender reports a delivered email.
func (m *Mailer) Send(ctx context.Context, orderID int64) error {
	order, err := m.queries.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", orderID, err)
	}

	doc, err := m.documents.GeneratePDF(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to generate QR bill for order %d: %w", orderID, err)
	}

	var downloadURL string
	if m.signer != nil {
		downloadURL, err = m.signer.SignedDownloadURL(m.baseURL, order.ID, order.CustomerID)
		if err != nil {
			return err
		}
	}

	if err := m.sender.SendQRBill(ctx, order, doc, downloadURL); err != nil {
		return fmt.Errorf("failed to email QR bill for order %d: %w", orderID, err)
	}

	if err := m.queries.MarkOrderQrBillEmailed(ctx, orderID); err != nil {
		return fmt.Errorf("failed to mark order %d as emailed: %w", orderID, err)
	}

	if err := m.publisher.Publish(ctx, events.New(events.QRBillEmailed, orderID, map[string]string{
		"recipient": order.CustomerEmail,
	})); err != nil {
		log.Printf("[Email] Failed to publish event for order %d: %v", orderID, err)
	}

	return nil
}

// SendAll emails QR bills for all orders of module in state stateID that
// were not emailed yet.
func (m *Mailer) SendAll(ctx context.Context, batch *Batch, module string, stateID int64) ([]Result, Stats, error) {
	orders, err := m.queries.ListOrdersToEmail(ctx, db.ListOrdersToEmailParams{Module: module, CurrentState: stateID})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to list orders: %w", err)
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	results, stats := batch.Run(ctx, ids, m.Send)
	return results, stats, nil
}
