// Package shop implements the integration points the host shop calls:
// installation, payment options, order validation and the order hooks.
package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/events"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/links"
	"github.com/switzbillz/switzbillz/internal/settings"
)

// ModuleName identifies orders paid with QR bills.
const ModuleName = "switzbillz"

// Order state installed by the module
const (
	qrBillSentStateName  = "QR Bill Sent"
	qrBillSentStateColor = "#4169E1"
)

var (
	ErrOrderNotFound  = invoice.ErrOrderNotFound
	ErrColumnNotFound = errors.New("column not found")
)

// Documents generates order documents.
type Documents interface {
	GeneratePDF(ctx context.Context, orderID int64) (*invoice.Document, error)
}

// Options configures the module URLs.
type Options struct {
	// BaseURL is the public URL of this service.
	BaseURL string
	// ShopBaseURL is the public URL of the host shop.
	ShopBaseURL string
	ShopName    string
}

// Module is the QR bill payment module.
type Module struct {
	database  *sql.DB
	queries   *db.Queries
	documents Documents
	signer    *links.Signer
	publisher events.Publisher
	opts      Options
}

// NewModule creates a new payment module.
func NewModule(database *sql.DB, documents Documents, signer *links.Signer, publisher events.Publisher, opts Options) *Module {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Module{
		database:  database,
		queries:   db.New(database),
		documents: documents,
		signer:    signer,
		publisher: publisher,
		opts:      opts,
	}
}

// Queries returns the module store.
func (m *Module) Queries() *db.Queries {
	return m.queries
}

// Active reports whether the module is installed and enabled.
func (m *Module) Active(ctx context.Context) bool {
	value, err := m.queries.GetConfiguration(ctx, settings.KeyActive)
	return err == nil && value == "1"
}

// Install creates the "QR Bill Sent" order state and enables the module.
// Installing twice keeps the existing state.
func (m *Module) Install(ctx context.Context) (db.OrderState, error) {
	if id := settings.QRBillSentStateID(ctx, m.queries); id > 0 {
		state, err := m.queries.GetOrderState(ctx, id)
		if err == nil && !state.Deleted {
			if err := m.queries.SetConfiguration(ctx, db.SetConfigurationParams{Name: settings.KeyActive, Value: "1"}); err != nil {
				return db.OrderState{}, fmt.Errorf("failed to enable module: %w", err)
			}
			return state, nil
		}
	}

	tx, err := m.database.BeginTx(ctx, nil)
	if err != nil {
		return db.OrderState{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	qtx := m.queries.WithTx(tx)

	state, err := qtx.CreateOrderState(ctx, db.CreateOrderStateParams{
		Name:       qrBillSentStateName,
		Color:      qrBillSentStateColor,
		ModuleName: ModuleName,
	})
	if err != nil {
		return db.OrderState{}, fmt.Errorf("failed to create order state: %w", err)
	}

	for key, value := range map[string]string{
		settings.KeyQRBillSentStateID: strconv.FormatInt(state.ID, 10),
		settings.KeyActive:            "1",
	} {
		if err := qtx.SetConfiguration(ctx, db.SetConfigurationParams{Name: key, Value: value}); err != nil {
			return db.OrderState{}, fmt.Errorf("failed to save %s: %w", key, err)
		}
	}

	if _, err := qtx.GetConfiguration(ctx, settings.KeyReferenceType); errors.Is(err, sql.ErrNoRows) {
		if err := qtx.SetConfiguration(ctx, db.SetConfigurationParams{Name: settings.KeyReferenceType, Value: settings.DefaultReferenceType}); err != nil {
			return db.OrderState{}, fmt.Errorf("failed to save %s: %w", settings.KeyReferenceType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return db.OrderState{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("[Module] Installed, order state %q has id %d", state.Name, state.ID)
	m.logEvent(ctx, "info", 0, fmt.Sprintf("Module installed, order state %d created", state.ID))

	return state, nil
}

// Uninstall removes the "QR Bill Sent" order state and disables the module.
func (m *Module) Uninstall(ctx context.Context) error {
	if id := settings.QRBillSentStateID(ctx, m.queries); id > 0 {
		if err := m.queries.DeleteOrderState(ctx, id); err != nil {
			return fmt.Errorf("failed to delete order state: %w", err)
		}
		if err := m.queries.DeleteConfiguration(ctx, settings.KeyQRBillSentStateID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", settings.KeyQRBillSentStateID, err)
		}
	}

	if err := m.queries.DeleteConfiguration(ctx, settings.KeyActive); err != nil {
		return fmt.Errorf("failed to disable module: %w", err)
	}

	log.Printf("[Module] Uninstalled")
	m.logEvent(ctx, "info", 0, "Module uninstalled")
	return nil
}

// Order returns a stored order.
func (m *Module) Order(ctx context.Context, orderID int64) (db.Order, error) {
	order, err := m.queries.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Order{}, ErrOrderNotFound
		}
		return db.Order{}, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

// moduleOrder returns the order if it was paid with this module. Unknown
// orders and orders of other payment modules yield ok == false.
func (m *Module) moduleOrder(ctx context.Context, orderID int64) (order db.Order, ok bool, err error) {
	order, err = m.Order(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		return db.Order{}, false, nil
	}
	if err != nil {
		return db.Order{}, false, err
	}
	return order, order.Module == ModuleName, nil
}

// ensureInvoice creates the invoice of an order unless it already has one.
func (m *Module) ensureInvoice(ctx context.Context, order db.Order) error {
	_, err := m.queries.GetInvoiceByOrderID(ctx, order.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to load invoice: %w", err)
	}

	inv, err := m.queries.CreateOrderInvoice(ctx, db.CreateOrderInvoiceParams{OrderID: order.ID, Total: order.TotalPaid})
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	m.publish(ctx, events.New(events.InvoiceCreated, order.ID, map[string]string{
		"invoice_number": strconv.FormatInt(inv.Number, 10),
	}))
	m.logEvent(ctx, "success", order.ID, fmt.Sprintf("Created invoice %d for order %s", inv.Number, order.Reference))
	return nil
}

func (m *Module) publish(ctx context.Context, event events.Event) {
	if err := m.publisher.Publish(ctx, event); err != nil {
		log.Printf("[Hook] Failed to publish %s for order %d: %v", event.Type, event.OrderID, err)
	}
}

func (m *Module) logEvent(ctx context.Context, level string, orderID int64, message string) {
	m.queries.CreateLog(ctx, db.CreateLogParams{
		Subsystem: "module",
		Level:     level,
		OrderID:   sql.NullInt64{Int64: orderID, Valid: orderID > 0},
		Message:   message,
	})
}
