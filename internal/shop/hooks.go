package shop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/events"
	"github.com/switzbillz/switzbillz/internal/qrbill"
	"github.com/switzbillz/switzbillz/internal/settings"
)

const (
	// ValidationPath is the front office route that creates the order.
	ValidationPath = "/module/switzbillz/validation"

	orderConfirmationTemplate = "order_conf"
	emailAttachmentName       = "QR_invoice.pdf"
	downloadQRBillText        = "Download QR Bill"
	callToActionText          = "Pay by QR Bill"
)

// PaymentOption is a payment method offered at checkout.
type PaymentOption struct {
	ModuleName            string `json:"module_name"`
	CallToActionText      string `json:"call_to_action_text"`
	Action                string `json:"action"`
	AdditionalInformation string `json:"additional_information"`
}

// PaymentInfo is shown with the payment option.
type PaymentInfo struct {
	CompanyName string
	IBAN        string
}

// PaymentOptions returns the payment options of the module. It is empty
// while the module is inactive.
func (m *Module) PaymentOptions(ctx context.Context) []PaymentOption {
	if !m.Active(ctx) {
		return []PaymentOption{}
	}
	return []PaymentOption{{
		ModuleName:       ModuleName,
		CallToActionText: callToActionText,
		Action:           strings.TrimRight(m.opts.BaseURL, "/") + ValidationPath,
	}}
}

// PaymentInfo returns the creditor details shown with the payment option.
func (m *Module) PaymentInfo(ctx context.Context) (*PaymentInfo, error) {
	s, err := settings.Load(ctx, m.queries)
	if err != nil {
		return nil, err
	}
	return &PaymentInfo{CompanyName: s.CompanyName, IBAN: qrbill.FormatIBAN(qrbill.NormalizeIBAN(s.QRIBAN))}, nil
}

// Customer is the customer placing an order.
type Customer struct {
	ID        int64  `json:"id_customer"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Email     string `json:"email"`
	SecureKey string `json:"secure_key"`
	Lang      string `json:"lang"`
}

// Address is the invoice address of an order.
type Address struct {
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	Postcode   string `json:"postcode"`
	City       string `json:"city"`
	CountryISO string `json:"country_iso"`
}

// Cart is the checkout state sent by the shop when the customer confirms
// payment by QR bill.
type Cart struct {
	ID                int64           `json:"id_cart"`
	ModuleID          int64           `json:"id_module"`
	CustomerID        int64           `json:"id_customer"`
	AddressDeliveryID int64           `json:"id_address_delivery"`
	AddressInvoiceID  int64           `json:"id_address_invoice"`
	Currency          string          `json:"currency"`
	Total             decimal.Decimal `json:"total"`
	PaymentModules    []string        `json:"payment_modules"`
	Customer          *Customer       `json:"customer"`
	InvoiceAddress    *Address        `json:"invoice_address"`
}

// ValidationResult tells the shop where to send the customer.
type ValidationResult struct {
	RedirectURL string    `json:"redirect_url"`
	Order       *db.Order `json:"-"`
}

func (c *Cart) contextValid() bool {
	return c.ID > 0 && c.CustomerID >= 0 && c.AddressDeliveryID >= 0 && c.AddressInvoiceID >= 0
}

func (c *Cart) paymentOptionAvailable() bool {
	for _, name := range c.PaymentModules {
		if name == ModuleName {
			return true
		}
	}
	return false
}

// Validate turns a cart into an order awaiting QR bill payment. Invalid
// carts and failed order creation send the customer back to the first
// checkout step.
func (m *Module) Validate(ctx context.Context, cart Cart) ValidationResult {
	retry := ValidationResult{RedirectURL: m.shopURL("order", url.Values{"step": {"1"}})}

	if !cart.contextValid() || !cart.paymentOptionAvailable() {
		log.Printf("[Hook] Rejected cart %d: invalid context or payment option unavailable", cart.ID)
		return retry
	}
	if cart.Customer == nil || cart.Customer.ID <= 0 || cart.Customer.ID != cart.CustomerID {
		log.Printf("[Hook] Rejected cart %d: customer not found", cart.ID)
		return retry
	}

	order, err := m.createOrder(ctx, cart)
	if err != nil {
		log.Printf("[Hook] Failed to validate cart %d: %v", cart.ID, err)
		m.logEvent(ctx, "error", 0, fmt.Sprintf("Failed to validate cart %d: %v", cart.ID, err))
		return retry
	}

	if err := m.OnValidateOrder(ctx, order.ID); err != nil {
		log.Printf("[Hook] Failed to create invoice for order %d: %v", order.ID, err)
	}

	return ValidationResult{
		RedirectURL: m.shopURL("order-confirmation", url.Values{
			"id_cart":   {strconv.FormatInt(cart.ID, 10)},
			"id_module": {strconv.FormatInt(cart.ModuleID, 10)},
			"id_order":  {strconv.FormatInt(order.ID, 10)},
			"key":       {cart.Customer.SecureKey},
		}),
		Order: &order,
	}
}

func (m *Module) createOrder(ctx context.Context, cart Cart) (db.Order, error) {
	stateID := settings.QRBillSentStateID(ctx, m.queries)
	if stateID == 0 {
		return db.Order{}, errors.New("order state not installed")
	}

	addr := Address{}
	if cart.InvoiceAddress != nil {
		addr = *cart.InvoiceAddress
	}

	tx, err := m.database.BeginTx(ctx, nil)
	if err != nil {
		return db.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	qtx := m.queries.WithTx(tx)

	order, err := qtx.CreateOrder(ctx, db.CreateOrderParams{
		Reference:         generateReference(),
		CartID:            cart.ID,
		Module:            ModuleName,
		CustomerID:        cart.Customer.ID,
		CustomerFirstname: cart.Customer.Firstname,
		CustomerLastname:  cart.Customer.Lastname,
		CustomerEmail:     cart.Customer.Email,
		Lang:              cart.Customer.Lang,
		Address1:          addr.Address1,
		Address2:          addr.Address2,
		Postcode:          addr.Postcode,
		City:              addr.City,
		CountryIso:        strings.ToUpper(addr.CountryISO),
		Currency:          strings.ToUpper(cart.Currency),
		TotalPaid:         cart.Total,
		CurrentState:      stateID,
		SecureKey:         cart.Customer.SecureKey,
	})
	if err != nil {
		return db.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	if err := qtx.AddOrderHistory(ctx, db.AddOrderHistoryParams{OrderID: order.ID, StateID: stateID}); err != nil {
		return db.Order{}, fmt.Errorf("failed to add order history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return db.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	m.publish(ctx, events.New(events.OrderValidated, order.ID, map[string]string{
		"reference": order.Reference,
		"total":     order.TotalPaid.StringFixed(2),
		"currency":  order.Currency,
	}))
	m.logEvent(ctx, "success", order.ID, fmt.Sprintf("Order %s created from cart %d", order.Reference, cart.ID))

	return order, nil
}

// generateReference returns a nine letter order reference.
func generateReference() string {
	id := uuid.New()
	ref := make([]byte, 9)
	for i := range ref {
		ref[i] = 'A' + id[i]%26
	}
	return string(ref)
}

// OnValidateOrder creates the invoice of a new QR bill order.
func (m *Module) OnValidateOrder(ctx context.Context, orderID int64) error {
	if !m.Active(ctx) {
		return nil
	}

	order, ok, err := m.moduleOrder(ctx, orderID)
	if err != nil || !ok {
		return err
	}
	return m.ensureInvoice(ctx, order)
}

// OnOrderStatusUpdate records a state change of an order. QR bill orders
// moving to the payment accepted state get an invoice if they have none.
func (m *Module) OnOrderStatusUpdate(ctx context.Context, orderID, newStateID int64) error {
	if !m.Active(ctx) {
		return nil
	}

	order, ok, err := m.moduleOrder(ctx, orderID)
	if err != nil || !ok {
		return err
	}

	if order.CurrentState != newStateID {
		if err := m.queries.UpdateOrderState(ctx, db.UpdateOrderStateParams{CurrentState: newStateID, ID: orderID}); err != nil {
			return fmt.Errorf("failed to update order state: %w", err)
		}
		if err := m.queries.AddOrderHistory(ctx, db.AddOrderHistoryParams{OrderID: orderID, StateID: newStateID}); err != nil {
			return fmt.Errorf("failed to add order history: %w", err)
		}
	}

	if newStateID == settings.PaymentStateID(ctx, m.queries) {
		return m.ensureInvoice(ctx, order)
	}
	return nil
}

// FileAttachment is a file the shop attaches to an outgoing email.
type FileAttachment struct {
	Content []byte `json:"content"`
	Mime    string `json:"mime"`
	Name    string `json:"name"`
}

// OnEmailSendBefore returns the attachments for an outgoing shop email. Order
// confirmations of orders awaiting QR bill payment get the QR invoice.
func (m *Module) OnEmailSendBefore(ctx context.Context, template string, vars map[string]string) ([]FileAttachment, error) {
	if !m.Active(ctx) || template != orderConfirmationTemplate {
		return nil, nil
	}

	orderID, err := strconv.ParseInt(vars["{id_order}"], 10, 64)
	if err != nil {
		return nil, nil
	}

	order, err := m.Order(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if order.CurrentState != settings.QRBillSentStateID(ctx, m.queries) {
		return nil, nil
	}

	doc, err := m.documents.GeneratePDF(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR bill for order %d: %w", orderID, err)
	}

	return []FileAttachment{{
		Content: doc.Content,
		Mime:    "application/pdf",
		Name:    emailAttachmentName,
	}}, nil
}

// OrderDetail is shown to the customer on the order detail page.
type OrderDetail struct {
	OrderID            int64  `json:"orderId"`
	QRBillDownloadLink string `json:"qrBillDownloadLink"`
	DownloadQRBillText string `json:"downloadQrBillText"`
}

// OrderDetail returns the download link of a QR bill order, or nil for other orders.
func (m *Module) OrderDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	if !m.Active(ctx) {
		return nil, nil
	}

	order, ok, err := m.moduleOrder(ctx, orderID)
	if err != nil || !ok {
		return nil, err
	}

	link, err := m.signer.SignedDownloadURL(m.opts.BaseURL, order.ID, order.CustomerID)
	if err != nil {
		return nil, err
	}

	return &OrderDetail{
		OrderID:            order.ID,
		QRBillDownloadLink: link,
		DownloadQRBillText: downloadQRBillText,
	}, nil
}

// PaymentReturn is shown on the order confirmation page.
type PaymentReturn struct {
	ShopName   string `json:"shop_name"`
	TotalToPay string `json:"total_to_pay"`
	Status     string `json:"status"`
	OrderID    int64  `json:"id_order"`
}

// PaymentReturn returns the confirmation details of an order, or nil while inactive.
func (m *Module) PaymentReturn(ctx context.Context, orderID int64) (*PaymentReturn, error) {
	if !m.Active(ctx) {
		return nil, nil
	}

	order, err := m.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &PaymentReturn{
		ShopName:   m.opts.ShopName,
		TotalToPay: order.Currency + " " + qrbill.FormatAmount(order.TotalPaid),
		Status:     "ok",
		OrderID:    order.ID,
	}, nil
}

func (m *Module) shopURL(controller string, params url.Values) string {
	q := url.Values{"controller": {controller}}
	for k, v := range params {
		q[k] = v
	}
	return strings.TrimRight(m.opts.ShopBaseURL, "/") + "/index.php?" + q.Encode()
}
