package shop

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/events"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/links"
	"github.com/switzbillz/switzbillz/internal/settings"
)

type fakeDocuments struct {
	calls []int64
	err   error
}

func (f *fakeDocuments) GeneratePDF(_ context.Context, orderID int64) (*invoice.Document, error) {
	f.calls = append(f.calls, orderID)
	if f.err != nil {
		return nil, f.err
	}
	return &invoice.Document{OrderID: orderID, Filename: invoice.QRFilename(orderID), Content: []byte("%PDF-1.4")}, nil
}

func setupModule(t *testing.T) (*Module, *fakeDocuments, *events.Memory) {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, "file:"+filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	signer, err := links.NewSigner("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	docs := &fakeDocuments{}
	publisher := &events.Memory{}
	m := NewModule(database, docs, signer, publisher, Options{
		BaseURL:     "https://bills.example.ch",
		ShopBaseURL: "https://shop.example.ch/",
		ShopName:    "Example Shop",
	})
	return m, docs, publisher
}

func testCart() Cart {
	return Cart{
		ID:                42,
		ModuleID:          7,
		CustomerID:        3,
		AddressDeliveryID: 5,
		AddressInvoiceID:  5,
		Currency:          "chf",
		Total:             decimal.RequireFromString("1949.75"),
		PaymentModules:    []string{"ps_wirepayment", ModuleName},
		Customer: &Customer{
			ID:        3,
			Firstname: "Pia",
			Lastname:  "Rutschmann",
			Email:     "pia@example.ch",
			SecureKey: "abc123",
			Lang:      "de",
		},
		InvoiceAddress: &Address{
			Address1:   "Marktgasse 28",
			Postcode:   "9400",
			City:       "Rorschach",
			CountryISO: "ch",
		},
	}
}

func TestInstallIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupModule(t)

	assert.False(t, m.Active(ctx))

	state, err := m.Install(ctx)
	require.NoError(t, err)
	assert.Equal(t, "QR Bill Sent", state.Name)
	assert.Equal(t, "#4169E1", state.Color)
	assert.False(t, state.SendEmail)
	assert.False(t, state.Invoice)
	assert.True(t, m.Active(ctx))
	assert.Equal(t, state.ID, settings.QRBillSentStateID(ctx, m.Queries()))

	refType, err := m.Queries().GetConfiguration(ctx, settings.KeyReferenceType)
	require.NoError(t, err)
	assert.Equal(t, settings.DefaultReferenceType, refType)

	again, err := m.Install(ctx)
	require.NoError(t, err)
	assert.Equal(t, state.ID, again.ID)
}

func TestUninstall(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupModule(t)

	state, err := m.Install(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Uninstall(ctx))

	assert.False(t, m.Active(ctx))
	assert.Zero(t, settings.QRBillSentStateID(ctx, m.Queries()))

	deleted, err := m.Queries().GetOrderState(ctx, state.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	reinstalled, err := m.Install(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, state.ID, reinstalled.ID)
}

func TestInactiveModule(t *testing.T) {
	ctx := context.Background()
	m, docs, _ := setupModule(t)

	assert.Empty(t, m.PaymentOptions(ctx))

	detail, err := m.OrderDetail(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, detail)

	ret, err := m.PaymentReturn(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, ret)

	attachments, err := m.OnEmailSendBefore(ctx, "order_conf", map[string]string{"{id_order}": "1"})
	require.NoError(t, err)
	assert.Empty(t, attachments)
	assert.Empty(t, docs.calls)

	grid := &GridDefinition{ID: "order"}
	assert.NoError(t, m.ModifyOrderGrid(ctx, grid))
}

func TestPaymentOptions(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupModule(t)
	_, err := m.Install(ctx)
	require.NoError(t, err)

	options := m.PaymentOptions(ctx)
	require.Len(t, options, 1)
	assert.Equal(t, "Pay by QR Bill", options[0].CallToActionText)
	assert.Equal(t, "https://bills.example.ch/module/switzbillz/validation", options[0].Action)
	assert.Equal(t, ModuleName, options[0].ModuleName)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	m, _, publisher := setupModule(t)
	state, err := m.Install(ctx)
	require.NoError(t, err)

	result := m.Validate(ctx, testCart())
	require.NotNil(t, result.Order)

	order := result.Order
	assert.Equal(t, state.ID, order.CurrentState)
	assert.Equal(t, ModuleName, order.Module)
	assert.Equal(t, "CHF", order.Currency)
	assert.Equal(t, "CH", order.CountryIso)
	assert.True(t, decimal.RequireFromString("1949.75").Equal(order.TotalPaid))
	assert.Len(t, order.Reference, 9)
	assert.Equal(t, strings.ToUpper(order.Reference), order.Reference)

	u, err := url.Parse(result.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "/index.php", u.Path)
	assert.Equal(t, "order-confirmation", u.Query().Get("controller"))
	assert.Equal(t, "42", u.Query().Get("id_cart"))
	assert.Equal(t, "7", u.Query().Get("id_module"))
	assert.Equal(t, "abc123", u.Query().Get("key"))

	_, err = m.Queries().GetInvoiceByOrderID(ctx, order.ID)
	assert.NoError(t, err)

	history, err := m.Queries().ListOrderHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, state.ID, history[0].StateID)

	assert.Equal(t, []string{events.OrderValidated, events.InvoiceCreated}, publisher.Types())
}

func TestValidateRejects(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupModule(t)
	_, err := m.Install(ctx)
	require.NoError(t, err)

	tests := []struct {
		name   string
		modify func(c *Cart)
	}{
		{"no cart", func(c *Cart) { c.ID = 0 }},
		{"negative address", func(c *Cart) { c.AddressInvoiceID = -1 }},
		{"module unavailable", func(c *Cart) { c.PaymentModules = []string{"ps_wirepayment"} }},
		{"no customer", func(c *Cart) { c.Customer = nil }},
		{"customer mismatch", func(c *Cart) { c.CustomerID = 99 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := testCart()
			tt.modify(&cart)
			result := m.Validate(ctx, cart)
			assert.Nil(t, result.Order)
			assert.Equal(t, "https://shop.example.ch/index.php?controller=order&step=1", result.RedirectURL)
		})
	}
}

func TestValidateDuplicateCart(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupModule(t)
	_, err := m.Install(ctx)
	require.NoError(t, err)

	first := m.Validate(ctx, testCart())
	require.NotNil(t, first.Order)

	second := m.Validate(ctx, testCart())
	assert.Nil(t, second.Order)
	assert.Contains(t, second.RedirectURL, "step=1")
}

func TestValidateWithoutInstall(t *testing.T) {
	m, _, _ := setupModule(t)
	result := m.Validate(context.Background(), testCart())
	assert.Nil(t, result.Order)
	assert.Contains(t, result.RedirectURL, "controller=order")
}

func createForeignOrder(t *testing.T, m *Module) db.Order {
	t.Helper()
	order, err := m.Queries().CreateOrder(context.Background(), db.CreateOrderParams{
		Reference:    "FOREIGNXX",
		CartID:       900,
		Module:       "ps_wirepayment",
		CustomerID:   1,
		CountryIso:   "CH",
		Currency:     "CHF",
		TotalPaid:    decimal.NewFromInt(5),
		CurrentState: 1,
		SecureKey:    "k",
	})
	require.NoError(t, err)
	return order
}

func TestOnOrderStatusUpdate(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupModule(t)
	_, err := m.Install(ctx)
	require.NoError(t, err)

	// order created without the validation hook, as when the shop creates it
	order, err := m.Queries().CreateOrder(ctx, db.CreateOrderParams{
		Reference:    "ABCDEFGHI",
		CartID:       1,
		Module:       ModuleName,
		CustomerID:   3,
		CountryIso:   "CH",
		Currency:     "CHF",
		TotalPaid:    decimal.NewFromInt(20),
		CurrentState: settings.QRBillSentStateID(ctx, m.Queries()),
		SecureKey:    "k",
	})
	require.NoError(t, err)

	require.NoError(t, m.OnOrderStatusUpdate(ctx, order.ID, 1))
	_, err = m.Queries().GetInvoiceByOrderID(ctx, order.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, m.OnOrderStatusUpdate(ctx, order.ID, 2))
	inv, err := m.Queries().GetInvoiceByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(inv.Total))

	updated, err := m.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.CurrentState)

	// a second payment does not create another invoice
	require.NoError(t, m.OnOrderStatusUpdate(ctx, order.ID, 2))
	again, err := m.Queries().GetInvoiceByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, again.ID)

	foreign := createForeignOrder(t, m)
	require.NoError(t, m.OnOrderStatusUpdate(ctx, foreign.ID, 2))
	_, err = m.Queries().GetInvoiceByOrderID(ctx, foreign.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, m.OnOrderStatusUpdate(ctx, 12345, 2))
}

func TestOnEmailSendBefore(t *testing.T) {
	ctx := context.Background()
	m, docs, _ := setupModule(t)
	_, err := m.Install(ctx)
	require.NoError(t, err)

	result := m.Validate(ctx, testCart())
	require.NotNil(t, result.Order)
	vars := map[string]string{"{id_order}": strconv.FormatInt(result.Order.ID, 10)}

	attachments, err := m.OnEmailSendBefore(ctx, "order_conf", vars)
	require.NoError(t, err)
	require.Len(t, attachments, 1)
	assert.Equal(t, "QR_invoice.pdf", attachments[0].Name)
	assert.Equal(t, "application/pdf", attachments[0].Mime)
	assert.Equal(t, []byte("%PDF-1.4"), attachments[0].Content)

	attachments, err = m.OnEmailSendBefore(ctx, "shipped", vars)
	require.NoError(t, err)
	assert.Empty(t, attachments)

	require.NoError(t, m.OnOrderStatusUpdate(ctx, result.Order.ID, 2))
	attachments, err = m.OnEmailSendBefore(ctx, "order_conf", vars)
	require.NoError(t, err)
	assert.Empty(t, attachments)
	assert.Len(t, docs.calls, 1)

	attachments, err = m.OnEmailSendBefore(ctx, "order_conf", map[string]string{"{id_order}": "999"})
	require.NoError(t, err)
	assert.Empty(t, attachments)
}

func TestOnEmailSendBeforeRenderError(t *testing.T) {
	ctx := context.Background()
	m, docs, _ := setupModule(t)
	_, err := m.Install(ctx)
	require.NoError(t, err)

	result := m.Validate(ctx, testCart())
	require.NotNil(t, result.Order)

	docs.err = errors.New("render failed")
	_, err = m.OnEmailSendBefore(ctx, "order_conf", map[string]string{"{id_order}": strconv.FormatInt(result.Order.ID, 10)})
	assert.Error(t, err)
}

func TestOrderDetail(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupModule(t)
	_, err := m.Install(ctx)
	require.NoError(t, err)

	result := m.Validate(ctx, testCart())
	require.NotNil(t, result.Order)

	detail, err := m.OrderDetail(ctx, result.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, result.Order.ID, detail.OrderID)
	assert.Equal(t, "Download QR Bill", detail.DownloadQRBillText)
	assert.True(t, strings.HasPrefix(detail.QRBillDownloadLink, "https://bills.example.ch/module/switzbillz/downloadQrBill?"))

	u, err := url.Parse(detail.QRBillDownloadLink)
	require.NoError(t, err)
	claims, err := m.signer.VerifyOrder(u.Query().Get("token"), result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.CustomerID)

	foreign := createForeignOrder(t, m)
	detail, err = m.OrderDetail(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestModifyOrderGrid(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupModule(t)
	_, err := m.Install(ctx)
	require.NoError(t, err)

	grid := &GridDefinition{
		ID: "order",
		Columns: []GridColumn{
			{ID: "id_order", Name: "ID"},
			{ID: "actions", Name: "Actions", Actions: []RowAction{{ID: "view", Name: "View"}}},
		},
	}

	require.NoError(t, m.ModifyOrderGrid(ctx, grid))
	require.NoError(t, m.ModifyOrderGrid(ctx, grid))

	actions := grid.Columns[1].Actions
	require.Len(t, actions, 2)
	assert.Equal(t, "switzbillz_button", actions[1].ID)
	assert.Equal(t, "View QR Bill", actions[1].Name)
	assert.Equal(t, "qr_code_scanner", actions[1].Icon)
	assert.Equal(t, RowActionOptions{
		Route:           "switzbillz_generate_pdf",
		RouteParamName:  "orderId",
		RouteParamField: "id_order",
	}, actions[1].Options)

	err = m.ModifyOrderGrid(ctx, &GridDefinition{ID: "order", Columns: []GridColumn{{ID: "id_order"}}})
	assert.ErrorIs(t, err, ErrColumnNotFound)
	assert.Contains(t, err.Error(), `column with id "actions" not found in grid definition`)
}

func TestPaymentReturn(t *testing.T) {
	ctx := context.Background()
	m, _, _ := setupModule(t)
	_, err := m.Install(ctx)
	require.NoError(t, err)

	result := m.Validate(ctx, testCart())
	require.NotNil(t, result.Order)

	ret, err := m.PaymentReturn(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, &PaymentReturn{
		ShopName:   "Example Shop",
		TotalToPay: "CHF 1 949.75",
		Status:     "ok",
		OrderID:    result.Order.ID,
	}, ret)

	_, err = m.PaymentReturn(ctx, 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
