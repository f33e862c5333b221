package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *Queries {
	t.Helper()
	database, err := Open(context.Background(), "file:"+filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return New(database)
}

func createTestOrder(t *testing.T, q *Queries, cartID int64) Order {
	t.Helper()
	order, err := q.CreateOrder(context.Background(), CreateOrderParams{
		Reference:         "XKBKNABJK" + string(rune('A'+cartID)),
		CartID:            cartID,
		Module:            "switzbillz",
		CustomerID:        7,
		CustomerFirstname: "John",
		CustomerLastname:  "Doe",
		CustomerEmail:     "john@example.com",
		Lang:              "de",
		Address1:          "Musterstrasse",
		Address2:          "1",
		Postcode:          "8000",
		City:              "Zurich",
		CountryIso:        "CH",
		Currency:          "CHF",
		TotalPaid:         decimal.RequireFromString("100.5"),
		CurrentState:      1,
		SecureKey:         "secret",
	})
	require.NoError(t, err)
	return order
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	database, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, database))
	database.Close()

	database, err = Open(ctx, path)
	require.NoError(t, err)
	defer database.Close()

	paid, err := New(database).GetConfiguration(ctx, "PS_OS_PAYMENT")
	require.NoError(t, err)
	assert.Equal(t, "2", paid)
}

func TestConfiguration(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()

	_, err := q.GetConfiguration(ctx, "SWITZBILLZ_COMPANY_NAME")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, q.SetConfiguration(ctx, SetConfigurationParams{Name: "SWITZBILLZ_COMPANY_NAME", Value: "Shop AG"}))
	require.NoError(t, q.SetConfiguration(ctx, SetConfigurationParams{Name: "SWITZBILLZ_COMPANY_NAME", Value: "Shop GmbH"}))
	require.NoError(t, q.SetConfiguration(ctx, SetConfigurationParams{Name: "SWITZBILLZ_BESR_ID", Value: "210000"}))

	value, err := q.GetConfiguration(ctx, "SWITZBILLZ_COMPANY_NAME")
	require.NoError(t, err)
	assert.Equal(t, "Shop GmbH", value)

	items, err := q.ListConfigurationByPrefix(ctx, "SWITZBILLZ_")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "SWITZBILLZ_BESR_ID", items[0].Name)

	require.NoError(t, q.DeleteConfiguration(ctx, "SWITZBILLZ_BESR_ID"))
	_, err = q.GetConfiguration(ctx, "SWITZBILLZ_BESR_ID")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestOrders(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()

	order := createTestOrder(t, q, 1)
	assert.Equal(t, "100.5", order.TotalPaid.String())
	assert.False(t, order.QrBillEmailedAt.Valid)

	byCart, err := q.GetOrderByCartID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byCart.ID)

	toEmail, err := q.ListOrdersToEmail(ctx, ListOrdersToEmailParams{Module: "switzbillz", CurrentState: 1})
	require.NoError(t, err)
	assert.Len(t, toEmail, 1)

	require.NoError(t, q.MarkOrderQrBillEmailed(ctx, order.ID))
	toEmail, err = q.ListOrdersToEmail(ctx, ListOrdersToEmailParams{Module: "switzbillz", CurrentState: 1})
	require.NoError(t, err)
	assert.Empty(t, toEmail)

	unpaid, err := q.ListUnpaidOrders(ctx, "switzbillz")
	require.NoError(t, err)
	assert.Len(t, unpaid, 1)

	require.NoError(t, q.UpdateOrderState(ctx, UpdateOrderStateParams{CurrentState: 2, ID: order.ID}))
	require.NoError(t, q.AddOrderHistory(ctx, AddOrderHistoryParams{OrderID: order.ID, StateID: 2}))

	unpaid, err = q.ListUnpaidOrders(ctx, "switzbillz")
	require.NoError(t, err)
	assert.Empty(t, unpaid)

	history, err := q.ListOrderHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(2), history[0].StateID)
}

func TestInvoiceNumbering(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()

	first := createTestOrder(t, q, 1)
	second := createTestOrder(t, q, 2)

	_, err := q.GetInvoiceByOrderID(ctx, first.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	inv1, err := q.CreateOrderInvoice(ctx, CreateOrderInvoiceParams{OrderID: first.ID, Total: first.TotalPaid})
	require.NoError(t, err)
	inv2, err := q.CreateOrderInvoice(ctx, CreateOrderInvoiceParams{OrderID: second.ID, Total: second.TotalPaid})
	require.NoError(t, err)

	assert.Equal(t, int64(1), inv1.Number)
	assert.Equal(t, int64(2), inv2.Number)
	assert.True(t, inv1.Total.Equal(decimal.RequireFromString("100.50")))

	_, err = q.CreateOrderInvoice(ctx, CreateOrderInvoiceParams{OrderID: first.ID, Total: first.TotalPaid})
	assert.Error(t, err, "an order has at most one invoice")
}

func TestOrderStates(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()

	state, err := q.CreateOrderState(ctx, CreateOrderStateParams{
		Name:       "QR Bill Sent",
		Color:      "#4169E1",
		ModuleName: "switzbillz",
	})
	require.NoError(t, err)
	assert.Greater(t, state.ID, int64(2))

	require.NoError(t, q.DeleteOrderState(ctx, state.ID))
	deleted, err := q.GetOrderState(ctx, state.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	paid, err := q.GetOrderState(ctx, 2)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
}

func TestLogs(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()

	entries := []CreateLogParams{
		{Subsystem: "email", Level: "success", OrderID: sql.NullInt64{Int64: 1, Valid: true}, Message: "sent"},
		{Subsystem: "email", Level: "error", Message: "failed"},
		{Subsystem: "qrbill", Level: "success", OrderID: sql.NullInt64{Int64: 2, Valid: true}, Message: "generated",
			Metadata: sql.NullString{String: `{"order_id":2}`, Valid: true}},
	}
	for _, e := range entries {
		_, err := q.CreateLog(ctx, e)
		require.NoError(t, err)
	}

	logs, err := q.ListLogsFiltered(ctx, ListLogsFilteredParams{Subsystem: "email", Limit: 100})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = q.ListLogsFiltered(ctx, ListLogsFilteredParams{OrderID: 2, Limit: 100})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, `{"order_id":2}`, logs[0].Metadata.String)

	logs, err = q.ListLogsFiltered(ctx, ListLogsFilteredParams{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	subsystems, err := q.GetDistinctSubsystems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "qrbill"}, subsystems)

	levels, err := q.GetDistinctLevels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"error", "success"}, levels)
}

func TestMetadataEscapesValues(t *testing.T) {
	m := Metadata(map[string]interface{}{
		"admin":    `o"brien@example.ch`,
		"currency": "CHF\n",
		"orders":   3,
	})
	require.True(t, m.Valid)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(m.String), &decoded))
	assert.Equal(t, `o"brien@example.ch`, decoded["admin"])
	assert.Equal(t, "CHF\n", decoded["currency"])
	assert.Equal(t, float64(3), decoded["orders"])

	assert.False(t, Metadata(map[string]interface{}{"bad": make(chan int)}).Valid)
}
