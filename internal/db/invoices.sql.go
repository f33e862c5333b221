package db

import (
	"context"

	"github.com/shopspring/decimal"
)

const createOrderInvoice = `-- name: CreateOrderInvoice :one
INSERT INTO order_invoices (order_id, number, total)
VALUES (?, (SELECT COALESCE(MAX(number), 0) + 1 FROM order_invoices), ?)
`

type CreateOrderInvoiceParams struct {
	OrderID int64
	Total   decimal.Decimal
}

// CreateOrderInvoice creates the invoice of an order with the next free invoice number.
func (q *Queries) CreateOrderInvoice(ctx context.Context, arg CreateOrderInvoiceParams) (OrderInvoice, error) {
	if _, err := q.db.ExecContext(ctx, createOrderInvoice, arg.OrderID, arg.Total.StringFixed(2)); err != nil {
		return OrderInvoice{}, err
	}
	return q.GetInvoiceByOrderID(ctx, arg.OrderID)
}

const getInvoiceByOrderID = `-- name: GetInvoiceByOrderID :one
SELECT id, order_id, number, total, created_at FROM order_invoices WHERE order_id = ?
`

func (q *Queries) GetInvoiceByOrderID(ctx context.Context, orderID int64) (OrderInvoice, error) {
	row := q.db.QueryRowContext(ctx, getInvoiceByOrderID, orderID)
	var i OrderInvoice
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Number,
		&i.Total,
		&i.CreatedAt,
	)
	return i, err
}
