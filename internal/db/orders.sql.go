package db

import (
	"context"

	"github.com/shopspring/decimal"
)

const orderColumns = `id, reference, cart_id, module, customer_id, customer_firstname, customer_lastname,
customer_email, lang, address1, address2, postcode, city, country_iso, currency, total_paid,
current_state, secure_key, qr_bill_emailed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.Reference,
		&i.CartID,
		&i.Module,
		&i.CustomerID,
		&i.CustomerFirstname,
		&i.CustomerLastname,
		&i.CustomerEmail,
		&i.Lang,
		&i.Address1,
		&i.Address2,
		&i.Postcode,
		&i.City,
		&i.CountryIso,
		&i.Currency,
		&i.TotalPaid,
		&i.CurrentState,
		&i.SecureKey,
		&i.QrBillEmailedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    reference, cart_id, module, customer_id, customer_firstname, customer_lastname, customer_email,
    lang, address1, address2, postcode, city, country_iso, currency, total_paid, current_state, secure_key
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateOrderParams struct {
	Reference         string
	CartID            int64
	Module            string
	CustomerID        int64
	CustomerFirstname string
	CustomerLastname  string
	CustomerEmail     string
	Lang              string
	Address1          string
	Address2          string
	Postcode          string
	City              string
	CountryIso        string
	Currency          string
	TotalPaid         decimal.Decimal
	CurrentState      int64
	SecureKey         string
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	result, err := q.db.ExecContext(ctx, createOrder,
		arg.Reference,
		arg.CartID,
		arg.Module,
		arg.CustomerID,
		arg.CustomerFirstname,
		arg.CustomerLastname,
		arg.CustomerEmail,
		arg.Lang,
		arg.Address1,
		arg.Address2,
		arg.Postcode,
		arg.City,
		arg.CountryIso,
		arg.Currency,
		arg.TotalPaid.StringFixed(2),
		arg.CurrentState,
		arg.SecureKey,
	)
	if err != nil {
		return Order{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Order{}, err
	}
	return q.GetOrder(ctx, id)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(q.db.QueryRowContext(ctx, getOrder, id))
}

const getOrderByCartID = `-- name: GetOrderByCartID :one
SELECT ` + orderColumns + ` FROM orders WHERE cart_id = ?`

func (q *Queries) GetOrderByCartID(ctx context.Context, cartID int64) (Order, error) {
	return scanOrder(q.db.QueryRowContext(ctx, getOrderByCartID, cartID))
}

const updateOrderState = `-- name: UpdateOrderState :exec
UPDATE orders SET current_state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

type UpdateOrderStateParams struct {
	CurrentState int64
	ID           int64
}

func (q *Queries) UpdateOrderState(ctx context.Context, arg UpdateOrderStateParams) error {
	_, err := q.db.ExecContext(ctx, updateOrderState, arg.CurrentState, arg.ID)
	return err
}

const markOrderQrBillEmailed = `-- name: MarkOrderQrBillEmailed :exec
UPDATE orders SET qr_bill_emailed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

func (q *Queries) MarkOrderQrBillEmailed(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markOrderQrBillEmailed, id)
	return err
}

const listOrdersToEmail = `-- name: ListOrdersToEmail :many
SELECT ` + orderColumns + ` FROM orders
WHERE module = ? AND current_state = ? AND qr_bill_emailed_at IS NULL
ORDER BY id`

type ListOrdersToEmailParams struct {
	Module       string
	CurrentState int64
}

func (q *Queries) ListOrdersToEmail(ctx context.Context, arg ListOrdersToEmailParams) ([]Order, error) {
	return q.listOrders(ctx, listOrdersToEmail, arg.Module, arg.CurrentState)
}

const listUnpaidOrders = `-- name: ListUnpaidOrders :many
SELECT ` + orderColumns + ` FROM orders
WHERE module = ?
  AND current_state NOT IN (SELECT id FROM order_states WHERE paid = 1)
ORDER BY created_at, id`

func (q *Queries) ListUnpaidOrders(ctx context.Context, module string) ([]Order, error) {
	return q.listOrders(ctx, listUnpaidOrders, module)
}

const listRecentOrders = `-- name: ListRecentOrders :many
SELECT ` + orderColumns + ` FROM orders
WHERE module = ?
ORDER BY id DESC
LIMIT ?`

type ListRecentOrdersParams struct {
	Module string
	Limit  int64
}

func (q *Queries) ListRecentOrders(ctx context.Context, arg ListRecentOrdersParams) ([]Order, error) {
	return q.listOrders(ctx, listRecentOrders, arg.Module, arg.Limit)
}

func (q *Queries) listOrders(ctx context.Context, query string, args ...interface{}) ([]Order, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const addOrderHistory = `-- name: AddOrderHistory :exec
INSERT INTO order_history (order_id, state_id) VALUES (?, ?)
`

type AddOrderHistoryParams struct {
	OrderID int64
	StateID int64
}

func (q *Queries) AddOrderHistory(ctx context.Context, arg AddOrderHistoryParams) error {
	_, err := q.db.ExecContext(ctx, addOrderHistory, arg.OrderID, arg.StateID)
	return err
}

const listOrderHistory = `-- name: ListOrderHistory :many
SELECT id, order_id, state_id, created_at FROM order_history WHERE order_id = ? ORDER BY id
`

func (q *Queries) ListOrderHistory(ctx context.Context, orderID int64) ([]OrderHistory, error) {
	rows, err := q.db.QueryContext(ctx, listOrderHistory, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderHistory
	for rows.Next() {
		var i OrderHistory
		if err := rows.Scan(&i.ID, &i.OrderID, &i.StateID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
