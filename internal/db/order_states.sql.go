package db

import (
	"context"
)

const createOrderState = `-- name: CreateOrderState :one
INSERT INTO order_states (name, color, module_name, send_email, hidden, delivery, logable, invoice, paid)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, name, color, module_name, send_email, hidden, delivery, logable, invoice, paid, deleted
`

type CreateOrderStateParams struct {
	Name       string
	Color      string
	ModuleName string
	SendEmail  bool
	Hidden     bool
	Delivery   bool
	Logable    bool
	Invoice    bool
	Paid       bool
}

func (q *Queries) CreateOrderState(ctx context.Context, arg CreateOrderStateParams) (OrderState, error) {
	row := q.db.QueryRowContext(ctx, createOrderState,
		arg.Name,
		arg.Color,
		arg.ModuleName,
		arg.SendEmail,
		arg.Hidden,
		arg.Delivery,
		arg.Logable,
		arg.Invoice,
		arg.Paid,
	)
	var i OrderState
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Color,
		&i.ModuleName,
		&i.SendEmail,
		&i.Hidden,
		&i.Delivery,
		&i.Logable,
		&i.Invoice,
		&i.Paid,
		&i.Deleted,
	)
	return i, err
}

const getOrderState = `-- name: GetOrderState :one
SELECT id, name, color, module_name, send_email, hidden, delivery, logable, invoice, paid, deleted
FROM order_states WHERE id = ?
`

func (q *Queries) GetOrderState(ctx context.Context, id int64) (OrderState, error) {
	row := q.db.QueryRowContext(ctx, getOrderState, id)
	var i OrderState
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Color,
		&i.ModuleName,
		&i.SendEmail,
		&i.Hidden,
		&i.Delivery,
		&i.Logable,
		&i.Invoice,
		&i.Paid,
		&i.Deleted,
	)
	return i, err
}

const deleteOrderState = `-- name: DeleteOrderState :exec
UPDATE order_states SET deleted = 1 WHERE id = ?
`

func (q *Queries) DeleteOrderState(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteOrderState, id)
	return err
}
