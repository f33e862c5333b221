package db

import (
	"context"
	"database/sql"
)

const createLog = `-- name: CreateLog :one
INSERT INTO logs (subsystem, level, order_id, message, metadata)
VALUES (?, ?, ?, ?, ?)
`

type CreateLogParams struct {
	Subsystem string
	Level     string
	OrderID   sql.NullInt64
	Message   string
	Metadata  sql.NullString
}

func (q *Queries) CreateLog(ctx context.Context, arg CreateLogParams) (Log, error) {
	result, err := q.db.ExecContext(ctx, createLog,
		arg.Subsystem,
		arg.Level,
		arg.OrderID,
		arg.Message,
		arg.Metadata,
	)
	if err != nil {
		return Log{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Log{}, err
	}
	return q.GetLog(ctx, id)
}

const getLog = `-- name: GetLog :one
SELECT id, subsystem, level, order_id, message, metadata, created_at FROM logs WHERE id = ?
`

func (q *Queries) GetLog(ctx context.Context, id int64) (Log, error) {
	row := q.db.QueryRowContext(ctx, getLog, id)
	var i Log
	err := row.Scan(
		&i.ID,
		&i.Subsystem,
		&i.Level,
		&i.OrderID,
		&i.Message,
		&i.Metadata,
		&i.CreatedAt,
	)
	return i, err
}

const listLogsFiltered = `-- name: ListLogsFiltered :many
SELECT id, subsystem, level, order_id, message, metadata, created_at FROM logs
WHERE (? = '' OR subsystem = ?)
  AND (? = '' OR level = ?)
  AND (? = 0 OR order_id = ?)
ORDER BY created_at DESC, id DESC
LIMIT ?
`

type ListLogsFilteredParams struct {
	Subsystem string
	Level     string
	OrderID   int64
	Limit     int64
}

func (q *Queries) ListLogsFiltered(ctx context.Context, arg ListLogsFilteredParams) ([]Log, error) {
	rows, err := q.db.QueryContext(ctx, listLogsFiltered,
		arg.Subsystem, arg.Subsystem,
		arg.Level, arg.Level,
		arg.OrderID, arg.OrderID,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Log
	for rows.Next() {
		var i Log
		if err := rows.Scan(
			&i.ID,
			&i.Subsystem,
			&i.Level,
			&i.OrderID,
			&i.Message,
			&i.Metadata,
			&i.CreatedAt,
		); err != nil {
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

const getDistinctSubsystems = `-- name: GetDistinctSubsystems :many
SELECT DISTINCT subsystem FROM logs ORDER BY subsystem
`

func (q *Queries) GetDistinctSubsystems(ctx context.Context) ([]string, error) {
	return q.distinctStrings(ctx, getDistinctSubsystems)
}

const getDistinctLevels = `-- name: GetDistinctLevels :many
SELECT DISTINCT level FROM logs ORDER BY level
`

func (q *Queries) GetDistinctLevels(ctx context.Context) ([]string, error) {
	return q.distinctStrings(ctx, getDistinctLevels)
}

func (q *Queries) distinctStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
