package db

import (
	"context"
)

const getConfiguration = `-- name: GetConfiguration :one
SELECT value FROM configuration WHERE name = ?
`

func (q *Queries) GetConfiguration(ctx context.Context, name string) (string, error) {
	row := q.db.QueryRowContext(ctx, getConfiguration, name)
	var value string
	err := row.Scan(&value)
	return value, err
}

const listConfigurationByPrefix = `-- name: ListConfigurationByPrefix :many
SELECT name, value, updated_at FROM configuration
WHERE name LIKE ? || '%'
ORDER BY name
`

func (q *Queries) ListConfigurationByPrefix(ctx context.Context, prefix string) ([]Configuration, error) {
	rows, err := q.db.QueryContext(ctx, listConfigurationByPrefix, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Configuration
	for rows.Next() {
		var i Configuration
		if err := rows.Scan(&i.Name, &i.Value, &i.UpdatedAt); err != nil {
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

const setConfiguration = `-- name: SetConfiguration :exec
INSERT INTO configuration (name, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`

type SetConfigurationParams struct {
	Name  string
	Value string
}

func (q *Queries) SetConfiguration(ctx context.Context, arg SetConfigurationParams) error {
	_, err := q.db.ExecContext(ctx, setConfiguration, arg.Name, arg.Value)
	return err
}

const deleteConfiguration = `-- name: DeleteConfiguration :exec
DELETE FROM configuration WHERE name = ?
`

func (q *Queries) DeleteConfiguration(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, deleteConfiguration, name)
	return err
}
