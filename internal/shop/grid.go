package shop

import (
	"context"
	"fmt"
)

const actionsColumnID = "actions"

// GridDefinition describes the back office order grid.
type GridDefinition struct {
	ID      string       `json:"id"`
	Columns []GridColumn `json:"columns"`
}

// GridColumn is a column of the order grid.
type GridColumn struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Actions []RowAction `json:"actions,omitempty"`
}

// RowAction is a link shown on every grid row.
type RowAction struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Icon    string           `json:"icon"`
	Options RowActionOptions `json:"options"`
}

// RowActionOptions routes a row action to a back office page.
type RowActionOptions struct {
	Route           string `json:"route"`
	RouteParamName  string `json:"route_param_name"`
	RouteParamField string `json:"route_param_field"`
}

var viewQRBillAction = RowAction{
	ID:   "switzbillz_button",
	Name: "View QR Bill",
	Icon: "qr_code_scanner",
	Options: RowActionOptions{
		Route:           "switzbillz_generate_pdf",
		RouteParamName:  "orderId",
		RouteParamField: "id_order",
	},
}

// Column returns the column with the given id.
func (d *GridDefinition) Column(id string) (*GridColumn, error) {
	for i := range d.Columns {
		if d.Columns[i].ID == id {
			return &d.Columns[i], nil
		}
	}
	return nil, fmt.Errorf("%w: column with id %q not found in grid definition", ErrColumnNotFound, id)
}

// ModifyOrderGrid adds the "View QR Bill" action to the actions column.
func (m *Module) ModifyOrderGrid(ctx context.Context, def *GridDefinition) error {
	if !m.Active(ctx) {
		return nil
	}

	column, err := def.Column(actionsColumnID)
	if err != nil {
		return err
	}

	for _, a := range column.Actions {
		if a.ID == viewQRBillAction.ID {
			return nil
		}
	}
	column.Actions = append(column.Actions, viewQRBillAction)
	return nil
}
