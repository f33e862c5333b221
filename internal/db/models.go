package db

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Configuration struct {
	Name      string
	Value     string
	UpdatedAt time.Time
}

type OrderState struct {
	ID         int64
	Name       string
	Color      string
	ModuleName string
	SendEmail  bool
	Hidden     bool
	Delivery   bool
	Logable    bool
	Invoice    bool
	Paid       bool
	Deleted    bool
}

type Order struct {
	ID                int64
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
	QrBillEmailedAt   sql.NullTime
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type OrderHistory struct {
	ID        int64
	OrderID   int64
	StateID   int64
	CreatedAt time.Time
}

type OrderInvoice struct {
	ID        int64
	OrderID   int64
	Number    int64
	Total     decimal.Decimal
	CreatedAt time.Time
}

type Log struct {
	ID        int64
	Subsystem string
	Level     string
	OrderID   sql.NullInt64
	Message   string
	Metadata  sql.NullString
	CreatedAt time.Time
}
