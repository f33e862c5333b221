// Package billing assembles QR bills from module settings and order data.
package billing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/qrbill"
	"github.com/switzbillz/switzbillz/internal/settings"
)

var (
	ErrNoInvoice            = errors.New("no invoice found for the order")
	ErrInvalidReferenceType = errors.New("invalid reference type selected")
	ErrInvalidCountryCode   = errors.New("invalid country code format")
)

// Sample values used by the settings preview.
const (
	previewOrderID         = "66"
	previewInvoiceNumber   = "87"
	previewUniqueReference = "QITSOQUID"
	previewCurrency        = qrbill.CurrencyCHF
)

var previewAmount = decimal.NewFromInt(100)

// OrderData is the order snapshot a bill is built from.
type OrderData struct {
	OrderID         int64
	UniqueReference string
	// InvoiceNumber is empty when the order has no invoice.
	InvoiceNumber string

	CustomerFirstname string
	CustomerLastname  string
	Address1          string
	Address2          string
	Postcode          string
	City              string
	CountryCode       string

	Currency string
	Total    decimal.Decimal
}

// OrderDataFrom builds the bill input from a stored order and its invoice, if any.
func OrderDataFrom(order db.Order, invoice *db.OrderInvoice) OrderData {
	data := OrderData{
		OrderID:           order.ID,
		UniqueReference:   order.Reference,
		CustomerFirstname: order.CustomerFirstname,
		CustomerLastname:  order.CustomerLastname,
		Address1:          order.Address1,
		Address2:          order.Address2,
		Postcode:          order.Postcode,
		City:              order.City,
		CountryCode:       order.CountryIso,
		Currency:          order.Currency,
		Total:             order.TotalPaid,
	}
	if invoice != nil {
		data.InvoiceNumber = strconv.FormatInt(invoice.Number, 10)
	}
	return data
}

// AdditionalInfo returns the unstructured message printed on the bill.
func AdditionalInfo(s *settings.Settings, uniqueReference string) string {
	switch s.AdditionalInfo {
	case settings.AdditionalInfoCustom:
		return s.AdditionalInfoCustom
	case settings.AdditionalInfoInvoiceRef:
		return "REF - " + uniqueReference
	default:
		return ""
	}
}

// ReferenceNumber picks the reference source configured in the settings and
// normalizes it to 15 digits.
func ReferenceNumber(s *settings.Settings, orderID, invoiceNumber string) (string, error) {
	var ref string
	switch s.ReferenceType {
	case settings.ReferenceTypeOrderID:
		ref = orderID
	case settings.ReferenceTypeInvoiceNumber:
		ref = qrbill.ReplaceNonDigits(invoiceNumber)
	case settings.ReferenceTypeCustom:
		ref = qrbill.ReplaceNonDigits(s.References)
	default:
		return "", ErrInvalidReferenceType
	}
	return qrbill.NormalizeReference(ref), nil
}

// BuildForOrder creates the QR bill for an order.
func BuildForOrder(s *settings.Settings, order OrderData) (*qrbill.Bill, error) {
	if order.InvoiceNumber == "" {
		return nil, ErrNoInvoice
	}

	ref, err := ReferenceNumber(s, strconv.FormatInt(order.OrderID, 10), order.InvoiceNumber)
	if err != nil {
		return nil, err
	}

	country := strings.TrimSpace(order.CountryCode)
	if !qrbill.ValidCountryCode(country) {
		return nil, ErrInvalidCountryCode
	}

	debtor := qrbill.NewStructuredAddress(
		order.CustomerFirstname+" "+order.CustomerLastname,
		order.Address1,
		order.Address2,
		order.Postcode,
		order.City,
		country,
	)

	return build(s, debtor, order.Currency, order.Total, ref, AdditionalInfo(s, order.UniqueReference))
}

// BuildPreview creates a sample bill from settings that may not be saved yet.
func BuildPreview(s *settings.Settings) (*qrbill.Bill, error) {
	ref, err := ReferenceNumber(s, previewOrderID, previewInvoiceNumber)
	if err != nil {
		return nil, err
	}

	debtor := qrbill.NewStructuredAddress("John Doe", "Musterstrasse 1", "", "8000", "Zurich", "CH")

	return build(s, debtor, previewCurrency, previewAmount, ref, AdditionalInfo(s, previewUniqueReference))
}

func build(s *settings.Settings, debtor qrbill.Address, currency string, amount decimal.Decimal, ref, info string) (*qrbill.Bill, error) {
	qrr, err := qrbill.GenerateQRReference(s.BESRID, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR reference: %w", err)
	}

	return &qrbill.Bill{
		Creditor:              qrbill.NewCombinedAddress(s.CompanyName, s.CompanyStreet, s.CompanyCity, s.CompanyCountry),
		CreditorInformation:   qrbill.NewCreditorInformation(s.QRIBAN),
		UltimateDebtor:        debtor,
		PaymentAmount:         qrbill.NewPaymentAmountInformation(currency, amount),
		PaymentReference:      qrbill.NewPaymentReference(qrbill.ReferenceTypeQR, qrr),
		AdditionalInformation: qrbill.NewAdditionalInformation(info),
	}, nil
}

// Message returns the text shown to shop staff for a billing error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoInvoice):
		return "No invoice found for the order."
	case errors.Is(err, ErrInvalidReferenceType):
		return "Invalid reference type selected."
	case errors.Is(err, ErrInvalidCountryCode):
		return "Invalid country code format."
	default:
		return err.Error()
	}
}
