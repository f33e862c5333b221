package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/qrbill"
	"github.com/switzbillz/switzbillz/internal/settings"
)

func testSettings() *settings.Settings {
	return &settings.Settings{
		CompanyName:    "Robert Schneider AG",
		CompanyStreet:  "Rue du Lac 1268",
		CompanyCity:    "2501 Biel",
		CompanyCountry: "CH",
		QRIBAN:         "CH44 3199 9123 0008 8901 2",
		BESRID:         "210000",
		AdditionalInfo: settings.AdditionalInfoInvoiceRef,
		ReferenceType:  settings.ReferenceTypeOrderID,
	}
}

func testOrder() OrderData {
	return OrderData{
		OrderID:           42,
		UniqueReference:   "XKBKNABJK",
		InvoiceNumber:     "7",
		CustomerFirstname: "Pia-Maria",
		CustomerLastname:  "Rutschmann-Schnyder",
		Address1:          "Grosse Marktgasse",
		Address2:          "28",
		Postcode:          "9400",
		City:              "Rorschach",
		CountryCode:       "CH",
		Currency:          "CHF",
		Total:             decimal.RequireFromString("1949.75"),
	}
}

func TestAdditionalInfo(t *testing.T) {
	tests := []struct {
		name   string
		source string
		custom string
		want   string
	}{
		{"invoice reference", settings.AdditionalInfoInvoiceRef, "", "REF - XKBKNABJK"},
		{"custom text", settings.AdditionalInfoCustom, "Thank you for your order", "Thank you for your order"},
		{"custom empty", settings.AdditionalInfoCustom, "", ""},
		{"unset", "", "ignored", ""},
		{"unknown", "other", "ignored", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &settings.Settings{AdditionalInfo: tt.source, AdditionalInfoCustom: tt.custom}
			assert.Equal(t, tt.want, AdditionalInfo(s, "XKBKNABJK"))
		})
	}
}

func TestReferenceNumber(t *testing.T) {
	tests := []struct {
		name          string
		referenceType string
		references    string
		want          string
		wantErr       error
	}{
		{"order id", settings.ReferenceTypeOrderID, "", "420000000000000", nil},
		{"invoice number", settings.ReferenceTypeInvoiceNumber, "", "800000000000000", nil},
		{"custom reference", settings.ReferenceTypeCustom, "AB-123", "000123000000000", nil},
		{"custom reference too long", settings.ReferenceTypeCustom, "12345678901234567890", "678901234567890", nil},
		{"custom reference empty", settings.ReferenceTypeCustom, "", "000000000000000", nil},
		{"unknown type", "reference", "", "", ErrInvalidReferenceType},
		{"empty type", "", "", "", ErrInvalidReferenceType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &settings.Settings{ReferenceType: tt.referenceType, References: tt.references}
			got, err := ReferenceNumber(s, "42", "8")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, qrbill.ReferenceLength)
		})
	}
}

func TestBuildForOrder(t *testing.T) {
	bill, err := BuildForOrder(testSettings(), testOrder())
	require.NoError(t, err)
	assert.Empty(t, bill.Violations())

	assert.Equal(t, "CH4431999123000889012", bill.CreditorInformation.IBAN)
	assert.Equal(t, qrbill.ReferenceTypeQR, bill.PaymentReference.Type)
	assert.Equal(t, "210000000004200000000000007", bill.PaymentReference.Reference)
	assert.Equal(t, "REF - XKBKNABJK", bill.AdditionalInformation.Message)
	assert.Equal(t, "1949.75", bill.PaymentAmount.FormattedAmount())
	assert.Equal(t, "CHF", bill.PaymentAmount.Currency)

	creditor, ok := bill.Creditor.(*qrbill.CombinedAddress)
	require.True(t, ok)
	assert.Equal(t, "2501 Biel", creditor.AddressLine2)

	debtor, ok := bill.UltimateDebtor.(*qrbill.StructuredAddress)
	require.True(t, ok)
	assert.Equal(t, "Pia-Maria Rutschmann-Schnyder", debtor.Name)
	assert.Equal(t, "28", debtor.BuildingNumber)
	assert.Equal(t, "9400", debtor.PostalCode)

	payload, err := bill.Payload()
	require.NoError(t, err)
	assert.Contains(t, payload, "210000000004200000000000007")
}

func TestBuildForOrderInvoiceNumberReference(t *testing.T) {
	s := testSettings()
	s.ReferenceType = settings.ReferenceTypeInvoiceNumber

	bill, err := BuildForOrder(s, testOrder())
	require.NoError(t, err)
	assert.Equal(t, "210000000007000000000000004", bill.PaymentReference.Reference)
	assert.True(t, qrbill.ValidQRReference(bill.PaymentReference.Reference))
}

func TestBuildForOrderErrors(t *testing.T) {
	t.Run("no invoice", func(t *testing.T) {
		order := testOrder()
		order.InvoiceNumber = ""
		_, err := BuildForOrder(testSettings(), order)
		assert.ErrorIs(t, err, ErrNoInvoice)
		assert.Equal(t, "No invoice found for the order.", Message(err))
	})

	t.Run("invalid country", func(t *testing.T) {
		order := testOrder()
		order.CountryCode = "C1"
		_, err := BuildForOrder(testSettings(), order)
		assert.ErrorIs(t, err, ErrInvalidCountryCode)
		assert.Equal(t, "Invalid country code format.", Message(err))
	})

	t.Run("invalid reference type", func(t *testing.T) {
		s := testSettings()
		s.ReferenceType = "bogus"
		_, err := BuildForOrder(s, testOrder())
		assert.ErrorIs(t, err, ErrInvalidReferenceType)
		assert.Equal(t, "Invalid reference type selected.", Message(err))
	})

	t.Run("non numeric customer id", func(t *testing.T) {
		s := testSettings()
		s.BESRID = "ABC"
		_, err := BuildForOrder(s, testOrder())
		assert.ErrorIs(t, err, qrbill.ErrInvalidReference)
	})
}

func TestBuildPreview(t *testing.T) {
	tests := []struct {
		name          string
		referenceType string
		want          string
	}{
		{"order id sample", settings.ReferenceTypeOrderID, "210000000006600000000000007"},
		{"invoice number sample", settings.ReferenceTypeInvoiceNumber, "210000000008700000000000006"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings()
			s.ReferenceType = tt.referenceType

			bill, err := BuildPreview(s)
			require.NoError(t, err)
			assert.Empty(t, bill.Violations())
			assert.Equal(t, tt.want, bill.PaymentReference.Reference)
			assert.Equal(t, "REF - QITSOQUID", bill.AdditionalInformation.Message)
			assert.Equal(t, "100.00", bill.PaymentAmount.FormattedAmount())

			debtor := bill.UltimateDebtor.(*qrbill.StructuredAddress)
			assert.Equal(t, "John Doe", debtor.Name)
			assert.Equal(t, "Musterstrasse 1", debtor.Street)
			assert.Equal(t, "Zurich", debtor.City)
		})
	}
}

func TestBuildPreviewReportsViolations(t *testing.T) {
	s := testSettings()
	s.QRIBAN = "CH9300762011623852957"
	s.CompanyName = ""

	bill, err := BuildPreview(s)
	require.NoError(t, err)

	fields := make(map[string]bool)
	for _, v := range bill.Violations() {
		fields[v.Field] = true
	}
	assert.True(t, fields["creditor.name"])
	assert.True(t, fields["paymentReference"])
}

func TestOrderDataFrom(t *testing.T) {
	order := db.Order{
		ID:                5,
		Reference:         "ABCDEFGHI",
		CustomerFirstname: "John",
		CustomerLastname:  "Doe",
		CountryIso:        "CH",
		Currency:          "CHF",
		TotalPaid:         decimal.RequireFromString("10"),
	}

	data := OrderDataFrom(order, nil)
	assert.Empty(t, data.InvoiceNumber)
	assert.Equal(t, "ABCDEFGHI", data.UniqueReference)

	data = OrderDataFrom(order, &db.OrderInvoice{Number: 12})
	assert.Equal(t, "12", data.InvoiceNumber)
	assert.Equal(t, int64(5), data.OrderID)
}
