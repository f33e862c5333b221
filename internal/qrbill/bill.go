// Package qrbill implements the Swiss QR-bill: the data model, QR reference
// generation, the Swiss Payments Code payload and its QR code, PDF and HTML
// payment part outputs.
// See: https://www.six-group.com/en/products-services/banking-services/payment-standardization/standards/qr-bill.html
package qrbill

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Payload header values (Swiss Payments Code, version 2.0, UTF-8 coding).
const (
	QRType       = "SPC"
	Version      = "0200"
	CodingType   = "1"
	TrailerEPD   = "EPD"
	payloadLines = 31
)

// Supported currencies.
const (
	CurrencyCHF = "CHF"
	CurrencyEUR = "EUR"
)

// ReferenceType is the kind of payment reference carried by a bill.
type ReferenceType string

const (
	ReferenceTypeQR       ReferenceType = "QRR"
	ReferenceTypeCreditor ReferenceType = "SCOR"
	ReferenceTypeNone     ReferenceType = "NON"
)

const maxAdditionalInfoLength = 140

var (
	minAmount = decimal.RequireFromString("0.01")
	maxAmount = decimal.RequireFromString("999999999.99")
)

// ErrInvalidBill is returned when a payload is requested for a bill with violations.
var ErrInvalidBill = errors.New("invalid QR bill")

// Violation describes a single validation failure of a bill.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// CreditorInformation holds the account the payment is credited to.
type CreditorInformation struct {
	IBAN string
}

// NewCreditorInformation creates creditor information from an IBAN in any formatting.
func NewCreditorInformation(iban string) CreditorInformation {
	return CreditorInformation{IBAN: NormalizeIBAN(iban)}
}

// IsQRIBAN reports whether the creditor account is a QR-IBAN.
func (c CreditorInformation) IsQRIBAN() bool {
	return IsQRIBAN(c.IBAN)
}

// PaymentAmountInformation holds currency and the optional amount.
// A nil Amount leaves the amount open for the debtor to fill in.
type PaymentAmountInformation struct {
	Currency string
	Amount   *decimal.Decimal
}

// NewPaymentAmountInformation creates amount information with a fixed amount.
func NewPaymentAmountInformation(currency string, amount decimal.Decimal) PaymentAmountInformation {
	return PaymentAmountInformation{
		Currency: strings.ToUpper(strings.TrimSpace(currency)),
		Amount:   &amount,
	}
}

// FormattedAmount returns the amount with two decimals, or an empty string when open.
func (p PaymentAmountInformation) FormattedAmount() string {
	if p.Amount == nil {
		return ""
	}
	return p.Amount.StringFixed(2)
}

// PaymentReference is the reference transmitted with the payment.
type PaymentReference struct {
	Type      ReferenceType
	Reference string
}

// NewPaymentReference creates a payment reference with whitespace removed.
func NewPaymentReference(t ReferenceType, reference string) PaymentReference {
	return PaymentReference{Type: t, Reference: removeWhitespace(reference)}
}

// FormattedReference returns the reference as printed on the payment part.
func (p PaymentReference) FormattedReference() string {
	switch p.Type {
	case ReferenceTypeQR:
		return FormatReference(p.Reference)
	case ReferenceTypeCreditor:
		return FormatIBAN(p.Reference)
	default:
		return ""
	}
}

// AdditionalInformation holds the unstructured message and the optional
// structured bill information.
type AdditionalInformation struct {
	Message         string
	BillInformation string
}

// NewAdditionalInformation creates additional information with only a message.
func NewAdditionalInformation(message string) AdditionalInformation {
	return AdditionalInformation{Message: strings.TrimSpace(message)}
}

// FormattedString returns message and bill information as printed on the payment part.
func (a AdditionalInformation) FormattedString() string {
	var lines []string
	if a.Message != "" {
		lines = append(lines, a.Message)
	}
	if a.BillInformation != "" {
		lines = append(lines, a.BillInformation)
	}
	return strings.Join(lines, "\n")
}

// Bill is a complete Swiss QR-bill.
type Bill struct {
	Creditor              Address
	CreditorInformation   CreditorInformation
	UltimateDebtor        Address
	PaymentAmount         PaymentAmountInformation
	PaymentReference      PaymentReference
	AdditionalInformation AdditionalInformation
}

// Violations validates the bill and returns all problems found. An empty
// result means the bill can be encoded.
func (b *Bill) Violations() []Violation {
	var v []Violation

	if b.Creditor == nil {
		v = append(v, Violation{Field: "creditor", Message: "This value should not be null."})
	} else {
		v = append(v, b.Creditor.validate("creditor")...)
	}

	iban := b.CreditorInformation.IBAN
	if iban == "" {
		v = append(v, Violation{Field: "creditorInformation.iban", Message: "This value should not be blank."})
	} else if !ValidIBAN(iban) {
		v = append(v, Violation{Field: "creditorInformation.iban", Message: "This is not a valid Swiss or Liechtenstein IBAN."})
	}

	if b.UltimateDebtor != nil {
		v = append(v, b.UltimateDebtor.validate("ultimateDebtor")...)
	}

	switch b.PaymentAmount.Currency {
	case CurrencyCHF, CurrencyEUR:
	default:
		v = append(v, Violation{Field: "paymentAmountInformation.currency", Message: "The currency must be CHF or EUR."})
	}
	if amount := b.PaymentAmount.Amount; amount != nil {
		if amount.LessThan(minAmount) || amount.GreaterThan(maxAmount) {
			v = append(v, Violation{
				Field:   "paymentAmountInformation.amount",
				Message: fmt.Sprintf("This value should be between %s and %s.", minAmount.StringFixed(2), maxAmount.StringFixed(2)),
			})
		}
	}

	v = append(v, b.referenceViolations()...)

	info := b.AdditionalInformation
	if utf8.RuneCountInString(info.Message)+utf8.RuneCountInString(info.BillInformation) > maxAdditionalInfoLength {
		v = append(v, Violation{Field: "additionalInformation", Message: fmt.Sprintf("Message and bill information together must not exceed %d characters.", maxAdditionalInfoLength)})
	}

	return v
}

func (b *Bill) referenceViolations() []Violation {
	ref := b.PaymentReference
	qrIBAN := b.CreditorInformation.IsQRIBAN()

	switch ref.Type {
	case ReferenceTypeQR:
		var v []Violation
		if b.CreditorInformation.IBAN != "" && !qrIBAN {
			v = append(v, Violation{Field: "paymentReference", Message: "A QR reference requires a QR-IBAN."})
		}
		if !ValidQRReference(ref.Reference) {
			v = append(v, Violation{Field: "paymentReference.reference", Message: "This is not a valid QR reference."})
		}
		return v
	case ReferenceTypeCreditor:
		var v []Violation
		if qrIBAN {
			v = append(v, Violation{Field: "paymentReference", Message: "A QR-IBAN requires a QR reference."})
		}
		if !validCreditorReference(ref.Reference) {
			v = append(v, Violation{Field: "paymentReference.reference", Message: "This is not a valid creditor reference."})
		}
		return v
	case ReferenceTypeNone:
		var v []Violation
		if qrIBAN {
			v = append(v, Violation{Field: "paymentReference", Message: "A QR-IBAN requires a QR reference."})
		}
		if ref.Reference != "" {
			v = append(v, Violation{Field: "paymentReference.reference", Message: "This value should be blank."})
		}
		return v
	default:
		return []Violation{{Field: "paymentReference.type", Message: "The reference type must be QRR, SCOR or NON."}}
	}
}

// Payload returns the Swiss Payments Code text encoded in the QR code.
func (b *Bill) Payload() (string, error) {
	if violations := b.Violations(); len(violations) > 0 {
		msgs := make([]string, len(violations))
		for i, v := range violations {
			msgs[i] = v.String()
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidBill, strings.Join(msgs, "; "))
	}

	lines := make([]string, 0, payloadLines+1)
	lines = append(lines, QRType, Version, CodingType, b.CreditorInformation.IBAN)
	lines = append(lines, b.Creditor.Lines()...)
	lines = append(lines, emptyAddressLines()...)
	lines = append(lines, b.PaymentAmount.FormattedAmount(), b.PaymentAmount.Currency)
	if b.UltimateDebtor != nil {
		lines = append(lines, b.UltimateDebtor.Lines()...)
	} else {
		lines = append(lines, emptyAddressLines()...)
	}
	lines = append(lines, string(b.PaymentReference.Type), b.PaymentReference.Reference)
	lines = append(lines, b.AdditionalInformation.Message, TrailerEPD)
	if b.AdditionalInformation.BillInformation != "" {
		lines = append(lines, b.AdditionalInformation.BillInformation)
	}

	return strings.Join(lines, "\n"), nil
}

// ParsePayload parses a Swiss Payments Code text back into a Bill.
// This is useful for validation and testing.
func ParsePayload(payload string) (*Bill, error) {
	payload = strings.ReplaceAll(payload, "\r\n", "\n")
	lines := strings.Split(payload, "\n")

	if len(lines) < payloadLines {
		return nil, fmt.Errorf("invalid payload: expected at least %d lines, got %d", payloadLines, len(lines))
	}
	if lines[0] != QRType || lines[1] != Version || lines[2] != CodingType {
		return nil, fmt.Errorf("invalid payload header")
	}
	if lines[30] != TrailerEPD {
		return nil, fmt.Errorf("invalid payload trailer")
	}

	creditor, err := parseAddress(lines[4:11])
	if err != nil {
		return nil, fmt.Errorf("invalid creditor: %w", err)
	}
	debtor, err := parseAddress(lines[20:27])
	if err != nil {
		return nil, fmt.Errorf("invalid ultimate debtor: %w", err)
	}

	bill := &Bill{
		Creditor:            creditor,
		CreditorInformation: CreditorInformation{IBAN: lines[3]},
		UltimateDebtor:      debtor,
		PaymentAmount:       PaymentAmountInformation{Currency: lines[19]},
		PaymentReference:    PaymentReference{Type: ReferenceType(lines[27]), Reference: lines[28]},
		AdditionalInformation: AdditionalInformation{
			Message: lines[29],
		},
	}

	if lines[18] != "" {
		amount, err := decimal.NewFromString(lines[18])
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", lines[18], err)
		}
		bill.PaymentAmount.Amount = &amount
	}
	if len(lines) > payloadLines {
		bill.AdditionalInformation.BillInformation = lines[31]
	}

	return bill, nil
}

func parseAddress(lines []string) (Address, error) {
	switch lines[0] {
	case "":
		return nil, nil
	case AddressTypeCombined:
		return &CombinedAddress{Name: lines[1], AddressLine1: lines[2], AddressLine2: lines[3], Country: lines[6]}, nil
	case AddressTypeStructured:
		return &StructuredAddress{Name: lines[1], Street: lines[2], BuildingNumber: lines[3], PostalCode: lines[4], City: lines[5], Country: lines[6]}, nil
	default:
		return nil, fmt.Errorf("unknown address type %q", lines[0])
	}
}

// validCreditorReference checks an ISO 11649 creditor reference (RF...).
func validCreditorReference(ref string) bool {
	ref = strings.ToUpper(ref)
	if len(ref) < 5 || len(ref) > 25 || !strings.HasPrefix(ref, "RF") || !isDigits(ref[2:4]) {
		return false
	}

	remainder, ok := mod97(ref[4:] + ref[:4])
	return ok && remainder == 1
}

func tooLong(maxLen int) string {
	return fmt.Sprintf("This value is too long. It should have %d characters or less.", maxLen)
}

// FormatAmount formats an amount with two decimals and a space as thousands
// separator, e.g. "1 234.50".
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}

	dot := strings.IndexByte(fixed, '.')
	whole, frac := fixed[:dot], fixed[dot:]

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}

	return sign + b.String() + frac
}
