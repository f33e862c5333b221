// Package settings holds the module configuration edited in the back office
// and persisted in the configuration table.
package settings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/switzbillz/switzbillz/internal/db"
)

// Configuration keys
const (
	KeyCompanyName          = "SWITZBILLZ_COMPANY_NAME"
	KeyCompanyStreet        = "SWITZBILLZ_COMPANY_STREET"
	KeyCompanyCity          = "SWITZBILLZ_COMPANY_CITY"
	KeyCompanyCountry       = "SWITZBILLZ_COMPANY_COUNTRY"
	KeyQRIBAN               = "SWITZBILLZ_QRR_IBAN"
	KeyBESRID               = "SWITZBILLZ_BESR_ID"
	KeyAdditionalInfo       = "SWITZBILLZ_ADDITIONAL_INFO"
	KeyAdditionalInfoCustom = "SWITZBILLZ_ADDITIONAL_INFO_CUSTOM"
	KeyReferences           = "SWITZBILLZ_REFERENCES"
	KeyReferenceType        = "SWITZBILLZ_REFERENCE_TYPE"
	KeyQRBillSentStateID    = "SWITZBILLZ_QR_BILL_SENT_STATE_ID"
	KeyActive               = "SWITZBILLZ_ACTIVE"
	KeyPaymentStateID       = "PS_OS_PAYMENT"

	keyPrefix = "SWITZBILLZ_"
)

// Additional information sources
const (
	AdditionalInfoInvoiceRef = "invoice_ref"
	AdditionalInfoCustom     = "custom"
)

// Reference sources
const (
	ReferenceTypeOrderID       = "order_id"
	ReferenceTypeInvoiceNumber = "invoice_number"
	ReferenceTypeCustom        = "custom_reference"

	DefaultReferenceType = ReferenceTypeOrderID
)

// Store is the configuration storage used by settings.
type Store interface {
	GetConfiguration(ctx context.Context, name string) (string, error)
	ListConfigurationByPrefix(ctx context.Context, prefix string) ([]db.Configuration, error)
	SetConfiguration(ctx context.Context, arg db.SetConfigurationParams) error
}

// Settings is the creditor and reference configuration of the module.
type Settings struct {
	CompanyName          string
	CompanyStreet        string
	CompanyCity          string
	CompanyCountry       string
	QRIBAN               string
	BESRID               string
	AdditionalInfo       string
	AdditionalInfoCustom string
	References           string
	ReferenceType        string
}

// formFields maps form and configuration keys to settings fields.
func (s *Settings) formFields() map[string]*string {
	return map[string]*string{
		KeyCompanyName:          &s.CompanyName,
		KeyCompanyStreet:        &s.CompanyStreet,
		KeyCompanyCity:          &s.CompanyCity,
		KeyCompanyCountry:       &s.CompanyCountry,
		KeyQRIBAN:               &s.QRIBAN,
		KeyBESRID:               &s.BESRID,
		KeyAdditionalInfo:       &s.AdditionalInfo,
		KeyAdditionalInfoCustom: &s.AdditionalInfoCustom,
		KeyReferences:           &s.References,
		KeyReferenceType:        &s.ReferenceType,
	}
}

// Keys returns the configuration keys edited through the settings form.
func Keys() []string {
	return []string{
		KeyCompanyName,
		KeyCompanyStreet,
		KeyCompanyCity,
		KeyCompanyCountry,
		KeyQRIBAN,
		KeyBESRID,
		KeyAdditionalInfo,
		KeyAdditionalInfoCustom,
		KeyReferences,
		KeyReferenceType,
	}
}

// FromForm reads settings from submitted form values.
func FromForm(form url.Values) *Settings {
	s := &Settings{}
	for key, field := range s.formFields() {
		*field = strings.TrimSpace(form.Get(key))
	}
	return s
}

// Load reads the settings from the store. A missing reference type falls back
// to the order id.
func Load(ctx context.Context, store Store) (*Settings, error) {
	items, err := store.ListConfigurationByPrefix(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s := &Settings{}
	fields := s.formFields()
	for _, item := range items {
		if field, ok := fields[item.Name]; ok {
			*field = item.Value
		}
	}

	if s.ReferenceType == "" {
		s.ReferenceType = DefaultReferenceType
	}

	return s, nil
}

// Save writes all settings to the store.
func (s *Settings) Save(ctx context.Context, store Store) error {
	fields := s.formFields()
	for _, key := range Keys() {
		if err := store.SetConfiguration(ctx, db.SetConfigurationParams{Name: key, Value: *fields[key]}); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}
	return nil
}

// Values returns the settings keyed by configuration key, for form rendering.
func (s *Settings) Values() map[string]string {
	values := make(map[string]string)
	for key, field := range s.formFields() {
		values[key] = *field
	}
	return values
}

// Fingerprint returns a stable hash of the settings. Documents rendered with
// the same fingerprint carry the same creditor data.
func (s *Settings) Fingerprint() string {
	h := sha256.New()
	for _, key := range Keys() {
		fmt.Fprintf(h, "%s=%s\n", key, *s.formFields()[key])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// GetInt64 reads a numeric configuration value. Missing or malformed values yield 0.
func GetInt64(ctx context.Context, store Store, key string) int64 {
	value, err := store.GetConfiguration(ctx, key)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// QRBillSentStateID returns the id of the "QR Bill Sent" order state, or 0 when not installed.
func QRBillSentStateID(ctx context.Context, store Store) int64 {
	return GetInt64(ctx, store, KeyQRBillSentStateID)
}

// PaymentStateID returns the id of the order state for accepted payments.
func PaymentStateID(ctx context.Context, store Store) int64 {
	return GetInt64(ctx, store, KeyPaymentStateID)
}
