package qrbill

import (
	"strings"
	"unicode/utf8"
)

// Address type codes used in the payload.
const (
	AddressTypeCombined   = "K"
	AddressTypeStructured = "S"
)

// Field length limits for addresses.
const (
	maxNameLength         = 70
	maxAddressLineLength  = 70
	maxBuildingNumLength  = 16
	maxPostalCodeLength   = 16
	maxCityLength         = 35
	countryCodeLength     = 2
	emptyAddressLineCount = 7
)

// Address is a creditor or debtor address of a QR-bill.
type Address interface {
	// Type returns the payload address type code.
	Type() string
	// Lines returns the seven payload lines of the address data group.
	Lines() []string
	// FullAddress returns the address as printed on the payment part.
	FullAddress() []string
	validate(group string) []Violation
}

// CombinedAddress is an address with two free address lines (type K).
type CombinedAddress struct {
	Name         string
	AddressLine1 string
	AddressLine2 string
	Country      string
}

// NewCombinedAddress creates a combined address, trimming all fields and
// upper-casing the country code.
func NewCombinedAddress(name, line1, line2, country string) *CombinedAddress {
	return &CombinedAddress{
		Name:         strings.TrimSpace(name),
		AddressLine1: strings.TrimSpace(line1),
		AddressLine2: strings.TrimSpace(line2),
		Country:      strings.ToUpper(strings.TrimSpace(country)),
	}
}

func (a *CombinedAddress) Type() string { return AddressTypeCombined }

func (a *CombinedAddress) Lines() []string {
	return []string{AddressTypeCombined, a.Name, a.AddressLine1, a.AddressLine2, "", "", a.Country}
}

func (a *CombinedAddress) FullAddress() []string {
	lines := []string{a.Name}
	if a.AddressLine1 != "" {
		lines = append(lines, a.AddressLine1)
	}
	line2 := a.AddressLine2
	if a.Country != "" && a.Country != "CH" && a.Country != "LI" {
		line2 = a.Country + " - " + line2
	}
	return append(lines, line2)
}

func (a *CombinedAddress) validate(group string) []Violation {
	var v []Violation
	v = append(v, checkRequired(group+".name", a.Name, maxNameLength)...)
	v = append(v, checkOptional(group+".addressLine1", a.AddressLine1, maxAddressLineLength)...)
	v = append(v, checkRequired(group+".addressLine2", a.AddressLine2, maxAddressLineLength)...)
	v = append(v, checkCountry(group+".country", a.Country)...)
	return v
}

// StructuredAddress is an address with separate street, building number,
// postal code and city fields (type S).
type StructuredAddress struct {
	Name           string
	Street         string
	BuildingNumber string
	PostalCode     string
	City           string
	Country        string
}

// NewStructuredAddress creates a structured address, trimming all fields and
// upper-casing the country code.
func NewStructuredAddress(name, street, buildingNumber, postalCode, city, country string) *StructuredAddress {
	return &StructuredAddress{
		Name:           strings.TrimSpace(name),
		Street:         strings.TrimSpace(street),
		BuildingNumber: strings.TrimSpace(buildingNumber),
		PostalCode:     strings.TrimSpace(postalCode),
		City:           strings.TrimSpace(city),
		Country:        strings.ToUpper(strings.TrimSpace(country)),
	}
}

func (a *StructuredAddress) Type() string { return AddressTypeStructured }

func (a *StructuredAddress) Lines() []string {
	return []string{AddressTypeStructured, a.Name, a.Street, a.BuildingNumber, a.PostalCode, a.City, a.Country}
}

func (a *StructuredAddress) FullAddress() []string {
	lines := []string{a.Name}

	street := strings.TrimSpace(a.Street + " " + a.BuildingNumber)
	if street != "" {
		lines = append(lines, street)
	}

	city := strings.TrimSpace(a.PostalCode + " " + a.City)
	if a.Country != "" && a.Country != "CH" && a.Country != "LI" {
		city = a.Country + " - " + city
	}

	return append(lines, city)
}

func (a *StructuredAddress) validate(group string) []Violation {
	var v []Violation
	v = append(v, checkRequired(group+".name", a.Name, maxNameLength)...)
	v = append(v, checkOptional(group+".street", a.Street, maxAddressLineLength)...)
	v = append(v, checkOptional(group+".buildingNumber", a.BuildingNumber, maxBuildingNumLength)...)
	v = append(v, checkRequired(group+".postalCode", a.PostalCode, maxPostalCodeLength)...)
	v = append(v, checkRequired(group+".city", a.City, maxCityLength)...)
	v = append(v, checkCountry(group+".country", a.Country)...)
	return v
}

// ValidCountryCode reports whether code consists of exactly two ASCII letters.
func ValidCountryCode(code string) bool {
	if len(code) != countryCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= 'A' && c <= 'Z') && !(c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}

func emptyAddressLines() []string {
	return make([]string, emptyAddressLineCount)
}

func checkRequired(field, value string, maxLen int) []Violation {
	if value == "" {
		return []Violation{{Field: field, Message: "This value should not be blank."}}
	}
	return checkOptional(field, value, maxLen)
}

func checkOptional(field, value string, maxLen int) []Violation {
	if utf8.RuneCountInString(value) > maxLen {
		return []Violation{{Field: field, Message: tooLong(maxLen)}}
	}
	return nil
}

func checkCountry(field, value string) []Violation {
	if !ValidCountryCode(value) {
		return []Violation{{Field: field, Message: "This value is not a valid country."}}
	}
	return nil
}
