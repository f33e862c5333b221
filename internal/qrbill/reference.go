package qrbill

import (
	"errors"
	"fmt"
	"strings"
)

// ReferenceLength is the number of digits an order reference is normalized to
// before it is turned into a QR reference.
const ReferenceLength = 15

// QRReferenceLength is the length of a complete QR reference including the check digit.
const QRReferenceLength = 27

// maxCustomerIDLength is the longest customer identification number (BESR-ID)
// a bank hands out.
const maxCustomerIDLength = 11

// ErrInvalidReference is returned when a QR reference cannot be generated.
var ErrInvalidReference = errors.New("invalid reference")

// mod10Table is the carry table of the modulo 10 recursive check digit
// used by ESR/QR references.
var mod10Table = [10]int{0, 9, 4, 6, 8, 2, 7, 1, 3, 5}

// NormalizeReference turns any order reference into exactly 15 digits:
// every non-digit becomes '0', longer values keep their last 15 digits and
// shorter values are right-padded with '0'.
func NormalizeReference(raw string) string {
	digits := ReplaceNonDigits(raw)

	if len(digits) > ReferenceLength {
		return digits[len(digits)-ReferenceLength:]
	}

	return digits + strings.Repeat("0", ReferenceLength-len(digits))
}

// ReplaceNonDigits replaces every byte that is not an ASCII digit with '0'.
// Multibyte characters yield one '0' per byte.
func ReplaceNonDigits(s string) string {
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			b[i] = '0'
		}
	}
	return string(b)
}

// GenerateQRReference builds a 27-digit QR reference from an optional customer
// identification number and a numeric reference. The reference is left-padded
// with zeros so that customer id and reference fill 26 digits, then the
// modulo 10 recursive check digit is appended.
//
// Example:
//
//	GenerateQRReference("210000", "313947143000901") // "210000000003139471430009017"
func GenerateQRReference(customerID, reference string) (string, error) {
	customerID = removeWhitespace(customerID)
	reference = removeWhitespace(reference)

	if customerID != "" {
		if !isDigits(customerID) {
			return "", fmt.Errorf("%w: customer identification number must be numeric", ErrInvalidReference)
		}
		if len(customerID) > maxCustomerIDLength {
			return "", fmt.Errorf("%w: customer identification number must not exceed %d digits", ErrInvalidReference, maxCustomerIDLength)
		}
	}

	if reference == "" || !isDigits(reference) {
		return "", fmt.Errorf("%w: reference number must be numeric", ErrInvalidReference)
	}

	bodyLength := QRReferenceLength - 1
	if len(customerID)+len(reference) > bodyLength {
		return "", fmt.Errorf("%w: customer identification number and reference exceed %d digits", ErrInvalidReference, bodyLength)
	}

	body := customerID + strings.Repeat("0", bodyLength-len(customerID)-len(reference)) + reference

	return body + string(rune('0'+mod10(body))), nil
}

// ValidQRReference reports whether ref is a 27-digit QR reference with a correct check digit.
func ValidQRReference(ref string) bool {
	ref = removeWhitespace(ref)
	if len(ref) != QRReferenceLength || !isDigits(ref) {
		return false
	}
	return mod10(ref[:QRReferenceLength-1]) == int(ref[QRReferenceLength-1]-'0')
}

// mod10 computes the modulo 10 recursive check digit of a digit string.
func mod10(digits string) int {
	carry := 0
	for i := 0; i < len(digits); i++ {
		carry = mod10Table[(carry+int(digits[i]-'0'))%10]
	}
	return (10 - carry) % 10
}

// FormatReference formats a QR reference for display in blocks of five
// counted from the right, e.g. "21 00000 00003 13947 14300 09017".
func FormatReference(ref string) string {
	ref = removeWhitespace(ref)
	if ref == "" {
		return ""
	}

	head := len(ref) % 5
	var blocks []string
	if head > 0 {
		blocks = append(blocks, ref[:head])
	}
	for i := head; i < len(ref); i += 5 {
		blocks = append(blocks, ref[i:i+5])
	}

	return strings.Join(blocks, " ")
}

func removeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
