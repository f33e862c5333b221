package qrbill

import (
	"strings"
)

// ibanLength is the length of Swiss and Liechtenstein IBANs.
const ibanLength = 21

// QR-IBANs carry an institution id (IID) in this range.
const (
	qrIIDMin = 30000
	qrIIDMax = 31999
)

// NormalizeIBAN removes whitespace and upper-cases an IBAN.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(removeWhitespace(iban))
}

// ValidIBAN reports whether iban is a well-formed CH or LI IBAN with a valid
// ISO 13616 checksum.
func ValidIBAN(iban string) bool {
	iban = NormalizeIBAN(iban)
	if len(iban) != ibanLength {
		return false
	}

	country := iban[:2]
	if country != "CH" && country != "LI" {
		return false
	}
	if !isDigits(iban[2:4]) {
		return false
	}

	// Move country code and check digits to the end.
	remainder, ok := mod97(iban[4:] + iban[:4])
	return ok && remainder == 1
}

// mod97 computes the ISO 7064 MOD 97-10 remainder of an alphanumeric string,
// letters counting as 10 to 35. ok is false for any other character.
func mod97(s string) (remainder int, ok bool) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			remainder = (remainder*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			remainder = (remainder*100 + int(c-'A') + 10) % 97
		default:
			return 0, false
		}
	}
	return remainder, true
}

// IsQRIBAN reports whether iban is a QR-IBAN, i.e. its institution id lies
// between 30000 and 31999.
func IsQRIBAN(iban string) bool {
	iban = NormalizeIBAN(iban)
	if len(iban) < 9 || !isDigits(iban[4:9]) {
		return false
	}

	iid := 0
	for i := 4; i < 9; i++ {
		iid = iid*10 + int(iban[i]-'0')
	}

	return iid >= qrIIDMin && iid <= qrIIDMax
}

// FormatIBAN formats an IBAN in blocks of four for display.
func FormatIBAN(iban string) string {
	iban = NormalizeIBAN(iban)

	var blocks []string
	for i := 0; i < len(iban); i += 4 {
		end := i + 4
		if end > len(iban) {
			end = len(iban)
		}
		blocks = append(blocks, iban[i:end])
	}

	return strings.Join(blocks, " ")
}
