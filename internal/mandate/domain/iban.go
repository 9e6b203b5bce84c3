package domain

import (
	"regexp"
	"strings"
)

// IBAN length per country, ISO 13616 registry. Countries missing from the
// table fall back to the generic 15..34 structural bound.
var ibanLengths = map[string]int{
	"AD": 24, "AT": 20, "BE": 16, "BG": 22, "CH": 21, "CY": 28, "CZ": 24,
	"DE": 22, "DK": 18, "EE": 20, "ES": 24, "FI": 18, "FR": 27, "GB": 22,
	"GR": 27, "HR": 21, "HU": 28, "IE": 22, "IS": 26, "IT": 27, "LI": 21,
	"LT": 20, "LU": 20, "LV": 21, "MC": 27, "MT": 31, "NL": 18, "NO": 15,
	"PL": 28, "PT": 25, "RO": 24, "SE": 24, "SI": 19, "SK": 24, "SM": 27,
}

var (
	ibanCharset = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]+$`)
	bicPattern  = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
)

// NormalizeIBAN strips spaces and uppercases for storage and validation.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}

// ValidIBAN performs the ISO 13616 structural check: charset, country
// length, and the mod-97 checksum over the rearranged numeric form.
func ValidIBAN(iban string) bool {
	normalized := NormalizeIBAN(iban)
	if len(normalized) < 15 || len(normalized) > 34 {
		return false
	}
	if !ibanCharset.MatchString(normalized) {
		return false
	}
	if want, ok := ibanLengths[normalized[:2]]; ok && len(normalized) != want {
		return false
	}

	// Move the country code and check digits to the end, then map letters
	// to numbers (A=10..Z=35) and take the remainder incrementally so the
	// value never overflows.
	rearranged := normalized[4:] + normalized[:4]
	remainder := 0
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			remainder = (remainder*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			remainder = (remainder*100 + v) % 97
		default:
			return false
		}
	}
	return remainder == 1
}

// ValidBIC checks the ISO 9362 pattern: 4 letter bank code, 2 letter
// country code, 2 alphanumeric location code, optional 3 char branch.
func ValidBIC(bic string) bool {
	return bicPattern.MatchString(strings.ToUpper(strings.TrimSpace(bic)))
}
