package domain

import "testing"

func TestValidIBAN(t *testing.T) {
	cases := []struct {
		iban string
		want bool
	}{
		{"ES9121000418450200051332", true},
		{"es91 2100 0418 4502 0005 1332", true},
		{"DE89370400440532013000", true},
		{"GB29NWBK60161331926819", true},
		{"FR1420041010050500013M02606", true},
		{"ES9121000418450200051333", false}, // bad checksum
		{"ES91210004184502000513", false},   // wrong length for ES
		{"XX9121000418450200051332", false}, // unknown country, checksum fails
		{"ES91!1000418450200051332", false}, // illegal character
		{"ES91", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := ValidIBAN(tc.iban); got != tc.want {
			t.Errorf("ValidIBAN(%q) = %v, want %v", tc.iban, got, tc.want)
		}
	}
}

func TestNormalizeIBAN(t *testing.T) {
	got := NormalizeIBAN("  es91 2100 0418 4502 0005 1332 ")
	if got != "ES9121000418450200051332" {
		t.Fatalf("NormalizeIBAN = %q", got)
	}
}

func TestValidBIC(t *testing.T) {
	cases := []struct {
		bic  string
		want bool
	}{
		{"CAIXESBBXXX", true},
		{"CAIXESBB", true},
		{"caixesbb", true},
		{"DEUTDEFF500", true},
		{"CAIXESB", false},     // too short
		{"CAIXESBBXX", false},  // branch must be 0 or 3 chars
		{"12IXESBB", false},    // bank code must be letters
		{"", false},
	}

	for _, tc := range cases {
		if got := ValidBIC(tc.bic); got != tc.want {
			t.Errorf("ValidBIC(%q) = %v, want %v", tc.bic, got, tc.want)
		}
	}
}
