package checkout

import "testing"

func TestFormatDocument(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"empty":             {"", ""},
		"partial cpf":       {"123", "123"},
		"cpf with dot":      {"1234", "123.4"},
		"full cpf":          {"12345678901", "123.456.789-01"},
		"already formatted": {"123.456.789-01", "123.456.789-01"},
		"full cnpj":         {"12345678000195", "12.345.678/0001-95"},
		"cnpj overflow":     {"123456780001951111", "12.345.678/0001-95"},
		"strips letters":    {"12a34b5", "123.45"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := FormatDocument(tc.in); got != tc.want {
				t.Fatalf("FormatDocument(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDocumentType(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"cpf":            {"12345678901", "cpf"},
		"formatted cpf":  {"123.456.789-01", "cpf"},
		"cnpj":           {"12345678000195", "cnpj"},
		"formatted cnpj": {"12.345.678/0001-95", "cnpj"},
		"short":          {"123", "cpf"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := DocumentType(tc.in); got != tc.want {
				t.Fatalf("DocumentType(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatPhone(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"empty":        {"", ""},
		"ddd only":     {"11", "(11"},
		"landline":     {"1133334444", "(11) 3333-4444"},
		"mobile":       {"11987654321", "(11) 98765-4321"},
		"partial":      {"11987", "(11) 987"},
		"overflow":     {"119876543219999", "(11) 98765-4321"},
		"with symbols": {"(11) 98765-4321", "(11) 98765-4321"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := FormatPhone(tc.in); got != tc.want {
				t.Fatalf("FormatPhone(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatCEP(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"empty":    {"", ""},
		"partial":  {"014", "014"},
		"full":     {"01415001", "01415-001"},
		"dashed":   {"01415-001", "01415-001"},
		"overflow": {"014150019999", "01415-001"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := FormatCEP(tc.in); got != tc.want {
				t.Fatalf("FormatCEP(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
