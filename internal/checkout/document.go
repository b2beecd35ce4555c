package checkout

import "strings"

// Digits strips everything but ASCII digits from s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatDocument formats a partially typed CPF or CNPJ. Up to 11 digits the
// value is treated as a CPF (000.000.000-00), beyond that as a CNPJ
// (00.000.000/0000-00). Input is capped at 14 digits.
func FormatDocument(s string) string {
	d := Digits(s)
	if len(d) > 14 {
		d = d[:14]
	}

	if len(d) <= 11 {
		return formatProgressive(d, map[int]string{3: ".", 6: ".", 9: "-"})
	}
	return formatProgressive(d, map[int]string{2: ".", 5: ".", 8: "/", 12: "-"})
}

// DocumentType reports the gateway document type for a CPF or CNPJ value.
func DocumentType(s string) string {
	if len(Digits(s)) > 11 {
		return "cnpj"
	}
	return "cpf"
}

// FormatPhone formats a partially typed Brazilian phone number. Up to 10
// digits as (00) 0000-0000, 11 digits as (00) 00000-0000.
func FormatPhone(s string) string {
	d := Digits(s)
	if len(d) > 11 {
		d = d[:11]
	}

	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 2:
		return "(" + d
	}

	rest := d[2:]
	hyphenAt := 4
	if len(d) == 11 {
		hyphenAt = 5
	}
	out := "(" + d[:2] + ") "
	if len(rest) <= hyphenAt {
		return out + rest
	}
	return out + rest[:hyphenAt] + "-" + rest[hyphenAt:]
}

// FormatCEP formats a partially typed CEP as 00000-000, capped at 8 digits.
func FormatCEP(s string) string {
	d := Digits(s)
	if len(d) > 8 {
		d = d[:8]
	}
	if len(d) <= 5 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

func formatProgressive(d string, seps map[int]string) string {
	var b strings.Builder
	for i, r := range d {
		if sep, ok := seps[i]; ok {
			b.WriteString(sep)
		}
		b.WriteRune(r)
	}
	return b.String()
}
