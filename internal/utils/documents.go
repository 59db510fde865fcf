// internal/utils/documents.go
package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	cpfFirstWeights   = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfSecondWeights  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

	mailboxPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	statePattern   = regexp.MustCompile(`^[A-Z]{2}$`)
)

// OnlyDigits strips everything but ASCII digits.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCPF checks the two mod-11 check digits of an individual taxpayer id.
// Masked input ("529.982.247-25") is accepted. Sequences of one repeated digit are
// rejected even when their check digits happen to match.
func ValidateCPF(cpf string) bool {
	digits := OnlyDigits(cpf)
	if len(digits) != 11 || allSameDigit(digits) {
		return false
	}
	return checkDigit(digits[:9], cpfFirstWeights) == int(digits[9]-'0') &&
		checkDigit(digits[:10], cpfSecondWeights) == int(digits[10]-'0')
}

// ValidateCNPJ checks the two mod-11 check digits of a company registry id.
func ValidateCNPJ(cnpj string) bool {
	digits := OnlyDigits(cnpj)
	if len(digits) != 14 || allSameDigit(digits) {
		return false
	}
	return checkDigit(digits[:12], cnpjFirstWeights) == int(digits[12]-'0') &&
		checkDigit(digits[:13], cnpjSecondWeights) == int(digits[13]-'0')
}

// ValidateCEP reports whether the postal code has exactly 8 digits once the mask is removed.
func ValidateCEP(cep string) bool {
	return len(OnlyDigits(cep)) == 8
}

// ValidatePhone reports whether the phone carries at least area code + 8 digits.
func ValidatePhone(phone string) bool {
	return len(OnlyDigits(phone)) >= 10
}

// ValidateMailbox matches the local@domain.tld shape.
func ValidateMailbox(email string) bool {
	return mailboxPattern.MatchString(email)
}

// ValidateStateCode matches a two-letter federative unit code.
func ValidateStateCode(uf string) bool {
	return statePattern.MatchString(uf)
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

// Masks

// FormatCPF renders up to 11 digits as 000.000.000-00, leaving partial input partially masked.
func FormatCPF(s string) string {
	return applyMask(OnlyDigits(s), "###.###.###-##")
}

// FormatCNPJ renders up to 14 digits as 00.000.000/0000-00.
func FormatCNPJ(s string) string {
	return applyMask(OnlyDigits(s), "##.###.###/####-##")
}

// FormatCEP renders up to 8 digits as 00000-000.
func FormatCEP(s string) string {
	return applyMask(OnlyDigits(s), "#####-###")
}

// FormatPhone renders landlines as (00) 0000-0000 and mobiles as (00) 00000-0000.
func FormatPhone(s string) string {
	digits := OnlyDigits(s)
	if len(digits) > 10 {
		return applyMask(digits, "(##) #####-####")
	}
	return applyMask(digits, "(##) ####-####")
}

// FormatStateCode upper-cases and truncates a federative unit code.
func FormatStateCode(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) > 2 {
		s = s[:2]
	}
	return s
}

func applyMask(digits, mask string) string {
	if digits == "" {
		return ""
	}
	var b strings.Builder
	i := 0
	for _, m := range mask {
		if i >= len(digits) {
			break
		}
		if m == '#' {
			b.WriteByte(digits[i])
			i++
			continue
		}
		b.WriteRune(m)
	}
	// digits beyond the mask are dropped, like a maxLength input
	return strings.TrimRightFunc(b.String(), func(r rune) bool { return !unicode.IsDigit(r) })
}
