// Package lookup validates identifiers before they are sent to the paid
// consultation endpoints.
package lookup

import (
	"strings"

	dasherrors "github.com/jrsteele09/consulta-dashboard/internal/errors"
)

const cpfLength = 11

// NormalizeCPF strips punctuation and returns the 11 digit form, or
// ErrInvalidCPF when the check digits do not match.
func NormalizeCPF(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == ' ':
		default:
			return "", dasherrors.ErrInvalidCPF
		}
	}

	cpf := b.String()
	if !ValidCPF(cpf) {
		return "", dasherrors.ErrInvalidCPF
	}
	return cpf, nil
}

// ValidCPF checks length, repeated-digit sequences and both check digits
func ValidCPF(cpf string) bool {
	if len(cpf) != cpfLength {
		return false
	}

	digits := make([]int, cpfLength)
	allSame := true
	for i := range cpf {
		if cpf[i] < '0' || cpf[i] > '9' {
			return false
		}
		digits[i] = int(cpf[i] - '0')
		if digits[i] != digits[0] {
			allSame = false
		}
	}
	if allSame {
		return false
	}

	return checkDigit(digits[:9]) == digits[9] && checkDigit(digits[:10]) == digits[10]
}

func checkDigit(digits []int) int {
	sum := 0
	weight := len(digits) + 1
	for _, d := range digits {
		sum += d * weight
		weight--
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		return 0
	}
	return rest
}

// MaskCPF hides the middle digits for logging
func MaskCPF(cpf string) string {
	if len(cpf) != cpfLength {
		return "***"
	}
	return cpf[:3] + ".***.***-" + cpf[9:]
}
