package checkout

import (
	"strings"

	"marketplace-storefront/internal/validation"
)

// FormatCardNumber keeps at most 16 digits and groups them by four:
// "4111111111111111" -> "4111 1111 1111 1111".
func FormatCardNumber(input string) string {
	digits := validation.Digits(input)
	if len(digits) > 16 {
		digits = digits[:16]
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatExpiry keeps at most 4 digits and inserts the slash once a third
// digit is typed: "1225" -> "12/25", "99" -> "99".
func FormatExpiry(input string) string {
	digits := validation.Digits(input)
	if len(digits) > 4 {
		digits = digits[:4]
	}
	if len(digits) < 3 {
		return digits
	}
	return digits[:2] + "/" + digits[2:]
}

// FormatCVV keeps at most 4 digits.
func FormatCVV(input string) string {
	digits := validation.Digits(input)
	if len(digits) > 4 {
		digits = digits[:4]
	}
	return digits
}

// CardBrand guesses the network from the first digit.
func CardBrand(number string) string {
	digits := validation.Digits(number)
	if digits == "" {
		return ""
	}
	switch digits[0] {
	case '3':
		return "amex"
	case '4':
		return "visa"
	case '5':
		return "mastercard"
	case '6':
		return "discover"
	}
	return "unknown"
}

func last4(number string) string {
	digits := validation.Digits(number)
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
