package invoice

import (
	"fmt"
	"strings"

	"stockbid/internal/biderrors"
)

const (
	defaultCountryCode = "91"
	minPhoneDigits     = 10
	maxPhoneDigits     = 15
)

// NormalizePhone strips every non-digit from the raw input, prefixes the
// default country code to bare 10-digit numbers, and returns a +-prefixed
// destination. Numbers outside [10,15] digits after normalization are
// rejected here, before any network attempt.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	normalized := digits.String()
	if len(normalized) == minPhoneDigits {
		normalized = defaultCountryCode + normalized
	}

	if len(normalized) < minPhoneDigits || len(normalized) > maxPhoneDigits {
		return "", fmt.Errorf("normalize %q: %w - %d digits after normalization",
			raw, biderrors.ErrInvalidPhone, len(normalized))
	}

	return "+" + normalized, nil
}
