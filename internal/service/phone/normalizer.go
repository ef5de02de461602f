package phone

import (
	"fmt"
	"strings"

	"github.com/acme/lead-call-relay/internal/domain"
	apperrors "github.com/acme/lead-call-relay/pkg/errors"
)

const defaultCountryCode = "1"

// Normalize converts a free-form phone string into a +<digits> value.
//
// Input starting with + keeps its country code as written. Otherwise ten
// digits are treated as a US number, eleven digits starting with 1 as a US
// number with its country code, and anything longer as already carrying a
// country code. This is a shape check only; the calling API does the final
// validation.
func Normalize(raw string) (domain.PhoneNumber, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: phone number is empty", apperrors.ErrInvalidPhone)
	}

	if strings.HasPrefix(trimmed, "+") {
		return domain.PhoneNumber("+" + digitsOnly(trimmed[1:])), nil
	}

	d := digitsOnly(trimmed)
	switch {
	case len(d) == 11 && d[0] == '1':
		return domain.PhoneNumber("+" + d), nil
	case len(d) == 10:
		return domain.PhoneNumber("+" + defaultCountryCode + d), nil
	case len(d) > 11:
		return domain.PhoneNumber("+" + d), nil
	}

	return "", fmt.Errorf("%w: cannot normalize %q", apperrors.ErrInvalidPhone, raw)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Mask hides all but the last four digits for logging.
func Mask(p domain.PhoneNumber) string {
	s := string(p)
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
