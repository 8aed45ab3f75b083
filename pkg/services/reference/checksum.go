package reference

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"qr-slip/pkg/apperrors"
)

var referencePattern = regexp.MustCompile(`^RF\d{2}[A-Z0-9]{1,21}$`)

// ComputeReference returns "RF" + check digits + base for the given base.
func ComputeReference(base string) (string, error) {
	compact := clean(base)
	if compact == "" {
		return "", apperrors.NewValidation("base", "", "empty base")
	}
	if len(compact) > MaxBaseLength {
		return "", apperrors.NewValidation("base", compact,
			fmt.Sprintf("base longer than %d characters (len=%d)", MaxBaseLength, len(compact)))
	}

	// 98 - rem lies in [2, 98], so "00" and "01" are never produced.
	check := 98 - mod97(compact+"RF00")
	return fmt.Sprintf("RF%02d%s", check, compact), nil
}

// FormatGrouped strips whitespace and splits ref into groups of 4 separated
// by a single space; the last group may be shorter.
func FormatGrouped(ref string) string {
	compact := stripSpace(ref)
	var b strings.Builder
	for i := 0; i < len(compact); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := min(i+4, len(compact))
		b.WriteString(compact[i:end])
	}
	return b.String()
}

// Validate checks the shape and the mod-97 check digits of a reference in
// compact or grouped form.
func Validate(ref string) error {
	compact := stripSpace(ref)
	if !referencePattern.MatchString(compact) {
		return apperrors.NewValidation("reference", compact, "not of the form RFnn followed by 1-21 alphanumerics")
	}
	if check := compact[2:4]; check == "00" || check == "01" {
		return apperrors.NewValidation("reference", compact, "check digits 00 and 01 are not allowed")
	}
	if mod97(compact[4:]+compact[:4]) != 1 {
		return apperrors.NewValidation("reference", compact, "check digits do not match")
	}
	return nil
}

// mod97 maps letters to 10..35 and returns the remainder of the resulting
// decimal number, one digit at a time.
func mod97(s string) int {
	rem := 0
	step := func(d int) { rem = (rem*10 + d) % 97 }
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9':
			step(int(ch - '0'))
		case ch >= 'A' && ch <= 'Z':
			v := int(ch-'A') + 10
			step(v / 10)
			step(v % 10)
		}
	}
	return rem
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
