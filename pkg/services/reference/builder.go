// Package reference builds ISO 11649 structured creditor references from
// invoice identifiers.
package reference

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"qr-slip/pkg/apperrors"
	"qr-slip/pkg/models"
)

// MaxBaseLength is the longest base an ISO 11649 reference can carry
const MaxBaseLength = 21

var (
	nonDigit = regexp.MustCompile(`\D`)
	nonAlnum = regexp.MustCompile(`[^0-9A-Z]`)
)

// BuildBase normalizes an identifier into a reference base using the current
// calendar year when the identifier carries none.
func BuildBase(id models.InvoiceIdentifier) (string, error) {
	return BuildBaseAt(id, time.Now())
}

// BuildBaseAt is BuildBase with an explicit clock.
//
// The base is prefix + year + client tag + store code + invoice number,
// uppercased and stripped to [A-Z0-9].
func BuildBaseAt(id models.InvoiceIdentifier, now time.Time) (string, error) {
	store := nonDigit.ReplaceAllString(id.StoreCode, "")
	invoice := nonDigit.ReplaceAllString(id.InvoiceNumber, "")

	if len(store) != 4 {
		return "", apperrors.NewValidation("store_code", store, "store code must be exactly 4 digits (e.g. 0960)")
	}
	if invoice == "" {
		return "", apperrors.NewValidation("invoice_number", invoice, "invoice number must contain digits")
	}
	if len(invoice) > 5 {
		return "", apperrors.NewValidation("invoice_number", invoice, "invoice number must have at most 5 digits")
	}

	year := id.Year
	if year == 0 {
		year = now.Year()
	}
	if year < 1 || year > 9999 {
		return "", apperrors.NewValidation("year", fmt.Sprint(year), "year must fit in 4 digits")
	}

	base := clean(fmt.Sprintf("%s%04d%s%s%s", clean(id.Prefix), year, clean(id.ClientTag), store, invoice))
	if len(base) > MaxBaseLength {
		return "", apperrors.NewValidation("base", base, fmt.Sprintf("base longer than %d characters", MaxBaseLength))
	}
	return base, nil
}

// FromIdentifier builds the base and the full reference in one step
func FromIdentifier(id models.InvoiceIdentifier) (string, error) {
	base, err := BuildBase(id)
	if err != nil {
		return "", err
	}
	return ComputeReference(base)
}

func clean(s string) string {
	return nonAlnum.ReplaceAllString(strings.ToUpper(s), "")
}
