package reference

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qr-slip/pkg/apperrors"
	"qr-slip/pkg/models"
)

var fixedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func TestBuildBaseAt(t *testing.T) {
	tests := []struct {
		name string
		id   models.InvoiceIdentifier
		want string
	}{
		{
			name: "regression fixture",
			id:   models.InvoiceIdentifier{StoreCode: "0960", InvoiceNumber: "1929", Year: 2026, Prefix: "MT00", ClientTag: "KJ00"},
			want: "MT002026KJ0009601929",
		},
		{
			name: "year defaults to clock",
			id:   models.InvoiceIdentifier{StoreCode: "0123", InvoiceNumber: "1", Prefix: "MT00", ClientTag: "KJ00"},
			want: "MT002026KJ0001231",
		},
		{
			name: "non digits stripped from numeric fields",
			id:   models.InvoiceIdentifier{StoreCode: "09-60", InvoiceNumber: "#19 29", Year: 2025, Prefix: "MT00", ClientTag: "KJ00"},
			want: "MT002025KJ0009601929",
		},
		{
			name: "tags uppercased and cleaned",
			id:   models.InvoiceIdentifier{StoreCode: "0960", InvoiceNumber: "12345", Year: 2026, Prefix: "mt-00", ClientTag: "kj 00"},
			want: "MT002026KJ00096012345",
		},
		{
			name: "empty tags",
			id:   models.InvoiceIdentifier{StoreCode: "0001", InvoiceNumber: "7", Year: 999},
			want: "099900017",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildBaseAt(tt.id, fixedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildBaseAt_Validation(t *testing.T) {
	tests := []struct {
		name  string
		id    models.InvoiceIdentifier
		field string
	}{
		{"short store code", models.InvoiceIdentifier{StoreCode: "960", InvoiceNumber: "1929"}, "store_code"},
		{"long store code", models.InvoiceIdentifier{StoreCode: "09600", InvoiceNumber: "1929"}, "store_code"},
		{"letters only store code", models.InvoiceIdentifier{StoreCode: "ABCD", InvoiceNumber: "1929"}, "store_code"},
		{"empty invoice", models.InvoiceIdentifier{StoreCode: "0960", InvoiceNumber: "n/a"}, "invoice_number"},
		{"long invoice", models.InvoiceIdentifier{StoreCode: "0960", InvoiceNumber: "123456"}, "invoice_number"},
		{"year too large", models.InvoiceIdentifier{StoreCode: "0960", InvoiceNumber: "1", Year: 10000}, "year"},
		{"negative year", models.InvoiceIdentifier{StoreCode: "0960", InvoiceNumber: "1", Year: -5}, "year"},
		{"base too long", models.InvoiceIdentifier{StoreCode: "0960", InvoiceNumber: "12345", Year: 2026, Prefix: "MT000", ClientTag: "KJ00"}, "base"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildBaseAt(tt.id, fixedNow)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestComputeReference(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"MT002026KJ0009601929", "RF56MT002026KJ0009601929"},
		{"539007547034", "RF18539007547034"},
		{"A", "RF25A"},
		{"MT002025KJ0001231", "RF03MT002025KJ0001231"},
		{"mt00-2026 kj00 0960 1929", "RF56MT002026KJ0009601929"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := ComputeReference(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeReference_Validation(t *testing.T) {
	for _, base := range []string{"", "  ", "--", strings.Repeat("A", 22)} {
		_, err := ComputeReference(base)
		assert.True(t, apperrors.IsValidation(err), "base %q", base)
	}

	ref, err := ComputeReference(strings.Repeat("Z", 21))
	require.NoError(t, err)
	assert.Len(t, ref, 25)
}

func TestComputeReference_Deterministic(t *testing.T) {
	first, err := ComputeReference("MT002026KJ0009601929")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ComputeReference("MT002026KJ0009601929")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGeneratedReferences(t *testing.T) {
	pattern := regexp.MustCompile(`^RF\d{2}[A-Z0-9]{1,21}$`)

	for store := 0; store < 10000; store += 397 {
		for _, invoice := range []string{"1", "42", "999", "1929", "99999"} {
			id := models.InvoiceIdentifier{
				StoreCode:     fmt.Sprintf("%04d", store),
				InvoiceNumber: invoice,
				Year:          2026,
				Prefix:        "MT00",
				ClientTag:     "KJ00",
			}
			base, err := BuildBaseAt(id, fixedNow)
			require.NoError(t, err)

			ref, err := ComputeReference(base)
			require.NoError(t, err)

			assert.Regexp(t, pattern, ref)
			assert.Equal(t, 1, mod97(ref[4:]+ref[:4]), "self-check for %s", ref)
			assert.NotContains(t, []string{"00", "01"}, ref[2:4])
			assert.NoError(t, Validate(ref))

			grouped := FormatGrouped(ref)
			assert.Equal(t, ref, strings.ReplaceAll(grouped, " ", ""))
		}
	}
}

func TestFormatGrouped(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RF56MT002026KJ0009601929", "RF56 MT00 2026 KJ00 0960 1929"},
		{"RF03MT002025KJ0001231", "RF03 MT00 2025 KJ00 0123 1"},
		{"RF18 5390 0754 7034", "RF18 5390 0754 7034"},
		{" RF18\t539007 547034\n", "RF18 5390 0754 7034"},
		{"RF25A", "RF25 A"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FormatGrouped(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, stripSpace(tt.in), strings.ReplaceAll(got, " ", ""))
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("RF18 5390 0754 7034"))
	assert.NoError(t, Validate("RF56MT002026KJ0009601929"))

	tests := []struct {
		name string
		ref  string
	}{
		{"wrong check digits", "RF19539007547034"},
		{"lowercase", "rf18539007547034"},
		{"missing base", "RF18"},
		{"base too long", "RF18" + strings.Repeat("1", 22)},
		{"check 00", "RF00539007547034"},
		{"check 01", "RF01539007547034"},
		{"not rf", "XX18539007547034"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperrors.IsValidation(Validate(tt.ref)))
		})
	}
}

func TestFromIdentifier(t *testing.T) {
	ref, err := FromIdentifier(models.InvoiceIdentifier{
		StoreCode: "0960", InvoiceNumber: "1929", Year: 2026, Prefix: "MT00", ClientTag: "KJ00",
	})
	require.NoError(t, err)
	assert.Equal(t, "RF56MT002026KJ0009601929", ref)

	_, err = FromIdentifier(models.InvoiceIdentifier{StoreCode: "1", InvoiceNumber: "1"})
	assert.True(t, apperrors.IsValidation(err))
}
