package annotate

// Layout holds the placement constants of the supplementary block, in the
// document's user units.
type Layout struct {
	DebtorClearance     float64 // gap between the debtor block bottom and the header
	FallbackClearance   float64 // gap under the anchor when no debtor block is found
	FontSize            float64
	LineGap             float64
	ShiftLeft           float64 // x shift on the receipt side
	ShiftRight          float64 // x shift on the payment side
	Tolerance           float64 // half width of the column around an anchor
	DebtorSpan          float64 // how far below "Payable by" debtor lines are searched
	CurrencyMargin      float64 // minimum gap kept above the "Currency" label
	ReferenceLabelDelta float64 // fallback anchor offset under the "Reference" label
}

// DefaultLayout returns the constants tuned for the QR-bill SVG template.
func DefaultLayout() Layout {
	return Layout{
		DebtorClearance:     22,
		FallbackClearance:   20,
		FontSize:            10,
		LineGap:             12,
		ShiftLeft:           0,
		ShiftRight:          0,
		Tolerance:           60,
		DebtorSpan:          240,
		CurrencyMargin:      6,
		ReferenceLabelDelta: 12,
	}
}

// Labels is the fixed set of field labels printed by the slip generator,
// plus the header of the injected block.
type Labels struct {
	Header       string
	Reference    string
	PayableBy    string
	Currency     string
	Amount       string
	Account      string
	DepositPoint string
	Receipt      string
	PaymentPart  string
}

// FrenchLabels returns the labels of a French QR-bill.
func FrenchLabels() Labels {
	return Labels{
		Header:       "Informations complémentaires",
		Reference:    "Référence",
		PayableBy:    "Payable par",
		Currency:     "Monnaie",
		Amount:       "Montant",
		Account:      "Compte / Payable à",
		DepositPoint: "Point de dépôt",
		Receipt:      "Récépissé",
		PaymentPart:  "Section paiement",
	}
}

// fieldLabels returns the labels that never count as debtor address lines.
func (l Labels) fieldLabels() map[string]bool {
	set := make(map[string]bool, 8)
	for _, s := range []string{
		l.Currency, l.Amount, l.Account, l.Reference,
		l.PayableBy, l.DepositPoint, l.Receipt, l.PaymentPart,
	} {
		if s != "" {
			set[normalize(s)] = true
		}
	}
	return set
}
