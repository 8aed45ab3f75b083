package models

import "strings"

// SlipRequest is the payload for generating a payment slip
type SlipRequest struct {
	Amount   string `json:"amount"`
	IBAN     string `json:"iban"`
	Currency string `json:"currency"`
	Lang     string `json:"lang"`

	CreditorName    string `json:"creditor_name"`
	CreditorZip     string `json:"creditor_zip"`
	CreditorCity    string `json:"creditor_city"`
	CreditorStreet  string `json:"creditor_street"`
	CreditorHouseNo string `json:"creditor_house_no"`

	DebtorName   string `json:"debtor_name"`
	DebtorStreet string `json:"debtor_street"`
	DebtorZip    string `json:"debtor_zip"`
	DebtorCity   string `json:"debtor_city"`

	// Reference identifier fields
	Prefix        string `json:"mt_prefix"`
	Year          int    `json:"year"`
	ClientCode    string `json:"client_code"`
	CompanyCode   string `json:"company_code" binding:"required"`
	InvoiceNumber string `json:"invoice_no" binding:"required"`

	// Supplementary printed block
	InfoCompany string `json:"info_company"`
	InfoLine1   string `json:"info_line1"`
	InfoLine2   string `json:"info_line2"`
}

// DefaultSlipRequest returns a request populated with the service defaults.
// JSON decoding on top of it overrides only the fields present.
func DefaultSlipRequest() SlipRequest {
	return SlipRequest{
		Amount:          "162.15",
		IBAN:            "CH15 0076 8300 1685 0780 5",
		Currency:        "CHF",
		Lang:            "fr",
		CreditorName:    "Meno Transport",
		CreditorZip:     "1785",
		CreditorCity:    "CRESSIER",
		CreditorStreet:  "Route de la Gare",
		CreditorHouseNo: "100",
		DebtorName:      "King Jouet SA",
		DebtorStreet:    "Centre Commercial Pam Center",
		DebtorZip:       "1964",
		DebtorCity:      "Conthey",
		Prefix:          "MT00",
		ClientCode:      "KJ00",
		InfoCompany:     "KING JOUET",
		InfoLine1:       "Avenue Cardinal-Mermillod 36",
		InfoLine2:       "1227 Carouge GE",
	}
}

// Identifier extracts the reference identifier fields
func (r SlipRequest) Identifier() InvoiceIdentifier {
	return InvoiceIdentifier{
		StoreCode:     r.CompanyCode,
		InvoiceNumber: r.InvoiceNumber,
		Year:          r.Year,
		Prefix:        r.Prefix,
		ClientTag:     r.ClientCode,
	}
}

// Creditor returns the creditor address
func (r SlipRequest) Creditor() Address {
	return Address{
		Name:    r.CreditorName,
		Street:  strings.TrimSpace(r.CreditorStreet),
		HouseNo: strings.TrimSpace(r.CreditorHouseNo),
		Zip:     r.CreditorZip,
		City:    r.CreditorCity,
		Country: "CH",
	}
}

// Debtor returns the debtor address
func (r SlipRequest) Debtor() Address {
	return Address{
		Name:    r.DebtorName,
		Street:  r.DebtorStreet,
		Zip:     r.DebtorZip,
		City:    r.DebtorCity,
		Country: "CH",
	}
}

// InfoLines returns the trimmed supplementary lines in print order
func (r SlipRequest) InfoLines() []string {
	return []string{
		strings.TrimSpace(r.InfoCompany),
		strings.TrimSpace(r.InfoLine1),
		strings.TrimSpace(r.InfoLine2),
	}
}
