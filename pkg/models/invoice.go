package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice records an issued payment slip. The structured reference is not
// stored: it is recomputed from the identifier fields.
type Invoice struct {
	gorm.Model
	RequestID     uuid.UUID       `gorm:"type:uuid;index" json:"request_id"`
	StoreCode     string          `gorm:"type:varchar(4);not null;index" json:"store_code"`
	InvoiceNumber string          `gorm:"type:varchar(5);not null" json:"invoice_number"`
	Year          int             `gorm:"not null" json:"year"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'CHF'" json:"currency"`
	DebtorName    string          `json:"debtor_name"`
	Filename      string          `json:"filename"`
}

// InvoiceIdentifier holds the raw invoice metadata a structured reference is
// derived from
type InvoiceIdentifier struct {
	StoreCode     string
	InvoiceNumber string
	Year          int // 0 means the current calendar year
	Prefix        string
	ClientTag     string
}

// Address is a structured postal address on the slip
type Address struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	HouseNo string `json:"house_no"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// StreetLine joins street and house number.
func (a Address) StreetLine() string {
	if a.HouseNo == "" {
		return a.Street
	}
	if a.Street == "" {
		return a.HouseNo
	}
	return a.Street + " " + a.HouseNo
}
