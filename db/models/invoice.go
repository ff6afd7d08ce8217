package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft    InvoiceStatus = "BORRADOR"
	InvoiceStatusSent     InvoiceStatus = "ENVIADA"
	InvoiceStatusAccepted InvoiceStatus = "ACEPTADA"
	InvoiceStatusRejected InvoiceStatus = "RECHAZADA"
)

func init() {
	registerModel(&ElectronicInvoice{})
}

type ElectronicInvoice struct {
	gorm.Model
	UserID uint            `gorm:"index;not null"`
	Number string          `gorm:"size:64"`
	CUFE   string          `gorm:"size:96;index"`
	Status InvoiceStatus   `gorm:"size:32;default:BORRADOR"`
	Total  decimal.Decimal `gorm:"type:decimal(18,2)"`
}
