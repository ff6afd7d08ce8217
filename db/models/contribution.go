package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	registerModel(&PilaContribution{})
}

// PilaContribution is a stored social security contribution for one period.
type PilaContribution struct {
	gorm.Model
	UserID     uint            `gorm:"index;not null"`
	Period     string          `gorm:"size:7;index"`
	BaseIncome decimal.Decimal `gorm:"type:decimal(18,2)"`
	Health     decimal.Decimal `gorm:"type:decimal(18,2)"`
	Pension    decimal.Decimal `gorm:"type:decimal(18,2)"`
	ARL        decimal.Decimal `gorm:"type:decimal(18,2)"`
}

func (p *PilaContribution) Total() decimal.Decimal {
	return p.Health.Add(p.Pension).Add(p.ARL)
}
