package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is an item that can be invoiced. A nil CompanyID means it is shared by every company.
type Product struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	DefaultCode     string          `gorm:"type:varchar(100);index" json:"default_code"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	CompanyID       *uuid.UUID      `gorm:"type:uuid;index" json:"company_id"`
	UOM             string          `gorm:"column:uom;type:varchar(50);not null;default:'Units'" json:"uom"`
	ListPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"list_price"`     // sales price
	StandardPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"standard_price"` // cost
	SaleTaxRate     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"sale_tax_rate"`
	PurchaseTaxRate decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"purchase_tax_rate"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// DisplayName renders the product the way invoice lines describe it by default.
func (p *Product) DisplayName() string {
	if p.DefaultCode == "" {
		return p.Name
	}
	return "[" + p.DefaultCode + "] " + p.Name
}

// AnalyticAccount is a cost/revenue dimension; a nil CompanyID means it is shared.
type AnalyticAccount struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	CreatedAt time.Time  `json:"created_at"`
}

func (a *AnalyticAccount) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

// AnalyticTag is a free label on a line; a nil CompanyID means it is shared.
type AnalyticTag struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	CreatedAt time.Time  `json:"created_at"`
}

func (a *AnalyticTag) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
