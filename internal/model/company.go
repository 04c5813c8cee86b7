package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Company is a legal entity managed by this installation.
type Company struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	PartnerID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"partner_id"` // how other companies see us
	CurrencyID uuid.UUID `gorm:"type:uuid;not null" json:"currency_id"`

	// Inter-company policy
	CompanyShareProduct       bool       `gorm:"not null" json:"company_share_product"`
	InvoiceAutoValidation     bool       `gorm:"not null" json:"invoice_auto_validation"`
	IntercompanyInvoiceUserID *uuid.UUID `gorm:"type:uuid" json:"intercompany_invoice_user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Currency holds the rounding rules of a currency.
type Currency struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Code          string          `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	Rounding      decimal.Decimal `gorm:"type:decimal(12,6);not null" json:"rounding"` // e.g. 0.01
	DecimalPlaces int32           `gorm:"not null;default:2" json:"decimal_places"`
}

func (c *Currency) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// JournalType enum constants
const (
	JournalTypeSale     = "sale"
	JournalTypePurchase = "purchase"
	JournalTypeGeneral  = "general"
)

// Journal groups documents of one kind inside a company and provides their numbering prefix.
type Journal struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(10);not null" json:"code"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Type      string    `gorm:"type:varchar(20);not null;index" json:"type"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (j *Journal) BeforeCreate(tx *gorm.DB) error {
	assignID(&j.ID)
	return nil
}
