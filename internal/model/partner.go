package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Partner represents a customer, supplier, contact or company address.
// A nil CompanyID means the record is shared by every company.
type Partner struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string     `gorm:"type:varchar(255);not null" json:"name"`
	ParentID        *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	CompanyID       *uuid.UUID `gorm:"type:uuid;index" json:"company_id"`
	IsCompany       bool       `gorm:"not null" json:"is_company"`
	TaxCode         string     `gorm:"type:varchar(50)" json:"tax_code"`
	Email           string     `gorm:"type:varchar(255)" json:"email"`
	Phone           string     `gorm:"type:varchar(50)" json:"phone"`
	PaymentTermDays int        `gorm:"not null;default:0" json:"payment_term_days"`
	IsActive        bool       `gorm:"not null" json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (p *Partner) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
