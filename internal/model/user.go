package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an identity that acts on documents. CompanyID is the home company;
// Companies lists every company the user may operate in.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`   // Omit password from JSON requests/responses
	Role      string         `gorm:"type:varchar(50);not null" json:"role"` // admin, accountant
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Companies []Company      `gorm:"many2many:user_companies;" json:"companies,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// Role constants
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
)

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// AllowedCompanyIDs returns the home company plus every explicitly allowed company.
func (u *User) AllowedCompanyIDs() []uuid.UUID {
	ids := []uuid.UUID{u.CompanyID}
	for _, c := range u.Companies {
		if c.ID != u.CompanyID {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
