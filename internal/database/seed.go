package database

import (
	"errors"
	"fmt"

	"intercompany/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrAlreadySeeded is returned by SeedDemo when the demo currency already exists.
var ErrAlreadySeeded = errors.New("demo data already present")

// Demo holds the records created by SeedDemo.
type Demo struct {
	Currency model.Currency

	CompanyA, CompanyB model.Company
	// representative partners, shared by both companies
	PartnerA, PartnerB model.Partner
	// contact of PartnerB; invoices addressed to it resolve to CompanyB
	ContactB model.Partner

	SaleJournalA, PurchaseJournalA model.Journal
	SaleJournalB, PurchaseJournalB model.Journal

	SharedProduct  model.Product
	PrivateProduct model.Product // owned by CompanyA

	SharedAccount  model.AnalyticAccount
	PrivateAccount model.AnalyticAccount // owned by CompanyA
	SharedTag      model.AnalyticTag
	PrivateTag     model.AnalyticTag // owned by CompanyA

	AdminA, AccountantB model.User
}

// SeedDemo creates two managed companies trading with each other. Users get
// password as their login secret.
func SeedDemo(db *gorm.DB, password string, cost int) (*Demo, error) {
	var count int64
	if err := db.Model(&model.Currency{}).Where("code = ?", "USD").Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadySeeded
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	d := &Demo{}
	err = db.Transaction(func(tx *gorm.DB) error {
		d.Currency = model.Currency{Code: "USD", Rounding: decimal.RequireFromString("0.01"), DecimalPlaces: 2}
		if err := tx.Create(&d.Currency).Error; err != nil {
			return err
		}

		d.PartnerA = model.Partner{Name: "Company A", IsCompany: true, IsActive: true}
		d.PartnerB = model.Partner{Name: "Company B", IsCompany: true, IsActive: true, PaymentTermDays: 30}
		if err := tx.Create(&d.PartnerA).Error; err != nil {
			return err
		}
		if err := tx.Create(&d.PartnerB).Error; err != nil {
			return err
		}
		d.ContactB = model.Partner{Name: "Company B, Purchasing", ParentID: &d.PartnerB.ID, IsActive: true}
		if err := tx.Create(&d.ContactB).Error; err != nil {
			return err
		}

		d.CompanyA = model.Company{Name: "Company A", PartnerID: d.PartnerA.ID, CurrencyID: d.Currency.ID}
		d.CompanyB = model.Company{
			Name:                  "Company B",
			PartnerID:             d.PartnerB.ID,
			CurrencyID:            d.Currency.ID,
			InvoiceAutoValidation: true,
		}
		if err := tx.Create(&d.CompanyA).Error; err != nil {
			return err
		}
		if err := tx.Create(&d.CompanyB).Error; err != nil {
			return err
		}

		journals := []struct {
			dst       *model.Journal
			code      string
			typ       string
			companyID uuid.UUID
		}{
			{&d.SaleJournalA, "INV", model.JournalTypeSale, d.CompanyA.ID},
			{&d.PurchaseJournalA, "BILL", model.JournalTypePurchase, d.CompanyA.ID},
			{&d.SaleJournalB, "INV", model.JournalTypeSale, d.CompanyB.ID},
			{&d.PurchaseJournalB, "BILL", model.JournalTypePurchase, d.CompanyB.ID},
		}
		for _, j := range journals {
			*j.dst = model.Journal{Code: j.code, Name: j.code + " journal", Type: j.typ, CompanyID: j.companyID}
			if err := tx.Create(j.dst).Error; err != nil {
				return err
			}
		}

		d.SharedProduct = model.Product{
			DefaultCode:     "CONS",
			Name:            "Consulting",
			UOM:             "Hours",
			ListPrice:       decimal.NewFromInt(100),
			StandardPrice:   decimal.NewFromInt(60),
			SaleTaxRate:     decimal.RequireFromString("0.10"),
			PurchaseTaxRate: decimal.RequireFromString("0.10"),
		}
		d.PrivateProduct = model.Product{
			DefaultCode: "TOOL",
			Name:        "Internal Tool",
			CompanyID:   &d.CompanyA.ID,
			UOM:         "Units",
			ListPrice:   decimal.NewFromInt(40),
		}
		if err := tx.Create(&d.SharedProduct).Error; err != nil {
			return err
		}
		if err := tx.Create(&d.PrivateProduct).Error; err != nil {
			return err
		}

		d.SharedAccount = model.AnalyticAccount{Name: "Projects"}
		d.PrivateAccount = model.AnalyticAccount{Name: "A Overhead", CompanyID: &d.CompanyA.ID}
		d.SharedTag = model.AnalyticTag{Name: "Group"}
		d.PrivateTag = model.AnalyticTag{Name: "A Only", CompanyID: &d.CompanyA.ID}
		for _, rec := range []interface{}{&d.SharedAccount, &d.PrivateAccount, &d.SharedTag, &d.PrivateTag} {
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}

		d.AdminA = model.User{
			Username:  "admin.a",
			Email:     "admin@company-a.example",
			Password:  string(hash),
			Role:      model.RoleAdmin,
			CompanyID: d.CompanyA.ID,
		}
		d.AccountantB = model.User{
			Username:  "accountant.b",
			Email:     "accountant@company-b.example",
			Password:  string(hash),
			Role:      model.RoleAccountant,
			CompanyID: d.CompanyB.ID,
		}
		if err := tx.Create(&d.AdminA).Error; err != nil {
			return err
		}
		return tx.Create(&d.AccountantB).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed demo data: %w", err)
	}

	return d, nil
}
