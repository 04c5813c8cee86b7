package repository

import (
	"context"

	"intercompany/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	FindByPartnerID(ctx context.Context, partnerID uuid.UUID) (*model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
	UpdatePolicy(ctx context.Context, company *model.Company) error
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Create(company).Error
}

func (r *companyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := GetDB(ctx, r.db).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindByPartnerID(ctx context.Context, partnerID uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := GetDB(ctx, r.db).Where("partner_id = ?", partnerID).Order("created_at").First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) List(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	if err := GetDB(ctx, r.db).Order("name").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *companyRepository) UpdatePolicy(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Model(company).Select(
		"company_share_product", "invoice_auto_validation", "intercompany_invoice_user_id",
	).Updates(company).Error
}
