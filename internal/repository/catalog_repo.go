package repository

import (
	"context"

	"intercompany/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository gives access to the master data referenced by invoice
// lines and headers: products, journals, currencies and analytic dimensions.
type CatalogRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	FindProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)

	CreateJournal(ctx context.Context, journal *model.Journal) error
	FindJournal(ctx context.Context, id uuid.UUID) (*model.Journal, error)
	FindJournalByType(ctx context.Context, companyID uuid.UUID, journalType string) (*model.Journal, error)

	CreateCurrency(ctx context.Context, currency *model.Currency) error
	FindCurrency(ctx context.Context, id uuid.UUID) (*model.Currency, error)

	CreateAnalyticAccount(ctx context.Context, account *model.AnalyticAccount) error
	FindAnalyticAccount(ctx context.Context, id uuid.UUID) (*model.AnalyticAccount, error)
	CreateAnalyticTag(ctx context.Context, tag *model.AnalyticTag) error
	FindAnalyticTags(ctx context.Context, ids []uuid.UUID) ([]model.AnalyticTag, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) CreateProduct(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *catalogRepository) FindProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := GetDB(ctx, r.db).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *catalogRepository) CreateJournal(ctx context.Context, journal *model.Journal) error {
	return GetDB(ctx, r.db).Create(journal).Error
}

func (r *catalogRepository) FindJournal(ctx context.Context, id uuid.UUID) (*model.Journal, error) {
	var journal model.Journal
	if err := GetDB(ctx, r.db).First(&journal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &journal, nil
}

func (r *catalogRepository) FindJournalByType(ctx context.Context, companyID uuid.UUID, journalType string) (*model.Journal, error) {
	var journal model.Journal
	err := GetDB(ctx, r.db).
		Where("company_id = ? AND type = ?", companyID, journalType).
		Order("code").
		First(&journal).Error
	if err != nil {
		return nil, err
	}
	return &journal, nil
}

func (r *catalogRepository) CreateCurrency(ctx context.Context, currency *model.Currency) error {
	return GetDB(ctx, r.db).Create(currency).Error
}

func (r *catalogRepository) FindCurrency(ctx context.Context, id uuid.UUID) (*model.Currency, error) {
	var currency model.Currency
	if err := GetDB(ctx, r.db).First(&currency, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &currency, nil
}

func (r *catalogRepository) CreateAnalyticAccount(ctx context.Context, account *model.AnalyticAccount) error {
	return GetDB(ctx, r.db).Create(account).Error
}

func (r *catalogRepository) FindAnalyticAccount(ctx context.Context, id uuid.UUID) (*model.AnalyticAccount, error) {
	var account model.AnalyticAccount
	if err := GetDB(ctx, r.db).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *catalogRepository) CreateAnalyticTag(ctx context.Context, tag *model.AnalyticTag) error {
	return GetDB(ctx, r.db).Create(tag).Error
}

func (r *catalogRepository) FindAnalyticTags(ctx context.Context, ids []uuid.UUID) ([]model.AnalyticTag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []model.AnalyticTag
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Order("name").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
