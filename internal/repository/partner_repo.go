package repository

import (
	"context"

	"intercompany/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxPartnerDepth bounds the parent walk in case of a cyclic hierarchy.
const maxPartnerDepth = 32

type PartnerRepository interface {
	Create(ctx context.Context, partner *model.Partner) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	FindCommercial(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Partner, int64, error)
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Create(ctx context.Context, partner *model.Partner) error {
	return GetDB(ctx, r.db).Create(partner).Error
}

func (r *partnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	var partner model.Partner
	if err := GetDB(ctx, r.db).First(&partner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

// FindCommercial returns the top-most ancestor of the partner.
func (r *partnerRepository) FindCommercial(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	partner, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for depth := 0; partner.ParentID != nil && depth < maxPartnerDepth; depth++ {
		parent, err := r.FindByID(ctx, *partner.ParentID)
		if err != nil {
			return nil, err
		}
		partner = parent
	}
	return partner, nil
}

func (r *partnerRepository) List(ctx context.Context, search string, page, limit int) ([]model.Partner, int64, error) {
	var partners []model.Partner
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Partner{})
	if search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?) OR email LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("name").Offset(offset).Limit(limit).Find(&partners).Error; err != nil {
		return nil, 0, err
	}

	return partners, total, nil
}
