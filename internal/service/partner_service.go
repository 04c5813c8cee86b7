package service

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"intercompany/internal/access"
	"intercompany/internal/model"
	"intercompany/internal/repository"

	"github.com/google/uuid"
)

// --- Partner DTOs ---

type CreatePartnerRequest struct {
	Name            string `json:"name" binding:"required"`
	ParentID        string `json:"parent_id"`
	CompanyID       string `json:"company_id"` // empty = shared by every company
	IsCompany       bool   `json:"is_company"`
	TaxCode         string `json:"tax_code"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	PaymentTermDays int    `json:"payment_term_days" binding:"min=0"`
}

type PartnerResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	ParentID        *uuid.UUID `json:"parent_id"`
	CompanyID       *uuid.UUID `json:"company_id"`
	IsCompany       bool       `json:"is_company"`
	TaxCode         string     `json:"tax_code"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	PaymentTermDays int        `json:"payment_term_days"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

type ProductResponse struct {
	ID              uuid.UUID  `json:"id"`
	DisplayName     string     `json:"display_name"`
	CompanyID       *uuid.UUID `json:"company_id"`
	UOM             string     `json:"uom"`
	ListPrice       string     `json:"list_price"`
	StandardPrice   string     `json:"standard_price"`
	SaleTaxRate     string     `json:"sale_tax_rate"`
	PurchaseTaxRate string     `json:"purchase_tax_rate"`
}

// --- Interface ---

// PartnerService exposes the partners and products visible to an actor.
type PartnerService interface {
	CreatePartner(ctx context.Context, actor access.Actor, req CreatePartnerRequest) (PartnerResponse, error)
	GetPartners(ctx context.Context, actor access.Actor, search string, page, limit int) ([]PartnerResponse, int64, error)
	GetProducts(ctx context.Context, actor access.Actor) ([]ProductResponse, error)
}

type partnerService struct {
	partnerRepo repository.PartnerRepository
	catalogRepo repository.CatalogRepository
}

func NewPartnerService(partnerRepo repository.PartnerRepository, catalogRepo repository.CatalogRepository) PartnerService {
	return &partnerService{partnerRepo: partnerRepo, catalogRepo: catalogRepo}
}

// --- Mapping helpers ---

func toPartnerResponse(p model.Partner) PartnerResponse {
	return PartnerResponse{
		ID:              p.ID,
		Name:            p.Name,
		ParentID:        p.ParentID,
		CompanyID:       p.CompanyID,
		IsCompany:       p.IsCompany,
		TaxCode:         p.TaxCode,
		Email:           p.Email,
		Phone:           p.Phone,
		PaymentTermDays: p.PaymentTermDays,
		IsActive:        p.IsActive,
		CreatedAt:       p.CreatedAt,
	}
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		DisplayName:     p.DisplayName(),
		CompanyID:       p.CompanyID,
		UOM:             p.UOM,
		ListPrice:       p.ListPrice.String(),
		StandardPrice:   p.StandardPrice.String(),
		SaleTaxRate:     p.SaleTaxRate.String(),
		PurchaseTaxRate: p.PurchaseTaxRate.String(),
	}
}

// --- Implementation ---

func (s *partnerService) CreatePartner(ctx context.Context, actor access.Actor, req CreatePartnerRequest) (PartnerResponse, error) {
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return PartnerResponse{}, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
		}
	}

	partner := &model.Partner{
		Name:            req.Name,
		IsCompany:       req.IsCompany,
		TaxCode:         req.TaxCode,
		Email:           req.Email,
		Phone:           req.Phone,
		PaymentTermDays: req.PaymentTermDays,
		IsActive:        true,
	}

	if req.CompanyID != "" {
		companyID, err := parseID("company_id", req.CompanyID)
		if err != nil {
			return PartnerResponse{}, err
		}
		if !actor.Allows(companyID) {
			return PartnerResponse{}, fmt.Errorf("%w: company %s", ErrForbidden, companyID)
		}
		partner.CompanyID = &companyID
	}

	ctx = access.Into(ctx, actor)
	if req.ParentID != "" {
		parentID, err := parseID("parent_id", req.ParentID)
		if err != nil {
			return PartnerResponse{}, err
		}
		if _, err := s.partnerRepo.FindByID(ctx, parentID); err != nil {
			return PartnerResponse{}, fmt.Errorf("parent partner not found: %w", err)
		}
		partner.ParentID = &parentID
	}

	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		return PartnerResponse{}, fmt.Errorf("failed to create partner: %w", err)
	}

	return toPartnerResponse(*partner), nil
}

func (s *partnerService) GetPartners(ctx context.Context, actor access.Actor, search string, page, limit int) ([]PartnerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	partners, total, err := s.partnerRepo.List(access.Into(ctx, actor), search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list partners: %w", err)
	}

	res := make([]PartnerResponse, 0, len(partners))
	for _, p := range partners {
		res = append(res, toPartnerResponse(p))
	}
	return res, total, nil
}

func (s *partnerService) GetProducts(ctx context.Context, actor access.Actor) ([]ProductResponse, error) {
	products, err := s.catalogRepo.ListProducts(access.Into(ctx, actor))
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(p))
	}
	return res, nil
}
