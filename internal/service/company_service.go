package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intercompany/internal/access"
	"intercompany/internal/model"
	"intercompany/internal/repository"
)

type UpdateCompanyPolicyRequest struct {
	CompanyShareProduct       *bool   `json:"company_share_product"`
	InvoiceAutoValidation     *bool   `json:"invoice_auto_validation"`
	IntercompanyInvoiceUserID *string `json:"intercompany_invoice_user_id"` // "" clears it
}

type CompanyResponse struct {
	ID                        string  `json:"id"`
	Name                      string  `json:"name"`
	PartnerID                 string  `json:"partner_id"`
	CurrencyID                string  `json:"currency_id"`
	CompanyShareProduct       bool    `json:"company_share_product"`
	InvoiceAutoValidation     bool    `json:"invoice_auto_validation"`
	IntercompanyInvoiceUserID *string `json:"intercompany_invoice_user_id"`
	UpdatedAt                 string  `json:"updated_at"`
}

type CompanyService interface {
	ListCompanies(ctx context.Context, actor access.Actor) ([]CompanyResponse, error)
	UpdatePolicy(ctx context.Context, actor access.Actor, id string, req UpdateCompanyPolicyRequest) (CompanyResponse, error)
}

type companyService struct {
	companyRepo repository.CompanyRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewCompanyService(
	companyRepo repository.CompanyRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func toCompanyResponse(c *model.Company) CompanyResponse {
	return CompanyResponse{
		ID:                        c.ID.String(),
		Name:                      c.Name,
		PartnerID:                 c.PartnerID.String(),
		CurrencyID:                c.CurrencyID.String(),
		CompanyShareProduct:       c.CompanyShareProduct,
		InvoiceAutoValidation:     c.InvoiceAutoValidation,
		IntercompanyInvoiceUserID: formatID(c.IntercompanyInvoiceUserID),
		UpdatedAt:                 c.UpdatedAt.Format(time.RFC3339),
	}
}

// ListCompanies returns the companies the actor may operate in.
func (s *companyService) ListCompanies(ctx context.Context, actor access.Actor) ([]CompanyResponse, error) {
	companies, err := s.companyRepo.List(access.Into(ctx, actor))
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	res := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		if actor.Allows(companies[i].ID) {
			res = append(res, toCompanyResponse(&companies[i]))
		}
	}
	return res, nil
}

func (s *companyService) UpdatePolicy(ctx context.Context, actor access.Actor, id string, req UpdateCompanyPolicyRequest) (CompanyResponse, error) {
	companyID, err := parseID("id", id)
	if err != nil {
		return CompanyResponse{}, err
	}
	if !actor.Allows(companyID) {
		return CompanyResponse{}, fmt.Errorf("%w: company %s", ErrForbidden, companyID)
	}

	var company *model.Company
	ctx = access.Into(ctx, actor)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		company, err = s.companyRepo.FindByID(txCtx, companyID)
		if err != nil {
			return fmt.Errorf("company not found: %w", err)
		}

		if req.CompanyShareProduct != nil {
			company.CompanyShareProduct = *req.CompanyShareProduct
		}
		if req.InvoiceAutoValidation != nil {
			company.InvoiceAutoValidation = *req.InvoiceAutoValidation
		}
		if req.IntercompanyInvoiceUserID != nil {
			if *req.IntercompanyInvoiceUserID == "" {
				company.IntercompanyInvoiceUserID = nil
			} else {
				userID, err := parseID("intercompany_invoice_user_id", *req.IntercompanyInvoiceUserID)
				if err != nil {
					return err
				}
				// the identity may live in another company
				if _, err := s.userRepo.GetByID(access.Into(txCtx, access.System()), userID); err != nil {
					return fmt.Errorf("%w: user %s not found", ErrInvalidInput, userID)
				}
				company.IntercompanyInvoiceUserID = &userID
			}
		}

		if err := s.companyRepo.UpdatePolicy(txCtx, company); err != nil {
			return fmt.Errorf("failed to update company: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"company_share_product":        company.CompanyShareProduct,
			"invoice_auto_validation":      company.InvoiceAutoValidation,
			"intercompany_invoice_user_id": formatID(company.IntercompanyInvoiceUserID),
		})
		audit := &model.AuditLog{
			UserID:     actor.UserID,
			Action:     model.ActionUpdateCompany,
			EntityID:   company.ID.String(),
			EntityName: company.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return CompanyResponse{}, err
	}

	return toCompanyResponse(company), nil
}
