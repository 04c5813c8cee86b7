package repository

import (
	"context"

	"intercompany/internal/model"

	"github.com/google/uuid"
)

// Directory answers the company, partner, journal and user lookups of the
// inter-company workflow. Lookups that may legitimately find nothing return
// (nil, nil) instead of ErrNotFound.
type Directory struct {
	Companies CompanyRepository
	Partners  PartnerRepository
	Catalog   CatalogRepository
	Users     UserRepository
}

func NewDirectory(companies CompanyRepository, partners PartnerRepository, catalog CatalogRepository, users UserRepository) *Directory {
	return &Directory{Companies: companies, Partners: partners, Catalog: catalog, Users: users}
}

func (d *Directory) CompanyByPartner(ctx context.Context, partnerID uuid.UUID) (*model.Company, error) {
	company, err := d.Companies.FindByPartnerID(ctx, partnerID)
	if IsNotFound(err) {
		return nil, nil
	}
	return company, err
}

func (d *Directory) Company(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	return d.Companies.FindByID(ctx, id)
}

func (d *Directory) JournalByType(ctx context.Context, companyID uuid.UUID, journalType string) (*model.Journal, error) {
	journal, err := d.Catalog.FindJournalByType(ctx, companyID, journalType)
	if IsNotFound(err) {
		return nil, nil
	}
	return journal, err
}

func (d *Directory) DefaultUser(ctx context.Context, companyID uuid.UUID) (*model.User, error) {
	user, err := d.Users.FindDefaultForCompany(ctx, companyID)
	if IsNotFound(err) {
		return nil, nil
	}
	return user, err
}

func (d *Directory) User(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return d.Users.GetByID(ctx, id)
}

func (d *Directory) Partner(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	return d.Partners.FindByID(ctx, id)
}

func (d *Directory) Product(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return d.Catalog.FindProduct(ctx, id)
}

func (d *Directory) AnalyticAccount(ctx context.Context, id uuid.UUID) (*model.AnalyticAccount, error) {
	return d.Catalog.FindAnalyticAccount(ctx, id)
}

func (d *Directory) Currency(ctx context.Context, id uuid.UUID) (*model.Currency, error) {
	return d.Catalog.FindCurrency(ctx, id)
}
