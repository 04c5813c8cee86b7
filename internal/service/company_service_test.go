package service_test

import (
	"context"
	"testing"

	"intercompany/internal/access"
	"intercompany/internal/model"
	"intercompany/internal/repository"
	"intercompany/internal/service"
	"intercompany/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyService(t *testing.T) {
	db := testutil.NewDB(t)
	demo := testutil.Seed(t, db)
	companies := service.NewCompanyService(
		repository.NewCompanyRepository(db),
		repository.NewUserRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)
	ctx := context.Background()
	adminA := access.ForUser(demo.AdminA.ID, demo.CompanyA.ID)

	list, err := companies.ListCompanies(ctx, adminA)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Company A", list[0].Name)

	share := true
	_, err = companies.UpdatePolicy(ctx, adminA, demo.CompanyB.ID.String(), service.UpdateCompanyPolicyRequest{CompanyShareProduct: &share})
	assert.ErrorIs(t, err, service.ErrForbidden)

	// the inter-company user may belong to another company
	userB := demo.AccountantB.ID.String()
	res, err := companies.UpdatePolicy(ctx, adminA, demo.CompanyA.ID.String(), service.UpdateCompanyPolicyRequest{
		CompanyShareProduct:       &share,
		IntercompanyInvoiceUserID: &userB,
	})
	require.NoError(t, err)
	assert.True(t, res.CompanyShareProduct)
	assert.False(t, res.InvoiceAutoValidation)
	require.NotNil(t, res.IntercompanyInvoiceUserID)
	assert.Equal(t, userB, *res.IntercompanyInvoiceUserID)

	unknown := "6f1c2b9e-3d4a-4c5b-8e7f-0a1b2c3d4e5f"
	_, err = companies.UpdatePolicy(ctx, adminA, demo.CompanyA.ID.String(), service.UpdateCompanyPolicyRequest{IntercompanyInvoiceUserID: &unknown})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	none := ""
	res, err = companies.UpdatePolicy(ctx, adminA, demo.CompanyA.ID.String(), service.UpdateCompanyPolicyRequest{IntercompanyInvoiceUserID: &none})
	require.NoError(t, err)
	assert.Nil(t, res.IntercompanyInvoiceUserID)

	var stored model.Company
	require.NoError(t, db.First(&stored, "id = ?", demo.CompanyA.ID).Error)
	assert.True(t, stored.CompanyShareProduct)
	assert.Nil(t, stored.IntercompanyInvoiceUserID)

	var audits int64
	require.NoError(t, db.Model(&model.AuditLog{}).Where("action = ?", model.ActionUpdateCompany).Count(&audits).Error)
	assert.Equal(t, int64(2), audits)
}

func TestPartnerService(t *testing.T) {
	db := testutil.NewDB(t)
	demo := testutil.Seed(t, db)
	partners := service.NewPartnerService(repository.NewPartnerRepository(db), repository.NewCatalogRepository(db))
	ctx := context.Background()
	adminA := access.ForUser(demo.AdminA.ID, demo.CompanyA.ID)
	accountantB := access.ForUser(demo.AccountantB.ID, demo.CompanyB.ID)

	_, err := partners.CreatePartner(ctx, adminA, service.CreatePartnerRequest{Name: "Bad", Email: "not an address"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = partners.CreatePartner(ctx, adminA, service.CreatePartnerRequest{Name: "Elsewhere", CompanyID: demo.CompanyB.ID.String()})
	assert.ErrorIs(t, err, service.ErrForbidden)

	local, err := partners.CreatePartner(ctx, adminA, service.CreatePartnerRequest{
		Name:      "Local Supplier",
		CompanyID: demo.CompanyA.ID.String(),
		IsCompany: true,
		Email:     "sales@local.example",
	})
	require.NoError(t, err)
	assert.True(t, local.IsActive)

	_, totalA, err := partners.GetPartners(ctx, adminA, "", 1, 50)
	require.NoError(t, err)
	_, totalB, err := partners.GetPartners(ctx, accountantB, "", 1, 50)
	require.NoError(t, err)
	assert.Equal(t, totalB+1, totalA)

	found, _, err := partners.GetPartners(ctx, adminA, "local", 1, 50)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, local.ID, found[0].ID)

	products, err := partners.GetProducts(ctx, accountantB)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "[CONS] Consulting", products[0].DisplayName)
}
