package access_test

import (
	"context"
	"testing"

	"intercompany/internal/access"
	"intercompany/internal/model"
	"intercompany/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanyScope_Query(t *testing.T) {
	db := testutil.NewDB(t)
	demo := testutil.Seed(t, db)

	visible := func(ctx context.Context) []string {
		var products []model.Product
		require.NoError(t, db.WithContext(ctx).Order("name").Find(&products).Error)
		names := make([]string, 0, len(products))
		for _, p := range products {
			names = append(names, p.Name)
		}
		return names
	}

	inA := access.Into(context.Background(), access.ForUser(demo.AdminA.ID, demo.CompanyA.ID))
	inB := access.Into(context.Background(), access.ForUser(demo.AccountantB.ID, demo.CompanyB.ID))
	noCompany := access.Into(context.Background(), access.ForUser(demo.AccountantB.ID))

	assert.Equal(t, []string{"Consulting", "Internal Tool"}, visible(inA))
	assert.Equal(t, []string{"Consulting"}, visible(inB))
	assert.Equal(t, []string{"Consulting"}, visible(noCompany))

	sudo := access.Into(context.Background(), access.ForUser(demo.AccountantB.ID, demo.CompanyB.ID).Sudo())
	assert.Equal(t, []string{"Consulting", "Internal Tool"}, visible(sudo))
	assert.Equal(t, []string{"Consulting", "Internal Tool"}, visible(context.Background()))

	var count int64
	require.NoError(t, db.WithContext(inB).Model(&model.AnalyticAccount{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCompanyScope_UpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	demo := testutil.Seed(t, db)
	inB := access.Into(context.Background(), access.ForUser(demo.AccountantB.ID, demo.CompanyB.ID))

	res := db.WithContext(inB).Model(&model.Product{}).Where("id = ?", demo.PrivateProduct.ID).Update("name", "Stolen")
	require.NoError(t, res.Error)
	assert.Equal(t, int64(0), res.RowsAffected)

	res = db.WithContext(inB).Where("id = ?", demo.PrivateProduct.ID).Delete(&model.Product{})
	require.NoError(t, res.Error)
	assert.Equal(t, int64(0), res.RowsAffected)

	res = db.WithContext(inB).Model(&model.Product{}).Where("id = ?", demo.SharedProduct.ID).Update("name", "Advisory")
	require.NoError(t, res.Error)
	assert.Equal(t, int64(1), res.RowsAffected)

	// tables without a company column are not restricted
	var companies int64
	require.NoError(t, db.WithContext(inB).Model(&model.Company{}).Count(&companies).Error)
	assert.Equal(t, int64(2), companies)
}
