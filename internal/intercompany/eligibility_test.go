package intercompany_test

import (
	"testing"

	"intercompany/internal/intercompany"
	"intercompany/internal/model"
	"intercompany/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCompany(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx()

	company, err := f.workflow.ResolveCompany(ctx, &model.Invoice{CommercialPartnerID: f.demo.PartnerB.ID})
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, f.demo.CompanyB.ID, company.ID)

	company, err = f.workflow.ResolveCompany(ctx, &model.Invoice{CommercialPartnerID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, company)

	company, err = f.workflow.ResolveCompany(ctx, &model.Invoice{})
	require.NoError(t, err)
	assert.Nil(t, company)
}

func TestOnPost_SkipsIneligibleDocuments(t *testing.T) {
	f := newFixture(t)

	acme := model.Partner{Name: "Acme Corp", IsCompany: true, IsActive: true}
	require.NoError(t, f.db.Create(&acme).Error)

	thirdParty := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, acme.ID,
		product(f.demo.SharedProduct.ID, "1", ""))
	out := f.post(t, thirdParty)
	assert.Equal(t, intercompany.StatusSkipped, out.Status)
	assert.Equal(t, intercompany.ReasonNoDestination, out.Reason)

	own := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerA.ID,
		product(f.demo.SharedProduct.ID, "1", ""))
	out = f.post(t, own)
	assert.Equal(t, intercompany.StatusSkipped, out.Status)
	assert.Equal(t, intercompany.ReasonSameCompany, out.Reason)
	assert.Empty(t, f.mirrors(t, own))

	entry := &model.Invoice{ID: uuid.New(), MoveType: model.MoveTypeEntry, CompanyID: f.demo.CompanyA.ID}
	out = f.remirror(t, entry)
	assert.Equal(t, intercompany.StatusSkipped, out.Status)
	assert.Equal(t, intercompany.ReasonUnsupportedType, out.Reason)
}

func TestOnPost_MirrorIsNotMirroredBack(t *testing.T) {
	f := newFixture(t)

	src := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerB.ID,
		product(f.demo.SharedProduct.ID, "1", ""))
	out := f.post(t, src)
	require.NoError(t, out.Err)

	mirror := f.load(t, out.Result.Mirror.ID)
	out = f.remirror(t, mirror)
	assert.Equal(t, intercompany.StatusSkipped, out.Status)
	assert.Equal(t, intercompany.ReasonAutoGenerated, out.Reason)
}

func TestOnPost_SecondPostingCreatesNoSecondMirror(t *testing.T) {
	f := newFixture(t)

	src := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerB.ID,
		product(f.demo.SharedProduct.ID, "1", ""))
	out := f.post(t, src)
	require.NoError(t, out.Err)
	require.True(t, out.Result.Posted)

	out = f.remirror(t, src)
	assert.Equal(t, intercompany.StatusSkipped, out.Status)
	assert.Equal(t, intercompany.ReasonPostedMirrorExists, out.Reason)

	posted, err := f.engine.FindMirrors(f.sysCtx(), src.ID, repository.MirrorFilter{State: model.StatePosted})
	require.NoError(t, err)
	assert.Len(t, posted, 1)
	assert.Len(t, f.mirrors(t, src), 1)
}

func TestOnPost_BatchIsolatesFailures(t *testing.T) {
	f := newFixture(t)

	bad := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerB.ID,
		product(f.demo.PrivateProduct.ID, "1", ""))
	good := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerB.ID,
		product(f.demo.SharedProduct.ID, "1", ""))

	ctx := f.ctx()
	require.NoError(t, f.engine.Post(ctx, bad))
	require.NoError(t, f.engine.Post(ctx, good))

	outcomes := f.workflow.OnPost(ctx, f.caller, []*model.Invoice{bad, good})
	require.Len(t, outcomes, 2)

	assert.Equal(t, bad.ID, outcomes[0].SourceID)
	assert.Equal(t, intercompany.StatusFailed, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, intercompany.ErrProductNotShared)

	assert.Equal(t, good.ID, outcomes[1].SourceID)
	assert.Equal(t, intercompany.StatusBuilt, outcomes[1].Status)
	assert.Len(t, f.mirrors(t, good), 1)
	assert.Empty(t, f.mirrors(t, bad))
}
