package intercompany_test

import (
	"context"
	"testing"

	"intercompany/internal/access"
	"intercompany/internal/intercompany"
	"intercompany/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReset_RejectsWhilePostedMirrorExists(t *testing.T) {
	f := newFixture(t)

	src := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerB.ID,
		product(f.demo.SharedProduct.ID, "1", ""))
	out := f.post(t, src)
	require.NoError(t, out.Err)
	require.True(t, out.Result.Posted)

	err := f.workflow.CheckReset(f.ctx(), []*model.Invoice{src})
	require.Error(t, err)
	assert.ErrorIs(t, err, intercompany.ErrPostedMirrorExists)
	kind, _ := intercompany.KindOf(err)
	assert.Equal(t, intercompany.KindConsistency, kind)
	assert.Contains(t, err.Error(), "Invoice BILL/2024/0001 to Company A")
}

func TestCheckReset_AllowsDraftMirror(t *testing.T) {
	f := newFixture(t)
	f.setPolicy(t, &f.demo.CompanyB, "invoice_auto_validation", false)

	src := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerB.ID,
		product(f.demo.SharedProduct.ID, "1", ""))
	out := f.post(t, src)
	require.NoError(t, out.Err)
	require.False(t, out.Result.Posted)

	assert.NoError(t, f.workflow.CheckReset(f.ctx(), []*model.Invoice{src}))
}

func TestCheckWrite_GuardsMirrorAmount(t *testing.T) {
	f := newFixture(t)
	f.setPolicy(t, &f.demo.CompanyB, "invoice_auto_validation", false)

	src := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerB.ID,
		product(f.demo.SharedProduct.ID, "2", "100"))
	out := f.post(t, src)
	require.NoError(t, out.Err)
	mirrorID := out.Result.Mirror.ID

	ctxB := access.Into(context.Background(), access.ForUser(f.demo.AccountantB.ID, f.demo.CompanyB.ID))
	editLines := func(qty, price string) error {
		return f.tx.RunInTx(ctxB, func(txCtx context.Context) error {
			mirror, err := f.engine.Load(txCtx, mirrorID)
			if err != nil {
				return err
			}
			lines := append([]model.InvoiceLine(nil), mirror.Lines...)
			lines[0].Quantity = d(qty)
			lines[0].PriceUnit = d(price)
			return f.engine.WriteLines(txCtx, mirror, lines)
		})
	}

	err := editLines("2", "150")
	require.Error(t, err)
	assert.ErrorIs(t, err, intercompany.ErrAmountDesync)
	kind, _ := intercompany.KindOf(err)
	assert.Equal(t, intercompany.KindConsistency, kind)
	assert.Contains(t, err.Error(), "("+src.Name+")")
	assert.True(t, d("200").Equal(f.load(t, mirrorID).AmountUntaxed))

	// same untaxed amount, different split
	require.NoError(t, editLines("4", "50"))
	mirror := f.load(t, mirrorID)
	assert.True(t, d("4").Equal(mirror.Lines[0].Quantity))
	assert.True(t, d("200").Equal(mirror.AmountUntaxed))

	err = f.tx.RunInTx(ctxB, func(txCtx context.Context) error {
		mirror, err := f.engine.Find(txCtx, mirrorID)
		if err != nil {
			return err
		}
		mirror.Narration = "checked by accounting"
		return f.engine.Write(txCtx, mirror)
	})
	require.NoError(t, err)
	assert.Equal(t, "checked by accounting", f.load(t, mirrorID).Narration)
}

func TestCheckWrite_IgnoresSourcesAndSkipMarker(t *testing.T) {
	f := newFixture(t)
	src := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerB.ID,
		product(f.demo.SharedProduct.ID, "1", ""))
	assert.NoError(t, f.workflow.CheckWrite(f.ctx(), []*model.Invoice{src}))

	sourceID := src.ID
	desynced := &model.Invoice{Name: "BILL/2024/0009", AutoInvoiceID: &sourceID, AmountUntaxed: d("1")}
	assert.ErrorIs(t, f.workflow.CheckWrite(f.ctx(), []*model.Invoice{desynced}), intercompany.ErrAmountDesync)
	assert.NoError(t, f.workflow.CheckWrite(intercompany.WithoutAmountCheck(f.ctx()), []*model.Invoice{desynced}))
}

func TestReplacingSourceLinesClearsMirrorLineReferences(t *testing.T) {
	f := newFixture(t)
	f.setPolicy(t, &f.demo.CompanyB, "invoice_auto_validation", false)

	src := f.draft(t, f.demo.CompanyA.ID, model.MoveTypeOutInvoice, f.demo.PartnerB.ID,
		product(f.demo.SharedProduct.ID, "2", "100"))
	out := f.post(t, src)
	require.NoError(t, out.Err)
	mirrorID := out.Result.Mirror.ID
	require.NotNil(t, f.load(t, mirrorID).Lines[0].AutoInvoiceLineID)

	reopened := f.reopen(t, src, "2")
	require.Len(t, reopened.Lines, 1)
	assert.NotEqual(t, src.Lines[0].ID, reopened.Lines[0].ID)

	mirror := f.load(t, mirrorID)
	require.Len(t, mirror.Lines, 1)
	assert.Nil(t, mirror.Lines[0].AutoInvoiceLineID)

	var dangling int64
	require.NoError(t, f.db.Model(&model.InvoiceLine{}).
		Where("auto_invoice_line_id IS NOT NULL AND auto_invoice_line_id NOT IN (SELECT id FROM invoice_lines)").
		Count(&dangling).Error)
	assert.Zero(t, dangling)
}
