package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"intercompany/internal/access"
	"intercompany/internal/database"
	"intercompany/internal/intercompany"
	"intercompany/internal/ledger"
	"intercompany/internal/logger"
	"intercompany/internal/model"
	"intercompany/internal/repository"
	"intercompany/internal/service"
	"intercompany/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type publishedEvent struct {
	eventType string
	payload   interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (n *recordingNotifier) Publish(eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{eventType, payload})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.eventType)
	}
	return out
}

type env struct {
	db       *gorm.DB
	demo     *database.Demo
	events   *recordingNotifier
	invoices service.InvoiceService

	adminA      access.Actor
	accountantB access.Actor
}

func setup(t *testing.T) *env {
	t.Helper()

	db := testutil.NewDB(t)
	demo := testutil.Seed(t, db)

	invoiceRepo := repository.NewInvoiceRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	txManager := repository.NewTransactionManager(db)

	engine := ledger.NewEngine(invoiceRepo, repository.NewMessageRepository(db), partnerRepo, companyRepo, catalogRepo, logger.Nop())
	engine.SetClock(func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) })
	directory := repository.NewDirectory(companyRepo, partnerRepo, catalogRepo, repository.NewUserRepository(db))
	workflow := intercompany.New(engine, directory, txManager, 2, logger.Nop())
	engine.OnWrite(workflow.CheckWrite)

	events := &recordingNotifier{}
	return &env{
		db:     db,
		demo:   demo,
		events: events,
		invoices: service.NewInvoiceService(engine, workflow, invoiceRepo, catalogRepo,
			repository.NewAuditRepository(db), txManager, events, logger.Nop()),
		adminA:      access.ForUser(demo.AdminA.ID, demo.CompanyA.ID),
		accountantB: access.ForUser(demo.AccountantB.ID, demo.CompanyB.ID),
	}
}

func (e *env) create(t *testing.T, productID, qty string) service.InvoiceResponse {
	t.Helper()
	res, err := e.invoices.CreateInvoice(context.Background(), e.adminA, service.CreateInvoiceRequest{
		MoveType:  model.MoveTypeOutInvoice,
		CompanyID: e.demo.CompanyA.ID.String(),
		PartnerID: e.demo.PartnerB.ID.String(),
		Lines:     []service.InvoiceLineRequest{{ProductID: productID, Quantity: qty}},
	})
	require.NoError(t, err)
	return res
}

func (e *env) auditActions(t *testing.T) []string {
	t.Helper()
	var logs []model.AuditLog
	require.NoError(t, e.db.Order("created_at, action").Find(&logs).Error)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	return actions
}

func TestCreateInvoice(t *testing.T) {
	e := setup(t)

	res := e.create(t, e.demo.SharedProduct.ID.String(), "2")
	assert.Equal(t, "INV/2024/0001", res.Name)
	assert.Equal(t, model.StateDraft, res.State)
	assert.Equal(t, e.demo.SaleJournalA.ID.String(), res.JournalID)
	assert.Equal(t, "200.00", res.AmountUntaxed)
	assert.Equal(t, "220.00", res.AmountTotal)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, "[CONS] Consulting", res.Lines[0].Name)

	assert.Equal(t, []string{model.ActionCreateInvoice}, e.auditActions(t))
	assert.Equal(t, []string{service.EventInvoiceCreated}, e.events.types())
}

func TestCreateInvoice_Validation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.invoices.CreateInvoice(ctx, e.adminA, service.CreateInvoiceRequest{
		MoveType:  model.MoveTypeOutInvoice,
		CompanyID: e.demo.CompanyB.ID.String(),
		PartnerID: e.demo.PartnerA.ID.String(),
	})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = e.invoices.CreateInvoice(ctx, e.adminA, service.CreateInvoiceRequest{
		MoveType:  model.MoveTypeOutInvoice,
		CompanyID: e.demo.CompanyA.ID.String(),
		PartnerID: "not-a-uuid",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = e.invoices.CreateInvoice(ctx, e.adminA, service.CreateInvoiceRequest{
		MoveType:    model.MoveTypeOutInvoice,
		CompanyID:   e.demo.CompanyA.ID.String(),
		PartnerID:   e.demo.PartnerB.ID.String(),
		InvoiceDate: "15/03/2024",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	assert.Empty(t, e.auditActions(t))
}

func TestPostInvoices_CreatesMirror(t *testing.T) {
	e := setup(t)
	src := e.create(t, e.demo.SharedProduct.ID.String(), "2")

	batch, err := e.invoices.PostInvoices(context.Background(), e.adminA, []string{src.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 0, batch.Failed)

	res := batch.Results[0]
	assert.True(t, res.Success)
	assert.Equal(t, model.StatePosted, res.State)
	require.NotNil(t, res.Mirror)
	assert.Equal(t, "BILL/2024/0001", res.Mirror.Name)
	assert.Equal(t, e.demo.CompanyB.ID.String(), res.Mirror.CompanyID)
	assert.True(t, res.Mirror.Posted)
	assert.False(t, res.Mirror.Mismatch)

	assert.Equal(t, []string{model.ActionCreateInvoice, model.ActionCreateMirror, model.ActionPostInvoice}, e.auditActions(t))
	assert.Equal(t, []string{service.EventInvoiceCreated, service.EventInvoicePosted, service.EventMirrorCreated}, e.events.types())

	mirrors, err := e.invoices.ListMirrors(context.Background(), e.adminA.Sudo(), src.ID)
	require.NoError(t, err)
	require.Len(t, mirrors, 1)
	assert.Equal(t, res.Mirror.ID, mirrors[0].ID)
	assert.Equal(t, model.MoveTypeInInvoice, mirrors[0].MoveType)
	assert.True(t, mirrors[0].AutoGenerated)
	require.NotNil(t, mirrors[0].AutoInvoiceID)
	assert.Equal(t, src.ID, *mirrors[0].AutoInvoiceID)
	assert.Equal(t, "220.00", mirrors[0].AmountTotal)
}

func TestPostInvoices_IsolatesFailures(t *testing.T) {
	e := setup(t)
	bad := e.create(t, e.demo.PrivateProduct.ID.String(), "1")
	good := e.create(t, e.demo.SharedProduct.ID.String(), "1")

	batch, err := e.invoices.PostInvoices(context.Background(), e.adminA, []string{bad.ID, good.ID, "garbage"})
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 2, batch.Failed)

	assert.False(t, batch.Results[0].Success)
	assert.ErrorIs(t, batch.Results[0].Err(), intercompany.ErrProductNotShared)
	assert.True(t, batch.Results[1].Success)
	assert.ErrorIs(t, batch.Results[2].Err(), service.ErrInvalidInput)

	// the failed document's posting is rolled back with its mirror
	reloaded, err := e.invoices.GetInvoice(context.Background(), e.adminA, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDraft, reloaded.State)

	mirrors, err := e.invoices.ListMirrors(context.Background(), e.adminA.Sudo(), bad.ID)
	require.NoError(t, err)
	assert.Empty(t, mirrors)
}

func TestPostInvoices_ReportsSkip(t *testing.T) {
	e := setup(t)
	res, err := e.invoices.CreateInvoice(context.Background(), e.adminA, service.CreateInvoiceRequest{
		MoveType:  model.MoveTypeOutInvoice,
		CompanyID: e.demo.CompanyA.ID.String(),
		PartnerID: e.demo.PartnerA.ID.String(),
		Lines:     []service.InvoiceLineRequest{{ProductID: e.demo.SharedProduct.ID.String(), Quantity: "1"}},
	})
	require.NoError(t, err)

	batch, err := e.invoices.PostInvoices(context.Background(), e.adminA, []string{res.ID})
	require.NoError(t, err)
	require.True(t, batch.Results[0].Success)
	assert.Nil(t, batch.Results[0].Mirror)
	assert.Equal(t, intercompany.ReasonSameCompany, batch.Results[0].MirrorSkip)
}

func TestResetAndCancel(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	src := e.create(t, e.demo.SharedProduct.ID.String(), "1")

	batch, err := e.invoices.PostInvoices(ctx, e.adminA, []string{src.ID})
	require.NoError(t, err)
	require.NotNil(t, batch.Results[0].Mirror)
	mirrorID := batch.Results[0].Mirror.ID

	batch, err = e.invoices.ResetToDraft(ctx, e.adminA, []string{src.ID})
	require.NoError(t, err)
	require.Equal(t, 1, batch.Failed)
	assert.ErrorIs(t, batch.Results[0].Err(), intercompany.ErrPostedMirrorExists)
	assert.Contains(t, batch.Results[0].Error, "BILL/2024/0001")

	batch, err = e.invoices.CancelInvoices(ctx, e.adminA, []string{src.ID})
	require.NoError(t, err)
	require.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, model.StateCancel, batch.Results[0].State)

	mirror, err := e.invoices.GetInvoice(ctx, e.accountantB, mirrorID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCancel, mirror.State)
	assert.Equal(t, "Company A - Canceled Invoice: INV/2024/0001", mirror.InvoiceOrigin)

	// nothing posted is left in B, so the source may go back to draft
	batch, err = e.invoices.ResetToDraft(ctx, e.adminA, []string{src.ID})
	require.NoError(t, err)
	require.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, model.StateDraft, batch.Results[0].State)
}

func TestUpdateInvoice(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	src := e.create(t, e.demo.SharedProduct.ID.String(), "1")

	qty := []service.InvoiceLineRequest{{ProductID: e.demo.SharedProduct.ID.String(), Quantity: "3"}}
	updated, err := e.invoices.UpdateInvoice(ctx, e.adminA, src.ID, service.UpdateInvoiceRequest{Lines: qty})
	require.NoError(t, err)
	assert.Equal(t, "330.00", updated.AmountTotal)

	_, err = e.invoices.PostInvoices(ctx, e.adminA, []string{src.ID})
	require.NoError(t, err)

	_, err = e.invoices.UpdateInvoice(ctx, e.adminA, src.ID, service.UpdateInvoiceRequest{Lines: qty})
	assert.ErrorIs(t, err, ledger.ErrInvalidState)

	ref := "PO-7781"
	updated, err = e.invoices.UpdateInvoice(ctx, e.adminA, src.ID, service.UpdateInvoiceRequest{Ref: &ref})
	require.NoError(t, err)
	assert.Equal(t, "PO-7781", updated.Ref)
	assert.Equal(t, model.StatePosted, updated.State)
}

func TestDeleteInvoice(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	draft := e.create(t, e.demo.SharedProduct.ID.String(), "1")
	require.NoError(t, e.invoices.DeleteInvoice(ctx, e.adminA, draft.ID))
	_, err := e.invoices.GetInvoice(ctx, e.adminA, draft.ID)
	assert.Error(t, err)

	posted := e.create(t, e.demo.SharedProduct.ID.String(), "1")
	_, err = e.invoices.PostInvoices(ctx, e.adminA, []string{posted.ID})
	require.NoError(t, err)
	assert.ErrorIs(t, e.invoices.DeleteInvoice(ctx, e.adminA, posted.ID), ledger.ErrInvalidState)
}

func TestListInvoices_RespectsCompanyScope(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	src := e.create(t, e.demo.SharedProduct.ID.String(), "1")
	_, err := e.invoices.PostInvoices(ctx, e.adminA, []string{src.ID})
	require.NoError(t, err)

	list, total, err := e.invoices.ListInvoices(ctx, e.adminA, service.InvoiceListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, src.ID, list[0].ID)

	generated := true
	list, total, err = e.invoices.ListInvoices(ctx, e.accountantB, service.InvoiceListFilter{AutoGenerated: &generated})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "BILL/2024/0001", list[0].Name)

	// B cannot read the source
	_, err = e.invoices.GetInvoice(ctx, e.accountantB, src.ID)
	assert.Error(t, err)
}
