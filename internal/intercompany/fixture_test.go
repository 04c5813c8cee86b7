package intercompany_test

import (
	"context"
	"testing"
	"time"

	"intercompany/internal/access"
	"intercompany/internal/database"
	"intercompany/internal/intercompany"
	"intercompany/internal/ledger"
	"intercompany/internal/logger"
	"intercompany/internal/model"
	"intercompany/internal/repository"
	"intercompany/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var today = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	demo     *database.Demo
	engine   *ledger.Engine
	dir      *repository.Directory
	tx       repository.TransactionManager
	workflow *intercompany.Workflow

	// admin of company A
	caller access.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	demo := testutil.Seed(t, db)

	partners := repository.NewPartnerRepository(db)
	companies := repository.NewCompanyRepository(db)
	catalog := repository.NewCatalogRepository(db)
	engine := ledger.NewEngine(
		repository.NewInvoiceRepository(db),
		repository.NewMessageRepository(db),
		partners,
		companies,
		catalog,
		logger.Nop(),
	)
	engine.SetClock(func() time.Time { return today })

	f := &fixture{
		db:     db,
		demo:   demo,
		engine: engine,
		dir:    repository.NewDirectory(companies, partners, catalog, repository.NewUserRepository(db)),
		tx:     repository.NewTransactionManager(db),
		caller: access.ForUser(demo.AdminA.ID, demo.CompanyA.ID),
	}
	f.workflow = intercompany.New(engine, f.dir, f.tx, 2, logger.Nop())
	engine.OnWrite(f.workflow.CheckWrite)
	return f
}

func (f *fixture) ctx() context.Context {
	return access.Into(context.Background(), f.caller)
}

func (f *fixture) sysCtx() context.Context {
	return access.Into(context.Background(), access.System())
}

// setPolicy changes an inter-company setting of a company directly in the database.
func (f *fixture) setPolicy(t *testing.T, company *model.Company, column string, value interface{}) {
	t.Helper()
	require.NoError(t, f.db.Model(&model.Company{}).Where("id = ?", company.ID).Update(column, value).Error)
}

type lineSpec struct {
	display string
	product *uuid.UUID
	name    string
	qty     string
	price   string // empty keeps the product price
	tax     string // empty keeps the product tax
	account *uuid.UUID
	tags    []model.AnalyticTag
}

func product(id uuid.UUID, qty, price string) lineSpec {
	return lineSpec{product: &id, qty: qty, price: price}
}

// draft enters and stores a document the way a user would.
func (f *fixture) draft(t *testing.T, companyID uuid.UUID, moveType string, partnerID uuid.UUID, specs ...lineSpec) *model.Invoice {
	t.Helper()
	ctx := access.Into(context.Background(), f.caller.WithCompany(companyID))

	inv := &model.Invoice{MoveType: moveType, CompanyID: companyID, PartnerID: partnerID}
	require.NoError(t, f.engine.DeriveHeader(ctx, inv))

	for i, spec := range specs {
		line := model.InvoiceLine{
			DisplayType:       spec.display,
			ProductID:         spec.product,
			Name:              spec.name,
			Sequence:          (i + 1) * 10,
			AnalyticAccountID: spec.account,
			AnalyticTags:      spec.tags,
		}
		if spec.qty != "" {
			line.Quantity = decimal.RequireFromString(spec.qty)
		}
		require.NoError(t, f.engine.DeriveLine(ctx, inv, &line))
		if spec.name != "" {
			line.Name = spec.name
		}
		if spec.price != "" {
			line.PriceUnit = decimal.RequireFromString(spec.price)
		}
		if spec.tax != "" {
			line.TaxRate = decimal.RequireFromString(spec.tax)
		}
		inv.Lines = append(inv.Lines, line)
	}

	require.NoError(t, f.engine.Create(ctx, inv))
	return inv
}

// post posts inv and runs the mirroring workflow in one transaction, the way
// the invoice service does.
func (f *fixture) post(t *testing.T, inv *model.Invoice) intercompany.Outcome {
	t.Helper()

	caller := f.caller.WithCompany(inv.CompanyID)
	var outcomes []intercompany.Outcome
	err := f.tx.RunInTx(access.Into(context.Background(), caller), func(txCtx context.Context) error {
		if err := f.engine.Post(txCtx, inv); err != nil {
			return err
		}
		outcomes = f.workflow.OnPost(txCtx, caller, []*model.Invoice{inv})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	return outcomes[0]
}

// remirror runs the workflow again on an already posted document.
func (f *fixture) remirror(t *testing.T, inv *model.Invoice) intercompany.Outcome {
	t.Helper()

	caller := f.caller.WithCompany(inv.CompanyID)
	var outcomes []intercompany.Outcome
	err := f.tx.RunInTx(access.Into(context.Background(), caller), func(txCtx context.Context) error {
		outcomes = f.workflow.OnPost(txCtx, caller, []*model.Invoice{inv})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	return outcomes[0]
}

func (f *fixture) mirrors(t *testing.T, source *model.Invoice) []model.Invoice {
	t.Helper()
	mirrors, err := f.engine.FindMirrors(f.sysCtx(), source.ID, repository.MirrorFilter{})
	require.NoError(t, err)
	return mirrors
}

func (f *fixture) load(t *testing.T, id uuid.UUID) *model.Invoice {
	t.Helper()
	inv, err := f.engine.Load(f.sysCtx(), id)
	require.NoError(t, err)
	return inv
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// sharedProduct creates a tax-free product visible to every company.
func (f *fixture) sharedProduct(t *testing.T, name, price string) model.Product {
	t.Helper()
	p := model.Product{Name: name, UOM: "Units", ListPrice: d(price), StandardPrice: d(price)}
	require.NoError(t, f.db.Create(&p).Error)
	return p
}
