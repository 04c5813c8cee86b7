// Package intercompany mirrors invoices exchanged between two managed
// companies: a document posted by one company towards another company's
// partner produces the counterpart document in that company, and later
// cancellations, resets and edits are propagated or guarded.
package intercompany

import (
	"context"

	"intercompany/internal/model"
	"intercompany/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Ledger is the document store and derivation engine the workflow drives.
type Ledger interface {
	DeriveHeader(ctx context.Context, inv *model.Invoice) error
	DeriveLine(ctx context.Context, inv *model.Invoice, line *model.InvoiceLine) error
	Find(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	Load(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindMirrors(ctx context.Context, sourceID uuid.UUID, filter repository.MirrorFilter) ([]model.Invoice, error)
	Create(ctx context.Context, inv *model.Invoice) error
	Write(ctx context.Context, inv *model.Invoice) error
	Post(ctx context.Context, inv *model.Invoice) error
	Draft(ctx context.Context, inv *model.Invoice) error
	Cancel(ctx context.Context, inv *model.Invoice) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	PostMessage(ctx context.Context, invoiceID uuid.UUID, authorID *uuid.UUID, body string) error
}

// Directory resolves companies, partners, journals and identities.
// CompanyByPartner, JournalByType and DefaultUser return (nil, nil) when nothing matches.
type Directory interface {
	CompanyByPartner(ctx context.Context, partnerID uuid.UUID) (*model.Company, error)
	Company(ctx context.Context, id uuid.UUID) (*model.Company, error)
	JournalByType(ctx context.Context, companyID uuid.UUID, journalType string) (*model.Journal, error)
	DefaultUser(ctx context.Context, companyID uuid.UUID) (*model.User, error)
	User(ctx context.Context, id uuid.UUID) (*model.User, error)
	Partner(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	Product(ctx context.Context, id uuid.UUID) (*model.Product, error)
	AnalyticAccount(ctx context.Context, id uuid.UUID) (*model.AnalyticAccount, error)
	Currency(ctx context.Context, id uuid.UUID) (*model.Currency, error)
}

// Transactor runs fn in a transaction, or in a savepoint when ctx already holds one.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type Workflow struct {
	ledger    Ledger
	dir       Directory
	tx        Transactor
	precision int32
	logger    zerolog.Logger
}

// New returns a workflow comparing mirror totals at precision decimal digits.
func New(ledger Ledger, dir Directory, tx Transactor, precision int32, logger zerolog.Logger) *Workflow {
	return &Workflow{
		ledger:    ledger,
		dir:       dir,
		tx:        tx,
		precision: precision,
		logger:    logger,
	}
}

type contextKey string

const skipAmountCheckKey contextKey = "intercompany_skip_amount_check"

// WithoutAmountCheck marks ctx so that CheckWrite lets mirror writes through.
func WithoutAmountCheck(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAmountCheckKey, true)
}

func amountCheckSkipped(ctx context.Context) bool {
	skip, _ := ctx.Value(skipAmountCheckKey).(bool)
	return skip
}
