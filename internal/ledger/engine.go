// Package ledger stores invoices, enforces their state machine, computes
// totals and derives defaulted fields the way interactive entry would.
package ledger

import (
	"context"
	"fmt"
	"time"

	"intercompany/internal/model"
	"intercompany/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WriteHook runs after documents were written, inside the same transaction.
// Returning an error rejects the write.
type WriteHook func(ctx context.Context, invoices []*model.Invoice) error

type Engine struct {
	invoices  repository.InvoiceRepository
	messages  repository.MessageRepository
	partners  repository.PartnerRepository
	companies repository.CompanyRepository
	catalog   repository.CatalogRepository
	hooks     []WriteHook
	now       func() time.Time
	logger    zerolog.Logger
}

func NewEngine(
	invoices repository.InvoiceRepository,
	messages repository.MessageRepository,
	partners repository.PartnerRepository,
	companies repository.CompanyRepository,
	catalog repository.CatalogRepository,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		invoices:  invoices,
		messages:  messages,
		partners:  partners,
		companies: companies,
		catalog:   catalog,
		now:       time.Now,
		logger:    logger,
	}
}

// OnWrite registers a hook fired after every header, line or state write.
func (e *Engine) OnWrite(hook WriteHook) {
	e.hooks = append(e.hooks, hook)
}

// SetClock overrides the time source used for default dates.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Engine) fireWrite(ctx context.Context, invoices ...*model.Invoice) error {
	for _, hook := range e.hooks {
		if err := hook(ctx, invoices); err != nil {
			return err
		}
	}
	return nil
}

// JournalTypeFor returns the journal type a document of moveType belongs to.
func JournalTypeFor(moveType string) (string, error) {
	switch moveType {
	case model.MoveTypeOutInvoice, model.MoveTypeOutRefund:
		return model.JournalTypeSale, nil
	case model.MoveTypeInInvoice, model.MoveTypeInRefund:
		return model.JournalTypePurchase, nil
	case model.MoveTypeEntry:
		return model.JournalTypeGeneral, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMoveType, moveType)
}

// DeriveHeader fills the header fields a user would get by default once the
// company, move type and partner are set. Fields already set are kept, except
// the commercial partner which always follows the partner.
func (e *Engine) DeriveHeader(ctx context.Context, inv *model.Invoice) error {
	if inv.CompanyID == uuid.Nil {
		return ErrMissingCompany
	}
	if inv.State == "" {
		inv.State = model.StateDraft
	}

	if inv.JournalID == uuid.Nil {
		journalType, err := JournalTypeFor(inv.MoveType)
		if err != nil {
			return err
		}
		journal, err := e.catalog.FindJournalByType(ctx, inv.CompanyID, journalType)
		if err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("%w: %s journal in company %s", ErrMissingJournal, journalType, inv.CompanyID)
			}
			return err
		}
		inv.JournalID = journal.ID
	}

	if inv.CurrencyID == uuid.Nil {
		company, err := e.companies.FindByID(ctx, inv.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to load company: %w", err)
		}
		inv.CurrencyID = company.CurrencyID
	}

	if inv.PartnerID == uuid.Nil {
		return nil
	}
	partner, err := e.partners.FindByID(ctx, inv.PartnerID)
	if err != nil {
		return fmt.Errorf("failed to load partner: %w", err)
	}
	commercial, err := e.partners.FindCommercial(ctx, inv.PartnerID)
	if err != nil {
		return fmt.Errorf("failed to resolve commercial partner: %w", err)
	}
	inv.CommercialPartnerID = commercial.ID

	if inv.PartnerShippingID == nil && inv.IsSaleDocument() {
		shipping := partner.ID
		inv.PartnerShippingID = &shipping
	}
	if inv.InvoiceDateDue == nil && inv.InvoiceDate != nil {
		due := inv.InvoiceDate.AddDate(0, 0, commercial.PaymentTermDays)
		inv.InvoiceDateDue = &due
	}
	return nil
}

// DeriveLine applies the product change on a line: description, unit, price and
// tax rate are taken from the product for the document's direction. Callers set
// explicit values afterwards.
func (e *Engine) DeriveLine(ctx context.Context, inv *model.Invoice, line *model.InvoiceLine) error {
	line.CompanyID = inv.CompanyID
	if line.DisplayType != model.DisplayTypeProduct || line.ProductID == nil {
		return nil
	}

	product, err := e.catalog.FindProduct(ctx, *line.ProductID)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}

	line.Name = product.DisplayName()
	line.UOM = product.UOM
	if inv.IsSaleDocument() {
		line.PriceUnit = product.ListPrice
		line.TaxRate = product.SaleTaxRate
	} else {
		line.PriceUnit = product.StandardPrice
		line.TaxRate = product.PurchaseTaxRate
	}
	if line.Quantity.IsZero() {
		line.Quantity = decimal.NewFromInt(1)
	}
	return nil
}

// Find returns the invoice header.
func (e *Engine) Find(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return e.invoices.FindByID(ctx, id)
}

// Load returns the invoice with its lines.
func (e *Engine) Load(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return e.invoices.FindByIDWithLines(ctx, id)
}

// FindMirrors returns the documents generated from sourceID.
func (e *Engine) FindMirrors(ctx context.Context, sourceID uuid.UUID, filter repository.MirrorFilter) ([]model.Invoice, error) {
	return e.invoices.FindMirrors(ctx, sourceID, filter)
}

// Create stores a new draft document with its lines. The number is taken from
// the journal sequence unless inv.Name is already set.
func (e *Engine) Create(ctx context.Context, inv *model.Invoice) error {
	if _, err := JournalTypeFor(inv.MoveType); err != nil {
		return err
	}
	inv.State = model.StateDraft
	for i := range inv.Lines {
		inv.Lines[i].CompanyID = inv.CompanyID
	}

	if inv.Name == "" {
		name, err := e.nextName(ctx, inv)
		if err != nil {
			return err
		}
		inv.Name = name
	}

	if err := e.computeTotals(ctx, inv); err != nil {
		return err
	}
	if err := e.invoices.Create(ctx, inv); err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	e.logger.Debug().
		Str("invoice_id", inv.ID.String()).
		Str("company_id", inv.CompanyID.String()).
		Str("name", inv.Name).
		Msg("invoice created")
	return nil
}

// Write persists the header of inv. Lines and totals are left as they are.
func (e *Engine) Write(ctx context.Context, inv *model.Invoice) error {
	if err := e.invoices.Update(ctx, inv); err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return e.fireWrite(ctx, inv)
}

// WriteLines replaces the lines of a draft document and recomputes its totals.
func (e *Engine) WriteLines(ctx context.Context, inv *model.Invoice, lines []model.InvoiceLine) error {
	if inv.State != model.StateDraft {
		return fmt.Errorf("%w: lines of %s can only change in draft", ErrInvalidState, inv.Name)
	}
	for i := range lines {
		lines[i].CompanyID = inv.CompanyID
	}
	if err := e.invoices.ReplaceLines(ctx, inv, lines); err != nil {
		return fmt.Errorf("failed to replace lines: %w", err)
	}
	return e.Recompute(ctx, inv)
}

// Recompute refreshes line subtotals and header amounts from inv.Lines.
func (e *Engine) Recompute(ctx context.Context, inv *model.Invoice) error {
	if err := e.computeTotals(ctx, inv); err != nil {
		return err
	}
	for i := range inv.Lines {
		if err := e.invoices.UpdateLineSubtotal(ctx, &inv.Lines[i]); err != nil {
			return fmt.Errorf("failed to update line: %w", err)
		}
	}
	return e.Write(ctx, inv)
}

func (e *Engine) computeTotals(ctx context.Context, inv *model.Invoice) error {
	currency, err := e.catalog.FindCurrency(ctx, inv.CurrencyID)
	if err != nil {
		return fmt.Errorf("failed to load currency: %w", err)
	}
	ComputeTotals(inv, currency.Rounding)
	return nil
}

// Post validates a draft document. The invoice date defaults to today.
func (e *Engine) Post(ctx context.Context, inv *model.Invoice) error {
	if inv.State != model.StateDraft {
		return fmt.Errorf("%w: only draft documents can be posted, %s is %s", ErrInvalidState, inv.Name, inv.State)
	}
	if len(inv.ProductLines()) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyInvoice, inv.Name)
	}

	if inv.InvoiceDate == nil {
		today := truncateDay(e.now())
		inv.InvoiceDate = &today
	}
	if inv.InvoiceDateDue == nil {
		due := *inv.InvoiceDate
		if commercial, err := e.partners.FindByID(ctx, inv.CommercialPartnerID); err == nil {
			due = due.AddDate(0, 0, commercial.PaymentTermDays)
		}
		inv.InvoiceDateDue = &due
	}

	inv.State = model.StatePosted
	if err := e.Write(ctx, inv); err != nil {
		return err
	}
	e.logger.Debug().Str("invoice_id", inv.ID.String()).Str("name", inv.Name).Msg("invoice posted")
	return nil
}

// Draft resets a posted or cancelled document to draft.
func (e *Engine) Draft(ctx context.Context, inv *model.Invoice) error {
	if inv.State != model.StatePosted && inv.State != model.StateCancel {
		return fmt.Errorf("%w: %s is already %s", ErrInvalidState, inv.Name, inv.State)
	}
	inv.State = model.StateDraft
	return e.Write(ctx, inv)
}

// Cancel cancels a draft or posted document.
func (e *Engine) Cancel(ctx context.Context, inv *model.Invoice) error {
	if inv.State != model.StateDraft && inv.State != model.StatePosted {
		return fmt.Errorf("%w: %s is already %s", ErrInvalidState, inv.Name, inv.State)
	}
	inv.State = model.StateCancel
	return e.Write(ctx, inv)
}

// Unlink deletes a draft document.
func (e *Engine) Unlink(ctx context.Context, inv *model.Invoice) error {
	if inv.State != model.StateDraft {
		return fmt.Errorf("%w: only draft documents can be deleted, %s is %s", ErrInvalidState, inv.Name, inv.State)
	}
	return e.HardDelete(ctx, inv.ID)
}

// HardDelete removes a document and its lines whatever its state.
func (e *Engine) HardDelete(ctx context.Context, id uuid.UUID) error {
	if err := e.invoices.HardDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// PostMessage appends a note to the document's thread.
func (e *Engine) PostMessage(ctx context.Context, invoiceID uuid.UUID, authorID *uuid.UUID, body string) error {
	msg := &model.InvoiceMessage{InvoiceID: invoiceID, AuthorID: authorID, Body: body}
	if err := e.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	return nil
}

// Messages lists the document's thread, oldest first.
func (e *Engine) Messages(ctx context.Context, invoiceID uuid.UUID) ([]model.InvoiceMessage, error) {
	return e.messages.ListByInvoice(ctx, invoiceID)
}
