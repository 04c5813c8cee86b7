package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"intercompany/internal/access"
	"intercompany/internal/intercompany"
	"intercompany/internal/ledger"
	"intercompany/internal/model"
	"intercompany/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// InvoiceLedger is the document engine the service drives.
type InvoiceLedger interface {
	DeriveHeader(ctx context.Context, inv *model.Invoice) error
	DeriveLine(ctx context.Context, inv *model.Invoice, line *model.InvoiceLine) error
	Find(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	Load(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindMirrors(ctx context.Context, sourceID uuid.UUID, filter repository.MirrorFilter) ([]model.Invoice, error)
	Create(ctx context.Context, inv *model.Invoice) error
	Write(ctx context.Context, inv *model.Invoice) error
	WriteLines(ctx context.Context, inv *model.Invoice, lines []model.InvoiceLine) error
	Post(ctx context.Context, inv *model.Invoice) error
	Draft(ctx context.Context, inv *model.Invoice) error
	Cancel(ctx context.Context, inv *model.Invoice) error
	Unlink(ctx context.Context, inv *model.Invoice) error
	Messages(ctx context.Context, invoiceID uuid.UUID) ([]model.InvoiceMessage, error)
}

// Mirroring is the inter-company workflow hooked on lifecycle transitions.
type Mirroring interface {
	OnPost(ctx context.Context, caller access.Actor, invoices []*model.Invoice) []intercompany.Outcome
	OnCancel(ctx context.Context, caller access.Actor, invoices []*model.Invoice) error
	CheckReset(ctx context.Context, invoices []*model.Invoice) error
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, actor access.Actor, req CreateInvoiceRequest) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, actor access.Actor, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, actor access.Actor, filter InvoiceListFilter) ([]InvoiceResponse, int64, error)
	UpdateInvoice(ctx context.Context, actor access.Actor, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, actor access.Actor, id string) error
	PostInvoices(ctx context.Context, actor access.Actor, ids []string) (BatchResponse, error)
	CancelInvoices(ctx context.Context, actor access.Actor, ids []string) (BatchResponse, error)
	ResetToDraft(ctx context.Context, actor access.Actor, ids []string) (BatchResponse, error)
	ListMirrors(ctx context.Context, actor access.Actor, id string) ([]InvoiceResponse, error)
}

type invoiceService struct {
	ledger      InvoiceLedger
	mirroring   Mirroring
	invoiceRepo repository.InvoiceRepository
	catalogRepo repository.CatalogRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	notifier    Notifier
	logger      zerolog.Logger
}

func NewInvoiceService(
	ledger InvoiceLedger,
	mirroring Mirroring,
	invoiceRepo repository.InvoiceRepository,
	catalogRepo repository.CatalogRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	logger zerolog.Logger,
) InvoiceService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &invoiceService{
		ledger:      ledger,
		mirroring:   mirroring,
		invoiceRepo: invoiceRepo,
		catalogRepo: catalogRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		notifier:    notifier,
		logger:      logger,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, actor access.Actor, req CreateInvoiceRequest) (InvoiceResponse, error) {
	companyID, err := parseID("company_id", req.CompanyID)
	if err != nil {
		return InvoiceResponse{}, err
	}
	if !actor.Allows(companyID) {
		return InvoiceResponse{}, fmt.Errorf("%w: company %s", ErrForbidden, companyID)
	}
	partnerID, err := parseID("partner_id", req.PartnerID)
	if err != nil {
		return InvoiceResponse{}, err
	}

	invoice := &model.Invoice{
		MoveType:  req.MoveType,
		CompanyID: companyID,
		PartnerID: partnerID,
		Ref:       req.Ref,
		Narration: req.Narration,
	}
	if req.JournalID != "" {
		if invoice.JournalID, err = parseID("journal_id", req.JournalID); err != nil {
			return InvoiceResponse{}, err
		}
	}
	if req.PartnerShippingID != "" {
		shippingID, err := parseID("partner_shipping_id", req.PartnerShippingID)
		if err != nil {
			return InvoiceResponse{}, err
		}
		invoice.PartnerShippingID = &shippingID
	}
	if invoice.InvoiceDate, err = parseDate("invoice_date", req.InvoiceDate); err != nil {
		return InvoiceResponse{}, err
	}

	ctx = access.Into(ctx, actor)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ledger.DeriveHeader(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to prepare invoice: %w", err)
		}
		lines, err := s.buildLines(txCtx, invoice, req.Lines)
		if err != nil {
			return err
		}
		invoice.Lines = lines

		if err := s.ledger.Create(txCtx, invoice); err != nil {
			return err
		}
		return s.writeAudit(txCtx, actor, model.ActionCreateInvoice, invoice, map[string]interface{}{
			"move_type":    invoice.MoveType,
			"partner_id":   invoice.PartnerID.String(),
			"amount_total": invoice.AmountTotal.String(),
		})
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	s.notifier.Publish(EventInvoiceCreated, toEvent(invoice))
	return s.GetInvoice(ctx, actor, invoice.ID.String())
}

func (s *invoiceService) GetInvoice(ctx context.Context, actor access.Actor, id string) (InvoiceResponse, error) {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	ctx = access.Into(ctx, actor)

	invoice, err := s.ledger.Load(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invoice not found: %w", err)
	}
	messages, err := s.ledger.Messages(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to load messages: %w", err)
	}

	res := toInvoiceResponse(invoice)
	res.Messages = toMessageResponses(messages)
	return res, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, actor access.Actor, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.InvoiceFilter{
		State:         filter.State,
		MoveType:      filter.MoveType,
		AutoGenerated: filter.AutoGenerated,
		Search:        strings.TrimSpace(filter.Search),
	}
	if filter.CompanyID != "" {
		companyID, err := parseID("company_id", filter.CompanyID)
		if err != nil {
			return nil, 0, err
		}
		repoFilter.CompanyID = &companyID
	}

	invoices, total, err := s.invoiceRepo.List(access.Into(ctx, actor), repoFilter, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		res = append(res, toInvoiceResponse(&invoices[i]))
	}
	return res, total, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, actor access.Actor, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	ctx = access.Into(ctx, actor)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.ledger.Load(txCtx, invoiceID)
		if err != nil {
			return fmt.Errorf("invoice not found: %w", err)
		}

		if req.Ref != nil {
			invoice.Ref = *req.Ref
		}
		if req.Narration != nil {
			invoice.Narration = *req.Narration
		}

		accounting := req.PartnerID != nil || req.InvoiceDate != nil || req.Lines != nil
		if accounting && invoice.State != model.StateDraft {
			return fmt.Errorf("%w: only ref and narration can change while %s is %s",
				ledger.ErrInvalidState, invoice.Name, invoice.State)
		}

		rederive := false
		if req.PartnerID != nil {
			partnerID, err := parseID("partner_id", *req.PartnerID)
			if err != nil {
				return err
			}
			invoice.PartnerID = partnerID
			invoice.PartnerShippingID = nil
			rederive = true
		}
		if req.InvoiceDate != nil {
			if invoice.InvoiceDate, err = parseDate("invoice_date", *req.InvoiceDate); err != nil {
				return err
			}
			rederive = true
		}
		if rederive {
			invoice.InvoiceDateDue = nil
			if err := s.ledger.DeriveHeader(txCtx, invoice); err != nil {
				return fmt.Errorf("failed to prepare invoice: %w", err)
			}
		}

		if req.Lines != nil {
			lines, err := s.buildLines(txCtx, invoice, req.Lines)
			if err != nil {
				return err
			}
			if err := s.ledger.WriteLines(txCtx, invoice, lines); err != nil {
				return err
			}
		} else if err := s.ledger.Write(txCtx, invoice); err != nil {
			return err
		}

		return s.writeAudit(txCtx, actor, model.ActionUpdateInvoice, invoice, map[string]interface{}{
			"lines_replaced": req.Lines != nil,
			"amount_total":   invoice.AmountTotal.String(),
		})
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	return s.GetInvoice(ctx, actor, id)
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, actor access.Actor, id string) error {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return err
	}

	ctx = access.Into(ctx, actor)
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.ledger.Find(txCtx, invoiceID)
		if err != nil {
			return fmt.Errorf("invoice not found: %w", err)
		}
		if err := s.ledger.Unlink(txCtx, invoice); err != nil {
			return err
		}
		return s.writeAudit(txCtx, actor, model.ActionDeleteInvoice, invoice, map[string]interface{}{
			"move_type": invoice.MoveType,
		})
	})
}

// PostInvoices posts each document then mirrors it. A failing document, its
// posting included, is rolled back alone.
func (s *invoiceService) PostInvoices(ctx context.Context, actor access.Actor, ids []string) (BatchResponse, error) {
	return s.runBatch(ctx, actor, ids, model.ActionPostInvoice, EventInvoicePosted,
		func(txCtx context.Context, invoice *model.Invoice, res *BatchResult) error {
			if err := s.ledger.Post(txCtx, invoice); err != nil {
				return err
			}
			for _, outcome := range s.mirroring.OnPost(txCtx, actor, []*model.Invoice{invoice}) {
				switch outcome.Status {
				case intercompany.StatusFailed:
					return outcome.Err
				case intercompany.StatusSkipped:
					res.MirrorSkip = outcome.Reason
				case intercompany.StatusBuilt:
					res.Mirror = toMirrorSummary(outcome.Result)
					mirror := outcome.Result.Mirror
					err := s.writeAudit(txCtx, actor, model.ActionCreateMirror, mirror, map[string]interface{}{
						"source_id":   invoice.ID.String(),
						"source_name": invoice.Name,
						"posted":      outcome.Result.Posted,
						"mismatch":    outcome.Result.Mismatch,
						"reused_name": outcome.Result.ReusedName,
					})
					if err != nil {
						return err
					}
				}
			}
			return nil
		})
}

// CancelInvoices cancels the mirrors of each document, then the document.
func (s *invoiceService) CancelInvoices(ctx context.Context, actor access.Actor, ids []string) (BatchResponse, error) {
	return s.runBatch(ctx, actor, ids, model.ActionCancelInvoice, EventInvoiceCancelled,
		func(txCtx context.Context, invoice *model.Invoice, _ *BatchResult) error {
			if err := s.mirroring.OnCancel(txCtx, actor, []*model.Invoice{invoice}); err != nil {
				return err
			}
			return s.ledger.Cancel(txCtx, invoice)
		})
}

// ResetToDraft resets each document unless one of its mirrors is posted.
func (s *invoiceService) ResetToDraft(ctx context.Context, actor access.Actor, ids []string) (BatchResponse, error) {
	return s.runBatch(ctx, actor, ids, model.ActionDraftInvoice, EventInvoiceDraft,
		func(txCtx context.Context, invoice *model.Invoice, _ *BatchResult) error {
			if err := s.mirroring.CheckReset(txCtx, []*model.Invoice{invoice}); err != nil {
				return err
			}
			return s.ledger.Draft(txCtx, invoice)
		})
}

func (s *invoiceService) ListMirrors(ctx context.Context, actor access.Actor, id string) ([]InvoiceResponse, error) {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	ctx = access.Into(ctx, actor)

	if _, err := s.ledger.Find(ctx, invoiceID); err != nil {
		return nil, fmt.Errorf("invoice not found: %w", err)
	}
	mirrors, err := s.ledger.FindMirrors(ctx, invoiceID, repository.MirrorFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list mirrors: %w", err)
	}

	res := make([]InvoiceResponse, 0, len(mirrors))
	for i := range mirrors {
		res = append(res, toInvoiceResponse(&mirrors[i]))
	}
	return res, nil
}

type batchStep func(txCtx context.Context, invoice *model.Invoice, res *BatchResult) error

// runBatch processes documents one by one inside a single transaction, each in
// its own savepoint. Events are published once the transaction committed.
func (s *invoiceService) runBatch(ctx context.Context, actor access.Actor, ids []string, action, eventType string, step batchStep) (BatchResponse, error) {
	ctx = access.Into(ctx, actor)

	var batch BatchResponse
	var events []InvoiceEvent
	var mirrorEvents []InvoiceEvent

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, rawID := range ids {
			res := BatchResult{ID: rawID}
			var event InvoiceEvent

			err := s.txManager.RunInTx(txCtx, func(docCtx context.Context) error {
				invoiceID, err := parseID("id", rawID)
				if err != nil {
					return err
				}
				invoice, err := s.ledger.Load(docCtx, invoiceID)
				if err != nil {
					return fmt.Errorf("invoice not found: %w", err)
				}
				if err := step(docCtx, invoice, &res); err != nil {
					return err
				}
				res.State = invoice.State
				event = toEvent(invoice)
				return s.writeAudit(docCtx, actor, action, invoice, map[string]interface{}{
					"state": invoice.State,
				})
			})

			if err != nil {
				res = BatchResult{ID: rawID, Error: err.Error(), err: err}
				s.logger.Error().Err(err).Str("invoice_id", rawID).Str("action", action).Msg("batch operation failed for invoice")
			} else {
				res.Success = true
				events = append(events, event)
				if res.Mirror != nil {
					mirrorEvents = append(mirrorEvents, InvoiceEvent{
						InvoiceID: res.Mirror.ID,
						Name:      res.Mirror.Name,
						CompanyID: res.Mirror.CompanyID,
						State:     res.Mirror.State,
						SourceID:  event.InvoiceID,
					})
				}
			}
			batch.add(res)
		}
		return nil
	})
	if err != nil {
		return BatchResponse{}, err
	}

	for _, e := range events {
		s.notifier.Publish(eventType, e)
	}
	for _, e := range mirrorEvents {
		s.notifier.Publish(EventMirrorCreated, e)
	}
	return batch, nil
}

// buildLines enters request lines the way a user would: the product change
// runs first, then explicitly given values win.
func (s *invoiceService) buildLines(ctx context.Context, invoice *model.Invoice, reqs []InvoiceLineRequest) ([]model.InvoiceLine, error) {
	lines := make([]model.InvoiceLine, 0, len(reqs))
	for i, r := range reqs {
		line := model.InvoiceLine{DisplayType: r.DisplayType, Sequence: r.Sequence}
		if line.Sequence == 0 {
			line.Sequence = (i + 1) * 10
		}

		var err error
		if r.ProductID != "" {
			productID, err := parseID("product_id", r.ProductID)
			if err != nil {
				return nil, err
			}
			line.ProductID = &productID
		}
		if line.Quantity, err = parseDecimal("quantity", r.Quantity); err != nil {
			return nil, err
		}
		if err := s.ledger.DeriveLine(ctx, invoice, &line); err != nil {
			return nil, err
		}

		if r.Name != nil {
			line.Name = *r.Name
		}
		if r.UOM != nil {
			line.UOM = *r.UOM
		}
		if r.PriceUnit != nil {
			if line.PriceUnit, err = parseDecimal("price_unit", *r.PriceUnit); err != nil {
				return nil, err
			}
		}
		if r.TaxRate != nil {
			if line.TaxRate, err = parseDecimal("tax_rate", *r.TaxRate); err != nil {
				return nil, err
			}
		}
		if line.Discount, err = parseDecimal("discount", r.Discount); err != nil {
			return nil, err
		}

		if r.AnalyticAccountID != "" {
			accountID, err := parseID("analytic_account_id", r.AnalyticAccountID)
			if err != nil {
				return nil, err
			}
			if _, err := s.catalogRepo.FindAnalyticAccount(ctx, accountID); err != nil {
				return nil, fmt.Errorf("%w: analytic account %s not found", ErrInvalidInput, accountID)
			}
			line.AnalyticAccountID = &accountID
		}
		if len(r.AnalyticTagIDs) > 0 {
			tagIDs := make([]uuid.UUID, 0, len(r.AnalyticTagIDs))
			for _, raw := range r.AnalyticTagIDs {
				tagID, err := parseID("analytic_tag_ids", raw)
				if err != nil {
					return nil, err
				}
				tagIDs = append(tagIDs, tagID)
			}
			tags, err := s.catalogRepo.FindAnalyticTags(ctx, tagIDs)
			if err != nil {
				return nil, fmt.Errorf("failed to load analytic tags: %w", err)
			}
			if len(tags) != len(tagIDs) {
				return nil, fmt.Errorf("%w: unknown analytic tag", ErrInvalidInput)
			}
			line.AnalyticTags = tags
		}

		lines = append(lines, line)
	}
	return lines, nil
}

func (s *invoiceService) writeAudit(ctx context.Context, actor access.Actor, action string, invoice *model.Invoice, details map[string]interface{}) error {
	details["company_id"] = invoice.CompanyID.String()
	payload, _ := json.Marshal(details)
	audit := &model.AuditLog{
		UserID:     actor.UserID,
		Action:     action,
		EntityID:   invoice.ID.String(),
		EntityName: invoice.Name,
		Details:    string(payload),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func toEvent(invoice *model.Invoice) InvoiceEvent {
	e := InvoiceEvent{
		InvoiceID: invoice.ID.String(),
		Name:      invoice.Name,
		CompanyID: invoice.CompanyID.String(),
		State:     invoice.State,
	}
	if invoice.AutoInvoiceID != nil {
		e.SourceID = invoice.AutoInvoiceID.String()
	}
	return e
}

// --- Parsing helpers ---

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", ErrInvalidInput, field)
	}
	return id, nil
}

func parseDate(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s, expected YYYY-MM-DD", ErrInvalidInput, field)
	}
	return &t, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s", ErrInvalidInput, field)
	}
	return d, nil
}
