package service

import (
	"time"

	"intercompany/internal/intercompany"
	"intercompany/internal/model"

	"github.com/google/uuid"
)

// --- DTOs ---

type InvoiceLineRequest struct {
	DisplayType       string   `json:"display_type" binding:"omitempty,oneof=line_section line_note"`
	ProductID         string   `json:"product_id"`
	Name              *string  `json:"name"`
	Quantity          string   `json:"quantity"`
	UOM               *string  `json:"uom"`
	PriceUnit         *string  `json:"price_unit"`
	Discount          string   `json:"discount"`
	TaxRate           *string  `json:"tax_rate"`
	Sequence          int      `json:"sequence"`
	AnalyticAccountID string   `json:"analytic_account_id"`
	AnalyticTagIDs    []string `json:"analytic_tag_ids"`
}

type CreateInvoiceRequest struct {
	MoveType          string               `json:"move_type" binding:"required,oneof=out_invoice in_invoice out_refund in_refund"`
	CompanyID         string               `json:"company_id" binding:"required"`
	PartnerID         string               `json:"partner_id" binding:"required"`
	JournalID         string               `json:"journal_id"`
	PartnerShippingID string               `json:"partner_shipping_id"`
	Ref               string               `json:"ref"`
	InvoiceDate       string               `json:"invoice_date"` // YYYY-MM-DD
	Narration         string               `json:"narration"`
	Lines             []InvoiceLineRequest `json:"lines" binding:"dive"`
}

// UpdateInvoiceRequest edits a document. Nil fields are left unchanged; a
// non-nil Lines replaces every line.
type UpdateInvoiceRequest struct {
	Ref         *string              `json:"ref"`
	Narration   *string              `json:"narration"`
	PartnerID   *string              `json:"partner_id"`
	InvoiceDate *string              `json:"invoice_date"`
	Lines       []InvoiceLineRequest `json:"lines" binding:"omitempty,dive"`
}

type BatchRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

type InvoiceListFilter struct {
	CompanyID     string
	State         string
	MoveType      string
	AutoGenerated *bool
	Search        string
	Page          int
	Limit         int
}

type InvoiceLineResponse struct {
	ID                string   `json:"id"`
	DisplayType       string   `json:"display_type"`
	ProductID         *string  `json:"product_id"`
	Name              string   `json:"name"`
	Quantity          string   `json:"quantity"`
	UOM               string   `json:"uom"`
	PriceUnit         string   `json:"price_unit"`
	Discount          string   `json:"discount"`
	TaxRate           string   `json:"tax_rate"`
	Sequence          int      `json:"sequence"`
	PriceSubtotal     string   `json:"price_subtotal"`
	AnalyticAccountID *string  `json:"analytic_account_id"`
	AnalyticTagIDs    []string `json:"analytic_tag_ids"`
	AutoInvoiceLineID *string  `json:"auto_invoice_line_id"`
}

type MessageResponse struct {
	ID        string  `json:"id"`
	AuthorID  *string `json:"author_id"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"created_at"`
}

type InvoiceResponse struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	Ref                 string                `json:"ref"`
	MoveType            string                `json:"move_type"`
	CompanyID           string                `json:"company_id"`
	JournalID           string                `json:"journal_id"`
	PartnerID           string                `json:"partner_id"`
	CommercialPartnerID string                `json:"commercial_partner_id"`
	PartnerShippingID   *string               `json:"partner_shipping_id"`
	CurrencyID          string                `json:"currency_id"`
	InvoiceDate         *string               `json:"invoice_date"`
	InvoiceDateDue      *string               `json:"invoice_date_due"`
	Narration           string                `json:"narration"`
	InvoiceOrigin       string                `json:"invoice_origin"`
	State               string                `json:"state"`
	AutoGenerated       bool                  `json:"auto_generated"`
	AutoInvoiceID       *string               `json:"auto_invoice_id"`
	AmountUntaxed       string                `json:"amount_untaxed"`
	AmountTax           string                `json:"amount_tax"`
	AmountTotal         string                `json:"amount_total"`
	Lines               []InvoiceLineResponse `json:"lines,omitempty"`
	Messages            []MessageResponse     `json:"messages,omitempty"`
	CreatedAt           string                `json:"created_at"`
}

// MirrorSummary describes the mirror produced while posting a document.
type MirrorSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CompanyID string `json:"company_id"`
	State     string `json:"state"`
	Posted    bool   `json:"posted"`
	Mismatch  bool   `json:"mismatch"`
}

// BatchResult is the outcome of one document of a batch operation.
type BatchResult struct {
	ID         string         `json:"id"`
	Success    bool           `json:"success"`
	State      string         `json:"state,omitempty"`
	Error      string         `json:"error,omitempty"`
	Mirror     *MirrorSummary `json:"mirror,omitempty"`
	MirrorSkip string         `json:"mirror_skipped,omitempty"`
	err        error
}

// Err returns the error behind a failed result.
func (r BatchResult) Err() error {
	return r.err
}

type BatchResponse struct {
	Results   []BatchResult `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}

func (b *BatchResponse) add(r BatchResult) {
	b.Results = append(b.Results, r)
	if r.Success {
		b.Succeeded++
	} else {
		b.Failed++
	}
}

// --- Mappers ---

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func formatID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toInvoiceResponse(inv *model.Invoice) InvoiceResponse {
	res := InvoiceResponse{
		ID:                  inv.ID.String(),
		Name:                inv.Name,
		Ref:                 inv.Ref,
		MoveType:            inv.MoveType,
		CompanyID:           inv.CompanyID.String(),
		JournalID:           inv.JournalID.String(),
		PartnerID:           inv.PartnerID.String(),
		CommercialPartnerID: inv.CommercialPartnerID.String(),
		PartnerShippingID:   formatID(inv.PartnerShippingID),
		CurrencyID:          inv.CurrencyID.String(),
		InvoiceDate:         formatDate(inv.InvoiceDate),
		InvoiceDateDue:      formatDate(inv.InvoiceDateDue),
		Narration:           inv.Narration,
		InvoiceOrigin:       inv.InvoiceOrigin,
		State:               inv.State,
		AutoGenerated:       inv.AutoGenerated,
		AutoInvoiceID:       formatID(inv.AutoInvoiceID),
		AmountUntaxed:       inv.AmountUntaxed.StringFixed(2),
		AmountTax:           inv.AmountTax.StringFixed(2),
		AmountTotal:         inv.AmountTotal.StringFixed(2),
		CreatedAt:           inv.CreatedAt.Format(time.RFC3339),
	}

	for _, l := range inv.Lines {
		tagIDs := make([]string, 0, len(l.AnalyticTags))
		for _, t := range l.AnalyticTags {
			tagIDs = append(tagIDs, t.ID.String())
		}
		res.Lines = append(res.Lines, InvoiceLineResponse{
			ID:                l.ID.String(),
			DisplayType:       l.DisplayType,
			ProductID:         formatID(l.ProductID),
			Name:              l.Name,
			Quantity:          l.Quantity.String(),
			UOM:               l.UOM,
			PriceUnit:         l.PriceUnit.String(),
			Discount:          l.Discount.String(),
			TaxRate:           l.TaxRate.String(),
			Sequence:          l.Sequence,
			PriceSubtotal:     l.PriceSubtotal.StringFixed(2),
			AnalyticAccountID: formatID(l.AnalyticAccountID),
			AnalyticTagIDs:    tagIDs,
			AutoInvoiceLineID: formatID(l.AutoInvoiceLineID),
		})
	}
	return res
}

func toMessageResponses(messages []model.InvoiceMessage) []MessageResponse {
	res := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, MessageResponse{
			ID:        m.ID.String(),
			AuthorID:  formatID(m.AuthorID),
			Body:      m.Body,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}
	return res
}

func toMirrorSummary(result *intercompany.MirrorResult) *MirrorSummary {
	if result == nil || result.Mirror == nil {
		return nil
	}
	return &MirrorSummary{
		ID:        result.Mirror.ID.String(),
		Name:      result.Mirror.Name,
		CompanyID: result.Mirror.CompanyID.String(),
		State:     result.Mirror.State,
		Posted:    result.Posted,
		Mismatch:  result.Mismatch,
	}
}
