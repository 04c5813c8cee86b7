package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MoveType enum constants
const (
	MoveTypeOutInvoice = "out_invoice" // customer invoice
	MoveTypeInInvoice  = "in_invoice"  // vendor bill
	MoveTypeOutRefund  = "out_refund"  // customer credit note
	MoveTypeInRefund   = "in_refund"   // vendor credit note
	MoveTypeEntry      = "entry"       // plain journal entry, never mirrored
)

// InvoiceState enum constants
const (
	StateDraft  = "draft"
	StatePosted = "posted"
	StateCancel = "cancel"
)

// DisplayType enum constants. Empty means a regular product line.
const (
	DisplayTypeProduct = ""
	DisplayTypeSection = "line_section"
	DisplayTypeNote    = "line_note"
)

// Invoice is an accounting document owned by one company. The same type is used for
// human-authored sources and for mirrors generated in the counterpart company.
type Invoice struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name                string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_invoices_company_name" json:"name"`
	Ref                 string          `gorm:"type:varchar(255)" json:"ref"`
	MoveType            string          `gorm:"type:varchar(20);not null;index" json:"move_type"`
	CompanyID           uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_invoices_company_name" json:"company_id"`
	JournalID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"journal_id"`
	PartnerID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"partner_id"`
	CommercialPartnerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"commercial_partner_id"`
	PartnerShippingID   *uuid.UUID      `gorm:"type:uuid" json:"partner_shipping_id"`
	CurrencyID          uuid.UUID       `gorm:"type:uuid;not null" json:"currency_id"`
	InvoiceDate         *time.Time      `gorm:"type:date" json:"invoice_date"`
	InvoiceDateDue      *time.Time      `gorm:"type:date" json:"invoice_date_due"`
	Narration           string          `gorm:"type:text" json:"narration"`
	InvoiceOrigin       string          `gorm:"type:varchar(255)" json:"invoice_origin"`
	State               string          `gorm:"type:varchar(20);not null;default:'draft';index" json:"state"`
	AutoGenerated       bool            `gorm:"not null" json:"auto_generated"`
	AutoInvoiceID       *uuid.UUID      `gorm:"type:uuid;index" json:"auto_invoice_id"` // source document of a mirror
	AmountUntaxed       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount_untaxed"`
	AmountTax           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount_tax"`
	AmountTotal         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount_total"`
	Lines               []InvoiceLine   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// IsInvoice reports whether the move type is one of the four invoice/refund directions.
func (i *Invoice) IsInvoice() bool {
	switch i.MoveType {
	case MoveTypeOutInvoice, MoveTypeInInvoice, MoveTypeOutRefund, MoveTypeInRefund:
		return true
	}
	return false
}

// IsSaleDocument is true for customer invoices and customer refunds.
func (i *Invoice) IsSaleDocument() bool {
	return i.MoveType == MoveTypeOutInvoice || i.MoveType == MoveTypeOutRefund
}

// IsMirror is true when the document was produced from another company's invoice.
func (i *Invoice) IsMirror() bool {
	return i.AutoInvoiceID != nil
}

// ProductLines returns the lines that carry amounts (sections and notes excluded).
func (i *Invoice) ProductLines() []InvoiceLine {
	lines := make([]InvoiceLine, 0, len(i.Lines))
	for _, l := range i.Lines {
		if l.DisplayType == DisplayTypeProduct {
			lines = append(lines, l)
		}
	}
	return lines
}

// InvoiceLine is a single row of an invoice.
type InvoiceLine struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	CompanyID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	DisplayType       string          `gorm:"type:varchar(20)" json:"display_type"`
	ProductID         *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	Name              string          `gorm:"type:text" json:"name"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity"`
	UOM               string          `gorm:"column:uom;type:varchar(50)" json:"uom"`
	PriceUnit         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price_unit"`
	Discount          decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"discount"` // percent
	Sequence          int             `gorm:"not null;default:10" json:"sequence"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"tax_rate"` // e.g. 0.10 = 10%
	PriceSubtotal     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price_subtotal"`
	AnalyticAccountID *uuid.UUID      `gorm:"type:uuid" json:"analytic_account_id"`
	AnalyticTags      []AnalyticTag   `gorm:"many2many:invoice_line_analytic_tags;" json:"analytic_tags"`
	AutoInvoiceLineID *uuid.UUID      `gorm:"type:uuid;index" json:"auto_invoice_line_id"` // source line of a mirror line
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (l *InvoiceLine) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// InvoiceMessage is a note posted on an invoice's discussion thread.
type InvoiceMessage struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID uuid.UUID  `gorm:"type:uuid;not null;index" json:"invoice_id"`
	AuthorID  *uuid.UUID `gorm:"type:uuid" json:"author_id"` // nil when posted by the system
	Body      string     `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (m *InvoiceMessage) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
