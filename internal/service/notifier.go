package service

// Event types published after a successful commit.
const (
	EventInvoiceCreated   = "invoice.created"
	EventInvoicePosted    = "invoice.posted"
	EventInvoiceCancelled = "invoice.cancelled"
	EventInvoiceDraft     = "invoice.draft"
	EventMirrorCreated    = "mirror.created"
)

// Notifier fans lifecycle events out to connected clients. Publish must not block.
type Notifier interface {
	Publish(eventType string, payload interface{})
}

type InvoiceEvent struct {
	InvoiceID string `json:"invoice_id"`
	Name      string `json:"name"`
	CompanyID string `json:"company_id"`
	State     string `json:"state"`
	SourceID  string `json:"source_id,omitempty"`
}

// OwnerCompanyID restricts delivery to clients of the document's company.
func (e InvoiceEvent) OwnerCompanyID() string {
	return e.CompanyID
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, interface{}) {}
