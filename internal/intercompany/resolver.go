package intercompany

import (
	"context"
	"fmt"

	"intercompany/internal/access"
	"intercompany/internal/model"

	"github.com/google/uuid"
)

// ResolveCompany returns the managed company represented by the invoice's
// commercial partner, or nil when the partner is an ordinary third party.
// The lookup ignores the caller's visibility.
func (w *Workflow) ResolveCompany(ctx context.Context, inv *model.Invoice) (*model.Company, error) {
	if inv.CommercialPartnerID == uuid.Nil {
		return nil, nil
	}
	company, err := w.dir.CompanyByPartner(access.Into(ctx, access.System()), inv.CommercialPartnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve company of partner %s: %w", inv.CommercialPartnerID, err)
	}
	return company, nil
}
