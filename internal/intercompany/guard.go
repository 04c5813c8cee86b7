package intercompany

import (
	"context"
	"fmt"

	"intercompany/internal/access"
	"intercompany/internal/ledger"
	"intercompany/internal/model"
	"intercompany/internal/repository"
)

// CheckReset rejects resetting documents that have a posted mirror.
func (w *Workflow) CheckReset(ctx context.Context, invoices []*model.Invoice) error {
	sctx := access.Into(ctx, access.System())

	for _, inv := range invoices {
		posted, err := w.ledger.FindMirrors(sctx, inv.ID, repository.MirrorFilter{State: model.StatePosted})
		if err != nil {
			return fmt.Errorf("failed to look up posted mirrors of %s: %w", inv.Name, err)
		}
		if len(posted) == 0 {
			continue
		}

		mirror := posted[0]
		partnerName := mirror.PartnerID.String()
		if partner, err := w.dir.Partner(sctx, mirror.PartnerID); err == nil {
			partnerName = partner.Name
		}
		return newError("CheckReset", KindConsistency, ErrPostedMirrorExists,
			"You can't modify this invoice as it has an inter company invoice that's in posted state.\nInvoice %s to %s",
			mirror.Name, partnerName)
	}
	return nil
}

// CheckWrite rejects writes leaving a mirror with an untaxed amount different
// from its source's at the source currency rounding. Writes made while building
// or cancelling mirrors are let through.
func (w *Workflow) CheckWrite(ctx context.Context, invoices []*model.Invoice) error {
	if amountCheckSkipped(ctx) {
		return nil
	}
	sctx := access.Into(ctx, access.System())

	for _, inv := range invoices {
		if inv.AutoInvoiceID == nil {
			continue
		}
		src, err := w.ledger.Find(sctx, *inv.AutoInvoiceID)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("failed to load source of %s: %w", inv.Name, err)
		}
		currency, err := w.dir.Currency(sctx, src.CurrencyID)
		if err != nil {
			return fmt.Errorf("failed to load currency of %s: %w", src.Name, err)
		}
		if ledger.CompareRounding(inv.AmountUntaxed, src.AmountUntaxed, currency.Rounding) != 0 {
			return newError("CheckWrite", KindConsistency, ErrAmountDesync,
				"This is an autogenerated multi company invoice and you're trying to modify the amount, which will differ from the source one (%s)",
				src.Name)
		}
	}
	return nil
}
