package intercompany

import (
	"context"
	"fmt"

	"intercompany/internal/access"
	"intercompany/internal/model"
	"intercompany/internal/repository"
)

// OnCancel forwards the cancellation of source documents to their mirrors:
// each mirror is reset to draft, its origin rewritten, then cancelled. It runs
// elevated because the caller usually cannot see the other company.
func (w *Workflow) OnCancel(ctx context.Context, caller access.Actor, invoices []*model.Invoice) error {
	sctx := access.Into(WithoutAmountCheck(ctx), caller.Sudo())

	for _, inv := range invoices {
		if inv.AutoGenerated {
			continue
		}
		dest, err := w.ResolveCompany(ctx, inv)
		if err != nil {
			return err
		}
		if dest == nil {
			continue
		}

		mirrors, err := w.ledger.FindMirrors(sctx, inv.ID, repository.MirrorFilter{})
		if err != nil {
			return fmt.Errorf("failed to look up mirrors of %s: %w", inv.Name, err)
		}
		if len(mirrors) == 0 {
			continue
		}
		srcCompany, err := w.dir.Company(sctx, inv.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to load company of %s: %w", inv.Name, err)
		}

		for i := range mirrors {
			if err := w.cancelMirror(sctx, &mirrors[i], srcCompany, inv); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Workflow) cancelMirror(ctx context.Context, mirror *model.Invoice, srcCompany *model.Company, src *model.Invoice) error {
	if mirror.State != model.StateDraft {
		if err := w.ledger.Draft(ctx, mirror); err != nil {
			return fmt.Errorf("failed to reset mirror %s: %w", mirror.Name, err)
		}
	}

	mirror.InvoiceOrigin = fmt.Sprintf("%s - Canceled Invoice: %s", srcCompany.Name, src.Name)
	if err := w.ledger.Write(ctx, mirror); err != nil {
		return fmt.Errorf("failed to annotate mirror %s: %w", mirror.Name, err)
	}

	if err := w.ledger.Cancel(ctx, mirror); err != nil {
		return fmt.Errorf("failed to cancel mirror %s: %w", mirror.Name, err)
	}

	w.logger.Info().
		Str("invoice_id", src.ID.String()).
		Str("mirror_id", mirror.ID.String()).
		Str("company_id", mirror.CompanyID.String()).
		Msg("inter-company invoice cancelled with its source")
	return nil
}
