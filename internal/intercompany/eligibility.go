package intercompany

import (
	"context"
	"fmt"

	"intercompany/internal/access"
	"intercompany/internal/model"
	"intercompany/internal/repository"

	"github.com/google/uuid"
)

// Status is the result of one document's mirroring attempt.
type Status string

const (
	StatusBuilt   Status = "built"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Reasons a posted document is not mirrored.
const (
	ReasonUnsupportedType    = "unsupported move type"
	ReasonAutoGenerated      = "document is itself a mirror"
	ReasonNoDestination      = "partner is not a managed company"
	ReasonSameCompany        = "partner represents the document's own company"
	ReasonPostedMirrorExists = "a posted mirror already exists"
)

// Outcome reports what happened to one source document in OnPost.
type Outcome struct {
	SourceID uuid.UUID
	Status   Status
	Reason   string
	Result   *MirrorResult
	Err      error
}

// OnPost runs the mirroring workflow for documents that were just posted by
// caller. Each document is handled in its own savepoint; a failure is reported
// in its Outcome and does not stop the remaining documents.
func (w *Workflow) OnPost(ctx context.Context, caller access.Actor, invoices []*model.Invoice) []Outcome {
	outcomes := make([]Outcome, 0, len(invoices))
	for _, inv := range invoices {
		var outcome Outcome
		err := w.tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			outcome, err = w.mirrorPosted(txCtx, caller, inv)
			return err
		})
		if err != nil {
			outcome = Outcome{SourceID: inv.ID, Status: StatusFailed, Err: err}
			w.logger.Error().Err(err).
				Str("invoice_id", inv.ID.String()).
				Str("company_id", inv.CompanyID.String()).
				Msg("inter-company mirroring failed")
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (w *Workflow) mirrorPosted(ctx context.Context, caller access.Actor, inv *model.Invoice) (Outcome, error) {
	skip := func(reason string) (Outcome, error) {
		w.logger.Debug().Str("invoice_id", inv.ID.String()).Str("reason", reason).Msg("inter-company mirroring skipped")
		return Outcome{SourceID: inv.ID, Status: StatusSkipped, Reason: reason}, nil
	}

	if !Supported(inv.MoveType) {
		return skip(ReasonUnsupportedType)
	}
	if inv.AutoGenerated {
		return skip(ReasonAutoGenerated)
	}

	dest, err := w.ResolveCompany(ctx, inv)
	if err != nil {
		return Outcome{}, err
	}
	if dest == nil {
		return skip(ReasonNoDestination)
	}
	if dest.ID == inv.CompanyID {
		return skip(ReasonSameCompany)
	}

	posted, err := w.ledger.FindMirrors(access.Into(ctx, access.System()), inv.ID, repository.MirrorFilter{
		CompanyID: &dest.ID,
		State:     model.StatePosted,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to look up posted mirrors: %w", err)
	}
	if len(posted) > 0 {
		return skip(ReasonPostedMirrorExists)
	}

	actor, err := w.builderActor(ctx, caller, dest)
	if err != nil {
		return Outcome{}, err
	}

	result, err := w.BuildMirror(WithoutAmountCheck(ctx), actor, inv, dest)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{SourceID: inv.ID, Status: StatusBuilt, Result: result}, nil
}

// builderActor returns the identity mirrors of dest are built under: the
// company's inter-company user scoped to its own companies plus dest when one is
// configured, otherwise the caller with elevated privilege.
func (w *Workflow) builderActor(ctx context.Context, caller access.Actor, dest *model.Company) (access.Actor, error) {
	if dest.IntercompanyInvoiceUserID == nil {
		return caller.Sudo(), nil
	}
	user, err := w.dir.User(access.Into(ctx, access.System()), *dest.IntercompanyInvoiceUserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return access.Actor{}, newError("OnPost", KindConfiguration, ErrConfiguration,
				"The inter-company user configured for company %q does not exist.", dest.Name)
		}
		return access.Actor{}, fmt.Errorf("failed to load inter-company user: %w", err)
	}
	return access.ForUser(user.ID, user.AllowedCompanyIDs()...).WithCompany(dest.ID), nil
}
