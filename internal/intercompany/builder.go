package intercompany

import (
	"context"
	"fmt"

	"intercompany/internal/access"
	"intercompany/internal/ledger"
	"intercompany/internal/model"
	"intercompany/internal/repository"

	"github.com/google/uuid"
)

// MirrorResult describes the document produced by BuildMirror.
type MirrorResult struct {
	Mirror *model.Invoice

	// ReusedName is the number taken over from a reclaimed mirror, if any.
	ReusedName string

	// Posted is true when the mirror was validated automatically.
	Posted bool

	// Mismatch is true when the mirror total differs from the source total.
	Mismatch bool
}

// BuildMirror creates, or recreates, the counterpart of source in dest acting as
// actor. Nothing is persisted when an error is returned, provided the caller
// runs it inside a transaction.
func (w *Workflow) BuildMirror(ctx context.Context, actor access.Actor, source *model.Invoice, dest *model.Company) (*MirrorResult, error) {
	actx := access.Into(ctx, actor)
	// cross-company reads of the source side
	sctx := access.Into(ctx, actor.Sudo())

	moveType, ok := MirrorMoveType(source.MoveType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ledger.ErrUnsupportedMoveType, source.MoveType)
	}
	journalType, _ := MirrorJournalType(source.MoveType)

	src, err := w.ledger.Load(sctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source invoice: %w", err)
	}

	if err := w.checkProducts(ctx, src, dest); err != nil {
		return nil, err
	}
	for _, line := range src.ProductLines() {
		if line.ProductID == nil {
			return nil, newError("BuildMirror", KindCompleteness, ErrLineWithoutProduct,
				"The invoice line '%s' doesn't have a product. All invoice lines should have a product for inter-company invoices.",
				line.Name)
		}
	}

	reusedName, err := w.reclaim(actx, src, dest)
	if err != nil {
		return nil, err
	}

	mirror, err := w.buildHeader(ctx, actor, src, dest, moveType, journalType)
	if err != nil {
		return nil, err
	}
	mirror.Name = reusedName

	for _, srcLine := range src.ProductLines() {
		line, err := w.buildLine(sctx, mirror, &srcLine)
		if err != nil {
			return nil, err
		}
		mirror.Lines = append(mirror.Lines, *line)
	}

	if err := w.ledger.Create(actx, mirror); err != nil {
		return nil, fmt.Errorf("failed to create mirror: %w", err)
	}

	log := w.logger.With().
		Str("invoice_id", src.ID.String()).
		Str("company_id", dest.ID.String()).
		Str("mirror_id", mirror.ID.String()).
		Logger()

	result := &MirrorResult{Mirror: mirror, ReusedName: reusedName}
	cmp := ledger.CompareDigits(src.AmountTotal, mirror.AmountTotal, w.precision)
	switch {
	case cmp == 0 && dest.InvoiceAutoValidation:
		if err := w.ledger.Post(actx, mirror); err != nil {
			return nil, fmt.Errorf("failed to post mirror: %w", err)
		}
		result.Posted = true
		log.Info().Str("name", mirror.Name).Msg("inter-company invoice created and posted")
	case cmp != 0:
		if err := w.warnMismatch(sctx, actor, src, mirror); err != nil {
			return nil, err
		}
		result.Mismatch = true
		log.Warn().
			Str("source_total", src.AmountTotal.String()).
			Str("mirror_total", mirror.AmountTotal.String()).
			Msg("inter-company invoice total differs from source")
	default:
		log.Info().Str("name", mirror.Name).Msg("inter-company invoice created")
	}
	return result, nil
}

// checkProducts verifies every product is readable by dest's default user
// limited to dest, unless dest shares products across companies.
func (w *Workflow) checkProducts(ctx context.Context, src *model.Invoice, dest *model.Company) error {
	if dest.CompanyShareProduct {
		return nil
	}
	scope := access.Actor{CompanyIDs: []uuid.UUID{dest.ID}}
	user, err := w.dir.DefaultUser(access.Into(ctx, access.System()), dest.ID)
	if err != nil {
		return fmt.Errorf("failed to load default user of %s: %w", dest.Name, err)
	}
	if user != nil {
		scope.UserID = &user.ID
	}
	scoped := access.Into(ctx, scope)

	for _, line := range src.ProductLines() {
		if line.ProductID == nil {
			continue
		}
		_, err := w.dir.Product(scoped, *line.ProductID)
		if err == nil {
			continue
		}
		if !repository.IsNotFound(err) {
			return fmt.Errorf("failed to check product visibility: %w", err)
		}
		product, err := w.dir.Product(access.Into(ctx, access.System()), *line.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}
		return newError("BuildMirror", KindVisibility, ErrProductNotShared,
			"You cannot create invoice in company '%s' with product '%s' because it is not multicompany",
			dest.Name, product.Name)
	}
	return nil
}

// reclaim deletes earlier draft or cancelled mirrors of src in dest and returns
// the number of the first one so the new mirror keeps it.
func (w *Workflow) reclaim(ctx context.Context, src *model.Invoice, dest *model.Company) (string, error) {
	existing, err := w.ledger.FindMirrors(ctx, src.ID, repository.MirrorFilter{CompanyID: &dest.ID})
	if err != nil {
		return "", fmt.Errorf("failed to look up existing mirrors: %w", err)
	}
	for _, m := range existing {
		if m.State == model.StatePosted {
			return "", newError("BuildMirror", KindConsistency, ErrMirrorAlreadyPosted,
				"The inter-company invoice %s of %s is already posted in company %s.", m.Name, src.Name, dest.Name)
		}
	}

	var name string
	for _, m := range existing {
		if name == "" {
			name = m.Name
		}
		if err := w.ledger.HardDelete(ctx, m.ID); err != nil {
			return "", fmt.Errorf("failed to delete stale mirror %s: %w", m.Name, err)
		}
		w.logger.Debug().
			Str("invoice_id", src.ID.String()).
			Str("mirror_id", m.ID.String()).
			Str("name", m.Name).
			Msg("stale inter-company invoice removed")
	}
	return name, nil
}

func (w *Workflow) buildHeader(ctx context.Context, actor access.Actor, src *model.Invoice, dest *model.Company, moveType, journalType string) (*model.Invoice, error) {
	actx := access.Into(ctx, actor)
	sctx := access.Into(ctx, actor.Sudo())

	journal, err := w.dir.JournalByType(actx, dest.ID, journalType)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s journal: %w", journalType, err)
	}
	if journal == nil {
		return nil, newError("BuildMirror", KindConfiguration, ErrConfiguration,
			"Please define %s journal for this company: \"%s\" (id:%s).", journalType, dest.Name, dest.ID)
	}

	srcCompany, err := w.dir.Company(sctx, src.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load source company: %w", err)
	}

	mirror := &model.Invoice{
		MoveType:   moveType,
		CompanyID:  dest.ID,
		JournalID:  journal.ID,
		PartnerID:  srcCompany.PartnerID,
		Ref:        src.Name,
		Narration:  src.Narration,
		CurrencyID: src.CurrencyID,
	}
	if src.InvoiceDate != nil {
		date := *src.InvoiceDate
		mirror.InvoiceDate = &date
	}
	if err := w.ledger.DeriveHeader(sctx, mirror); err != nil {
		return nil, fmt.Errorf("failed to derive mirror header: %w", err)
	}

	sourceID := src.ID
	mirror.InvoiceOrigin = fmt.Sprintf("%s - Invoice: %s", srcCompany.Name, src.Name)
	mirror.AutoInvoiceID = &sourceID
	mirror.AutoGenerated = true

	if src.PartnerShippingID != nil {
		shipping, err := w.dir.Partner(sctx, *src.PartnerShippingID)
		if err != nil {
			return nil, fmt.Errorf("failed to load shipping partner: %w", err)
		}
		if shipping.CompanyID == nil {
			id := shipping.ID
			mirror.PartnerShippingID = &id
		}
	}
	return mirror, nil
}

// buildLine enters a mirror line field by field: the product change runs first,
// then the source values overwrite description, quantity and prices.
func (w *Workflow) buildLine(ctx context.Context, mirror *model.Invoice, src *model.InvoiceLine) (*model.InvoiceLine, error) {
	productID := *src.ProductID
	line := &model.InvoiceLine{
		CompanyID:   mirror.CompanyID,
		DisplayType: src.DisplayType,
		ProductID:   &productID,
	}
	if err := w.ledger.DeriveLine(ctx, mirror, line); err != nil {
		return nil, fmt.Errorf("failed to derive line %q: %w", src.Name, err)
	}

	line.Name = src.Name
	if line.UOM != src.UOM {
		line.UOM = src.UOM
	}
	line.Quantity = src.Quantity
	line.PriceUnit = src.PriceUnit
	line.Discount = src.Discount
	line.Sequence = src.Sequence

	srcLineID := src.ID
	line.AutoInvoiceLineID = &srcLineID

	if src.AnalyticAccountID != nil {
		account, err := w.dir.AnalyticAccount(ctx, *src.AnalyticAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to load analytic account: %w", err)
		}
		if account.CompanyID == nil {
			accountID := account.ID
			line.AnalyticAccountID = &accountID
			for _, tag := range src.AnalyticTags {
				if tag.CompanyID == nil {
					line.AnalyticTags = append(line.AnalyticTags, tag)
				}
			}
		}
	}
	return line, nil
}

func (w *Workflow) warnMismatch(ctx context.Context, actor access.Actor, src, mirror *model.Invoice) error {
	srcCompany, err := w.dir.Company(ctx, src.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to load source company: %w", err)
	}
	places := int32(2)
	if currency, err := w.dir.Currency(ctx, src.CurrencyID); err == nil {
		places = currency.DecimalPlaces
	}

	body := fmt.Sprintf(
		"WARNING!!!!! Failure in the inter-company invoice creation process: the total amount of this invoice is %s "+
			"but the total amount of the invoice %s in the company %s is %s",
		mirror.AmountTotal.StringFixed(places), src.Name, srcCompany.Name, src.AmountTotal.StringFixed(places),
	)
	if err := w.ledger.PostMessage(access.Into(ctx, actor), mirror.ID, actor.UserID, body); err != nil {
		return err
	}
	return nil
}
