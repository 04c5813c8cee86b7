package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"intercompany/internal/model"
)

const sequencePadding = 4

// nextName returns the next free number <JOURNAL>/<YYYY>/<NNNN> for the invoice's journal.
func (e *Engine) nextName(ctx context.Context, inv *model.Invoice) (string, error) {
	journal, err := e.catalog.FindJournal(ctx, inv.JournalID)
	if err != nil {
		return "", fmt.Errorf("failed to load journal: %w", err)
	}

	year := e.now().Year()
	if inv.InvoiceDate != nil {
		year = inv.InvoiceDate.Year()
	}
	prefix := fmt.Sprintf("%s/%d/", journal.Code, year)

	last, err := e.invoices.LastNameByPrefix(ctx, inv.CompanyID, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to read last number: %w", err)
	}

	next := 1
	if last != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, sequencePadding, next), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
