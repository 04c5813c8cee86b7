package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"intercompany/internal/intercompany"
	"intercompany/internal/ledger"
	"intercompany/internal/service"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestStatusFor(t *testing.T) {
	workflowErr := func(kind intercompany.Kind) error {
		return fmt.Errorf("post: %w", &intercompany.Error{Op: "BuildMirror", Kind: kind, Err: errors.New("boom")})
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"visibility", workflowErr(intercompany.KindVisibility), http.StatusForbidden},
		{"consistency", workflowErr(intercompany.KindConsistency), http.StatusConflict},
		{"configuration", workflowErr(intercompany.KindConfiguration), http.StatusUnprocessableEntity},
		{"completeness", workflowErr(intercompany.KindCompleteness), http.StatusUnprocessableEntity},
		{"invalid input", fmt.Errorf("%w: invalid id", service.ErrInvalidInput), http.StatusBadRequest},
		{"forbidden", service.ErrForbidden, http.StatusForbidden},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"not found", fmt.Errorf("invoice not found: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{"state", fmt.Errorf("%w: already posted", ledger.ErrInvalidState), http.StatusConflict},
		{"empty", ledger.ErrEmptyInvoice, http.StatusUnprocessableEntity},
		{"journal", ledger.ErrMissingJournal, http.StatusUnprocessableEntity},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
