package handler

import (
	"errors"
	"net/http"

	"intercompany/internal/intercompany"
	"intercompany/internal/ledger"
	"intercompany/internal/repository"
	"intercompany/internal/service"
	"intercompany/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to the HTTP status reported to the client.
func statusFor(err error) int {
	if kind, ok := intercompany.KindOf(err); ok {
		switch kind {
		case intercompany.KindVisibility:
			return http.StatusForbidden
		case intercompany.KindConsistency:
			return http.StatusConflict
		default:
			return http.StatusUnprocessableEntity
		}
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case repository.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrEmptyInvoice),
		errors.Is(err, ledger.ErrMissingJournal),
		errors.Is(err, ledger.ErrUnsupportedMoveType),
		errors.Is(err, ledger.ErrMissingCompany):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, response.Error(status, err.Error()))
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}
