package handler

import (
	"context"
	"net/http"
	"strconv"

	"intercompany/internal/access"
	"intercompany/internal/middleware"
	"intercompany/internal/model"
	"intercompany/internal/service"
	"intercompany/pkg/pagination"
	"intercompany/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// RegisterRoutes expects router to run middleware.Auth.Authenticate.
func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	invoices.Use(middleware.RequireRole(model.RoleAdmin, model.RoleAccountant))
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
		invoices.GET("/:id/mirrors", h.ListMirrors)
		invoices.POST("/post", h.PostInvoices)
		invoices.POST("/cancel", h.CancelInvoices)
		invoices.POST("/draft", h.ResetToDraft)
	}
}

// CreateInvoice creates a draft document
// @Summary      Create invoice
// @Description  Creates a draft invoice or refund; header and line defaults are derived from the partner and products
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Create Invoice Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns a paginated list of invoices visible to the caller
// @Summary      List invoices
// @Description  Retrieves invoices of the caller's companies, optionally filtered
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        company_id      query     string  false  "Filter by company"
// @Param        state           query     string  false  "Filter by state (draft, posted, cancel)"
// @Param        move_type       query     string  false  "Filter by move type"
// @Param        auto_generated  query     bool    false  "Only mirrors (true) or only hand-made documents (false)"
// @Param        search          query     string  false  "Search by number or reference"
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Number of items per page (default 20)"
// @Success      200             {object}  response.Response{data=object}
// @Failure      500             {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	filter := service.InvoiceListFilter{
		CompanyID: c.Query("company_id"),
		State:     c.Query("state"),
		MoveType:  c.Query("move_type"),
		Search:    c.Query("search"),
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if raw := c.Query("auto_generated"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "auto_generated must be a boolean"))
			return
		}
		filter.AutoGenerated = &v
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, invoices, params.Page, params.Limit, total))
}

// GetInvoice returns one document with its lines and notes
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// UpdateInvoice edits a document
// @Summary      Update invoice
// @Description  Updates header fields and, for drafts, replaces the lines. Mirrors may not drift from their source amount.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Update Invoice Payload"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice removes a draft document
// @Summary      Delete invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Invoice deleted successfully"}))
}

// ListMirrors returns the inter-company documents generated from a source
// @Summary      List mirrors
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Source invoice ID"
// @Success      200  {object}  response.Response{data=[]service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/mirrors [get]
func (h *InvoiceHandler) ListMirrors(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	mirrors, err := h.invoiceService.ListMirrors(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, mirrors))
}

// PostInvoices validates documents and generates their inter-company counterparts
// @Summary      Post invoices
// @Description  Posts every listed draft. Each document succeeds or fails on its own; a failed mirror rolls back that document's posting.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BatchRequest  true  "Invoice IDs"
// @Success      200      {object}  response.Response{data=service.BatchResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/post [post]
func (h *InvoiceHandler) PostInvoices(c *gin.Context) {
	h.runBatch(c, h.invoiceService.PostInvoices)
}

// CancelInvoices cancels documents together with their inter-company counterparts
// @Summary      Cancel invoices
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BatchRequest  true  "Invoice IDs"
// @Success      200      {object}  response.Response{data=service.BatchResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/cancel [post]
func (h *InvoiceHandler) CancelInvoices(c *gin.Context) {
	h.runBatch(c, h.invoiceService.CancelInvoices)
}

// ResetToDraft moves documents back to draft
// @Summary      Reset invoices to draft
// @Description  Refused for a document whose inter-company counterpart is posted
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BatchRequest  true  "Invoice IDs"
// @Success      200      {object}  response.Response{data=service.BatchResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/draft [post]
func (h *InvoiceHandler) ResetToDraft(c *gin.Context) {
	h.runBatch(c, h.invoiceService.ResetToDraft)
}

type batchFunc func(ctx context.Context, actor access.Actor, ids []string) (service.BatchResponse, error)

func (h *InvoiceHandler) runBatch(c *gin.Context, fn batchFunc) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := fn(c.Request.Context(), actor, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

func requireActor(c *gin.Context) (access.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
	}
	return actor, ok
}
