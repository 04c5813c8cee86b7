package handler

import (
	"net/http"

	"intercompany/internal/middleware"
	"intercompany/internal/model"
	"intercompany/internal/service"
	"intercompany/pkg/pagination"
	"intercompany/pkg/response"

	"github.com/gin-gonic/gin"
)

type PartnerHandler struct {
	partnerService service.PartnerService
}

func NewPartnerHandler(partnerService service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup) {
	readers := middleware.RequireRole(model.RoleAdmin, model.RoleAccountant)

	partners := router.Group("/api/partners")
	{
		partners.GET("", readers, h.ListPartners)
		partners.POST("", middleware.RequireRole(model.RoleAdmin), h.CreatePartner)
	}

	router.GET("/api/products", readers, h.ListProducts)
}

// ListPartners returns paginated partners visible to the caller
// @Summary      List partners
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        search  query     string  false  "Search by name or email"
// @Success      200     {object}  response.Response
// @Router       /api/partners [get]
func (h *PartnerHandler) ListPartners(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)
	partners, total, err := h.partnerService.GetPartners(c.Request.Context(), actor, c.Query("search"), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, partners, params.Page, params.Limit, total))
}

// CreatePartner creates a new partner
// @Summary      Create partner
// @Description  A partner without company_id is shared; share the partners representing companies
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreatePartnerRequest  true  "Partner payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/partners [post]
func (h *PartnerHandler) CreatePartner(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	partner, err := h.partnerService.CreatePartner(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, partner))
}

// ListProducts returns the products the caller may invoice
// @Summary      List products
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.ProductResponse}
// @Router       /api/products [get]
func (h *PartnerHandler) ListProducts(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	products, err := h.partnerService.GetProducts(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}
