package handler

import (
	"net/http"

	"intercompany/internal/middleware"
	"intercompany/internal/model"
	"intercompany/internal/service"
	"intercompany/pkg/response"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct {
	companyService service.CompanyService
}

func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/api/companies")
	{
		companies.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleAccountant), h.ListCompanies)
		companies.PUT("/:id/intercompany", middleware.RequireRole(model.RoleAdmin), h.UpdatePolicy)
	}
}

// ListCompanies returns the companies the caller operates in
// @Summary      List companies
// @Tags         companies
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.CompanyResponse}
// @Router       /api/companies [get]
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	companies, err := h.companyService.ListCompanies(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, companies))
}

// UpdatePolicy changes how documents addressed to a company are mirrored
// @Summary      Update inter-company policy
// @Description  Sets product sharing, auto-validation and the identity mirrors are created as
// @Tags         companies
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                              true  "Company ID"
// @Param        payload  body      service.UpdateCompanyPolicyRequest  true  "Policy Payload"
// @Success      200      {object}  response.Response{data=service.CompanyResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/companies/{id}/intercompany [put]
func (h *CompanyHandler) UpdatePolicy(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.UpdateCompanyPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	company, err := h.companyService.UpdatePolicy(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, company))
}
