package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/org-membership-api/internal/dto"
	apierrors "github.com/yukikurage/org-membership-api/internal/errors"
	"github.com/yukikurage/org-membership-api/internal/middleware"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"github.com/yukikurage/org-membership-api/internal/services"
)

// OrganizationHandler serves the organization endpoints.
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// CreateOrganization creates a new organization owned by the caller
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateOrgRequest struct {
		Name              string  `json:"name" binding:"required,max=255"`
		ProfilePictureURL *string `json:"profile_picture_url" binding:"omitempty,url"`
	}

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), userID, services.CreateOrganizationInput{
		Name:              req.Name,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(*org))
}

// ListOrganizations returns the organizations the caller is a member of
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type ListOrgsQuery struct {
		Skip    int    `form:"skip" binding:"omitempty,min=0"`
		Take    int    `form:"take" binding:"omitempty,min=1,max=100"`
		Cursor  string `form:"cursor"`
		Name    string `form:"name"`
		OrderBy string `form:"order_by" binding:"omitempty,oneof=id name profile_picture_url created_at updated_at"`
		Order   string `form:"order" binding:"omitempty,oneof=asc desc"`
	}

	var q ListOrgsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := repository.OrganizationFilter{
		Skip:         q.Skip,
		Take:         q.Take,
		MemberUserID: &userID,
		OrderBy:      q.OrderBy,
		Descending:   q.Order == "desc",
	}
	if q.Cursor != "" {
		filter.Cursor = &q.Cursor
	}
	if q.Name != "" {
		filter.NameContains = &q.Name
	}

	orgs := h.orgService.GetOrganizations(c.Request.Context(), filter)
	c.JSON(http.StatusOK, dto.ToOrganizationListResponse(orgs))
}

// GetOrganization returns an organization, shaped by the select and include
// query parameters (comma separated)
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	query := repository.OrganizationQuery{
		Select:  splitList(c.Query("select")),
		Include: splitList(c.Query("include")),
	}

	org, err := h.orgService.GetOrganization(c.Request.Context(), c.Param(middleware.OrganizationParam), query)
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// UpdateOrganization applies a partial update
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	type UpdateOrgRequest struct {
		Name              *string `json:"name" binding:"omitempty,min=1,max=255"`
		ProfilePictureURL *string `json:"profile_picture_url" binding:"omitempty,url"`
	}

	var req UpdateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.UpdateOrganization(c.Request.Context(), c.Param(middleware.OrganizationParam), services.UpdateOrganizationInput{
		Name:              req.Name,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// ReplaceOrganization takes a full body but leaves omitted optional fields untouched
func (h *OrganizationHandler) ReplaceOrganization(c *gin.Context) {
	type ReplaceOrgRequest struct {
		Name              string  `json:"name" binding:"required,max=255"`
		ProfilePictureURL *string `json:"profile_picture_url" binding:"omitempty,url"`
	}

	var req ReplaceOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.ReplaceOrganization(c.Request.Context(), c.Param(middleware.OrganizationParam), services.ReplaceOrganizationInput{
		Name:              req.Name,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// DeleteOrganization deletes an organization with all its memberships
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	org, err := h.orgService.DeleteOrganization(c.Request.Context(), c.Param(middleware.OrganizationParam))
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

func respondOrganizationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrganizationNotFound):
		apierrors.NotFound(c, apierrors.ErrCodeOrganizationNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrInvalidOrganizationQuery):
		apierrors.BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
