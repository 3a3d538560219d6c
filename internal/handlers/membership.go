package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/org-membership-api/internal/dto"
	apierrors "github.com/yukikurage/org-membership-api/internal/errors"
	"github.com/yukikurage/org-membership-api/internal/middleware"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/services"
	"github.com/yukikurage/org-membership-api/internal/utils"
)

// MembershipHandler serves the membership endpoints of an organization.
type MembershipHandler struct {
	membershipService *services.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler.
func NewMembershipHandler(membershipService *services.MembershipService) *MembershipHandler {
	return &MembershipHandler{
		membershipService: membershipService,
	}
}

// CreateMembership invites an email address to the organization
func (h *MembershipHandler) CreateMembership(c *gin.Context) {
	type CreateMembershipRequest struct {
		Email string       `json:"email" binding:"required,email"`
		Role  *models.Role `json:"role" binding:"omitempty,oneof=OWNER ADMIN MEMBER"`
	}

	var req CreateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	membership, err := h.membershipService.Create(c.Request.Context(), services.CreateMembershipInput{
		OrganizationID: c.Param(middleware.OrganizationParam),
		IPAddress:      c.ClientIP(),
		Email:          req.Email,
		Role:           req.Role,
		ActorRole:      callerRole(c),
	})
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMembershipDTO(*membership))
}

// ListMemberships returns a page of the organization's memberships
func (h *MembershipHandler) ListMemberships(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	memberships, total, err := h.membershipService.List(c.Request.Context(), c.Param(middleware.OrganizationParam), params)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipListResponse(memberships, params, total))
}

// GetMembership returns a single membership
func (h *MembershipHandler) GetMembership(c *gin.Context) {
	id, ok := membershipIDParam(c)
	if !ok {
		return
	}

	membership, err := h.membershipService.Get(c.Request.Context(), c.Param(middleware.OrganizationParam), id)
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipDTO(*membership))
}

// UpdateMembership changes the role of a membership
func (h *MembershipHandler) UpdateMembership(c *gin.Context) {
	id, ok := membershipIDParam(c)
	if !ok {
		return
	}

	type UpdateMembershipRequest struct {
		Role *models.Role `json:"role" binding:"omitempty,oneof=OWNER ADMIN MEMBER"`
	}

	var req UpdateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	membership, err := h.membershipService.Update(c.Request.Context(), c.Param(middleware.OrganizationParam), id, services.UpdateMembershipInput{
		Role:      req.Role,
		ActorRole: callerRole(c),
	})
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipDTO(*membership))
}

// DeleteMembership removes a membership
func (h *MembershipHandler) DeleteMembership(c *gin.Context) {
	id, ok := membershipIDParam(c)
	if !ok {
		return
	}

	membership, err := h.membershipService.Delete(c.Request.Context(), c.Param(middleware.OrganizationParam), id, callerRole(c))
	if err != nil {
		respondMembershipError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembershipDTO(*membership))
}

// callerRole is the role of the caller's own membership, set by RequireOrganizationAccess.
func callerRole(c *gin.Context) models.Role {
	membership, _ := middleware.GetMembership(c)
	return membership.Role
}

func membershipIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid membership ID")
		return 0, false
	}
	return id, true
}

func respondMembershipError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrganizationNotFound):
		apierrors.NotFound(c, apierrors.ErrCodeOrganizationNotFound, err.Error())
	case errors.Is(err, services.ErrMembershipNotFound):
		apierrors.NotFound(c, apierrors.ErrCodeMembershipNotFound, err.Error())
	case errors.Is(err, services.ErrUnauthorizedResource):
		apierrors.UnauthorizedResource(c)
	case errors.Is(err, services.ErrCannotDeleteSoleMember):
		apierrors.ValidationFailure(c, apierrors.ErrCodeCannotDeleteSoleMember, err.Error())
	case errors.Is(err, services.ErrCannotDeleteSoleOwner):
		apierrors.ValidationFailure(c, apierrors.ErrCodeCannotDeleteSoleOwner, err.Error())
	case errors.Is(err, services.ErrCannotUpdateRoleSoleOwner):
		apierrors.ValidationFailure(c, apierrors.ErrCodeCannotUpdateRoleSoleOwner, err.Error())
	case errors.Is(err, services.ErrOwnerRoleRequired):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyOrganizationMember):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidEmail):
		apierrors.BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}
