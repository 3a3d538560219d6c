package middleware

import (
	"errors"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/org-membership-api/internal/constants"
	apierrors "github.com/yukikurage/org-membership-api/internal/errors"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"gorm.io/gorm"
)

// OrganizationParam is the route parameter holding the organization ID.
const OrganizationParam = "organizationId"

// RequireOrganizationAccess checks if the user is a member of the organization
// and stores the organization and the caller's membership in the context.
func RequireOrganizationAccess(orgRepo repository.OrganizationRepository, membershipRepo repository.MembershipRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param(OrganizationParam)
		if orgID == "" {
			apierrors.BadRequest(c, "Invalid organization ID")
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		org, err := orgRepo.FindByID(c.Request.Context(), orgID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, apierrors.ErrCodeOrganizationNotFound, "Organization not found")
				return
			}
			apierrors.InternalError(c, "")
			return
		}

		membership, err := membershipRepo.FindByOrganizationAndUser(c.Request.Context(), org.ID, userID)
		if err != nil {
			// Return 404 instead of 403 to avoid leaking organization existence
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, apierrors.ErrCodeOrganizationNotFound, "Organization not found")
				return
			}
			apierrors.InternalError(c, "")
			return
		}

		c.Set(constants.ContextKeyOrganization, *org)
		c.Set(constants.ContextKeyMembership, *membership)
		c.Next()
	}
}

// RequireOrganizationRole allows the request only when the caller's membership
// has one of roles. Must run after RequireOrganizationAccess.
func RequireOrganizationRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		membership, ok := GetMembership(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			return
		}

		if !slices.Contains(roles, membership.Role) {
			apierrors.Forbidden(c, "Insufficient organization role")
			return
		}

		c.Next()
	}
}

// RequireOrganizationManager allows owners and admins.
func RequireOrganizationManager() gin.HandlerFunc {
	return RequireOrganizationRole(models.RoleOwner, models.RoleAdmin)
}

// RequireOrganizationOwner allows owners only.
func RequireOrganizationOwner() gin.HandlerFunc {
	return RequireOrganizationRole(models.RoleOwner)
}

// GetOrganization returns the organization loaded by RequireOrganizationAccess.
func GetOrganization(c *gin.Context) (models.Organization, bool) {
	v, exists := c.Get(constants.ContextKeyOrganization)
	if !exists {
		return models.Organization{}, false
	}
	org, ok := v.(models.Organization)
	return org, ok
}

// GetMembership returns the caller's membership loaded by RequireOrganizationAccess.
func GetMembership(c *gin.Context) (models.Membership, bool) {
	v, exists := c.Get(constants.ContextKeyMembership)
	if !exists {
		return models.Membership{}, false
	}
	membership, ok := v.(models.Membership)
	return membership, ok
}
