package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/org-membership-api/internal/middleware"
	"github.com/yukikurage/org-membership-api/internal/repository"
)

// Routes binds the API handlers to their paths.
type Routes struct {
	Auth          *AuthHandler
	Organizations *OrganizationHandler
	Memberships   *MembershipHandler

	OrgRepo        repository.OrganizationRepository
	MembershipRepo repository.MembershipRepository
}

// Register mounts the /api group on r. Sessions middleware must already be installed.
func (rt Routes) Register(r gin.IRouter) {
	access := middleware.RequireOrganizationAccess(rt.OrgRepo, rt.MembershipRepo)
	manager := middleware.RequireOrganizationManager()
	owner := middleware.RequireOrganizationOwner()

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", rt.Auth.Signup)
			auth.POST("/login", rt.Auth.Login)
			auth.POST("/logout", rt.Auth.Logout)
			auth.GET("/me", middleware.RequireAuth(), rt.Auth.GetCurrentUser)
		}

		// Organization routes (protected)
		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgs.POST("", rt.Organizations.CreateOrganization)
			orgs.GET("", rt.Organizations.ListOrganizations)

			org := orgs.Group("/:" + middleware.OrganizationParam)
			org.Use(access)
			{
				org.GET("", rt.Organizations.GetOrganization)
				org.PATCH("", manager, rt.Organizations.UpdateOrganization)
				org.PUT("", manager, rt.Organizations.ReplaceOrganization)
				org.DELETE("", owner, rt.Organizations.DeleteOrganization)

				memberships := org.Group("/memberships")
				{
					memberships.POST("", manager, rt.Memberships.CreateMembership)
					memberships.GET("", rt.Memberships.ListMemberships)
					memberships.GET("/:id", rt.Memberships.GetMembership)
					memberships.PATCH("/:id", manager, rt.Memberships.UpdateMembership)
					memberships.DELETE("/:id", manager, rt.Memberships.DeleteMembership)
				}
			}
		}
	}
}
