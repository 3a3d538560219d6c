package repository

import (
	"context"

	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/utils"
)

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates an organization together with any memberships attached to it
	Create(ctx context.Context, org *models.Organization) error

	// FindByID finds an organization by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Organization, error)

	// FindProjected finds an organization by ID, restricting columns and relations
	FindProjected(ctx context.Context, id string, query OrganizationQuery) (*models.Organization, error)

	// List retrieves organizations with filtering, ordering and pagination
	List(ctx context.Context, filter OrganizationFilter) ([]models.Organization, error)

	// Update applies the given column values and returns the updated organization
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Organization, error)

	// Delete deletes an organization and all of its memberships
	Delete(ctx context.Context, id string) error
}

// OrganizationFilter holds filtering options for listing organizations
type OrganizationFilter struct {
	Skip         int
	Take         int
	Cursor       *string
	MemberUserID *string
	NameContains *string
	OrderBy      string
	Descending   bool
}

// OrganizationQuery shapes a single organization lookup
type OrganizationQuery struct {
	Select  []string
	Include []string
}

// MembershipRepository defines the interface for membership data access
type MembershipRepository interface {
	// Create creates a membership
	Create(ctx context.Context, membership *models.Membership) error

	// FindByID finds a membership by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Membership, error)

	// FindByOrganizationAndUser finds the membership binding a user to an organization
	FindByOrganizationAndUser(ctx context.Context, organizationID, userID string) (*models.Membership, error)

	// LockByOrganization lists all memberships of an organization and locks
	// them for the rest of the enclosing transaction
	LockByOrganization(ctx context.Context, organizationID string) ([]models.Membership, error)

	// Page lists memberships of an organization, newest first
	Page(ctx context.Context, organizationID string, params utils.PaginationParams) ([]models.Membership, int64, error)

	// UpdateRole changes the role of a membership
	UpdateRole(ctx context.Context, id uint64, role models.Role) (*models.Membership, error)

	// Delete hard deletes a membership
	Delete(ctx context.Context, id uint64) error

	// Transaction runs fn with a repository bound to a single database transaction
	Transaction(ctx context.Context, fn func(repo MembershipRepository) error) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithEmail creates a user and its primary email within a single transaction
	CreateWithEmail(ctx context.Context, user *models.User, email *models.UserEmail) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds the user owning any address equal to email
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
