package repository

import (
	"context"

	"github.com/yukikurage/org-membership-api/internal/database"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMembershipRepository is a GORM implementation of MembershipRepository
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &GormMembershipRepository{db: db}
}

// Create creates a membership
func (r *GormMembershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

// FindByID finds a membership by ID with optional preloading
func (r *GormMembershipRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Membership, error) {
	var membership models.Membership
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&membership, id).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// FindByOrganizationAndUser finds the membership binding a user to an organization
func (r *GormMembershipRepository) FindByOrganizationAndUser(ctx context.Context, organizationID, userID string) (*models.Membership, error) {
	var membership models.Membership
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

// LockByOrganization lists all memberships of an organization with SELECT ... FOR UPDATE.
// Dialects without row locks (sqlite) drop the locking clause.
func (r *GormMembershipRepository) LockByOrganization(ctx context.Context, organizationID string) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ?", organizationID).
		Order("id ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// Page lists memberships of an organization ordered by ID descending,
// with the organization and the member's email addresses preloaded
func (r *GormMembershipRepository) Page(ctx context.Context, organizationID string, params utils.PaginationParams) ([]models.Membership, int64, error) {
	var memberships []models.Membership

	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Membership{}).Where("organization_id = ?", organizationID)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := scoped().
		Preload("Organization").
		Preload("User").
		Preload("User.Emails").
		Order("id DESC").
		Scopes(database.Paginate(params)).
		Find(&memberships).Error; err != nil {
		return nil, 0, err
	}

	return memberships, total, nil
}

// UpdateRole changes the role of a membership
func (r *GormMembershipRepository) UpdateRole(ctx context.Context, id uint64, role models.Role) (*models.Membership, error) {
	if err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ?", id).
		Update("role", role).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Delete hard deletes a membership
func (r *GormMembershipRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Membership{}, id).Error
}

// Transaction runs fn with a repository bound to a single database transaction
func (r *GormMembershipRepository) Transaction(ctx context.Context, fn func(repo MembershipRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormMembershipRepository{db: tx})
	})
}
