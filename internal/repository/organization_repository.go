package repository

import (
	"context"
	"slices"

	"github.com/yukikurage/org-membership-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrganizationColumns lists the organization columns callers may select or order by
var OrganizationColumns = []string{"id", "name", "profile_picture_url", "created_at", "updated_at"}

// OrganizationRelations lists the relations callers may include
var OrganizationRelations = map[string]string{
	"memberships": "Memberships",
}

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// Create creates an organization; attached memberships are inserted in the same transaction
func (r *GormOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

// FindByID finds an organization by ID with optional preloading
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Organization, error) {
	var org models.Organization
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindProjected finds an organization by ID, loading only the requested columns and relations
func (r *GormOrganizationRepository) FindProjected(ctx context.Context, id string, q OrganizationQuery) (*models.Organization, error) {
	var org models.Organization
	query := r.db.WithContext(ctx)

	if len(q.Select) > 0 {
		columns := slices.Clone(q.Select)
		// relations are joined on the primary key
		if len(q.Include) > 0 && !slices.Contains(columns, "id") {
			columns = append(columns, "id")
		}
		query = query.Select(columns)
	}

	for _, rel := range q.Include {
		if name, ok := OrganizationRelations[rel]; ok {
			query = query.Preload(name)
		}
	}

	if err := query.First(&org, "organizations.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// List retrieves organizations with filtering, ordering and pagination.
// A cursor starts the page at the cursor record (inclusive) in creation order
// and takes precedence over OrderBy.
func (r *GormOrganizationRepository) List(ctx context.Context, filter OrganizationFilter) ([]models.Organization, error) {
	var orgs []models.Organization

	query := r.db.WithContext(ctx).Model(&models.Organization{})

	if filter.MemberUserID != nil {
		memberOf := r.db.Model(&models.Membership{}).
			Select("organization_id").
			Where("user_id = ?", *filter.MemberUserID)
		query = query.Where("organizations.id IN (?)", memberOf)
	}
	if filter.NameContains != nil {
		query = query.Where("organizations.name LIKE ?", "%"+*filter.NameContains+"%")
	}

	if filter.Cursor != nil {
		var cursor models.Organization
		if err := r.db.WithContext(ctx).Select("id", "created_at").First(&cursor, "id = ?", *filter.Cursor).Error; err != nil {
			return nil, err
		}
		query = query.
			Where("(organizations.created_at > ? OR (organizations.created_at = ? AND organizations.id >= ?))",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID).
			Order("organizations.created_at ASC").
			Order("organizations.id ASC")
	} else {
		column := filter.OrderBy
		if !slices.Contains(OrganizationColumns, column) {
			column = "created_at"
		}
		query = query.
			Order(clause.OrderByColumn{Column: clause.Column{Table: "organizations", Name: column}, Desc: filter.Descending}).
			Order("organizations.id ASC")
	}

	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}
	if filter.Take > 0 {
		query = query.Limit(filter.Take)
	}

	if err := query.Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// Update applies the given column values and returns the updated organization
func (r *GormOrganizationRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Organization, error) {
	if len(fields) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.Organization{}).
			Where("id = ?", id).
			Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// Delete deletes an organization and its memberships in a transaction
func (r *GormOrganizationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Delete all memberships
		if err := tx.Where("organization_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}

		// Delete organization
		if err := tx.Where("id = ?", id).Delete(&models.Organization{}).Error; err != nil {
			return err
		}

		return nil
	})
}
