package database

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/yukikurage/org-membership-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds lookup indexes that are not declared on the models
func AddIndexes(db *gorm.DB, log *log.Logger) error {
	indexes := []struct {
		model   interface{}
		name    string
		columns string
	}{
		// Membership lookups by organization (invariant checks) and by user (listing)
		{&models.Membership{}, "idx_memberships_organization_role", "organization_id, role"},
		{&models.Membership{}, "idx_memberships_user_id", "user_id"},

		// Organization listing order
		{&models.Organization{}, "idx_organizations_created_at", "created_at, id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", "index", idx.name, "table", stmt.Schema.Table, "columns", idx.columns)
	}

	return nil
}
