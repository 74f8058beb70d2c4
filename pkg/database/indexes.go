package database

import (
	"fmt"

	"gorm.io/gorm"
)

// userIndexes back the staff user search. AutoMigrate covers the plain
// column indexes declared on the model.
var userIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_categories_gin ON users USING GIN (categories jsonb_path_ops);",
	"CREATE INDEX IF NOT EXISTS idx_users_role_company ON users(role, company_id) WHERE deleted_at IS NULL;",
	"CREATE INDEX IF NOT EXISTS idx_users_role_employee ON users(role, employee_id) WHERE deleted_at IS NULL;",
	"CREATE INDEX IF NOT EXISTS idx_users_start_end_date ON users(start_date, end_date);",
}

// EnsureIndexes creates the composite and JSONB indexes used by user listing.
func EnsureIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, stmt := range userIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
