package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/healing-guide-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds composite indexes that struct tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_assessments_user_created ON assessments(user_id, created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_assessments_user_created: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_assessments_email_created ON assessments(email, created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_assessments_email_created: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_newsletter_source_active ON newsletter_subscriptions(source, is_active);`).Error; err != nil {
		return fmt.Errorf("create idx_newsletter_source_active: %w", err)
	}
	return nil
}
