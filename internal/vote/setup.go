package vote

import (
	"fmt"

	"github.com/votestar/votestar-backend/internal/platform/database"
)

// migrateDB 迁移投票账本表
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Vote{}); err != nil {
		return fmt.Errorf("无法迁移Vote表: %w", err)
	}
	return nil
}

// PrimeModule 迁移账本表并重建计票榜缓存。
func PrimeModule() error {
	if err := migrateDB(); err != nil {
		return err
	}
	return WarmupCache()
}
