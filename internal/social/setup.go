package social

import (
	"fmt"

	"github.com/votestar/votestar-backend/internal/platform/database"
)

// PrimeModule 迁移社交图谱的两张边表。
func PrimeModule() error {
	if err := database.DB.AutoMigrate(&UserFollow{}, &UserBlock{}); err != nil {
		return fmt.Errorf("无法迁移社交图谱表: %w", err)
	}
	return nil
}
