package category

import (
	"fmt"

	"github.com/votestar/votestar-backend/internal/platform/database"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Category{}, &Candidate{}); err != nil {
		return fmt.Errorf("无法迁移category相关表: %w", err)
	}
	fmt.Println("Category数据库表迁移成功。")
	return nil
}

// PrimeCachedDB 是category模块的初始化总入口。
// 计票榜缓存的预热由vote模块负责（数据源是账本表）。
func PrimeCachedDB() error {
	return migrateDB()
}
