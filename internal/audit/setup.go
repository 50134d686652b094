package audit

import (
	"fmt"

	"github.com/votestar/votestar-backend/internal/platform/database"
)

// PrimeModule 是audit模块的初始化总入口
func PrimeModule() error {
	if err := database.DB.AutoMigrate(&AuditLog{}); err != nil {
		return fmt.Errorf("无法迁移audit_logs表: %w", err)
	}
	fmt.Println("AuditLog数据库表迁移成功。")
	return nil
}
