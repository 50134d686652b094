package startup

import (
	"fmt"

	"github.com/votestar/votestar-backend/internal/audit"
	"github.com/votestar/votestar-backend/internal/category"
	"github.com/votestar/votestar-backend/internal/messaging"
	"github.com/votestar/votestar-backend/internal/proposal"
	"github.com/votestar/votestar-backend/internal/social"
	"github.com/votestar/votestar-backend/internal/user"
	"github.com/votestar/votestar-backend/internal/vote"
)

// InitializeApplication 是应用首次启动时执行的总入口。
// 各模块按依赖顺序完成迁移、历史数据修复和缓存预热。
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := user.PrimeCachedDB(); err != nil {
		return err
	}
	if err := category.PrimeCachedDB(); err != nil {
		return err
	}
	if err := audit.PrimeModule(); err != nil {
		return err
	}
	if err := vote.PrimeModule(); err != nil {
		return err
	}
	if err := proposal.PrimeModule(); err != nil {
		return err
	}
	if err := social.PrimeModule(); err != nil {
		return err
	}
	if err := messaging.PrimeModule(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildCache 在运行时从数据库热重建全部Redis缓存。
// 健康检查器在检测到Redis重启后调用它。
func RebuildCache() error {
	fmt.Println("开始缓存热重建...")

	if err := user.WarmupCache(); err != nil {
		return err
	}
	if err := vote.WarmupCache(); err != nil {
		return err
	}

	fmt.Println("缓存热重建完成。")
	return nil
}
