package user

import (
	"fmt"

	"github.com/votestar/votestar-backend/internal/platform/database"
	"gorm.io/gorm"
)

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("无法迁移user表: %w", err)
	}
	fmt.Println("User数据库表迁移成功。")
	return nil
}

// BackfillLegacySubjects 执行一次性的旧数据回填：
// 把subject被暂存在email字段里的旧账户的subject字段补齐。
// 运行时认证路径仍保留逐行兜底，但批量回填让绝大多数请求不再走到它。
func BackfillLegacySubjects() error {
	// 身份提供方的subject都形如 "provider|id"，正常邮箱不含竖线
	result := database.DB.Model(&User{}).
		Where("auth_subject IS NULL AND email LIKE ?", "%|%").
		Update("auth_subject", gorm.Expr("email"))
	if result.Error != nil {
		return fmt.Errorf("旧用户subject批量回填失败: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		fmt.Printf("已为 %d 个旧账户回填身份subject。\n", result.RowsAffected)
	}
	return nil
}

// WarmupCache 从数据库加载subject到用户ID的映射，预热到Redis的Hash中
func WarmupCache() error {
	if !database.RedisAvailable() {
		return nil
	}

	var users []User
	if err := database.DB.Select("id", "auth_subject").Where("auth_subject IS NOT NULL").Find(&users).Error; err != nil {
		return fmt.Errorf("无法从数据库读取用户subject: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("无现有用户数据，无需预热subject缓存。")
		return nil
	}

	// 使用Pipeline批量写入，先清空旧缓存保证一致性
	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, SubjectCacheKey)
	for _, u := range users {
		pipe.HSet(database.Ctx, SubjectCacheKey, *u.AuthSubject, u.ID)
	}

	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("预热subject缓存到Redis失败: %w", err)
	}

	fmt.Printf("成功预热 %d 个用户subject到Redis。\n", len(users))
	return nil
}

// PrimeCachedDB 是user模块的初始化总入口
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := BackfillLegacySubjects(); err != nil {
		return err
	}
	if err := WarmupCache(); err != nil {
		return err
	}
	return nil
}
