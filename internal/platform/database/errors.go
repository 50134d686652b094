package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicatedKey 判断一个错误是否为唯一约束冲突。
// GORM的TranslateError已将各驱动的错误统一为gorm.ErrDuplicatedKey，
// 这里额外做一次文本兜底，覆盖个别驱动版本的翻译缺口。
func IsDuplicatedKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
