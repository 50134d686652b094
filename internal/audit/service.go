package audit

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Append 在给定事务中追加一条审计记录。
// 它必须与它所记录的业务写入共用同一个事务，保证两者同生共死。
func Append(tx *gorm.DB, userID *string, action, resourceID, resourceType string, details interface{}, ip string) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("无法序列化审计快照: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("无法生成审计记录ID: %w", err)
	}

	entry := AuditLog{
		ID:           id.String(),
		UserID:       userID,
		Action:       action,
		ResourceID:   resourceID,
		ResourceType: resourceType,
		Details:      string(detailsJSON),
		IPAddress:    ip,
	}
	return tx.Create(&entry).Error
}
