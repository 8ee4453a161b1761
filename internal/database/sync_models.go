// Package database 定义了同步状态账相关的模型
// 状态账字段内嵌在每个可同步实体的行内，而不是独立的状态表
package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SyncStatus 同步状态枚举
// 以小整数持久化，代码中始终通过具名常量判断
type SyncStatus int8

// 同步状态常量
const (
	SyncStatusPending SyncStatus = 0 // 待同步，本地新建记录的初始状态
	SyncStatusSynced  SyncStatus = 1 // 已同步，后端已确认接收
	SyncStatusFailed  SyncStatus = 2 // 同步失败，等待下次会话重试
)

// String 返回同步状态的可读名称
func (s SyncStatus) String() string {
	switch s {
	case SyncStatusPending:
		return "pending"
	case SyncStatusSynced:
		return "synced"
	case SyncStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int8(s))
	}
}

// SyncLedger 同步状态账
// 内嵌到每个可同步实体中，记录该行的同步进度
// 不变量: SyncStatus为Synced时SyncError必须为空
type SyncLedger struct {
	SyncStatus   SyncStatus `gorm:"column:sync_status;not null;default:0;index" json:"sync_status"`  // 同步状态：0待同步、1已同步、2失败
	SyncError    *string    `gorm:"column:sync_error;type:text" json:"sync_error,omitempty"`         // 最近一次同步失败的错误信息
	SyncAttempts int        `gorm:"column:sync_attempts;not null;default:0" json:"sync_attempts"`    // 已尝试同步的次数
	LastSyncAt   *time.Time `gorm:"column:last_sync_at" json:"last_sync_at,omitempty"`               // 最近一次同步尝试时间（UTC）
}

// AttachmentList 附件路径列表
// 以JSON数组形式存储在单个text列中，附件文件归属其所在记录
// 记录被删除时（无论何种原因）附件文件一并删除
type AttachmentList []string

// Value 实现driver.Valuer接口，序列化为JSON
func (l AttachmentList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现sql.Scanner接口，从JSON反序列化
func (l *AttachmentList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for AttachmentList: %T", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}
