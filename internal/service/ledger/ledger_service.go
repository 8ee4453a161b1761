// Package ledger 提供同步状态账服务
// 状态账内嵌在每个可同步实体的行内，记录Pending/Synced/Failed三态
// 状态转换只由导出协调器和清理服务驱动
package ledger

import (
	"time"

	"gorm.io/gorm"

	"github.com/weiwangfds/fieldtax/internal/database"
	"github.com/weiwangfds/fieldtax/internal/errors"
	"github.com/weiwangfds/fieldtax/internal/logger"
)

// PendingCursor 待同步记录的分页游标
// 选取顺序固定为(created_at asc, id asc)，游标指向上一个分块的末条记录
// 同一会话内分块失败后继续推进游标，避免重复选中刚失败的记录
type PendingCursor struct {
	CreatedAt time.Time
	ID        uint
}

// PendingSummary 待同步记录统计
type PendingSummary struct {
	TaxpayerPending int64 `json:"taxpayer_pending"` // 待同步纳税人记录数
	TaxpayerFailed  int64 `json:"taxpayer_failed"`  // 同步失败纳税人记录数
	ParcelPending   int64 `json:"parcel_pending"`   // 待同步宗地记录数
	ParcelFailed    int64 `json:"parcel_failed"`    // 同步失败宗地记录数
}

// LedgerService 同步状态账服务接口
type LedgerService interface {
	// MarkTaxpayersSynced 批量标记纳税人记录为已同步
	// 清空错误信息并记录同步时间，空ID列表时不执行任何操作
	MarkTaxpayersSynced(ids []uint) error

	// MarkTaxpayersFailed 批量标记纳税人记录为同步失败
	// 记录错误信息，同步尝试次数加一
	MarkTaxpayersFailed(ids []uint, message string) error

	// MarkParcelsSynced 批量标记宗地记录为已同步
	MarkParcelsSynced(ids []uint) error

	// MarkParcelsFailed 批量标记宗地记录为同步失败
	MarkParcelsFailed(ids []uint, message string) error

	// SelectPendingTaxpayers 选取待同步的纳税人记录
	// 返回sync_status不为已同步的记录，按(created_at, id)升序，最多limit条
	// after不为nil时仅返回游标之后的记录
	SelectPendingTaxpayers(limit int, after *PendingCursor) ([]database.Taxpayer, error)

	// SelectPendingParcels 选取待同步的宗地记录（预加载权利人和建筑物）
	SelectPendingParcels(limit int, after *PendingCursor) ([]database.Parcel, error)

	// CountPending 统计各实体的待同步与失败记录数
	CountPending() (*PendingSummary, error)
}

// ledgerService 同步状态账服务实现
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService 创建同步状态账服务实例
// 参数:
//   db: 数据库连接实例
// 返回:
//   LedgerService: 同步状态账服务接口实例
func NewLedgerService(db *gorm.DB) LedgerService {
	return &ledgerService{db: db}
}

// MarkTaxpayersSynced 批量标记纳税人记录为已同步
func (s *ledgerService) MarkTaxpayersSynced(ids []uint) error {
	return s.markSynced(&database.Taxpayer{}, ids)
}

// MarkTaxpayersFailed 批量标记纳税人记录为同步失败
func (s *ledgerService) MarkTaxpayersFailed(ids []uint, message string) error {
	return s.markFailed(&database.Taxpayer{}, ids, message)
}

// MarkParcelsSynced 批量标记宗地记录为已同步
func (s *ledgerService) MarkParcelsSynced(ids []uint) error {
	return s.markSynced(&database.Parcel{}, ids)
}

// MarkParcelsFailed 批量标记宗地记录为同步失败
func (s *ledgerService) MarkParcelsFailed(ids []uint, message string) error {
	return s.markFailed(&database.Parcel{}, ids, message)
}

// markSynced 单条批量语句完成已同步状态转换
// 同时清空错误信息，维持"已同步记录无错误信息"的不变量
func (s *ledgerService) markSynced(model interface{}, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	now := time.Now().UTC()
	result := s.db.Model(model).Where("id IN ?", ids).Updates(map[string]interface{}{
		"sync_status":  database.SyncStatusSynced,
		"sync_error":   nil,
		"last_sync_at": now,
	})
	if result.Error != nil {
		logger.Errorf("[状态账服务] 标记已同步失败: %v", result.Error)
		return errors.WrapByCode(errors.ErrDatabaseUpdate, result.Error)
	}

	logger.Debugf("[状态账服务] 已标记%d条记录为已同步", result.RowsAffected)
	return nil
}

// markFailed 单条批量语句完成失败状态转换
// 尝试次数自增由数据库表达式完成，避免读改写竞争
// 不设最大尝试次数上限，失败记录在后续会话中始终可再次选中
func (s *ledgerService) markFailed(model interface{}, ids []uint, message string) error {
	if len(ids) == 0 {
		return nil
	}

	now := time.Now().UTC()
	result := s.db.Model(model).Where("id IN ?", ids).Updates(map[string]interface{}{
		"sync_status":   database.SyncStatusFailed,
		"sync_error":    message,
		"sync_attempts": gorm.Expr("sync_attempts + 1"),
		"last_sync_at":  now,
	})
	if result.Error != nil {
		logger.Errorf("[状态账服务] 标记同步失败状态时出错: %v", result.Error)
		return errors.WrapByCode(errors.ErrDatabaseUpdate, result.Error)
	}

	logger.Debugf("[状态账服务] 已标记%d条记录为同步失败: %s", result.RowsAffected, message)
	return nil
}

// SelectPendingTaxpayers 选取待同步的纳税人记录
func (s *ledgerService) SelectPendingTaxpayers(limit int, after *PendingCursor) ([]database.Taxpayer, error) {
	var records []database.Taxpayer
	if err := s.pendingQuery(after).Limit(limit).Find(&records).Error; err != nil {
		logger.Errorf("[状态账服务] 选取待同步纳税人记录失败: %v", err)
		return nil, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}
	return records, nil
}

// SelectPendingParcels 选取待同步的宗地记录
func (s *ledgerService) SelectPendingParcels(limit int, after *PendingCursor) ([]database.Parcel, error) {
	var records []database.Parcel
	query := s.pendingQuery(after).Preload("Owner").Preload("Buildings")
	if err := query.Limit(limit).Find(&records).Error; err != nil {
		logger.Errorf("[状态账服务] 选取待同步宗地记录失败: %v", err)
		return nil, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}
	return records, nil
}

// pendingQuery 构造待同步记录的基础查询
// 排序固定为(created_at asc, id asc)，保证多次会话间的选取顺序确定
func (s *ledgerService) pendingQuery(after *PendingCursor) *gorm.DB {
	query := s.db.Where("sync_status <> ?", database.SyncStatusSynced)
	if after != nil {
		query = query.Where("(created_at > ?) OR (created_at = ? AND id > ?)",
			after.CreatedAt, after.CreatedAt, after.ID)
	}
	return query.Order("created_at ASC, id ASC")
}

// CountPending 统计各实体的待同步与失败记录数
func (s *ledgerService) CountPending() (*PendingSummary, error) {
	summary := &PendingSummary{}

	counts := []struct {
		model  interface{}
		status database.SyncStatus
		target *int64
	}{
		{&database.Taxpayer{}, database.SyncStatusPending, &summary.TaxpayerPending},
		{&database.Taxpayer{}, database.SyncStatusFailed, &summary.TaxpayerFailed},
		{&database.Parcel{}, database.SyncStatusPending, &summary.ParcelPending},
		{&database.Parcel{}, database.SyncStatusFailed, &summary.ParcelFailed},
	}

	for _, c := range counts {
		if err := s.db.Model(c.model).Where("sync_status = ?", c.status).Count(c.target).Error; err != nil {
			logger.Errorf("[状态账服务] 统计待同步记录失败: %v", err)
			return nil, errors.WrapByCode(errors.ErrDatabaseQuery, err)
		}
	}

	return summary, nil
}
