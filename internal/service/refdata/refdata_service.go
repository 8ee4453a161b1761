// Package refdata 提供共享参照数据的全量重同步功能
// 以后端权威列表原子替换本地参照表，并保持后端分配的ID不变
// 本地领域记录以外键引用这些ID，ID重新生成会破坏既有记录的引用完整性
package refdata

import (
	"context"

	"gorm.io/gorm"

	"github.com/weiwangfds/fieldtax/internal/database"
	"github.com/weiwangfds/fieldtax/internal/errors"
	"github.com/weiwangfds/fieldtax/internal/logger"
	"github.com/weiwangfds/fieldtax/internal/service/session"
	"github.com/weiwangfds/fieldtax/internal/service/transfer"
)

// 参照表名常量，与后端参照数据接口的表名一致
const (
	TableDistricts     = "districts"
	TableOccupations   = "occupations"
	TableLandUseTypes  = "land_use_types"
	TableBuildingTypes = "building_types"
)

// RefreshSummary 参照数据同步结果
type RefreshSummary struct {
	Success       bool           `json:"success"`         // 是否全部成功
	Message       string         `json:"message"`         // 结果描述
	CountsByTable map[string]int `json:"counts_by_table"` // 各表写入的行数
}

// RefdataService 参照数据重同步服务接口
type RefdataService interface {
	// Synchronize 全量替换本地参照表
	// 替换过程中必然出现外键短暂悬空，操作期间关闭外键约束检查
	// 删除与插入在同一事务内完成，任何失败整体回滚，不会出现半替换的表
	// 与导出会话共享同一个单飞闸门，互斥执行
	Synchronize(ctx context.Context) (*RefreshSummary, error)
}

// refdataService 参照数据重同步服务实现
type refdataService struct {
	db     *gorm.DB
	gate   *session.Gate
	client transfer.Client
}

// NewRefdataService 创建参照数据重同步服务实例
// 参数:
//   db: 数据库连接实例
//   gate: 同步会话闸门，与导出协调器共享
//   client: 远程传输客户端
// 返回:
//   RefdataService: 参照数据重同步服务接口实例
func NewRefdataService(db *gorm.DB, gate *session.Gate, client transfer.Client) RefdataService {
	return &refdataService{
		db:     db,
		gate:   gate,
		client: client,
	}
}

// Synchronize 全量替换本地参照表
func (s *refdataService) Synchronize(ctx context.Context) (*RefreshSummary, error) {
	if !s.gate.TryAcquire() {
		logger.Warn("[参照数据服务] 已有同步会话在运行，拒绝参照数据同步")
		return nil, errors.ErrExportInProgressError
	}
	defer s.gate.Release()

	logger.Info("[参照数据服务] 参照数据同步开始")

	token, err := s.client.Login(ctx)
	if err != nil {
		logger.Errorf("[参照数据服务] 登录失败，中止: %v", err)
		return s.failureSummary(err), err
	}

	tables, err := s.client.FetchReferenceData(ctx, token)
	if err != nil {
		logger.Errorf("[参照数据服务] 拉取参照数据失败: %v", err)
		return s.failureSummary(err), err
	}

	counts, err := s.replaceTables(tables)
	if err != nil {
		logger.Errorf("[参照数据服务] 替换参照表失败，已回滚: %v", err)
		return s.failureSummary(err), err
	}

	logger.Infof("[参照数据服务] 参照数据同步完成: %v", counts)
	return &RefreshSummary{
		Success:       true,
		Message:       "参照数据同步完成",
		CountsByTable: counts,
	}, nil
}

// replaceTables 在单个事务内完成全部参照表的删除与重建
// 外键约束检查在事务外关闭并在返回前恢复，包括失败路径
func (s *refdataService) replaceTables(tables map[string][]transfer.ReferenceRow) (map[string]int, error) {
	if err := s.db.Exec("PRAGMA foreign_keys = OFF").Error; err != nil {
		return nil, errors.WrapByCode(errors.ErrReferenceSync, err)
	}
	defer func() {
		if err := s.db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			logger.Errorf("[参照数据服务] 恢复外键约束检查失败: %v", err)
		}
	}()

	counts := make(map[string]int)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := replaceTable(tx, TableDistricts, tables[TableDistricts], func(row transfer.ReferenceRow) interface{} {
			return &database.District{ID: row.ID, Label: row.Label}
		}); err != nil {
			return err
		}
		if err := replaceTable(tx, TableOccupations, tables[TableOccupations], func(row transfer.ReferenceRow) interface{} {
			return &database.Occupation{ID: row.ID, Label: row.Label}
		}); err != nil {
			return err
		}
		if err := replaceTable(tx, TableLandUseTypes, tables[TableLandUseTypes], func(row transfer.ReferenceRow) interface{} {
			return &database.LandUseType{ID: row.ID, Label: row.Label}
		}); err != nil {
			return err
		}
		if err := replaceTable(tx, TableBuildingTypes, tables[TableBuildingTypes], func(row transfer.ReferenceRow) interface{} {
			return &database.BuildingType{ID: row.ID, Label: row.Label}
		}); err != nil {
			return err
		}

		for name, rows := range tables {
			counts[name] = len(rows)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WrapByCode(errors.ErrReferenceSync, err)
	}

	return counts, nil
}

// replaceTable 清空单个参照表并按后端下发的行重建
// 插入时显式携带后端分配的ID，不使用本地自增
func replaceTable(tx *gorm.DB, name string, rows []transfer.ReferenceRow, build func(transfer.ReferenceRow) interface{}) error {
	if err := tx.Exec("DELETE FROM " + name).Error; err != nil {
		return err
	}

	for _, row := range rows {
		if err := tx.Create(build(row)).Error; err != nil {
			return err
		}
	}

	logger.Debugf("[参照数据服务] 参照表%s已替换, 行数: %d", name, len(rows))
	return nil
}

// failureSummary 构造失败结果
func (s *refdataService) failureSummary(err error) *RefreshSummary {
	message := errors.GetErrorMessage(errors.ErrReferenceSync)
	if appErr, ok := errors.GetAppError(err); ok {
		message = appErr.Message
	}
	return &RefreshSummary{
		Success:       false,
		Message:       message,
		CountsByTable: map[string]int{},
	}
}
