// Package cleanup 提供导出确认后的本地清理功能
// 后端确认接收一个分块后，删除对应的本地记录、从属记录和磁盘附件文件
// 行删除在单个事务内完成；附件文件删除为尽力而为，失败只记日志
package cleanup

import (
	"os"

	"gorm.io/gorm"

	"github.com/weiwangfds/fieldtax/internal/database"
	"github.com/weiwangfds/fieldtax/internal/errors"
	"github.com/weiwangfds/fieldtax/internal/logger"
)

// PurgeResult 清理结果统计
type PurgeResult struct {
	RecordsDeleted    int64 // 删除的主记录数
	DependentsDeleted int64 // 删除的从属记录数（权利人、建筑物、关联行）
	FilesDeleted      int   // 删除成功的附件文件数
	FileFailures      int   // 删除失败的附件文件数（仅记录日志）
}

// CleanupService 导出后清理服务接口
type CleanupService interface {
	// PurgeTaxpayers 删除已确认导出的纳税人记录及其附件文件
	PurgeTaxpayers(ids []uint) (*PurgeResult, error)

	// PurgeParcels 删除已确认导出的宗地记录、从属记录及其附件文件
	// 按从属记录先、主记录后的顺序显式删除，不依赖存储引擎级联
	PurgeParcels(ids []uint) (*PurgeResult, error)
}

// cleanupService 导出后清理服务实现
type cleanupService struct {
	db *gorm.DB
}

// NewCleanupService 创建导出后清理服务实例
// 参数:
//   db: 数据库连接实例
// 返回:
//   CleanupService: 清理服务接口实例
func NewCleanupService(db *gorm.DB) CleanupService {
	return &cleanupService{db: db}
}

// PurgeTaxpayers 删除已确认导出的纳税人记录及其附件文件
func (s *cleanupService) PurgeTaxpayers(ids []uint) (*PurgeResult, error) {
	result := &PurgeResult{}
	if len(ids) == 0 {
		return result, nil
	}

	logger.Infof("[清理服务] 开始清理纳税人记录, 数量: %d", len(ids))

	// 删除行之前先收集附件路径，删除后无法再查询
	var records []database.Taxpayer
	if err := s.db.Select("id", "attachments").Where("id IN ?", ids).Find(&records).Error; err != nil {
		logger.Errorf("[清理服务] 查询纳税人附件路径失败: %v", err)
		return result, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}

	var paths []string
	for _, record := range records {
		paths = append(paths, record.Attachments...)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		deleted := tx.Where("id IN ?", ids).Delete(&database.Taxpayer{})
		if deleted.Error != nil {
			return deleted.Error
		}
		result.RecordsDeleted = deleted.RowsAffected
		return nil
	})
	if err != nil {
		logger.Errorf("[清理服务] 删除纳税人记录失败: %v", err)
		return result, errors.WrapByCode(errors.ErrDatabaseDelete, err)
	}

	s.removeAttachmentFiles(paths, result)

	logger.Infof("[清理服务] 纳税人记录清理完成, 删除记录: %d, 删除文件: %d", result.RecordsDeleted, result.FilesDeleted)
	return result, nil
}

// PurgeParcels 删除已确认导出的宗地记录、从属记录及其附件文件
func (s *cleanupService) PurgeParcels(ids []uint) (*PurgeResult, error) {
	result := &PurgeResult{}
	if len(ids) == 0 {
		return result, nil
	}

	logger.Infof("[清理服务] 开始清理宗地记录, 数量: %d", len(ids))

	var records []database.Parcel
	if err := s.db.Select("id", "attachments").Where("id IN ?", ids).Find(&records).Error; err != nil {
		logger.Errorf("[清理服务] 查询宗地附件路径失败: %v", err)
		return result, errors.WrapByCode(errors.ErrDatabaseQuery, err)
	}

	var paths []string
	for _, record := range records {
		paths = append(paths, record.Attachments...)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 本分块宗地引用的建筑物
		var buildingIDs []uint
		if err := tx.Table("parcel_buildings").Where("parcel_id IN ?", ids).
			Distinct().Pluck("building_id", &buildingIDs).Error; err != nil {
			return err
		}

		// 先删关联行
		joinDeleted := tx.Exec("DELETE FROM parcel_buildings WHERE parcel_id IN ?", ids)
		if joinDeleted.Error != nil {
			return joinDeleted.Error
		}
		result.DependentsDeleted += joinDeleted.RowsAffected

		// 仅删除不再被其余宗地引用的建筑物
		if len(buildingIDs) > 0 {
			var stillUsed []uint
			if err := tx.Table("parcel_buildings").Where("building_id IN ?", buildingIDs).
				Distinct().Pluck("building_id", &stillUsed).Error; err != nil {
				return err
			}

			orphaned := excludeIDs(buildingIDs, stillUsed)
			if len(orphaned) > 0 {
				deleted := tx.Where("id IN ?", orphaned).Delete(&database.Building{})
				if deleted.Error != nil {
					return deleted.Error
				}
				result.DependentsDeleted += deleted.RowsAffected
			}
		}

		// 删除权利人
		ownersDeleted := tx.Where("parcel_id IN ?", ids).Delete(&database.ParcelOwner{})
		if ownersDeleted.Error != nil {
			return ownersDeleted.Error
		}
		result.DependentsDeleted += ownersDeleted.RowsAffected

		// 最后删除主记录
		parcelsDeleted := tx.Where("id IN ?", ids).Delete(&database.Parcel{})
		if parcelsDeleted.Error != nil {
			return parcelsDeleted.Error
		}
		result.RecordsDeleted = parcelsDeleted.RowsAffected
		return nil
	})
	if err != nil {
		logger.Errorf("[清理服务] 删除宗地记录失败: %v", err)
		return result, errors.WrapByCode(errors.ErrDatabaseDelete, err)
	}

	s.removeAttachmentFiles(paths, result)

	logger.Infof("[清理服务] 宗地记录清理完成, 删除记录: %d, 从属记录: %d, 删除文件: %d",
		result.RecordsDeleted, result.DependentsDeleted, result.FilesDeleted)
	return result, nil
}

// removeAttachmentFiles 尽力删除附件文件
// 远程已确认接收，文件删除失败不升级为同步失败，只记录日志供人工处理
func (s *cleanupService) removeAttachmentFiles(paths []string, result *PurgeResult) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			result.FileFailures++
			cleanupErr := errors.WrapByCode(errors.ErrAttachmentCleanup, err)
			logger.Warnf("[清理服务] 附件文件删除失败: %s, %v", path, cleanupErr)
			continue
		}
		result.FilesDeleted++
	}
}

// excludeIDs 返回ids中不在exclude内的元素
func excludeIDs(ids, exclude []uint) []uint {
	excluded := make(map[uint]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	var remaining []uint
	for _, id := range ids {
		if _, ok := excluded[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	return remaining
}
